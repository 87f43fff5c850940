package layout

import (
	"encoding/json"
	"os"
)

type fragmentDump struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
	Rect Rect   `json:"rect"`
}

type pageDump struct {
	Number    int            `json:"number"`
	Width     float64        `json:"width"`
	Height    float64        `json:"height"`
	Fragments []fragmentDump `json:"fragments"`
}

// DebugDump 将分页结果（每页放置的片段及其矩形）序列化为 JSON。
func DebugDump(pages []*PageLayout) ([]byte, error) {
	out := make([]pageDump, 0, len(pages))
	for _, pg := range pages {
		d := pageDump{Number: pg.Number, Width: pg.Width, Height: pg.Height}
		for _, pl := range pg.all() {
			d.Fragments = append(d.Fragments, fragmentDump{ID: pl.Element.ID(), Kind: kindOf(pl.Element), Rect: pl.Rect})
		}
		out = append(out, d)
	}
	return json.MarshalIndent(out, "", "  ")
}

// WriteDebugJSON 将分页结果输出为 JSON 文件，便于调试或可视化。
func WriteDebugJSON(pages []*PageLayout, path string) error {
	data, err := DebugDump(pages)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
