// Package document turns a parsed quire document and its data into page
// sets ready for layout.
package document

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/ByLCY/quire/config"
	"github.com/ByLCY/quire/dsl"
	"github.com/ByLCY/quire/layout"
)

// Options 控制文档构建。
type Options struct {
	// Config 提供默认字体与页面设置。
	Config config.Config
	// BaseDir 用于解析相对的图片路径。
	BaseDir string
	Logger  *log.Logger
}

// Document 是构建结果：每个 page 段对应一个 PageSet。
type Document struct {
	Meta     layout.DocumentMeta
	Fonts    map[string]FontFiles
	PageSets []*layout.PageSet
}

// Build 解析资源与元数据，并以 data 展开每个 page 段的元素树。
func Build(doc *dsl.Document, data any, opts Options) (*Document, error) {
	if doc == nil {
		return nil, fmt.Errorf("文档为空: %w", layout.ErrInvalidArgument)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	res, err := collectResources(doc)
	if err != nil {
		return nil, fmt.Errorf("解析资源失败: %w", err)
	}
	font, err := defaultFont(opts.Config.Font, res)
	if err != nil {
		return nil, err
	}
	b := &builder{res: res, font: font, baseDir: opts.BaseDir, logger: logger}

	out := &Document{
		Meta:  collectMeta(doc, data),
		Fonts: res.Fonts,
	}
	for _, page := range doc.Pages() {
		ps, err := b.pageSet(page, opts.Config.Page, data)
		if err != nil {
			return nil, fmt.Errorf("page (第 %d 行): %w", page.Pos.Line, err)
		}
		out.PageSets = append(out.PageSets, ps)
	}
	if len(out.PageSets) == 0 {
		return nil, fmt.Errorf("文档缺少 page 段: %w", layout.ErrInvalidArgument)
	}
	logger.Debug("document built", "pageSets", len(out.PageSets), "fonts", len(out.Fonts))
	return out, nil
}

// Layout paginates every page set in order and numbers the pages across
// the whole document.
func (d *Document) Layout(pass *layout.PassContext) ([]*layout.PageLayout, error) {
	var pages []*layout.PageLayout
	for i, ps := range d.PageSets {
		got, err := ps.Layout(pass)
		if err != nil {
			return nil, fmt.Errorf("page set %d: %w", i+1, err)
		}
		pages = append(pages, got...)
	}
	for i, page := range pages {
		page.Number = i + 1
		page.Total = len(pages)
	}
	return pages, nil
}

func defaultFont(cfg config.Font, res ResourceSet) (layout.FontSpec, error) {
	spec := layout.FontSpec{Family: cfg.Family, Size: cfg.Size}
	if cfg.Color != "" {
		c, err := res.color(cfg.Color)
		if err != nil {
			return spec, fmt.Errorf("默认字体颜色: %w", err)
		}
		spec.Color = c
	}
	return spec, nil
}

func (b *builder) pageSet(section *dsl.PageSection, defaults config.Page, data any) (*layout.PageSet, error) {
	width, height, err := resolvePageSize(section.Spec, defaults)
	if err != nil {
		return nil, err
	}
	margin, err := resolveMargin(section.Spec.Params, defaults.Margin)
	if err != nil {
		return nil, err
	}
	ps := layout.NewPageSet(width, height, margin)
	if section.Block == nil {
		return ps, nil
	}

	for _, stmt := range section.Block.Statements {
		if cmd := stmt.Command; cmd != nil && (cmd.Name == "header" || cmd.Name == "footer") {
			el, err := b.single(cmd.Block, data)
			if err != nil {
				return nil, wrapCommand(cmd, err)
			}
			if el == nil {
				continue
			}
			if cmd.Name == "header" {
				ps.SetHeader(el)
			} else {
				ps.SetFooter(el)
			}
			continue
		}
		items, err := b.block(&dsl.Block{Statements: []*dsl.Statement{stmt}}, data)
		if err != nil {
			return nil, err
		}
		for _, it := range items {
			ps.AddElement(it.el)
		}
	}
	return ps, nil
}

var pagePresets = map[string][2]float64{
	"A3":     {297, 420},
	"A4":     {210, 297},
	"A5":     {148, 210},
	"A6":     {105, 148},
	"LETTER": {215.9, 279.4},
	"LEGAL":  {215.9, 355.6},
}

// resolvePageSize 读取 `page <size> [portrait|landscape] [width w height h]`，
// size 为 default 时使用配置中的纸张。
func resolvePageSize(spec dsl.PageSpec, defaults config.Page) (float64, float64, error) {
	size := spec.Size
	if strings.EqualFold(size, "default") {
		size = defaults.Size
	}
	base, ok := pagePresets[strings.ToUpper(size)]
	if !ok && !strings.EqualFold(size, "custom") {
		return 0, 0, fmt.Errorf("暂不支持的纸张尺寸：%s", size)
	}
	width, height := base[0], base[1]

	landscape := strings.EqualFold(defaults.Orientation, "landscape")
	for i := 0; i < len(spec.Params); i++ {
		switch strings.ToLower(spec.Params[i].Value) {
		case "landscape":
			landscape = true
		case "portrait":
			landscape = false
		case "width", "height":
			if i+1 >= len(spec.Params) {
				return 0, 0, fmt.Errorf("%s 缺少取值: %w", spec.Params[i].Value, layout.ErrInvalidArgument)
			}
			mm, err := layout.ParseLength(spec.Params[i+1].Value)
			if err != nil {
				return 0, 0, err
			}
			if strings.EqualFold(spec.Params[i].Value, "width") {
				width = mm
			} else {
				height = mm
			}
			i++
		}
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("纸张尺寸 %gx%g 无效: %w", width, height, layout.ErrInvalidArgument)
	}
	if landscape && height > width {
		width, height = height, width
	}
	return width, height, nil
}

// resolveMargin collects up to four lengths after `margin`; without one
// the configured default applies.
func resolveMargin(params []*dsl.Lexeme, fallback string) (layout.Spacing, error) {
	for i, token := range params {
		if token.Value != "margin" {
			continue
		}
		var vals []string
		for j := i + 1; j < len(params) && len(vals) < 4; j++ {
			if _, err := layout.ParseLength(params[j].Value); err != nil {
				break
			}
			vals = append(vals, params[j].Value)
		}
		if len(vals) == 0 {
			return layout.Spacing{}, fmt.Errorf("margin 缺少取值: %w", layout.ErrInvalidArgument)
		}
		return layout.ParseSpacing(strings.Join(vals, " "))
	}
	if fallback == "" {
		return layout.Spacing{}, nil
	}
	return layout.ParseSpacing(fallback)
}
