package layout

import "fmt"

// 该文件定义布局核心与渲染器、测量器之间共享的值类型。

// Size 以毫米为单位记录宽高。
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Plus 返回在两个方向上各自增加给定值后的尺寸。
func (s Size) Plus(dw, dh float64) Size { return Size{Width: s.Width + dw, Height: s.Height + dh} }

// Rect 是页面坐标系（左上角为原点，y 向下）中的矩形。
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Inset 返回向内收缩 s 后的矩形。
func (r Rect) Inset(s Spacing) Rect {
	return Rect{
		X:      r.X + s.Left,
		Y:      r.Y + s.Top,
		Width:  r.Width - s.XSum(),
		Height: r.Height - s.YSum(),
	}
}

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

var (
	Black     = Color{}
	LinkColor = Color{R: 0, G: 102, B: 204}
)

// FontStyle 对应字体族中的字重/斜体组合。
type FontStyle int

const (
	FontRegular FontStyle = iota
	FontBold
	FontItalic
	FontBoldItalic
)

func (s FontStyle) String() string {
	switch s {
	case FontBold:
		return "bold"
	case FontItalic:
		return "italic"
	case FontBoldItalic:
		return "bold-italic"
	default:
		return "regular"
	}
}

// FontSpec 是字体缓存的键：字体族、样式、字号（pt）与颜色。
type FontSpec struct {
	Family string    `json:"family"`
	Style  FontStyle `json:"style"`
	Size   float64   `json:"size"`
	Color  Color     `json:"color"`
}

func (f FontSpec) String() string {
	return fmt.Sprintf("%s/%s/%gpt", f.Family, f.Style, f.Size)
}

// WithSize returns a copy of f at the given point size.
func (f FontSpec) WithSize(pt float64) FontSpec {
	f.Size = pt
	return f
}

// TextLine 表示排版后的一行文本内容及其宽度（mm）。
type TextLine struct {
	Content string  `json:"content"`
	Width   float64 `json:"width"`
}

// DocumentMeta 保存写入 PDF 的文档信息。
type DocumentMeta struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Subject  string   `json:"subject"`
	Creator  string   `json:"creator"`
	Keywords []string `json:"keywords"`
}
