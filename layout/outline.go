package layout

// Spacing holds one value per side, in mm.
type Spacing struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

func Uniform(v float64) Spacing { return Spacing{Top: v, Right: v, Bottom: v, Left: v} }

// Symmetric takes the vertical value first, as CSS does.
func Symmetric(y, x float64) Spacing { return Spacing{Top: y, Right: x, Bottom: y, Left: x} }

func (s Spacing) XSum() float64 { return s.Left + s.Right }
func (s Spacing) YSum() float64 { return s.Top + s.Bottom }
func (s Spacing) IsZero() bool  { return s == Spacing{} }

// LineCap 描述线段端点样式。
type LineCap int

const (
	CapButt LineCap = iota
	CapRound
	CapSquare
)

// LineJoin 描述折线拐角样式。
type LineJoin int

const (
	JoinMiter LineJoin = iota
	JoinRound
	JoinBevel
)

// LineStyle 是边框与下划线的描边参数。
type LineStyle struct {
	Width float64  `json:"width"`
	Color Color    `json:"color"`
	Cap   LineCap  `json:"cap"`
	Join  LineJoin `json:"join"`
}

// Border 每条边可以有不同宽度，颜色与端点样式共享。
type Border struct {
	Widths Spacing  `json:"widths"`
	Color  Color    `json:"color"`
	Cap    LineCap  `json:"cap"`
	Join   LineJoin `json:"join"`
}

// UniformBorder returns a border of width w on every side.
func UniformBorder(w float64, c Color) Border {
	return Border{Widths: Uniform(w), Color: c}
}

func (b Border) style(width float64) LineStyle {
	return LineStyle{Width: width, Color: b.Color, Cap: b.Cap, Join: b.Join}
}

type HAlign int

const (
	AlignLeft HAlign = iota
	AlignCenter
	AlignRight
)

type VAlign int

const (
	AlignTop VAlign = iota
	AlignMiddle
	AlignBottom
)

// Outline 聚合外边距、边框、内边距、填充色与对齐方式，所有元素共用。
type Outline struct {
	Margin  Spacing `json:"margin"`
	Border  Border  `json:"border"`
	Padding Spacing `json:"padding"`
	Fill    *Color  `json:"fill,omitempty"`
	HAlign  HAlign  `json:"hAlign"`
	VAlign  VAlign  `json:"vAlign"`
}

// XSum is the horizontal space taken by margin, border and padding.
func (o Outline) XSum() float64 {
	return o.Margin.XSum() + o.Border.Widths.XSum() + o.Padding.XSum()
}

// YSum is the vertical space taken by margin, border and padding.
func (o Outline) YSum() float64 {
	return o.Margin.YSum() + o.Border.Widths.YSum() + o.Padding.YSum()
}

func (o Outline) contentOffset() (x, y float64) {
	return o.Margin.Left + o.Border.Widths.Left + o.Padding.Left,
		o.Margin.Top + o.Border.Widths.Top + o.Padding.Top
}

// indentX returns the horizontal offset of content of width used inside
// a slot of width avail.
func (o Outline) indentX(avail, used float64) float64 {
	if avail <= used {
		return 0
	}
	switch o.HAlign {
	case AlignCenter:
		return (avail - used) / 2
	case AlignRight:
		return avail - used
	default:
		return 0
	}
}

func (o Outline) indentY(avail, used float64) float64 {
	if avail <= used {
		return 0
	}
	switch o.VAlign {
	case AlignMiddle:
		return (avail - used) / 2
	case AlignBottom:
		return avail - used
	default:
		return 0
	}
}
