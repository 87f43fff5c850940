package layout

// Graphic 是已解析的矢量图，Size 返回自然尺寸（mm）。
type Graphic interface {
	Size() (float64, float64)
}

// Vector 以固定尺寸绘制矢量图（SVG），与 Image 一样可按可用宽度等比缩小，且不可拆分。
type Vector struct {
	node
	graphic    Graphic
	size       Size
	scaleToFit bool
}

// NewVector 创建矢量图元素；width 与 height 都不大于 0 时使用图形的自然尺寸，只给出一边时按比例补全。
func NewVector(g Graphic, width, height float64, opts ...Option) *Vector {
	if g != nil {
		width, height = naturalSize(g, width, height)
	}
	return &Vector{node: newNode("vector", false, opts), graphic: g, size: Size{Width: width, Height: height}}
}

func naturalSize(g Graphic, width, height float64) (float64, float64) {
	gw, gh := g.Size()
	if gw <= 0 || gh <= 0 {
		return width, height
	}
	switch {
	case width <= 0 && height <= 0:
		return gw, gh
	case width <= 0:
		return height * gw / gh, height
	case height <= 0:
		return width, width * gh / gw
	}
	return width, height
}

func (v *Vector) Graphic() Graphic { return v.graphic }

func (v *Vector) SetScaleToFit(fit bool) error {
	if err := v.checkMutable("set scale to fit"); err != nil {
		return err
	}
	v.scaleToFit = fit
	return nil
}

func (v *Vector) Prepare(ctx *PrepareContext) (Size, error) {
	return v.prepare(ctx, func(ctx *PrepareContext) (Size, error) {
		return fitToWidth(v.size, v.scaleToFit, ctx.AvailableWidth-v.OutlineXSum()), nil
	})
}

func (v *Vector) Render(ctx *RenderContext) error {
	content, err := v.renderFrame(ctx)
	if err != nil {
		return err
	}
	if v.graphic == nil {
		return nil
	}
	r := Rect{
		X:      content.X + v.outline.indentX(content.Width, v.prepared.Width),
		Y:      content.Y + v.outline.indentY(content.Height, v.prepared.Height),
		Width:  v.prepared.Width,
		Height: v.prepared.Height,
	}
	return ctx.Surface.DrawVector(r, v.graphic)
}

func (v *Vector) Visit(vis Visitor) (bool, error) { return vis.Visit(v) }

func (v *Vector) SplitVertical(availableWidth, availableHeight float64) (*SplitResult, error) {
	_, err := v.checkSplit(availableWidth, availableHeight)
	return nil, err
}
