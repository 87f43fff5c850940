package layout

import "image"

// Image draws a decoded image at a fixed size. With scale-to-fit it
// shrinks proportionally to the available width.
type Image struct {
	node
	img        image.Image
	size       Size
	scaleToFit bool
}

func NewImage(img image.Image, width, height float64, opts ...Option) *Image {
	return &Image{node: newNode("image", false, opts), img: img, size: Size{Width: width, Height: height}}
}

func (i *Image) SetScaleToFit(fit bool) error {
	if err := i.checkMutable("set scale to fit"); err != nil {
		return err
	}
	i.scaleToFit = fit
	return nil
}

func (i *Image) Prepare(ctx *PrepareContext) (Size, error) {
	return i.prepare(ctx, func(ctx *PrepareContext) (Size, error) {
		return fitToWidth(i.size, i.scaleToFit, ctx.AvailableWidth-i.OutlineXSum()), nil
	})
}

func (i *Image) Render(ctx *RenderContext) error {
	content, err := i.renderFrame(ctx)
	if err != nil {
		return err
	}
	if i.img == nil {
		return nil
	}
	r := Rect{
		X:      content.X + i.outline.indentX(content.Width, i.prepared.Width),
		Y:      content.Y + i.outline.indentY(content.Height, i.prepared.Height),
		Width:  i.prepared.Width,
		Height: i.prepared.Height,
	}
	return ctx.Surface.DrawImage(r, i.img)
}

func (i *Image) Visit(v Visitor) (bool, error) { return v.Visit(i) }

func (i *Image) SplitVertical(availableWidth, availableHeight float64) (*SplitResult, error) {
	_, err := i.checkSplit(availableWidth, availableHeight)
	return nil, err
}

// fitToWidth 在 fit 时把超出 avail 的尺寸等比缩小。
func fitToWidth(size Size, fit bool, avail float64) Size {
	if fit && size.Width > avail && avail > 0 {
		size.Height = size.Height * avail / size.Width
		size.Width = avail
	}
	return size
}
