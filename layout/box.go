package layout

import "fmt"

// Box 至多包裹一个子元素，并在外面加上自己的 outline。
type Box struct {
	node
	child Element
}

func NewBox(child Element, opts ...Option) *Box {
	return &Box{node: newNode("box", true, opts), child: child}
}

func (b *Box) Child() Element { return b.child }

func (b *Box) SetChild(child Element) error {
	if err := b.checkMutable("set child"); err != nil {
		return err
	}
	b.child = child
	return nil
}

// IsSplittable 要求 box 本身与子元素都可拆分。
func (b *Box) IsSplittable() bool {
	return b.splittable && b.child != nil && b.child.IsSplittable()
}

func (b *Box) Prepare(ctx *PrepareContext) (Size, error) {
	return b.prepare(ctx, func(ctx *PrepareContext) (Size, error) {
		if b.child == nil {
			return Size{}, nil
		}
		w := ctx.AvailableWidth - b.OutlineXSum()
		h := ctx.AvailableHeight - b.OutlineYSum()
		net, err := b.child.Prepare(ctx.Sub(w, h))
		if err != nil {
			return Size{}, fmt.Errorf("prepare child of %s: %w", b.id, err)
		}
		full := net.Plus(b.child.OutlineXSum(), b.child.OutlineYSum())
		if full.Width > w+tolerance {
			b.warn("box content wider than available", "available", w, "used", full.Width)
		}
		return full, nil
	})
}

func (b *Box) MarkNotPrepared() {
	b.node.MarkNotPrepared()
	if b.child != nil {
		b.child.MarkNotPrepared()
	}
}

func (b *Box) Render(ctx *RenderContext) error {
	content, err := b.renderFrame(ctx)
	if err != nil || b.child == nil {
		return err
	}
	full, err := fullSize(b.child)
	if err != nil {
		return err
	}
	x := content.X + b.outline.indentX(content.Width, full.Width)
	y := content.Y + b.outline.indentY(content.Height, full.Height)
	return b.child.Render(ctx.at(x, y, full.Width, full.Height))
}

// Visit re-derives the prepared size when the child changed.
func (b *Box) Visit(v Visitor) (bool, error) {
	changed := false
	if b.child != nil {
		c, err := b.child.Visit(v)
		if err != nil {
			return c, err
		}
		changed = c
	}
	self, err := v.Visit(b)
	if err != nil {
		return changed || self, err
	}
	if changed && b.IsPrepared() {
		full, err := fullSize(b.child)
		if err != nil {
			return true, err
		}
		b.prepared = full
	}
	return changed || self, nil
}

func (b *Box) SplitVertical(availableWidth, availableHeight float64) (*SplitResult, error) {
	if _, err := b.checkSplit(availableWidth, availableHeight); err != nil {
		return nil, err
	}
	if availableHeight <= 0 || !b.IsSplittable() || b.prepared.Height <= availableHeight {
		return nil, nil
	}
	childNet, err := b.child.PreparedSize()
	if err != nil {
		return nil, err
	}
	res, err := b.child.SplitVertical(childNet.Width, availableHeight-b.child.OutlineYSum())
	if err != nil || res == nil {
		return nil, err
	}

	head := &Box{node: b.derive("-1", false), child: res.Head.Element}
	head.markPrepared(Size{Width: b.prepared.Width, Height: res.Head.Full.Height})
	tail := &Box{node: b.derive("-2", true), child: res.Tail.Element}
	tail.markPrepared(Size{Width: b.prepared.Width, Height: res.Tail.Full.Height})
	b.debugSplit("box split", "head", res.Head.Full.Height, "tail", res.Tail.Full.Height)
	return newSplitResult(head, tail)
}
