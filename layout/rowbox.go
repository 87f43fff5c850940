package layout

import (
	"fmt"
	"math"
	"strconv"
)

type column struct {
	el    Element
	width DimensionSpec
}

// RowBox 把各列横向排列，列宽由 Dimension 决定。
type RowBox struct {
	node
	cols      []column
	fullWidth bool

	// 准备后的状态，每列的完整尺寸
	colWidths  []float64
	colHeights []float64
}

func NewRowBox(opts ...Option) *RowBox {
	return &RowBox{node: newNode("row", true, opts)}
}

// AddColumn 追加一列。
func (r *RowBox) AddColumn(e Element, width DimensionSpec) error {
	if err := r.checkMutable("add column"); err != nil {
		return err
	}
	if e == nil {
		return usageError("add column", r.id, ErrInvalidArgument)
	}
	r.cols = append(r.cols, column{el: e, width: width})
	return nil
}

// SetFullWidth 让行占满可用宽度。
func (r *RowBox) SetFullWidth(full bool) error {
	if err := r.checkMutable("set full width"); err != nil {
		return err
	}
	r.fullWidth = full
	return nil
}

func (r *RowBox) ColumnCount() int { return len(r.cols) }

func (r *RowBox) Column(i int) Element { return r.cols[i].el }

// ColumnWidths returns the prepared full width of each column.
func (r *RowBox) ColumnWidths() []float64 { return append([]float64(nil), r.colWidths...) }

// ColumnHeights returns the prepared full height of each column.
func (r *RowBox) ColumnHeights() []float64 { return append([]float64(nil), r.colHeights...) }

func (r *RowBox) Prepare(ctx *PrepareContext) (Size, error) {
	return r.prepare(ctx, r.onPrepare)
}

func (r *RowBox) onPrepare(ctx *PrepareContext) (Size, error) {
	elementWidth := ctx.AvailableWidth - r.OutlineXSum()
	elementHeight := ctx.AvailableHeight - r.OutlineYSum()

	specs := make([]DimensionSpec, len(r.cols))
	for i, c := range r.cols {
		specs[i] = c.width
	}
	nets := make([]Size, len(r.cols))
	measure := func(i int, extent float64, again bool) (trackExtent, error) {
		el := r.cols[i].el
		if again {
			el.MarkNotPrepared()
		}
		s, err := el.Prepare(ctx.Sub(extent, elementHeight))
		if err != nil {
			return trackExtent{}, fmt.Errorf("prepare column %d of %s: %w", i, r.id, err)
		}
		nets[i] = s
		return trackExtent{full: s.Width + el.OutlineXSum(), net: s.Width}, nil
	}
	dist, err := distribute(specs, elementWidth, measure, r.warn)
	if err != nil {
		return Size{}, err
	}

	r.colWidths = dist.allotted
	r.colHeights = make([]float64, len(r.cols))
	var height float64
	for i, c := range r.cols {
		r.colHeights[i] = nets[i].Height + c.el.OutlineYSum()
		height = math.Max(height, r.colHeights[i])
	}
	r.stretchColumns(height)

	if dist.used > elementWidth+tolerance {
		r.warn("row uses more width than available", "available", elementWidth, "used", dist.used)
	}
	width := dist.used
	if r.fullWidth {
		width = math.Max(width, elementWidth)
	}
	return Size{Width: width, Height: height}, nil
}

func (r *RowBox) stretchColumns(height float64) {
	for i, c := range r.cols {
		stretch(c.el, Size{Width: r.colWidths[i], Height: height})
	}
}

func (r *RowBox) MarkNotPrepared() {
	r.node.MarkNotPrepared()
	r.colWidths, r.colHeights = nil, nil
	for _, c := range r.cols {
		c.el.MarkNotPrepared()
	}
}

func (r *RowBox) Render(ctx *RenderContext) error {
	content, err := r.renderFrame(ctx)
	if err != nil {
		return err
	}
	var used float64
	for _, w := range r.colWidths {
		used += w
	}
	x := content.X + r.outline.indentX(content.Width, used)
	for i, c := range r.cols {
		if err := c.el.Render(ctx.at(x, content.Y, r.colWidths[i], content.Height)); err != nil {
			return err
		}
		x += r.colWidths[i]
	}
	return nil
}

// Visit refreshes the cached heights of changed columns.
func (r *RowBox) Visit(v Visitor) (bool, error) {
	changed := false
	for i, c := range r.cols {
		ch, err := c.el.Visit(v)
		if err != nil {
			return changed || ch, err
		}
		if ch && r.IsPrepared() {
			net, err := c.el.PreparedSize()
			if err != nil {
				return true, err
			}
			r.colHeights[i] = net.Height + c.el.OutlineYSum()
		}
		changed = changed || ch
	}
	self, err := v.Visit(r)
	if err != nil {
		return changed || self, err
	}
	if changed && r.IsPrepared() {
		var height float64
		for _, h := range r.colHeights {
			height = math.Max(height, h)
		}
		r.prepared.Height = height
		r.stretchColumns(height)
	}
	return changed || self, nil
}

func (r *RowBox) derivePiece(suffix string, splittable bool) *RowBox {
	return &RowBox{
		node:      r.derive(suffix, splittable),
		fullWidth: r.fullWidth,
		cols:      make([]column, len(r.cols)),
		colWidths: append([]float64(nil), r.colWidths...),
	}
}

// SplitVertical 拆分每个超高的列。放得下的列留在头部，尾部在其位置放一个
// outline 相同的空占位。有列超高却不可拆分时整行不拆。
func (r *RowBox) SplitVertical(availableWidth, availableHeight float64) (*SplitResult, error) {
	ok, err := r.checkSplit(availableWidth, availableHeight)
	if !ok {
		return nil, err
	}
	candidate := false
	for i, c := range r.cols {
		if c.el.IsSplittable() && r.colHeights[i] > availableHeight {
			candidate = true
			break
		}
	}
	if !candidate {
		r.debugSplit("row has no splittable overflowing column")
		return nil, nil
	}

	head := r.derivePiece("-1", false)
	tail := r.derivePiece("-2", true)
	headHeights := make([]float64, len(r.cols))
	tailHeights := make([]float64, len(r.cols))
	for i, c := range r.cols {
		netWidth := r.colWidths[i] - c.el.OutlineXSum()
		if ps, err := c.el.PreparedSize(); err == nil {
			netWidth = ps.Width
		}
		id := r.id + "-c" + strconv.Itoa(i)
		head.cols[i] = column{el: newPlaceholder(c.el, netWidth, id+"-1"), width: c.width}
		tail.cols[i] = column{el: newPlaceholder(c.el, netWidth, id+"-2"), width: c.width}
	}

	split := false
	for i, c := range r.cols {
		full := r.colHeights[i]
		if full > availableHeight {
			if !c.el.IsSplittable() {
				r.debugSplit("row split rejected: column cannot be split", "column", i, "height", full)
				return nil, nil
			}
			net, err := c.el.PreparedSize()
			if err != nil {
				return nil, err
			}
			res, err := c.el.SplitVertical(net.Width, availableHeight-c.el.OutlineYSum())
			if err != nil {
				return nil, err
			}
			if res == nil {
				r.debugSplit("row split rejected: column split failed", "column", i, "height", full)
				return nil, nil
			}
			head.cols[i].el = res.Head.Element
			tail.cols[i].el = res.Tail.Element
			headHeights[i] = res.Head.Full.Height
			tailHeights[i] = res.Tail.Full.Height
			split = true
			continue
		}
		head.cols[i].el = c.el
		headHeights[i] = math.Min(full, availableHeight)
	}
	if !split {
		return nil, nil
	}

	head.colHeights, tail.colHeights = headHeights, tailHeights
	var headHeight, tailHeight float64
	for i := range r.cols {
		headHeight = math.Max(headHeight, headHeights[i])
		tailHeight = math.Max(tailHeight, tailHeights[i])
	}
	head.markPrepared(Size{Width: r.prepared.Width, Height: headHeight})
	tail.markPrepared(Size{Width: r.prepared.Width, Height: tailHeight})
	head.stretchColumns(headHeight)
	tail.stretchColumns(tailHeight)

	r.debugSplit("row split", "head", headHeight, "tail", tailHeight)
	return newSplitResult(head, tail)
}
