package layout

import (
	"fmt"
	"math"
)

type row struct {
	el     Element
	height DimensionSpec
}

// ColumnBox 纵向堆叠各行，前 HeaderRowCount 行在拆分后的每一片顶部重复。
type ColumnBox struct {
	node
	rows       []row
	headerRows int
	fullWidth  bool

	// 准备后的状态，每行的完整尺寸
	rowHeights []float64
	rowWidths  []float64
}

// NewColumnBox 创建列容器，各行占满宽度。
func NewColumnBox(opts ...Option) *ColumnBox {
	return &ColumnBox{node: newNode("column", true, opts), fullWidth: true}
}

// AddRow appends a row sized by height.
func (c *ColumnBox) AddRow(e Element, height DimensionSpec) error {
	if err := c.checkMutable("add row"); err != nil {
		return err
	}
	if e == nil {
		return usageError("add row", c.id, ErrInvalidArgument)
	}
	c.rows = append(c.rows, row{el: e, height: height})
	return nil
}

func (c *ColumnBox) SetHeaderRowCount(n int) error {
	if err := c.checkMutable("set header rows"); err != nil {
		return err
	}
	if n < 0 {
		return usageError("set header rows", c.id, ErrInvalidArgument)
	}
	c.headerRows = n
	return nil
}

func (c *ColumnBox) SetFullWidth(full bool) error {
	if err := c.checkMutable("set full width"); err != nil {
		return err
	}
	c.fullWidth = full
	return nil
}

func (c *ColumnBox) HeaderRowCount() int { return c.headerRows }
func (c *ColumnBox) RowCount() int       { return len(c.rows) }
func (c *ColumnBox) Row(i int) Element   { return c.rows[i].el }

// RowHeights returns the prepared full height of each row.
func (c *ColumnBox) RowHeights() []float64 { return append([]float64(nil), c.rowHeights...) }

func (c *ColumnBox) Prepare(ctx *PrepareContext) (Size, error) {
	return c.prepare(ctx, c.onPrepare)
}

func (c *ColumnBox) onPrepare(ctx *PrepareContext) (Size, error) {
	elementWidth := ctx.AvailableWidth - c.OutlineXSum()
	elementHeight := ctx.AvailableHeight - c.OutlineYSum()

	specs := make([]DimensionSpec, len(c.rows))
	for i, r := range c.rows {
		specs[i] = r.height
	}
	nets := make([]Size, len(c.rows))
	measure := func(i int, extent float64, again bool) (trackExtent, error) {
		el := c.rows[i].el
		if again {
			el.MarkNotPrepared()
		}
		s, err := el.Prepare(ctx.Sub(elementWidth, extent))
		if err != nil {
			return trackExtent{}, fmt.Errorf("prepare row %d of %s: %w", i, c.id, err)
		}
		nets[i] = s
		return trackExtent{full: s.Height + el.OutlineYSum(), net: s.Height}, nil
	}
	dist, err := distribute(specs, elementHeight, measure, c.warn)
	if err != nil {
		return Size{}, err
	}

	c.rowHeights = dist.allotted
	c.rowWidths = make([]float64, len(c.rows))
	var width float64
	for i, r := range c.rows {
		full := nets[i].Width + r.el.OutlineXSum()
		if full > elementWidth+tolerance {
			c.warn("row wider than available", "row", i, "available", elementWidth, "used", full)
		}
		if c.fullWidth {
			full = math.Max(full, elementWidth)
		}
		c.rowWidths[i] = full
		width = math.Max(width, full)
	}
	c.stretchRows()
	return Size{Width: width, Height: dist.used}, nil
}

func (c *ColumnBox) stretchRows() {
	for i, r := range c.rows {
		stretch(r.el, Size{Width: c.rowWidths[i], Height: c.rowHeights[i]})
	}
}

func (c *ColumnBox) MarkNotPrepared() {
	c.node.MarkNotPrepared()
	c.rowHeights, c.rowWidths = nil, nil
	for _, r := range c.rows {
		r.el.MarkNotPrepared()
	}
}

func (c *ColumnBox) Render(ctx *RenderContext) error {
	content, err := c.renderFrame(ctx)
	if err != nil {
		return err
	}
	y := content.Y + c.outline.indentY(content.Height, c.prepared.Height)
	for i, r := range c.rows {
		x := content.X + c.outline.indentX(content.Width, c.rowWidths[i])
		if err := r.el.Render(ctx.at(x, y, c.rowWidths[i], c.rowHeights[i])); err != nil {
			return err
		}
		y += c.rowHeights[i]
	}
	return nil
}

// Visit 之后刷新变化的 auto 行高。
func (c *ColumnBox) Visit(v Visitor) (bool, error) {
	changed := false
	for i, r := range c.rows {
		ch, err := r.el.Visit(v)
		if err != nil {
			return changed || ch, err
		}
		if ch && c.IsPrepared() && r.height.IsAuto() {
			net, err := r.el.PreparedSize()
			if err != nil {
				return true, err
			}
			c.rowHeights[i] = net.Height + r.el.OutlineYSum()
		}
		changed = changed || ch
	}
	self, err := v.Visit(c)
	if err != nil {
		return changed || self, err
	}
	if changed && c.IsPrepared() {
		var height float64
		for _, h := range c.rowHeights {
			height += h
		}
		c.prepared.Height = height
		c.stretchRows()
	}
	return changed || self, nil
}

func (c *ColumnBox) derivePiece(suffix string, splittable bool) *ColumnBox {
	return &ColumnBox{
		node:       c.derive(suffix, splittable),
		headerRows: c.headerRows,
		fullWidth:  c.fullWidth,
	}
}

func (c *ColumnBox) appendPrepared(r row, height, width float64) {
	c.rows = append(c.rows, r)
	c.rowHeights = append(c.rowHeights, height)
	c.rowWidths = append(c.rowWidths, width)
}

// SplitVertical 先用整行填满头部，第一个放不下的行尝试自身拆分，其后的行
// 全部移入尾部。表头行在两片中都会重复。
func (c *ColumnBox) SplitVertical(availableWidth, availableHeight float64) (*SplitResult, error) {
	ok, err := c.checkSplit(availableWidth, availableHeight)
	if !ok {
		return nil, err
	}

	head := c.derivePiece("-1", false)
	tail := c.derivePiece("-2", true)
	var usedHead, usedTail float64

	headers := min(c.headerRows, len(c.rows))
	for i := 0; i < headers; i++ {
		head.appendPrepared(c.rows[i], c.rowHeights[i], c.rowWidths[i])
		tail.appendPrepared(c.rows[i], c.rowHeights[i], c.rowWidths[i])
		usedHead += c.rowHeights[i]
		usedTail += c.rowHeights[i]
	}

	onTail := false
	for i := headers; i < len(c.rows); i++ {
		r, full, width := c.rows[i], c.rowHeights[i], c.rowWidths[i]
		if onTail {
			tail.appendPrepared(r, full, width)
			usedTail += full
			continue
		}
		if usedHead+full <= availableHeight {
			head.appendPrepared(r, full, width)
			usedHead += full
			continue
		}

		onTail = true
		if r.el.IsSplittable() {
			net, err := r.el.PreparedSize()
			if err != nil {
				return nil, err
			}
			res, err := r.el.SplitVertical(net.Width, availableHeight-usedHead-r.el.OutlineYSum())
			if err != nil {
				return nil, err
			}
			if res != nil {
				head.appendPrepared(row{el: res.Head.Element, height: Auto()}, res.Head.Full.Height, width)
				tail.appendPrepared(row{el: res.Tail.Element, height: Auto()}, res.Tail.Full.Height, width)
				usedHead += res.Head.Full.Height
				usedTail += res.Tail.Full.Height
				continue
			}
		}
		c.debugSplit("boundary row moves to tail", "row", i, "height", full)
		tail.appendPrepared(r, full, width)
		usedTail += full
	}

	if len(head.rows) == headers || len(tail.rows) == headers {
		c.debugSplit("column split rejected: empty piece", "headRows", len(head.rows), "tailRows", len(tail.rows))
		return nil, nil
	}

	head.markPrepared(Size{Width: c.prepared.Width, Height: usedHead})
	tail.markPrepared(Size{Width: c.prepared.Width, Height: usedTail})
	head.stretchRows()
	tail.stretchRows()
	c.debugSplit("column split", "head", usedHead, "tail", usedTail, "available", availableHeight)
	return newSplitResult(head, tail)
}
