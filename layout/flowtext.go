package layout

import (
	"fmt"
	"math"
)

// Run is a piece of text in one font, optionally linking to URI.
type Run struct {
	Text string
	Font FontSpec
	URI  string
}

// FlowText 把不同样式的文本段排成多行。每行是一行 row，含多个段的行是
// 基线对齐的 RowBox。
type FlowText struct {
	node
	runs       []Run
	headerRows int
	inner      *ColumnBox
}

func NewFlowText(runs []Run, opts ...Option) *FlowText {
	return &FlowText{node: newNode("flow", true, opts), runs: append([]Run(nil), runs...)}
}

func (f *FlowText) AddRun(r Run) error {
	if err := f.checkMutable("add run"); err != nil {
		return err
	}
	f.runs = append(f.runs, r)
	return nil
}

// SetHeaderRowCount 让前 n 行在每个拆分片段上重复。
func (f *FlowText) SetHeaderRowCount(n int) error {
	if err := f.checkMutable("set header rows"); err != nil {
		return err
	}
	if n < 0 {
		return usageError("set header rows", f.id, ErrInvalidArgument)
	}
	f.headerRows = n
	return nil
}

func (f *FlowText) Runs() []Run { return append([]Run(nil), f.runs...) }

// Lines returns the number of wrapped lines after prepare.
func (f *FlowText) Lines() int {
	if f.inner == nil {
		return 0
	}
	return f.inner.RowCount()
}

func (f *FlowText) Prepare(ctx *PrepareContext) (Size, error) {
	return f.prepare(ctx, func(ctx *PrepareContext) (Size, error) {
		elementWidth := ctx.AvailableWidth - f.OutlineXSum()
		elementHeight := ctx.AvailableHeight - f.OutlineYSum()
		rows, err := f.buildRows(ctx.Pass(), elementWidth)
		if err != nil {
			return Size{}, err
		}
		inner := &ColumnBox{node: node{id: f.id + "-lines", kind: "column", splittable: true}, headerRows: f.headerRows}
		for _, r := range rows {
			inner.rows = append(inner.rows, row{el: r, height: Auto()})
		}
		size, err := inner.Prepare(ctx.Sub(elementWidth, elementHeight))
		if err != nil {
			return Size{}, err
		}
		f.inner = inner
		return size, nil
	})
}

type flowPiece struct {
	line TextLine
	raw  string // 原文，保留页码占位符
	run  Run
	font LoadedFont
}

func (f *FlowText) buildRows(pass *PassContext, width float64) ([]Element, error) {
	var lines [][]flowPiece
	var cur []flowPiece
	rest := width
	for _, run := range f.runs {
		font, err := pass.Font(run.Font)
		if err != nil {
			return nil, err
		}
		est := pass.estimated(run.Text)
		fitted, err := font.FitToWidth(est.text, rest, width)
		if err != nil {
			return nil, &MeasurementError{Font: run.Font, Err: err}
		}
		raw := est.rawLines(fitted)
		for i, ln := range fitted {
			if i > 0 {
				lines = append(lines, cur)
				cur, rest = nil, width
			}
			// An empty first line means the run starts on a new line.
			if i == 0 && ln.Content == "" && len(fitted) > 1 {
				continue
			}
			piece := flowPiece{line: ln, raw: ln.Content, run: run, font: font}
			if raw != nil {
				piece.raw = raw[i]
			}
			cur = append(cur, piece)
			rest -= ln.Width
		}
	}
	if len(cur) > 0 {
		lines = append(lines, cur)
	}

	rows := make([]Element, 0, len(lines))
	for i, pieces := range lines {
		el, err := f.lineElement(i, pieces, width)
		if err != nil {
			return nil, err
		}
		rows = append(rows, el)
	}
	return rows, nil
}

func (f *FlowText) lineElement(index int, pieces []flowPiece, width float64) (Element, error) {
	id := fmt.Sprintf("%s-l%d", f.id, index)
	var ascent, used float64
	for _, p := range pieces {
		ascent = math.Max(ascent, p.font.Ascent())
		used += p.line.Width
	}

	texts := make([]*Text, len(pieces))
	for i, p := range pieces {
		t := NewText(p.raw, p.run.Font, WithID(fmt.Sprintf("%s-%d", id, i)))
		t.noWrap = true
		t.splittable = false
		if d := ascent - p.font.Ascent(); d > 0 {
			t.outline.Margin.Top = d
		}
		if p.run.URI != "" {
			t.link = p.run.URI
			t.outline.Border = Border{Widths: Spacing{Bottom: 0.2}, Color: p.run.Font.Color}
			t.outline.Padding.Bottom = p.font.Descent() / 2
		}
		texts[i] = t
	}

	filler := 0.0
	switch f.outline.HAlign {
	case AlignRight:
		filler = width - used
	case AlignCenter:
		filler = (width - used) / 2
	}
	if len(texts) == 1 && filler <= 0 {
		return texts[0], nil
	}

	rb := &RowBox{node: node{id: id, kind: "row", splittable: false}}
	if filler > 0 {
		rb.cols = append(rb.cols, column{el: NewSpacer(filler, 0, WithID(id+"-fill")), width: Abs(filler)})
	}
	for i, t := range texts {
		rb.cols = append(rb.cols, column{el: t, width: Abs(pieces[i].line.Width + t.OutlineXSum())})
	}
	return rb, nil
}

func (f *FlowText) MarkNotPrepared() {
	f.node.MarkNotPrepared()
	f.inner = nil
}

func (f *FlowText) Render(ctx *RenderContext) error {
	content, err := f.renderFrame(ctx)
	if err != nil {
		return err
	}
	return f.inner.Render(ctx.at(content.X, content.Y, content.Width, content.Height))
}

func (f *FlowText) Visit(v Visitor) (bool, error) {
	changed := false
	if f.inner != nil {
		c, err := f.inner.Visit(v)
		if err != nil {
			return c, err
		}
		changed = c
		if changed {
			f.prepared.Height = f.inner.prepared.Height
		}
	}
	self, err := v.Visit(f)
	return changed || self, err
}

// SplitVertical 与 ColumnBox 一样在行间拆分。
func (f *FlowText) SplitVertical(availableWidth, availableHeight float64) (*SplitResult, error) {
	ok, err := f.checkSplit(availableWidth, availableHeight)
	if !ok {
		return nil, err
	}
	res, err := f.inner.SplitVertical(availableWidth, availableHeight)
	if err != nil || res == nil {
		return nil, err
	}
	head := &FlowText{node: f.derive("-1", false), runs: f.runs, headerRows: f.headerRows, inner: res.Head.Element.(*ColumnBox)}
	head.markPrepared(Size{Width: f.prepared.Width, Height: res.Head.Full.Height})
	tail := &FlowText{node: f.derive("-2", true), runs: f.runs, headerRows: f.headerRows, inner: res.Tail.Element.(*ColumnBox)}
	tail.markPrepared(Size{Width: f.prepared.Width, Height: res.Tail.Full.Height})
	return newSplitResult(head, tail)
}
