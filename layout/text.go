package layout

import (
	"fmt"
	"math"
	"strings"
)

// Text 是单一字体的文本叶子节点，按行拆分分页。
type Text struct {
	node
	template    string
	shown       string
	font        FontSpec
	lineSpacing float64
	maxRows     int
	noWrap      bool
	link        string

	// prepared state
	loaded     LoadedFont
	lines      []TextLine
	raw        []string // 每行对应的原文（占位符未替换）；nil 表示与 lines 相同
	lineHeight float64
	ascent     float64
	fitWidth   float64
}

// NewText creates a splittable text leaf.
func NewText(text string, font FontSpec, opts ...Option) *Text {
	return &Text{
		node:        newNode("text", true, opts),
		template:    text,
		shown:       text,
		font:        font,
		lineSpacing: 1,
	}
}

func (t *Text) Font() FontSpec      { return t.font }
func (t *Text) Template() string    { return t.template }
func (t *Text) Lines() []TextLine   { return t.lines }
func (t *Text) Link() string        { return t.link }
func (t *Text) LineSpacing() float64 { return t.lineSpacing }

func (t *Text) SetText(text string) error {
	if err := t.checkMutable("set text"); err != nil {
		return err
	}
	t.template, t.shown = text, text
	return nil
}

// SetLineSpacing sets the line advance as a factor of the font line height.
func (t *Text) SetLineSpacing(factor float64) error {
	if err := t.checkMutable("set line spacing"); err != nil {
		return err
	}
	if factor <= 0 {
		return usageError("set line spacing", t.id, ErrInvalidArgument)
	}
	t.lineSpacing = factor
	return nil
}

// SetMaxRows truncates the wrapped lines; zero means unlimited.
func (t *Text) SetMaxRows(rows int) error {
	if err := t.checkMutable("set max rows"); err != nil {
		return err
	}
	if rows < 0 {
		return usageError("set max rows", t.id, ErrInvalidArgument)
	}
	t.maxRows = rows
	return nil
}

func (t *Text) SetLink(uri string) error {
	if err := t.checkMutable("set link"); err != nil {
		return err
	}
	t.link = uri
	return nil
}

func (t *Text) Prepare(ctx *PrepareContext) (Size, error) {
	return t.prepare(ctx, func(ctx *PrepareContext) (Size, error) {
		font, err := ctx.Pass().Font(t.font)
		if err != nil {
			return Size{}, err
		}
		t.loaded = font
		t.lineHeight = font.LineHeight()
		t.ascent = font.Ascent()
		t.fitWidth = ctx.AvailableWidth - t.OutlineXSum()
		est := ctx.Pass().estimated(t.shown)
		if err := t.fit(est.text); err != nil {
			return Size{}, err
		}
		t.raw = est.rawLines(t.lines)
		return t.measure(), nil
	})
}

func (t *Text) fit(text string) error {
	if t.noWrap {
		t.lines = nil
		for _, part := range strings.Split(text, "\n") {
			t.lines = append(t.lines, TextLine{Content: part, Width: t.loaded.TextWidth(part)})
		}
	} else {
		lines, err := t.loaded.FitToWidth(text, t.fitWidth, t.fitWidth)
		if err != nil {
			return &MeasurementError{Font: t.font, Err: err}
		}
		t.lines = lines
	}
	if t.maxRows > 0 && len(t.lines) > t.maxRows {
		t.lines = t.lines[:t.maxRows]
	}
	return nil
}

func (t *Text) measure() Size {
	var w float64
	for _, ln := range t.lines {
		w = math.Max(w, ln.Width)
	}
	return Size{Width: w, Height: t.displayHeight(len(t.lines))}
}

// displayHeight of n lines: every line but the last advances by the
// spaced line height. Empty text still takes one line.
func (t *Text) displayHeight(n int) float64 {
	if n <= 1 {
		return t.lineHeight
	}
	return float64(n-1)*t.lineHeight*t.lineSpacing + t.lineHeight
}

// ReplaceText 用 text 代替模板显示，已准备的元素按准备时的宽度重新换行。
func (t *Text) ReplaceText(text string) (bool, error) {
	if text == t.shown {
		return false, nil
	}
	t.shown = text
	if t.state != statePrepared {
		return true, nil
	}
	if err := t.fit(text); err != nil {
		return true, err
	}
	t.raw = nil
	size := t.measure()
	size.Width = math.Max(size.Width, t.minSize.Width)
	t.prepared = size
	return true, nil
}

func (t *Text) Render(ctx *RenderContext) error {
	content, err := t.renderFrame(ctx)
	if err != nil {
		return err
	}
	y := content.Y + t.outline.indentY(content.Height, t.prepared.Height)
	for _, ln := range t.lines {
		if ln.Content != "" {
			x := content.X + t.outline.indentX(content.Width, ln.Width)
			if err := ctx.Surface.DrawText(x, y+t.ascent, ln.Content, t.font); err != nil {
				return fmt.Errorf("draw text %s: %w", t.id, err)
			}
		}
		y += t.lineHeight * t.lineSpacing
	}
	return nil
}

func (t *Text) Visit(v Visitor) (bool, error) { return v.Visit(t) }

// SplitVertical keeps as many whole lines in the head as fit.
func (t *Text) SplitVertical(availableWidth, availableHeight float64) (*SplitResult, error) {
	ok, err := t.checkSplit(availableWidth, availableHeight)
	if !ok {
		return nil, err
	}
	n := 0
	for n < len(t.lines) && t.displayHeight(n+1) <= availableHeight {
		n++
	}
	if n == 0 || n >= len(t.lines) {
		t.debugSplit("text split rejected", "fittingLines", n, "lines", len(t.lines))
		return nil, nil
	}
	head := t.derivePiece("-1", false, 0, n)
	tail := t.derivePiece("-2", true, n, len(t.lines))
	t.debugSplit("text split", "headLines", n, "tailLines", len(t.lines)-n)
	return newSplitResult(head, tail)
}

// derivePiece builds a prepared piece from lines a..b. Its template is the
// source text of those lines, so page placeholders survive the split.
func (t *Text) derivePiece(suffix string, splittable bool, a, b int) *Text {
	raw := make([]string, 0, b-a)
	for i := a; i < b; i++ {
		if t.raw != nil {
			raw = append(raw, t.raw[i])
		} else {
			raw = append(raw, t.lines[i].Content)
		}
	}
	text := strings.Join(raw, "\n")
	piece := &Text{
		node:        t.derive(suffix, splittable),
		template:    text,
		shown:       text,
		font:        t.font,
		lineSpacing: t.lineSpacing,
		noWrap:      t.noWrap,
		link:        t.link,
		loaded:      t.loaded,
		lines:       append([]TextLine(nil), t.lines[a:b]...),
		raw:         raw,
		lineHeight:  t.lineHeight,
		ascent:      t.ascent,
		fitWidth:    t.fitWidth,
	}
	size := piece.measure()
	size.Width = t.prepared.Width
	piece.markPrepared(size)
	return piece
}
