package layout

import (
	"bytes"
	"errors"
	"image"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"
)

// stubFont 是等宽测试字体：字号 10pt 时每个字符宽 1mm，行高 5mm。
type stubFont struct {
	size float64
}

func (f stubFont) scale() float64 { return f.size / 10 }

func (f stubFont) TextWidth(text string) float64 {
	return float64(utf8.RuneCountInString(text)) * f.scale()
}

func (f stubFont) LineHeight() float64 { return 5 * f.scale() }
func (f stubFont) Ascent() float64     { return 4 * f.scale() }
func (f stubFont) Descent() float64    { return 1 * f.scale() }

// FitToWidth wraps on single spaces only; words never break.
func (f stubFont) FitToWidth(text string, firstWidth, width float64) ([]TextLine, error) {
	var lines []TextLine
	for _, para := range strings.Split(text, "\n") {
		limit := width
		if len(lines) == 0 {
			limit = firstWidth
		}
		cur := ""
		for _, word := range strings.Fields(para) {
			candidate := word
			if cur != "" {
				candidate = cur + " " + word
			}
			if f.TextWidth(candidate) <= limit || (cur == "" && len(lines) > 0) {
				cur = candidate
				continue
			}
			lines = append(lines, TextLine{Content: cur, Width: f.TextWidth(cur)})
			limit = width
			cur = word
		}
		lines = append(lines, TextLine{Content: cur, Width: f.TextWidth(cur)})
	}
	return lines, nil
}

type stubLoader struct {
	loads int
	fail  error
}

func (l *stubLoader) LoadFont(spec FontSpec) (LoadedFont, error) {
	l.loads++
	if l.fail != nil {
		return nil, l.fail
	}
	size := spec.Size
	if size == 0 {
		size = 10
	}
	return stubFont{size: size}, nil
}

var body = FontSpec{Family: "Body", Size: 10}

// newPass 返回一个把日志写入 buf 的测试用 PassContext。
func newPass(t *testing.T, opts ...PassOption) (*PassContext, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	opts = append([]PassOption{WithLogger(logger)}, opts...)
	return NewPassContext(&stubLoader{}, opts...), &buf
}

func mustPrepare(t *testing.T, pass *PassContext, e Element, w, h float64) Size {
	t.Helper()
	s, err := e.Prepare(pass.Context(w, h))
	require.NoError(t, err)
	return s
}

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "word"
	}
	return strings.Join(parts, " ")
}

type drawCall struct {
	op   string
	rect Rect
	text string
}

// recordingSurface 记录所有绘制调用，便于断言坐标。
type recordingSurface struct {
	calls []drawCall
	fail  error
}

func (s *recordingSurface) FillRect(r Rect, c Color) error {
	s.calls = append(s.calls, drawCall{op: "fill", rect: r})
	return s.fail
}

func (s *recordingSurface) StrokeLine(x1, y1, x2, y2 float64, style LineStyle) error {
	s.calls = append(s.calls, drawCall{op: "line", rect: Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}})
	return s.fail
}

func (s *recordingSurface) DrawText(x, baseline float64, text string, font FontSpec) error {
	s.calls = append(s.calls, drawCall{op: "text", rect: Rect{X: x, Y: baseline}, text: text})
	return s.fail
}

func (s *recordingSurface) DrawImage(r Rect, img image.Image) error {
	s.calls = append(s.calls, drawCall{op: "image", rect: r})
	return s.fail
}

func (s *recordingSurface) DrawVector(r Rect, g Graphic) error {
	s.calls = append(s.calls, drawCall{op: "vector", rect: r})
	return s.fail
}

func (s *recordingSurface) texts() []drawCall {
	var out []drawCall
	for _, c := range s.calls {
		if c.op == "text" {
			out = append(out, c)
		}
	}
	return out
}

var errBoom = errors.New("boom")
