package layout

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareTwiceFails(t *testing.T) {
	pass, _ := newPass(t)
	s := NewSpacer(10, 10, WithID("s"))
	mustPrepare(t, pass, s, 100, 100)

	_, err := s.Prepare(pass.Context(100, 100))
	require.ErrorIs(t, err, ErrAlreadyPrepared)
	var ue *UsageError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "s", ue.ID)
	assert.Equal(t, "prepare", ue.Op)
}

func TestSettersFailOncePrepared(t *testing.T) {
	pass, _ := newPass(t)
	txt := NewText("hello", body)
	require.NoError(t, txt.SetPadding(Uniform(1)))
	mustPrepare(t, pass, txt, 100, 100)

	assert.ErrorIs(t, txt.SetMargin(Uniform(2)), ErrAlreadyPrepared)
	assert.ErrorIs(t, txt.SetPadding(Uniform(2)), ErrAlreadyPrepared)
	assert.ErrorIs(t, txt.SetBorder(UniformBorder(1, Black)), ErrAlreadyPrepared)
	assert.ErrorIs(t, txt.SetText("other"), ErrAlreadyPrepared)
	assert.ErrorIs(t, txt.SetMaxRows(1), ErrAlreadyPrepared)

	row := NewRowBox()
	mustPrepare(t, pass, row, 100, 100)
	assert.ErrorIs(t, row.AddColumn(NewSpacer(1, 1), Auto()), ErrAlreadyPrepared)
}

func TestMarkNotPreparedAllowsNewPass(t *testing.T) {
	pass, _ := newPass(t)
	child := NewText(words(4), body)
	box := NewBox(child, WithPadding(Uniform(1)))

	first := mustPrepare(t, pass, box, 100, 100)
	assert.InDelta(t, 19, first.Width, 1e-9)
	box.MarkNotPrepared()
	assert.False(t, box.IsPrepared())
	assert.False(t, child.IsPrepared(), "reset cascades to children")
	require.NoError(t, box.SetPadding(Uniform(2)))

	second := mustPrepare(t, pass, box, 16, 100)
	assert.InDelta(t, 9, second.Width, 1e-9, "narrower pass wraps the text")
	assert.InDelta(t, 10, second.Height, 1e-9)
}

func TestPreparedSizeRequiresPrepare(t *testing.T) {
	s := NewSpacer(1, 1)
	_, err := s.PreparedSize()
	assert.ErrorIs(t, err, ErrNotPrepared)

	_, err = s.SplitVertical(10, 10)
	assert.ErrorIs(t, err, ErrNotPrepared)

	err = s.Render(&RenderContext{Surface: &recordingSurface{}})
	assert.ErrorIs(t, err, ErrNotPrepared)
}

func TestPrepareWithoutPassFails(t *testing.T) {
	_, err := NewSpacer(1, 1).Prepare(nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestMinAndMaxSize(t *testing.T) {
	pass, _ := newPass(t)
	s := NewSpacer(10, 10, WithMinSize(Size{Width: 30}), WithMaxSize(Size{Height: 4}))
	size := mustPrepare(t, pass, s, 100, 100)
	assert.Equal(t, Size{Width: 30, Height: 4}, size)

	txt := NewText(words(10), body, WithMaxSize(Size{Width: 14}))
	size = mustPrepare(t, pass, txt, 100, 100)
	assert.LessOrEqual(t, size.Width, 14.0)
	assert.Greater(t, len(txt.Lines()), 1)
}

func TestGeneratedIDsAreUnique(t *testing.T) {
	a, b := NewSpacer(1, 1), NewSpacer(1, 1)
	assert.NotEqual(t, a.ID(), b.ID())
	assert.True(t, strings.HasPrefix(a.ID(), "spacer-"))
}

func TestPrepareDebugLogging(t *testing.T) {
	pass, buf := newPass(t, WithDebug(DebugFlags{Prepare: true}))
	mustPrepare(t, pass, NewSpacer(3, 4, WithID("dbg")), 10, 10)
	assert.Contains(t, buf.String(), "prepared")
	assert.Contains(t, buf.String(), "dbg")
}

func TestRenderDrawsFillAndBorder(t *testing.T) {
	pass, _ := newPass(t)
	s := NewSpacer(10, 5,
		WithMargin(Uniform(1)),
		WithBorder(Border{Widths: Spacing{Top: 0.5, Bottom: 0.5}}),
		WithFill(Color{R: 255}))
	mustPrepare(t, pass, s, 100, 100)

	surf := &recordingSurface{}
	require.NoError(t, s.Render(&RenderContext{Surface: surf, X: 10, Y: 20}))
	require.Len(t, surf.calls, 3)
	assert.Equal(t, "fill", surf.calls[0].op)
	assert.Equal(t, Rect{X: 11, Y: 21, Width: 10, Height: 6}, surf.calls[0].rect)
	assert.Equal(t, "line", surf.calls[1].op)
	assert.InDelta(t, 21.25, surf.calls[1].rect.Y, 1e-9)
	assert.InDelta(t, 26.75, surf.calls[2].rect.Y, 1e-9)
}

func TestRenderPropagatesSurfaceError(t *testing.T) {
	pass, _ := newPass(t)
	s := NewSpacer(1, 1, WithFill(Black))
	mustPrepare(t, pass, s, 10, 10)
	err := s.Render(&RenderContext{Surface: &recordingSurface{fail: errBoom}})
	assert.ErrorIs(t, err, errBoom)
}
