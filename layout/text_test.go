package layout

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextHeightFollowsLineSpacing(t *testing.T) {
	pass, _ := newPass(t)
	txt := NewText(words(3), body)
	require.NoError(t, txt.SetLineSpacing(1.5))
	size := mustPrepare(t, pass, txt, 4, 100)

	require.Len(t, txt.Lines(), 3)
	// (3-1) * 5 * 1.5 + 5
	assert.InDelta(t, 20, size.Height, 1e-9)
	assert.InDelta(t, 4, size.Width, 1e-9)
}

func TestEmptyTextTakesOneLine(t *testing.T) {
	pass, _ := newPass(t)
	size := mustPrepare(t, pass, NewText("", body), 50, 50)
	assert.Equal(t, Size{Width: 0, Height: 5}, size)
}

func TestTextMaxRows(t *testing.T) {
	pass, _ := newPass(t)
	txt := NewText(words(5), body)
	require.NoError(t, txt.SetMaxRows(2))
	size := mustPrepare(t, pass, txt, 4, 100)
	assert.Len(t, txt.Lines(), 2)
	assert.InDelta(t, 10, size.Height, 1e-9)
	assert.ErrorIs(t, NewText("", body).SetMaxRows(-1), ErrInvalidArgument)
}

func TestTextFontSizeScalesMetrics(t *testing.T) {
	pass, _ := newPass(t)
	size := mustPrepare(t, pass, NewText("abcd", FontSpec{Family: "Body", Size: 20}), 100, 100)
	assert.Equal(t, Size{Width: 8, Height: 10}, size)
}

func TestTextMeasurementError(t *testing.T) {
	pass := NewPassContext(&stubLoader{fail: errBoom})
	_, err := NewText("x", body).Prepare(pass.Context(10, 10))
	require.ErrorIs(t, err, errBoom)
	var me *MeasurementError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, body, me.Font)
}

func TestTextSplitByLines(t *testing.T) {
	pass, _ := newPass(t)
	txt := NewText(words(5), body, WithID("t"))
	mustPrepare(t, pass, txt, 4, 100)

	res, err := txt.SplitVertical(4, 12)
	require.NoError(t, err)
	require.NotNil(t, res)
	head := res.Head.Element.(*Text)
	tail := res.Tail.Element.(*Text)
	assert.Len(t, head.Lines(), 2)
	assert.Len(t, tail.Lines(), 3)
	assert.Equal(t, "t-1", head.ID())
	assert.Equal(t, "word\nword", head.Template())
	assert.InDelta(t, 10, res.Head.Net.Height, 1e-9)
	assert.InDelta(t, 15, res.Tail.Net.Height, 1e-9)
	assert.False(t, head.IsSplittable())
	assert.True(t, tail.IsSplittable())

	// The tail can be split again.
	res, err = tail.SplitVertical(4, 5)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Len(t, res.Tail.Element.(*Text).Lines(), 2)
}

func TestTextSplitDegenerate(t *testing.T) {
	pass, _ := newPass(t)
	txt := NewText(words(3), body)
	mustPrepare(t, pass, txt, 4, 100)

	for _, h := range []float64{0, 4.9, 15, 30} {
		res, err := txt.SplitVertical(4, h)
		require.NoError(t, err)
		assert.Nil(t, res, "height %v", h)
	}

	fixed := NewText(words(3), body, WithSplittable(false))
	mustPrepare(t, pass, fixed, 4, 100)
	res, err := fixed.SplitVertical(4, 10)
	require.NoError(t, err)
	assert.Nil(t, res, "non-splittable leaf")

	_, err = txt.SplitVertical(-1, 10)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestTextReplaceTextRefits(t *testing.T) {
	pass, _ := newPass(t, WithEstimates(map[string]string{"${page}": "999"}))
	txt := NewText("p ${page}", body)
	size := mustPrepare(t, pass, txt, 100, 100)
	assert.InDelta(t, 5, size.Width, 1e-9, "measured with the estimate")

	changed, err := txt.ReplaceText("p 7")
	require.NoError(t, err)
	assert.True(t, changed)
	size, err = txt.PreparedSize()
	require.NoError(t, err)
	assert.InDelta(t, 3, size.Width, 1e-9)
	assert.Equal(t, "p ${page}", txt.Template())

	changed, err = txt.ReplaceText("p 7")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestTextSplitPiecesKeepPlaceholders(t *testing.T) {
	pass, _ := newPass(t, WithEstimates(map[string]string{"${page}": "999"}))
	txt := NewText("a b c ${page}", body, WithID("t"))
	mustPrepare(t, pass, txt, 4, 100)
	require.Len(t, txt.Lines(), 3, "a b | c | 999")

	res, err := txt.SplitVertical(4, 10)
	require.NoError(t, err)
	require.NotNil(t, res)
	head := res.Head.Element.(*Text)
	tail := res.Tail.Element.(*Text)
	assert.Equal(t, "a b\nc", head.Template())
	assert.Equal(t, "${page}", tail.Template())

	changed, err := tail.ReplaceText(strings.ReplaceAll(tail.Template(), "${page}", "2"))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []TextLine{{Content: "2", Width: 1}}, tail.Lines())
}

func TestTextSplitTailOfMultiLinePlaceholderText(t *testing.T) {
	pass, _ := newPass(t, WithEstimates(map[string]string{"${page}": "999", "${pages}": "999"}))
	txt := NewText("p ${page} of ${pages}", body)
	mustPrepare(t, pass, txt, 5, 100)
	require.Len(t, txt.Lines(), 3, "p 999 | of | 999")

	res, err := txt.SplitVertical(5, 5)
	require.NoError(t, err)
	require.NotNil(t, res)
	tail := res.Tail.Element.(*Text)
	assert.Equal(t, "of\n${pages}", tail.Template())

	// The tail can be split again and still carries the placeholder.
	res, err = tail.SplitVertical(5, 5)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "${pages}", res.Tail.Element.(*Text).Template())
}

func TestTextRenderAlignsLines(t *testing.T) {
	pass, _ := newPass(t)
	txt := NewText("ab\nabcd", body, WithAlign(AlignRight, AlignTop), WithMinSize(Size{Width: 10}))
	mustPrepare(t, pass, txt, 100, 100)

	surf := &recordingSurface{}
	require.NoError(t, txt.Render(&RenderContext{Surface: surf}))
	texts := surf.texts()
	require.Len(t, texts, 2)
	assert.Equal(t, drawCall{op: "text", rect: Rect{X: 8, Y: 4}, text: "ab"}, texts[0])
	assert.Equal(t, drawCall{op: "text", rect: Rect{X: 6, Y: 9}, text: "abcd"}, texts[1])
}
