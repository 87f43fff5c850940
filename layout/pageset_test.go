package layout

import (
	"encoding/json"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newDocument 构造 100x50 的页面：页眉页脚各 5mm，正文区 90x30。
func newDocument() *PageSet {
	ps := NewPageSet(100, 50, Uniform(5))
	ps.SetHeader(NewText("p ${page}/${pages}", body, WithID("hdr")))
	ps.SetFooter(NewText("F", body, WithID("ftr")))
	ps.AddElement(
		NewText(words(10), body, WithID("body"), WithMaxSize(Size{Width: 4})),
		NewSpacer(10, 15, WithID("gap")),
		NewSpacer(10, 40, WithID("tall")),
	)
	return ps
}

func TestPageSetLayout(t *testing.T) {
	pass, logs := newPass(t, WithEstimates(map[string]string{"${page}": "99", "${pages}": "99"}))
	pages, err := newDocument().Layout(pass)
	require.NoError(t, err)
	require.Len(t, pages, 4)

	for i, pg := range pages {
		assert.Equal(t, i+1, pg.Number)
		assert.Equal(t, 4, pg.Total)
		require.NotNil(t, pg.Header)
		require.NotNil(t, pg.Footer)
		assert.Equal(t, Rect{X: 5, Y: 5, Width: 90, Height: 5}, pg.Header.Rect)
		assert.Equal(t, Rect{X: 5, Y: 40, Width: 90, Height: 5}, pg.Footer.Rect)
	}

	// 第一页放入前 6 行，其余 4 行在第二页。
	require.Len(t, pages[0].Placements, 1)
	assert.Equal(t, "body-1", pages[0].Placements[0].Element.ID())
	assert.Equal(t, Rect{X: 5, Y: 10, Width: 4, Height: 30}, pages[0].Placements[0].Rect)

	require.Len(t, pages[1].Placements, 1)
	assert.Equal(t, "body-2", pages[1].Placements[0].Element.ID())
	assert.InDelta(t, 20, pages[1].Placements[0].Rect.Height, 1e-9)

	// gap 放不下第二页剩余空间，且不可拆分，移到下一页。
	require.Len(t, pages[2].Placements, 1)
	assert.Equal(t, "gap", pages[2].Placements[0].Element.ID())
	assert.Equal(t, 10.0, pages[2].Placements[0].Rect.Y)

	require.Len(t, pages[3].Placements, 1)
	assert.Equal(t, "tall", pages[3].Placements[0].Element.ID())
	assert.Contains(t, logs.String(), "element overflows page")
}

func TestPageSetEmptyContentArea(t *testing.T) {
	pass, _ := newPass(t)
	_, err := NewPageSet(10, 10, Uniform(5)).Layout(pass)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestPageSetPropagatesPrepareError(t *testing.T) {
	pass := NewPassContext(&stubLoader{fail: errBoom})
	ps := NewPageSet(100, 100, Spacing{})
	ps.AddElement(NewText("x", body))
	_, err := ps.Layout(pass)
	assert.ErrorIs(t, err, errBoom)
}

func TestPageLayoutVisitSubstitutesPageNumbers(t *testing.T) {
	pass, _ := newPass(t, WithEstimates(map[string]string{"${page}": "99", "${pages}": "99"}))
	pages, err := newDocument().Layout(pass)
	require.NoError(t, err)

	var rendered []string
	for _, pg := range pages {
		r := strings.NewReplacer("${page}", strconv.Itoa(pg.Number), "${pages}", strconv.Itoa(pg.Total))
		_, err := pg.Visit(VisitorFunc(func(e Element) (bool, error) {
			th, ok := e.(TextHolder)
			if !ok {
				return false, nil
			}
			return th.ReplaceText(r.Replace(th.Template()))
		}))
		require.NoError(t, err)

		surf := &recordingSurface{}
		require.NoError(t, pg.Render(surf))
		rendered = append(rendered, surf.texts()[0].text)
	}
	assert.Equal(t, []string{"p 1/4", "p 2/4", "p 3/4", "p 4/4"}, rendered)
}

func TestPageLayoutRenderNilSurface(t *testing.T) {
	assert.Error(t, (&PageLayout{}).Render(nil))
}

func TestDebugDump(t *testing.T) {
	pass, _ := newPass(t)
	pages, err := newDocument().Layout(pass)
	require.NoError(t, err)

	data, err := DebugDump(pages)
	require.NoError(t, err)
	var dump []pageDump
	require.NoError(t, json.Unmarshal(data, &dump))
	require.Len(t, dump, 4)

	first := dump[0]
	require.Len(t, first.Fragments, 3)
	assert.Equal(t, fragmentDump{ID: "hdr", Kind: "text", Rect: Rect{X: 5, Y: 5, Width: 90, Height: 5}}, first.Fragments[0])
	assert.Equal(t, "body-1", first.Fragments[1].ID)
	assert.Equal(t, "ftr", first.Fragments[2].ID)
	assert.Equal(t, "spacer", dump[2].Fragments[1].Kind)
}
