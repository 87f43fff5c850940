package document

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/quire/config"
	"github.com/ByLCY/quire/dsl"
	"github.com/ByLCY/quire/layout"
)

const invoiceDSL = `
document Invoice {
  meta {
    title: "Invoice ${order.id}"
    author: "Billing"
    keywords: ["finance", "internal"]
  }

  resources {
    font Serif {
      regular: "embed:Go-Regular"
      bold: "embed:Go-Bold"
    }
    color Accent = #0F62FE
    style heading { size: 14pt; font-style: bold; color: Accent }
    style title extends heading { size: 18pt }
  }

  page A5 landscape margin 10mm {
    header { text align right { "p ${page}/${pages}" } }

    column id body header-rows 1 {
      text title { "Hello, ${user.name}!" }
      row {
        text width 30mm { "a" }
        text { "b" }
      }
      table id tbl grid 0.2mm grid-color Accent {
        columns 30mm * auto
        header font-style bold { "Name" "Qty" "Price" }
        each items as item {
          row { "${item.name}" "${item.qty}" "${item.price}" }
        }
      }
    }

    footer { "footer" }
  }
}
`

func invoiceData() map[string]any {
	return map[string]any{
		"order": map[string]any{"id": 42.0},
		"user":  map[string]any{"name": "Ada"},
		"items": []any{
			map[string]any{"name": "Widget", "qty": 2.0, "price": "9.50"},
			map[string]any{"name": "Gadget", "qty": 1.0, "price": "12.00"},
		},
	}
}

func TestBuildInvoice(t *testing.T) {
	doc := mustBuild(t, invoiceDSL, invoiceData())

	assert.Equal(t, "Invoice 42", doc.Meta.Title)
	assert.Equal(t, "Billing", doc.Meta.Author)
	assert.Equal(t, "Quire", doc.Meta.Creator)
	assert.Equal(t, []string{"finance", "internal"}, doc.Meta.Keywords)
	assert.Equal(t, FontFiles{Regular: "embed:Go-Regular", Bold: "embed:Go-Bold"}, doc.Fonts["Serif"])

	require.Len(t, doc.PageSets, 1)
	ps := doc.PageSets[0]
	assert.Equal(t, 210.0, ps.Width)
	assert.Equal(t, 148.0, ps.Height)
	assert.Equal(t, layout.Uniform(10), ps.Margin)

	require.Len(t, ps.Elements(), 1)
	body, ok := ps.Elements()[0].(*layout.ColumnBox)
	require.True(t, ok)
	assert.Equal(t, "body", body.ID())
	assert.Equal(t, 1, body.HeaderRowCount())
	require.Equal(t, 3, body.RowCount())

	title, ok := body.Row(0).(*layout.Text)
	require.True(t, ok)
	assert.Equal(t, "Hello, Ada!", title.Template())
	assert.Equal(t, layout.FontSpec{
		Family: "Go",
		Style:  layout.FontBold,
		Size:   18,
		Color:  layout.Color{R: 15, G: 98, B: 254},
	}, title.Font())

	tbl, ok := body.Row(2).(*layout.Table)
	require.True(t, ok)
	assert.Equal(t, "tbl", tbl.ID())
	assert.Equal(t, []layout.DimensionSpec{layout.Abs(30), layout.Star(), layout.Auto()}, tbl.Columns())
	assert.Equal(t, 1, tbl.HeaderRowCount())
	require.Equal(t, 3, tbl.RowCount())

	header := tbl.Row(0).(*layout.RowBox)
	name := header.Column(0).(*layout.Text)
	assert.Equal(t, "Name", name.Template())
	assert.Equal(t, layout.FontBold, name.Font().Style)
	assert.Equal(t, layout.Color{R: 15, G: 98, B: 254}, name.Outline().Border.Color)

	second := tbl.Row(2).(*layout.RowBox)
	assert.Equal(t, "Gadget", second.Column(0).(*layout.Text).Template())
	assert.Equal(t, "1", second.Column(1).(*layout.Text).Template())
	assert.Equal(t, "12.00", second.Column(2).(*layout.Text).Template())
}

func TestBuildTrackSizes(t *testing.T) {
	doc := mustBuild(t, invoiceDSL, invoiceData())
	body := doc.PageSets[0].Elements()[0].(*layout.ColumnBox)
	row := body.Row(1).(*layout.RowBox)

	_, err := row.Prepare(newPass().Context(100, 100))
	require.NoError(t, err)
	widths := row.ColumnWidths()
	require.Len(t, widths, 2)
	assert.InDelta(t, 30, widths[0], 0.01)
}

func TestLayoutNumbersPagesAcrossPageSets(t *testing.T) {
	src := `
document {
  page A6 margin 5mm {
    header { "p ${page}/${pages}" }
    "first"
  }
  page A6 landscape {
    "second"
    footer { "end" }
  }
}
`
	doc := mustBuild(t, src, nil)
	require.Len(t, doc.PageSets, 2)
	assert.Equal(t, 148.0, doc.PageSets[1].Width)
	assert.Equal(t, layout.Uniform(20), doc.PageSets[1].Margin)

	pages, err := doc.Layout(newPass())
	require.NoError(t, err)
	require.Len(t, pages, 2)
	for i, page := range pages {
		assert.Equal(t, i+1, page.Number)
		assert.Equal(t, 2, page.Total)
	}
	assert.NotNil(t, pages[0].Header)
	assert.Nil(t, pages[0].Footer)
	assert.NotNil(t, pages[1].Footer)
}

func TestBuildFlow(t *testing.T) {
	src := `
document {
  page A4 {
    flow size 12pt align right header-rows 1 {
      "Hello "
      run font-style bold { "world" }
      link "https://example.com/${slug}" { " here" }
    }
  }
}
`
	doc := mustBuild(t, src, map[string]any{"slug": "docs"})
	flow, ok := doc.PageSets[0].Elements()[0].(*layout.FlowText)
	require.True(t, ok)
	runs := flow.Runs()
	require.Len(t, runs, 3)
	assert.Equal(t, "Hello ", runs[0].Text)
	assert.Equal(t, 12.0, runs[0].Font.Size)
	assert.Equal(t, layout.FontBold, runs[1].Font.Style)
	assert.Equal(t, 12.0, runs[1].Font.Size)
	assert.Equal(t, "https://example.com/docs", runs[2].URI)
	assert.Equal(t, layout.LinkColor, runs[2].Font.Color)
	assert.Equal(t, layout.AlignRight, flow.Outline().HAlign)
}

func TestBuildBoxAndSpacer(t *testing.T) {
	src := `
document {
  page A4 {
    box padding "1mm 2mm" border 0.5mm border-color #ff0000 fill #eee split no {
      "one"
      "two"
    }
    spacer height 12mm
  }
}
`
	doc := mustBuild(t, src, nil)
	elems := doc.PageSets[0].Elements()
	require.Len(t, elems, 2)

	box := elems[0].(*layout.Box)
	outline := box.Outline()
	assert.Equal(t, layout.Symmetric(1, 2), outline.Padding)
	assert.Equal(t, layout.Uniform(0.5), outline.Border.Widths)
	assert.Equal(t, layout.Color{R: 255}, outline.Border.Color)
	require.NotNil(t, outline.Fill)
	assert.Equal(t, layout.Color{R: 0xee, G: 0xee, B: 0xee}, *outline.Fill)
	assert.False(t, box.IsSplittable())
	inner, ok := box.Child().(*layout.ColumnBox)
	require.True(t, ok)
	assert.Equal(t, 2, inner.RowCount())

	size, err := elems[1].Prepare(newPass().Context(100, 100))
	require.NoError(t, err)
	assert.Equal(t, 12.0, size.Height)
}

func TestBuildImage(t *testing.T) {
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	f, err := os.Create(filepath.Join(dir, "logo.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	src := `
document {
  resources {
    image logo { src: "logo.png"; width: 30mm }
  }
  page A4 {
    image "logo.png"
    image logo fit yes
  }
}
`
	parsed, err := dsl.ParseString(src)
	require.NoError(t, err)
	doc, err := Build(parsed, nil, Options{Config: config.Default(), BaseDir: dir})
	require.NoError(t, err)

	pass := newPass()
	plain, err := doc.PageSets[0].Elements()[0].Prepare(pass.Context(100, 100))
	require.NoError(t, err)
	assert.Equal(t, layout.Size{Width: 10, Height: 5}, plain)

	fitted, err := doc.PageSets[0].Elements()[1].Prepare(pass.Context(20, 100))
	require.NoError(t, err)
	assert.InDelta(t, 20, fitted.Width, 0.001)
	assert.InDelta(t, 10, fitted.Height, 0.001)
}

func TestBuildSVGImage(t *testing.T) {
	dir := t.TempDir()
	svg := `<svg xmlns="http://www.w3.org/2000/svg" width="40mm" height="20mm" viewBox="0 0 40 20"><rect width="40" height="20"/></svg>`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "seal.svg"), []byte(svg), 0o644))

	src := `
document {
  resources {
    image seal { src: "seal.svg"; height: 10mm }
  }
  page A4 {
    image "seal.svg"
    image seal
    image "seal.svg" width 80mm fit yes
  }
}
`
	parsed, err := dsl.ParseString(src)
	require.NoError(t, err)
	doc, err := Build(parsed, nil, Options{Config: config.Default(), BaseDir: dir})
	require.NoError(t, err)
	elems := doc.PageSets[0].Elements()
	require.Len(t, elems, 3)
	_, ok := elems[0].(*layout.Vector)
	require.True(t, ok)

	pass := newPass()
	natural, err := elems[0].Prepare(pass.Context(100, 100))
	require.NoError(t, err)
	assert.InDelta(t, 40, natural.Width, 0.001)
	assert.InDelta(t, 20, natural.Height, 0.001)

	scaled, err := elems[1].Prepare(pass.Context(100, 100))
	require.NoError(t, err)
	assert.InDelta(t, 20, scaled.Width, 0.001)
	assert.InDelta(t, 10, scaled.Height, 0.001)

	fitted, err := elems[2].Prepare(pass.Context(50, 100))
	require.NoError(t, err)
	assert.InDelta(t, 50, fitted.Width, 0.001)
	assert.InDelta(t, 25, fitted.Height, 0.001)

	_, _, err = build(t, `document { page A4 { image "broken.svg" } }`, nil)
	assert.ErrorContains(t, err, "broken.svg")
}

func TestEachMissingPathWarns(t *testing.T) {
	src := `
document {
  page A4 {
    each rows { "${item}" }
  }
}
`
	doc, logs, err := build(t, src, map[string]any{})
	require.NoError(t, err)
	assert.Empty(t, doc.PageSets[0].Elements())
	assert.Contains(t, logs.String(), "data path not found")
}

func TestEachScalarItems(t *testing.T) {
	src := `
document {
  page A4 {
    each tags as tag { "#${tag}" }
  }
}
`
	doc := mustBuild(t, src, map[string]any{"tags": []any{"a", "b"}})
	elems := doc.PageSets[0].Elements()
	require.Len(t, elems, 2)
	assert.Equal(t, "#b", elems[1].(*layout.Text).Template())
}

func TestBuildErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		data any
		want string
	}{
		{"unknown element", `document { page A4 { bogus { "x" } } }`, nil, "未知元素 bogus"},
		{"unknown style", `document { page A4 { text nope { "x" } } }`, nil, "style nope 未定义"},
		{"style cycle", `document {
  resources {
    style a extends b { size: 10 }
    style b extends a { size: 12 }
  }
  page A4 { "x" }
}`, nil, "循环"},
		{"each not array", `document { page A4 { each user { "x" } } }`, map[string]any{"user": "ada"}, "不是数组"},
		{"bad paper", `document { page B9 { "x" } }`, nil, "B9"},
		{"no page", `document { meta { title: "x" } }`, nil, "缺少 page"},
		{"table without columns", `document { page A4 { table { row { "x" } } } }`, nil, "columns"},
		{"cell count", `document { page A4 { table { columns * *; row { "x" } } } }`, nil, "cells"},
		{"bad length", `document { page A4 { text margin "3xx" { "x" } } }`, nil, "margin"},
		{"font without regular", `document {
  resources {
    font Serif { bold: "b.ttf" }
  }
  page A4 { "x" }
}`, nil, "regular"},
		{"missing image", `document { page A4 { image "nope.png" } }`, nil, "nope.png"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := build(t, tc.src, tc.data)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestResolvePageSize(t *testing.T) {
	defaults := config.Default().Page
	lex := func(vals ...string) []*dsl.Lexeme {
		out := make([]*dsl.Lexeme, len(vals))
		for i, v := range vals {
			out[i] = &dsl.Lexeme{Value: v}
		}
		return out
	}

	w, h, err := resolvePageSize(dsl.PageSpec{Size: "default"}, defaults)
	require.NoError(t, err)
	assert.Equal(t, [2]float64{210, 297}, [2]float64{w, h})

	w, h, err = resolvePageSize(dsl.PageSpec{Size: "default"}, config.Page{Size: "A5", Orientation: "landscape"})
	require.NoError(t, err)
	assert.Equal(t, [2]float64{210, 148}, [2]float64{w, h})

	w, h, err = resolvePageSize(dsl.PageSpec{Size: "custom", Params: lex("width", "100mm", "height", "5cm")}, defaults)
	require.NoError(t, err)
	assert.Equal(t, [2]float64{100, 50}, [2]float64{w, h})

	_, _, err = resolvePageSize(dsl.PageSpec{Size: "custom"}, defaults)
	assert.ErrorIs(t, err, layout.ErrInvalidArgument)

	m, err := resolveMargin(lex("portrait", "margin", "10mm", "5mm", "landscape"), "20mm")
	require.NoError(t, err)
	assert.Equal(t, layout.Symmetric(10, 5), m)

	m, err = resolveMargin(nil, "8mm")
	require.NoError(t, err)
	assert.Equal(t, layout.Uniform(8), m)

	_, err = resolveMargin(lex("margin", "wide"), "")
	assert.ErrorIs(t, err, layout.ErrInvalidArgument)
}

func TestParseColor(t *testing.T) {
	c, err := parseColor("#abc")
	require.NoError(t, err)
	assert.Equal(t, layout.Color{R: 0xaa, G: 0xbb, B: 0xcc}, c)

	c, err = parseColor("#0F62FEcc")
	require.NoError(t, err)
	assert.Equal(t, layout.Color{R: 15, G: 98, B: 254}, c)

	_, err = parseColor("#12")
	assert.ErrorIs(t, err, layout.ErrInvalidArgument)
	_, err = parseColor("#ggg")
	assert.ErrorIs(t, err, layout.ErrInvalidArgument)
}
