package layout

import (
	"errors"
	"fmt"
)

// PageSet 将一组元素按页面尺寸分页，可选的页眉/页脚在每页重复。
type PageSet struct {
	Width, Height float64
	Margin        Spacing

	header   Element
	footer   Element
	elements []Element
}

func NewPageSet(width, height float64, margin Spacing) *PageSet {
	return &PageSet{Width: width, Height: height, Margin: margin}
}

func (p *PageSet) SetHeader(e Element)         { p.header = e }
func (p *PageSet) SetFooter(e Element)         { p.footer = e }
func (p *PageSet) AddElement(elems ...Element) { p.elements = append(p.elements, elems...) }
func (p *PageSet) Elements() []Element         { return p.elements }

// Placement is one element positioned on a page.
type Placement struct {
	Element Element
	Rect    Rect
}

// PageLayout is the result of paginating a PageSet for one page.
type PageLayout struct {
	Number     int
	Total      int
	Width      float64
	Height     float64
	Header     *Placement
	Footer     *Placement
	Placements []Placement
}

// Layout prepares all elements and distributes them onto pages. An
// element that does not fit the rest of a page is split; the tail is
// retried on the next page. An element that can neither fit an empty
// page nor be split is placed anyway and overflows.
func (p *PageSet) Layout(pass *PassContext) ([]*PageLayout, error) {
	contentWidth := p.Width - p.Margin.XSum()
	top := p.Margin.Top
	bottom := p.Height - p.Margin.Bottom

	var headerFull, footerFull Size
	var err error
	if p.header != nil {
		if headerFull, err = p.prepareFixed(pass, p.header, contentWidth, bottom-top); err != nil {
			return nil, fmt.Errorf("准备页眉失败: %w", err)
		}
		top += headerFull.Height
	}
	if p.footer != nil {
		if footerFull, err = p.prepareFixed(pass, p.footer, contentWidth, bottom-top); err != nil {
			return nil, fmt.Errorf("准备页脚失败: %w", err)
		}
		bottom -= footerFull.Height
	}
	avail := bottom - top
	if contentWidth <= 0 || avail <= 0 {
		return nil, fmt.Errorf("页面内容区域为空 (%gx%g): %w", contentWidth, avail, ErrInvalidArgument)
	}

	var pages []*PageLayout
	var cur *PageLayout
	var cursor float64
	newPage := func() {
		cur = &PageLayout{Number: len(pages) + 1, Width: p.Width, Height: p.Height}
		if p.header != nil {
			cur.Header = &Placement{Element: p.header, Rect: Rect{X: p.Margin.Left, Y: p.Margin.Top, Width: contentWidth, Height: headerFull.Height}}
		}
		if p.footer != nil {
			cur.Footer = &Placement{Element: p.footer, Rect: Rect{X: p.Margin.Left, Y: bottom, Width: contentWidth, Height: footerFull.Height}}
		}
		pages = append(pages, cur)
		cursor = 0
	}
	place := func(e Element, full Size) {
		x := p.Margin.Left + e.Outline().indentX(contentWidth, full.Width)
		cur.Placements = append(cur.Placements, Placement{Element: e, Rect: Rect{X: x, Y: top + cursor, Width: full.Width, Height: full.Height}})
		cursor += full.Height
	}
	newPage()

	for _, el := range p.elements {
		if !el.IsPrepared() {
			if _, err := el.Prepare(pass.Context(contentWidth, avail)); err != nil {
				return nil, fmt.Errorf("准备元素 %s 失败: %w", el.ID(), err)
			}
		}
		for el != nil {
			full, err := fullSize(el)
			if err != nil {
				return nil, err
			}
			if cursor+full.Height <= avail+tolerance {
				place(el, full)
				break
			}
			remaining := avail - cursor
			if el.IsSplittable() {
				res, err := el.SplitVertical(contentWidth-el.OutlineXSum(), remaining-el.OutlineYSum())
				if err != nil {
					return nil, fmt.Errorf("拆分元素 %s 失败: %w", el.ID(), err)
				}
				if res != nil {
					place(res.Head.Element, res.Head.Full)
					newPage()
					el = res.Tail.Element
					continue
				}
			}
			if cursor > 0 {
				newPage()
				continue
			}
			pass.Logger().Warn("element overflows page", "id", el.ID(), "page", cur.Number, "height", full.Height, "available", avail)
			place(el, full)
			break
		}
	}

	for _, pg := range pages {
		pg.Total = len(pages)
	}
	return pages, nil
}

func (p *PageSet) prepareFixed(pass *PassContext, e Element, w, h float64) (Size, error) {
	if !e.IsPrepared() {
		if _, err := e.Prepare(pass.Context(w, h)); err != nil {
			return Size{}, err
		}
	}
	return fullSize(e)
}

// Visit applies v to the header, the placed elements and the footer.
func (pg *PageLayout) Visit(v Visitor) (bool, error) {
	changed := false
	for _, pl := range pg.all() {
		c, err := pl.Element.Visit(v)
		if err != nil {
			return changed, err
		}
		changed = changed || c
	}
	return changed, nil
}

// Render draws the page onto s.
func (pg *PageLayout) Render(s Surface) error {
	if s == nil {
		return errors.New("render page: nil surface")
	}
	for _, pl := range pg.all() {
		ctx := &RenderContext{Surface: s, X: pl.Rect.X, Y: pl.Rect.Y, Width: pl.Rect.Width, Height: pl.Rect.Height}
		if err := pl.Element.Render(ctx); err != nil {
			return fmt.Errorf("渲染第 %d 页元素 %s 失败: %w", pg.Number, pl.Element.ID(), err)
		}
	}
	return nil
}

func (pg *PageLayout) all() []Placement {
	out := make([]Placement, 0, len(pg.Placements)+2)
	if pg.Header != nil {
		out = append(out, *pg.Header)
	}
	out = append(out, pg.Placements...)
	if pg.Footer != nil {
		out = append(out, *pg.Footer)
	}
	return out
}
