package canvasrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/renderer"
)

var _ renderer.Renderer = (*Renderer)(nil)

// PageHook runs right before a page is drawn, e.g. to substitute page
// numbers into shared header elements.
type PageHook func(page *layout.PageLayout) error

// Options configures the canvas renderer.
type Options struct {
	BaseDir    string
	Fonts      map[string]FontSource // font families by name, in addition to the built-in "Go" and "Go Mono"
	Logger     *log.Logger
	BeforePage PageHook
}

// Renderer draws paginated layouts via github.com/tdewolff/canvas.
type Renderer struct {
	measurer   *Measurer
	beforePage PageHook
}

// NewRenderer creates a canvas-based renderer rooted at baseDir for resolving assets.
func NewRenderer(baseDir string) *Renderer { return NewRendererWithOptions(Options{BaseDir: baseDir}) }

// NewRendererWithOptions creates a renderer with injected fonts and an optional page hook.
func NewRendererWithOptions(opts Options) *Renderer {
	return &Renderer{
		measurer:   NewMeasurer(opts.BaseDir, opts.Fonts, opts.Logger),
		beforePage: opts.BeforePage,
	}
}

// Measurer returns the font loader the layout pass must use so that
// measured and drawn text agree.
func (r *Renderer) Measurer() *Measurer { return r.measurer }

// SetPageHook replaces the hook run before each page.
func (r *Renderer) SetPageHook(h PageHook) { r.beforePage = h }

// Render renders the pages into a PDF byte slice.
func (r *Renderer) Render(pages []*layout.PageLayout, meta layout.DocumentMeta) ([]byte, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}

	var buf bytes.Buffer
	writer := pdf.New(&buf, pages[0].Width, pages[0].Height, nil)
	keywords := strings.Join(meta.Keywords, ", ")
	writer.SetInfo(meta.Title, meta.Subject, keywords, meta.Author, meta.Creator)

	for i, page := range pages {
		if i > 0 {
			writer.NewPage(page.Width, page.Height)
		}
		if r.beforePage != nil {
			if err := r.beforePage(page); err != nil {
				return nil, fmt.Errorf("处理第 %d 页失败: %w", page.Number, err)
			}
		}
		c := canvas.New(page.Width, page.Height)
		ctx := canvas.NewContext(c)
		ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点

		if err := page.Render(&surface{ctx: ctx, measurer: r.measurer}); err != nil {
			return nil, err
		}
		c.RenderTo(writer)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

var transparent = color.RGBA{0, 0, 0, 0}

// surface 实现 layout.Surface，坐标与尺寸均为 mm。
type surface struct {
	ctx      *canvas.Context
	measurer *Measurer
}

func (s *surface) FillRect(r layout.Rect, c layout.Color) error {
	s.ctx.SetFillColor(colorFromLayout(c))
	s.ctx.SetStrokeColor(transparent)
	s.ctx.DrawPath(r.X, r.Y, canvas.Rectangle(r.Width, r.Height))
	return nil
}

func (s *surface) StrokeLine(x1, y1, x2, y2 float64, style layout.LineStyle) error {
	s.ctx.SetFillColor(transparent)
	s.ctx.SetStrokeColor(colorFromLayout(style.Color))
	s.ctx.SetStrokeWidth(style.Width)
	s.ctx.SetStrokeCapper(capper(style.Cap))
	s.ctx.SetStrokeJoiner(joiner(style.Join))
	p := &canvas.Path{}
	p.MoveTo(0, 0)
	p.LineTo(x2-x1, y2-y1)
	s.ctx.DrawPath(x1, y1, p)
	return nil
}

func (s *surface) DrawText(x, baseline float64, text string, font layout.FontSpec) error {
	face, err := s.measurer.face(font)
	if err != nil {
		return fmt.Errorf("绘制文本失败: %w", err)
	}
	s.ctx.DrawText(x, baseline, canvas.NewTextLine(face, text, canvas.Left))
	return nil
}

func (s *surface) DrawImage(r layout.Rect, img image.Image) error {
	if r.Width <= 0 {
		return fmt.Errorf("图片宽度必须为正数: %g", r.Width)
	}
	dpmm := float64(img.Bounds().Dx()) / r.Width
	if dpmm <= 0 {
		dpmm = 1
	}
	s.ctx.DrawImage(r.X, r.Y, img, canvas.DPMM(dpmm))
	return nil
}

func (s *surface) DrawVector(r layout.Rect, g layout.Graphic) error {
	c, ok := g.(*canvas.Canvas)
	if !ok {
		return fmt.Errorf("不支持的矢量图类型 %T", g)
	}
	w, h := c.Size()
	if w <= 0 || h <= 0 || r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("矢量图尺寸无效: %gx%g -> %gx%g", w, h, r.Width, r.Height)
	}
	// 页面画布原点在左下角，r 是 y 向下的页面坐标。
	view := canvas.Identity.Translate(r.X, s.ctx.Height()-r.Y-r.Height).Scale(r.Width/w, r.Height/h)
	c.RenderViewTo(s.ctx.Renderer, view)
	return nil
}

// ParseSVG 解析 SVG，结果可交给 layout.NewVector。
func ParseSVG(r io.Reader) (*canvas.Canvas, error) {
	c, err := canvas.ParseSVG(r)
	if err != nil {
		return nil, fmt.Errorf("解析 SVG 失败: %w", err)
	}
	return c, nil
}

func capper(c layout.LineCap) canvas.Capper {
	switch c {
	case layout.CapRound:
		return canvas.RoundCap
	case layout.CapSquare:
		return canvas.SquareCap
	default:
		return canvas.ButtCap
	}
}

func joiner(j layout.LineJoin) canvas.Joiner {
	switch j {
	case layout.JoinRound:
		return canvas.RoundJoin
	case layout.JoinBevel:
		return canvas.BevelJoin
	default:
		return canvas.MiterJoin
	}
}
