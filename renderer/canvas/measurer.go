package canvasrenderer

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode"

	"github.com/charmbracelet/log"
	"github.com/tdewolff/canvas"

	"github.com/ByLCY/quire/fonts"
	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/primmap"
)

var _ layout.FontLoader = (*Measurer)(nil)

// Resource can be provided either by Bytes or by Path. Path may use the
// "embed:" prefix for built-in fonts.
type Resource struct {
	Bytes []byte
	Path  string
}

func (r Resource) empty() bool { return len(r.Bytes) == 0 && r.Path == "" }

// FontSource lists the font files of one family. Regular is required.
type FontSource struct {
	Regular    Resource
	Bold       Resource
	Italic     Resource
	BoldItalic Resource
}

var builtinFamilies = map[string]FontSource{
	fonts.DefaultFamily: {
		Regular:    Resource{Path: "embed:Go-Regular"},
		Bold:       Resource{Path: "embed:Go-Bold"},
		Italic:     Resource{Path: "embed:Go-Italic"},
		BoldItalic: Resource{Path: "embed:Go-BoldItalic"},
	},
	"Go Mono": {Regular: Resource{Path: "embed:Go-Mono"}},
}

// Measurer loads font families via github.com/tdewolff/canvas and measures
// text for the layout engine.
type Measurer struct {
	baseDir string
	logger  *log.Logger
	sources map[string]FontSource

	fontMu   sync.Mutex
	families map[string]*fontFamilyEntry
}

type fontFamilyEntry struct {
	family *canvas.FontFamily
	styles map[canvas.FontStyle]bool
}

// NewMeasurer creates a measurer resolving relative font paths against baseDir.
func NewMeasurer(baseDir string, sources map[string]FontSource, logger *log.Logger) *Measurer {
	if logger == nil {
		logger = log.Default()
	}
	m := &Measurer{
		baseDir:  baseDir,
		logger:   logger,
		sources:  map[string]FontSource{},
		families: map[string]*fontFamilyEntry{},
	}
	for name, src := range sources {
		if name != "" {
			m.sources[name] = src
		}
	}
	return m
}

// LoadFont 实现 layout.FontLoader。字号单位为 pt，返回的度量均为 mm。
func (m *Measurer) LoadFont(spec layout.FontSpec) (layout.LoadedFont, error) {
	if spec.Size <= 0 {
		return nil, fmt.Errorf("字体 %s 的字号必须为正数", spec)
	}
	face, err := m.face(spec)
	if err != nil {
		return nil, err
	}
	return newCanvasFont(face), nil
}

func (m *Measurer) face(spec layout.FontSpec) (*canvas.FontFace, error) {
	entry, err := m.family(spec.Family)
	if err != nil {
		return nil, err
	}
	return entry.family.Face(spec.Size, colorFromLayout(spec.Color), entry.pick(canvasStyle(spec.Style)), canvas.FontNormal), nil
}

func (m *Measurer) family(name string) (*fontFamilyEntry, error) {
	if name == "" {
		name = fonts.DefaultFamily
	}
	m.fontMu.Lock()
	defer m.fontMu.Unlock()

	if entry, ok := m.families[name]; ok {
		return entry, nil
	}
	src, ok := m.sources[name]
	if !ok {
		src, ok = builtinFamilies[name]
	}
	if !ok {
		m.logger.Warn("unknown font family, using fallback", "family", name, "fallback", fonts.DefaultFamily)
		src = builtinFamilies[fonts.DefaultFamily]
	}
	entry, err := m.loadFamily(name, src)
	if err != nil {
		return nil, err
	}
	m.families[name] = entry
	return entry, nil
}

func (m *Measurer) loadFamily(name string, src FontSource) (*fontFamilyEntry, error) {
	if src.Regular.empty() {
		return nil, fmt.Errorf("字体 %s 缺少 regular 字形文件", name)
	}
	entry := &fontFamilyEntry{family: canvas.NewFontFamily(name), styles: map[canvas.FontStyle]bool{}}
	variants := []struct {
		res   Resource
		style canvas.FontStyle
	}{
		{src.Regular, canvas.FontRegular},
		{src.Bold, canvas.FontBold},
		{src.Italic, canvas.FontItalic},
		{src.BoldItalic, canvas.FontBold | canvas.FontItalic},
	}
	for _, v := range variants {
		if v.res.empty() {
			continue
		}
		data, err := m.loadBytes(v.res)
		if err != nil {
			return nil, fmt.Errorf("加载字体 %s 失败: %w", name, err)
		}
		if err := entry.family.LoadFont(data, 0, v.style); err != nil {
			return nil, fmt.Errorf("解析字体 %s 失败: %w", name, err)
		}
		entry.styles[v.style] = true
	}
	return entry, nil
}

func (m *Measurer) loadBytes(res Resource) ([]byte, error) {
	if len(res.Bytes) > 0 {
		return res.Bytes, nil
	}
	if strings.HasPrefix(res.Path, "embed:") {
		return fonts.Load(res.Path)
	}
	path := res.Path
	if m.baseDir == "" && !filepath.IsAbs(path) {
		return nil, fmt.Errorf("未指定资源目录时不允许直接使用字体路径：%s（请改用 embed:）", res.Path)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(m.baseDir, path)
	}
	return os.ReadFile(path)
}

// pick returns want when loaded, otherwise the closest loaded style.
func (e *fontFamilyEntry) pick(want canvas.FontStyle) canvas.FontStyle {
	if e.styles[want] {
		return want
	}
	for _, s := range []canvas.FontStyle{want & canvas.FontBold, want & canvas.FontItalic} {
		if s != canvas.FontRegular && e.styles[s] {
			return s
		}
	}
	return canvas.FontRegular
}

func canvasStyle(s layout.FontStyle) canvas.FontStyle {
	switch s {
	case layout.FontBold:
		return canvas.FontBold
	case layout.FontItalic:
		return canvas.FontItalic
	case layout.FontBoldItalic:
		return canvas.FontBold | canvas.FontItalic
	default:
		return canvas.FontRegular
	}
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, 1.0)
}

// canvasFont 是一个已加载字号的字体面。逐字符宽度缓存在 IntFloatMap 中，
// 不是并发安全的，与 PassContext 一样只在单次排版中使用。
type canvasFont struct {
	face   *canvas.FontFace
	widths *primmap.IntFloatMap
}

func newCanvasFont(face *canvas.FontFace) *canvasFont {
	return &canvasFont{face: face, widths: primmap.NewDefault()}
}

func (f *canvasFont) TextWidth(text string) float64 { return f.face.TextWidth(text) }
func (f *canvasFont) LineHeight() float64           { return f.face.Metrics().LineHeight }
func (f *canvasFont) Ascent() float64               { return f.face.Metrics().Ascent }
func (f *canvasFont) Descent() float64              { return math.Abs(f.face.Metrics().Descent) }

func (f *canvasFont) runeWidth(r rune) float64 {
	if w := f.widths.Get(r, primmap.NoValue); w != primmap.NoValue {
		return float64(w)
	}
	w := f.face.TextWidth(string(r))
	f.widths.Put(r, float32(w))
	return w
}

// FitToWidth 使用贪心换行：优先在空白处分割，单词超过行宽时在词内拆分。
// 首行可用宽度为 firstWidth；首个单词放不下首行时返回一个空的首行。
func (f *canvasFont) FitToWidth(text string, firstWidth, width float64) ([]layout.TextLine, error) {
	w := &lineWrapper{font: f, first: math.Max(firstWidth, 0), width: width}
	if width <= 0 {
		w.width = math.MaxFloat64
	}
	for _, token := range tokenizeContent(text) {
		w.add(token)
	}
	w.emit(false)
	return w.lines, nil
}

type lineWrapper struct {
	font         *canvasFont
	first, width float64

	lines   []layout.TextLine
	builder strings.Builder
	current float64
	wrapped bool
}

func (w *lineWrapper) limit() float64 {
	if len(w.lines) == 0 {
		return w.first
	}
	return w.width
}

// emit 结束当前行，空行也会输出。soft 表示自动折行，去掉行尾空白。
func (w *lineWrapper) emit(soft bool) {
	content := w.builder.String()
	if soft {
		content = strings.TrimRightFunc(content, unicode.IsSpace)
	}
	w.builder.Reset()
	w.current = 0
	w.wrapped = soft
	w.lines = append(w.lines, layout.TextLine{Content: content, Width: w.font.TextWidth(content)})
}

func (w *lineWrapper) hasWord() bool {
	return strings.TrimSpace(w.builder.String()) != ""
}

func (w *lineWrapper) append(token string, width float64) {
	w.builder.WriteString(token)
	w.current += width
}

func (w *lineWrapper) add(token string) {
	if token == "\n" {
		w.emit(false)
		return
	}
	if strings.TrimSpace(token) == "" {
		// 自动折行后的行首空白丢弃
		if w.builder.Len() == 0 && w.wrapped {
			return
		}
		w.append(token, w.font.TextWidth(token))
		return
	}

	tokenWidth := w.font.TextWidth(token)
	if w.current+tokenWidth > w.limit() {
		switch {
		case w.hasWord():
			w.emit(true)
		case len(w.lines) == 0 && w.first < w.width:
			// 首行剩余空间放不下：整段移到下一行
			w.builder.Reset()
			w.emit(true)
		}
	}
	if w.current+tokenWidth <= w.limit() {
		w.append(token, tokenWidth)
		return
	}
	for _, chunk := range w.font.splitByWidth(token, w.limit()-w.current, w.width) {
		chunkWidth := w.font.TextWidth(chunk)
		if w.hasWord() && w.current+chunkWidth > w.limit() {
			w.emit(true)
		}
		w.append(chunk, chunkWidth)
	}
}

func tokenizeContent(s string) []string {
	var tokens []string
	var builder strings.Builder
	lastWasSpace := false
	flush := func() {
		if builder.Len() == 0 {
			return
		}
		tokens = append(tokens, builder.String())
		builder.Reset()
	}

	for _, r := range s {
		if r == '\r' {
			continue
		}
		if r == '\n' {
			flush()
			tokens = append(tokens, "\n")
			lastWasSpace = false
			continue
		}
		isSpace := unicode.IsSpace(r)
		if builder.Len() == 0 {
			lastWasSpace = isSpace
		} else if lastWasSpace != isSpace {
			flush()
			lastWasSpace = isSpace
		}
		builder.WriteRune(r)
	}
	flush()
	return tokens
}

// splitByWidth 按字符宽度把过长的单词切成若干段，第一段不超过 first，
// 其余不超过 limit。每段至少包含一个字符。
func (f *canvasFont) splitByWidth(token string, first, limit float64) []string {
	if limit <= 0 || limit == math.MaxFloat64 {
		return []string{token}
	}
	var parts []string
	var builder strings.Builder
	current, room := 0.0, first
	for _, r := range token {
		rw := f.runeWidth(r)
		if builder.Len() > 0 && current+rw > room {
			parts = append(parts, builder.String())
			builder.Reset()
			current, room = 0, limit
		}
		builder.WriteRune(r)
		current += rw
	}
	if builder.Len() > 0 {
		parts = append(parts, builder.String())
	}
	return parts
}
