package layout

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
)

// DebugFlags 控制 prepare/split 阶段的调试日志。
type DebugFlags struct {
	Prepare bool `toml:"prepare" json:"prepare"`
	Split   bool `toml:"split" json:"split"`
}

// PassContext lives for exactly one layout pass. It caches loaded fonts
// by FontSpec and must not be shared between concurrent passes.
type PassContext struct {
	loader    FontLoader
	fonts     map[FontSpec]LoadedFont
	logger    *log.Logger
	debug     DebugFlags
	estimates map[string]string
	keys      []string // 占位符，长的优先匹配
}

// PassOption configures a PassContext.
type PassOption func(*PassContext)

func WithLogger(l *log.Logger) PassOption {
	return func(p *PassContext) {
		if l != nil {
			p.logger = l
		}
	}
}

func WithDebug(flags DebugFlags) PassOption {
	return func(p *PassContext) { p.debug = flags }
}

// WithEstimates replaces placeholders by representative text while
// measuring, e.g. "${page}" → "999", so that the final substitution
// fits into the prepared space.
func WithEstimates(estimates map[string]string) PassOption {
	return func(p *PassContext) {
		p.estimates, p.keys = nil, nil
		for k, v := range estimates {
			if k == "" {
				continue
			}
			if p.estimates == nil {
				p.estimates = map[string]string{}
			}
			p.estimates[k] = v
			p.keys = append(p.keys, k)
		}
		sort.Slice(p.keys, func(i, j int) bool {
			if len(p.keys[i]) != len(p.keys[j]) {
				return len(p.keys[i]) > len(p.keys[j])
			}
			return p.keys[i] < p.keys[j]
		})
	}
}

// NewPassContext creates the per-pass context around a font loader.
func NewPassContext(loader FontLoader, opts ...PassOption) *PassContext {
	p := &PassContext{
		loader: loader,
		fonts:  map[FontSpec]LoadedFont{},
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Font returns the loaded font for spec, loading it on first use.
func (p *PassContext) Font(spec FontSpec) (LoadedFont, error) {
	if f, ok := p.fonts[spec]; ok {
		return f, nil
	}
	if p.loader == nil {
		return nil, &MeasurementError{Font: spec, Err: fmt.Errorf("no font loader configured")}
	}
	f, err := p.loader.LoadFont(spec)
	if err != nil {
		return nil, &MeasurementError{Font: spec, Err: err}
	}
	p.fonts[spec] = f
	return f, nil
}

// Logger returns the diagnostics logger of the pass.
func (p *PassContext) Logger() *log.Logger { return p.logger }

// Debug returns the enabled debug flags.
func (p *PassContext) Debug() DebugFlags { return p.debug }

// estimation 是替换了占位符估算值的文本，并记录每个字节对应的原文位置。
type estimation struct {
	text, raw string
	// startAt[i]/endAt[i]: 估算文本位置 i 作为行首/行尾时对应的原文位置。
	startAt, endAt []int
}

func (p *PassContext) estimated(raw string) estimation {
	e := estimation{text: raw, raw: raw}
	if p == nil || len(p.keys) == 0 {
		return e
	}
	var sb strings.Builder
	replaced := false
	for r := 0; r < len(raw); {
		key := p.placeholderAt(raw[r:])
		if key == "" {
			e.startAt = append(e.startAt, r)
			e.endAt = append(e.endAt, r)
			sb.WriteByte(raw[r])
			r++
			continue
		}
		replaced = true
		val := p.estimates[key]
		for i := range len(val) {
			e.startAt = append(e.startAt, r)
			if i == 0 {
				e.endAt = append(e.endAt, r)
			} else {
				// 行尾落在估算值内部时保留整个占位符。
				e.endAt = append(e.endAt, r+len(key))
			}
		}
		sb.WriteString(val)
		r += len(key)
	}
	if !replaced {
		return estimation{text: raw, raw: raw}
	}
	e.startAt = append(e.startAt, len(raw))
	e.endAt = append(e.endAt, len(raw))
	e.text = sb.String()
	return e
}

func (p *PassContext) placeholderAt(s string) string {
	for _, k := range p.keys {
		if strings.HasPrefix(s, k) {
			return k
		}
	}
	return ""
}

// rawLines maps lines fitted from e.text back to the source text, so a
// line showing "999" reads "${page}" again. Lines that cannot be located
// keep their content.
func (e estimation) rawLines(lines []TextLine) []string {
	if e.startAt == nil {
		return nil
	}
	out := make([]string, len(lines))
	pos := 0
	for i, ln := range lines {
		out[i] = ln.Content
		idx := strings.Index(e.text[pos:], ln.Content)
		if idx < 0 {
			continue
		}
		a := pos + idx
		b := a + len(ln.Content)
		out[i] = e.raw[e.startAt[a]:max(e.endAt[b], e.startAt[a])]
		pos = b
	}
	return out
}

// Context returns a prepare context offering the given space.
func (p *PassContext) Context(width, height float64) *PrepareContext {
	return &PrepareContext{pass: p, AvailableWidth: width, AvailableHeight: height}
}

// PrepareContext carries the space offered to one Prepare call,
// outline included.
type PrepareContext struct {
	pass            *PassContext
	AvailableWidth  float64
	AvailableHeight float64
}

// Pass returns the owning pass context.
func (c *PrepareContext) Pass() *PassContext { return c.pass }

// Sub derives a context for a child with a different available size.
func (c *PrepareContext) Sub(width, height float64) *PrepareContext {
	return &PrepareContext{pass: c.pass, AvailableWidth: width, AvailableHeight: height}
}

// RenderContext 描述元素在页面上的绘制位置（左上角）与分配到的槽位大小。
type RenderContext struct {
	Surface Surface
	X, Y    float64
	Width   float64
	Height  float64
}

func (c *RenderContext) at(x, y, w, h float64) *RenderContext {
	return &RenderContext{Surface: c.Surface, X: x, Y: y, Width: w, Height: h}
}
