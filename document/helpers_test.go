package document

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/quire/config"
	"github.com/ByLCY/quire/dsl"
	"github.com/ByLCY/quire/layout"
)

// monoFont: 10pt 时每个字符宽 1mm，行高 5mm。
type monoFont struct{ size float64 }

func (f monoFont) scale() float64 { return f.size / 10 }

func (f monoFont) TextWidth(text string) float64 {
	return float64(utf8.RuneCountInString(text)) * f.scale()
}
func (f monoFont) LineHeight() float64 { return 5 * f.scale() }
func (f monoFont) Ascent() float64     { return 4 * f.scale() }
func (f monoFont) Descent() float64    { return 1 * f.scale() }

func (f monoFont) FitToWidth(text string, firstWidth, width float64) ([]layout.TextLine, error) {
	var lines []layout.TextLine
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
			if f.TextWidth(candidate) <= limit || cur == "" {
				cur = candidate
				continue
			}
			lines = append(lines, layout.TextLine{Content: cur, Width: f.TextWidth(cur)})
			limit = width
			cur = word
		}
		lines = append(lines, layout.TextLine{Content: cur, Width: f.TextWidth(cur)})
	}
	return lines, nil
}

type monoLoader struct{}

func (monoLoader) LoadFont(spec layout.FontSpec) (layout.LoadedFont, error) {
	return monoFont{size: spec.Size}, nil
}

func newPass() *layout.PassContext {
	return layout.NewPassContext(monoLoader{}, layout.WithLogger(log.New(&bytes.Buffer{})))
}

// build parses src and builds it with the default configuration. The
// returned buffer collects the builder's log output.
func build(t *testing.T, src string, data any) (*Document, *bytes.Buffer, error) {
	t.Helper()
	doc, err := dsl.ParseString(src)
	require.NoError(t, err)
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	out, err := Build(doc, data, Options{Config: config.Default(), BaseDir: t.TempDir(), Logger: logger})
	return out, &buf, err
}

func mustBuild(t *testing.T, src string, data any) *Document {
	t.Helper()
	out, _, err := build(t, src, data)
	require.NoError(t, err)
	return out
}
