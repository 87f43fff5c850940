package layout

// FontLoader 根据字体规格加载可测量的字体，由渲染器实现。
type FontLoader interface {
	LoadFont(spec FontSpec) (LoadedFont, error)
}

// LoadedFont measures text at the size of the FontSpec it was loaded for.
// All returned lengths are millimetres.
type LoadedFont interface {
	// FitToWidth wraps text greedily. The first line is limited to
	// firstWidth and the following lines to width. A first line that
	// cannot take a single token comes back empty.
	FitToWidth(text string, firstWidth, width float64) ([]TextLine, error)
	TextWidth(text string) float64
	LineHeight() float64
	Ascent() float64
	Descent() float64
}
