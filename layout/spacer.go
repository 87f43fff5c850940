package layout

// Spacer is an empty leaf of fixed net size. It also stands in for
// columns that have nothing to show in a split row.
type Spacer struct {
	node
	size Size
}

func NewSpacer(width, height float64, opts ...Option) *Spacer {
	return &Spacer{node: newNode("spacer", false, opts), size: Size{Width: width, Height: height}}
}

// newPlaceholder returns a prepared, empty spacer with the outline of src.
func newPlaceholder(src Element, netWidth float64, id string) *Spacer {
	s := &Spacer{
		node: node{id: id, kind: "placeholder", outline: src.Outline()},
		size: Size{Width: netWidth},
	}
	s.markPrepared(s.size)
	return s
}

func (s *Spacer) Prepare(ctx *PrepareContext) (Size, error) {
	return s.prepare(ctx, func(*PrepareContext) (Size, error) { return s.size, nil })
}

func (s *Spacer) Render(ctx *RenderContext) error {
	_, err := s.renderFrame(ctx)
	return err
}

func (s *Spacer) Visit(v Visitor) (bool, error) { return v.Visit(s) }

func (s *Spacer) SplitVertical(availableWidth, availableHeight float64) (*SplitResult, error) {
	_, err := s.checkSplit(availableWidth, availableHeight)
	return nil, err
}
