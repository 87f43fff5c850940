package layout

// ElementWithSize pairs a prepared split piece with its sizes.
type ElementWithSize struct {
	Element Element
	Full    Size
	Net     Size
}

func withSize(e Element) (ElementWithSize, error) {
	net, err := e.PreparedSize()
	if err != nil {
		return ElementWithSize{}, err
	}
	return ElementWithSize{
		Element: e,
		Net:     net,
		Full:    net.Plus(e.OutlineXSum(), e.OutlineYSum()),
	}, nil
}

// SplitResult is the outcome of a successful vertical split. Head fits the
// requested height; Tail continues on the next page.
type SplitResult struct {
	Head ElementWithSize
	Tail ElementWithSize
}

func newSplitResult(head, tail Element) (*SplitResult, error) {
	h, err := withSize(head)
	if err != nil {
		return nil, err
	}
	t, err := withSize(tail)
	if err != nil {
		return nil, err
	}
	return &SplitResult{Head: h, Tail: t}, nil
}
