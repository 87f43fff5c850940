package layout

// Visitor is applied to every node of a tree, children first. It reports
// whether it changed the node.
type Visitor interface {
	Visit(e Element) (bool, error)
}

// VisitorFunc adapts a function to Visitor.
type VisitorFunc func(e Element) (bool, error)

func (f VisitorFunc) Visit(e Element) (bool, error) { return f(e) }

// TextHolder is implemented by elements showing replaceable text. The
// template keeps its placeholders; ReplaceText sets what is displayed and
// re-measures a prepared element in place.
type TextHolder interface {
	Element
	Template() string
	ReplaceText(text string) (bool, error)
}
