package binding

import (
	"strings"

	"github.com/ByLCY/quire/layout"
)

// Page placeholders resolved per page after pagination.
const (
	PagePlaceholder  = "${page}"
	PagesPlaceholder = "${pages}"
)

// DefaultEstimates stands in for page placeholders while measuring so that
// the final numbers fit the prepared space.
func DefaultEstimates() map[string]string {
	return map[string]string{PagePlaceholder: "999", PagesPlaceholder: "999"}
}

// NewPageVisitor returns a layout visitor that writes the page number and
// page count into every text whose template holds a placeholder.
func NewPageVisitor(page, total int) layout.Visitor {
	vars := map[string]any{"page": page, "pages": total}
	return layout.VisitorFunc(func(e layout.Element) (bool, error) {
		th, ok := e.(layout.TextHolder)
		if !ok || !strings.Contains(th.Template(), "${") {
			return false, nil
		}
		return th.ReplaceText(Interpolate(th.Template(), vars))
	})
}

// PageHook applies NewPageVisitor to a page; it fits canvasrenderer.PageHook.
func PageHook(page *layout.PageLayout) error {
	_, err := page.Visit(NewPageVisitor(page.Number, page.Total))
	return err
}
