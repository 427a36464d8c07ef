package site

import (
	"maps"
	"strings"

	"github.com/aymerick/raymond"

	"github.com/docs-ui/uipreview/renderer"
	"github.com/docs-ui/uipreview/templatex"
)

const (
	// PageAttributePrefix marks document attributes exposed as page.attributes.
	PageAttributePrefix = "page-"
	// NotFoundName is the document base name that always renders the fixed 404 page.
	NotFoundName  = "404"
	notFoundTitle = "Page Not Found"
)

func notFoundPage() map[string]any {
	return map[string]any{"layout": NotFoundName, "title": notFoundTitle}
}

// applyDocument fills page from a converted document.
func applyDocument(page map[string]any, doc *renderer.Document) {
	attributes := make(map[string]any)
	for name, value := range doc.Attributes {
		if key, ok := strings.CutPrefix(name, PageAttributePrefix); ok {
			attributes[key] = value
		}
	}
	page["attributes"] = attributes
	page["layout"] = doc.Attribute(PageAttributePrefix+"layout", templatex.DefaultLayout)
	if doc.HasAttribute("docrole") {
		page["role"] = doc.Attribute("docrole", "")
	}
	page["title"] = doc.Title
	page["contents"] = raymond.SafeString(doc.Contents)
}

// copyMap returns a shallow copy of value when it is a map, otherwise an empty map.
func copyMap(value any) map[string]any {
	switch m := value.(type) {
	case map[string]any:
		if m == nil {
			return map[string]any{}
		}
		return maps.Clone(m)
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			if key, ok := k.(string); ok {
				out[key] = v
			}
		}
		return out
	default:
		return map[string]any{}
	}
}

func stringValue(value any) string {
	s, _ := value.(string)
	return strings.TrimSpace(s)
}
