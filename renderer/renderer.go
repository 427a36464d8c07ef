package renderer

import (
	"path/filepath"
	"sort"
	"strings"
)

// Document is the result of converting a source document.
type Document struct {
	Title      string
	Attributes map[string]string
	Contents   []byte
}

// Attribute returns the named attribute or fallback when it is not set.
func (d *Document) Attribute(name, fallback string) string {
	if value, ok := d.Attributes[name]; ok {
		return value
	}
	return fallback
}

// HasAttribute reports whether the named attribute is set.
func (d *Document) HasAttribute(name string) bool {
	_, ok := d.Attributes[name]
	return ok
}

// Converter turns document source into HTML plus extracted attributes.
// attrs are the API-level attributes; they take precedence over entries in
// the document itself.
type Converter interface {
	Convert(src []byte, filename string, attrs map[string]string) (*Document, error)
}

// Registry maps source file extensions to converters.
type Registry struct {
	converters map[string]Converter
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{converters: make(map[string]Converter)}
}

// Default registers the AsciiDoc converter (with the Kroki extension) for
// .adoc and the Markdown converter for .md.
func Default() *Registry {
	reg := NewRegistry()
	reg.Register(".adoc", NewAsciiDoc(Kroki{}))
	reg.Register(".md", NewMarkdown())
	return reg
}

// Register binds ext (with leading dot) to c, replacing any previous binding.
func (r *Registry) Register(ext string, c Converter) {
	r.converters[normalizeExt(ext)] = c
}

// Lookup returns the converter responsible for filename.
func (r *Registry) Lookup(filename string) (Converter, bool) {
	c, ok := r.converters[normalizeExt(filepath.Ext(filename))]
	return c, ok
}

// Extensions lists the registered extensions with .adoc first.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.converters))
	for ext := range r.converters {
		exts = append(exts, ext)
	}
	sort.Slice(exts, func(i, j int) bool {
		if exts[i] == ".adoc" || exts[j] == ".adoc" {
			return exts[i] == ".adoc"
		}
		return exts[i] < exts[j]
	})
	return exts
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
