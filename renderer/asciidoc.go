package renderer

import (
	"bytes"
	"fmt"
	"maps"
	"strings"

	"github.com/bytesparadise/libasciidoc/pkg/configuration"
	"github.com/bytesparadise/libasciidoc/pkg/parser"
	adoc "github.com/bytesparadise/libasciidoc/pkg/renderer"
	"github.com/bytesparadise/libasciidoc/pkg/types"
	"github.com/bytesparadise/libasciidoc/pkg/validator"
)

// DefaultAsciiDocAttributes is the fixed attribute set every AsciiDoc
// document is converted with.
func DefaultAsciiDocAttributes() map[string]string {
	return map[string]string{
		"experimental":       "",
		"icons":              "font",
		"sectanchors":        "",
		"source-highlighter": "highlight.js",
		"kroki-server-url":   DefaultKrokiServer,
	}
}

// AsciiDoc converts AsciiDoc sources to embeddable HTML with libasciidoc.
type AsciiDoc struct {
	extensions []Preprocessor
}

// NewAsciiDoc constructs a converter running exts, in order, on each
// preprocessed source.
func NewAsciiDoc(exts ...Preprocessor) *AsciiDoc {
	return &AsciiDoc{extensions: exts}
}

// Convert implements Converter. The title and attributes are read from the
// parsed document, so conditionals and attribute references are resolved
// the same way as in the rendered body.
func (a *AsciiDoc) Convert(src []byte, filename string, attrs map[string]string) (*Document, error) {
	config := newAsciiDocConfig(filename, attrs)

	pre, err := parser.Preprocess(bytes.NewReader(src), config)
	if err != nil {
		return nil, fmt.Errorf("preprocess %s: %w", filename, err)
	}
	doc, err := parser.ParseDocument(strings.NewReader(pre), config)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}

	docAttrs := documentAttributes(doc)
	merged := make(map[string]string, len(docAttrs)+len(attrs))
	maps.Copy(merged, docAttrs)
	maps.Copy(merged, attrs)

	if len(a.extensions) > 0 {
		body := []byte(pre)
		for _, ext := range a.extensions {
			if body, err = ext.Preprocess(body, merged); err != nil {
				return nil, fmt.Errorf("preprocess %s: %w", filename, err)
			}
		}
		if string(body) != pre {
			if doc, err = parser.ParseDocument(bytes.NewReader(body), config); err != nil {
				return nil, fmt.Errorf("parse %s: %w", filename, err)
			}
		}
	}

	doctype := config.Attributes.GetAsStringWithDefault(types.AttrDocType, "article")
	problems, err := validator.Validate(doc, doctype)
	if err != nil {
		return nil, fmt.Errorf("validate %s: %w", filename, err)
	}
	if len(problems) > 0 {
		config.Attributes[types.AttrDocType] = "article"
	}

	var buf bytes.Buffer
	meta, err := adoc.Render(doc, config, &buf)
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", filename, err)
	}
	return &Document{Title: meta.Title, Attributes: merged, Contents: buf.Bytes()}, nil
}

func newAsciiDocConfig(filename string, attrs map[string]string) *configuration.Configuration {
	settings := []configuration.Setting{
		configuration.WithFilename(filename),
		configuration.WithHeaderFooter(false),
	}
	for k, v := range attrs {
		settings = append(settings, configuration.WithAttribute(k, v))
	}
	return configuration.NewConfiguration(settings...)
}

// documentAttributes collects the attribute entries of the header and of
// the document body, in order. Resets remove earlier entries.
func documentAttributes(doc *types.Document) map[string]string {
	out := make(map[string]string)
	apply := func(elements []interface{}) {
		for _, e := range elements {
			switch e := e.(type) {
			case *types.AttributeDeclaration:
				out[e.Name] = attributeString(e.Value)
			case *types.AttributeReset:
				delete(out, e.Name)
			}
		}
	}
	if header, _ := doc.Header(); header != nil {
		apply(header.Elements)
	}
	apply(doc.Elements)
	return out
}

func attributeString(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case *types.StringElement:
		return strings.TrimSpace(v.Content)
	case []interface{}:
		var b strings.Builder
		for _, part := range v {
			b.WriteString(attributeString(part))
		}
		return strings.TrimSpace(b.String())
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
