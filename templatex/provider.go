package templatex

import (
	"fmt"
	"os"

	"github.com/docs-ui/uipreview/fsutil"
)

// Source is a named template body that is read on demand.
type Source struct {
	Name string
	Load func() (string, error)
}

// Provider lists template sources. Helpers, partials and layouts are each
// configured as an ordered list of providers.
type Provider interface {
	Sources() ([]Source, error)
}

// Dir provides every file in Path ending in Ext, named by its base name.
// A missing directory provides nothing.
type Dir struct {
	Path string
	Ext  string
}

// Sources implements Provider.
func (d Dir) Sources() ([]Source, error) {
	ext := d.Ext
	if ext == "" {
		ext = ".hbs"
	}
	files, err := fsutil.ListFiles(d.Path, ext)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", d.Path, err)
	}
	sources := make([]Source, 0, len(files))
	for _, file := range files {
		file := file
		sources = append(sources, Source{
			Name: fsutil.BaseName(file),
			Load: func() (string, error) {
				data, err := os.ReadFile(file)
				if err != nil {
					return "", err
				}
				return string(data), nil
			},
		})
	}
	return sources, nil
}

// Inline provides fixed in-memory sources in declaration order.
type Inline []Source

// Sources implements Provider.
func (in Inline) Sources() ([]Source, error) {
	return in, nil
}

// Text returns a Source with a constant body.
func Text(name, body string) Source {
	return Source{Name: name, Load: func() (string, error) { return body, nil }}
}
