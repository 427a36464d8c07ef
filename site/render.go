package site

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/docs-ui/uipreview/fsutil"
	"github.com/docs-ui/uipreview/metrics"
	"github.com/docs-ui/uipreview/renderer"
	"github.com/docs-ui/uipreview/templatex"
)

// Render converts a preview document and wraps it in its layout. file
// identifies the source; its extension selects the converter and a base name
// of 404 renders the fixed not-found page without parsing source.
func (s *Service) Render(source []byte, file string) (string, error) {
	start := time.Now()
	html, layout, err := s.render(source, file)
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultFailed
	}
	s.recorder.ObserveRender(layout, result, time.Since(start))
	return html, err
}

// RenderFile reads path and renders it.
func (s *Service) RenderFile(path string) (string, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return s.Render(source, path)
}

// Module renders path as an ES module whose default export is the page HTML.
func (s *Service) Module(path string) (string, error) {
	html, err := s.RenderFile(path)
	if err != nil {
		return "", err
	}
	return ModuleSource(html)
}

// ModuleSource wraps html in `export default "<json string>"`.
func ModuleSource(html string) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(html); err != nil {
		return "", fmt.Errorf("encode module: %w", err)
	}
	return "export default " + strings.TrimSuffix(buf.String(), "\n"), nil
}

func (s *Service) render(source []byte, file string) (string, string, error) {
	set, err := s.templates.EnsureInitialized()
	if err != nil {
		return "", "", fmt.Errorf("initialize templates: %w", err)
	}
	base, err := s.model.Load()
	if err != nil {
		return "", "", err
	}

	model := copyMap(base)
	if url := s.deployURL(base); url != "" {
		site := copyMap(base["site"])
		site["url"] = url
		model["site"] = site
	}
	page := copyMap(base["page"])
	model["siteRootPath"] = s.paths.SiteRoot
	model["uiRootPath"] = s.paths.UIRoot

	if fsutil.BaseName(file) == NotFoundName {
		page = notFoundPage()
	} else {
		doc, err := s.convert(source, file)
		if err != nil {
			return "", "", err
		}
		applyDocument(page, doc)
	}
	model["page"] = page

	name := stringValue(page["layout"])
	tpl, ok := set.Layout(name)
	if !ok {
		tpl, ok = set.Layout(templatex.DefaultLayout)
	}
	if !ok {
		return "", name, &LayoutNotFoundError{Name: name}
	}

	html, err := templatex.Exec(tpl, model)
	if err != nil {
		return "", name, fmt.Errorf("render %s with layout %s: %w", file, name, err)
	}
	return html, name, nil
}

func (s *Service) convert(source []byte, file string) (*renderer.Document, error) {
	conv, ok := s.converters.Lookup(file)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDocument, file)
	}
	doc, err := conv.Convert(source, file, s.attributes)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// deployURL prefers env.DEPLOY_PRIME_URL and env.URL from the site model over
// the configured deploy URL.
func (s *Service) deployURL(model map[string]any) string {
	env := copyMap(model["env"])
	for _, key := range []string{"DEPLOY_PRIME_URL", "URL"} {
		if url := stringValue(env[key]); url != "" {
			return url
		}
	}
	return s.cfg.DeployURL
}
