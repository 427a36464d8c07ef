package site

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/docs-ui/uipreview/fsutil"
)

type builtPage struct {
	source string
	output string
	html   []byte
}

// BuildStatic renders every preview document into the output directory.
// All pages are rendered before anything is written, so a failing page
// leaves the previous output untouched.
func (s *Service) BuildStatic(ctx context.Context) error {
	files, err := fsutil.ListFiles(s.cfg.PreviewDir, s.converters.Extensions()...)
	if err != nil {
		return fmt.Errorf("list preview documents: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no preview documents in %s", s.cfg.PreviewDir)
	}

	minifier := newMinifier()
	seen := make(map[string]string, len(files))
	pages := make([]builtPage, 0, len(files))
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := fsutil.BaseName(file) + ".html"
		if prev, ok := seen[name]; ok {
			s.logger.Warn("duplicate page skipped", "source", file, "kept", prev)
			continue
		}
		seen[name] = file

		html, err := s.RenderFile(file)
		if err != nil {
			return fmt.Errorf("build %s: %w", file, err)
		}
		out := []byte(html)
		if s.cfg.Minify {
			if out, err = minifier.Bytes("text/html", out); err != nil {
				return fmt.Errorf("minify %s: %w", file, err)
			}
		}
		pages = append(pages, builtPage{source: file, output: filepath.Join(s.cfg.OutputDir, name), html: out})
	}

	for _, page := range pages {
		if err := fsutil.WriteFileAtomic(page.output, page.html); err != nil {
			return fmt.Errorf("write %s: %w", page.output, err)
		}
		s.logger.Info("generated", "source", page.source, "output", page.output)
	}
	return nil
}
