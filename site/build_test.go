package site

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildStaticWritesOnePagePerDocument(t *testing.T) {
	f := newFixture(t, map[string]string{
		"default": "<html>\n  <body>\n    <main>{{page.title}}</main>\n    <script src=\"{{uiRootPath}}/js/site.js\"></script>\n  </body>\n</html>\n",
		"404":     "<html><body><h1>{{page.title}}</h1></body></html>",
	}, "", WithPaths(BuildPaths))
	writeFile(t, filepath.Join(f.cfg.PreviewDir, "index.adoc"), "= Home\n")
	writeFile(t, filepath.Join(f.cfg.PreviewDir, "guide.md"), "# Guide\n")
	writeFile(t, filepath.Join(f.cfg.PreviewDir, "404.adoc"), "= Ignored\n")
	writeFile(t, filepath.Join(f.cfg.PreviewDir, "notes.txt"), "not a page")
	writeFile(t, filepath.Join(f.cfg.OutputDir, "_", "css", "site.css"), "body{}")

	require.NoError(t, f.svc.BuildStatic(context.Background()))

	index, err := os.ReadFile(filepath.Join(f.cfg.OutputDir, "index.html"))
	require.NoError(t, err)
	require.Contains(t, string(index), "<main>Home</main>")
	require.Contains(t, string(index), `src="./_/js/site.js"`)

	guide, err := os.ReadFile(filepath.Join(f.cfg.OutputDir, "guide.html"))
	require.NoError(t, err)
	require.Contains(t, string(guide), "<main>Guide</main>")

	notFound, err := os.ReadFile(filepath.Join(f.cfg.OutputDir, "404.html"))
	require.NoError(t, err)
	require.Contains(t, string(notFound), "Page Not Found")

	_, err = os.Stat(filepath.Join(f.cfg.OutputDir, "notes.html"))
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(f.cfg.OutputDir, "_", "css", "site.css"))
	require.NoError(t, err)
}

func TestBuildStaticFailureKeepsPreviousOutput(t *testing.T) {
	f := newFixture(t, map[string]string{"home": "<p>{{page.title}}</p>"}, "")
	writeFile(t, filepath.Join(f.cfg.PreviewDir, "a.adoc"), "= A\n:page-layout: home\n")
	writeFile(t, filepath.Join(f.cfg.PreviewDir, "b.adoc"), "= B\n:page-layout: nonexistent-xyz\n")
	writeFile(t, filepath.Join(f.cfg.OutputDir, "a.html"), "previous")

	err := f.svc.BuildStatic(context.Background())
	require.ErrorIs(t, err, ErrLayoutNotFound)
	require.Contains(t, err.Error(), "b.adoc")

	data, err := os.ReadFile(filepath.Join(f.cfg.OutputDir, "a.html"))
	require.NoError(t, err)
	require.Equal(t, "previous", string(data))
}

func TestBuildStaticMinifies(t *testing.T) {
	f := newFixture(t, map[string]string{
		"default": "<html>\n  <head>\n    <title>{{page.title}}</title>\n  </head>\n  <body>\n    <p>\n      text\n    </p>\n  </body>\n</html>\n",
	}, "")
	f.cfg.Minify = true
	writeFile(t, filepath.Join(f.cfg.PreviewDir, "index.adoc"), "= Home\n")

	require.NoError(t, f.svc.BuildStatic(context.Background()))
	data, err := os.ReadFile(filepath.Join(f.cfg.OutputDir, "index.html"))
	require.NoError(t, err)
	require.NotContains(t, string(data), "\n  ")
	require.Contains(t, string(data), "<title>Home</title>")
}

func TestBuildStaticWithoutDocuments(t *testing.T) {
	f := newFixture(t, map[string]string{"default": "x"}, "")
	require.Error(t, f.svc.BuildStatic(context.Background()))
}

func TestBuildStaticHonoursCancellation(t *testing.T) {
	f := newFixture(t, map[string]string{"default": "x"}, "")
	writeFile(t, filepath.Join(f.cfg.PreviewDir, "index.adoc"), "= Home\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, f.svc.BuildStatic(ctx), context.Canceled)
}
