package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DEPLOY_PRIME_URL", "")
	t.Setenv("URL", "")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, ":5253", cfg.Listen)
	require.Equal(t, "preview-src", cfg.PreviewDir)
	require.Equal(t, filepath.Join("preview-src", "ui-model.yml"), cfg.SiteModel)
	require.Equal(t, "info", cfg.LogLevel)
	require.True(t, cfg.LiveReload)
	require.Equal(t, filepath.Join(".", "src", "layouts"), cfg.LayoutsDir())
	require.Equal(t, filepath.Join(".", "src", "partials"), cfg.PartialsDir())
	require.Equal(t, filepath.Join(".", "src", "helpers"), cfg.HelpersDir())
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "uipreview.yml")
	content := []byte(`
listen: ":9000"
uiDir: ./theme
previewDir: ./docs
logLevel: DEBUG
minify: true
asciidoc:
  attributes:
    kroki-server-url: http://localhost:8000
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	t.Setenv("UIPREVIEW_OUTPUTDIR", "./out")
	t.Setenv("DEPLOY_PRIME_URL", "https://preview.example.org")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.Listen)
	require.Equal(t, "./theme", cfg.UIDir)
	require.Equal(t, "./out", cfg.OutputDir)
	require.Equal(t, filepath.Join("./docs", "ui-model.yml"), cfg.SiteModel)
	require.Equal(t, "debug", cfg.LogLevel)
	require.True(t, cfg.Minify)
	require.Equal(t, "https://preview.example.org", cfg.DeployURL)
	require.Equal(t, "http://localhost:8000", cfg.AsciiDoc.Attributes["kroki-server-url"])
}

func TestLoadRejectsInvalidLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uipreview.yml")
	require.NoError(t, os.WriteFile(path, []byte("logLevel: loud\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)
}
