package templatex

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func renderInline(t *testing.T, layout string, model map[string]any) string {
	t.Helper()
	cache := NewCache(Options{Layouts: []Provider{Inline{Text("default", layout)}}}, discardLogger())
	set, err := cache.EnsureInitialized()
	require.NoError(t, err)
	tpl, ok := set.Layout("default")
	require.True(t, ok)
	out, err := Exec(tpl, model)
	require.NoError(t, err)
	return out
}

func TestRelativize(t *testing.T) {
	page := func(url string) map[string]any {
		return map[string]any{"page": map[string]any{"url": url}, "site": map[string]any{"path": "/docs"}}
	}
	cases := []struct {
		name  string
		to    string
		model map[string]any
		want  string
	}{
		{"empty", "", page("/a/x.html"), "#"},
		{"external", "https://example.org/", page("/a/x.html"), "https://example.org/"},
		{"sibling", "/a/y.html", page("/a/x.html"), "y.html"},
		{"other directory", "/b/c.html", page("/a/x.html"), "../b/c.html"},
		{"same page", "/a/x.html", page("/a/x.html"), "x.html"},
		{"same page fragment", "/a/x.html#intro", page("/a/x.html"), "#intro"},
		{"fragment elsewhere", "/a/y.html#intro", page("/a/x.html"), "y.html#intro"},
		{"own directory", "/a/", page("/a/x.html"), "./"},
		{"parent directory", "/", page("/a/x.html"), "../"},
		{"directory page", "/a/b/", page("/a/b/"), "./"},
		{"from directory page", "/a/x.html", page("/a/b/"), "../x.html"},
		{"no page url", "/b.html", map[string]any{"site": map[string]any{"path": "/docs"}}, "/docs/b.html"},
		{"no page url no site path", "/b.html", map[string]any{}, "/b.html"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			model := tc.model
			model["to"] = tc.to
			require.Equal(t, tc.want, renderInline(t, "{{{relativize to}}}", model))
		})
	}
}

func TestResolvePageURL(t *testing.T) {
	cases := map[string]string{
		"index.adoc":                 "/index.html",
		"ui:preview:components.adoc": "/components.html",
		"2.0@ui::nested.page.adoc":   "/nested.page.html",
		"":                           "",
	}
	for spec, want := range cases {
		require.Equal(t, want, pageURL(spec), spec)
	}
}

func TestResolvePageHelper(t *testing.T) {
	out := renderInline(t, `{{#with (resolvePage spec)}}{{pub.url}}{{else}}none{{/with}}`, map[string]any{"spec": "a:b:guide.adoc"})
	require.Equal(t, "/guide.html", out)

	out = renderInline(t, `{{#with (resolvePage spec)}}{{pub.url}}{{else}}none{{/with}}`, map[string]any{"spec": ""})
	require.Equal(t, "none", out)

	out = renderInline(t, `{{resolvePageURL spec}}`, map[string]any{"spec": "x:y:z.adoc"})
	require.Equal(t, "/z.html", out)
}

func TestResolvePageURLKeepsNameWithoutExtension(t *testing.T) {
	require.Equal(t, "/no-extension.html", pageURL("no-extension"))
	require.Equal(t, "/readme.html", pageURL("ui:preview:readme"))
}

func TestRelativePath(t *testing.T) {
	require.Equal(t, "", relativePath("/a", "/a"))
	require.Equal(t, "b/c", relativePath("/a", "/a/b/c"))
	require.Equal(t, "../../d", relativePath("/a/b/c", "/a/d"))
	require.Equal(t, "..", relativePath("/a", "/"))
}
