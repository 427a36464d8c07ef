package renderer

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"io"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func inflatePayload(t *testing.T, payload string) string {
	t.Helper()
	raw, err := base64.URLEncoding.DecodeString(payload)
	require.NoError(t, err)
	zr, err := zlib.NewReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer zr.Close()
	out, err := io.ReadAll(zr)
	require.NoError(t, err)
	return string(out)
}

func TestKrokiURLRoundTrip(t *testing.T) {
	source := "Alice -> Bob: hello\nBob --> Alice: hi"
	url, err := KrokiURL("https://kroki.io/", "plantuml", "svg", source)
	require.NoError(t, err)

	prefix := "https://kroki.io/plantuml/svg/"
	require.True(t, strings.HasPrefix(url, prefix), url)
	require.Equal(t, source, inflatePayload(t, strings.TrimPrefix(url, prefix)))
}

func TestKrokiPreprocessRewritesDiagramBlocks(t *testing.T) {
	src := []byte(`= Diagrams

.Sequence
[plantuml,alice-bob,png]
----
Alice -> Bob: hello
----

[source,java]
----
class Foo {}
----

[mermaid]
....
graph TD; A-->B;
....
`)
	out, err := Kroki{}.Preprocess(src, map[string]string{"kroki-server-url": "http://kroki.local"})
	require.NoError(t, err)
	text := string(out)

	require.Contains(t, text, ".Sequence\nimage::http://kroki.local/plantuml/png/")
	require.Contains(t, text, "[alice-bob]")
	require.Contains(t, text, "image::http://kroki.local/mermaid/svg/")
	require.Contains(t, text, "[source,java]\n----\nclass Foo {}\n----")
	require.NotContains(t, text, "Alice -> Bob")

	re := regexp.MustCompile(`mermaid/svg/([A-Za-z0-9_=-]+)\[Diagram\]`)
	m := re.FindStringSubmatch(text)
	require.Len(t, m, 2)
	require.Equal(t, "graph TD; A-->B;", inflatePayload(t, m[1]))
}

func TestKrokiPreprocessDefaults(t *testing.T) {
	src := []byte("[graphviz,format=png]\n----\ndigraph { a -> b }\n----\n")
	out, err := Kroki{}.Preprocess(src, map[string]string{"kroki-default-format": "svg"})
	require.NoError(t, err)
	require.Contains(t, string(out), "image::"+DefaultKrokiServer+"/graphviz/png/")
}

func TestKrokiPreprocessLeavesUnclosedBlock(t *testing.T) {
	src := []byte("[plantuml]\n----\nA -> B\n")
	out, err := Kroki{}.Preprocess(src, nil)
	require.NoError(t, err)
	require.Equal(t, src, out)
}

func TestKrokiPreprocessSkipsVerbatimBlocks(t *testing.T) {
	src := []byte(`....
[plantuml]
----
A -> B
----
....

////
[mermaid]
----
graph TD; X-->Y;
----
////

====
[graphviz]
----
digraph { a -> b }
----
====
`)
	out, err := Kroki{}.Preprocess(src, nil)
	require.NoError(t, err)
	text := string(out)

	require.Contains(t, text, "....\n[plantuml]\n----\nA -> B\n----\n....")
	require.Contains(t, text, "[mermaid]\n----\ngraph TD; X-->Y;\n----")
	require.NotContains(t, text, "/plantuml/")
	require.NotContains(t, text, "/mermaid/")
	require.Contains(t, text, "====\nimage::"+DefaultKrokiServer+"/graphviz/svg/")
}

func TestAsciiDocLiteralBlockKeepsDiagramSource(t *testing.T) {
	src := []byte("= Doc\n\n....\n[plantuml]\n----\nA -> B\n----\n....\n")
	doc, err := NewAsciiDoc(Kroki{}).Convert(src, "doc.adoc", DefaultAsciiDocAttributes())
	require.NoError(t, err)
	require.NotContains(t, string(doc.Contents), "kroki.io")
	require.Contains(t, string(doc.Contents), "[plantuml]")
}
