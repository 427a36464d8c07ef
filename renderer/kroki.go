package renderer

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"fmt"
	"strings"
)

// DefaultKrokiServer is used when the kroki-server-url attribute is unset.
const DefaultKrokiServer = "https://kroki.io"

var krokiDiagramTypes = map[string]struct{}{
	"actdiag": {}, "blockdiag": {}, "bpmn": {}, "bytefield": {}, "c4plantuml": {},
	"d2": {}, "dbml": {}, "ditaa": {}, "erd": {}, "excalidraw": {}, "graphviz": {},
	"mermaid": {}, "nomnoml": {}, "nwdiag": {}, "packetdiag": {}, "pikchr": {},
	"plantuml": {}, "rackdiag": {}, "seqdiag": {}, "structurizr": {}, "svgbob": {},
	"symbolator": {}, "tikz": {}, "umlet": {}, "vega": {}, "vegalite": {},
	"wavedrom": {}, "wireviz": {},
}

// Preprocessor rewrites document source before conversion.
type Preprocessor interface {
	Preprocess(src []byte, attrs map[string]string) ([]byte, error)
}

// Kroki turns listing and literal blocks styled with a diagram type into
// block images rendered by a Kroki server.
type Kroki struct{}

type diagramBlock struct {
	Type   string
	Alt    string
	Format string
}

// Preprocess implements Preprocessor.
func (Kroki) Preprocess(src []byte, attrs map[string]string) ([]byte, error) {
	server := strings.TrimRight(strings.TrimSpace(attrs["kroki-server-url"]), "/")
	if server == "" {
		server = DefaultKrokiServer
	}
	defaultFormat := strings.TrimSpace(attrs["kroki-default-format"])
	if defaultFormat == "" {
		defaultFormat = "svg"
	}

	lines := strings.Split(strings.ReplaceAll(string(src), "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	changed := false
	var fence string
	for i := 0; i < len(lines); i++ {
		if fence != "" {
			if strings.TrimRight(lines[i], " \t") == fence {
				fence = ""
			}
			out = append(out, lines[i])
			continue
		}
		block, ok := parseDiagramBlock(lines[i])
		if ok && i+1 < len(lines) {
			delim := strings.TrimRight(lines[i+1], " \t")
			if isDiagramDelimiter(delim) {
				end := closingLine(lines, i+2, delim)
				if end > 0 {
					format := block.Format
					if format == "" {
						format = defaultFormat
					}
					url, err := KrokiURL(server, block.Type, format, strings.Join(lines[i+2:end], "\n"))
					if err != nil {
						return nil, err
					}
					out = append(out, fmt.Sprintf("image::%s[%s]", url, block.Alt))
					i = end
					changed = true
					continue
				}
			}
		}
		if line := strings.TrimRight(lines[i], " \t"); isVerbatimDelimiter(line) {
			fence = line
			if strings.HasPrefix(line, "```") {
				fence = "```"
			}
		}
		out = append(out, lines[i])
	}
	if !changed {
		return src, nil
	}
	return []byte(strings.Join(out, "\n")), nil
}

// KrokiURL builds the GET URL for a diagram: the source is deflated with
// zlib and encoded as URL-safe base64.
func KrokiURL(server, diagramType, format, source string) (string, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return "", err
	}
	if _, err := zw.Write([]byte(source)); err != nil {
		return "", fmt.Errorf("encode %s diagram: %w", diagramType, err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("encode %s diagram: %w", diagramType, err)
	}
	payload := base64.URLEncoding.EncodeToString(buf.Bytes())
	return fmt.Sprintf("%s/%s/%s/%s", strings.TrimRight(server, "/"), diagramType, format, payload), nil
}

func parseDiagramBlock(line string) (diagramBlock, bool) {
	line = strings.TrimSpace(line)
	if len(line) < 3 || line[0] != '[' || line[len(line)-1] != ']' {
		return diagramBlock{}, false
	}
	parts := strings.Split(line[1:len(line)-1], ",")

	style := strings.TrimSpace(parts[0])
	if idx := strings.IndexAny(style, "#.%"); idx >= 0 {
		style = style[:idx]
	}
	style = strings.ToLower(style)
	if _, ok := krokiDiagramTypes[style]; !ok {
		return diagramBlock{}, false
	}

	block := diagramBlock{Type: style, Alt: "Diagram"}
	positional := 1
	for _, raw := range parts[1:] {
		item := strings.TrimSpace(raw)
		if key, value, ok := strings.Cut(item, "="); ok {
			value = strings.Trim(strings.TrimSpace(value), `"'`)
			switch strings.TrimSpace(key) {
			case "format":
				block.Format = value
			case "target", "alt":
				block.Alt = value
			}
			continue
		}
		item = strings.Trim(item, `"'`)
		switch positional {
		case 1:
			if item != "" {
				block.Alt = item
			}
		case 2:
			block.Format = item
		}
		positional++
	}
	return block, true
}

func isDiagramDelimiter(line string) bool {
	if len(line) < 4 {
		return false
	}
	c := line[0]
	if c != '-' && c != '.' {
		return false
	}
	return strings.Count(line, string(c)) == len(line)
}

func closingLine(lines []string, from int, delim string) int {
	for j := from; j < len(lines); j++ {
		if strings.TrimRight(lines[j], " \t") == delim {
			return j
		}
	}
	return -1
}

// isVerbatimDelimiter reports whether line opens or closes a listing,
// literal, passthrough, comment or fenced block. Their content is shown as
// written and never scanned for diagrams.
func isVerbatimDelimiter(line string) bool {
	if strings.HasPrefix(line, "```") {
		return true
	}
	if len(line) < 4 {
		return false
	}
	c := line[0]
	switch c {
	case '-', '.', '+', '/':
	default:
		return false
	}
	return strings.Count(line, string(c)) == len(line)
}
