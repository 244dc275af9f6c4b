package importer

import (
	"io"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/dgallion1/rssmd/internal/doctree"
)

// FromHTML converts an HTML fragment or page to Markdown. Diagram source
// left unfenced by the conversion is wrapped in mermaid fences.
func FromHTML(html string) (string, error) {
	out, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(strings.ReplaceAll(out, "\r\n", "\n"))
	return WrapLooseMermaid(out), nil
}

func htmlSource(r io.Reader, _ options) (*doctree.DocTree, string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, "", err
	}
	md, err := FromHTML(string(b))
	if err != nil {
		return nil, "", err
	}
	return nil, md + "\n", nil
}

var mermaidKeywords = map[string]bool{
	"graph": true, "flowchart": true, "sequencediagram": true, "classdiagram": true,
	"statediagram": true, "statediagram-v2": true, "erdiagram": true, "journey": true,
	"gantt": true, "mindmap": true, "timeline": true, "pie": true, "gitgraph": true,
	"quadrantchart": true, "requirementdiagram": true,
}

func startsDiagram(trimmed string) bool {
	f := strings.Fields(trimmed)
	return len(f) > 0 && mermaidKeywords[strings.ToLower(f[0])]
}

// WrapLooseMermaid fences runs of lines that start with a mermaid diagram
// keyword. A run ends at a blank line, a heading or a fence. Existing
// fences are copied untouched.
func WrapLooseMermaid(md string) string {
	const (
		plain = iota
		fenced
		diagram
	)
	state := plain
	delim := ""
	lines := strings.Split(md, "\n")
	out := make([]string, 0, len(lines)+2)

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		marker := fenceMarker(trimmed)

		switch state {
		case fenced:
			out = append(out, line)
			if marker != "" && strings.HasPrefix(marker, delim) && strings.TrimLeft(trimmed, delim[:1]) == "" {
				state = plain
			}
			continue
		case diagram:
			if trimmed == "" || strings.HasPrefix(trimmed, "#") || marker != "" {
				out = append(out, "```")
				state = plain
			} else {
				out = append(out, line)
				continue
			}
		}

		switch {
		case marker != "":
			state, delim = fenced, marker
		case startsDiagram(trimmed):
			out = append(out, "```mermaid")
			state = diagram
		}
		out = append(out, line)
	}
	if state == diagram {
		out = append(out, "```")
	}
	return strings.Join(out, "\n")
}

// fenceMarker returns the run of ``` or ~~~ opening trimmed, or "".
func fenceMarker(trimmed string) string {
	if len(trimmed) < 3 || (trimmed[0] != '`' && trimmed[0] != '~') {
		return ""
	}
	n := 0
	for n < len(trimmed) && trimmed[n] == trimmed[0] {
		n++
	}
	if n < 3 {
		return ""
	}
	return trimmed[:n]
}
