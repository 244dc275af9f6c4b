package importer

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/rssmd/internal/doctree"
)

func docxSource(r io.Reader, _ options) (*doctree.DocTree, string, error) {
	tmp, err := os.CreateTemp("", "rssmd-import-*.docx")
	if err != nil {
		return nil, "", fmt.Errorf("create temp file: %w", err)
	}
	path := tmp.Name()
	defer os.Remove(path)
	defer tmp.Close()

	size, err := io.Copy(tmp, r)
	if err != nil {
		return nil, "", fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return nil, "", fmt.Errorf("seek temp file: %w", err)
	}
	doc, err := docx.Parse(tmp, size)
	if err != nil {
		return nil, "", fmt.Errorf("parse docx: %w", err)
	}

	b := doctree.NewBuilder()
	title := ""
	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			text := paragraphText(it)
			if text == "" {
				continue
			}
			if level := styleHeadingLevel(it); level > 0 {
				if title == "" && level == 1 {
					title = text
				}
				b.Section(level, text)
				continue
			}
			b.Add(&doctree.DocNode{Kind: doctree.KindParagraph, Text: text})
		case *docx.Table:
			b.Add(&doctree.DocNode{Kind: doctree.KindTable, Rows: tableRows(it)})
		}
	}
	return b.Tree(title), "", nil
}

// styleHeadingLevel maps "Heading1" / "heading 1" / "Title" styles to a level.
func styleHeadingLevel(p *docx.Paragraph) int {
	if p.Properties == nil || p.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(p.Properties.Style.Val, " ", ""))
	if style == "title" {
		return 1
	}
	if rest, ok := strings.CutPrefix(style, "heading"); ok && len(rest) == 1 && rest[0] >= '1' && rest[0] <= '6' {
		return int(rest[0] - '0')
	}
	return 0
}

func paragraphText(p *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range p.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

func tableRows(t *docx.Table) [][]string {
	var rows [][]string
	for _, row := range t.TableRows {
		var cells []string
		for _, cell := range row.TableCells {
			var parts []string
			for _, p := range cell.Paragraphs {
				if s := paragraphText(p); s != "" {
					parts = append(parts, s)
				}
			}
			cells = append(cells, strings.Join(parts, " "))
		}
		rows = append(rows, cells)
	}
	return rows
}
