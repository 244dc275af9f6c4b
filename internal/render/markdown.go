package render

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dgallion1/rssmd/internal/doctree"
	"github.com/dgallion1/rssmd/internal/outline"
)

var md = goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough))

// Markdown renders src into a tree. Section anchors are taken from headings
// by source line, so they match the outline the reader navigates with; pass
// nil to extract the outline from src.
func Markdown(src []byte, headings []outline.Heading) *doctree.DocTree {
	if headings == nil {
		headings = outline.Extract(string(src))
	}
	byLine := make(map[int]string, len(headings))
	for _, h := range headings {
		byLine[h.Line] = h.Anchor
	}

	doc := md.Parser().Parse(text.NewReader(src))
	b := doctree.NewBuilder()
	title := ""

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		line := startLine(n, src)
		if h, ok := n.(*ast.Heading); ok {
			t := inlineText(h, src)
			if t == "" {
				continue
			}
			if title == "" && h.Level == 1 {
				title = t
			}
			sec := b.Section(h.Level, t)
			sec.Line = line
			sec.Anchor = byLine[line]
			continue
		}
		if node := markdownBlock(n, src); node != nil {
			node.Line = line
			b.Add(node)
		}
	}
	return b.Tree(title)
}

func markdownBlock(n ast.Node, src []byte) *doctree.DocNode {
	switch node := n.(type) {
	case *ast.Paragraph:
		if img := soleImage(node); img != nil {
			return &doctree.DocNode{Kind: doctree.KindImage, ImageURL: string(img.Destination), Text: inlineText(img, src)}
		}
		if t := inlineText(node, src); t != "" {
			return &doctree.DocNode{Kind: doctree.KindParagraph, Text: t}
		}
	case *ast.TextBlock:
		if t := inlineText(node, src); t != "" {
			return &doctree.DocNode{Kind: doctree.KindParagraph, Text: t}
		}
	case *ast.FencedCodeBlock:
		lang := string(node.Language(src))
		kind := doctree.KindCode
		if strings.EqualFold(lang, "mermaid") {
			kind = doctree.KindMermaid
		}
		return &doctree.DocNode{Kind: kind, Lang: lang, Text: rawLines(node, src)}
	case *ast.CodeBlock:
		return &doctree.DocNode{Kind: doctree.KindCode, Text: rawLines(node, src)}
	case *ast.List:
		list := &doctree.DocNode{Kind: doctree.KindList, Ordered: node.IsOrdered()}
		for item := node.FirstChild(); item != nil; item = item.NextSibling() {
			list.Children = append(list.Children, &doctree.DocNode{Kind: doctree.KindItem, Text: blockText(item, src)})
		}
		return list
	case *ast.Blockquote:
		if t := blockText(node, src); t != "" {
			return &doctree.DocNode{Kind: doctree.KindQuote, Text: t}
		}
	case *ast.HTMLBlock:
		if t := strings.TrimSpace(stripTags(rawLines(node, src))); t != "" {
			return &doctree.DocNode{Kind: doctree.KindParagraph, Text: t}
		}
	case *extast.Table:
		var rows [][]string
		for r := node.FirstChild(); r != nil; r = r.NextSibling() {
			var cells []string
			for c := r.FirstChild(); c != nil; c = c.NextSibling() {
				cells = append(cells, inlineText(c, src))
			}
			rows = append(rows, cells)
		}
		return &doctree.DocNode{Kind: doctree.KindTable, Rows: rows}
	}
	return nil
}

// soleImage returns the image when it is the only inline in p.
func soleImage(p *ast.Paragraph) *ast.Image {
	if p.ChildCount() != 1 {
		return nil
	}
	img, _ := p.FirstChild().(*ast.Image)
	return img
}

// inlineText flattens the inline children of n.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch t := c.(type) {
			case *ast.Text:
				buf.Write(t.Segment.Value(src))
				if t.HardLineBreak() || t.SoftLineBreak() {
					buf.WriteByte('\n')
				}
			case *ast.String:
				buf.Write(t.Value)
			case *ast.CodeSpan:
				buf.WriteString(inlineTextOf(t, src))
			default:
				walk(c)
			}
		}
	}
	walk(n)
	return strings.TrimSpace(buf.String())
}

func inlineTextOf(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Segment.Value(src))
		}
	}
	return buf.String()
}

// blockText joins the text of every block inside n.
func blockText(n ast.Node, src []byte) string {
	var parts []string
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		var t string
		switch c.(type) {
		case *ast.Paragraph, *ast.TextBlock, *ast.Heading:
			t = inlineText(c, src)
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			t = rawLines(c, src)
		default:
			t = blockText(c, src)
		}
		if t = strings.TrimSpace(t); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}

func rawLines(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(src))
	}
	return buf.String()
}

// startLine returns the zero-based source line of a block, or -1 when unknown.
func startLine(n ast.Node, src []byte) int {
	for cur := n; cur != nil; cur = cur.FirstChild() {
		if cur.Type() == ast.TypeBlock && cur.Lines().Len() > 0 {
			return bytes.Count(src[:cur.Lines().At(0).Start], []byte("\n"))
		}
		if t, ok := cur.(*ast.Text); ok {
			return bytes.Count(src[:t.Segment.Start], []byte("\n"))
		}
	}
	return -1
}
