// Package doctree is the render tree shared by the renderers and importers.
package doctree

import (
	"fmt"
	"strings"
)

// Kind tags what a DocNode renders as.
type Kind string

const (
	KindSection   Kind = "section"
	KindParagraph Kind = "paragraph"
	KindCode      Kind = "code"
	KindMermaid   Kind = "mermaid"
	KindList      Kind = "list"
	KindItem      Kind = "item"
	KindQuote     Kind = "quote"
	KindImage     Kind = "image"
	KindTable     Kind = "table"
)

// DocTree is the root of a rendered document.
type DocTree struct {
	Title    string     `json:"title,omitempty"`
	Children []*DocNode `json:"children"`
}

// DocNode is one block. Sections nest the blocks that follow their heading.
type DocNode struct {
	Kind Kind `json:"kind"`
	// Title and Level are set on sections.
	Title  string `json:"title,omitempty"`
	Level  int    `json:"level,omitempty"`
	Anchor string `json:"anchor,omitempty"`
	Text   string `json:"text,omitempty"`
	// Lang is the fence language of code blocks.
	Lang string `json:"lang,omitempty"`
	// ImageURL is the source of an image, or the rendered diagram of a mermaid block.
	ImageURL string `json:"image_url,omitempty"`
	Ordered  bool   `json:"ordered,omitempty"`
	// Rows holds table cells, header row first.
	Rows     [][]string `json:"rows,omitempty"`
	Line     int        `json:"line,omitempty"`
	Children []*DocNode `json:"children,omitempty"`
}

// Empty reports whether the tree has nothing to show.
func (t *DocTree) Empty() bool {
	if t == nil {
		return true
	}
	empty := true
	t.Walk(func(n *DocNode) bool {
		if (n.Kind == KindSection && n.Title != "") ||
			strings.TrimSpace(n.Text) != "" || n.ImageURL != "" || len(n.Rows) > 0 {
			empty = false
			return false
		}
		return true
	})
	return empty
}

// Walk visits every node depth-first in document order until fn returns false.
func (t *DocTree) Walk(fn func(*DocNode) bool) {
	var visit func([]*DocNode) bool
	visit = func(nodes []*DocNode) bool {
		for _, n := range nodes {
			if !fn(n) || !visit(n.Children) {
				return false
			}
		}
		return true
	}
	visit(t.Children)
}

// Sections returns every section in document order.
func (t *DocTree) Sections() []*DocNode {
	var out []*DocNode
	t.Walk(func(n *DocNode) bool {
		if n.Kind == KindSection {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Builder nests blocks under the most recent heading of a lower level.
type Builder struct {
	root  DocNode
	stack []stackEntry
}

type stackEntry struct {
	node  *DocNode
	level int
}

func NewBuilder() *Builder {
	b := &Builder{}
	b.stack = []stackEntry{{node: &b.root, level: 0}}
	return b
}

// Section opens a heading at level and returns its node.
func (b *Builder) Section(level int, title string) *DocNode {
	n := &DocNode{Kind: KindSection, Level: level, Title: title}
	for len(b.stack) > 1 && b.stack[len(b.stack)-1].level >= level {
		b.stack = b.stack[:len(b.stack)-1]
	}
	parent := b.stack[len(b.stack)-1].node
	parent.Children = append(parent.Children, n)
	b.stack = append(b.stack, stackEntry{node: n, level: level})
	return n
}

// Add appends a block to the current section.
func (b *Builder) Add(n *DocNode) {
	if n == nil {
		return
	}
	top := b.stack[len(b.stack)-1].node
	top.Children = append(top.Children, n)
}

// Tree returns the built tree.
func (b *Builder) Tree(title string) *DocTree {
	return &DocTree{Title: title, Children: b.root.Children}
}

// ToMarkdown serializes the tree back to Markdown.
func ToMarkdown(t *DocTree) string {
	var blocks []string
	var emit func([]*DocNode)
	emit = func(nodes []*DocNode) {
		for _, n := range nodes {
			if s := blockMarkdown(n); s != "" {
				blocks = append(blocks, s)
			}
			if n.Kind == KindSection {
				emit(n.Children)
			}
		}
	}
	emit(t.Children)
	if len(blocks) == 0 {
		return ""
	}
	return strings.Join(blocks, "\n\n") + "\n"
}

func blockMarkdown(n *DocNode) string {
	switch n.Kind {
	case KindSection:
		level := min(max(n.Level, 1), 6)
		return strings.Repeat("#", level) + " " + n.Title
	case KindCode:
		return "```" + n.Lang + "\n" + strings.TrimRight(n.Text, "\n") + "\n```"
	case KindMermaid:
		return "```mermaid\n" + strings.TrimRight(n.Text, "\n") + "\n```"
	case KindList:
		var lines []string
		for i, item := range n.Children {
			marker := "-"
			if n.Ordered {
				marker = fmt.Sprintf("%d.", i+1)
			}
			lines = append(lines, marker+" "+strings.ReplaceAll(item.Text, "\n", "\n  "))
		}
		return strings.Join(lines, "\n")
	case KindQuote:
		return "> " + strings.ReplaceAll(strings.TrimSpace(n.Text), "\n", "\n> ")
	case KindImage:
		return fmt.Sprintf("![%s](%s)", n.Text, n.ImageURL)
	case KindTable:
		return tableMarkdown(n.Rows)
	default:
		return strings.TrimSpace(n.Text)
	}
}

func tableMarkdown(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}
	width := 0
	for _, r := range rows {
		width = max(width, len(r))
	}
	line := func(cells []string) string {
		padded := make([]string, width)
		for i := range padded {
			if i < len(cells) {
				padded[i] = strings.ReplaceAll(strings.TrimSpace(cells[i]), "|", `\|`)
			}
		}
		return "| " + strings.Join(padded, " | ") + " |"
	}
	sep := make([]string, width)
	for i := range sep {
		sep[i] = "---"
	}
	out := []string{line(rows[0]), "| " + strings.Join(sep, " | ") + " |"}
	for _, r := range rows[1:] {
		out = append(out, line(r))
	}
	return strings.Join(out, "\n")
}

// PlainText flattens the tree to text, one block per paragraph.
func PlainText(t *DocTree) string {
	var parts []string
	t.Walk(func(n *DocNode) bool {
		switch {
		case n.Kind == KindSection:
			parts = append(parts, n.Title)
		case n.Kind == KindTable:
			for _, r := range n.Rows {
				parts = append(parts, strings.Join(r, "\t"))
			}
		case n.Kind == KindList:
		case strings.TrimSpace(n.Text) != "":
			parts = append(parts, strings.TrimSpace(n.Text))
		}
		return true
	})
	return strings.Join(parts, "\n\n")
}
