// Package render turns article HTML and Markdown into the render tree shown
// by reader screens, degrading to plain paragraphs when the rich pipeline
// yields nothing.
package render

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/rssmd/internal/doctree"
	"github.com/dgallion1/rssmd/internal/outline"
)

// Result is a rendered document.
type Result struct {
	Tree *doctree.DocTree `json:"tree"`
	// Fallback is set when Tree holds plain-text paragraphs because the rich render was empty.
	Fallback bool `json:"fallback"`
}

var tagRe = regexp.MustCompile(`<[^>]*>`)

func stripTags(s string) string {
	return tagRe.ReplaceAllString(s, "")
}

// PlainText strips tags from src and makes one paragraph per non-empty line.
func PlainText(src string) *doctree.DocTree {
	tree := &doctree.DocTree{}
	for _, line := range strings.Split(stripTags(src), "\n") {
		if t := strings.TrimSpace(line); t != "" {
			tree.Children = append(tree.Children, &doctree.DocNode{Kind: doctree.KindParagraph, Text: t})
		}
	}
	return tree
}

// HTMLContent renders article HTML, falling back to plain text.
func HTMLContent(src string) Result {
	if tree := HTML(src); !tree.Empty() {
		return Result{Tree: tree}
	}
	return Result{Tree: PlainText(src), Fallback: true}
}

// MarkdownContent renders Markdown, falling back to plain text.
func MarkdownContent(src string, headings []outline.Heading) Result {
	if tree := Markdown([]byte(src), headings); !tree.Empty() {
		return Result{Tree: tree}
	}
	return Result{Tree: PlainText(src), Fallback: true}
}

// MermaidRenderer turns diagram source into an image URL.
type MermaidRenderer interface {
	RenderMermaid(ctx context.Context, code string) (string, error)
}

const mermaidConcurrency = 4

// ResolveMermaid renders every mermaid block in tree and sets its ImageURL.
// A block that fails keeps only its code. Returns the number of failures.
func ResolveMermaid(ctx context.Context, tree *doctree.DocTree, r MermaidRenderer, log *slog.Logger) int {
	var blocks []*doctree.DocNode
	tree.Walk(func(n *doctree.DocNode) bool {
		if n.Kind == doctree.KindMermaid && n.ImageURL == "" && strings.TrimSpace(n.Text) != "" {
			blocks = append(blocks, n)
		}
		return true
	})
	if len(blocks) == 0 {
		return 0
	}

	var failed atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(mermaidConcurrency)
	for _, n := range blocks {
		g.Go(func() error {
			url, err := r.RenderMermaid(gctx, n.Text)
			if err != nil {
				failed.Add(1)
				log.Warn("mermaid render failed, showing code", "line", n.Line, "error", err)
				return nil
			}
			n.ImageURL = url
			return nil
		})
	}
	g.Wait()
	return int(failed.Load())
}
