// Package importer turns local documents into Markdown for the image converter.
package importer

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/rssmd/internal/doctree"
)

// Document is an imported file.
type Document struct {
	Title    string `json:"title"`
	Format   string `json:"format"`
	Markdown string `json:"markdown"`
}

type converter func(r io.Reader, o options) (*doctree.DocTree, string, error)

type options struct {
	pdftotext bool
}

// Option tunes Import.
type Option func(*options)

// WithPdftotext falls back to the pdftotext binary when the Go PDF reader fails.
func WithPdftotext(enabled bool) Option { return func(o *options) { o.pdftotext = enabled } }

var converters = map[string]converter{
	".md":       markdownSource,
	".markdown": markdownSource,
	".txt":      textSource,
	".html":     htmlSource,
	".htm":      htmlSource,
	".csv":      csvSource,
	".pdf":      pdfSource,
	".docx":     docxSource,
}

// Supported reports whether filename has an importable extension.
func Supported(filename string) bool {
	_, ok := converters[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// Import converts r, named filename, to Markdown.
func Import(r io.Reader, filename string, opts ...Option) (*Document, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	conv, ok := converters[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
	tree, md, err := conv(r, o)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", filename, err)
	}
	if tree != nil {
		md = doctree.ToMarkdown(tree)
	}
	title := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if tree != nil && tree.Title != "" {
		title = tree.Title
	}
	return &Document{Title: title, Format: strings.TrimPrefix(ext, "."), Markdown: md}, nil
}

func markdownSource(r io.Reader, _ options) (*doctree.DocTree, string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, "", err
	}
	return nil, strings.ReplaceAll(string(b), "\r\n", "\n"), nil
}
