package importer

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/dgallion1/rssmd/internal/doctree"
)

func pdfSource(r io.Reader, o options) (*doctree.DocTree, string, error) {
	// the pdf reader needs random access
	tmp, err := os.CreateTemp("", "rssmd-import-*.pdf")
	if err != nil {
		return nil, "", fmt.Errorf("create temp file: %w", err)
	}
	path := tmp.Name()
	defer os.Remove(path)
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, "", fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	pages, err := readPDFPages(path)
	if err != nil && o.pdftotext {
		pages, err = pdftotextPages(path)
	}
	if err != nil {
		return nil, "", fmt.Errorf("extract pdf text: %w", err)
	}

	b := doctree.NewBuilder()
	multi := len(pages) > 1
	for i, page := range pages {
		page = strings.TrimSpace(page)
		if page == "" {
			continue
		}
		if multi {
			b.Section(2, fmt.Sprintf("Page %d", i+1)).Line = i + 1
		}
		for _, para := range splitParagraphs(page) {
			b.Add(&doctree.DocNode{Kind: doctree.KindParagraph, Text: para, Line: i + 1})
		}
	}
	return b.Tree(""), "", nil
}

func readPDFPages(path string) ([]string, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		p := reader.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}

func pdftotextPages(path string) ([]string, error) {
	out, err := exec.Command("pdftotext", "-layout", path, "-").Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	return strings.Split(string(out), "\f"), nil
}

func splitParagraphs(s string) []string {
	var out []string
	for _, p := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
