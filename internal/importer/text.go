package importer

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/rssmd/internal/doctree"
)

// textSource makes one paragraph per blank-line separated block.
func textSource(r io.Reader, _ options) (*doctree.DocTree, string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	tree := &doctree.DocTree{}
	var para []string
	flush := func() {
		if len(para) > 0 {
			tree.Children = append(tree.Children, &doctree.DocNode{Kind: doctree.KindParagraph, Text: strings.Join(para, "\n")})
			para = para[:0]
		}
	}
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		// trailing double space keeps the line break in Markdown
		para = append(para, line+"  ")
	}
	flush()
	if err := scanner.Err(); err != nil {
		return nil, "", err
	}
	for _, n := range tree.Children {
		n.Text = strings.TrimSuffix(n.Text, "  ")
	}
	return tree, "", nil
}
