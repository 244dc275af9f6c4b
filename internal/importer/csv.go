package importer

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/dgallion1/rssmd/internal/doctree"
)

// maxTableRows bounds one table; longer files are split so each rendered
// image stays readable.
const maxTableRows = 20

// csvSource renders the file as Markdown tables, repeating the header row.
func csvSource(r io.Reader, _ options) (*doctree.DocTree, string, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, "", fmt.Errorf("parse csv: %w", err)
	}
	tree := &doctree.DocTree{}
	if len(records) == 0 {
		return tree, "", nil
	}
	header, rows := records[0], records[1:]
	if len(rows) == 0 {
		tree.Children = append(tree.Children, &doctree.DocNode{Kind: doctree.KindTable, Rows: [][]string{header}})
		return tree, "", nil
	}
	for i := 0; i < len(rows); i += maxTableRows {
		end := min(i+maxTableRows, len(rows))
		table := append([][]string{header}, rows[i:end]...)
		if len(rows) > maxTableRows {
			// 1-indexed source rows, header is row 1
			tree.Children = append(tree.Children, &doctree.DocNode{
				Kind: doctree.KindSection, Level: 2, Title: fmt.Sprintf("Rows %d-%d", i+2, end+1),
			})
		}
		tree.Children = append(tree.Children, &doctree.DocNode{Kind: doctree.KindTable, Rows: table})
	}
	return tree, "", nil
}
