package importer

import (
	"strings"
	"testing"
)

func TestImport_Text(t *testing.T) {
	input := "First line one.\nFirst line two.\n\nSecond paragraph.\n\n\nThird."
	doc, err := Import(strings.NewReader(input), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "notes" || doc.Format != "txt" {
		t.Errorf("unexpected title/format %q/%q", doc.Title, doc.Format)
	}
	want := "First line one.  \nFirst line two.\n\nSecond paragraph.\n\nThird.\n"
	if doc.Markdown != want {
		t.Errorf("Markdown = %q, want %q", doc.Markdown, want)
	}
}

func TestImport_MarkdownPassthrough(t *testing.T) {
	doc, err := Import(strings.NewReader("# T\r\n\r\nbody\r\n"), "dir/post.MD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Markdown != "# T\n\nbody\n" {
		t.Errorf("unexpected markdown %q", doc.Markdown)
	}
	if doc.Title != "post" {
		t.Errorf("expected title post, got %q", doc.Title)
	}
}

func TestImport_CSVTables(t *testing.T) {
	var b strings.Builder
	b.WriteString("name,score\n")
	for i := 0; i < 25; i++ {
		b.WriteString("n,1\n")
	}
	doc, err := Import(strings.NewReader(b.String()), "scores.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(doc.Markdown, "## Rows 2-21") || !strings.Contains(doc.Markdown, "## Rows 22-26") {
		t.Errorf("expected two row ranges, got:\n%s", doc.Markdown)
	}
	if got := strings.Count(doc.Markdown, "| name | score |"); got != 2 {
		t.Errorf("expected header repeated twice, got %d", got)
	}
}

func TestImport_CSVSmallHasNoSections(t *testing.T) {
	doc, err := Import(strings.NewReader("a,b\n1,2\n"), "t.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "| a | b |\n| --- | --- |\n| 1 | 2 |\n"
	if doc.Markdown != want {
		t.Errorf("Markdown = %q, want %q", doc.Markdown, want)
	}
}

func TestImport_HTML(t *testing.T) {
	doc, err := Import(strings.NewReader("<h1>Hi</h1><p>Some <strong>bold</strong> text.</p>"), "page.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(doc.Markdown, "# Hi") || !strings.Contains(doc.Markdown, "**bold**") {
		t.Errorf("unexpected markdown %q", doc.Markdown)
	}
}

func TestImport_Unsupported(t *testing.T) {
	if _, err := Import(strings.NewReader("x"), "a.exe"); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
	if Supported("a.exe") || !Supported("a.DOCX") {
		t.Error("unexpected Supported result")
	}
}

func TestWrapLooseMermaid(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"loose diagram",
			"intro\n\ngraph TD\nA-->B\n\nafter",
			"intro\n\n```mermaid\ngraph TD\nA-->B\n```\n\nafter",
		},
		{
			"already fenced",
			"```mermaid\ngraph TD\nA-->B\n```",
			"```mermaid\ngraph TD\nA-->B\n```",
		},
		{
			"diagram keyword inside code fence",
			"~~~\npie title x\n~~~",
			"~~~\npie title x\n~~~",
		},
		{
			"ends at heading",
			"sequenceDiagram\nA->>B: hi\n# Next",
			"```mermaid\nsequenceDiagram\nA->>B: hi\n```\n# Next",
		},
		{
			"ends at eof",
			"flowchart LR\nA-->B",
			"```mermaid\nflowchart LR\nA-->B\n```",
		},
		{
			"keyword must be a whole word",
			"pieces of text",
			"pieces of text",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WrapLooseMermaid(tt.in); got != tt.want {
				t.Errorf("WrapLooseMermaid() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestImportPDF_PdftotextFallback(t *testing.T) {
	// Not a PDF: the Go reader rejects it, so only the fallback mentions pdftotext.
	_, err := Import(strings.NewReader("plain text"), "scan.pdf")
	if err == nil {
		t.Fatal("expected error for invalid pdf")
	}
	if strings.Contains(err.Error(), "pdftotext") {
		t.Errorf("expected no pdftotext attempt by default, got %v", err)
	}

	_, err = Import(strings.NewReader("plain text"), "scan.pdf", WithPdftotext(true))
	if err == nil || !strings.Contains(err.Error(), "pdftotext") {
		t.Errorf("expected pdftotext fallback error, got %v", err)
	}
}
