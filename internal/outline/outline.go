package outline

import (
	"fmt"
	"regexp"
	"strings"
)

// Heading is one outline entry extracted from a document.
type Heading struct {
	Level  int    `json:"level"`
	Title  string `json:"title"`
	Anchor string `json:"anchor"`
	Line   int    `json:"line"`
}

var (
	atxRe      = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	numberedRe = regexp.MustCompile(`^(\s*)(\d+\.)\s+(.+)$`)
	chineseRe  = regexp.MustCompile(`^(\s*)([一二三四五六七八九十]+)、\s*(.+)$`)
)

// Each indent step of this many characters nests a list heading one level deeper.
const indentStep = 2

// Extract scans text line by line and returns its outline in document order.
//
// ATX headings keep their # count as level. Numbered ("1.") and Chinese-numeral
// ("一、") list items become level 4-6 entries depending on indentation, with the
// marker kept in the title. Anchors are "heading-<n>", dense and zero-based.
func Extract(text string) []Heading {
	var headings []Heading
	if text == "" {
		return headings
	}

	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimRight(raw, " \t\r")

		if m := atxRe.FindStringSubmatch(strings.TrimLeft(line, " \t")); m != nil {
			title := strings.TrimSpace(m[2])
			if title == "" {
				continue
			}
			headings = appendHeading(headings, len(m[1]), title, i)
			continue
		}

		if m := numberedRe.FindStringSubmatch(line); m != nil {
			title := strings.TrimSpace(m[3])
			if title != "" {
				headings = appendHeading(headings, listLevel(m[1]), m[2]+" "+title, i)
			}
			continue
		}

		if m := chineseRe.FindStringSubmatch(line); m != nil {
			title := strings.TrimSpace(m[3])
			if title != "" {
				headings = appendHeading(headings, listLevel(m[1]), m[2]+"、"+title, i)
			}
			continue
		}
	}
	return headings
}

func appendHeading(headings []Heading, level int, title string, line int) []Heading {
	return append(headings, Heading{
		Level:  level,
		Title:  title,
		Anchor: Anchor(len(headings)),
		Line:   line,
	})
}

func listLevel(indent string) int {
	return min(6, len(indent)/indentStep+4)
}

// Anchor returns the synthetic anchor for the n-th outline entry.
func Anchor(n int) string {
	return fmt.Sprintf("heading-%d", n)
}

// IndexOf returns the position of anchor in headings, or -1.
func IndexOf(headings []Heading, anchor string) int {
	for i, h := range headings {
		if h.Anchor == anchor {
			return i
		}
	}
	return -1
}
