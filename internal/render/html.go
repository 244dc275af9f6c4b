package render

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/dgallion1/rssmd/internal/doctree"
)

// HTML renders server-rendered article HTML into a tree. Section anchors
// come from the heading's id attribute. Malformed markup never fails;
// x/net/html repairs it the way a browser would.
func HTML(src string) *doctree.DocTree {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return &doctree.DocTree{}
	}
	b := doctree.NewBuilder()

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				b.Add(&doctree.DocNode{Kind: doctree.KindParagraph, Text: t})
			}
			return
		}
		if n.Type != html.ElementNode {
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
			return
		}

		if level := headingLevel(n.Data); level > 0 {
			if title := textContent(n); title != "" {
				sec := b.Section(level, title)
				sec.Anchor = attr(n, "id")
			}
			return
		}

		switch n.Data {
		case "script", "style", "nav", "footer", "header", "head":
			return
		case "p":
			if img := soleImg(n); img != nil {
				b.Add(imageNode(img))
			} else if t := textContent(n); t != "" {
				b.Add(&doctree.DocNode{Kind: doctree.KindParagraph, Text: t})
			}
			return
		case "img":
			b.Add(imageNode(n))
			return
		case "pre":
			b.Add(preNode(n))
			return
		case "ul", "ol":
			list := &doctree.DocNode{Kind: doctree.KindList, Ordered: n.Data == "ol"}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && c.Data == "li" {
					list.Children = append(list.Children, &doctree.DocNode{Kind: doctree.KindItem, Text: textContent(c)})
				}
			}
			b.Add(list)
			return
		case "blockquote":
			if t := textContent(n); t != "" {
				b.Add(&doctree.DocNode{Kind: doctree.KindQuote, Text: t})
			}
			return
		case "table":
			b.Add(tableNode(n))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findElement(doc, "body"); body != nil {
		walk(body)
	} else {
		walk(doc)
	}
	title := ""
	if t := findElement(doc, "title"); t != nil {
		title = textContent(t)
	}
	return b.Tree(title)
}

func preNode(n *html.Node) *doctree.DocNode {
	lang := ""
	target := n
	if code := findElement(n, "code"); code != nil {
		target = code
		lang = codeLanguage(attr(code, "class"))
	}
	if lang == "" {
		lang = codeLanguage(attr(n, "class"))
	}
	kind := doctree.KindCode
	if lang == "mermaid" {
		kind = doctree.KindMermaid
	}
	return &doctree.DocNode{Kind: kind, Lang: lang, Text: rawText(target)}
}

// codeLanguage reads "language-x" or "lang-x" from a class list; a bare
// "mermaid" class counts too.
func codeLanguage(class string) string {
	for _, c := range strings.Fields(class) {
		switch {
		case strings.HasPrefix(c, "language-"):
			return strings.TrimPrefix(c, "language-")
		case strings.HasPrefix(c, "lang-"):
			return strings.TrimPrefix(c, "lang-")
		case c == "mermaid":
			return c
		}
	}
	return ""
}

func imageNode(n *html.Node) *doctree.DocNode {
	return &doctree.DocNode{Kind: doctree.KindImage, ImageURL: attr(n, "src"), Text: attr(n, "alt")}
}

func soleImg(p *html.Node) *html.Node {
	var img *html.Node
	for c := p.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case c.Type == html.TextNode && strings.TrimSpace(c.Data) == "":
		case c.Type == html.ElementNode && c.Data == "img" && img == nil:
			img = c
		default:
			return nil
		}
	}
	return img
}

func tableNode(n *html.Node) *doctree.DocNode {
	var rows [][]string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			var cells []string
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
					cells = append(cells, textContent(c))
				}
			}
			rows = append(rows, cells)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return &doctree.DocNode{Kind: doctree.KindTable, Rows: rows}
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

// textContent collapses the text under n to single-spaced lines.
func textContent(n *html.Node) string {
	return strings.Join(strings.Fields(rawText(n)), " ")
}

func rawText(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		if n.Type == html.ElementNode && n.Data == "br" {
			buf.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return buf.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}
