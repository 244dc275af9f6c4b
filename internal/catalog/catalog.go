// Package catalog turns the category payloads of the blog and question bank
// into browsable trees.
package catalog

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// ID is an opaque identifier. The backend sends integers for most records but
// the client never does arithmetic on them, so both numbers and strings decode.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON writes integer-looking IDs as numbers so they round-trip to the backend.
func (id ID) MarshalJSON() ([]byte, error) {
	if isInteger(string(id)) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func isInteger(s string) bool {
	if s == "" || s[0] == '+' {
		return false
	}
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

func (id ID) String() string { return string(id) }

// RawItem is an article or question reference as sent by the backend.
type RawItem struct {
	ID    ID     `json:"id"`
	Title string `json:"title"`
	Name  string `json:"name"`
}

// RawCategory is one category record as sent by the backend. Count fields are
// pointers so "absent" and "zero" stay distinguishable.
type RawCategory struct {
	ID                 ID         `json:"id"`
	Name               string     `json:"name"`
	Title              string     `json:"title"`
	Count              *int       `json:"count"`
	TotalQuestionCount *int       `json:"total_question_count"`
	QuestionCount      *int       `json:"question_count"`
	Children           Categories `json:"children"`
	Items              Items      `json:"items"`
	Articles           Items      `json:"articles"`
}

// Categories decodes a JSON array leniently: null entries and entries that are
// not category objects become nil instead of failing the whole payload.
type Categories []*RawCategory

func (c *Categories) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(Categories, len(raw))
	for i, r := range raw {
		var cat RawCategory
		if bytes.Equal(bytes.TrimSpace(r), []byte("null")) || json.Unmarshal(r, &cat) != nil {
			continue
		}
		out[i] = &cat
	}
	*c = out
	return nil
}

// Items decodes a JSON array of item references with the same leniency as Categories.
type Items []*RawItem

func (it *Items) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(Items, len(raw))
	for i, r := range raw {
		var item RawItem
		if bytes.Equal(bytes.TrimSpace(r), []byte("null")) || json.Unmarshal(r, &item) != nil {
			continue
		}
		out[i] = &item
	}
	*it = out
	return nil
}

// Decode parses a category array payload.
func Decode(data []byte) (Categories, error) {
	var cats Categories
	if err := json.Unmarshal(data, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

// CountField reads one candidate count field; nil means the field is absent.
type CountField func(*RawCategory) *int

// ItemsField reads one candidate item list.
type ItemsField func(*RawCategory) Items

var (
	ByCount              CountField = func(c *RawCategory) *int { return c.Count }
	ByTotalQuestionCount CountField = func(c *RawCategory) *int { return c.TotalQuestionCount }
	ByQuestionCount      CountField = func(c *RawCategory) *int { return c.QuestionCount }

	FromItems    ItemsField = func(c *RawCategory) Items { return c.Items }
	FromArticles ItemsField = func(c *RawCategory) Items { return c.Articles }
)

// Options lists, in priority order, where a caller's payload keeps counts and items.
// The first count field that is present wins; the first non-empty item list wins.
type Options struct {
	Counts []CountField
	Items  []ItemsField
}

var (
	// BlogOptions: blog categories carry "count" and attach articles under
	// "items" or, in older payloads, "articles".
	BlogOptions = Options{
		Counts: []CountField{ByCount, ByTotalQuestionCount, ByQuestionCount},
		Items:  []ItemsField{FromItems, FromArticles},
	}
	// QuestionOptions: question bank categories carry total_question_count
	// (subtree) and question_count (own), questions under "items".
	QuestionOptions = Options{
		Counts: []CountField{ByCount, ByTotalQuestionCount, ByQuestionCount},
		Items:  []ItemsField{FromItems},
	}
)

// Item is a leaf content reference.
type Item struct {
	ID    ID     `json:"id"`
	Title string `json:"title"`
}

// Node is one category in a UI-ready tree.
type Node struct {
	ID       ID      `json:"id"`
	Title    string  `json:"title"`
	Count    int     `json:"count"`
	Children []*Node `json:"children,omitempty"`
	Items    []Item  `json:"items,omitempty"`
}

// IsLeaf reports whether the node has neither subcategories nor items.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0 && len(n.Items) == 0
}

// Action is what a click on a node does.
type Action int

const (
	// ActionToggle expands or collapses the node in place.
	ActionToggle Action = iota
	// ActionNavigate opens the node's content list.
	ActionNavigate
)

func (a Action) String() string {
	if a == ActionNavigate {
		return "navigate"
	}
	return "toggle"
}

// Click decides what a click on n does: only pure leaves navigate.
func Click(n *Node) Action {
	if n.IsLeaf() {
		return ActionNavigate
	}
	return ActionToggle
}

// BuildTree converts raw categories depth-first. Nil entries at any depth are
// dropped and surviving siblings keep their input order.
func BuildTree(raw []*RawCategory, opts Options) []*Node {
	nodes := make([]*Node, 0, len(raw))
	for _, rc := range raw {
		if n := convert(rc, opts); n != nil {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

func convert(rc *RawCategory, opts Options) *Node {
	if rc == nil {
		return nil
	}
	n := &Node{
		ID:    rc.ID,
		Title: rc.Name,
		Count: countOf(rc, opts.Counts),
	}
	if n.Title == "" {
		n.Title = rc.Title
	}
	if len(rc.Children) > 0 {
		n.Children = BuildTree(rc.Children, opts)
	}
	for _, it := range itemsOf(rc, opts.Items) {
		if it == nil {
			continue
		}
		title := it.Title
		if title == "" {
			title = it.Name
		}
		n.Items = append(n.Items, Item{ID: it.ID, Title: title})
	}
	return n
}

func countOf(rc *RawCategory, fields []CountField) int {
	for _, f := range fields {
		if v := f(rc); v != nil {
			return *v
		}
	}
	return 0
}

func itemsOf(rc *RawCategory, fields []ItemsField) Items {
	for _, f := range fields {
		if items := f(rc); len(items) > 0 {
			return items
		}
	}
	return nil
}

// Find returns the node with the given id, searching depth-first in order.
func Find(nodes []*Node, id ID) *Node {
	for _, n := range nodes {
		if n.ID == id {
			return n
		}
		if found := Find(n.Children, id); found != nil {
			return found
		}
	}
	return nil
}
