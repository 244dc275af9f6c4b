// Package feeds lists RSS sources and produces the Markdown digest shown by
// the reader. Sources come from the backend, which serves ready-made
// digests, and from an optional local YAML file whose feeds are fetched and
// converted here.
package feeds

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/rssmd/internal/backend"
	"github.com/dgallion1/rssmd/internal/importer"
)

// DefaultMaxItems caps the items included in a local digest.
const DefaultMaxItems = 20

// Source is one selectable feed.
type Source struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
	// Local sources are fetched directly instead of through the backend.
	Local bool `json:"local" yaml:"-"`
}

type sourceFile struct {
	MaxItems int      `yaml:"max_items"`
	Feeds    []Source `yaml:"feeds"`
}

// LoadSources reads a YAML file of the form
//
//	max_items: 10
//	feeds:
//	  - name: go-blog
//	    url: https://go.dev/blog/feed.atom
//
// Entries without a name or url are skipped with a warning.
func LoadSources(path string) ([]Source, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("read feeds file: %w", err)
	}
	var f sourceFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, 0, fmt.Errorf("parse feeds file %s: %w", path, err)
	}
	out := make([]Source, 0, len(f.Feeds))
	seen := make(map[string]bool)
	for i, s := range f.Feeds {
		s.Name, s.URL = strings.TrimSpace(s.Name), strings.TrimSpace(s.URL)
		if s.Name == "" || s.URL == "" {
			slog.Warn("skipping feed entry", "file", path, "index", i)
			continue
		}
		if seen[s.Name] {
			slog.Warn("duplicate feed name", "file", path, "name", s.Name)
			continue
		}
		seen[s.Name] = true
		s.Local = true
		out = append(out, s)
	}
	return out, f.MaxItems, nil
}

// Remote is the backend side of the reader.
type Remote interface {
	FeedSources(ctx context.Context) ([]backend.FeedSource, error)
	FeedMarkdown(ctx context.Context, name string) (string, error)
}

// Reader merges backend and local sources.
type Reader struct {
	remote    Remote
	local     map[string]Source
	order     []string
	maxItems  int
	client    *http.Client
	userAgent string
	log       *slog.Logger
}

type Option func(*Reader)

func WithHTTPClient(c *http.Client) Option { return func(r *Reader) { r.client = c } }
func WithMaxItems(n int) Option          { return func(r *Reader) { r.maxItems = n } }
func WithUserAgent(ua string) Option     { return func(r *Reader) { r.userAgent = ua } }
func WithLogger(l *slog.Logger) Option   { return func(r *Reader) { r.log = l } }

func NewReader(remote Remote, local []Source, opts ...Option) *Reader {
	r := &Reader{
		remote:   remote,
		local:    make(map[string]Source, len(local)),
		maxItems: DefaultMaxItems,
		client:   &http.Client{Timeout: 30 * time.Second},
		log:      slog.Default(),
	}
	for _, s := range local {
		if _, dup := r.local[s.Name]; dup {
			continue
		}
		s.Local = true
		r.local[s.Name] = s
		r.order = append(r.order, s.Name)
	}
	for _, o := range opts {
		o(r)
	}
	if r.maxItems <= 0 {
		r.maxItems = DefaultMaxItems
	}
	return r
}

// Sources lists backend sources followed by local ones. A local source
// shadows a backend source of the same name. When the backend fails and local
// sources exist, the local list is returned and the failure only logged.
func (r *Reader) Sources(ctx context.Context) ([]Source, error) {
	var out []Source
	remote, err := r.remote.FeedSources(ctx)
	if err != nil {
		if len(r.local) == 0 || errors.Is(err, backend.ErrUnauthorized) {
			return nil, err
		}
		r.log.Warn("backend feed list unavailable, using local feeds", "error", err)
	}
	for _, s := range remote {
		if _, shadowed := r.local[s.Name]; shadowed {
			continue
		}
		out = append(out, Source{Name: s.Name, URL: s.URL})
	}
	for _, name := range r.order {
		out = append(out, r.local[name])
	}
	return out, nil
}

// Markdown returns the digest for the named source.
func (r *Reader) Markdown(ctx context.Context, name string) (string, error) {
	src, ok := r.local[name]
	if !ok {
		return r.remote.FeedMarkdown(ctx, name)
	}
	fp := gofeed.NewParser()
	fp.Client = r.client
	if r.userAgent != "" {
		fp.UserAgent = r.userAgent
	}
	feed, err := fp.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		return "", fmt.Errorf("fetch feed %s: %w", name, err)
	}
	return Digest(feed, r.maxItems), nil
}

// Digest renders up to maxItems entries of feed as one Markdown document:
// a level-one heading for the feed and a level-two heading per item.
func Digest(feed *gofeed.Feed, maxItems int) string {
	var b strings.Builder
	title := strings.TrimSpace(feed.Title)
	if title == "" {
		title = "Feed"
	}
	b.WriteString("# " + title + "\n")
	if d := plain(feed.Description); d != "" {
		b.WriteString("\n" + d + "\n")
	}

	for i, item := range feed.Items {
		if maxItems > 0 && i >= maxItems {
			break
		}
		heading := strings.TrimSpace(item.Title)
		if heading == "" {
			heading = fmt.Sprintf("Item %d", i+1)
		}
		b.WriteString("\n## " + heading + "\n")

		var meta []string
		if item.PublishedParsed != nil {
			meta = append(meta, item.PublishedParsed.Format("2006-01-02 15:04"))
		} else if item.Published != "" {
			meta = append(meta, item.Published)
		}
		if item.Link != "" {
			meta = append(meta, "[link]("+item.Link+")")
		}
		if len(meta) > 0 {
			b.WriteString("\n" + strings.Join(meta, " · ") + "\n")
		}

		body := item.Content
		if body == "" {
			body = item.Description
		}
		if body = strings.TrimSpace(body); body != "" {
			md, err := importer.FromHTML(body)
			if err != nil {
				md = plain(body)
			}
			if md = demoteHeadings(md); md != "" {
				b.WriteString("\n" + md + "\n")
			}
		}
	}
	return b.String()
}

// demoteHeadings pushes item headings below the item's own level-two heading.
func demoteHeadings(md string) string {
	lines := strings.Split(md, "\n")
	inFence := false
	for i, l := range lines {
		t := strings.TrimSpace(l)
		if strings.HasPrefix(t, "```") || strings.HasPrefix(t, "~~~") {
			inFence = !inFence
			continue
		}
		if !inFence && strings.HasPrefix(t, "#") {
			n := len(t) - len(strings.TrimLeft(t, "#"))
			if n >= 1 && n <= 6 && len(t) > n && t[n] == ' ' {
				lines[i] = strings.Repeat("#", min(n+2, 6)) + t[n:]
			}
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func plain(s string) string {
	md, err := importer.FromHTML(s)
	if err != nil {
		return strings.TrimSpace(s)
	}
	return md
}
