package pages

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/rssmd/internal/backend"
	"github.com/dgallion1/rssmd/internal/export"
	"github.com/dgallion1/rssmd/internal/feeds"
	"github.com/dgallion1/rssmd/internal/host"
	"github.com/dgallion1/rssmd/internal/session"
)

func newTestSaver(album host.Album) *export.Saver {
	return export.NewSaver(album, 0, export.NewBatchStore(time.Minute), discardLogger())
}

type renderBackend struct {
	mu       sync.Mutex
	requests map[string][]map[string]any
}

func (b *renderBackend) router() *chi.Mux {
	b.requests = map[string][]map[string]any{}
	handle := func(path string) http.HandlerFunc {
		return func(w http.ResponseWriter, req *http.Request) {
			var body map[string]any
			json.NewDecoder(req.Body).Decode(&body)
			b.mu.Lock()
			b.requests[path] = append(b.requests[path], body)
			b.mu.Unlock()
			writeJSON(w, http.StatusOK, map[string]any{
				"success": true,
				"images":  []string{"http://img/a.png", "http://img/b.png"},
			})
		}
	}
	r := chi.NewRouter()
	r.Post("/preview", handle("/preview"))
	r.Post("/convert", handle("/convert"))
	return r
}

func (b *renderBackend) last(path string) map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	reqs := b.requests[path]
	if len(reqs) == 0 {
		return nil
	}
	return reqs[len(reqs)-1]
}

func TestConvert_PreviewUsesSampleAndCacheBusts(t *testing.T) {
	b := &renderBackend{}
	env := newEnv(t, b.router())
	env.Now = func() time.Time { return time.UnixMilli(1700000000123) }
	p := NewConvert(env)
	ctx := context.Background()

	if err := p.Preview(ctx, surface()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	req := b.last("/preview")
	if req["content"] != SampleMarkdown {
		t.Errorf("expected sample content, got %v", req["content"])
	}
	if req["user_id"] != "anonymous" || req["article_id"] != "1700000000123" {
		t.Errorf("unexpected ids: %v", req)
	}
	if _, sent := req["watermark"]; sent {
		t.Errorf("expected no watermark while disabled, got %v", req["watermark"])
	}
	if got := p.View().PreviewImage; got != "http://img/a.png?t=1700000000123" {
		t.Errorf("unexpected preview image %q", got)
	}

	p.SetWatermark("@kim")
	p.ToggleWatermark()
	if err := p.SetStyle(backend.StyleNotion); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.SetStyle("comic"); err == nil {
		t.Error("expected error for unknown style")
	}
	if err := p.Preview(ctx, surface()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	req = b.last("/preview")
	if req["watermark"] != "@kim" || req["style"] != "notion" {
		t.Errorf("unexpected request: %v", req)
	}
}

func TestConvert_NeedsLoginAndContent(t *testing.T) {
	b := &renderBackend{}
	env := newEnv(t, b.router())
	p := NewConvert(env)
	ctx := context.Background()

	rec := surface()
	if err := p.Convert(ctx, rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	navs := rec.Effects().Navigations
	if len(navs) != 1 || navs[0].Method != "switchTab" || navs[0].Route != RouteIndex {
		t.Errorf("expected switchTab to index, got %+v", navs)
	}

	login(t, env, session.RoleUser)
	if err := p.Convert(ctx, surface()); err == nil {
		t.Error("expected validation error for empty content")
	}
	if b.last("/convert") != nil {
		t.Error("expected no convert request")
	}

	p.SetMarkdown("# Title\nbody")
	if err := p.Convert(ctx, surface()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := b.last("/convert"); got["user_id"] != "7" {
		t.Errorf("expected user id 7, got %v", got["user_id"])
	}
	if got := p.View().Images; len(got) != 2 {
		t.Errorf("expected 2 images, got %v", got)
	}
}

func TestConvert_SaveAll(t *testing.T) {
	b := &renderBackend{}
	env := newEnv(t, b.router())
	album := &fakeAlbum{}
	env.Saver = newTestSaver(album)
	login(t, env, session.RoleUser)
	p := NewConvert(env)
	ctx := context.Background()

	p.SetMarkdown("# hi")
	if err := p.Convert(ctx, surface()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.SaveAll(ctx, surface()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.View().SavingAll {
		t.Fatal("expected saving in progress")
	}

	rec := surface()
	deadline := time.Now().Add(2 * time.Second)
	for p.View().SavingAll {
		if time.Now().After(deadline) {
			t.Fatal("batch did not finish")
		}
		if err := p.BatchStatus(ctx, rec); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		time.Sleep(5 * time.Millisecond)
	}
	snap := p.View().Batch
	if snap == nil || snap.Status != export.StatusCompleted || snap.Saved != 2 {
		t.Errorf("unexpected batch: %+v", snap)
	}
	if n := lastNotice(t, rec); n.Title != "Saved 2 images" {
		t.Errorf("unexpected notice %q", n.Title)
	}
}

func TestConvert_Import(t *testing.T) {
	p := NewConvert(newEnv(t, chi.NewRouter()))
	ctx := context.Background()
	rec := surface()

	if err := p.Import(ctx, rec, strings.NewReader("x"), "slides.pptx"); err == nil {
		t.Error("expected error for unsupported file")
	}
	if err := p.Import(ctx, rec, bytes.NewBufferString("# Notes\n\nsome text\n"), "notes.md"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v := p.View()
	if !strings.Contains(v.Markdown, "some text") || v.ImportedFormat != "md" {
		t.Errorf("unexpected import: %+v", v)
	}
}

func feedRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Get("/rss", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]string{
			{"name": "golang", "url": "https://go.dev/blog/feed.atom"},
			{"name": "hn", "url": "https://news.ycombinator.com/rss"},
		})
	})
	r.Get("/rss/{name}", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/markdown")
		w.Write([]byte("# " + chi.URLParam(req, "name") + "\n\n## First post\n\ntext\n"))
	})
	return r
}

func TestTools_LoadSelectShare(t *testing.T) {
	env := newEnv(t, feedRouter())
	env.Feeds = feeds.NewReader(env.API, nil)
	p := NewTools(env)
	ctx := context.Background()
	rec := surface()

	if err := p.Load(ctx, rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v := p.View()
	if v.SelectedName != "golang" || len(v.Sources) != 2 {
		t.Fatalf("unexpected view: %+v", v)
	}
	if len(v.Headings) != 2 || v.Content == nil {
		t.Errorf("expected rendered digest with outline, got %+v", v)
	}

	if err := p.Select(ctx, rec, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := p.View().Markdown; !strings.HasPrefix(got, "# hn") {
		t.Errorf("expected hn digest, got %q", got)
	}
	if err := p.Select(ctx, rec, 5); err == nil {
		t.Error("expected error for out-of-range index")
	}

	if err := p.Share(ctx, rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	navs := rec.Effects().Navigations
	if len(navs) != 1 || navs[0].Method != "switchTab" {
		t.Fatalf("expected login navigation, got %+v", navs)
	}

	login(t, env, session.RoleUser)
	rec = surface()
	if err := p.Share(ctx, rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	navs = rec.Effects().Navigations
	if len(navs) != 1 || !strings.HasPrefix(navs[0].Route, RouteConvert+"?markdown=") {
		t.Errorf("expected navigation to convert, got %+v", navs)
	}
}
