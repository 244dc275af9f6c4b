package pages

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/rssmd/internal/position"
)

func blogRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Get("/api/blog/categories", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, ok([]map[string]any{
			{"id": 1, "name": "Go", "count": 2},
			{"id": 2, "name": "Rust", "count": 1},
		}))
	})
	r.Get("/api/blog/articles", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, ok([]map[string]any{
			{"id": 1, "title": "channels", "category": "Go"},
			{"id": 2, "title": "borrowck", "category": "Rust"},
			{"id": 3, "title": "generics", "category": "Go"},
		}))
	})
	r.Get("/api/blog/articles/{id}", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, ok(map[string]any{
			"id":           chi.URLParam(req, "id"),
			"title":        "channels",
			"html_content": "<h1 id=\"heading-0\">Intro</h1><p>text</p><h2 id=\"heading-1\">Select</h2><p>more</p>",
			"headings": []map[string]any{
				{"level": 1, "title": "Intro", "anchor": "heading-0", "line": 0},
				{"level": 2, "title": "Select", "anchor": "heading-1", "line": 10},
			},
		}))
	})
	r.Post("/api/blog/search", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, ok([]map[string]any{{"id": 3, "title": "generics", "category": "Go"}}))
	})
	return r
}

func TestBlogIndex_LoadSelectsFirstCategory(t *testing.T) {
	p := NewBlogIndex(newEnv(t, blogRouter()))
	if err := p.Load(context.Background(), surface()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v := p.View()
	if v.Loading {
		t.Error("expected loading to end")
	}
	if len(v.Categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(v.Categories))
	}
	if v.SelectedCategory != "Go" {
		t.Errorf("expected Go selected, got %q", v.SelectedCategory)
	}
	if len(v.Articles) != 2 {
		t.Errorf("expected 2 Go articles, got %d", len(v.Articles))
	}

	p.SelectCategory("Rust")
	if got := p.View().Articles; len(got) != 1 || got[0].Title != "borrowck" {
		t.Errorf("unexpected Rust articles: %+v", got)
	}
	p.SelectCategory("")
	if got := p.View().Articles; len(got) != 3 {
		t.Errorf("expected all 3 articles, got %d", len(got))
	}
}

func TestBlogIndex_LoadFailsWhenEitherRequestFails(t *testing.T) {
	r := blogRouter()
	r.Get("/api/blog/categories", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "db down"})
	})
	p := NewBlogIndex(newEnv(t, r))
	if err := p.Load(context.Background(), surface()); err == nil {
		t.Fatal("expected error")
	}
	if v := p.View(); v.Error != "db down" || v.Loading {
		t.Errorf("expected error view, got %+v", v)
	}
}

func TestBlogIndex_Search(t *testing.T) {
	p := NewBlogIndex(newEnv(t, blogRouter()))
	rec := surface()
	if err := p.Search(context.Background(), rec, "  "); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := rec.Effects().Navigations; len(n) != 0 {
		t.Errorf("expected no navigation for an empty keyword, got %+v", n)
	}
	if err := p.Search(context.Background(), rec, "go"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	navs := rec.Effects().Navigations
	if len(navs) != 1 || navs[0].Route != RouteBlogSearch+"?keyword=go" {
		t.Errorf("unexpected navigation: %+v", navs)
	}
}

func TestBlogArticle_ScrollToHeading(t *testing.T) {
	p := NewBlogArticle(newEnv(t, blogRouter()))
	rec := surface()
	if err := p.Load(context.Background(), rec, "1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v := p.View()
	if v.Content == nil || v.Content.Fallback {
		t.Fatalf("expected rich content, got %+v", v.Content)
	}
	if len(v.Headings) != 2 {
		t.Fatalf("expected 2 headings, got %d", len(v.Headings))
	}

	// Unmeasured page: fallback offset and a notice.
	p.ToggleOutline()
	p.ScrollToHeading(context.Background(), rec, "heading-1")
	if p.View().ShowOutline {
		t.Error("expected outline to close")
	}
	scrolls := rec.Effects().Scrolls
	if len(scrolls) != 1 || scrolls[0] != position.FallbackOffset {
		t.Errorf("expected scroll to %d, got %v", position.FallbackOffset, scrolls)
	}
	if got := lastNotice(t, rec).Title; got != MsgMidPage {
		t.Errorf("expected %q, got %q", MsgMidPage, got)
	}

	measured := surface()
	measured.SetScrollHeight(2000)
	p.ScrollToHeading(context.Background(), measured, "heading-1")
	if n := measured.Effects().Notices; len(n) != 0 {
		t.Errorf("expected no notice for a measured page, got %+v", n)
	}
	if got := p.View().CurrentHeading; got != "heading-1" {
		t.Errorf("expected current heading-1, got %q", got)
	}
}

func TestBlogArticle_RequiresID(t *testing.T) {
	p := NewBlogArticle(newEnv(t, blogRouter()))
	if err := p.Load(context.Background(), surface(), ""); err == nil {
		t.Fatal("expected error for empty id")
	}
}

func TestBlogSearch(t *testing.T) {
	p := NewBlogSearch(newEnv(t, blogRouter()))
	rec := surface()
	ctx := context.Background()

	if err := p.Search(ctx, rec, " "); err == nil {
		t.Fatal("expected validation error for empty keyword")
	}
	if got := lastNotice(t, rec).Title; !strings.Contains(got, "keyword") {
		t.Errorf("unexpected notice %q", got)
	}

	if err := p.Search(ctx, rec, "generics"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.Search(ctx, rec, "go"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v := p.View()
	if len(v.Results) != 1 {
		t.Errorf("expected 1 result, got %d", len(v.Results))
	}
	if len(v.History) != 2 || v.History[0] != "go" {
		t.Errorf("expected most recent keyword first, got %v", v.History)
	}

	if err := p.ClearHistory(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h, _ := p.env.State.SearchHistory(ctx)
	if len(h) != 0 || len(p.View().History) != 0 {
		t.Errorf("expected cleared history, got %v", h)
	}
}
