package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/rssmd/internal/backend"
	"github.com/dgallion1/rssmd/internal/config"
	"github.com/dgallion1/rssmd/internal/export"
	"github.com/dgallion1/rssmd/internal/pages"
	"github.com/dgallion1/rssmd/internal/session"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func reply(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func fakeBackend() *chi.Mux {
	r := chi.NewRouter()
	r.Get("/api/blog/categories", func(w http.ResponseWriter, _ *http.Request) {
		reply(w, http.StatusOK, map[string]any{"success": true, "data": []map[string]any{
			{"id": 1, "name": "Go", "count": 2},
			{"id": 2, "name": "Rust", "count": 1},
		}})
	})
	r.Get("/api/blog/articles", func(w http.ResponseWriter, _ *http.Request) {
		reply(w, http.StatusOK, map[string]any{"success": true, "data": []map[string]any{
			{"id": 1, "title": "channels", "category": "Go"},
			{"id": 2, "title": "borrowck", "category": "Rust"},
			{"id": 3, "title": "generics", "category": "Go"},
		}})
	})
	r.Post("/api/v1/login", func(w http.ResponseWriter, _ *http.Request) {
		reply(w, http.StatusOK, map[string]any{"success": true, "token": "t-1", "userId": 1, "role": "admin"})
	})
	return r
}

type testGateway struct {
	srv      *Server
	registry *Registry
	env      *pages.Env
}

func newGateway(t *testing.T, apiKey string) *testGateway {
	t.Helper()
	be := httptest.NewServer(fakeBackend())
	t.Cleanup(be.Close)

	state, auth := session.NewState(session.NewMemoryStore())
	album, err := export.NewDiskAlbum(t.TempDir(), be.Client())
	if err != nil {
		t.Fatalf("album: %v", err)
	}
	env := &pages.Env{
		API: backend.New(be.URL, state, auth,
			backend.WithLogger(discardLogger()),
			backend.WithStats(backend.NewLatencyStats(time.Minute))),
		State: state,
		Auth:  auth,
		Saver: export.NewSaver(album, 0, export.NewBatchStore(time.Hour), discardLogger()),
		Log:   discardLogger(),
	}
	cfg := config.Config{
		GatewayAPIKey:  apiKey,
		CORSOrigins:    []string{"*"},
		TabRoutes:      pages.TabRoutes,
		MaxUploadBytes: 1 << 20,
	}
	reg := NewRegistry(time.Hour, discardLogger())
	return &testGateway{srv: NewServer(env, reg, discardLogger(), cfg), registry: reg, env: env}
}

func (g *testGateway) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = strings.NewReader(b)
	default:
		data, _ := json.Marshal(b)
		rdr = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rdr)
	w := httptest.NewRecorder()
	g.srv.ServeHTTP(w, req)
	return w
}

type decodedPage struct {
	PageID  string          `json:"page_id"`
	Route   string          `json:"route"`
	View    json.RawMessage `json:"view"`
	Error   string          `json:"error"`
	Closed  bool            `json:"closed"`
	Effects struct {
		Navigations []struct {
			Method string `json:"method"`
			Route  string `json:"route"`
		} `json:"navigations"`
		Notices []struct {
			Title string `json:"title"`
		} `json:"notices"`
	} `json:"effects"`
}

func decodePage(t *testing.T, w *httptest.ResponseRecorder) decodedPage {
	t.Helper()
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var p decodedPage
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	return p
}

func TestHealth(t *testing.T) {
	g := newGateway(t, "secret")
	w := g.do(t, "GET", "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestAuthMiddleware(t *testing.T) {
	g := newGateway(t, "secret")
	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer secret", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/stats/backend", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			g.srv.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}

	open := newGateway(t, "")
	if w := open.do(t, "GET", "/api/stats/backend", nil); w.Code != http.StatusOK {
		t.Errorf("expected auth disabled with empty key, got %d", w.Code)
	}
}

func TestPageLifecycle(t *testing.T) {
	g := newGateway(t, "")

	p := decodePage(t, g.do(t, "POST", "/api/pages", map[string]string{"route": pages.RouteBlog}))
	if p.PageID == "" || p.Route != pages.RouteBlog {
		t.Fatalf("unexpected page: %+v", p)
	}
	var view pages.BlogIndexView
	json.Unmarshal(p.View, &view)
	if view.SelectedCategory != "Go" || len(view.Articles) != 2 {
		t.Errorf("unexpected initial view: %+v", view)
	}

	p = decodePage(t, g.do(t, "POST", "/api/pages/"+p.PageID+"/events/select_category", map[string]string{"value": "Rust"}))
	json.Unmarshal(p.View, &view)
	if view.SelectedCategory != "Rust" || len(view.Articles) != 1 {
		t.Errorf("unexpected view after select: %+v", view)
	}

	if w := g.do(t, "GET", "/api/pages/"+p.PageID, nil); w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if w := g.do(t, "DELETE", "/api/pages/"+p.PageID, nil); w.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", w.Code)
	}
	if w := g.do(t, "GET", "/api/pages/"+p.PageID, nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 after close, got %d", w.Code)
	}
}

func TestPageErrors(t *testing.T) {
	g := newGateway(t, "")
	p := decodePage(t, g.do(t, "POST", "/api/pages", map[string]string{"route": pages.RouteConvert}))

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"unknown route", "POST", "/api/pages", map[string]string{"route": "/pages/nope/index"}, http.StatusNotFound},
		{"bad json", "POST", "/api/pages", "{", http.StatusBadRequest},
		{"unknown page", "POST", "/api/pages/missing/events/preview", nil, http.StatusNotFound},
		{"unknown event", "POST", "/api/pages/" + p.PageID + "/events/launch_rockets", nil, http.StatusNotFound},
		{"bad event json", "POST", "/api/pages/" + p.PageID + "/events/set_style", "{", http.StatusBadRequest},
		{"unknown batch", "GET", "/api/exports/missing", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := g.do(t, tt.method, tt.path, tt.body); w.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}

	// A rejected event still answers 200 with the error and the view.
	p = decodePage(t, g.do(t, "POST", "/api/pages/"+p.PageID+"/events/set_style", map[string]string{"value": "neon"}))
	if p.Error == "" {
		t.Error("expected error for unknown style")
	}
}

func TestRouteQueryReachesPage(t *testing.T) {
	g := newGateway(t, "")
	p := decodePage(t, g.do(t, "POST", "/api/pages", map[string]string{"route": pages.RouteConvert + "?markdown=%23+Hi"}))
	var view pages.ConvertView
	json.Unmarshal(p.View, &view)
	if view.Markdown != "# Hi" {
		t.Errorf("expected markdown from route query, got %q", view.Markdown)
	}
}

func TestRedirectClosesPage(t *testing.T) {
	g := newGateway(t, "")
	p := decodePage(t, g.do(t, "POST", "/api/pages", map[string]string{"route": pages.RouteIndex}))

	p = decodePage(t, g.do(t, "POST", "/api/pages/"+p.PageID+"/events/login", map[string]any{
		"code":     "c0de",
		"userInfo": map[string]string{"nickName": "lee"},
	}))
	if p.Error != "" {
		t.Fatalf("unexpected error: %s", p.Error)
	}
	navs := p.Effects.Navigations
	if len(navs) != 1 || navs[0].Method != "redirectTo" || navs[0].Route != pages.RouteAdmin {
		t.Fatalf("expected redirect to admin, got %+v", navs)
	}
	if !p.Closed {
		t.Error("expected the page to be closed")
	}
	if n := g.registry.Len(); n != 0 {
		t.Errorf("expected no open pages, got %d", n)
	}
}

func upload(t *testing.T, g *testGateway, pageID, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte(content))
	mw.Close()

	req := httptest.NewRequest("POST", "/api/pages/"+pageID+"/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	g.srv.ServeHTTP(w, req)
	return w
}

func TestImport(t *testing.T) {
	g := newGateway(t, "")
	conv := decodePage(t, g.do(t, "POST", "/api/pages", map[string]string{"route": pages.RouteConvert}))
	blog := decodePage(t, g.do(t, "POST", "/api/pages", map[string]string{"route": pages.RouteBlog}))

	p := decodePage(t, upload(t, g, conv.PageID, "../notes.txt", "hello import"))
	var view pages.ConvertView
	json.Unmarshal(p.View, &view)
	if !strings.Contains(view.Markdown, "hello import") {
		t.Errorf("expected imported text in editor, got %q", view.Markdown)
	}

	if w := upload(t, g, conv.PageID, "tool.exe", "MZ"); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unsupported file, got %d", w.Code)
	}
	if w := upload(t, g, blog.PageID, "notes.txt", "x"); w.Code != http.StatusConflict {
		t.Errorf("expected 409 for non-convert page, got %d", w.Code)
	}
}

func TestExportStatus(t *testing.T) {
	g := newGateway(t, "")
	b := g.env.Saver.Start(t.Context(), "42", nil)

	deadline := time.Now().Add(2 * time.Second)
	for {
		w := g.do(t, "GET", "/api/exports/"+b.ID, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var snap export.BatchSnapshot
		json.Unmarshal(w.Body.Bytes(), &snap)
		if snap.Status == export.StatusCompleted {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("batch did not complete: %+v", snap)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct{ in, want string }{
		{"notes.md", "notes.md"},
		{"../../etc/passwd", "passwd"},
		{`C:\docs\report.docx`, "report.docx"},
		{"", "unnamed"},
		{"a..b.txt", "a_b.txt"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
