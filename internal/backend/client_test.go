package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/rssmd/internal/host"
	"github.com/dgallion1/rssmd/internal/session"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func loggedIn(t *testing.T) (*session.State, *session.Authority) {
	t.Helper()
	state, auth := session.NewState(session.NewMemoryStore())
	err := auth.Login(context.Background(), session.Identity{
		Token:    "tok-123",
		UserID:   "9",
		Role:     session.RoleUser,
		UserInfo: &session.UserInfo{NickName: "kim"},
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return state, auth
}

func TestDo_AttachesRawToken(t *testing.T) {
	var gotAuth, gotReqID string
	r := chi.NewRouter()
	r.Get("/api/blog/articles", func(w http.ResponseWriter, req *http.Request) {
		gotAuth = req.Header.Get("Authorization")
		gotReqID = req.Header.Get("X-Request-Id")
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": []map[string]any{{"id": 1, "title": "a"}}})
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	state, auth := loggedIn(t)
	c := New(srv.URL, state, auth)
	arts, err := c.Articles(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "tok-123" {
		t.Errorf("expected raw token header, got %q", gotAuth)
	}
	if gotReqID == "" {
		t.Error("expected X-Request-Id header")
	}
	if len(arts) != 1 || arts[0].ID.String() != "1" {
		t.Errorf("unexpected articles: %+v", arts)
	}
}

func TestDo_NoTokenNoHeader(t *testing.T) {
	var present bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		_, present = req.Header["Authorization"]
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": []any{}})
	}))
	defer srv.Close()

	state, auth := session.NewState(session.NewMemoryStore())
	if _, err := New(srv.URL, state, auth).Articles(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if present {
		t.Error("expected no Authorization header when logged out")
	}
}

func TestDo_UnauthorizedPurgesAndNavigatesOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "bad token"})
	}))
	defer srv.Close()

	state, auth := loggedIn(t)
	c := New(srv.URL, state, auth, WithLoginRoute("/pages/index/index"))

	// login route is not a tab here, so switchTab fails and redirectTo lands
	rec := host.NewRecorder(nil)
	ctx := host.WithNavigator(context.Background(), rec)

	_, err := c.Articles(ctx)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	id, _ := state.Identity(ctx)
	if id.Token != "" || id.UserID != "" || id.Role != "" || id.UserInfo != nil {
		t.Errorf("expected purged identity, got %+v", id)
	}
	navs := rec.Effects().Navigations
	if len(navs) != 1 || navs[0].Route != "/pages/index/index" || navs[0].Method != "redirectTo" {
		t.Errorf("expected one redirect to login, got %+v", navs)
	}
}

func TestDo_TransportErrorKeepsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	state, auth := loggedIn(t)
	rec := host.NewRecorder(nil)
	ctx := host.WithNavigator(context.Background(), rec)

	_, err := New(url, state, auth).Articles(ctx)
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if tok, _ := state.Token(ctx); tok != "tok-123" {
		t.Errorf("transport failure must not touch the session, token=%q", tok)
	}
	if len(rec.Effects().Navigations) != 0 {
		t.Error("transport failure must not navigate")
	}
}

func TestCall_APIErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    any
		wantMsg string
	}{
		{"success false", http.StatusOK, map[string]any{"success": false, "error": "nope"}, "nope"},
		{"error without success", http.StatusBadRequest, map[string]any{"error": "empty keyword"}, "empty keyword"},
		{"message field", http.StatusInternalServerError, map[string]any{"success": false, "message": "boom"}, "boom"},
		{"no text", http.StatusInternalServerError, "oops", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, tt.status, tt.body)
			}))
			defer srv.Close()

			state, auth := session.NewState(session.NewMemoryStore())
			_, err := New(srv.URL, state, auth).SearchArticles(context.Background(), "go")
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if apiErr.Status != tt.status || apiErr.Message != tt.wantMsg {
				t.Errorf("expected %d/%q, got %d/%q", tt.status, tt.wantMsg, apiErr.Status, apiErr.Message)
			}
		})
	}
}

func TestQuestions_QueryAndPagination(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/v1/question-bank/questions", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		if q.Get("category_id") != "4" || q.Get("page") != "2" || q.Get("page_size") != "20" {
			t.Errorf("unexpected query %v", q)
		}
		if q.Get("difficulty") != "3" || q.Get("type") != TypeProgramming {
			t.Errorf("expected filters, got %v", q)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":    true,
			"data":       []map[string]any{{"id": 11, "title": "q"}},
			"pagination": map[string]any{"page": 2, "page_size": 20, "total": 41, "total_pages": 3},
		})
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	state, auth := session.NewState(session.NewMemoryStore())
	page, err := New(srv.URL, state, auth).Questions(context.Background(), QuestionQuery{
		CategoryID: "4", Page: 2, Difficulty: 3, Type: TypeProgramming,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Items) != 1 || page.Pagination.TotalPages != 3 {
		t.Errorf("unexpected page: %+v", page)
	}
}

func TestQuestion_NavigationNulls(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/v1/question-bank/questions/{id}", func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Query().Get("show_answer") != "true" {
			t.Errorf("expected show_answer=true")
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{
			"id": chi.URLParam(req, "id"), "title": "t", "answer": "a",
			"navigation": map[string]any{"prev": nil, "next": 8},
		}})
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	state, auth := session.NewState(session.NewMemoryStore())
	q, err := New(srv.URL, state, auth).Question(context.Background(), "7", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Navigation == nil || q.Navigation.Prev != "" || q.Navigation.Next != "8" {
		t.Errorf("unexpected navigation: %+v", q.Navigation)
	}
	if q.Answer != "a" {
		t.Errorf("expected answer, got %q", q.Answer)
	}
}

func TestLoginAndTopLevelReplies(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/v1/login", func(w http.ResponseWriter, req *http.Request) {
		var body LoginRequest
		json.NewDecoder(req.Body).Decode(&body)
		if body.Code != "c0de" {
			t.Errorf("expected code, got %q", body.Code)
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "token": "t", "userId": 5, "role": "admin"})
	})
	r.Get("/api/v1/admin/users", func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Query().Get("user_type") != "wechat" {
			t.Errorf("expected user_type=wechat")
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "users": []map[string]any{{"id": 1, "nickname": "a", "role": "user"}}})
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	state, auth := session.NewState(session.NewMemoryStore())
	c := New(srv.URL, state, auth)
	res, err := c.Login(context.Background(), LoginRequest{Code: "c0de"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Token != "t" || res.UserID != "5" || res.Role != session.RoleAdmin {
		t.Errorf("unexpected login result: %+v", res)
	}
	users, err := c.Users(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(users) != 1 || users[0].Nickname != "a" {
		t.Errorf("unexpected users: %+v", users)
	}
}

func TestFeedEndpoints(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/rss", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]string{{"name": "hn", "url": "https://example.com/hn"}})
	})
	r.Get("/rss/{name}", func(w http.ResponseWriter, req *http.Request) {
		if chi.URLParam(req, "name") != "hn" {
			http.Error(w, "no data", http.StatusNotFound)
			return
		}
		w.Write([]byte("# Digest\n\n## Item"))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	state, auth := session.NewState(session.NewMemoryStore())
	c := New(srv.URL, state, auth)
	sources, err := c.FeedSources(context.Background())
	if err != nil || len(sources) != 1 || sources[0].Name != "hn" {
		t.Fatalf("unexpected sources %+v (%v)", sources, err)
	}
	md, err := c.FeedMarkdown(context.Background(), "hn")
	if err != nil || md != "# Digest\n\n## Item" {
		t.Errorf("unexpected markdown %q (%v)", md, err)
	}
	if _, err := c.FeedMarkdown(context.Background(), "other"); !IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
	if snap := c.Stats().Snapshot(); snap.Count != 3 {
		t.Errorf("expected 3 recorded calls, got %d", snap.Count)
	}
}
