package pages

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/rssmd/internal/host"
	"github.com/dgallion1/rssmd/internal/session"
)

func TestLaunch(t *testing.T) {
	env := newEnv(t, chi.NewRouter())
	env.Now = func() time.Time { return time.UnixMilli(1_700_000_000_000) }
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		v, err := Launch(ctx, env)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v.Launches != i {
			t.Errorf("expected %d launches, got %d", i, v.Launches)
		}
		if v.UserInfo != nil {
			t.Error("expected no profile before login")
		}
	}
	login(t, env, session.RoleUser)
	v, err := Launch(ctx, env)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.UserInfo == nil || v.UserInfo.NickName != "kim" {
		t.Errorf("expected restored profile, got %+v", v.UserInfo)
	}
}

func loginRouter(role string) *chi.Mux {
	r := chi.NewRouter()
	r.Post("/api/v1/login", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Code string `json:"code"`
		}
		json.NewDecoder(req.Body).Decode(&body)
		if body.Code != "c0de" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid code"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "token": "t-9", "userId": 9, "role": role})
	})
	return r
}

func TestHome_Login(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		redirect bool
	}{
		{"user stays", "user", false},
		{"admin redirected", "admin", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newEnv(t, loginRouter(tt.role))
			h := NewHome(env)
			h.OpenLoginModal()
			rec := surface()
			ctx := context.Background()

			if err := h.Login(ctx, rec, "c0de", &session.UserInfo{NickName: "lee"}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			id, _ := env.State.Identity(ctx)
			if id.Token != "t-9" || id.UserID != "9" || string(id.Role) != tt.role {
				t.Errorf("unexpected identity: %+v", id)
			}
			if v := h.View(); v.ShowLoginModal || v.UserInfo == nil {
				t.Errorf("unexpected view: %+v", v)
			}
			navs := rec.Effects().Navigations
			if tt.redirect && (len(navs) != 1 || navs[0].Route != RouteAdmin) {
				t.Errorf("expected redirect to admin, got %+v", navs)
			}
			if !tt.redirect && len(navs) != 0 {
				t.Errorf("expected no navigation, got %+v", navs)
			}
		})
	}
}

func TestHome_LoginFailures(t *testing.T) {
	env := newEnv(t, loginRouter("user"))
	h := NewHome(env)
	ctx := context.Background()

	rec := surface()
	if err := h.Login(ctx, rec, "c0de", nil); err == nil {
		t.Error("expected error without profile")
	}
	if err := h.Login(ctx, rec, "bad", &session.UserInfo{NickName: "lee"}); err == nil {
		t.Error("expected error for rejected code")
	}
	if got := lastNotice(t, rec).Title; got != "invalid code" {
		t.Errorf("expected backend message, got %q", got)
	}
	if ok, _ := env.State.LoggedIn(ctx); ok {
		t.Error("expected no session after failed login")
	}
}

func TestHome_PersonalScreensNeedProfile(t *testing.T) {
	env := newEnv(t, chi.NewRouter())
	h := NewHome(env)
	rec := surface()
	ctx := context.Background()

	if err := h.OpenFavorites(ctx, rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !h.View().ShowLoginModal || len(rec.Effects().Navigations) != 0 {
		t.Error("expected login modal instead of navigation")
	}

	login(t, env, session.RoleUser)
	if err := h.Show(ctx, rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := h.OpenFeedback(ctx, rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	navs := rec.Effects().Navigations
	if len(navs) != 1 || navs[0].Route != RouteFeedback {
		t.Errorf("expected navigation to feedback, got %+v", navs)
	}

	if err := h.Logout(ctx, rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok, _ := env.State.LoggedIn(ctx); ok || h.View().UserInfo != nil {
		t.Error("expected logged out")
	}
}

func TestThemeToggle(t *testing.T) {
	env := newEnv(t, chi.NewRouter())
	p := NewThemePage(env)
	ctx := context.Background()
	if err := p.Load(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	start := p.View().Theme
	if err := p.Toggle(ctx, surface()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.View().Theme == start {
		t.Errorf("expected theme to change from %q", start)
	}
	saved, _ := env.State.Theme(ctx)
	if saved != p.View().Theme {
		t.Errorf("expected persisted %q, got %q", p.View().Theme, saved)
	}
}

type feedbackBackend struct {
	mu       sync.Mutex
	received []map[string]string
	history  []map[string]any
	deleted  []string
}

func (b *feedbackBackend) router() *chi.Mux {
	r := chi.NewRouter()
	r.Post("/api/feedback", func(w http.ResponseWriter, req *http.Request) {
		var body map[string]string
		json.NewDecoder(req.Body).Decode(&body)
		b.mu.Lock()
		b.received = append(b.received, body)
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})
	r.Post("/api/history", func(w http.ResponseWriter, _ *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		writeJSON(w, http.StatusOK, ok(b.history))
	})
	r.Delete("/api/history/{id}", func(w http.ResponseWriter, req *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		id := chi.URLParam(req, "id")
		b.deleted = append(b.deleted, id)
		kept := b.history[:0]
		for _, g := range b.history {
			if g["article_id"] != id {
				kept = append(kept, g)
			}
		}
		b.history = kept
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})
	return r
}

func TestFeedback_Submit(t *testing.T) {
	b := &feedbackBackend{}
	env := newEnv(t, b.router())
	p := NewFeedback(env)
	ctx := context.Background()
	rec := surface()

	if err := p.Submit(ctx, rec); err == nil {
		t.Error("expected validation error for empty content")
	}
	if n := lastNotice(t, rec); n.Icon != host.IconError {
		t.Errorf("expected error icon, got %+v", n)
	}

	p.SetContent("great app")
	p.SetContact("kim@example.com")
	if err := p.Submit(ctx, rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.View().ShowLoginModal || len(b.received) != 0 {
		t.Fatal("expected login modal and no request without a session")
	}

	login(t, env, session.RoleUser)
	p.CloseLoginModal()
	if err := p.Submit(ctx, rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.received) != 1 || b.received[0]["userId"] != "7" || b.received[0]["content"] != "great app" {
		t.Errorf("unexpected request: %+v", b.received)
	}
	if v := p.View(); v.Content != "" || v.Contact != "" {
		t.Errorf("expected inputs cleared, got %+v", v)
	}
}

type fakeAlbum struct {
	mu    sync.Mutex
	saved []string
}

func (a *fakeAlbum) Save(_ context.Context, u string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.saved = append(a.saved, u)
	return nil
}

func TestHistory(t *testing.T) {
	b := &feedbackBackend{history: []map[string]any{
		{"article_id": "100", "style": "carbon", "image_urls": []string{"http://img/1.png"}},
		{"article_id": "200", "style": "notion", "image_urls": []string{"http://img/2.png"}},
	}}
	env := newEnv(t, b.router())
	album := &fakeAlbum{}
	env.Saver = newTestSaver(album)
	ctx := context.Background()
	rec := surface()

	p := NewHistory(env)
	if err := p.Load(ctx, rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.Effects().Navigations) != 1 {
		t.Fatal("expected navigation to login without a session")
	}

	login(t, env, session.RoleUser)
	rec = surface()
	if err := p.Load(ctx, rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(p.View().Groups); got != 2 {
		t.Fatalf("expected 2 groups, got %d", got)
	}
	p.ToggleGroup("100")
	if !p.View().Expanded["100"] {
		t.Error("expected group expanded")
	}

	if err := p.Delete(ctx, rec, "100"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(p.View().Groups); got != 1 {
		t.Errorf("expected reload after delete, got %d groups", got)
	}

	if err := p.Download(ctx, rec, "http://img/2.png"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(album.saved) != 1 || album.saved[0] != "http://img/2.png" {
		t.Errorf("unexpected album: %v", album.saved)
	}
}
