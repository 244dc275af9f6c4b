package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/rssmd/internal/host"
	"github.com/dgallion1/rssmd/internal/pages"
)

type pageResponse struct {
	PageID  string       `json:"page_id"`
	Route   string       `json:"route"`
	View    any          `json:"view"`
	Effects host.Effects `json:"effects"`
	Error   string       `json:"error,omitempty"`
	Closed  bool         `json:"closed,omitempty"`
}

func (s *Server) handleLaunch(w http.ResponseWriter, r *http.Request) {
	v, err := pages.Launch(r.Context(), s.env)
	if err != nil {
		s.log.Error("launch failed", "error", err)
		jsonError(w, "launch failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// splitRoute separates "/pages/x/index?id=3" into its path and query.
func splitRoute(route string) (string, url.Values, error) {
	path, raw, _ := strings.Cut(route, "?")
	q, err := url.ParseQuery(raw)
	if err != nil {
		return "", nil, err
	}
	return path, q, nil
}

func (s *Server) handleOpenPage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Route string `json:"route"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	route, q, err := splitRoute(req.Route)
	if err != nil {
		jsonError(w, "invalid route query: "+err.Error(), http.StatusBadRequest)
		return
	}
	def, ok := screens[route]
	if !ok {
		jsonError(w, "unknown route: "+route, http.StatusNotFound)
		return
	}

	in := s.registry.open(route, def, def.new(s.env))
	s.log.Debug("page opened", "page_id", in.id, "route", route)

	s.serve(w, r, in, func(ctx context.Context, rec *host.Recorder) error {
		if def.open == nil {
			return nil
		}
		return def.open(ctx, in.screen, rec, q)
	})
}

func (s *Server) handleGetPage(w http.ResponseWriter, r *http.Request) {
	in := s.registry.get(chi.URLParam(r, "pageID"))
	if in == nil {
		jsonError(w, "page not found", http.StatusNotFound)
		return
	}
	s.serve(w, r, in, nil)
}

func (s *Server) handleClosePage(w http.ResponseWriter, r *http.Request) {
	if !s.registry.Close(chi.URLParam(r, "pageID")) {
		jsonError(w, "page not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	in := s.registry.get(chi.URLParam(r, "pageID"))
	if in == nil {
		jsonError(w, "page not found", http.StatusNotFound)
		return
	}
	name := chi.URLParam(r, "event")
	if _, ok := in.def.events[name]; !ok {
		jsonError(w, "unknown event: "+name, http.StatusNotFound)
		return
	}

	var args eventArgs
	if err := json.NewDecoder(r.Body).Decode(&args); err != nil && !errors.Is(err, io.EOF) {
		jsonError(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	s.serve(w, r, in, func(ctx context.Context, rec *host.Recorder) error {
		return in.def.dispatch(ctx, in.screen, rec, name, args)
	})
}

// serve runs fn against the page with a fresh Recorder and writes the
// resulting view and effects. A nil fn only reads the view.
func (s *Server) serve(w http.ResponseWriter, r *http.Request, in *instance, fn func(context.Context, *host.Recorder) error) {
	ctx := r.Context()
	rec := s.recorder(r)

	in.mu.Lock()
	in.touch()
	var runErr error
	if fn != nil {
		runErr = fn(host.WithNavigator(ctx, rec), rec)
	}
	resp := pageResponse{
		PageID:  in.id,
		Route:   in.route,
		View:    in.def.view(ctx, in.screen),
		Effects: rec.Effects(),
	}
	in.mu.Unlock()

	if runErr != nil {
		resp.Error = runErr.Error()
		s.log.Debug("page event failed", "page_id", in.id, "route", in.route, "error", runErr)
	}
	resp.Closed = s.applyNavigations(in, resp.Effects.Navigations)
	writeJSON(w, http.StatusOK, resp)
}

// applyNavigations mirrors the host page stack: redirectTo replaces the
// current page and reLaunch clears every page. It reports whether in was
// closed.
func (s *Server) applyNavigations(in *instance, navs []host.Navigation) bool {
	closed := false
	for _, n := range navs {
		switch n.Method {
		case "reLaunch":
			s.registry.CloseAll()
			return true
		case "redirectTo":
			if !closed {
				s.registry.Close(in.id)
				closed = true
			}
		}
	}
	return closed
}

func (s *Server) recorder(r *http.Request) *host.Recorder {
	rec := host.NewRecorder(s.cfg.TabRoutes)
	if v := r.URL.Query().Get("scroll_height"); v != "" {
		if h, err := strconv.Atoi(v); err == nil {
			rec.SetScrollHeight(h)
		}
	}
	return rec
}
