// Package pages holds one controller per screen. A controller owns its view
// state, drives the backend through the session-aware client, and reports
// navigation, notices and scrolling to the host Surface it is handed for each
// event.
//
// Requests started by a controller keep running after the screen is
// unloaded; their results are then dropped without touching the view.
package pages

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/dgallion1/rssmd/internal/backend"
	"github.com/dgallion1/rssmd/internal/export"
	"github.com/dgallion1/rssmd/internal/feeds"
	"github.com/dgallion1/rssmd/internal/host"
	"github.com/dgallion1/rssmd/internal/position"
	"github.com/dgallion1/rssmd/internal/render"
	"github.com/dgallion1/rssmd/internal/session"
	"github.com/dgallion1/rssmd/internal/task"
)

// Screen routes.
const (
	RouteIndex          = "/pages/index/index"
	RouteAbout          = "/pages/about/index"
	RouteAdmin          = "/pages/admin/index"
	RouteAdminUsers     = "/pages/admin/users/index"
	RouteAdminFeedbacks = "/pages/admin/feedbacks/index"
	RouteAdminAnalytics = "/pages/admin/analytics/index"
	RouteBlog           = "/pages/blog/index"
	RouteBlogArticle    = "/pages/blog/article/index"
	RouteBlogSearch     = "/pages/blog/search/index"
	RouteQuestionBank   = "/pages/question-bank/index"
	RouteQuestionList   = "/pages/question-bank/list/index"
	RouteQuestionDetail = "/pages/question-bank/detail/index"
	RouteFavorites      = "/pages/favorites/index"
	RouteFeedback       = "/pages/feedback/index"
	RouteHistory        = "/pages/history/index"
	RouteConvert        = "/pages/convert/index"
	RouteTools          = "/pages/tools/index"
	RouteTheme          = "/pages/theme/index"
)

// TabRoutes are the screens on the tab bar.
var TabRoutes = []string{RouteIndex, RouteBlog, RouteQuestionBank, RouteTools}

// Notice texts shared by several screens.
const (
	MsgNetwork      = "Network error, please retry"
	MsgLoadFailed   = "Failed to load"
	MsgLoginFirst   = "Please log in first"
	MsgNoPermission = "No permission"
)

// Env is what every controller depends on.
type Env struct {
	API   *backend.Client
	State *session.State
	Auth  *session.Authority
	Feeds *feeds.Reader
	Saver *export.Saver
	Log   *slog.Logger

	LoginRoute string
	// PDFTextFallback lets imports fall back to the pdftotext binary.
	PDFTextFallback bool
	// Threshold is the top offset at which a heading becomes current.
	Threshold float64
	// Now defaults to time.Now.
	Now func() time.Time
}

func (e *Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Env) loginRoute() string {
	if e.LoginRoute != "" {
		return e.LoginRoute
	}
	return RouteIndex
}

func (e *Env) threshold() float64 {
	if e.Threshold > 0 {
		return e.Threshold
	}
	return position.DefaultThreshold
}

// ErrValidation marks input rejected before any request was sent.
var ErrValidation = errors.New("validation failed")

// ValidationError carries the text shown to the user.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(msg string) error { return &ValidationError{Msg: msg} }

// noticeText maps an error to the text shown for it. The second result is
// false when nothing should be shown: a rejected session has already sent
// the user to the login screen.
func noticeText(err error, fallback string) (string, bool) {
	var (
		vErr   *ValidationError
		tErr   *backend.TransportError
		apiErr *backend.APIError
	)
	switch {
	case errors.Is(err, backend.ErrUnauthorized):
		return "", false
	case errors.As(err, &vErr):
		return vErr.Msg, true
	case errors.As(err, &tErr):
		return MsgNetwork, true
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return apiErr.Message, true
	default:
		return fallback, true
	}
}

// base is embedded by every controller.
type base struct {
	env   *Env
	owner *task.Owner
	log   *slog.Logger
}

func newBase(env *Env, name string) base {
	log := env.Log
	if log == nil {
		log = slog.Default()
	}
	return base{env: env, owner: task.NewOwner(), log: log.With("page", name)}
}

// Unload detaches the screen. Requests still in flight finish but their
// results are dropped.
func (b *base) Unload() { b.owner.Detach() }

// Attached reports whether the screen is still shown.
func (b *base) Attached() bool { return b.owner.Attached() }

// notify shows the notice for err, if any.
func (b *base) notify(ctx context.Context, s host.Toaster, err error, fallback string) {
	msg, show := noticeText(err, fallback)
	b.log.Debug("request failed", "error", err, "notice", msg)
	if show {
		host.Toast(ctx, s, msg, host.IconNone)
	}
}

// run starts fn and routes its outcome to onOK or onErr while the screen is
// attached. The surface's navigator rides in ctx so a 401 can leave the screen.
// fn never sees ctx's cancellation; ctx only bounds the wait.
func run[T any](ctx context.Context, b *base, s host.Navigator, fn func(context.Context) (T, error), onOK func(T), onErr func(error)) error {
	ctx = host.WithNavigator(ctx, s)
	return task.Await(ctx, task.Run(context.WithoutCancel(ctx), fn), b.owner, onOK, onErr)
}

// load is run with the standard failure notice.
func load[T any](ctx context.Context, b *base, s host.Surface, fallback string, fn func(context.Context) (T, error), onOK func(T)) error {
	return run(ctx, b, s, fn, onOK, func(err error) { b.notify(ctx, s, err, fallback) })
}

// reject shows a validation notice and returns the error.
func (b *base) reject(ctx context.Context, s host.Toaster, msg, icon string) error {
	host.Toast(ctx, s, msg, icon)
	return invalid(msg)
}

// requireAdmin sends non-admin sessions to the login screen. It reports
// whether the caller may continue.
func (b *base) requireAdmin(ctx context.Context, s host.Surface) (bool, error) {
	role, err := b.env.State.Role(ctx)
	if err != nil {
		return false, err
	}
	if role == session.RoleAdmin {
		return true, nil
	}
	host.Toast(ctx, s, MsgNoPermission, host.IconNone)
	if _, err := host.ToLogin(ctx, s, b.env.loginRoute()); err != nil {
		return false, err
	}
	return false, nil
}

// userID returns the logged-in user id, empty when logged out.
func (b *base) userID(ctx context.Context) (string, error) {
	id, err := b.env.State.Identity(ctx)
	return id.UserID, err
}

// renderMarkdown renders src with diagrams resolved; nil for empty input.
func (b *base) renderMarkdown(ctx context.Context, src string) *render.Result {
	if src == "" {
		return nil
	}
	res := render.MarkdownContent(src, nil)
	if !res.Fallback && b.env.API != nil {
		render.ResolveMermaid(ctx, res.Tree, b.env.API, b.log)
	}
	return &res
}

// Pager is the pagination state shared by list screens.
type Pager struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func NewPager(pageSize int) Pager {
	if pageSize <= 0 {
		pageSize = backend.DefaultPageSize
	}
	return Pager{Page: 1, PageSize: pageSize}
}

// HasMore reports whether another page exists after the current one.
func (p Pager) HasMore() bool { return p.Page < p.TotalPages }

// Reset returns to page one and forgets the totals.
func (p *Pager) Reset() {
	p.Page = 1
	p.Total = 0
	p.TotalPages = 0
}

// Apply records the pagination of the page fetched as requested.
func (p *Pager) Apply(pg backend.Pagination, requested int) {
	p.Page = requested
	if pg.Page > 0 {
		p.Page = pg.Page
	}
	if pg.PageSize > 0 {
		p.PageSize = pg.PageSize
	}
	p.Total = pg.Total
	p.TotalPages = pg.TotalPages
}

func withQuery(route string, kv ...string) string {
	q := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		q.Set(kv[i], kv[i+1])
	}
	return route + "?" + q.Encode()
}
