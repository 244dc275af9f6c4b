package pages

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/dgallion1/rssmd/internal/backend"
	"github.com/dgallion1/rssmd/internal/host"
	"github.com/dgallion1/rssmd/internal/session"
)

// AdminHome is the admin landing screen.
type AdminHome struct {
	base
}

func NewAdminHome(env *Env) *AdminHome {
	return &AdminHome{base: newBase(env, "admin")}
}

type AdminHomeView struct {
	Admin bool `json:"isAdmin"`
}

func (p *AdminHome) View(ctx context.Context) AdminHomeView {
	role, _ := p.env.State.Role(ctx)
	return AdminHomeView{Admin: role == session.RoleAdmin}
}

// Show enforces the role guard.
func (p *AdminHome) Show(ctx context.Context, s host.Surface) error {
	_, err := p.requireAdmin(ctx, s)
	return err
}

// Open navigates to one of the admin screens.
func (p *AdminHome) Open(ctx context.Context, s host.Surface, route string) error {
	switch route {
	case RouteAdminUsers, RouteAdminFeedbacks, RouteAdminAnalytics:
		return s.NavigateTo(ctx, route)
	}
	return invalid(fmt.Sprintf("unknown admin screen %q", route))
}

// Roles an administrator may assign.
var Roles = []session.Role{session.RoleUser, session.RoleAdmin}

type AdminUsersView struct {
	Loading bool           `json:"isLoading"`
	Users   []backend.User `json:"users"`
}

// AdminUsers lists accounts and changes their role.
type AdminUsers struct {
	base
	view AdminUsersView
}

func NewAdminUsers(env *Env) *AdminUsers {
	return &AdminUsers{base: newBase(env, "admin_users")}
}

func (p *AdminUsers) View() AdminUsersView { return p.view }

func (p *AdminUsers) Load(ctx context.Context, s host.Surface) error {
	ok, err := p.requireAdmin(ctx, s)
	if !ok {
		return err
	}
	return p.fetch(ctx, s)
}

func (p *AdminUsers) fetch(ctx context.Context, s host.Surface) error {
	p.view.Loading = true
	err := load(ctx, &p.base, s, MsgLoadFailed,
		func(ctx context.Context) ([]backend.User, error) {
			return p.env.API.Users(ctx, "wechat")
		},
		func(users []backend.User) { p.view.Users = users })
	if p.Attached() {
		p.view.Loading = false
	}
	return err
}

// SetRole changes a user's role and reloads the list.
func (p *AdminUsers) SetRole(ctx context.Context, s host.Surface, userID string, role session.Role) error {
	if userID == "" {
		return invalid("User id is required")
	}
	if !slices.Contains(Roles, role) {
		return invalid(fmt.Sprintf("unknown role %q", role))
	}
	changed := false
	err := load(ctx, &p.base, s, "Update failed",
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, p.env.API.SetUserRole(ctx, userID, role)
		},
		func(struct{}) {
			changed = true
			host.Toast(ctx, s, "Role updated", host.IconSuccess)
		})
	if err != nil || !changed {
		return err
	}
	return p.fetch(ctx, s)
}

// Feedback status filters; StatusAll lists every status.
const StatusAll = "all"

var FeedbackStatuses = []string{StatusAll, backend.FeedbackPending, backend.FeedbackProcessed, backend.FeedbackClosed}

// FeedbackRow is a feedback entry with display times.
type FeedbackRow struct {
	backend.Feedback
	CreatedAtText   string `json:"created_at_text"`
	ProcessedAtText string `json:"processed_at_text,omitempty"`
}

type AdminFeedbacksView struct {
	Loading    bool          `json:"isLoading"`
	Feedbacks  []FeedbackRow `json:"feedbacks"`
	Status     string        `json:"currentStatus"`
	Pagination Pager         `json:"pagination"`
	HasMore    bool          `json:"hasMore"`
}

// AdminFeedbacks reviews submitted feedback.
type AdminFeedbacks struct {
	base
	view AdminFeedbacksView
}

func NewAdminFeedbacks(env *Env) *AdminFeedbacks {
	return &AdminFeedbacks{
		base: newBase(env, "admin_feedbacks"),
		view: AdminFeedbacksView{Status: StatusAll, Pagination: NewPager(backend.DefaultPageSize)},
	}
}

func (p *AdminFeedbacks) View() AdminFeedbacksView {
	v := p.view
	v.HasMore = p.view.Pagination.HasMore()
	return v
}

func (p *AdminFeedbacks) Load(ctx context.Context, s host.Surface) error {
	ok, err := p.requireAdmin(ctx, s)
	if !ok {
		return err
	}
	return p.Refresh(ctx, s)
}

// Refresh resets to page one and reloads.
func (p *AdminFeedbacks) Refresh(ctx context.Context, s host.Surface) error {
	p.view.Pagination.Reset()
	p.view.Feedbacks = nil
	return p.fetch(ctx, s, 1, false)
}

func (p *AdminFeedbacks) LoadMore(ctx context.Context, s host.Surface) error {
	if !p.view.Pagination.HasMore() || p.view.Loading {
		return nil
	}
	return p.fetch(ctx, s, p.view.Pagination.Page+1, true)
}

func (p *AdminFeedbacks) SetStatus(ctx context.Context, s host.Surface, status string) error {
	if !slices.Contains(FeedbackStatuses, status) {
		return invalid(fmt.Sprintf("unknown status %q", status))
	}
	p.view.Status = status
	return p.Refresh(ctx, s)
}

func (p *AdminFeedbacks) MarkProcessed(ctx context.Context, s host.Surface, id string) error {
	return p.update(ctx, s, id, backend.FeedbackProcessed)
}

func (p *AdminFeedbacks) MarkClosed(ctx context.Context, s host.Surface, id string) error {
	return p.update(ctx, s, id, backend.FeedbackClosed)
}

func (p *AdminFeedbacks) update(ctx context.Context, s host.Surface, id, status string) error {
	if id == "" {
		return invalid("Feedback id is required")
	}
	changed := false
	err := load(ctx, &p.base, s, "Update failed",
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, p.env.API.SetFeedbackStatus(ctx, id, status)
		},
		func(struct{}) {
			changed = true
			host.Toast(ctx, s, "Status updated", host.IconSuccess)
		})
	if err != nil || !changed {
		return err
	}
	return p.Refresh(ctx, s)
}

func (p *AdminFeedbacks) fetch(ctx context.Context, s host.Surface, page int, appendPage bool) error {
	p.view.Loading = true
	size, status := p.view.Pagination.PageSize, p.view.Status
	err := load(ctx, &p.base, s, MsgLoadFailed,
		func(ctx context.Context) (*backend.Page[backend.Feedback], error) {
			return p.env.API.Feedbacks(ctx, page, size, status)
		},
		func(res *backend.Page[backend.Feedback]) {
			rows := make([]FeedbackRow, 0, len(res.Items))
			for _, f := range res.Items {
				rows = append(rows, FeedbackRow{
					Feedback:        f,
					CreatedAtText:   FormatTime(f.CreatedAt),
					ProcessedAtText: FormatTime(f.ProcessedAt),
				})
			}
			if appendPage {
				p.view.Feedbacks = append(p.view.Feedbacks, rows...)
			} else {
				p.view.Feedbacks = rows
			}
			p.view.Pagination.Apply(res.Pagination, page)
		})
	if p.Attached() {
		p.view.Loading = false
	}
	return err
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC1123,
	time.RFC1123Z,
}

// FormatTime renders a backend timestamp as "2006-01-02 15:04" in local
// time. Unparseable input is returned unchanged.
func FormatTime(s string) string {
	if s == "" {
		return ""
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t.Local().Format("2006-01-02 15:04")
		}
	}
	return s
}

// Time ranges of the analytics screen.
var TimeRanges = []string{"week", "month", "year"}

// Chart geometry of the analytics trend line.
const (
	ChartWidth   = 300
	ChartHeight  = 200
	ChartPadding = 30
)

// Point is a chart vertex in canvas coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ChartPoints scales data into a width x height canvas with the given
// padding, x spread evenly and y proportional to the largest value. A single
// point sits at the left edge; an all-zero series lies on the axis.
func ChartPoints(data []backend.ChartPoint, width, height, padding float64) []Point {
	if len(data) == 0 {
		return nil
	}
	maxValue := data[0].Value
	for _, d := range data[1:] {
		maxValue = max(maxValue, d.Value)
	}
	var xStep, yStep float64
	if len(data) > 1 {
		xStep = (width - 2*padding) / float64(len(data)-1)
	}
	if maxValue > 0 {
		yStep = (height - 2*padding) / maxValue
	}
	out := make([]Point, len(data))
	for i, d := range data {
		out[i] = Point{
			X: padding + float64(i)*xStep,
			Y: height - padding - d.Value*yStep,
		}
	}
	return out
}

type AdminAnalyticsView struct {
	Loading           bool                 `json:"isLoading"`
	TimeRange         string               `json:"timeRange"`
	TotalGenerations  int                  `json:"totalGenerations"`
	TotalImages       int                  `json:"totalImages"`
	ActiveUsers       int                  `json:"activeUsers"`
	AvgGenerationTime string               `json:"avgGenerationTime"`
	GenerationTrend   float64              `json:"generationTrend"`
	ImageTrend        float64              `json:"imageTrend"`
	UserTrend         float64              `json:"userTrend"`
	UsageData         []map[string]any     `json:"usageData"`
	ChartData         []backend.ChartPoint `json:"chartData"`
	Chart             []Point              `json:"chart"`
}

// AdminAnalytics shows usage for a time range.
type AdminAnalytics struct {
	base
	view AdminAnalyticsView
}

func NewAdminAnalytics(env *Env) *AdminAnalytics {
	return &AdminAnalytics{
		base: newBase(env, "admin_analytics"),
		view: AdminAnalyticsView{TimeRange: "week", AvgGenerationTime: "0.0"},
	}
}

func (p *AdminAnalytics) View() AdminAnalyticsView { return p.view }

func (p *AdminAnalytics) Load(ctx context.Context, s host.Surface) error {
	ok, err := p.requireAdmin(ctx, s)
	if !ok {
		return err
	}
	return p.fetch(ctx, s)
}

func (p *AdminAnalytics) SetTimeRange(ctx context.Context, s host.Surface, r string) error {
	if !slices.Contains(TimeRanges, r) {
		return invalid(fmt.Sprintf("unknown time range %q", r))
	}
	p.view.TimeRange = r
	return p.fetch(ctx, s)
}

func (p *AdminAnalytics) fetch(ctx context.Context, s host.Surface) error {
	p.view.Loading = true
	tr := p.view.TimeRange
	err := load(ctx, &p.base, s, MsgLoadFailed,
		func(ctx context.Context) (*backend.Analytics, error) {
			return p.env.API.Analytics(ctx, tr)
		},
		func(a *backend.Analytics) {
			v := &p.view
			v.TotalGenerations = a.TotalGenerations
			v.TotalImages = a.TotalImages
			v.ActiveUsers = a.ActiveUsers
			v.AvgGenerationTime = strconv.FormatFloat(a.AvgGenerationTime, 'f', 1, 64)
			v.GenerationTrend = a.GenerationTrend
			v.ImageTrend = a.ImageTrend
			v.UserTrend = a.UserTrend
			v.UsageData = a.UsageData
			v.ChartData = a.ChartData
			v.Chart = ChartPoints(a.ChartData, ChartWidth, ChartHeight, ChartPadding)
		})
	if p.Attached() {
		p.view.Loading = false
	}
	return err
}
