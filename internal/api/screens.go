package api

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/dgallion1/rssmd/internal/catalog"
	"github.com/dgallion1/rssmd/internal/host"
	"github.com/dgallion1/rssmd/internal/pages"
	"github.com/dgallion1/rssmd/internal/session"
)

// screen is what every page controller implements.
type screen interface {
	Unload()
}

// eventArgs is the body of an event request. Each event reads the fields it needs.
type eventArgs struct {
	ID       catalog.ID         `json:"id"`
	Value    string             `json:"value"`
	Index    int                `json:"index"`
	Anchor   string             `json:"anchor"`
	Tops     map[string]float64 `json:"tops"`
	URL      string             `json:"url"`
	Code     string             `json:"code"`
	UserInfo *session.UserInfo  `json:"userInfo"`
	Role     session.Role       `json:"role"`
}

type (
	openFunc  func(ctx context.Context, sc screen, s host.Surface, q url.Values) error
	viewFunc  func(ctx context.Context, sc screen) any
	eventFunc func(ctx context.Context, sc screen, s host.Surface, a eventArgs) error
)

type screenDef struct {
	new    func(env *pages.Env) screen
	open   openFunc
	view   viewFunc
	events map[string]eventFunc
}

// ErrUnknownEvent is returned for an event the screen does not handle.
var ErrUnknownEvent = errors.New("unknown event")

func (d *screenDef) dispatch(ctx context.Context, sc screen, s host.Surface, name string, a eventArgs) error {
	fn, ok := d.events[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEvent, name)
	}
	return fn(ctx, sc, s, a)
}

type event[P screen] func(ctx context.Context, p P, s host.Surface, a eventArgs) error

// define builds a screenDef from controller-typed callbacks.
func define[P screen](
	newFn func(*pages.Env) P,
	open func(ctx context.Context, p P, s host.Surface, q url.Values) error,
	view func(ctx context.Context, p P) any,
	events map[string]event[P],
) *screenDef {
	d := &screenDef{
		new:    func(env *pages.Env) screen { return newFn(env) },
		view:   func(ctx context.Context, sc screen) any { return view(ctx, sc.(P)) },
		events: make(map[string]eventFunc, len(events)),
	}
	if open != nil {
		d.open = func(ctx context.Context, sc screen, s host.Surface, q url.Values) error {
			return open(ctx, sc.(P), s, q)
		}
	}
	for name, fn := range events {
		d.events[name] = func(ctx context.Context, sc screen, s host.Surface, a eventArgs) error {
			return fn(ctx, sc.(P), s, a)
		}
	}
	return d
}

// outlined is implemented by the screens with a heading outline.
type outlined interface {
	screen
	ToggleOutline()
	CloseOutline()
	ScrollToHeading(ctx context.Context, s host.Surface, anchor string)
	OnScroll(tops map[string]float64) bool
}

func withOutline[P outlined](events map[string]event[P]) map[string]event[P] {
	events["toggle_outline"] = func(_ context.Context, p P, _ host.Surface, _ eventArgs) error {
		p.ToggleOutline()
		return nil
	}
	events["close_outline"] = func(_ context.Context, p P, _ host.Surface, _ eventArgs) error {
		p.CloseOutline()
		return nil
	}
	events["scroll_to_heading"] = func(ctx context.Context, p P, s host.Surface, a eventArgs) error {
		p.ScrollToHeading(ctx, s, a.Anchor)
		return nil
	}
	events["scroll"] = func(_ context.Context, p P, _ host.Surface, a eventArgs) error {
		p.OnScroll(a.Tops)
		return nil
	}
	return events
}

// screens maps each route to its controller.
var screens = map[string]*screenDef{
	pages.RouteIndex: define(pages.NewHome,
		func(ctx context.Context, p *pages.Home, s host.Surface, _ url.Values) error { return p.Show(ctx, s) },
		func(_ context.Context, p *pages.Home) any { return p.View() },
		map[string]event[*pages.Home]{
			"show": func(ctx context.Context, p *pages.Home, s host.Surface, _ eventArgs) error { return p.Show(ctx, s) },
			"login": func(ctx context.Context, p *pages.Home, s host.Surface, a eventArgs) error {
				return p.Login(ctx, s, a.Code, a.UserInfo)
			},
			"logout": func(ctx context.Context, p *pages.Home, s host.Surface, _ eventArgs) error { return p.Logout(ctx, s) },
			"open_login_modal": func(_ context.Context, p *pages.Home, _ host.Surface, _ eventArgs) error {
				p.OpenLoginModal()
				return nil
			},
			"close_login_modal": func(_ context.Context, p *pages.Home, _ host.Surface, _ eventArgs) error {
				p.CloseLoginModal()
				return nil
			},
			"open_favorites": func(ctx context.Context, p *pages.Home, s host.Surface, _ eventArgs) error {
				return p.OpenFavorites(ctx, s)
			},
			"open_feedback": func(ctx context.Context, p *pages.Home, s host.Surface, _ eventArgs) error {
				return p.OpenFeedback(ctx, s)
			},
			"open_about": func(ctx context.Context, p *pages.Home, s host.Surface, _ eventArgs) error { return p.OpenAbout(ctx, s) },
		}),

	pages.RouteTheme: define(pages.NewThemePage,
		func(ctx context.Context, p *pages.ThemePage, _ host.Surface, _ url.Values) error { return p.Load(ctx) },
		func(_ context.Context, p *pages.ThemePage) any { return p.View() },
		map[string]event[*pages.ThemePage]{
			"toggle": func(ctx context.Context, p *pages.ThemePage, s host.Surface, _ eventArgs) error { return p.Toggle(ctx, s) },
		}),

	pages.RouteBlog: define(pages.NewBlogIndex,
		func(ctx context.Context, p *pages.BlogIndex, s host.Surface, _ url.Values) error { return p.Load(ctx, s) },
		func(_ context.Context, p *pages.BlogIndex) any { return p.View() },
		map[string]event[*pages.BlogIndex]{
			"refresh": func(ctx context.Context, p *pages.BlogIndex, s host.Surface, _ eventArgs) error { return p.Load(ctx, s) },
			"select_category": func(_ context.Context, p *pages.BlogIndex, _ host.Surface, a eventArgs) error {
				p.SelectCategory(a.Value)
				return nil
			},
			"search": func(ctx context.Context, p *pages.BlogIndex, s host.Surface, a eventArgs) error {
				return p.Search(ctx, s, a.Value)
			},
			"open_article": func(ctx context.Context, p *pages.BlogIndex, s host.Surface, a eventArgs) error {
				return p.OpenArticle(ctx, s, a.ID.String())
			},
		}),

	pages.RouteBlogArticle: define(pages.NewBlogArticle,
		func(ctx context.Context, p *pages.BlogArticle, s host.Surface, q url.Values) error {
			return p.Load(ctx, s, q.Get("id"))
		},
		func(_ context.Context, p *pages.BlogArticle) any { return p.View() },
		withOutline(map[string]event[*pages.BlogArticle]{
			"back": func(ctx context.Context, p *pages.BlogArticle, s host.Surface, _ eventArgs) error { return p.Back(ctx, s) },
			"open_question": func(ctx context.Context, p *pages.BlogArticle, s host.Surface, a eventArgs) error {
				return p.OpenQuestion(ctx, s, a.ID.String())
			},
		})),

	pages.RouteBlogSearch: define(pages.NewBlogSearch,
		func(ctx context.Context, p *pages.BlogSearch, s host.Surface, q url.Values) error {
			return p.Load(ctx, s, q.Get("keyword"))
		},
		func(_ context.Context, p *pages.BlogSearch) any { return p.View() },
		map[string]event[*pages.BlogSearch]{
			"search": func(ctx context.Context, p *pages.BlogSearch, s host.Surface, a eventArgs) error {
				return p.Search(ctx, s, a.Value)
			},
			"select_history": func(ctx context.Context, p *pages.BlogSearch, s host.Surface, a eventArgs) error {
				return p.SelectHistory(ctx, s, a.Value)
			},
			"refresh":       func(ctx context.Context, p *pages.BlogSearch, s host.Surface, _ eventArgs) error { return p.Refresh(ctx, s) },
			"clear_history": func(ctx context.Context, p *pages.BlogSearch, _ host.Surface, _ eventArgs) error { return p.ClearHistory(ctx) },
			"open_article": func(ctx context.Context, p *pages.BlogSearch, s host.Surface, a eventArgs) error {
				return p.OpenArticle(ctx, s, a.ID.String())
			},
		}),

	pages.RouteQuestionBank: define(pages.NewQuestionBank,
		func(ctx context.Context, p *pages.QuestionBank, s host.Surface, q url.Values) error {
			return p.Load(ctx, s, q.Get("search"))
		},
		func(_ context.Context, p *pages.QuestionBank) any { return p.View() },
		map[string]event[*pages.QuestionBank]{
			"refresh": func(ctx context.Context, p *pages.QuestionBank, s host.Surface, _ eventArgs) error { return p.Refresh(ctx, s) },
			"search": func(ctx context.Context, p *pages.QuestionBank, s host.Surface, a eventArgs) error {
				return p.Search(ctx, s, a.Value)
			},
			"clear_search": func(ctx context.Context, p *pages.QuestionBank, s host.Surface, _ eventArgs) error {
				return p.ClearSearch(ctx, s)
			},
			"click_node": func(ctx context.Context, p *pages.QuestionBank, s host.Surface, a eventArgs) error {
				return p.ClickNode(ctx, s, a.ID)
			},
			"click_item": func(ctx context.Context, p *pages.QuestionBank, s host.Surface, a eventArgs) error {
				return p.ClickItem(ctx, s, a.ID)
			},
			"open_tag": func(ctx context.Context, p *pages.QuestionBank, s host.Surface, a eventArgs) error {
				return p.OpenTag(ctx, s, a.Value)
			},
		}),

	pages.RouteQuestionList: define(pages.NewQuestionList,
		func(ctx context.Context, p *pages.QuestionList, s host.Surface, q url.Values) error {
			return p.Load(ctx, s, q.Get("categoryId"))
		},
		func(_ context.Context, p *pages.QuestionList) any { return p.View() },
		map[string]event[*pages.QuestionList]{
			"refresh":   func(ctx context.Context, p *pages.QuestionList, s host.Surface, _ eventArgs) error { return p.Refresh(ctx, s) },
			"load_more": func(ctx context.Context, p *pages.QuestionList, s host.Surface, _ eventArgs) error { return p.LoadMore(ctx, s) },
			"set_difficulty": func(ctx context.Context, p *pages.QuestionList, s host.Surface, a eventArgs) error {
				return p.SetDifficulty(ctx, s, a.Index)
			},
			"set_type": func(ctx context.Context, p *pages.QuestionList, s host.Surface, a eventArgs) error {
				return p.SetType(ctx, s, a.Value)
			},
			"open_question": func(ctx context.Context, p *pages.QuestionList, s host.Surface, a eventArgs) error {
				return p.OpenQuestion(ctx, s, a.ID.String())
			},
		}),

	pages.RouteQuestionDetail: define(pages.NewQuestionDetail,
		func(ctx context.Context, p *pages.QuestionDetail, s host.Surface, q url.Values) error {
			return p.Load(ctx, s, q.Get("id"))
		},
		func(_ context.Context, p *pages.QuestionDetail) any { return p.View() },
		map[string]event[*pages.QuestionDetail]{
			"toggle_answer":   func(ctx context.Context, p *pages.QuestionDetail, s host.Surface, _ eventArgs) error { return p.ToggleAnswer(ctx, s) },
			"toggle_favorite": func(ctx context.Context, p *pages.QuestionDetail, s host.Surface, _ eventArgs) error { return p.ToggleFavorite(ctx, s) },
			"prev":            func(ctx context.Context, p *pages.QuestionDetail, s host.Surface, _ eventArgs) error { return p.Prev(ctx, s) },
			"next":            func(ctx context.Context, p *pages.QuestionDetail, s host.Surface, _ eventArgs) error { return p.Next(ctx, s) },
			"open_article": func(ctx context.Context, p *pages.QuestionDetail, s host.Surface, a eventArgs) error {
				return p.OpenArticle(ctx, s, a.ID.String())
			},
		}),

	pages.RouteFavorites: define(pages.NewFavorites,
		func(ctx context.Context, p *pages.Favorites, s host.Surface, _ url.Values) error { return p.Load(ctx, s) },
		func(_ context.Context, p *pages.Favorites) any { return p.View() },
		map[string]event[*pages.Favorites]{
			"show":      func(ctx context.Context, p *pages.Favorites, s host.Surface, _ eventArgs) error { return p.Show(ctx, s) },
			"refresh":   func(ctx context.Context, p *pages.Favorites, s host.Surface, _ eventArgs) error { return p.Refresh(ctx, s) },
			"load_more": func(ctx context.Context, p *pages.Favorites, s host.Surface, _ eventArgs) error { return p.LoadMore(ctx, s) },
			"open_question": func(ctx context.Context, p *pages.Favorites, s host.Surface, a eventArgs) error {
				return p.OpenQuestion(ctx, s, a.ID.String())
			},
		}),

	pages.RouteFeedback: define(pages.NewFeedback,
		nil,
		func(_ context.Context, p *pages.Feedback) any { return p.View() },
		map[string]event[*pages.Feedback]{
			"set_content": func(_ context.Context, p *pages.Feedback, _ host.Surface, a eventArgs) error {
				p.SetContent(a.Value)
				return nil
			},
			"set_contact": func(_ context.Context, p *pages.Feedback, _ host.Surface, a eventArgs) error {
				p.SetContact(a.Value)
				return nil
			},
			"close_login_modal": func(_ context.Context, p *pages.Feedback, _ host.Surface, _ eventArgs) error {
				p.CloseLoginModal()
				return nil
			},
			"submit": func(ctx context.Context, p *pages.Feedback, s host.Surface, _ eventArgs) error { return p.Submit(ctx, s) },
		}),

	pages.RouteHistory: define(pages.NewHistory,
		func(ctx context.Context, p *pages.History, s host.Surface, _ url.Values) error { return p.Load(ctx, s) },
		func(_ context.Context, p *pages.History) any { return p.View() },
		map[string]event[*pages.History]{
			"refresh": func(ctx context.Context, p *pages.History, s host.Surface, _ eventArgs) error { return p.Load(ctx, s) },
			"toggle_group": func(_ context.Context, p *pages.History, _ host.Surface, a eventArgs) error {
				p.ToggleGroup(a.ID.String())
				return nil
			},
			"delete":   func(ctx context.Context, p *pages.History, s host.Surface, a eventArgs) error { return p.Delete(ctx, s, a.ID.String()) },
			"download": func(ctx context.Context, p *pages.History, s host.Surface, a eventArgs) error { return p.Download(ctx, s, a.URL) },
		}),

	pages.RouteConvert: define(pages.NewConvert,
		func(_ context.Context, p *pages.Convert, _ host.Surface, q url.Values) error {
			p.Load(q.Get("markdown"))
			return nil
		},
		func(_ context.Context, p *pages.Convert) any { return p.View() },
		map[string]event[*pages.Convert]{
			"set_markdown": func(_ context.Context, p *pages.Convert, _ host.Surface, a eventArgs) error {
				p.SetMarkdown(a.Value)
				return nil
			},
			"set_style": func(_ context.Context, p *pages.Convert, _ host.Surface, a eventArgs) error { return p.SetStyle(a.Value) },
			"set_watermark": func(_ context.Context, p *pages.Convert, _ host.Surface, a eventArgs) error {
				p.SetWatermark(a.Value)
				return nil
			},
			"toggle_watermark": func(_ context.Context, p *pages.Convert, _ host.Surface, _ eventArgs) error {
				p.ToggleWatermark()
				return nil
			},
			"preview":      func(ctx context.Context, p *pages.Convert, s host.Surface, _ eventArgs) error { return p.Preview(ctx, s) },
			"convert":      func(ctx context.Context, p *pages.Convert, s host.Surface, _ eventArgs) error { return p.Convert(ctx, s) },
			"save_image":   func(ctx context.Context, p *pages.Convert, s host.Surface, a eventArgs) error { return p.SaveImage(ctx, s, a.URL) },
			"save_all":     func(ctx context.Context, p *pages.Convert, s host.Surface, _ eventArgs) error { return p.SaveAll(ctx, s) },
			"batch_status": func(ctx context.Context, p *pages.Convert, s host.Surface, _ eventArgs) error { return p.BatchStatus(ctx, s) },
		}),

	pages.RouteTools: define(pages.NewTools,
		func(ctx context.Context, p *pages.Tools, s host.Surface, _ url.Values) error { return p.Load(ctx, s) },
		func(_ context.Context, p *pages.Tools) any { return p.View() },
		withOutline(map[string]event[*pages.Tools]{
			"refresh": func(ctx context.Context, p *pages.Tools, s host.Surface, _ eventArgs) error { return p.Refresh(ctx, s) },
			"select":  func(ctx context.Context, p *pages.Tools, s host.Surface, a eventArgs) error { return p.Select(ctx, s, a.Index) },
			"share":   func(ctx context.Context, p *pages.Tools, s host.Surface, _ eventArgs) error { return p.Share(ctx, s) },
		})),

	pages.RouteAdmin: define(pages.NewAdminHome,
		func(ctx context.Context, p *pages.AdminHome, s host.Surface, _ url.Values) error { return p.Show(ctx, s) },
		func(ctx context.Context, p *pages.AdminHome) any { return p.View(ctx) },
		map[string]event[*pages.AdminHome]{
			"show": func(ctx context.Context, p *pages.AdminHome, s host.Surface, _ eventArgs) error { return p.Show(ctx, s) },
			"open": func(ctx context.Context, p *pages.AdminHome, s host.Surface, a eventArgs) error {
				return p.Open(ctx, s, a.Value)
			},
		}),

	pages.RouteAdminUsers: define(pages.NewAdminUsers,
		func(ctx context.Context, p *pages.AdminUsers, s host.Surface, _ url.Values) error { return p.Load(ctx, s) },
		func(_ context.Context, p *pages.AdminUsers) any { return p.View() },
		map[string]event[*pages.AdminUsers]{
			"refresh": func(ctx context.Context, p *pages.AdminUsers, s host.Surface, _ eventArgs) error { return p.Load(ctx, s) },
			"set_role": func(ctx context.Context, p *pages.AdminUsers, s host.Surface, a eventArgs) error {
				return p.SetRole(ctx, s, a.ID.String(), a.Role)
			},
		}),

	pages.RouteAdminFeedbacks: define(pages.NewAdminFeedbacks,
		func(ctx context.Context, p *pages.AdminFeedbacks, s host.Surface, _ url.Values) error { return p.Load(ctx, s) },
		func(_ context.Context, p *pages.AdminFeedbacks) any { return p.View() },
		map[string]event[*pages.AdminFeedbacks]{
			"refresh":   func(ctx context.Context, p *pages.AdminFeedbacks, s host.Surface, _ eventArgs) error { return p.Refresh(ctx, s) },
			"load_more": func(ctx context.Context, p *pages.AdminFeedbacks, s host.Surface, _ eventArgs) error { return p.LoadMore(ctx, s) },
			"set_status": func(ctx context.Context, p *pages.AdminFeedbacks, s host.Surface, a eventArgs) error {
				return p.SetStatus(ctx, s, a.Value)
			},
			"mark_processed": func(ctx context.Context, p *pages.AdminFeedbacks, s host.Surface, a eventArgs) error {
				return p.MarkProcessed(ctx, s, a.ID.String())
			},
			"mark_closed": func(ctx context.Context, p *pages.AdminFeedbacks, s host.Surface, a eventArgs) error {
				return p.MarkClosed(ctx, s, a.ID.String())
			},
		}),

	pages.RouteAdminAnalytics: define(pages.NewAdminAnalytics,
		func(ctx context.Context, p *pages.AdminAnalytics, s host.Surface, _ url.Values) error { return p.Load(ctx, s) },
		func(_ context.Context, p *pages.AdminAnalytics) any { return p.View() },
		map[string]event[*pages.AdminAnalytics]{
			"set_time_range": func(ctx context.Context, p *pages.AdminAnalytics, s host.Surface, a eventArgs) error {
				return p.SetTimeRange(ctx, s, a.Value)
			},
		}),
}
