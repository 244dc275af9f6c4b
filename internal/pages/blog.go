package pages

import (
	"context"
	"strings"

	"github.com/dgallion1/rssmd/internal/backend"
	"github.com/dgallion1/rssmd/internal/catalog"
	"github.com/dgallion1/rssmd/internal/host"
	"github.com/dgallion1/rssmd/internal/render"
	"github.com/dgallion1/rssmd/internal/task"
)

type BlogIndexView struct {
	Loading          bool                     `json:"isLoading"`
	Error            string                   `json:"error,omitempty"`
	Categories       []*catalog.Node          `json:"categories"`
	Articles         []backend.ArticleSummary `json:"articles"`
	SelectedCategory string                   `json:"selectedCategory"`
}

// BlogIndex lists categories and articles.
type BlogIndex struct {
	base
	view BlogIndexView
	all  []backend.ArticleSummary
}

func NewBlogIndex(env *Env) *BlogIndex {
	return &BlogIndex{base: newBase(env, "blog")}
}

func (p *BlogIndex) View() BlogIndexView { return p.view }

// Load fetches categories and articles in parallel; either failing fails the load.
func (p *BlogIndex) Load(ctx context.Context, s host.Surface) error {
	p.view.Loading = true
	p.view.Error = ""
	nctx := context.WithoutCancel(host.WithNavigator(ctx, s))

	cats := task.Run(nctx, p.env.API.BlogCategories)
	arts := task.Run(nctx, p.env.API.Articles)
	return run(ctx, &p.base, s,
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, task.All(ctx, cats, arts)
		},
		func(struct{}) {
			p.view.Loading = false
			p.view.Categories = catalog.BuildTree(cats.Result(), catalog.BlogOptions)
			p.all = arts.Result()
			p.view.SelectedCategory = ""
			if len(p.view.Categories) > 0 {
				p.view.SelectedCategory = p.view.Categories[0].Title
			}
			p.filter()
		},
		func(err error) {
			p.view.Loading = false
			if msg, show := noticeText(err, "Failed to load, please retry"); show {
				p.view.Error = msg
			}
		})
}

// SelectCategory shows the articles of one category; empty shows all.
func (p *BlogIndex) SelectCategory(name string) {
	p.view.SelectedCategory = name
	p.filter()
}

func (p *BlogIndex) filter() {
	if p.view.SelectedCategory == "" {
		p.view.Articles = p.all
		return
	}
	out := make([]backend.ArticleSummary, 0, len(p.all))
	for _, a := range p.all {
		if a.Category == p.view.SelectedCategory {
			out = append(out, a)
		}
	}
	p.view.Articles = out
}

// Search opens the search screen; an empty keyword restores the category filter.
func (p *BlogIndex) Search(ctx context.Context, s host.Surface, keyword string) error {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		p.filter()
		return nil
	}
	return s.NavigateTo(ctx, withQuery(RouteBlogSearch, "keyword", keyword))
}

func (p *BlogIndex) OpenArticle(ctx context.Context, s host.Surface, id string) error {
	return s.NavigateTo(ctx, withQuery(RouteBlogArticle, "id", id))
}

type BlogArticleView struct {
	Loading bool             `json:"isLoading"`
	Error   string           `json:"error,omitempty"`
	Article *backend.Article `json:"article"`
	Content *render.Result   `json:"content"`
	OutlineView
}

// BlogArticle shows one article with its outline.
type BlogArticle struct {
	base
	reader
	view BlogArticleView
}

func NewBlogArticle(env *Env) *BlogArticle {
	return &BlogArticle{base: newBase(env, "blog_article")}
}

func (p *BlogArticle) View() BlogArticleView {
	v := p.view
	v.OutlineView = p.outline
	return v
}

func (p *BlogArticle) Load(ctx context.Context, s host.Surface, id string) error {
	if id == "" {
		p.view.Error = "Article id is required"
		return invalid(p.view.Error)
	}
	p.view.Loading = true
	p.view.Error = ""
	return run(ctx, &p.base, s,
		func(ctx context.Context) (*backend.Article, error) {
			return p.env.API.Article(ctx, id)
		},
		func(a *backend.Article) {
			p.view.Loading = false
			p.view.Article = a
			p.view.Content = p.renderArticle(ctx, a)
			p.setHeadings(a.Headings, p.env.threshold())
		},
		func(err error) {
			p.view.Loading = false
			if msg, show := noticeText(err, "Failed to load article"); show {
				p.view.Error = msg
			}
		})
}

// renderArticle prefers the server-rendered HTML and falls back to the
// Markdown source.
func (p *BlogArticle) renderArticle(ctx context.Context, a *backend.Article) *render.Result {
	if a.HTMLContent != "" {
		res := render.HTMLContent(a.HTMLContent)
		if !res.Fallback {
			render.ResolveMermaid(ctx, res.Tree, p.env.API, p.log)
		}
		return &res
	}
	if a.Content == "" {
		return nil
	}
	res := render.MarkdownContent(a.Content, a.Headings)
	if !res.Fallback {
		render.ResolveMermaid(ctx, res.Tree, p.env.API, p.log)
	}
	return &res
}

func (p *BlogArticle) Back(ctx context.Context, s host.Surface) error {
	return s.NavigateBack(ctx)
}

func (p *BlogArticle) OpenQuestion(ctx context.Context, s host.Surface, id string) error {
	return s.NavigateTo(ctx, withQuery(RouteQuestionDetail, "id", id))
}

type BlogSearchView struct {
	Keyword   string                   `json:"searchKeyword"`
	Loading   bool                     `json:"isLoading"`
	Searching bool                     `json:"isSearching"`
	Results   []backend.ArticleSummary `json:"searchResults"`
	History   []string                 `json:"searchHistory"`
}

// BlogSearch searches articles and keeps the keyword history.
type BlogSearch struct {
	base
	view BlogSearchView
}

func NewBlogSearch(env *Env) *BlogSearch {
	return &BlogSearch{base: newBase(env, "blog_search")}
}

func (p *BlogSearch) View() BlogSearchView { return p.view }

// Load shows the history and searches for keyword when one is given.
func (p *BlogSearch) Load(ctx context.Context, s host.Surface, keyword string) error {
	h, err := p.env.State.SearchHistory(ctx)
	if err != nil {
		return err
	}
	p.view.History = h
	if keyword == "" {
		return nil
	}
	p.view.Keyword = keyword
	return p.perform(ctx, s, keyword)
}

func (p *BlogSearch) Search(ctx context.Context, s host.Surface, keyword string) error {
	p.view.Keyword = keyword
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return p.reject(ctx, s, "Please enter a search keyword", host.IconNone)
	}
	return p.perform(ctx, s, keyword)
}

func (p *BlogSearch) SelectHistory(ctx context.Context, s host.Surface, keyword string) error {
	p.view.Keyword = keyword
	return p.perform(ctx, s, keyword)
}

func (p *BlogSearch) Refresh(ctx context.Context, s host.Surface) error {
	if p.view.Keyword == "" {
		return nil
	}
	return p.perform(ctx, s, p.view.Keyword)
}

func (p *BlogSearch) ClearHistory(ctx context.Context) error {
	if err := p.env.State.ClearSearchHistory(ctx); err != nil {
		return err
	}
	p.view.History = nil
	return nil
}

func (p *BlogSearch) OpenArticle(ctx context.Context, s host.Surface, id string) error {
	return s.NavigateTo(ctx, withQuery(RouteBlogArticle, "id", id))
}

func (p *BlogSearch) perform(ctx context.Context, s host.Surface, keyword string) error {
	p.view.Loading = true
	p.view.Searching = true
	p.view.Results = nil

	h, err := p.env.State.SaveSearch(ctx, keyword)
	if err != nil {
		return err
	}
	p.view.History = h

	err = run(ctx, &p.base, s,
		func(ctx context.Context) ([]backend.ArticleSummary, error) {
			return p.env.API.SearchArticles(ctx, keyword)
		},
		func(res []backend.ArticleSummary) {
			p.view.Results = res
		},
		func(err error) {
			p.notify(ctx, s, err, "Search failed")
		})
	if p.Attached() {
		p.view.Loading = false
	}
	return err
}
