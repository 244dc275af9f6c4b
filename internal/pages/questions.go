package pages

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dgallion1/rssmd/internal/backend"
	"github.com/dgallion1/rssmd/internal/catalog"
	"github.com/dgallion1/rssmd/internal/host"
	"github.com/dgallion1/rssmd/internal/render"
)

type QuestionBankView struct {
	Loading     bool                    `json:"isLoading"`
	Tree        []*catalog.Node         `json:"treeData"`
	Expanded    map[catalog.ID]bool     `json:"expanded"`
	Query       string                  `json:"searchQuery"`
	Results     *backend.QuestionSearch `json:"searchResults"`
	ShowResults bool                    `json:"showSearchResults"`
}

// QuestionBank browses the category tree and searches questions.
type QuestionBank struct {
	base
	view QuestionBankView
}

func NewQuestionBank(env *Env) *QuestionBank {
	return &QuestionBank{
		base: newBase(env, "question_bank"),
		view: QuestionBankView{Expanded: map[catalog.ID]bool{}},
	}
}

func (p *QuestionBank) View() QuestionBankView { return p.view }

// Load opens the tree, or the results for search when one is given.
func (p *QuestionBank) Load(ctx context.Context, s host.Surface, search string) error {
	if search = strings.TrimSpace(search); search != "" {
		p.view.Query = search
		p.view.ShowResults = true
		return p.search(ctx, s, search)
	}
	return p.loadCategories(ctx, s)
}

func (p *QuestionBank) Refresh(ctx context.Context, s host.Surface) error {
	if p.view.ShowResults {
		return p.search(ctx, s, p.view.Query)
	}
	return p.loadCategories(ctx, s)
}

func (p *QuestionBank) loadCategories(ctx context.Context, s host.Surface) error {
	p.view.Loading = true
	err := load(ctx, &p.base, s, MsgLoadFailed, p.env.API.QuestionCategories,
		func(raw catalog.Categories) {
			p.view.Tree = catalog.BuildTree(raw, catalog.QuestionOptions)
			p.view.ShowResults = false
		})
	if p.Attached() {
		p.view.Loading = false
	}
	return err
}

func (p *QuestionBank) search(ctx context.Context, s host.Surface, q string) error {
	p.view.Loading = true
	err := load(ctx, &p.base, s, "Search failed",
		func(ctx context.Context) (*backend.QuestionSearch, error) {
			return p.env.API.SearchQuestions(ctx, q)
		},
		func(res *backend.QuestionSearch) {
			p.view.Results = res
			p.view.ShowResults = true
		})
	if p.Attached() {
		p.view.Loading = false
	}
	return err
}

// Search runs a search; an empty query goes back to the tree.
func (p *QuestionBank) Search(ctx context.Context, s host.Surface, q string) error {
	p.view.Query = q
	if q = strings.TrimSpace(q); q == "" {
		p.view.ShowResults = false
		return p.loadCategories(ctx, s)
	}
	return p.search(ctx, s, q)
}

func (p *QuestionBank) ClearSearch(ctx context.Context, s host.Surface) error {
	p.view.Query = ""
	p.view.ShowResults = false
	p.view.Results = &backend.QuestionSearch{Questions: []backend.Question{}, Tags: []backend.Tag{}}
	return p.loadCategories(ctx, s)
}

// ClickNode expands or collapses a category with content, and opens the
// question list for a pure leaf.
func (p *QuestionBank) ClickNode(ctx context.Context, s host.Surface, id catalog.ID) error {
	n := catalog.Find(p.view.Tree, id)
	if n == nil {
		return fmt.Errorf("category %s: %w", id, ErrUnknownCategory)
	}
	if catalog.Click(n) == catalog.ActionToggle {
		p.view.Expanded[id] = !p.view.Expanded[id]
		return nil
	}
	if id == "" {
		return nil
	}
	return s.NavigateTo(ctx, withQuery(RouteQuestionList, "categoryId", id.String()))
}

func (p *QuestionBank) ClickItem(ctx context.Context, s host.Surface, id catalog.ID) error {
	if id == "" {
		return nil
	}
	return s.NavigateTo(ctx, withQuery(RouteQuestionDetail, "id", id.String()))
}

// OpenTag searches for questions carrying the tag.
func (p *QuestionBank) OpenTag(ctx context.Context, s host.Surface, name string) error {
	return p.Search(ctx, s, name)
}

// ErrUnknownCategory is returned for a click on a node not in the tree.
var ErrUnknownCategory = errors.New("unknown category")

// Filters accepted by the question list.
var (
	Difficulties  = []int{0, 1, 2, 3, 4, 5}
	QuestionTypes = []string{"", backend.TypeShortAnswer, backend.TypeProgramming}
)

type QuestionListView struct {
	Loading    bool               `json:"isLoading"`
	Category   *catalog.Node      `json:"category"`
	Questions  []backend.Question `json:"questions"`
	Difficulty int                `json:"selectedDifficulty"`
	Type       string             `json:"selectedType"`
	Pagination Pager              `json:"pagination"`
	HasMore    bool               `json:"hasMore"`
}

// QuestionList pages through the questions of one category.
type QuestionList struct {
	base
	view       QuestionListView
	categoryID string
}

func NewQuestionList(env *Env) *QuestionList {
	return &QuestionList{
		base: newBase(env, "question_list"),
		view: QuestionListView{Pagination: NewPager(backend.DefaultPageSize)},
	}
}

func (p *QuestionList) View() QuestionListView {
	v := p.view
	v.HasMore = p.view.Pagination.HasMore()
	return v
}

func (p *QuestionList) Load(ctx context.Context, s host.Surface, categoryID string) error {
	if categoryID == "" {
		return invalid("Category id is required")
	}
	p.categoryID = categoryID

	// The category only names the screen; failing to find it is not shown.
	_ = run(ctx, &p.base, s, p.env.API.QuestionCategories,
		func(raw catalog.Categories) {
			tree := catalog.BuildTree(raw, catalog.QuestionOptions)
			p.view.Category = catalog.Find(tree, catalog.ID(categoryID))
		},
		func(err error) {
			p.log.Debug("category lookup failed", "category_id", categoryID, "error", err)
		})
	if !p.Attached() {
		return nil
	}
	return p.Refresh(ctx, s)
}

// Refresh reloads from page one.
func (p *QuestionList) Refresh(ctx context.Context, s host.Surface) error {
	p.view.Pagination.Reset()
	p.view.Questions = nil
	return p.fetch(ctx, s, 1, false)
}

// LoadMore fetches the next page; without one it does nothing.
func (p *QuestionList) LoadMore(ctx context.Context, s host.Surface) error {
	if !p.view.Pagination.HasMore() || p.view.Loading {
		return nil
	}
	return p.fetch(ctx, s, p.view.Pagination.Page+1, true)
}

func (p *QuestionList) SetDifficulty(ctx context.Context, s host.Surface, d int) error {
	if !slices.Contains(Difficulties, d) {
		return invalid(fmt.Sprintf("unknown difficulty %d", d))
	}
	p.view.Difficulty = d
	return p.Refresh(ctx, s)
}

func (p *QuestionList) SetType(ctx context.Context, s host.Surface, t string) error {
	if !slices.Contains(QuestionTypes, t) {
		return invalid(fmt.Sprintf("unknown question type %q", t))
	}
	p.view.Type = t
	return p.Refresh(ctx, s)
}

func (p *QuestionList) OpenQuestion(ctx context.Context, s host.Surface, id string) error {
	return s.NavigateTo(ctx, withQuery(RouteQuestionDetail, "id", id))
}

func (p *QuestionList) fetch(ctx context.Context, s host.Surface, page int, appendPage bool) error {
	if p.categoryID == "" {
		return nil
	}
	p.view.Loading = true
	q := backend.QuestionQuery{
		CategoryID: p.categoryID,
		Page:       page,
		PageSize:   p.view.Pagination.PageSize,
		Difficulty: p.view.Difficulty,
		Type:       p.view.Type,
	}
	err := load(ctx, &p.base, s, MsgLoadFailed,
		func(ctx context.Context) (*backend.Page[backend.Question], error) {
			return p.env.API.Questions(ctx, q)
		},
		func(res *backend.Page[backend.Question]) {
			if appendPage {
				p.view.Questions = append(p.view.Questions, res.Items...)
			} else {
				p.view.Questions = res.Items
			}
			p.view.Pagination.Apply(res.Pagination, page)
		})
	if p.Attached() {
		p.view.Loading = false
	}
	return err
}

type QuestionDetailView struct {
	Loading     bool              `json:"isLoading"`
	Question    *backend.Question `json:"question"`
	Content     *render.Result    `json:"contentNodes,omitempty"`
	Answer      *render.Result    `json:"answerNodes,omitempty"`
	Explanation *render.Result    `json:"explanationNodes,omitempty"`
	ShowAnswer  bool              `json:"showAnswer"`
	Favorited   bool              `json:"isFavorited"`
	LoggedIn    bool              `json:"isLoggedIn"`
}

// QuestionDetail shows one question, its answer on request, and its favorite state.
type QuestionDetail struct {
	base
	view QuestionDetailView
}

func NewQuestionDetail(env *Env) *QuestionDetail {
	return &QuestionDetail{base: newBase(env, "question_detail")}
}

func (p *QuestionDetail) View() QuestionDetailView { return p.view }

func (p *QuestionDetail) Load(ctx context.Context, s host.Surface, id string) error {
	if id == "" {
		return invalid("Question id is required")
	}
	loggedIn, err := p.env.State.LoggedIn(ctx)
	if err != nil {
		return err
	}
	p.view.LoggedIn = loggedIn
	return p.fetch(ctx, s, id)
}

func (p *QuestionDetail) fetch(ctx context.Context, s host.Surface, id string) error {
	p.view.Loading = true
	showAnswer := p.view.ShowAnswer
	err := load(ctx, &p.base, s, MsgLoadFailed,
		func(ctx context.Context) (*backend.Question, error) {
			return p.env.API.Question(ctx, id, showAnswer)
		},
		func(q *backend.Question) {
			p.view.Loading = false
			p.view.Question = q
			p.view.Content = p.renderMarkdown(ctx, q.Content)
			p.view.Answer = p.renderMarkdown(ctx, q.Answer)
			p.view.Explanation = p.renderMarkdown(ctx, q.Explanation)
		})
	if err != nil || !p.Attached() {
		if p.Attached() {
			p.view.Loading = false
		}
		return err
	}
	if p.view.LoggedIn {
		p.checkFavorite(ctx, s)
	}
	return nil
}

// checkFavorite refreshes the favorite flag; failures leave it unchanged.
func (p *QuestionDetail) checkFavorite(ctx context.Context, s host.Surface) {
	id := p.view.Question.ID.String()
	_ = run(ctx, &p.base, s,
		func(ctx context.Context) (bool, error) {
			return p.env.API.FavoriteStatus(ctx, id)
		},
		func(fav bool) { p.view.Favorited = fav },
		func(err error) { p.log.Debug("favorite status failed", "question_id", id, "error", err) })
}

// ToggleAnswer shows or hides the answer, fetching it when it was not loaded.
func (p *QuestionDetail) ToggleAnswer(ctx context.Context, s host.Surface) error {
	p.view.ShowAnswer = !p.view.ShowAnswer
	if p.view.ShowAnswer && p.view.Question != nil && p.view.Question.Answer == "" {
		return p.fetch(ctx, s, p.view.Question.ID.String())
	}
	return nil
}

func (p *QuestionDetail) ToggleFavorite(ctx context.Context, s host.Surface) error {
	if !p.view.LoggedIn {
		s.Notify(ctx, host.Notice{Title: MsgLoginFirst, Icon: host.IconNone, Modal: true})
		return nil
	}
	if p.view.Question == nil {
		return nil
	}
	id := p.view.Question.ID.String()
	return load(ctx, &p.base, s, "Operation failed",
		func(ctx context.Context) (bool, error) {
			return p.env.API.ToggleFavorite(ctx, id)
		},
		func(fav bool) {
			p.view.Favorited = fav
			msg := "Removed from favorites"
			if fav {
				msg = "Added to favorites"
			}
			host.Toast(ctx, s, msg, host.IconSuccess)
		})
}

func (p *QuestionDetail) Prev(ctx context.Context, s host.Surface) error {
	if p.view.Question == nil || p.view.Question.Navigation == nil {
		return nil
	}
	return p.jump(ctx, s, p.view.Question.Navigation.Prev)
}

func (p *QuestionDetail) Next(ctx context.Context, s host.Surface) error {
	if p.view.Question == nil || p.view.Question.Navigation == nil {
		return nil
	}
	return p.jump(ctx, s, p.view.Question.Navigation.Next)
}

func (p *QuestionDetail) jump(ctx context.Context, s host.Surface, id catalog.ID) error {
	if id == "" {
		return nil
	}
	p.view.ShowAnswer = false
	if err := p.fetch(ctx, s, id.String()); err != nil {
		return err
	}
	s.PageScrollTo(ctx, 0)
	return nil
}

func (p *QuestionDetail) OpenArticle(ctx context.Context, s host.Surface, id string) error {
	return s.NavigateTo(ctx, withQuery(RouteBlogArticle, "id", id))
}

type FavoritesView struct {
	Loading    bool               `json:"isLoading"`
	Favorites  []backend.Question `json:"favorites"`
	Pagination Pager              `json:"pagination"`
	HasMore    bool               `json:"hasMore"`
	Empty      bool               `json:"isEmpty"`
}

// Favorites pages through the user's favorite questions.
type Favorites struct {
	base
	view FavoritesView
}

func NewFavorites(env *Env) *Favorites {
	return &Favorites{
		base: newBase(env, "favorites"),
		view: FavoritesView{Pagination: NewPager(backend.DefaultPageSize)},
	}
}

func (p *Favorites) View() FavoritesView {
	v := p.view
	v.HasMore = p.view.Pagination.HasMore()
	return v
}

// Load requires a session; without one the user is told and sent to log in.
func (p *Favorites) Load(ctx context.Context, s host.Surface) error {
	loggedIn, err := p.env.State.LoggedIn(ctx)
	if err != nil {
		return err
	}
	if !loggedIn {
		s.Notify(ctx, host.Notice{Title: MsgLoginFirst, Icon: host.IconNone, Modal: true})
		_, err := host.ToLogin(ctx, s, p.env.loginRoute())
		return err
	}
	return p.Refresh(ctx, s)
}

// Show reloads a list that was already shown.
func (p *Favorites) Show(ctx context.Context, s host.Surface) error {
	if len(p.view.Favorites) == 0 {
		return nil
	}
	return p.Refresh(ctx, s)
}

func (p *Favorites) Refresh(ctx context.Context, s host.Surface) error {
	p.view.Pagination.Reset()
	p.view.Favorites = nil
	return p.fetch(ctx, s, 1, false)
}

func (p *Favorites) LoadMore(ctx context.Context, s host.Surface) error {
	if !p.view.Pagination.HasMore() || p.view.Loading {
		return nil
	}
	return p.fetch(ctx, s, p.view.Pagination.Page+1, true)
}

func (p *Favorites) OpenQuestion(ctx context.Context, s host.Surface, id string) error {
	return s.NavigateTo(ctx, withQuery(RouteQuestionDetail, "id", id))
}

func (p *Favorites) fetch(ctx context.Context, s host.Surface, page int, appendPage bool) error {
	p.view.Loading = true
	size := p.view.Pagination.PageSize
	err := load(ctx, &p.base, s, MsgLoadFailed,
		func(ctx context.Context) (*backend.Page[backend.Question], error) {
			return p.env.API.Favorites(ctx, page, size)
		},
		func(res *backend.Page[backend.Question]) {
			if appendPage {
				p.view.Favorites = append(p.view.Favorites, res.Items...)
			} else {
				p.view.Favorites = res.Items
			}
			p.view.Empty = !appendPage && len(res.Items) == 0
			p.view.Pagination.Apply(res.Pagination, page)
		})
	if p.Attached() {
		p.view.Loading = false
	}
	return err
}
