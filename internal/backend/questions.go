package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dgallion1/rssmd/internal/catalog"
)

const questionBank = "/api/v1/question-bank"

// DefaultPageSize is the page size used by every paginated list.
const DefaultPageSize = 20

func (c *Client) QuestionCategories(ctx context.Context) (catalog.Categories, error) {
	var cats catalog.Categories
	if _, err := c.call(ctx, Request{Method: http.MethodGet, Path: questionBank + "/categories"}, &cats); err != nil {
		return nil, fmt.Errorf("question categories: %w", err)
	}
	return cats, nil
}

// Questions lists one page of a category.
func (c *Client) Questions(ctx context.Context, q QuestionQuery) (*Page[Question], error) {
	params := url.Values{}
	params.Set("category_id", q.CategoryID)
	params.Set("page", strconv.Itoa(max(q.Page, 1)))
	size := q.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	params.Set("page_size", strconv.Itoa(size))
	if q.Difficulty > 0 {
		params.Set("difficulty", strconv.Itoa(q.Difficulty))
	}
	if q.Type != "" {
		params.Set("type", q.Type)
	}

	var page Page[Question]
	pg, err := c.call(ctx, Request{Method: http.MethodGet, Path: questionBank + "/questions", Query: params}, &page.Items)
	if err != nil {
		return nil, fmt.Errorf("questions: %w", err)
	}
	if pg != nil {
		page.Pagination = *pg
	}
	return &page, nil
}

// Question fetches one question, with answer and explanation when showAnswer is set.
func (c *Client) Question(ctx context.Context, id string, showAnswer bool) (*Question, error) {
	params := url.Values{"show_answer": {strconv.FormatBool(showAnswer)}}
	var q Question
	req := Request{Method: http.MethodGet, Path: questionBank + "/questions/" + url.PathEscape(id), Query: params}
	if _, err := c.call(ctx, req, &q); err != nil {
		return nil, fmt.Errorf("question %s: %w", id, err)
	}
	return &q, nil
}

type favoriteState struct {
	Favorited bool `json:"favorited"`
}

// FavoriteStatus reports whether the current user has favorited the question.
func (c *Client) FavoriteStatus(ctx context.Context, id string) (bool, error) {
	var st favoriteState
	if _, err := c.call(ctx, Request{Method: http.MethodGet, Path: favoritePath(id)}, &st); err != nil {
		return false, fmt.Errorf("favorite status %s: %w", id, err)
	}
	return st.Favorited, nil
}

// ToggleFavorite flips the favorite flag and returns the new value.
func (c *Client) ToggleFavorite(ctx context.Context, id string) (bool, error) {
	var st favoriteState
	if _, err := c.call(ctx, Request{Method: http.MethodPost, Path: favoritePath(id)}, &st); err != nil {
		return false, fmt.Errorf("toggle favorite %s: %w", id, err)
	}
	return st.Favorited, nil
}

func favoritePath(id string) string {
	return questionBank + "/questions/" + url.PathEscape(id) + "/favorite"
}

func (c *Client) SearchQuestions(ctx context.Context, q string) (*QuestionSearch, error) {
	var out QuestionSearch
	req := Request{Method: http.MethodGet, Path: questionBank + "/search", Query: url.Values{"q": {q}}}
	if _, err := c.call(ctx, req, &out); err != nil {
		return nil, fmt.Errorf("search questions: %w", err)
	}
	return &out, nil
}

// Favorites lists the current user's favorited questions.
func (c *Client) Favorites(ctx context.Context, page, pageSize int) (*Page[Question], error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	params := url.Values{
		"page":      {strconv.Itoa(max(page, 1))},
		"page_size": {strconv.Itoa(pageSize)},
	}
	var out Page[Question]
	pg, err := c.call(ctx, Request{Method: http.MethodGet, Path: questionBank + "/favorites", Query: params}, &out.Items)
	if err != nil {
		return nil, fmt.Errorf("favorites: %w", err)
	}
	if pg != nil {
		out.Pagination = *pg
	}
	return &out, nil
}
