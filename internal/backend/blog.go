package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dgallion1/rssmd/internal/catalog"
)

// BlogCategories returns the raw blog category tree.
func (c *Client) BlogCategories(ctx context.Context) (catalog.Categories, error) {
	var cats catalog.Categories
	if _, err := c.call(ctx, Request{Method: http.MethodGet, Path: "/api/blog/categories"}, &cats); err != nil {
		return nil, fmt.Errorf("blog categories: %w", err)
	}
	return cats, nil
}

// Articles returns the article list.
func (c *Client) Articles(ctx context.Context) ([]ArticleSummary, error) {
	var out []ArticleSummary
	if _, err := c.call(ctx, Request{Method: http.MethodGet, Path: "/api/blog/articles"}, &out); err != nil {
		return nil, fmt.Errorf("articles: %w", err)
	}
	return out, nil
}

func (c *Client) Article(ctx context.Context, id string) (*Article, error) {
	var a Article
	if _, err := c.call(ctx, Request{Method: http.MethodGet, Path: "/api/blog/articles/" + url.PathEscape(id)}, &a); err != nil {
		return nil, fmt.Errorf("article %s: %w", id, err)
	}
	return &a, nil
}

// SearchArticles runs a keyword search over titles and descriptions.
func (c *Client) SearchArticles(ctx context.Context, keyword string) ([]ArticleSummary, error) {
	var out []ArticleSummary
	req := Request{Method: http.MethodPost, Path: "/api/blog/search", Body: map[string]string{"keyword": keyword}}
	if _, err := c.call(ctx, req, &out); err != nil {
		return nil, fmt.Errorf("search articles: %w", err)
	}
	return out, nil
}
