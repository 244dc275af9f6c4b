package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// FeedSources lists the RSS sources. The reply is a bare JSON array.
func (c *Client) FeedSources(ctx context.Context) ([]FeedSource, error) {
	body, err := c.callRaw(ctx, Request{Method: http.MethodGet, Path: "/rss"})
	if err != nil {
		return nil, fmt.Errorf("feed sources: %w", err)
	}
	var out []FeedSource
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode feed sources: %w", err)
	}
	return out, nil
}

// FeedMarkdown returns the Markdown digest for the named source. A missing
// digest is an *APIError with status 404.
func (c *Client) FeedMarkdown(ctx context.Context, name string) (string, error) {
	body, err := c.callRaw(ctx, Request{Method: http.MethodGet, Path: "/rss/" + url.PathEscape(name)})
	if err != nil {
		return "", fmt.Errorf("feed %s: %w", name, err)
	}
	return string(body), nil
}
