package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Login exchanges a host login code for a session credential.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	var out LoginResult
	if err := c.callTop(ctx, Request{Method: http.MethodPost, Path: "/api/v1/login", Body: req}, &out); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if out.Token == "" {
		return nil, fmt.Errorf("login: %w", &APIError{Status: http.StatusOK, Message: "no token in reply"})
	}
	return &out, nil
}

func (c *Client) SubmitFeedback(ctx context.Context, req FeedbackRequest) error {
	if _, err := c.call(ctx, Request{Method: http.MethodPost, Path: "/api/feedback", Body: req}, nil); err != nil {
		return fmt.Errorf("submit feedback: %w", err)
	}
	return nil
}

// History lists the user's conversions, one group per article.
func (c *Client) History(ctx context.Context, userID string) ([]HistoryGroup, error) {
	var out []HistoryGroup
	req := Request{Method: http.MethodPost, Path: "/api/history", Body: map[string]string{"userId": userID}}
	if _, err := c.call(ctx, req, &out); err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	return out, nil
}

func (c *Client) DeleteHistory(ctx context.Context, userID, articleID string) error {
	req := Request{
		Method: http.MethodDelete,
		Path:   "/api/history/" + url.PathEscape(articleID),
		Body:   map[string]string{"userId": userID},
	}
	if _, err := c.call(ctx, req, nil); err != nil {
		return fmt.Errorf("delete history %s: %w", articleID, err)
	}
	return nil
}
