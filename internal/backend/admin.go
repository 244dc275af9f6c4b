package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dgallion1/rssmd/internal/session"
)

const adminPrefix = "/api/v1/admin"

// Users lists accounts of the given type ("wechat" by default).
func (c *Client) Users(ctx context.Context, userType string) ([]User, error) {
	if userType == "" {
		userType = "wechat"
	}
	var out struct {
		Users []User `json:"users"`
	}
	req := Request{Method: http.MethodGet, Path: adminPrefix + "/users", Query: url.Values{"user_type": {userType}}}
	if err := c.callTop(ctx, req, &out); err != nil {
		return nil, fmt.Errorf("users: %w", err)
	}
	return out.Users, nil
}

func (c *Client) SetUserRole(ctx context.Context, userID string, role session.Role) error {
	req := Request{
		Method: http.MethodPut,
		Path:   adminPrefix + "/users/" + url.PathEscape(userID) + "/role",
		Body:   map[string]string{"userId": userID, "role": string(role)},
	}
	if _, err := c.call(ctx, req, nil); err != nil {
		return fmt.Errorf("set role %s: %w", userID, err)
	}
	return nil
}

// Feedbacks lists one page of feedback. An empty status or "all" lists every status.
func (c *Client) Feedbacks(ctx context.Context, page, pageSize int, status string) (*Page[Feedback], error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	params := url.Values{
		"page":      {strconv.Itoa(max(page, 1))},
		"page_size": {strconv.Itoa(pageSize)},
	}
	if status != "" && status != "all" {
		params.Set("status", status)
	}
	var out Page[Feedback]
	pg, err := c.call(ctx, Request{Method: http.MethodGet, Path: adminPrefix + "/feedbacks", Query: params}, &out.Items)
	if err != nil {
		return nil, fmt.Errorf("feedbacks: %w", err)
	}
	if pg != nil {
		out.Pagination = *pg
	}
	return &out, nil
}

func (c *Client) SetFeedbackStatus(ctx context.Context, id, status string) error {
	req := Request{
		Method: http.MethodPut,
		Path:   adminPrefix + "/feedbacks/" + url.PathEscape(id),
		Body:   map[string]string{"status": status},
	}
	if _, err := c.call(ctx, req, nil); err != nil {
		return fmt.Errorf("set feedback %s: %w", id, err)
	}
	return nil
}

// Analytics returns the usage summary for timeRange (week, month or year).
func (c *Client) Analytics(ctx context.Context, timeRange string) (*Analytics, error) {
	var out Analytics
	req := Request{Method: http.MethodGet, Path: "/api/analytics", Query: url.Values{"timeRange": {timeRange}}}
	if err := c.callTop(ctx, req, &out); err != nil {
		return nil, fmt.Errorf("analytics: %w", err)
	}
	return &out, nil
}
