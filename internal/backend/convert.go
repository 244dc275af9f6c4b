package backend

import (
	"context"
	"fmt"
	"net/http"
)

// Style presets understood by the image renderer.
const (
	StyleCarbon      = "carbon"
	StyleXiaohongshu = "xiaohongshu"
	StyleNotion      = "notion"
)

// Styles lists the presets in display order.
var Styles = []string{StyleCarbon, StyleXiaohongshu, StyleNotion}

// Preview renders Markdown to preview images without recording history.
func (c *Client) Preview(ctx context.Context, req RenderRequest) (*RenderResult, error) {
	return c.render(ctx, "/preview", req)
}

// Convert renders Markdown to images and records the conversion.
func (c *Client) Convert(ctx context.Context, req RenderRequest) (*RenderResult, error) {
	return c.render(ctx, "/convert", req)
}

func (c *Client) render(ctx context.Context, path string, req RenderRequest) (*RenderResult, error) {
	var out RenderResult
	if err := c.callTop(ctx, Request{Method: http.MethodPost, Path: path, Body: req}, &out); err != nil {
		return nil, fmt.Errorf("render %s: %w", path, err)
	}
	return &out, nil
}

type mermaidImage struct {
	ImageURL string `json:"imageUrl"`
}

// RenderMermaid turns diagram source into an image URL, often a data: URI.
func (c *Client) RenderMermaid(ctx context.Context, code string) (string, error) {
	var out mermaidImage
	req := Request{Method: http.MethodPost, Path: "/api/v1/mermaid/render", Body: map[string]string{"code": code}}
	if _, err := c.call(ctx, req, &out); err != nil {
		return "", fmt.Errorf("render mermaid: %w", err)
	}
	if out.ImageURL == "" {
		return "", fmt.Errorf("render mermaid: %w", &APIError{Status: http.StatusOK, Message: "empty image url"})
	}
	return out.ImageURL, nil
}
