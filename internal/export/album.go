package export

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxImageBytes = 32 << 20

// DiskAlbum writes saved images into a directory.
type DiskAlbum struct {
	dir    string
	client *http.Client
}

func NewDiskAlbum(dir string, client *http.Client) (*DiskAlbum, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create album dir: %w", err)
	}
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &DiskAlbum{dir: dir, client: client}, nil
}

func (a *DiskAlbum) Dir() string { return a.dir }

// Save downloads imageURL, or decodes it when it is a data: URI, and writes
// it under a fresh name.
func (a *DiskAlbum) Save(ctx context.Context, imageURL string) error {
	var (
		data        []byte
		contentType string
		err         error
	)
	if strings.HasPrefix(imageURL, "data:") {
		data, contentType, err = decodeDataURI(imageURL)
	} else {
		data, contentType, err = a.download(ctx, imageURL)
	}
	if err != nil {
		return err
	}
	name := fmt.Sprintf("rssmd-%s-%s%s", time.Now().Format("20060102-150405"), uuid.NewString()[:8], extension(contentType, imageURL))
	if err := os.WriteFile(filepath.Join(a.dir, name), data, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	return nil
}

func (a *DiskAlbum) download(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build image request: %w", err)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download image: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// decodeDataURI handles "data:<type>[;base64],<payload>".
func decodeDataURI(uri string) ([]byte, string, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, "", fmt.Errorf("malformed data uri")
	}
	contentType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		s, err := url.PathUnescape(payload)
		if err != nil {
			return nil, "", fmt.Errorf("decode data uri: %w", err)
		}
		return []byte(s), contentType, nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode data uri: %w", err)
	}
	return data, contentType, nil
}

func extension(contentType, imageURL string) string {
	ct, _, _ := strings.Cut(contentType, ";")
	switch strings.TrimSpace(ct) {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/svg+xml":
		return ".svg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	}
	if u, err := url.Parse(imageURL); err == nil {
		if ext := filepath.Ext(u.Path); ext != "" && len(ext) <= 5 {
			return strings.ToLower(ext)
		}
	}
	return ".png"
}
