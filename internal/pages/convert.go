package pages

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/dgallion1/rssmd/internal/backend"
	"github.com/dgallion1/rssmd/internal/export"
	"github.com/dgallion1/rssmd/internal/host"
	"github.com/dgallion1/rssmd/internal/importer"
)

// SampleMarkdown is previewed when the editor is empty.
const SampleMarkdown = "# Preview sample\nThis sample text previews the selected style."

const anonymousUser = "anonymous"

// StylePreset is a selectable image style.
type StylePreset struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

var StylePresets = []StylePreset{
	{ID: backend.StyleCarbon, Name: "Carbon"},
	{ID: backend.StyleXiaohongshu, Name: "Xiaohongshu"},
	{ID: backend.StyleNotion, Name: "Notion"},
}

type ConvertView struct {
	Markdown        string                `json:"markdownContent"`
	Style           string                `json:"selectedStyle"`
	Presets         []StylePreset         `json:"stylePresets"`
	EnableWatermark bool                  `json:"enableWatermark"`
	Watermark       string                `json:"watermarkText"`
	Previewing      bool                  `json:"isPreviewing"`
	Converting      bool                  `json:"isConverting"`
	PreviewImage    string                `json:"previewImage"`
	Images          []string              `json:"previewImages"`
	ArticleID       string                `json:"articleId"`
	SavingAll       bool                  `json:"isSavingAll"`
	Batch           *export.BatchSnapshot `json:"batch,omitempty"`
	ImportedTitle   string                `json:"importedTitle,omitempty"`
	ImportedFormat  string                `json:"importedFormat,omitempty"`
}

// Convert turns Markdown into styled images and saves them.
type Convert struct {
	base
	view    ConvertView
	batchID string
}

func NewConvert(env *Env) *Convert {
	return &Convert{
		base: newBase(env, "convert"),
		view: ConvertView{Style: backend.StyleCarbon, Presets: StylePresets},
	}
}

func (p *Convert) View() ConvertView { return p.view }

// Load prefills the editor, for example with Markdown shared from the reader.
func (p *Convert) Load(markdown string) {
	if markdown != "" {
		p.view.Markdown = markdown
	}
}

func (p *Convert) SetMarkdown(s string)  { p.view.Markdown = s }
func (p *Convert) SetWatermark(s string) { p.view.Watermark = s }
func (p *Convert) ToggleWatermark()      { p.view.EnableWatermark = !p.view.EnableWatermark }

func (p *Convert) SetStyle(style string) error {
	if !slices.Contains(backend.Styles, style) {
		return invalid(fmt.Sprintf("unknown style %q", style))
	}
	p.view.Style = style
	return nil
}

// request builds the render body. The watermark is sent only when enabled.
func (p *Convert) request(ctx context.Context, content string) (backend.RenderRequest, error) {
	userID, err := p.userID(ctx)
	if err != nil {
		return backend.RenderRequest{}, err
	}
	if userID == "" {
		userID = anonymousUser
	}
	req := backend.RenderRequest{
		Content:   content,
		Style:     p.view.Style,
		UserID:    userID,
		ArticleID: strconv.FormatInt(p.env.now().UnixMilli(), 10),
	}
	if p.view.EnableWatermark {
		req.Watermark = p.view.Watermark
	}
	return req, nil
}

// Preview renders the current style, using sample text when the editor is
// empty, and shows the first image with a cache-busting timestamp.
func (p *Convert) Preview(ctx context.Context, s host.Surface) error {
	content := p.view.Markdown
	if strings.TrimSpace(content) == "" {
		content = SampleMarkdown
	}
	req, err := p.request(ctx, content)
	if err != nil {
		return err
	}
	p.view.Previewing = true
	err = load(ctx, &p.base, s, MsgNetwork,
		func(ctx context.Context) (*backend.RenderResult, error) {
			return p.env.API.Preview(ctx, req)
		},
		func(res *backend.RenderResult) {
			if len(res.Images) == 0 {
				host.Toast(ctx, s, MsgNetwork, host.IconNone)
				return
			}
			ts := strconv.FormatInt(p.env.now().UnixMilli(), 10)
			p.view.PreviewImage = cacheBust(res.Images[0], ts)
			p.view.Images = nil
		})
	if p.Attached() {
		p.view.Previewing = false
	}
	return err
}

func cacheBust(u, ts string) string {
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + "t=" + ts
}

// Convert renders the editor content to images. It needs a session and
// non-empty content.
func (p *Convert) Convert(ctx context.Context, s host.Surface) error {
	loggedIn, err := p.env.State.LoggedIn(ctx)
	if err != nil {
		return err
	}
	if !loggedIn {
		_, err := host.ToLogin(ctx, s, p.env.loginRoute())
		return err
	}
	content := strings.TrimSpace(p.view.Markdown)
	if content == "" {
		return p.reject(ctx, s, "Please enter Markdown content", host.IconNone)
	}
	req, err := p.request(ctx, p.view.Markdown)
	if err != nil {
		return err
	}
	p.view.Converting = true
	err = load(ctx, &p.base, s, MsgNetwork,
		func(ctx context.Context) (*backend.RenderResult, error) {
			return p.env.API.Convert(ctx, req)
		},
		func(res *backend.RenderResult) {
			p.view.Images = res.Images
			p.view.ArticleID = res.ArticleID.String()
			if p.view.ArticleID == "" {
				p.view.ArticleID = req.ArticleID
			}
		})
	if p.Attached() {
		p.view.Converting = false
	}
	return err
}

// SaveImage saves one converted image.
func (p *Convert) SaveImage(ctx context.Context, s host.Surface, imageURL string) error {
	return saveImage(ctx, &p.base, s, imageURL)
}

// SaveAll starts saving every converted image in the background. Progress
// is read back with BatchStatus.
func (p *Convert) SaveAll(ctx context.Context, s host.Surface) error {
	if p.view.SavingAll || len(p.view.Images) == 0 {
		return nil
	}
	if p.env.Saver == nil {
		return p.reject(ctx, s, "Saving images is not available", host.IconError)
	}
	b := p.env.Saver.Start(ctx, p.view.ArticleID, p.view.Images)
	p.batchID = b.ID
	snap := b.Snapshot()
	p.view.Batch = &snap
	p.view.SavingAll = true
	return nil
}

// BatchStatus refreshes the running batch and reports its outcome once.
func (p *Convert) BatchStatus(ctx context.Context, s host.Surface) error {
	if p.batchID == "" || p.env.Saver == nil {
		return nil
	}
	b := p.env.Saver.Batches().Get(p.batchID)
	if b == nil {
		p.batchID = ""
		p.view.SavingAll = false
		return nil
	}
	snap := b.Snapshot()
	p.view.Batch = &snap
	switch snap.Status {
	case export.StatusCompleted:
		host.Toast(ctx, s, fmt.Sprintf("Saved %d images", snap.Saved), host.IconSuccess)
	case export.StatusFailed:
		host.Toast(ctx, s, fmt.Sprintf("Saved %d of %d images", snap.Saved, snap.Total), host.IconNone)
	default:
		return nil
	}
	p.batchID = ""
	p.view.SavingAll = false
	return nil
}

// Import replaces the editor content with a converted local document.
func (p *Convert) Import(ctx context.Context, s host.Surface, r io.Reader, filename string) error {
	if !importer.Supported(filename) {
		return p.reject(ctx, s, "Unsupported file type", host.IconError)
	}
	doc, err := importer.Import(r, filename, importer.WithPdftotext(p.env.PDFTextFallback))
	if err != nil {
		p.log.Warn("import failed", "file", filename, "error", err)
		return p.reject(ctx, s, "Import failed", host.IconError)
	}
	p.view.Markdown = doc.Markdown
	p.view.ImportedTitle = doc.Title
	p.view.ImportedFormat = doc.Format
	host.Toast(ctx, s, "Imported", host.IconSuccess)
	return nil
}
