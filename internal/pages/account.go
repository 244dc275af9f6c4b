package pages

import (
	"context"
	"strings"

	"github.com/dgallion1/rssmd/internal/backend"
	"github.com/dgallion1/rssmd/internal/host"
)

type FeedbackView struct {
	Content        string `json:"content"`
	Contact        string `json:"contact"`
	Submitting     bool   `json:"isSubmitting"`
	ShowLoginModal bool   `json:"showLoginModal"`
}

// Feedback sends free-text feedback with an optional contact.
type Feedback struct {
	base
	view FeedbackView
}

func NewFeedback(env *Env) *Feedback {
	return &Feedback{base: newBase(env, "feedback")}
}

func (p *Feedback) View() FeedbackView { return p.view }

func (p *Feedback) SetContent(s string) { p.view.Content = s }
func (p *Feedback) SetContact(s string) { p.view.Contact = s }
func (p *Feedback) CloseLoginModal()    { p.view.ShowLoginModal = false }

// Submit sends the feedback. Empty content is refused locally and a missing
// session opens the login modal instead of sending.
func (p *Feedback) Submit(ctx context.Context, s host.Surface) error {
	content := strings.TrimSpace(p.view.Content)
	if content == "" {
		return p.reject(ctx, s, "Please enter your feedback", host.IconError)
	}
	id, err := p.env.State.Identity(ctx)
	if err != nil {
		return err
	}
	if id.Token == "" {
		p.view.ShowLoginModal = true
		return nil
	}

	p.view.Submitting = true
	req := backend.FeedbackRequest{
		UserID:  id.UserID,
		Content: content,
		Contact: strings.TrimSpace(p.view.Contact),
	}
	err = load(ctx, &p.base, s, "Submit failed",
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, p.env.API.SubmitFeedback(ctx, req)
		},
		func(struct{}) {
			p.view.Content = ""
			p.view.Contact = ""
			host.Toast(ctx, s, "Thanks for your feedback", host.IconSuccess)
		})
	if p.Attached() {
		p.view.Submitting = false
	}
	return err
}

type HistoryView struct {
	Loading  bool                   `json:"isLoading"`
	Groups   []backend.HistoryGroup `json:"historyList"`
	Expanded map[string]bool        `json:"expanded"`
	Empty    bool                   `json:"isEmpty"`
}

// History lists the user's past conversions.
type History struct {
	base
	view HistoryView
}

func NewHistory(env *Env) *History {
	return &History{
		base: newBase(env, "history"),
		view: HistoryView{Expanded: map[string]bool{}},
	}
}

func (p *History) View() HistoryView { return p.view }

// Load requires a session; without one the user is sent to log in.
func (p *History) Load(ctx context.Context, s host.Surface) error {
	userID, err := p.userID(ctx)
	if err != nil {
		return err
	}
	if userID == "" {
		s.Notify(ctx, host.Notice{Title: MsgLoginFirst, Icon: host.IconNone, Modal: true})
		_, err := host.ToLogin(ctx, s, p.env.loginRoute())
		return err
	}
	p.view.Loading = true
	err = load(ctx, &p.base, s, MsgLoadFailed,
		func(ctx context.Context) ([]backend.HistoryGroup, error) {
			return p.env.API.History(ctx, userID)
		},
		func(groups []backend.HistoryGroup) {
			p.view.Groups = groups
			p.view.Empty = len(groups) == 0
		})
	if p.Attached() {
		p.view.Loading = false
	}
	return err
}

// ToggleGroup expands or collapses the images of one conversion.
func (p *History) ToggleGroup(articleID string) {
	p.view.Expanded[articleID] = !p.view.Expanded[articleID]
}

// Delete removes one conversion and reloads the list.
func (p *History) Delete(ctx context.Context, s host.Surface, articleID string) error {
	if articleID == "" {
		return invalid("Article id is required")
	}
	userID, err := p.userID(ctx)
	if err != nil {
		return err
	}
	deleted := false
	err = load(ctx, &p.base, s, "Delete failed",
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, p.env.API.DeleteHistory(ctx, userID, articleID)
		},
		func(struct{}) {
			deleted = true
			delete(p.view.Expanded, articleID)
			host.Toast(ctx, s, "Deleted", host.IconSuccess)
		})
	if err != nil || !deleted {
		return err
	}
	return p.Load(ctx, s)
}

// Download saves a single image to the album.
func (p *History) Download(ctx context.Context, s host.Surface, imageURL string) error {
	return saveImage(ctx, &p.base, s, imageURL)
}

// saveImage writes one image to the album and reports the outcome.
func saveImage(ctx context.Context, b *base, s host.Surface, imageURL string) error {
	if imageURL == "" {
		return invalid("Image url is required")
	}
	if b.env.Saver == nil {
		return b.reject(ctx, s, "Saving images is not available", host.IconError)
	}
	return load(ctx, b, s, "Save failed",
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, b.env.Saver.Album().Save(ctx, imageURL)
		},
		func(struct{}) {
			host.Toast(ctx, s, "Saved to album", host.IconSuccess)
		})
}
