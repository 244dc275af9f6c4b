package pages

import (
	"context"

	"github.com/dgallion1/rssmd/internal/backend"
	"github.com/dgallion1/rssmd/internal/host"
	"github.com/dgallion1/rssmd/internal/session"
)

// LaunchView is the state restored at app launch.
type LaunchView struct {
	Launches int               `json:"launches"`
	UserInfo *session.UserInfo `json:"userInfo"`
	Theme    session.Theme     `json:"theme"`
}

// Launch records the launch time and restores the saved profile.
func Launch(ctx context.Context, env *Env) (LaunchView, error) {
	logs, err := env.State.RecordLaunch(ctx, env.now())
	if err != nil {
		return LaunchView{}, err
	}
	id, err := env.State.Identity(ctx)
	if err != nil {
		return LaunchView{}, err
	}
	theme, err := env.State.Theme(ctx)
	if err != nil {
		return LaunchView{}, err
	}
	return LaunchView{Launches: len(logs), UserInfo: id.UserInfo, Theme: theme}, nil
}

type HomeView struct {
	UserInfo       *session.UserInfo `json:"userInfo"`
	ShowLoginModal bool              `json:"showLoginModal"`
}

// Home is the profile tab: login, logout and links to personal screens.
type Home struct {
	base
	view HomeView
}

func NewHome(env *Env) *Home {
	return &Home{base: newBase(env, "home")}
}

func (h *Home) View() HomeView { return h.view }

// Show refreshes the profile. Administrators are sent to the admin screen.
func (h *Home) Show(ctx context.Context, s host.Surface) error {
	id, err := h.env.State.Identity(ctx)
	if err != nil {
		return err
	}
	if id.UserInfo != nil && id.Role == session.RoleAdmin {
		return s.RedirectTo(ctx, RouteAdmin)
	}
	h.view.UserInfo = id.UserInfo
	return nil
}

func (h *Home) OpenLoginModal()  { h.view.ShowLoginModal = true }
func (h *Home) CloseLoginModal() { h.view.ShowLoginModal = false }

// Login exchanges the host login code for a session.
func (h *Home) Login(ctx context.Context, s host.Surface, code string, info *session.UserInfo) error {
	if info == nil {
		return h.reject(ctx, s, "Please authorize login", host.IconNone)
	}
	if code == "" {
		return h.reject(ctx, s, "Failed to get login code", host.IconNone)
	}

	var stored error
	err := load(ctx, &h.base, s, "Login failed",
		func(ctx context.Context) (*backend.LoginResult, error) {
			return h.env.API.Login(ctx, backend.LoginRequest{Code: code, UserInfo: info})
		},
		func(res *backend.LoginResult) {
			stored = h.env.Auth.Login(ctx, session.Identity{
				Token:    res.Token,
				UserID:   res.UserID.String(),
				Role:     res.Role,
				UserInfo: info,
			})
			if stored != nil {
				return
			}
			h.view.UserInfo = info
			h.view.ShowLoginModal = false
			if res.Role == session.RoleAdmin {
				stored = s.RedirectTo(ctx, RouteAdmin)
			}
			host.Toast(ctx, s, "Logged in", host.IconSuccess)
		})
	if err != nil {
		return err
	}
	return stored
}

func (h *Home) Logout(ctx context.Context, s host.Surface) error {
	if err := h.env.Auth.Logout(ctx); err != nil {
		return err
	}
	h.view.UserInfo = nil
	host.Toast(ctx, s, "Logged out", host.IconSuccess)
	return nil
}

// OpenFavorites and OpenFeedback need a profile; without one they open the login modal.
func (h *Home) OpenFavorites(ctx context.Context, s host.Surface) error {
	return h.openPersonal(ctx, s, RouteFavorites)
}

func (h *Home) OpenFeedback(ctx context.Context, s host.Surface) error {
	return h.openPersonal(ctx, s, RouteFeedback)
}

func (h *Home) OpenAbout(ctx context.Context, s host.Surface) error {
	return s.NavigateTo(ctx, RouteAbout)
}

func (h *Home) openPersonal(ctx context.Context, s host.Surface, route string) error {
	if h.view.UserInfo == nil {
		h.view.ShowLoginModal = true
		return nil
	}
	return s.NavigateTo(ctx, route)
}

type ThemeView struct {
	Theme session.Theme `json:"theme"`
}

// ThemePage switches between the light and dark themes.
type ThemePage struct {
	base
	view ThemeView
}

func NewThemePage(env *Env) *ThemePage {
	return &ThemePage{base: newBase(env, "theme")}
}

func (p *ThemePage) View() ThemeView { return p.view }

func (p *ThemePage) Load(ctx context.Context) error {
	t, err := p.env.State.Theme(ctx)
	if err != nil {
		return err
	}
	p.view.Theme = t
	return nil
}

func (p *ThemePage) Toggle(ctx context.Context, s host.Surface) error {
	next := session.ThemeDark
	if p.view.Theme == session.ThemeDark {
		next = session.ThemeLight
	}
	if err := p.env.State.SetTheme(ctx, next); err != nil {
		return err
	}
	p.view.Theme = next
	host.Toast(ctx, s, "Theme switched", host.IconSuccess)
	return nil
}
