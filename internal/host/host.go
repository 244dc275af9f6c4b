// Package host abstracts the UI runtime the page controllers drive:
// navigation, notices, the scroll viewport and the photo album.
package host

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotReachable is returned by a navigation method that cannot reach the route.
var ErrNotReachable = errors.New("route not reachable by this navigation method")

// Navigator moves between screens.
type Navigator interface {
	// SwitchTab opens a tab-bar route.
	SwitchTab(ctx context.Context, route string) error
	// RedirectTo replaces the current screen with a non-tab route.
	RedirectTo(ctx context.Context, route string) error
	// NavigateTo pushes a non-tab route.
	NavigateTo(ctx context.Context, route string) error
	NavigateBack(ctx context.Context) error
	// ReLaunch closes every screen and opens route. It reaches any route.
	ReLaunch(ctx context.Context, route string) error
}

// Icon values used by notices.
const (
	IconNone    = "none"
	IconSuccess = "success"
	IconError   = "error"
)

// Notice is a transient message shown to the user.
type Notice struct {
	Title string `json:"title"`
	Icon  string `json:"icon"`
	// Modal notices need an explicit dismissal.
	Modal bool `json:"modal,omitempty"`
}

type Toaster interface {
	Notify(ctx context.Context, n Notice)
}

// Viewport exposes the measured page layout.
type Viewport interface {
	// ScrollHeight returns the total scrollable height, false when unmeasured.
	ScrollHeight(ctx context.Context) (int, bool)
	PageScrollTo(ctx context.Context, offset int)
}

// Album stores downloaded images for the user.
type Album interface {
	Save(ctx context.Context, imageURL string) error
}

// Surface is everything a page controller needs from the runtime for one event.
type Surface interface {
	Navigator
	Toaster
	Viewport
}

// Toast shows a plain notice.
func Toast(ctx context.Context, t Toaster, title, icon string) {
	t.Notify(ctx, Notice{Title: title, Icon: icon})
}

// ToLogin navigates to the login surface, trying the tab switch first, then a
// redirect, then a relaunch, which cannot fail to reach a route. It returns
// the method that succeeded.
func ToLogin(ctx context.Context, nav Navigator, route string) (string, error) {
	if err := nav.SwitchTab(ctx, route); err == nil {
		return "switchTab", nil
	}
	if err := nav.RedirectTo(ctx, route); err == nil {
		return "redirectTo", nil
	}
	if err := nav.ReLaunch(ctx, route); err != nil {
		return "", fmt.Errorf("relaunch %s: %w", route, err)
	}
	return "reLaunch", nil
}

type contextKey string

const navigatorContextKey contextKey = "host_navigator"

// WithNavigator attaches the navigator of the screen issuing a request.
func WithNavigator(ctx context.Context, nav Navigator) context.Context {
	return context.WithValue(ctx, navigatorContextKey, nav)
}

// NavigatorFromContext returns the navigator attached with WithNavigator.
func NavigatorFromContext(ctx context.Context) (Navigator, bool) {
	nav, ok := ctx.Value(navigatorContextKey).(Navigator)
	return nav, ok
}
