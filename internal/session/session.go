// Package session holds the authenticated-user context and the small set of
// persisted preferences the client keeps between launches.
//
// State is readable by everyone. Only the holder of the matching Authority
// (the login flow and the backend client's 401 handling) can change the
// identity keys.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"
)

// Persisted storage keys.
const (
	KeyToken         = "token"
	KeyUserID        = "userId"
	KeyRole          = "role"
	KeyUserInfo      = "userInfo"
	KeyTheme         = "theme"
	KeySearchHistory = "searchHistory"
	KeyLogs          = "logs"
)

// MaxSearchHistory caps the saved search keywords.
const MaxSearchHistory = 10

var identityKeys = []string{KeyToken, KeyUserID, KeyUserInfo, KeyRole}

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// UserInfo is the profile the host hands over at login.
type UserInfo struct {
	NickName  string `json:"nickName"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Gender    int    `json:"gender,omitempty"`
	Country   string `json:"country,omitempty"`
	Province  string `json:"province,omitempty"`
	City      string `json:"city,omitempty"`
	Language  string `json:"language,omitempty"`
}

// Identity is the set of keys written and cleared together.
type Identity struct {
	Token    string    `json:"token"`
	UserID   string    `json:"userId"`
	Role     Role      `json:"role"`
	UserInfo *UserInfo `json:"userInfo"`
}

// State is the process-wide session over a Store.
type State struct {
	store Store
	mu    sync.Mutex
}

// Authority is the write capability for the identity keys.
type Authority struct {
	state *State
}

// NewState returns the session and its single write capability.
func NewState(store Store) (*State, *Authority) {
	s := &State{store: store}
	return s, &Authority{state: s}
}

// Identity reads the current identity. An unauthenticated session returns
// the zero Identity and no error.
func (s *State) Identity(ctx context.Context) (Identity, error) {
	var id Identity
	if _, err := s.getJSON(ctx, KeyToken, &id.Token); err != nil {
		return Identity{}, err
	}
	if _, err := s.getJSON(ctx, KeyUserID, &id.UserID); err != nil {
		return Identity{}, err
	}
	if _, err := s.getJSON(ctx, KeyRole, &id.Role); err != nil {
		return Identity{}, err
	}
	var info UserInfo
	ok, err := s.getJSON(ctx, KeyUserInfo, &info)
	if err != nil {
		return Identity{}, err
	}
	if ok {
		id.UserInfo = &info
	}
	return id, nil
}

// Token returns the bearer credential, empty when logged out.
func (s *State) Token(ctx context.Context) (string, error) {
	var tok string
	if _, err := s.getJSON(ctx, KeyToken, &tok); err != nil {
		return "", err
	}
	return tok, nil
}

func (s *State) LoggedIn(ctx context.Context) (bool, error) {
	tok, err := s.Token(ctx)
	return tok != "", err
}

func (s *State) Role(ctx context.Context) (Role, error) {
	var r Role
	_, err := s.getJSON(ctx, KeyRole, &r)
	return r, err
}

// Theme returns the saved theme, light when none is saved.
func (s *State) Theme(ctx context.Context) (Theme, error) {
	t := ThemeLight
	if _, err := s.getJSON(ctx, KeyTheme, &t); err != nil {
		return ThemeLight, err
	}
	if t != ThemeDark {
		t = ThemeLight
	}
	return t, nil
}

func (s *State) SetTheme(ctx context.Context, t Theme) error {
	if t != ThemeLight && t != ThemeDark {
		return fmt.Errorf("unknown theme %q", t)
	}
	return s.putJSON(ctx, map[string]any{KeyTheme: t})
}

func (s *State) SearchHistory(ctx context.Context) ([]string, error) {
	var h []string
	if _, err := s.getJSON(ctx, KeySearchHistory, &h); err != nil {
		return nil, err
	}
	return h, nil
}

// SaveSearch moves keyword to the front of the history, dropping an older
// copy and anything past MaxSearchHistory.
func (s *State) SaveSearch(ctx context.Context, keyword string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.SearchHistory(ctx)
	if err != nil {
		return nil, err
	}
	h = slices.DeleteFunc(h, func(k string) bool { return k == keyword })
	h = append([]string{keyword}, h...)
	if len(h) > MaxSearchHistory {
		h = h[:MaxSearchHistory]
	}
	if err := s.putJSON(ctx, map[string]any{KeySearchHistory: h}); err != nil {
		return nil, err
	}
	return h, nil
}

func (s *State) ClearSearchHistory(ctx context.Context) error {
	return s.store.Delete(ctx, KeySearchHistory)
}

// RecordLaunch prepends the launch time, in Unix milliseconds, to the launch log.
func (s *State) RecordLaunch(ctx context.Context, at time.Time) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var logs []int64
	if _, err := s.getJSON(ctx, KeyLogs, &logs); err != nil {
		return nil, err
	}
	logs = append([]int64{at.UnixMilli()}, logs...)
	if err := s.putJSON(ctx, map[string]any{KeyLogs: logs}); err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *State) getJSON(ctx context.Context, key string, dst any) (bool, error) {
	b, err := s.store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *State) putJSON(ctx context.Context, values map[string]any) error {
	encoded := make(map[string][]byte, len(values))
	for k, v := range values {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", k, err)
		}
		encoded[k] = b
	}
	if err := s.store.Put(ctx, encoded); err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

// Login stores all identity keys in one write.
func (a *Authority) Login(ctx context.Context, id Identity) error {
	if id.Token == "" {
		return errors.New("login: empty token")
	}
	if id.Role == "" {
		id.Role = RoleUser
	}
	values := map[string]any{
		KeyToken:  id.Token,
		KeyUserID: id.UserID,
		KeyRole:   id.Role,
	}
	if id.UserInfo != nil {
		values[KeyUserInfo] = id.UserInfo
	}
	a.state.mu.Lock()
	defer a.state.mu.Unlock()
	if id.UserInfo == nil {
		if err := a.state.store.Delete(ctx, KeyUserInfo); err != nil {
			return fmt.Errorf("login: %w", err)
		}
	}
	return a.state.putJSON(ctx, values)
}

// Logout clears all identity keys in one delete. Theme and search history survive.
func (a *Authority) Logout(ctx context.Context) error {
	a.state.mu.Lock()
	defer a.state.mu.Unlock()
	if err := a.state.store.Delete(ctx, identityKeys...); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Purge is Logout for a rejected credential.
func (a *Authority) Purge(ctx context.Context) error {
	return a.Logout(ctx)
}
