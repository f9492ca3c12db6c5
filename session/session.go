package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"storefront-bff/models"
)

// State is the session lifecycle position.
type State int

const (
	// Anonymous means no token is held.
	Anonymous State = iota
	// Resolving means a token is held but the profile has not been fetched
	// yet. A token without a resolved profile is a transient loading
	// condition, never a valid authenticated state.
	Resolving
	// Authenticated means both token and profile are present.
	Authenticated
)

func (s State) String() string {
	switch s {
	case Resolving:
		return "resolving"
	case Authenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// Session is the per-browser-session state: the bearer token for the shop
// backend and the cached profile resolved from it. It is loaded from the
// store at the start of each request and written back on change.
type Session struct {
	ID string

	mu      sync.Mutex
	token   string
	user    *models.User
	expired bool
}

// record is the persisted form of a session.
type record struct {
	Token     string       `json:"token,omitempty"`
	User      *models.User `json:"user,omitempty"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.token == "":
		return Anonymous
	case s.user == nil:
		return Resolving
	default:
		return Authenticated
	}
}

// IsAuthenticated reports whether both token and profile are present.
func (s *Session) IsAuthenticated() bool {
	return s.State() == Authenticated
}

// IsAdmin reports whether the resolved profile carries the ADMIN role.
func (s *Session) IsAdmin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil && s.user.HasRole("ADMIN")
}

// IsLoading reports whether the session holds an unvalidated token.
func (s *Session) IsLoading() bool {
	return s.State() == Resolving
}

// Expired reports whether the backend rejected this session's token during
// the current request.
func (s *Session) Expired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expired
}

func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *Session) User() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

func (s *Session) setToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	// A new token invalidates any previously cached profile.
	s.user = nil
}

func (s *Session) setUser(u *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		// Never hold a profile without a token.
		return
	}
	s.user = u
}

func (s *Session) clear(expired bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
	s.expired = expired
}

func (s *Session) marshal() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, _ := json.Marshal(record{
		Token:     s.token,
		User:      s.user,
		UpdatedAt: time.Now().UTC(),
	})
	return string(b)
}

func (s *Session) unmarshal(data string) {
	var rec record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = rec.Token
	if s.token != "" {
		s.user = rec.User
	}
}

type ctxKey struct{}

// NewContext returns ctx carrying the session.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session carried by ctx, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}
