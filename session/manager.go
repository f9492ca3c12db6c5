package session

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront-bff/clients"
	"storefront-bff/fault"
	"storefront-bff/logger"
	"storefront-bff/models"
	"storefront-bff/store"
)

// Manager owns the session lifecycle: restore from the persisted record,
// login, registration, logout, and the cleanup run when the backend rejects
// a token. It is created once at startup and injected into consumers.
type Manager struct {
	kv      store.KV
	gateway *clients.GatewayClient
	codec   *cookieCodec
	ttl     time.Duration
}

func NewManager(kv store.KV, gateway *clients.GatewayClient, secret string, ttl time.Duration) *Manager {
	return &Manager{
		kv:      kv,
		gateway: gateway,
		codec:   &cookieCodec{secret: []byte(secret), ttl: ttl},
		ttl:     ttl,
	}
}

func sessionKey(id string) string { return "session:" + id }

// TTL is the lifetime of the session cookie and its persisted record.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Load restores the session named by the cookie value, or starts a fresh
// anonymous one. The returned cookie value is non-empty when a new cookie
// must be set.
func (m *Manager) Load(ctx context.Context, cookieValue string) (*Session, string) {
	if cookieValue != "" {
		if id, err := m.codec.decode(cookieValue); err == nil {
			sess := &Session{ID: id}
			if data, err := m.kv.Get(ctx, sessionKey(id)); err == nil {
				sess.unmarshal(data)
			}
			return sess, ""
		}
	}

	id := uuid.NewString()
	signed, err := m.codec.encode(id)
	if err != nil {
		// Unsignable cookie leaves the request anonymous for its duration.
		logger.Error(ctx, "Failed to sign session cookie", err)
		return &Session{ID: id}, ""
	}
	return &Session{ID: id}, signed
}

// Save persists the session record.
func (m *Manager) Save(ctx context.Context, sess *Session) error {
	return m.kv.Set(ctx, sessionKey(sess.ID), sess.marshal(), m.ttl)
}

// Login exchanges credentials for a bearer token, then resolves the profile
// behind it. A rejected login propagates the backend's error payload
// untouched. A token that cannot be resolved is treated as invalid: the
// session is cleared and the resolution error returned.
func (m *Manager) Login(ctx context.Context, email, password string) (*models.User, error) {
	sess := FromContext(ctx)
	if sess == nil {
		return nil, fault.New(http.StatusInternalServerError, "No session in request context", nil)
	}

	var auth models.AuthResponse
	body := clients.JSONBody(models.LoginRequest{Email: email, Password: password})
	if err := m.gateway.DoJSON(ctx, http.MethodPost, "/auth/login", nil, body, &auth); err != nil {
		return nil, err
	}

	sess.setToken(auth.AccessToken)
	if err := m.Save(ctx, sess); err != nil {
		logger.Error(ctx, "Failed to persist session token", err)
	}

	user, err := m.Resolve(ctx, sess)
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "Login succeeded", zap.Int64("user_id", user.ID))
	return user, nil
}

// Register creates an account, then immediately logs in with the same
// credentials. The two steps are not transactional: a login failure after a
// successful registration still leaves the account created server-side.
func (m *Manager) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	if err := m.gateway.DoJSON(ctx, http.MethodPost, "/auth/register", nil, clients.JSONBody(req), nil); err != nil {
		return nil, err
	}
	return m.Login(ctx, req.Email, req.Password)
}

// Logout always succeeds locally: token and profile are cleared even when
// the store delete fails.
func (m *Manager) Logout(ctx context.Context, sess *Session) {
	sess.clear(false)
	if err := m.kv.Del(ctx, sessionKey(sess.ID)); err != nil {
		logger.Error(ctx, "Failed to delete session record", err)
	}
}

// Resolve fetches the profile for the session's token. Any failure is
// treated as an invalid token: the session transitions to Anonymous and the
// error is returned for callers that care. Session restore ignores it.
func (m *Manager) Resolve(ctx context.Context, sess *Session) (*models.User, error) {
	var user models.User
	if err := m.gateway.DoJSON(ctx, http.MethodGet, "/auth/me", nil, nil, &user); err != nil {
		sess.clear(false)
		if derr := m.kv.Del(ctx, sessionKey(sess.ID)); derr != nil {
			logger.Error(ctx, "Failed to delete session record", derr)
		}
		return nil, err
	}

	sess.setUser(&user)
	if err := m.Save(ctx, sess); err != nil {
		logger.Error(ctx, "Failed to persist session profile", err)
	}
	return &user, nil
}

// BearerToken is the gateway request hook that attaches the session's token
// as a bearer credential. It mutates nothing else on the request.
func BearerToken() clients.RequestHook {
	return func(ctx context.Context, req *http.Request) {
		if sess := FromContext(ctx); sess != nil {
			if token := sess.Token(); token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}
		}
	}
}

// ExpireHook is the gateway 401 hook: it clears the persisted token and
// cached profile so a dead session cannot be replayed. The failed call still
// reports its error to the caller.
func (m *Manager) ExpireHook() clients.UnauthorizedHook {
	return func(ctx context.Context) {
		sess := FromContext(ctx)
		if sess == nil {
			return
		}
		sess.clear(true)
		if err := m.kv.Del(ctx, sessionKey(sess.ID)); err != nil {
			logger.Error(ctx, "Failed to delete session record", err)
		}
		logger.Info(ctx, "Session expired on 401", zap.String("session_id", sess.ID))
	}
}
