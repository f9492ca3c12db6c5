package middleware

import (
	"github.com/gin-gonic/gin"

	"storefront-bff/session"
)

// SessionKey is the gin context key holding the restored session.
const SessionKey = "session"

// Sessions restores the caller's session from the signed cookie before any
// handler runs. A persisted token whose profile has not been cached yet is
// re-validated against the backend here, so gate decisions downstream only
// ever see a settled session; an invalid or expired token silently leaves
// the session anonymous.
func Sessions(mgr *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookieValue, _ := c.Cookie(session.CookieName)
		sess, newCookie := mgr.Load(c.Request.Context(), cookieValue)
		if newCookie != "" {
			c.SetCookie(session.CookieName, newCookie, int(mgr.TTL().Seconds()), "/", "", false, true)
		}

		ctx := session.NewContext(c.Request.Context(), sess)
		c.Request = c.Request.WithContext(ctx)
		c.Set(SessionKey, sess)

		if sess.State() == session.Resolving {
			_, _ = mgr.Resolve(ctx, sess)
		}

		c.Next()
	}
}

// CurrentSession returns the session restored for this request.
func CurrentSession(c *gin.Context) *session.Session {
	if v, ok := c.Get(SessionKey); ok {
		if sess, ok := v.(*session.Session); ok {
			return sess
		}
	}
	return session.FromContext(c.Request.Context())
}
