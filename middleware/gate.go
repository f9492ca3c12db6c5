package middleware

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"storefront-bff/session"
)

// Requirement describes what a route demands of the session.
type Requirement struct {
	Auth  bool
	Admin bool
	// ReturnTo records the attempted destination on the login redirect so
	// the view can come back after authenticating. Routes that do not opt
	// in discard the destination.
	ReturnTo bool
}

var (
	RequireAuth  = Requirement{Auth: true}
	RequireAdmin = Requirement{Auth: true, Admin: true}
)

// Decision is the gate's verdict for a navigation.
type Decision int

const (
	Allow Decision = iota
	// Loading means session resolution is still in progress: render a
	// neutral indicator, never a redirect.
	Loading
	RedirectLogin
	// RedirectHome is the silent downgrade for authenticated non-admins on
	// admin routes. Never an error page, never the login view.
	RedirectHome
)

// Decide is the pure authorization decision over session state, evaluated
// per navigation.
func Decide(state session.State, isAdmin bool, req Requirement) Decision {
	if !req.Auth && !req.Admin {
		return Allow
	}
	switch state {
	case session.Resolving:
		return Loading
	case session.Anonymous:
		return RedirectLogin
	}
	if req.Admin && !isAdmin {
		return RedirectHome
	}
	return Allow
}

// Gate enforces a Requirement on a route group.
func Gate(req Requirement) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := CurrentSession(c)
		if sess == nil {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		switch Decide(sess.State(), sess.IsAdmin(), req) {
		case Loading:
			c.AbortWithStatusJSON(http.StatusAccepted, gin.H{"status": "resolving"})
		case RedirectLogin:
			target := "/login"
			if req.ReturnTo {
				target += "?from=" + url.QueryEscape(c.Request.URL.RequestURI())
			}
			c.Redirect(http.StatusFound, target)
			c.Abort()
		case RedirectHome:
			c.Redirect(http.StatusFound, "/")
			c.Abort()
		default:
			c.Next()
		}
	}
}
