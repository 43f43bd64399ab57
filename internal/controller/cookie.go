package controller

import (
	"net/http"
	"time"
)

const (
	SessionCookieName = "session_id"

	// SessionExpiration is the sliding lifetime of a session row and its cookie.
	SessionExpiration = 30 * 24 * time.Hour

	// SessionMaxAge is SessionExpiration in seconds.
	SessionMaxAge = int(SessionExpiration / time.Second)
)

// SessionToken returns the session_id cookie value or "".
func SessionToken(r *http.Request) string {
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// SetSessionCookie issues the session cookie, replacing any Set-Cookie already written.
func (c *Controller) SetSessionCookie(w http.ResponseWriter, token string) {
	cookie := &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   SessionMaxAge,
		HttpOnly: true,
		Secure:   c.secureCookies,
	}
	w.Header().Set("Set-Cookie", cookie.String())
}

// ClearSessionCookie overwrites the session cookie with an expired one.
// The header is built by hand because net/http renders negative MaxAge as Max-Age=0.
func (c *Controller) ClearSessionCookie(w http.ResponseWriter) {
	v := SessionCookieName + "=invalid; Path=/; Max-Age=-1; HttpOnly"
	if c.secureCookies {
		v += "; Secure"
	}
	w.Header().Set("Set-Cookie", v)
}
