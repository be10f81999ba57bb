package session

import (
	"net/http"
	"time"
)

type CookieOptions struct {
	Secure bool
}

// Cookie is a per-request store backed by the access_token cookie of one
// browser. The ?token= query parameter is accepted as a read-only fallback.
type Cookie struct {
	w    http.ResponseWriter
	r    *http.Request
	opts CookieOptions

	written bool
	token   string
}

func NewCookie(w http.ResponseWriter, r *http.Request, opts CookieOptions) *Cookie {
	return &Cookie{w: w, r: r, opts: opts}
}

func (c *Cookie) Token() string {
	if c.written {
		return c.token
	}
	return TokenFromRequest(c.r)
}

func (c *Cookie) SetToken(token string) error {
	http.SetCookie(c.w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   MaxAgeSeconds,
		HttpOnly: true,
		Secure:   c.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	c.written = true
	c.token = token
	return nil
}

func (c *Cookie) Clear() error {
	http.SetCookie(c.w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   c.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	c.written = true
	c.token = ""
	return nil
}

// TokenFromRequest returns the cookie token, or the query token when no cookie is set.
func TokenFromRequest(r *http.Request) string {
	if ck, err := r.Cookie(CookieName); err == nil && ck.Value != "" {
		return ck.Value
	}
	return r.URL.Query().Get(QueryParam)
}
