package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"promoadmin/internal/session"
)

type ctxKey string

const (
	CtxToken ctxKey = "token"
	CtxActor ctxKey = "actor"
)

// TokenClaims is what the console shows about the current credential. The
// token is issued and verified by the promotion API; here it is only decoded.
type TokenClaims struct {
	Subject   string
	ExpiresAt *time.Time
}

var ErrMalformedToken = errors.New("malformed token")

// ParseTokenClaims decodes sub and exp without verifying the signature.
func ParseTokenClaims(tokenString string) (*TokenClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, ErrMalformedToken
	}

	sub, _ := claims.GetSubject()
	out := &TokenClaims{Subject: sub}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		t := exp.Time
		out.ExpiresAt = &t
	}
	return out, nil
}

// RequireToken guards every route except the exempt prefixes. Browser page
// requests without a credential are redirected to /login; API requests get
// a 401 JSON body pointing there.
func RequireToken(exempt ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isExempt(r.URL.Path, exempt) {
				next.ServeHTTP(w, r)
				return
			}

			token := session.TokenFromRequest(r)
			if token == "" {
				if wantsHTML(r) {
					http.Redirect(w, r, "/login", http.StatusFound)
					return
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","redirect":"/login"}` + "\n"))
				return
			}

			ctx := context.WithValue(r.Context(), CtxToken, token)
			actor := "unknown"
			if claims, err := ParseTokenClaims(token); err == nil && claims.Subject != "" {
				actor = claims.Subject
			}
			ctx = context.WithValue(ctx, CtxActor, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Actor returns the username the request acts as, or "" outside the guard.
func Actor(ctx context.Context) string {
	actor, _ := ctx.Value(CtxActor).(string)
	return actor
}

func isExempt(path string, exempt []string) bool {
	for _, p := range exempt {
		if path == p {
			return true
		}
		// "/" exempts only the root itself.
		if p != "/" && strings.HasPrefix(path, strings.TrimSuffix(p, "/")+"/") {
			return true
		}
	}
	return false
}

func wantsHTML(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return false
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
