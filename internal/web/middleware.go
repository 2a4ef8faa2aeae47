package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/doacoes/internal/auth"
)

type webContextKey string

const (
	webClaimsKey    webContextKey = "webclaims"
	webSessionKey   webContextKey = "websession"
	webRequestIDKey webContextKey = "webrequestid"
)

const (
	tokenCookie     = "token"
	requestIDHeader = "X-Request-Id"
)

// cookieStore keeps the sealed API token in the browser. It implements
// auth.Store for the lifetime of one request.
type cookieStore struct {
	w      http.ResponseWriter
	r      *http.Request
	sealer *auth.Sealer
	secure bool
}

// Load implements auth.Store. A cookie that does not open under the current
// key counts as logged out.
func (c *cookieStore) Load() (string, error) {
	cookie, err := c.r.Cookie(tokenCookie)
	if err != nil || cookie.Value == "" {
		return "", nil
	}
	token, err := c.sealer.Open(cookie.Value)
	if err != nil {
		slog.Debug("discarding unreadable session cookie", "error", err)
		return "", nil
	}
	return token, nil
}

// Save implements auth.Store.
func (c *cookieStore) Save(token string) error {
	sealed, err := c.sealer.Seal(token)
	if err != nil {
		return err
	}
	maxAge := int(auth.TokenExpiry.Seconds())
	if claims, err := auth.Inspect(token); err == nil && claims.ExpiresAt != nil {
		if left := time.Until(claims.ExpiresAt.Time); left > 0 {
			maxAge = int(left.Seconds())
		}
	}
	http.SetCookie(c.w, &http.Cookie{
		Name:     tokenCookie,
		Value:    sealed,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   maxAge,
	})
	return nil
}

// Clear implements auth.Store.
func (c *cookieStore) Clear() error {
	clearAuthCookie(c.w, c.secure)
	return nil
}

// session builds the per-request credential from the cookie.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *auth.Session {
	sess, err := auth.NewSession(&cookieStore{w: w, r: r, sealer: s.Sealer, secure: s.CookieSecure})
	if err != nil {
		// cookieStore.Load never fails.
		slog.Error("failed to load session", "error", err)
		sess, _ = auth.NewSession(nil)
	}
	return sess
}

// CookieAuthMiddleware requires a stored API token, rejects tokens whose
// expiry has passed and adds the session and claims to the context. The
// token's signature is checked by the remote API on every call.
func (s *Server) CookieAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := s.session(w, r)
		if !sess.Active() {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		claims, err := auth.Inspect(sess.Token())
		switch {
		case errors.Is(err, auth.ErrOpaqueToken):
			claims = &auth.Claims{}
		case err != nil:
			slog.Error("failed to inspect token", "error", err)
			claims = &auth.Claims{}
		case claims.Expired(time.Now()):
			slog.Info("session expired", "user", claims.Name())
			sess.Clear()
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		ctx := context.WithValue(r.Context(), webSessionKey, sess)
		ctx = context.WithValue(ctx, webClaimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// clearAuthCookie clears the authentication cookie with consistent attributes.
func clearAuthCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// GetWebClaims retrieves the token claims from web context.
func GetWebClaims(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(webClaimsKey).(*auth.Claims)
	return claims
}

// GetSession retrieves the admin session from web context.
func GetSession(ctx context.Context) *auth.Session {
	sess, _ := ctx.Value(webSessionKey).(*auth.Session)
	return sess
}

// RequestID returns the id assigned by WithRequestID.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(webRequestIDKey).(string)
	return id
}

// WithRequestID propagates an incoming request id or generates one.
func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), webRequestIDKey, id)))
	})
}

// WithSecurityHeaders adds browser security headers to every response.
func WithSecurityHeaders(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "same-origin")
			h.Set("Content-Security-Policy", "default-src 'self'; frame-ancestors 'none'; base-uri 'none'; form-action 'self'")
			if secure || r.TLS != nil {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs every request with its status and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		level := slog.LevelInfo
		if rec.status >= 500 {
			level = slog.LevelError
		}
		slog.Log(r.Context(), level, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", RequestID(r.Context()),
		)
	})
}
