package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/miniforvaltaren/api/internal/config"
	"github.com/miniforvaltaren/api/internal/domain"
	"go.uber.org/zap"
)

// DefaultCookieName is the session cookie read when no bearer header is present
const DefaultCookieName = "session"

// UserStore mirrors authenticated principals into the users table
type UserStore interface {
	Upsert(ctx context.Context, user *domain.User) error
}

// Middleware handles authentication for HTTP requests
type Middleware struct {
	validator  *SessionValidator
	users      UserStore
	cookieName string
	signInURL  string
	logger     *zap.Logger
}

// NewMiddleware creates a new authentication middleware
func NewMiddleware(cfg *config.AuthConfig, users UserStore, logger *zap.Logger) *Middleware {
	cookieName := cfg.CookieName
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return &Middleware{
		validator:  NewSessionValidator(cfg),
		users:      users,
		cookieName: cookieName,
		signInURL:  cfg.SignInURL,
		logger:     logger,
	}
}

// Authenticate requires a valid session. Browsers without one are sent to
// sign-in; API clients get a 401.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		token := m.extractToken(r)
		if token == "" {
			m.unauthenticated(w, r, ErrMissingToken)
			return
		}

		userCtx, err := m.validator.ValidateToken(token)
		if err != nil {
			m.logger.Warn("token validation failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Error(err),
			)
			m.unauthenticated(w, r, err)
			return
		}

		if m.users != nil {
			if err := m.users.Upsert(r.Context(), userCtx.ToUser()); err != nil {
				m.logger.Error("failed to upsert user",
					zap.String("user_id", userCtx.UserID.String()),
					zap.Error(err),
				)
				writeProblem(w, http.StatusInternalServerError, domain.ErrorTypeInternal, "Internal Server Error", "Operation failed")
				return
			}
		}

		m.logger.Debug("request authenticated",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("user_id", userCtx.UserID.String()),
			zap.String("user_email", userCtx.Email),
			zap.Duration("auth_duration", time.Since(start)),
		)

		ctx := WithUserContext(r.Context(), userCtx)
		ctx = WithViewerCache(ctx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := r.Cookie(m.cookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func (m *Middleware) unauthenticated(w http.ResponseWriter, r *http.Request, err error) {
	if m.signInURL != "" && wantsHTML(r) {
		target := m.signInURL
		if u, perr := url.Parse(m.signInURL); perr == nil {
			q := u.Query()
			q.Set("callbackUrl", r.URL.RequestURI())
			u.RawQuery = q.Encode()
			target = u.String()
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}
	writeProblem(w, http.StatusUnauthorized, domain.ErrorTypeUnauthorized, "Unauthorized", err.Error())
}

// wantsHTML reports whether the client is a browser navigating to a page
func wantsHTML(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html")
}

func writeProblem(w http.ResponseWriter, status int, errType, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(domain.APIError{
		Type:   errType,
		Title:  title,
		Status: status,
		Detail: detail,
	})
}
