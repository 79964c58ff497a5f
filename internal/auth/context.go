package auth

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/miniforvaltaren/api/internal/domain"
)

// UserContext holds the authenticated principal
type UserContext struct {
	UserID uuid.UUID
	Email  string
	Name   string
}

type contextKey string

const (
	userContextKey contextKey = "userContext"
	viewerCacheKey contextKey = "viewerCache"
)

// WithUserContext adds user context to the context
func WithUserContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// FromContext extracts user context from the context
func FromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	return user, ok && user != nil
}

// MustFromContext extracts user context or panics
func MustFromContext(ctx context.Context) *UserContext {
	user, ok := FromContext(ctx)
	if !ok {
		panic("user context not found in context")
	}
	return user
}

// DisplayName falls back to the local part of the email
func (u *UserContext) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	if i := strings.Index(u.Email, "@"); i > 0 {
		return u.Email[:i]
	}
	return u.Email
}

// ToUser maps the principal to the persisted user row
func (u *UserContext) ToUser() *domain.User {
	return &domain.User{ID: u.UserID, Email: strings.ToLower(strings.TrimSpace(u.Email)), Name: u.Name}
}

// ViewerCache memoizes the landlord resolution for one request.
// It lives only as long as the request context.
type ViewerCache struct {
	mu       sync.Mutex
	loaded   bool
	landlord *domain.Landlord
	role     domain.Role
}

// WithViewerCache attaches an empty memo to ctx
func WithViewerCache(ctx context.Context) context.Context {
	return context.WithValue(ctx, viewerCacheKey, &ViewerCache{})
}

// ViewerCacheFromContext returns the request memo, or nil outside a request
func ViewerCacheFromContext(ctx context.Context) *ViewerCache {
	cache, _ := ctx.Value(viewerCacheKey).(*ViewerCache)
	return cache
}

// Get returns the memoized landlord and role. ok is false until Store has run.
func (c *ViewerCache) Get() (landlord *domain.Landlord, role domain.Role, ok bool) {
	if c == nil {
		return nil, "", false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.landlord, c.role, c.loaded
}

// Store records the resolution. A nil landlord is not memoized, so a later
// ensure can still provision one within the same request.
func (c *ViewerCache) Store(landlord *domain.Landlord, role domain.Role) {
	if c == nil || landlord == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.landlord = landlord
	c.role = role
	c.loaded = true
}

// Invalidate drops the memo after a change to the viewer's landlord
func (c *ViewerCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.landlord = nil
	c.role = ""
	c.loaded = false
}
