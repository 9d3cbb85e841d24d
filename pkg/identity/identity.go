package identity

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

const (
	// Key is the context key for AuthContext.
	Key ContextKey = "identity"
)

// Well-known roles of the approval chain.
const (
	RoleFLM    = "flm"
	RoleSLM    = "slm"
	RoleRevOps = "revops"
	RoleAdmin  = "admin"
)

// Claims are the JWT claims carried by reconciliation bearer tokens.
type Claims struct {
	Role   string `json:"role"`
	Region string `json:"region"`
	jwt.RegisteredClaims
}

// AuthContext represents the caller of a detection or resolution request.
type AuthContext struct {
	UserID    string
	Role      string
	Region    string
	IssuedAt  time.Time
	ExpiresAt time.Time

	// Request context
	RemoteIP net.IP
}

// New builds an AuthContext without token metadata, as used by the CLI.
func New(userID, role, region string) *AuthContext {
	return &AuthContext{
		UserID: userID,
		Role:   strings.ToLower(strings.TrimSpace(role)),
		Region: strings.TrimSpace(region),
	}
}

// FromClaims creates an AuthContext from verified token claims.
func FromClaims(claims *Claims) *AuthContext {
	auth := New(claims.Subject, claims.Role, claims.Region)
	if claims.IssuedAt != nil {
		auth.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		auth.ExpiresAt = claims.ExpiresAt.Time
	}
	return auth
}

// WithRemoteIP sets the remote IP address.
func (a *AuthContext) WithRemoteIP(ip net.IP) *AuthContext {
	a.RemoteIP = ip
	return a
}

// IsGlobal reports whether the caller's role is one of globalRoles.
func (a *AuthContext) IsGlobal(globalRoles []string) bool {
	for _, r := range globalRoles {
		if strings.EqualFold(strings.TrimSpace(r), a.Role) {
			return true
		}
	}
	return false
}

// CanSeeRegion reports whether builds of the given region are visible.
func (a *AuthContext) CanSeeRegion(region string, globalRoles []string) bool {
	if a.IsGlobal(globalRoles) {
		return true
	}
	return a.Region != "" && strings.EqualFold(a.Region, region)
}

// Get retrieves AuthContext from context.
func Get(ctx context.Context) (*AuthContext, bool) {
	auth, ok := ctx.Value(Key).(*AuthContext)
	return auth, ok
}

// Set stores AuthContext in context.
func Set(ctx context.Context, auth *AuthContext) context.Context {
	return context.WithValue(ctx, Key, auth)
}
