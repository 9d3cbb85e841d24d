package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/territoryops/recon/pkg/config"
	"github.com/territoryops/recon/pkg/identity"
)

var (
	errMissingToken   = errors.New("authorization missing")
	errMalformedToken = errors.New("malformed authorization header")
	errNoSubject      = errors.New("token has no subject")
)

// JWTAuthenticator is middleware that validates HS256 bearer tokens and
// stores the caller's AuthContext in the request context.
type JWTAuthenticator struct {
	config func() *config.ReconConfig
}

// NewJWTAuthenticator creates the middleware. cfg is consulted on every
// request so a reloaded secret takes effect immediately.
func NewJWTAuthenticator(cfg func() *config.ReconConfig) *JWTAuthenticator {
	return &JWTAuthenticator{config: cfg}
}

// NewToken signs a bearer token for the given caller.
func NewToken(secret string, userID, role, region string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := identity.Claims{
		Role:   role,
		Region: region,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Middleware returns an HTTP middleware that validates bearer tokens
func (j *JWTAuthenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cfg := j.config()

		auth, err := j.authenticate(r, cfg.JWTSecret)
		if err != nil {
			unauthorized(w, err)
			return
		}
		auth.WithRemoteIP(ClientIP(r, cfg))

		next.ServeHTTP(w, r.WithContext(identity.Set(r.Context(), auth)))
	})
}

func (j *JWTAuthenticator) authenticate(r *http.Request, secret string) (*identity.AuthContext, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, errMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return nil, errMalformedToken
	}
	if secret == "" {
		return nil, errors.New("token verification is not configured")
	}

	claims := &identity.Claims{}
	_, err := jwt.ParseWithClaims(strings.TrimSpace(token), claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, errNoSubject
	}
	return identity.FromClaims(claims), nil
}

// ClientIP returns the caller address. X-Forwarded-For is honoured only
// when the direct peer is a trusted proxy.
func ClientIP(r *http.Request, cfg *config.ReconConfig) net.IP {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" && cfg.IsTrustedProxy(host) {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip
		}
	}
	return net.ParseIP(host)
}

func unauthorized(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
