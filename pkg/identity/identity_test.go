package identity

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var globalRoles = []string{"revops", "admin"}

func TestNew(t *testing.T) {
	auth := New("alice", " FLM ", " EMEA ")
	assert.Equal(t, "alice", auth.UserID)
	assert.Equal(t, "flm", auth.Role)
	assert.Equal(t, "EMEA", auth.Region)
}

func TestAuthContext_IsGlobal(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		expected bool
	}{
		{name: "revops is global", role: "revops", expected: true},
		{name: "admin is global", role: "admin", expected: true},
		{name: "first line manager is regional", role: "flm", expected: false},
		{name: "empty role", role: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := New("u", tt.role, "EMEA")
			assert.Equal(t, tt.expected, auth.IsGlobal(globalRoles))
		})
	}
}

func TestAuthContext_CanSeeRegion(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		region   string
		build    string
		expected bool
	}{
		{name: "same region", role: "flm", region: "EMEA", build: "EMEA", expected: true},
		{name: "case insensitive region", role: "slm", region: "emea", build: "EMEA", expected: true},
		{name: "other region", role: "flm", region: "EMEA", build: "AMER", expected: false},
		{name: "no region sees nothing", role: "flm", region: "", build: "AMER", expected: false},
		{name: "global role sees all", role: "revops", region: "", build: "APAC", expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := New("u", tt.role, tt.region)
			assert.Equal(t, tt.expected, auth.CanSeeRegion(tt.build, globalRoles))
		})
	}
}

func TestFromClaims(t *testing.T) {
	iat := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	exp := iat.Add(time.Hour)
	claims := &Claims{
		Role:   "SLM",
		Region: "AMER",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "bob",
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	auth := FromClaims(claims)
	assert.Equal(t, "bob", auth.UserID)
	assert.Equal(t, "slm", auth.Role)
	assert.Equal(t, "AMER", auth.Region)
	assert.True(t, auth.IssuedAt.Equal(iat))
	assert.True(t, auth.ExpiresAt.Equal(exp))
}

func TestAuthContext_WithRemoteIP(t *testing.T) {
	ip := net.ParseIP("192.168.1.100")
	auth := New("alice", "flm", "EMEA").WithRemoteIP(ip)
	assert.Equal(t, ip, auth.RemoteIP)
}

func TestContextGetSet(t *testing.T) {
	ctx := context.Background()

	auth, ok := Get(ctx)
	assert.False(t, ok)
	assert.Nil(t, auth)

	expected := New("alice", "flm", "EMEA")
	ctx = Set(ctx, expected)

	auth, ok = Get(ctx)
	assert.True(t, ok)
	require.NotNil(t, auth)
	assert.Equal(t, expected.UserID, auth.UserID)
	assert.Equal(t, expected.Region, auth.Region)
}
