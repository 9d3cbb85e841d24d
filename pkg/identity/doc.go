// Package identity provides the caller identity used to scope reconciliation
// requests.
//
// An AuthContext is an explicit value (caller id, role, region) handed to the
// assignment collector instead of being read from ambient session state.
// Callers whose role is listed as global see every build; everyone else sees
// only builds in their own region.
//
// # Basic Usage
//
//	// Create an AuthContext from verified token claims
//	auth := identity.FromClaims(claims)
//
//	// Add request context
//	auth.WithRemoteIP(clientIP)
//
//	// Store in request context
//	ctx = identity.Set(ctx, auth)
//
//	// Retrieve from context
//	auth, ok := identity.Get(ctx)
//
// # Roles
//
// Roles follow the approval chain: "flm" and "slm" managers are regional,
// "revops" (and "admin") are typically configured as global roles.
package identity
