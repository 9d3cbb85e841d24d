// Package config provides configuration management for the reconciliation
// service.
//
// # Configuration Sources
//
// Values are resolved in this order, later sources winning:
//
//   - Built-in defaults
//   - $RECON_CONFIG_PATH/recon.yml (default /etc/recon/recon.yml)
//   - RECON_* environment variables
//
// The source of every attribute is tracked and shown by
// `reconctl configuration show`.
//
// # Key Configuration Options
//
//   - RECON_GLOBAL_ROLES: roles that see every region
//   - RECON_FETCH_CONCURRENCY: cap on concurrent per-build fetches
//   - RECON_REDIS_ADDRESS: enables the distributed resolution lock
//   - RECON_JWT_SECRET: bearer token verification key
//   - DATABASE_URL: Database connection (read by reconctl)
package config
