// Command reconctl runs and operates the recon territory reconciliation
// service.
//
// recon reads territory planning builds and their top-level accounts,
// detects accounts whose effective owner disagrees across builds, and
// propagates an operator-chosen owner to every build of a clash while
// recording an append-only resolution entry.
//
// # Quick Start
//
//	# Run database migrations
//	reconctl db migrate
//
//	# Start the server
//	reconctl server
//
//	# Detect clashes across every build as a RevOps user
//	reconctl clashes detect --user ops-1 --role revops
//
//	# Resolve a clash in favour of one build
//	reconctl clashes resolve 0015g00000ABC --target build-7 \
//	    --rationale "agreed in territory review" --user ops-1 --role revops
//
// The clashes commands also run against a JSON fixture instead of the
// database with --fixture; resolutions are written back to the file.
//
// # Environment Variables
//
//   - DATABASE_URL: PostgreSQL connection string
//   - RECON_CONFIG_PATH: directory holding recon.yml (default /etc/recon)
//   - RECON_JWT_SECRET: HS256 secret for bearer tokens
//   - RECON_REDIS_ADDRESS: Redis address for per-account resolution locks
//   - RECON_LOG_LEVEL: log level (debug, info, warn, error)
//   - RECON_AUDIT_ENABLED: set to false to disable audit events
//   - AUDIT_DATABASE_URL: persist audit events to this database
//   - PORT: server port (default: 8000)
package main
