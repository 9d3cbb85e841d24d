// Package audit provides audit logging for reconciliation operations.
//
// Every detection pass and every resolution attempt produces an RFC5424
// syslog line on the default writer and, when AUDIT_DATABASE_URL is set, a
// row in the messages table.
//
// # Event Types
//
//   - DetectEvent: a clash detection pass over a set of builds
//   - ResolveEvent: a resolution attempt for one account
//
// # Usage
//
//	audit.Log(audit.ResolveEvent{
//	    UserID:    auth.UserID,
//	    AccountID: clash.AccountID,
//	    Success:   true,
//	})
//
// Logging can be switched off with RECON_AUDIT_ENABLED=false.
package audit
