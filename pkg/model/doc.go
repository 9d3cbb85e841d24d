// Package model defines the database models for the reconciliation service.
//
// This package contains GORM models that map to the territory planning
// schema. Builds own their account rows; the same external account id may
// appear in many builds, which is what clash detection reconciles.
//
// # Core Models
//
//   - Build: a planning cycle scoped to a region
//   - Account: one account row inside a build, with current and proposed owner
//   - Resolution: append-only audit entry written when a clash is resolved
//   - ClashMark: resolved state persisted on the (account, build set) key
//
// # Database Schema
//
//   - builds: planning cycles
//   - accounts: per-build account rows
//   - clash_resolutions: resolution audit log
//   - clash_marks: latest resolution per clash key
package model
