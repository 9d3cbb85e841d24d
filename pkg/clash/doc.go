// Package clash detects and resolves ownership clashes between builds.
//
// A clash is an account whose effective owner (proposed owner if set,
// otherwise current owner) disagrees across two or more builds, or whose
// builds mix proposed and unproposed rows. Clashes are never stored: they
// are recomputed from account rows on every read.
//
// # Components
//
//   - Collector: fetches the top-level accounts of every visible build
//     concurrently and merges them by account id
//   - DetectClashes: pure classification and ordering of the merged views
//   - Resolver: propagates the owner of a chosen build to every member
//     build and appends a resolution record
//   - Service: ties the three together with logging, metrics and audit
//
// # Usage
//
//	svc := clash.NewService(collector, resolver, resolutions)
//	detection, err := svc.Detect(ctx, auth, nil)
//	res, err := svc.Resolve(ctx, auth, "A1", clash.ResolveRequest{
//	    TargetBuildID: "Y",
//	    Rationale:     "EMEA higher ARR",
//	})
package clash
