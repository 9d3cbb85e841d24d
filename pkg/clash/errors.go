package clash

import (
	"errors"
	"fmt"
	"strings"
)

// Precondition failures. They are returned before any write is issued.
var (
	ErrRationaleRequired = errors.New("rationale is required")
	ErrTargetNotInClash  = errors.New("target build is not a member of the clash")
	ErrTargetNoOwner     = errors.New("target build has no effective owner")
)

var (
	// ErrClashNotFound is returned when an account has no current clash.
	ErrClashNotFound = errors.New("clash not found")
	// ErrResolutionInProgress is returned when another caller holds the
	// resolution lock of the account.
	ErrResolutionInProgress = errors.New("resolution already in progress")
	// ErrResolutionFailed matches every *ResolutionError.
	ErrResolutionFailed = errors.New("resolution failed")
)

// ResolutionError reports failed owner writes. FailedBuilds lists the
// builds whose write failed; CompensationErr is set when restoring the
// builds that had already been written also failed, which leaves the
// account with mixed proposed owners.
type ResolutionError struct {
	AccountID       string
	FailedBuilds    []string
	Err             error
	CompensationErr error
}

func (e *ResolutionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "resolution failed for account %s", e.AccountID)
	if len(e.FailedBuilds) > 0 {
		fmt.Fprintf(&b, " (builds %s)", strings.Join(e.FailedBuilds, ","))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.CompensationErr != nil {
		b.WriteString("; restoring prior owners failed: ")
		b.WriteString(e.CompensationErr.Error())
	}
	return b.String()
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

func (e *ResolutionError) Is(target error) bool {
	return target == ErrResolutionFailed
}

// IsPrecondition reports whether err is a precondition failure.
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrRationaleRequired) ||
		errors.Is(err, ErrTargetNotInClash) ||
		errors.Is(err, ErrTargetNoOwner)
}
