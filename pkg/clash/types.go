package clash

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/territoryops/recon/pkg/model"
)

// Tag names one way in which the member builds of a clash disagree.
type Tag string

const (
	// TagOwnerMismatch marks more than one distinct effective owner.
	TagOwnerMismatch Tag = "owner_mismatch"
	// TagCurrentOwnerMismatch marks more than one distinct current owner.
	TagCurrentOwnerMismatch Tag = "current_owner_mismatch"
	// TagProposalMismatch marks more than one distinct proposed owner.
	TagProposalMismatch Tag = "proposal_mismatch"
	// TagMixedProposal marks builds that mix proposed and unproposed rows.
	TagMixedProposal Tag = "mixed_proposal"
	// TagCrossRegion marks member builds from more than one region.
	TagCrossRegion Tag = "cross_region"
)

// AssignmentView is the ownership of one account in one build.
type AssignmentView struct {
	AccountID          string          `json:"account_id"`
	AccountName        string          `json:"account_name"`
	BuildID            string          `json:"build_id"`
	BuildName          string          `json:"build_name"`
	Region             string          `json:"region"`
	CurrentOwnerID     string          `json:"current_owner_id"`
	CurrentOwnerName   string          `json:"current_owner_name"`
	ProposedOwnerID    *string         `json:"proposed_owner_id,omitempty"`
	ProposedOwnerName  *string         `json:"proposed_owner_name,omitempty"`
	EffectiveOwnerID   string          `json:"effective_owner_id"`
	EffectiveOwnerName string          `json:"effective_owner_name"`
	Revenue            decimal.Decimal `json:"revenue"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// NewAssignmentView derives the view of an account row within its build.
func NewAssignmentView(build model.Build, account model.Account) AssignmentView {
	v := AssignmentView{
		AccountID:          account.SFDCAccountID,
		AccountName:        account.AccountName,
		BuildID:            build.ID,
		BuildName:          build.Name,
		Region:             build.Region,
		CurrentOwnerID:     account.OwnerID,
		CurrentOwnerName:   account.OwnerName,
		EffectiveOwnerID:   account.EffectiveOwnerID(),
		EffectiveOwnerName: account.EffectiveOwnerName(),
		Revenue:            account.ARR,
		UpdatedAt:          account.UpdatedAt,
	}
	if account.HasProposal() {
		id := *account.NewOwnerID
		v.ProposedOwnerID = &id
		if account.NewOwnerName != nil {
			name := *account.NewOwnerName
			v.ProposedOwnerName = &name
		}
	}
	return v
}

// HasProposal reports whether the build proposes a new owner.
func (v AssignmentView) HasProposal() bool {
	return v.ProposedOwnerID != nil
}

// Clash is a detected ownership disagreement for one account.
type Clash struct {
	AccountID   string           `json:"account_id"`
	AccountName string           `json:"account_name"`
	Severity    Severity         `json:"severity"`
	Tags        []Tag            `json:"tags"`
	Revenue     decimal.Decimal  `json:"revenue"`
	Views       []AssignmentView `json:"views"`

	// Resolved is set when a resolution was recorded for this clash key.
	// Reopened is set as well when a member row changed after it.
	Resolved       bool      `json:"resolved"`
	Reopened       bool      `json:"reopened"`
	LastResolution *LastMark `json:"last_resolution,omitempty"`
}

// LastMark is the most recent resolution recorded for a clash key.
type LastMark struct {
	ResolutionID string    `json:"resolution_id"`
	ResolvedBy   string    `json:"resolved_by"`
	ResolvedAt   time.Time `json:"resolved_at"`
}

// BuildIDs returns the member build ids in view order.
func (c Clash) BuildIDs() []string {
	ids := make([]string, len(c.Views))
	for i, v := range c.Views {
		ids[i] = v.BuildID
	}
	return ids
}

// Key is the canonical build set key of the clash.
func (c Clash) Key() string {
	return model.BuildKey(c.BuildIDs())
}

// View returns the member view of a build.
func (c Clash) View(buildID string) (AssignmentView, bool) {
	for _, v := range c.Views {
		if v.BuildID == buildID {
			return v, true
		}
	}
	return AssignmentView{}, false
}

// HasTag reports whether the clash carries tag.
func (c Clash) HasTag(tag Tag) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// OmittedBuild is a build whose accounts could not be fetched.
type OmittedBuild struct {
	BuildID   string `json:"build_id"`
	BuildName string `json:"build_name"`
	Reason    string `json:"error"`
	Err       error  `json:"-"`
}

// Collection is the merged result of a collector pass.
type Collection struct {
	Builds    []model.Build
	ByAccount map[string][]AssignmentView
	Omitted   []OmittedBuild
}

// Detection is the outcome of one detection pass.
type Detection struct {
	Builds  []model.Build  `json:"builds"`
	Clashes []Clash        `json:"clashes"`
	Omitted []OmittedBuild `json:"omitted"`
}

// Find returns the clash of an account.
func (d *Detection) Find(accountID string) (Clash, bool) {
	for _, c := range d.Clashes {
		if c.AccountID == accountID {
			return c, true
		}
	}
	return Clash{}, false
}

// CountBySeverity returns the number of clashes per severity name. Every
// severity is present in the result.
func (d *Detection) CountBySeverity() map[string]int {
	counts := make(map[string]int, len(SeverityValues()))
	for _, s := range SeverityValues() {
		counts[s.String()] = 0
	}
	for _, c := range d.Clashes {
		counts[c.Severity.String()]++
	}
	return counts
}
