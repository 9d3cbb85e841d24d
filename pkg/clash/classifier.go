package clash

import (
	"sort"
	"strings"

	"github.com/territoryops/recon/pkg/model"
)

// DetectClashes classifies the merged per-account views and returns every
// clash ordered by severity, then revenue, then account id. It has no side
// effects and returns the same result for the same input.
func DetectClashes(byAccount map[string][]AssignmentView) []Clash {
	clashes := make([]Clash, 0)
	for accountID, views := range byAccount {
		if c, ok := Classify(accountID, views); ok {
			clashes = append(clashes, c)
		}
	}
	SortClashes(clashes)
	return clashes
}

// Classify decides whether the views of one account form a clash. Views
// are deduplicated by build id and ordered by build id.
func Classify(accountID string, views []AssignmentView) (Clash, bool) {
	members := uniqueByBuild(views)
	if len(members) < 2 {
		return Clash{}, false
	}

	effective := map[string]struct{}{}
	current := map[string]struct{}{}
	proposed := map[string]struct{}{}
	regions := map[string]struct{}{}
	proposals := 0
	revenue := members[0].Revenue
	name := ""

	for _, v := range members {
		effective[v.EffectiveOwnerID] = struct{}{}
		current[v.CurrentOwnerID] = struct{}{}
		if v.HasProposal() {
			proposals++
			proposed[*v.ProposedOwnerID] = struct{}{}
		}
		if r := strings.ToLower(strings.TrimSpace(v.Region)); r != "" {
			regions[r] = struct{}{}
		}
		if v.Revenue.GreaterThan(revenue) {
			revenue = v.Revenue
		}
		if name == "" {
			name = v.AccountName
		}
	}

	anyProposed := proposals > 0
	mixed := anyProposed && proposals < len(members)
	distinct := len(effective)
	if distinct < 2 && !mixed {
		return Clash{}, false
	}

	c := Clash{
		AccountID:   accountID,
		AccountName: name,
		Severity:    severityOf(distinct, anyProposed, mixed),
		Tags:        []Tag{},
		Revenue:     revenue,
		Views:       members,
	}
	if distinct > 1 {
		c.Tags = append(c.Tags, TagOwnerMismatch)
	}
	if len(current) > 1 {
		c.Tags = append(c.Tags, TagCurrentOwnerMismatch)
	}
	if len(proposed) > 1 {
		c.Tags = append(c.Tags, TagProposalMismatch)
	}
	if mixed {
		c.Tags = append(c.Tags, TagMixedProposal)
	}
	if len(regions) > 1 {
		c.Tags = append(c.Tags, TagCrossRegion)
	}
	return c, true
}

func severityOf(distinctOwners int, anyProposed, mixed bool) Severity {
	switch {
	case distinctOwners > 1 && anyProposed:
		return SeverityHigh
	case mixed, distinctOwners > 1:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

func uniqueByBuild(views []AssignmentView) []AssignmentView {
	sorted := make([]AssignmentView, len(views))
	copy(sorted, views)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].BuildID < sorted[j].BuildID })

	out := sorted[:0]
	for i, v := range sorted {
		if i > 0 && v.BuildID == sorted[i-1].BuildID {
			continue
		}
		out = append(out, v)
	}
	return out
}

// SortClashes orders clashes by severity descending, revenue descending and
// account id ascending.
func SortClashes(clashes []Clash) {
	sort.SliceStable(clashes, func(i, j int) bool {
		a, b := clashes[i], clashes[j]
		if a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		if cmp := a.Revenue.Cmp(b.Revenue); cmp != 0 {
			return cmp > 0
		}
		return a.AccountID < b.AccountID
	})
}

// PairGroup collects the clashes in which two builds disagree.
type PairGroup struct {
	BuildIDs   [2]string `json:"build_ids"`
	BuildNames [2]string `json:"build_names"`
	Clashes    []Clash   `json:"clashes"`
}

// GroupByBuildPair groups clashes by every pair of member builds whose
// views disagree. A clash spanning three builds can appear in up to three
// groups. Groups are ordered by clash count descending, then build ids;
// clashes keep their input order within a group.
func GroupByBuildPair(clashes []Clash) []PairGroup {
	index := map[[2]string]int{}
	groups := make([]PairGroup, 0)

	for _, c := range clashes {
		for i := 0; i < len(c.Views); i++ {
			for j := i + 1; j < len(c.Views); j++ {
				a, b := c.Views[i], c.Views[j]
				if !disagree(a, b) {
					continue
				}
				if a.BuildID > b.BuildID {
					a, b = b, a
				}
				key := [2]string{a.BuildID, b.BuildID}
				pos, ok := index[key]
				if !ok {
					pos = len(groups)
					index[key] = pos
					groups = append(groups, PairGroup{
						BuildIDs:   key,
						BuildNames: [2]string{a.BuildName, b.BuildName},
					})
				}
				groups[pos].Clashes = append(groups[pos].Clashes, c)
			}
		}
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if len(groups[i].Clashes) != len(groups[j].Clashes) {
			return len(groups[i].Clashes) > len(groups[j].Clashes)
		}
		if groups[i].BuildIDs[0] != groups[j].BuildIDs[0] {
			return groups[i].BuildIDs[0] < groups[j].BuildIDs[0]
		}
		return groups[i].BuildIDs[1] < groups[j].BuildIDs[1]
	})
	return groups
}

func disagree(a, b AssignmentView) bool {
	return a.EffectiveOwnerID != b.EffectiveOwnerID || a.HasProposal() != b.HasProposal()
}

// MarkResolved returns a copy of clashes annotated with their latest clash
// mark. Every clash with a mark is resolved; it is also reopened when any
// member row was updated after the mark.
func MarkResolved(clashes []Clash, marks []model.ClashMark) []Clash {
	type key struct{ account, builds string }
	latest := make(map[key]model.ClashMark, len(marks))
	for _, m := range marks {
		k := key{m.SFDCAccountID, m.BuildKey}
		if prev, ok := latest[k]; !ok || m.ResolvedAt.After(prev.ResolvedAt) {
			latest[k] = m
		}
	}

	out := make([]Clash, len(clashes))
	copy(out, clashes)
	for i := range out {
		m, ok := latest[key{out[i].AccountID, out[i].Key()}]
		if !ok {
			continue
		}
		out[i].LastResolution = &LastMark{
			ResolutionID: m.ResolutionID,
			ResolvedBy:   m.ResolvedBy,
			ResolvedAt:   m.ResolvedAt,
		}
		out[i].Resolved = true
		for _, v := range out[i].Views {
			if v.UpdatedAt.After(m.ResolvedAt) {
				out[i].Reopened = true
				break
			}
		}
	}
	return out
}
