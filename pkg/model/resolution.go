package model

import (
	"sort"
	"strings"
	"time"

	"github.com/lib/pq"
)

// Resolution is the append-only audit entry written after a clash has been
// propagated to every member build.
type Resolution struct {
	ID             string         `gorm:"column:id;primaryKey" json:"id"`
	SFDCAccountID  string         `gorm:"column:sfdc_account_id;index" json:"sfdc_account_id"`
	BuildIDs       pq.StringArray `gorm:"column:build_ids;type:text[]" json:"build_ids"`
	WinningBuildID string         `gorm:"column:winning_build_id" json:"winning_build_id"`
	OwnerID        string         `gorm:"column:owner_id" json:"owner_id"`
	OwnerName      string         `gorm:"column:owner_name" json:"owner_name"`
	Description    string         `gorm:"column:resolution" json:"resolution"`
	Rationale      string         `gorm:"column:rationale" json:"rationale"`
	ResolvedBy     string         `gorm:"column:resolved_by" json:"resolved_by"`
	ResolvedAt     time.Time      `gorm:"column:resolved_at" json:"resolved_at"`
}

func (Resolution) TableName() string {
	return "clash_resolutions"
}

// ClashMark holds the latest resolution for a clash key so the resolved
// flag can be read without scanning the audit log.
type ClashMark struct {
	SFDCAccountID string    `gorm:"column:sfdc_account_id;primaryKey" json:"sfdc_account_id"`
	BuildKey      string    `gorm:"column:build_key;primaryKey" json:"build_key"`
	ResolutionID  string    `gorm:"column:resolution_id" json:"resolution_id"`
	ResolvedBy    string    `gorm:"column:resolved_by" json:"resolved_by"`
	ResolvedAt    time.Time `gorm:"column:resolved_at" json:"resolved_at"`
}

func (ClashMark) TableName() string {
	return "clash_marks"
}

// BuildKey returns the canonical key for a set of build ids: sorted,
// deduplicated and comma joined.
func BuildKey(buildIDs []string) string {
	ids := make([]string, 0, len(buildIDs))
	seen := make(map[string]bool, len(buildIDs))
	for _, id := range buildIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return strings.Join(ids, ",")
}

// Mark derives the clash mark recorded alongside a resolution.
func (r Resolution) Mark() ClashMark {
	return ClashMark{
		SFDCAccountID: r.SFDCAccountID,
		BuildKey:      BuildKey(r.BuildIDs),
		ResolutionID:  r.ID,
		ResolvedBy:    r.ResolvedBy,
		ResolvedAt:    r.ResolvedAt,
	}
}
