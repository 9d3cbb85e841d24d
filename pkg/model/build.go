package model

//go:generate go run github.com/dmarkham/enumer -type BuildStatus -trimprefix BuildStatus -transform snake -json -sql -output build_status.gen.go

import "time"

// BuildStatus tracks where a build sits in the approval chain.
type BuildStatus int

const (
	BuildStatusDraft BuildStatus = iota
	BuildStatusInReview
	BuildStatusFinalized
)

// Build is a named planning cycle owning a set of account rows.
type Build struct {
	ID         string      `gorm:"column:id;primaryKey" json:"id"`
	Name       string      `gorm:"column:name" json:"name"`
	Status     BuildStatus `gorm:"column:status;type:text" json:"status"`
	Region     string      `gorm:"column:region;index" json:"region"`
	OwnerID    string      `gorm:"column:owner_id" json:"owner_id"`
	CreatedAt  time.Time   `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	TargetDate *time.Time  `gorm:"column:target_date" json:"target_date,omitempty"`
}

func (Build) TableName() string {
	return "builds"
}
