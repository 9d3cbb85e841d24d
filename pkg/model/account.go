package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Account is one account row scoped to a build. SFDCAccountID is the
// external identifier shared by the same account across builds.
type Account struct {
	ID            uint            `gorm:"column:id;primaryKey" json:"-"`
	BuildID       string          `gorm:"column:build_id;index" json:"build_id"`
	SFDCAccountID string          `gorm:"column:sfdc_account_id;index" json:"sfdc_account_id"`
	AccountName   string          `gorm:"column:account_name" json:"account_name"`
	IsParent      bool            `gorm:"column:is_parent" json:"is_parent"`
	OwnerID       string          `gorm:"column:owner_id" json:"owner_id"`
	OwnerName     string          `gorm:"column:owner_name" json:"owner_name"`
	NewOwnerID    *string         `gorm:"column:new_owner_id" json:"new_owner_id,omitempty"`
	NewOwnerName  *string         `gorm:"column:new_owner_name" json:"new_owner_name,omitempty"`
	ARR           decimal.Decimal `gorm:"column:arr;type:numeric" json:"arr"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Account) TableName() string {
	return "accounts"
}

// HasProposal reports whether the row carries a proposed owner.
func (a Account) HasProposal() bool {
	return a.NewOwnerID != nil && strings.TrimSpace(*a.NewOwnerID) != ""
}

// EffectiveOwnerID is the proposed owner when present, otherwise the current owner.
func (a Account) EffectiveOwnerID() string {
	if a.HasProposal() {
		return *a.NewOwnerID
	}
	return a.OwnerID
}

// EffectiveOwnerName follows EffectiveOwnerID, falling back to the id when
// no display name was imported.
func (a Account) EffectiveOwnerName() string {
	if a.HasProposal() {
		if a.NewOwnerName != nil && *a.NewOwnerName != "" {
			return *a.NewOwnerName
		}
		return *a.NewOwnerID
	}
	if a.OwnerName != "" {
		return a.OwnerName
	}
	return a.OwnerID
}
