package clash

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/territoryops/recon/pkg/model"
)

func strPtr(s string) *string {
	return &s
}

// view builds an assignment view; an empty proposed owner means no proposal.
func view(account, build, region, current, proposed, arr string) AssignmentView {
	a := model.Account{
		SFDCAccountID: account,
		AccountName:   "Account " + account,
		IsParent:      true,
		OwnerID:       current,
		OwnerName:     current,
		ARR:           decimal.RequireFromString(arr),
	}
	if proposed != "" {
		a.NewOwnerID = strPtr(proposed)
		a.NewOwnerName = strPtr(proposed)
	}
	return NewAssignmentView(model.Build{ID: build, Name: "Build " + build, Region: region}, a)
}

func build(id, region string, created time.Time) model.Build {
	return model.Build{ID: id, Name: "Build " + id, Region: region, CreatedAt: created}
}

func account(buildID, accountID, owner, proposed, arr string) model.Account {
	a := model.Account{
		BuildID:       buildID,
		SFDCAccountID: accountID,
		AccountName:   "Account " + accountID,
		IsParent:      true,
		OwnerID:       owner,
		OwnerName:     owner,
		ARR:           decimal.RequireFromString(arr),
	}
	if proposed != "" {
		a.NewOwnerID = strPtr(proposed)
		a.NewOwnerName = strPtr(proposed)
	}
	return a
}
