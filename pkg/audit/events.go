package audit

import (
	"fmt"
	"strconv"
	"strings"
)

func result(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

func severity(success bool) Severity {
	if success {
		return SeverityInfo
	}
	return SeverityWarning
}

// DetectEvent records a clash detection pass
type DetectEvent struct {
	UserID       string
	Role         string
	Region       string
	ClientIP     string
	BuildIDs     []string
	Clashes      int
	Omitted      int
	Success      bool
	ErrorMessage string
}

func (e DetectEvent) MessageID() string {
	return "detect"
}

func (e DetectEvent) Message() string {
	scope := "all visible builds"
	if len(e.BuildIDs) > 0 {
		scope = "builds " + strings.Join(e.BuildIDs, ",")
	}
	if !e.Success {
		msg := fmt.Sprintf("%s failed to detect clashes across %s", e.UserID, scope)
		if e.ErrorMessage != "" {
			msg += ": " + e.ErrorMessage
		}
		return msg
	}
	msg := fmt.Sprintf("%s detected %d clashes across %s", e.UserID, e.Clashes, scope)
	if e.Omitted > 0 {
		msg += fmt.Sprintf(" (%d builds omitted)", e.Omitted)
	}
	return msg
}

func (e DetectEvent) Severity() Severity {
	if e.Success && e.Omitted > 0 {
		return SeverityNotice
	}
	return severity(e.Success)
}

func (e DetectEvent) Facility() int {
	return FacilityLocal0
}

func (e DetectEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDAuth: {
			"user": e.UserID,
			"role": e.Role,
		},
		SDIDSubject: {
			"builds": strings.Join(e.BuildIDs, ","),
		},
		SDIDAction: {
			"operation": "detect",
			"result":    result(e.Success),
		},
		SDIDClash: {
			"clashes": strconv.Itoa(e.Clashes),
			"omitted": strconv.Itoa(e.Omitted),
		},
	}
	if e.Region != "" {
		sd[SDIDAuth]["region"] = e.Region
	}
	if e.ClientIP != "" {
		sd[SDIDClient] = map[string]string{"ip": e.ClientIP}
	}
	return sd
}

// ResolveEvent records a clash resolution attempt
type ResolveEvent struct {
	UserID         string
	ClientIP       string
	AccountID      string
	WinningBuildID string
	BuildIDs       []string
	OwnerID        string
	ResolutionID   string
	Success        bool
	ErrorMessage   string
}

func (e ResolveEvent) MessageID() string {
	return "resolve"
}

func (e ResolveEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s resolved account %s to owner %s from build %s", e.UserID, e.AccountID, e.OwnerID, e.WinningBuildID)
	}
	msg := fmt.Sprintf("%s tried to resolve account %s", e.UserID, e.AccountID)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e ResolveEvent) Severity() Severity {
	if e.Success {
		return SeverityNotice
	}
	return SeverityWarning
}

func (e ResolveEvent) Facility() int {
	return FacilityLocal0
}

func (e ResolveEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDAuth: {
			"user": e.UserID,
		},
		SDIDSubject: {
			"account": e.AccountID,
			"builds":  strings.Join(e.BuildIDs, ","),
		},
		SDIDAction: {
			"operation": "resolve",
			"result":    result(e.Success),
		},
	}
	if e.WinningBuildID != "" {
		sd[SDIDClash] = map[string]string{
			"winning_build": e.WinningBuildID,
			"owner":         e.OwnerID,
		}
		if e.ResolutionID != "" {
			sd[SDIDClash]["resolution"] = e.ResolutionID
		}
	}
	if e.ClientIP != "" {
		sd[SDIDClient] = map[string]string{"ip": e.ClientIP}
	}
	return sd
}
