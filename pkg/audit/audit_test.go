package audit

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger()
	logger.SetWriter(&buf)
	logger.hostname = "recon-1"
	logger.pid = 42
	logger.now = func() time.Time { return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC) }

	logger.Log(ResolveEvent{
		UserID:         "revops-1",
		ClientIP:       "192.168.1.1",
		AccountID:      "A1",
		WinningBuildID: "Y",
		BuildIDs:       []string{"X", "Y"},
		OwnerID:        "bob",
		Success:        true,
	})

	output := buf.String()
	wantPrefix := "<133>1 2026-03-01T09:30:00.000Z recon-1 recon 42 resolve "
	if !strings.HasPrefix(output, wantPrefix) {
		t.Errorf("Log() = %q, want prefix %q", output, wantPrefix)
	}
	if !strings.Contains(output, `[action@32473 operation="resolve" result="success"]`) {
		t.Errorf("expected sorted action structured data in %q", output)
	}
	if !strings.HasSuffix(output, "revops-1 resolved account A1 to owner bob from build Y\n") {
		t.Errorf("unexpected message in %q", output)
	}
}

func TestDetectEvent(t *testing.T) {
	tests := []struct {
		name    string
		event   DetectEvent
		wantMsg string
		wantSev Severity
	}{
		{
			name:    "clean pass over every build",
			event:   DetectEvent{UserID: "u1", Clashes: 3, Success: true},
			wantMsg: "u1 detected 3 clashes across all visible builds",
			wantSev: SeverityInfo,
		},
		{
			name:    "partial pass",
			event:   DetectEvent{UserID: "u1", BuildIDs: []string{"X", "Y"}, Clashes: 1, Omitted: 1, Success: true},
			wantMsg: "u1 detected 1 clashes across builds X,Y (1 builds omitted)",
			wantSev: SeverityNotice,
		},
		{
			name:    "failed pass",
			event:   DetectEvent{UserID: "u1", ErrorMessage: "database unavailable"},
			wantMsg: "u1 failed to detect clashes across all visible builds: database unavailable",
			wantSev: SeverityWarning,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.Message(); got != tt.wantMsg {
				t.Errorf("Message() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.event.Severity(); got != tt.wantSev {
				t.Errorf("Severity() = %v, want %v", got, tt.wantSev)
			}
			if got := tt.event.MessageID(); got != "detect" {
				t.Errorf("MessageID() = %q, want detect", got)
			}
			if got := tt.event.Facility(); got != FacilityLocal0 {
				t.Errorf("Facility() = %d, want %d", got, FacilityLocal0)
			}
		})
	}
}

func TestResolveEvent(t *testing.T) {
	ok := ResolveEvent{
		UserID:         "revops-1",
		ClientIP:       "10.0.0.1",
		AccountID:      "A1",
		WinningBuildID: "Y",
		BuildIDs:       []string{"X", "Y"},
		OwnerID:        "bob",
		ResolutionID:   "r-1",
		Success:        true,
	}
	if ok.Severity() != SeverityNotice {
		t.Errorf("Severity() = %v, want notice", ok.Severity())
	}

	sd := ok.StructuredData()
	if sd[SDIDSubject]["account"] != "A1" {
		t.Errorf("subject.account = %q, want A1", sd[SDIDSubject]["account"])
	}
	if sd[SDIDSubject]["builds"] != "X,Y" {
		t.Errorf("subject.builds = %q, want X,Y", sd[SDIDSubject]["builds"])
	}
	if sd[SDIDClash]["resolution"] != "r-1" {
		t.Errorf("clash.resolution = %q, want r-1", sd[SDIDClash]["resolution"])
	}
	if sd[SDIDClient]["ip"] != "10.0.0.1" {
		t.Errorf("client.ip = %q, want 10.0.0.1", sd[SDIDClient]["ip"])
	}

	failed := ResolveEvent{UserID: "flm-1", AccountID: "A1", ErrorMessage: "rationale is required"}
	if got, want := failed.Message(), "flm-1 tried to resolve account A1: rationale is required"; got != want {
		t.Errorf("Message() = %q, want %q", got, want)
	}
	if failed.Severity() != SeverityWarning {
		t.Errorf("Severity() = %v, want warning", failed.Severity())
	}
	fsd := failed.StructuredData()
	if fsd[SDIDAction]["result"] != "failure" {
		t.Errorf("action.result = %q, want failure", fsd[SDIDAction]["result"])
	}
	if _, ok := fsd[SDIDClash]; ok {
		t.Error("expected no clash structured data without a winning build")
	}
	if _, ok := fsd[SDIDClient]; ok {
		t.Error("expected no client structured data without an ip")
	}
}

func TestFormatStructuredData(t *testing.T) {
	got := formatStructuredData(map[string]map[string]string{
		"b@1": {"z": "1", "a": "2"},
		"a@1": {"k": "v"},
	})
	want := `[a@1 k="v"][b@1 a="2" z="1"]`
	if got != want {
		t.Errorf("formatStructuredData() = %q, want %q", got, want)
	}
	if formatStructuredData(nil) != "" {
		t.Error("expected empty string for no structured data")
	}
}

func TestAuditToggle(t *testing.T) {
	originalEnabled := auditEnabled
	defer func() {
		auditEnabled = originalEnabled
	}()

	SetEnabled(false)
	if IsEnabled() {
		t.Error("Expected audit to be disabled")
	}

	SetEnabled(true)
	if !IsEnabled() {
		t.Error("Expected audit to be enabled")
	}
}

func TestEscapeSDValue(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"simple", `"simple"`},
		{`with"quote`, `"with\"quote"`},
		{`with\backslash`, `"with\\backslash"`},
		{`with]bracket`, `"with\]bracket"`},
		{`all"special\chars]`, `"all\"special\\chars\]"`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := escapeSDValue(tt.input)
			if got != tt.want {
				t.Errorf("escapeSDValue(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
