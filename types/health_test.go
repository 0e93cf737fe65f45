package types

import (
	"encoding/json"
	"testing"
)

func TestHealthStatus_Predicates(t *testing.T) {
	tests := []struct {
		name    string
		status  HealthStatus
		healthy bool
		notice  bool
		warning bool
		isError bool
	}{
		{
			name:    "healthy status",
			status:  HealthStatus{Status: StatusHealthy},
			healthy: true,
		},
		{
			name:   "notice status",
			status: HealthStatus{Status: StatusNotice},
			notice: true,
		},
		{
			name:    "warning status",
			status:  HealthStatus{Status: StatusWarning},
			warning: true,
		},
		{
			name:    "error status",
			status:  HealthStatus{Status: StatusError},
			isError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.IsHealthy(); got != tt.healthy {
				t.Errorf("IsHealthy() = %v, want %v", got, tt.healthy)
			}
			if got := tt.status.IsNotice(); got != tt.notice {
				t.Errorf("IsNotice() = %v, want %v", got, tt.notice)
			}
			if got := tt.status.IsWarning(); got != tt.warning {
				t.Errorf("IsWarning() = %v, want %v", got, tt.warning)
			}
			if got := tt.status.IsError(); got != tt.isError {
				t.Errorf("IsError() = %v, want %v", got, tt.isError)
			}
		})
	}
}

func TestNewHealthyStatus(t *testing.T) {
	status := NewHealthyStatus("RuntimeVersionCheck")

	if status.Status != StatusHealthy {
		t.Errorf("Status = %v, want %v", status.Status, StatusHealthy)
	}
	if status.Source != "RuntimeVersionCheck" {
		t.Errorf("Source = %v, want %v", status.Source, "RuntimeVersionCheck")
	}
	if status.Message != "" || status.HelpAnchor != "" {
		t.Errorf("healthy status should carry no message or anchor, got %q / %q", status.Message, status.HelpAnchor)
	}
	if status.Details != nil {
		t.Errorf("Details should be nil, got %v", status.Details)
	}
}

func TestNewNonHealthyStatuses(t *testing.T) {
	tests := []struct {
		name   string
		build  func(source, message, anchor string) HealthStatus
		status string
	}{
		{name: "notice", build: NewNoticeStatus, status: StatusNotice},
		{name: "warning", build: NewWarningStatus, status: StatusWarning},
		{name: "error", build: NewErrorStatus, status: StatusError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := tt.build("src", "something happened", "some-anchor")
			if status.Status != tt.status {
				t.Errorf("Status = %v, want %v", status.Status, tt.status)
			}
			if status.Source != "src" {
				t.Errorf("Source = %v, want src", status.Source)
			}
			if status.Message != "something happened" {
				t.Errorf("Message = %v", status.Message)
			}
			if status.HelpAnchor != "some-anchor" {
				t.Errorf("HelpAnchor = %v", status.HelpAnchor)
			}
		})
	}
}

func TestWithDetails(t *testing.T) {
	original := NewErrorStatus("src", "msg", "anchor").WithDetails(map[string]any{"a": 1})
	extended := original.WithDetails(map[string]any{"b": 2})

	if len(original.Details) != 1 {
		t.Fatalf("original details mutated: %v", original.Details)
	}
	if extended.Details["a"] != 1 || extended.Details["b"] != 2 {
		t.Errorf("extended details = %v", extended.Details)
	}
}

func TestSeverityAndWorst(t *testing.T) {
	ordered := []string{StatusHealthy, StatusNotice, StatusWarning, StatusError}
	for i := 1; i < len(ordered); i++ {
		if Severity(ordered[i]) <= Severity(ordered[i-1]) {
			t.Errorf("Severity(%s) should exceed Severity(%s)", ordered[i], ordered[i-1])
		}
		if got := Worst(ordered[i-1], ordered[i]); got != ordered[i] {
			t.Errorf("Worst(%s, %s) = %s", ordered[i-1], ordered[i], got)
		}
		if got := Worst(ordered[i], ordered[i-1]); got != ordered[i] {
			t.Errorf("Worst(%s, %s) = %s", ordered[i], ordered[i-1], got)
		}
	}

	if Severity("bogus") != Severity(StatusError) {
		t.Error("unknown statuses should rank as errors")
	}
	if ValidStatus("bogus") {
		t.Error("bogus should not be a valid status")
	}
	for _, s := range ordered {
		if !ValidStatus(s) {
			t.Errorf("%s should be valid", s)
		}
	}
}

func TestHealthStatus_JSONFieldNames(t *testing.T) {
	status := NewNoticeStatus("RuntimeVersionCheck", "upgrade", "upgrade-recommended")

	data, err := json.Marshal(status)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}

	if raw["help_anchor"] != "upgrade-recommended" {
		t.Errorf("help_anchor = %v", raw["help_anchor"])
	}
	if _, ok := raw["details"]; ok {
		t.Error("empty details should be omitted")
	}
}
