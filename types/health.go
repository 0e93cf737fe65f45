package types

// Health status constants describe the outcome of a single health check.
// They are ordered from least to most severe.
const (
	// StatusHealthy indicates the check found no issue.
	StatusHealthy = "healthy"

	// StatusNotice indicates a non-blocking advisory.
	StatusNotice = "notice"

	// StatusWarning indicates a problem that degrades but does not block operation.
	StatusWarning = "warning"

	// StatusError indicates a blocking or impactful issue.
	StatusError = "error"
)

// HealthStatus is the result of evaluating one health check.
// A HealthStatus is created fresh for every evaluation and is not mutated afterwards.
type HealthStatus struct {
	// Source identifies the check that produced this result. It is the
	// identifier assigned to the check when it was registered.
	Source string `json:"source" msgpack:"source"`

	// Status is one of StatusHealthy, StatusNotice, StatusWarning or StatusError.
	Status string `json:"status" msgpack:"status"`

	// Message is the localized, human-readable description. Healthy results
	// usually carry no message.
	Message string `json:"message,omitempty" msgpack:"message,omitempty"`

	// HelpAnchor names the documentation section that explains how to resolve
	// the issue, e.g. "old-unsupported".
	HelpAnchor string `json:"help_anchor,omitempty" msgpack:"help_anchor,omitempty"`

	// Details contains additional diagnostic information such as the observed
	// version or the threshold that matched.
	Details map[string]any `json:"details,omitempty" msgpack:"details,omitempty"`
}

// IsHealthy returns true if the status is StatusHealthy.
func (h HealthStatus) IsHealthy() bool {
	return h.Status == StatusHealthy
}

// IsNotice returns true if the status is StatusNotice.
func (h HealthStatus) IsNotice() bool {
	return h.Status == StatusNotice
}

// IsWarning returns true if the status is StatusWarning.
func (h HealthStatus) IsWarning() bool {
	return h.Status == StatusWarning
}

// IsError returns true if the status is StatusError.
func (h HealthStatus) IsError() bool {
	return h.Status == StatusError
}

// WithDetails returns a copy of h with the given details merged in.
func (h HealthStatus) WithDetails(details map[string]any) HealthStatus {
	merged := make(map[string]any, len(h.Details)+len(details))
	for k, v := range h.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	h.Details = merged
	return h
}

// NewHealthyStatus creates a healthy result with no message.
func NewHealthyStatus(source string) HealthStatus {
	return HealthStatus{
		Source: source,
		Status: StatusHealthy,
	}
}

// NewNoticeStatus creates an advisory result.
func NewNoticeStatus(source, message, anchor string) HealthStatus {
	return HealthStatus{
		Source:     source,
		Status:     StatusNotice,
		Message:    message,
		HelpAnchor: anchor,
	}
}

// NewWarningStatus creates a warning result.
func NewWarningStatus(source, message, anchor string) HealthStatus {
	return HealthStatus{
		Source:     source,
		Status:     StatusWarning,
		Message:    message,
		HelpAnchor: anchor,
	}
}

// NewErrorStatus creates an error result.
func NewErrorStatus(source, message, anchor string) HealthStatus {
	return HealthStatus{
		Source:     source,
		Status:     StatusError,
		Message:    message,
		HelpAnchor: anchor,
	}
}

// Severity ranks a status string from 0 (healthy) to 3 (error).
// Unknown statuses rank as errors so they are never silently ignored.
func Severity(status string) int {
	switch status {
	case StatusHealthy:
		return 0
	case StatusNotice:
		return 1
	case StatusWarning:
		return 2
	default:
		return 3
	}
}

// Worst returns the more severe of two statuses.
func Worst(a, b string) string {
	if Severity(b) > Severity(a) {
		return b
	}
	return a
}

// ValidStatus reports whether s is one of the known status constants.
func ValidStatus(s string) bool {
	switch s {
	case StatusHealthy, StatusNotice, StatusWarning, StatusError:
		return true
	}
	return false
}
