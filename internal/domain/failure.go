package domain

// FailureCause classifies a recoverable failure.
type FailureCause string

// FailureCause values.
const (
	CauseNetwork       FailureCause = "network"
	CauseStorage       FailureCause = "storage"
	CauseNotConfigured FailureCause = "not_configured"
	CauseExtraction    FailureCause = "extraction"
	CauseTransform     FailureCause = "transform"
	CauseEntitlement   FailureCause = "entitlement"
	CauseSharing       FailureCause = "sharing"
	CauseInvalid       FailureCause = "invalid"
	CauseUnknown       FailureCause = "unknown"
)

// Failure is the user-facing message and cause of a failed operation.
type Failure struct {
	Message string       `json:"message"`
	Cause   FailureCause `json:"cause"`
}

// Error implements error so a Failure can be logged directly.
func (f Failure) Error() string {
	if f.Cause == "" {
		return f.Message
	}
	return string(f.Cause) + ": " + f.Message
}
