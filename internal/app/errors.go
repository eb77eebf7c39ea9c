package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/hylla/famboard/internal/domain"
)

// ErrNotFound and related errors describe capability and runtime failures.
var (
	ErrNotFound          = errors.New("not found")
	ErrStorage           = errors.New("storage failure")
	ErrFetchFailed       = errors.New("fetch failed")
	ErrNotConfigured     = errors.New("not configured")
	ErrExtractionFailed  = errors.New("extraction failed")
	ErrTransformFailed   = errors.New("transform failed")
	ErrEntitlement       = errors.New("entitlement unavailable")
	ErrInvalidInvitation = errors.New("invalid invitation")
	ErrSharing           = errors.New("sharing unavailable")
	ErrNoGroup           = errors.New("no group selected")
	ErrNotSignedIn       = errors.New("not signed in")
	ErrUnsupportedIntent = errors.New("unsupported intent")
)

var invalidInputErrors = []error{
	domain.ErrInvalidID,
	domain.ErrInvalidName,
	domain.ErrInvalidTitle,
	domain.ErrInvalidDate,
	domain.ErrInvalidURL,
	domain.ErrInvalidSlot,
	domain.ErrInvalidTarget,
	domain.ErrInvalidStatus,
	domain.ErrInvalidLocation,
	domain.ErrEmptyIngredients,
	domain.ErrDuplicateStep,
	ErrNoGroup,
	ErrNotSignedIn,
}

// Classify maps an error to the failure cause carried by error intents.
func Classify(err error) domain.FailureCause {
	switch {
	case err == nil:
		return domain.CauseUnknown
	case errors.Is(err, ErrNotConfigured):
		return domain.CauseNotConfigured
	case errors.Is(err, ErrExtractionFailed):
		return domain.CauseExtraction
	case errors.Is(err, ErrTransformFailed):
		return domain.CauseTransform
	case errors.Is(err, ErrEntitlement):
		return domain.CauseEntitlement
	case errors.Is(err, ErrInvalidInvitation), errors.Is(err, ErrSharing):
		return domain.CauseSharing
	case errors.Is(err, ErrFetchFailed), errors.Is(err, context.DeadlineExceeded):
		return domain.CauseNetwork
	case errors.Is(err, ErrStorage), errors.Is(err, ErrNotFound):
		return domain.CauseStorage
	}
	for _, target := range invalidInputErrors {
		if errors.Is(err, target) {
			return domain.CauseInvalid
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return domain.CauseNetwork
	}
	return domain.CauseUnknown
}

// FailureFrom builds the user-facing failure for op.
func FailureFrom(op string, err error) domain.Failure {
	cause := Classify(err)
	var msg string
	switch cause {
	case domain.CauseNotConfigured:
		msg = op + " is not available: not configured"
	case domain.CauseNetwork:
		msg = op + " failed: check your connection"
	default:
		msg = op + " failed"
	}
	if err != nil {
		if detail := strings.TrimSpace(err.Error()); detail != "" {
			msg += " (" + detail + ")"
		}
	}
	return domain.Failure{Message: msg, Cause: cause}
}

// withCause wraps err in fallback unless it already classifies to a known cause.
func withCause(err, fallback error) error {
	if err == nil || Classify(err) != domain.CauseUnknown {
		return err
	}
	return fmt.Errorf("%w: %w", fallback, err)
}
