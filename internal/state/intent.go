// Package state holds the application state tree, the closed set of intents that may change it,
// and the pure reducers that apply one to the other.
package state

import (
	"errors"

	"github.com/hylla/famboard/internal/domain"
)

// ErrUnknownIntent reports an intent name missing from the catalog.
var ErrUnknownIntent = errors.New("unknown intent")

// Intent is a request to change state. Every concrete intent also implements exactly one of the
// sealed domain interfaces below, which only this package can satisfy.
type Intent interface {
	IntentName() string
}

// SessionIntent is handled by the session slice and the root reducer.
type SessionIntent interface {
	Intent
	sessionIntent()
}

// ScheduleIntent is handled by the schedule slice.
type ScheduleIntent interface {
	Intent
	scheduleIntent()
}

// AssignmentIntent is handled by the assignments slice.
type AssignmentIntent interface {
	Intent
	assignmentIntent()
}

// HomeIntent is handled by the home slice.
type HomeIntent interface {
	Intent
	homeIntent()
}

// SharingIntent is handled by the sharing slice.
type SharingIntent interface {
	Intent
	sharingIntent()
}

// RecipeIntent is handled by the recipe slice, substitution workflow included.
type RecipeIntent interface {
	Intent
	recipeIntent()
}

// ShoppingIntent is handled by the shopping list slice.
type ShoppingIntent interface {
	Intent
	shoppingIntent()
}

// SubscriptionIntent is handled by the subscription slice.
type SubscriptionIntent interface {
	Intent
	subscriptionIntent()
}

// DebugIntent is handled by the debug slice and only accepted when the debug feature is on.
type DebugIntent interface {
	Intent
	debugIntent()
}

// IsDebug reports whether i belongs to the debug feature.
func IsDebug(i Intent) bool {
	_, ok := i.(DebugIntent)
	return ok
}

// FailureOf returns the failure carried by an error intent.
func FailureOf(i Intent) (domain.Failure, bool) {
	f, ok := i.(failing)
	if !ok {
		return domain.Failure{}, false
	}
	return f.failure(), true
}

// failing is implemented by every error intent.
type failing interface {
	failure() domain.Failure
}
