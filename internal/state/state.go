package state

import (
	"slices"

	"github.com/hylla/famboard/internal/domain"
)

// State is the whole application state tree. It is a value: reducers return a new tree and never
// mutate slices reachable from their input.
type State struct {
	Session      Session           `json:"session"`
	Schedule     ScheduleState     `json:"schedule"`
	Assignments  AssignmentsState  `json:"assignments"`
	Home         HomeState         `json:"home"`
	Sharing      SharingState      `json:"sharing"`
	Recipe       RecipeState       `json:"recipe"`
	Shopping     ShoppingState     `json:"shopping"`
	Subscription SubscriptionState `json:"subscription"`
	Debug        DebugState        `json:"debug"`
}

// New returns the initial state tree.
func New() State {
	return State{
		Session: Session{Screen: ScreenLaunching},
		Sharing: newSharingState(),
		Recipe:  RecipeState{Substitution: Substitution{Phase: PhaseClosed}},
	}
}

// GroupOwner returns the owner of group-scoped records for the selected group.
func (s State) GroupOwner() domain.Owner {
	return domain.GroupOwner(s.Session.SelectedGroupID)
}

// MemberOwner returns the owner of the signed-in member's records in the selected group.
func (s State) MemberOwner() domain.Owner {
	return domain.Owner{GroupID: s.Session.SelectedGroupID, UserID: s.Session.UserID}
}

// DisplayNames maps member ids of the selected group to display names.
func (s State) DisplayNames() map[string]string {
	if g, ok := s.Session.SelectedGroup(); ok {
		return g.DisplayNames()
	}
	return map[string]string{}
}

// replaceAt returns a copy of items with index i set to v.
func replaceAt[T any](items []T, i int, v T) []T {
	out := slices.Clone(items)
	out[i] = v
	return out
}
