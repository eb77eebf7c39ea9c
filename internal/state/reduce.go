package state

import (
	"slices"

	"github.com/hylla/famboard/internal/domain"
)

// Reduce is the root reducer: it routes intent to its owning slice and applies cross-slice
// derivations. It is pure; the same state and intent always produce the same result.
func Reduce(s State, intent Intent) State {
	if intent == nil {
		return s
	}
	switch i := intent.(type) {
	case SessionIntent:
		s = reduceSession(s, i)
	case ScheduleIntent:
		s.Schedule = ReduceSchedule(s.Schedule, s.MemberOwner(), i)
	case AssignmentIntent:
		wasLoading := s.Assignments.Loading
		s.Assignments = ReduceAssignments(s.Assignments, s.Session.SelectedGroupID, i)
		if failed, ok := i.(WeekAssignmentsLoadFailed); ok && wasLoading && !s.Assignments.Loading && s.Home.Loading {
			s.Home.Loading = false
			s.Home.Error = failed.Failure.Message
		}
	case HomeIntent:
		s.Home = ReduceHome(s.Home, i)
	case SharingIntent:
		before := s.Sharing.Accept.Status
		s.Sharing = ReduceSharing(s.Sharing, i)
		if before != AcceptSuccess && s.Sharing.Accept.Status == AcceptSuccess && s.Sharing.Accept.Group != nil {
			s = joinGroup(s, *s.Sharing.Accept.Group)
		}
	case RecipeIntent:
		s.Recipe = ReduceRecipe(s.Recipe, i)
	case ShoppingIntent:
		s.Shopping = ReduceShopping(s.Shopping, i)
	case SubscriptionIntent:
		s.Subscription = ReduceSubscription(s.Subscription, i)
	case DebugIntent:
		s.Debug = ReduceDebug(s.Debug, i)
	}
	s.Debug = recordIntent(s.Debug, intent.IntentName())
	return s
}

// joinGroup adds a newly joined group to the session and selects it when it is the first one.
func joinGroup(s State, g domain.Group) State {
	if !s.Session.SignedIn() {
		return s
	}
	if _, ok := findGroup(s.Session.Groups, g.ID); ok {
		return s
	}
	s.Session.Groups = append(slices.Clone(s.Session.Groups), g)
	if s.Session.SelectedGroupID != "" {
		return s
	}
	s.Session.Screen = ScreenMain
	return rescope(s, g.ID)
}
