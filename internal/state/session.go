package state

import (
	"slices"
	"strings"

	"github.com/hylla/famboard/internal/domain"
)

// Screen is the top-level screen the client shows.
type Screen string

// Screen values.
const (
	ScreenLaunching  Screen = "launching"
	ScreenSignedOut  Screen = "signedOut"
	ScreenLoading    Screen = "loading"
	ScreenOnboarding Screen = "onboarding"
	ScreenMain       Screen = "main"
)

// Session holds identity, groups and the active screen.
type Session struct {
	Screen          Screen         `json:"screen"`
	UserID          string         `json:"user_id,omitempty"`
	DisplayName     string         `json:"display_name,omitempty"`
	Groups          []domain.Group `json:"groups,omitempty"`
	SelectedGroupID string         `json:"selected_group_id,omitempty"`
	Loading         bool           `json:"loading"`
	Error           string         `json:"error,omitempty"`
}

// SignedIn reports whether a user is authenticated.
func (s Session) SignedIn() bool {
	return s.UserID != ""
}

// SelectedGroup returns the active group.
func (s Session) SelectedGroup() (domain.Group, bool) {
	return findGroup(s.Groups, s.SelectedGroupID)
}

// AuthCompleted reports a successful sign-in.
type AuthCompleted struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

// SignedOut clears every slice.
type SignedOut struct{}

// GroupsLoaded delivers the user's groups.
type GroupsLoaded struct {
	Groups []domain.Group `json:"groups"`
}

// GroupsLoadFailed reports a failed group load.
type GroupsLoadFailed struct {
	Failure domain.Failure `json:"failure"`
}

// SelectGroup switches the active group.
type SelectGroup struct {
	GroupID string `json:"group_id"`
}

func (AuthCompleted) IntentName() string    { return "session.auth_completed" }
func (SignedOut) IntentName() string        { return "session.signed_out" }
func (GroupsLoaded) IntentName() string     { return "session.groups_loaded" }
func (GroupsLoadFailed) IntentName() string { return "session.groups_load_failed" }
func (SelectGroup) IntentName() string      { return "session.select_group" }

func (AuthCompleted) sessionIntent()    {}
func (SignedOut) sessionIntent()        {}
func (GroupsLoaded) sessionIntent()     {}
func (GroupsLoadFailed) sessionIntent() {}
func (SelectGroup) sessionIntent()      {}

func (i GroupsLoadFailed) failure() domain.Failure { return i.Failure }

// reduceSession applies session intents to the whole tree, since several of them re-scope other slices.
func reduceSession(s State, intent SessionIntent) State {
	switch i := intent.(type) {
	case AuthCompleted:
		userID := strings.TrimSpace(i.UserID)
		if userID == "" {
			return s
		}
		next := New()
		next.Debug = s.Debug
		next.Sharing.Accept = s.Sharing.Accept
		next.Session = Session{
			Screen:      ScreenLoading,
			UserID:      userID,
			DisplayName: strings.TrimSpace(i.DisplayName),
			Loading:     true,
		}
		return next
	case SignedOut:
		next := New()
		next.Session.Screen = ScreenSignedOut
		return next
	case GroupsLoaded:
		if !s.Session.SignedIn() {
			return s
		}
		s.Session.Groups = slices.Clone(i.Groups)
		s.Session.Loading = false
		s.Session.Error = ""
		if len(i.Groups) == 0 {
			s.Session.Screen = ScreenOnboarding
			return rescope(s, "")
		}
		s.Session.Screen = ScreenMain
		selected := s.Session.SelectedGroupID
		if _, ok := findGroup(i.Groups, selected); !ok {
			selected = i.Groups[0].ID
		}
		if selected == s.Session.SelectedGroupID {
			return s
		}
		return rescope(s, selected)
	case GroupsLoadFailed:
		s.Session.Loading = false
		s.Session.Error = i.Failure.Message
		return s
	case SelectGroup:
		if _, ok := findGroup(s.Session.Groups, i.GroupID); !ok || i.GroupID == s.Session.SelectedGroupID {
			return s
		}
		return rescope(s, i.GroupID)
	}
	return s
}

// rescope points every group-scoped slice at groupID, discarding their contents.
// A received invitation belongs to the user, so it survives.
func rescope(s State, groupID string) State {
	fresh := New()
	s.Session.SelectedGroupID = groupID
	s.Schedule = fresh.Schedule
	s.Assignments = fresh.Assignments
	s.Home = fresh.Home
	fresh.Sharing.Accept = s.Sharing.Accept
	s.Sharing = fresh.Sharing
	s.Shopping = fresh.Shopping
	s.Recipe = fresh.Recipe
	return s
}

func findGroup(groups []domain.Group, id string) (domain.Group, bool) {
	if id == "" {
		return domain.Group{}, false
	}
	for _, g := range groups {
		if g.ID == id {
			return g, true
		}
	}
	return domain.Group{}, false
}
