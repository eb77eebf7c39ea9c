package domain

import (
	"strings"
	"time"
)

// Role is a member's role in a group.
type Role string

// Role values.
const (
	RoleOwner  Role = "owner"
	RoleMember Role = "member"
)

// Member is one participant of a group.
type Member struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Role        Role   `json:"role"`
}

// Group is a family or carpool sharing schedules and recipes.
type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Members   []Member  `json:"members"`
	CreatedAt time.Time `json:"created_at"`
}

// NewGroup validates a group owned by ownerID.
func NewGroup(id, name, ownerID, ownerName string, now time.Time) (Group, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	ownerID = strings.TrimSpace(ownerID)
	if id == "" || ownerID == "" {
		return Group{}, ErrInvalidID
	}
	if name == "" {
		return Group{}, ErrInvalidName
	}
	return Group{
		ID:   id,
		Name: name,
		Members: []Member{{
			UserID:      ownerID,
			DisplayName: displayNameOr(ownerName, ownerID),
			Role:        RoleOwner,
		}},
		CreatedAt: now.UTC(),
	}, nil
}

// HasMember reports whether userID belongs to the group.
func (g Group) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// DisplayNames maps member ids to display names.
func (g Group) DisplayNames() map[string]string {
	out := make(map[string]string, len(g.Members))
	for _, m := range g.Members {
		out[m.UserID] = displayNameOr(m.DisplayName, m.UserID)
	}
	return out
}

// JoinRequestStatus is the lifecycle state of a join request.
type JoinRequestStatus string

// JoinRequestStatus values.
const (
	JoinRequestPending  JoinRequestStatus = "pending"
	JoinRequestApproved JoinRequestStatus = "approved"
	JoinRequestRejected JoinRequestStatus = "rejected"
)

// IsValid reports whether s is a known status.
func (s JoinRequestStatus) IsValid() bool {
	switch s {
	case JoinRequestPending, JoinRequestApproved, JoinRequestRejected:
		return true
	default:
		return false
	}
}

// JoinRequest is a participant asking to join a group through an invitation.
type JoinRequest struct {
	ParticipantID string            `json:"participant_id"`
	GroupID       string            `json:"group_id"`
	DisplayName   string            `json:"display_name"`
	Status        JoinRequestStatus `json:"status"`
	RequestedAt   time.Time         `json:"requested_at"`
}

// Category is a named, user-curated set of recipes.
type Category struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	RecipeIDs []string `json:"recipe_ids"`
}

func displayNameOr(name, fallback string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return fallback
	}
	return name
}
