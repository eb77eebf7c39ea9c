package state

import (
	"slices"
	"strings"

	"github.com/hylla/famboard/internal/domain"
)

// InviteStatus is the inviting side of the invitation flow.
type InviteStatus string

// InviteStatus values.
const (
	InviteIdle     InviteStatus = "idle"
	InviteCreating InviteStatus = "creating"
	InviteSuccess  InviteStatus = "success"
	InviteError    InviteStatus = "error"
)

// AcceptStatus is the accepting side of the invitation flow.
type AcceptStatus string

// AcceptStatus values.
const (
	AcceptIdle      AcceptStatus = "idle"
	AcceptPending   AcceptStatus = "pending"
	AcceptAccepting AcceptStatus = "accepting"
	AcceptSuccess   AcceptStatus = "success"
	AcceptError     AcceptStatus = "error"
)

// Invitation tracks an invitation link being created for the selected group.
type Invitation struct {
	Status InviteStatus `json:"status"`
	URL    string       `json:"url,omitempty"`
	Error  string       `json:"error,omitempty"`
}

// Acceptance tracks an invitation received by this user.
type Acceptance struct {
	Status AcceptStatus  `json:"status"`
	Token  string        `json:"token,omitempty"`
	Group  *domain.Group `json:"group,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// SharingState holds both invitation flows and the group's join requests.
// Processing names the one join request being resolved, if any. Only the call's own result
// releases it.
type SharingState struct {
	Invite          Invitation           `json:"invite"`
	Accept          Acceptance           `json:"accept"`
	JoinRequests    []domain.JoinRequest `json:"join_requests"`
	RequestsLoading bool                 `json:"requests_loading"`
	Processing      string               `json:"processing,omitempty"`
	Error           string               `json:"error,omitempty"`
}

func newSharingState() SharingState {
	return SharingState{
		Invite: Invitation{Status: InviteIdle},
		Accept: Acceptance{Status: AcceptIdle},
	}
}

// PendingRequest returns the pending request of participantID.
func (s SharingState) PendingRequest(participantID string) (domain.JoinRequest, bool) {
	for _, r := range s.JoinRequests {
		if r.ParticipantID == participantID && r.Status == domain.JoinRequestPending {
			return r, true
		}
	}
	return domain.JoinRequest{}, false
}

// CreateInvitation asks for a new invitation link for the selected group.
type CreateInvitation struct{}

// InvitationCreated delivers the invitation link.
type InvitationCreated struct {
	URL string `json:"url"`
}

// InvitationCreateFailed reports a failed invitation.
type InvitationCreateFailed struct {
	Failure domain.Failure `json:"failure"`
}

// ResetInvitation returns the inviting side to idle.
type ResetInvitation struct{}

// ReceiveInvitation records a token opened from an invitation link.
type ReceiveInvitation struct {
	Token string `json:"token"`
}

// AcceptInvitation joins the group behind the pending token.
type AcceptInvitation struct{}

// InvitationAccepted delivers the joined group.
type InvitationAccepted struct {
	Group domain.Group `json:"group"`
}

// InvitationAcceptFailed reports a failed acceptance.
type InvitationAcceptFailed struct {
	Failure domain.Failure `json:"failure"`
}

// DismissInvitation returns the accepting side to idle.
type DismissInvitation struct{}

// LoadJoinRequests loads the selected group's join requests.
type LoadJoinRequests struct{}

// JoinRequestsLoaded delivers join requests.
type JoinRequestsLoaded struct {
	Requests []domain.JoinRequest `json:"requests"`
}

// JoinRequestsLoadFailed reports a failed load.
type JoinRequestsLoadFailed struct {
	Failure domain.Failure `json:"failure"`
}

// ApproveJoinRequest admits a pending participant.
type ApproveJoinRequest struct {
	ParticipantID string `json:"participant_id"`
}

// RejectJoinRequest turns a pending participant away.
type RejectJoinRequest struct {
	ParticipantID string `json:"participant_id"`
}

// JoinRequestResolved reports the outcome of an approve or reject.
type JoinRequestResolved struct {
	ParticipantID string `json:"participant_id"`
	Approved      bool   `json:"approved"`
}

// JoinRequestFailed reports that resolving a request failed.
type JoinRequestFailed struct {
	ParticipantID string         `json:"participant_id"`
	Failure       domain.Failure `json:"failure"`
}

func (CreateInvitation) IntentName() string       { return "sharing.create_invitation" }
func (InvitationCreated) IntentName() string      { return "sharing.invitation_created" }
func (InvitationCreateFailed) IntentName() string { return "sharing.invitation_create_failed" }
func (ResetInvitation) IntentName() string        { return "sharing.reset_invitation" }
func (ReceiveInvitation) IntentName() string      { return "sharing.receive_invitation" }
func (AcceptInvitation) IntentName() string       { return "sharing.accept_invitation" }
func (InvitationAccepted) IntentName() string     { return "sharing.invitation_accepted" }
func (InvitationAcceptFailed) IntentName() string { return "sharing.invitation_accept_failed" }
func (DismissInvitation) IntentName() string      { return "sharing.dismiss_invitation" }
func (LoadJoinRequests) IntentName() string       { return "sharing.load_join_requests" }
func (JoinRequestsLoaded) IntentName() string     { return "sharing.join_requests_loaded" }
func (JoinRequestsLoadFailed) IntentName() string { return "sharing.join_requests_load_failed" }
func (ApproveJoinRequest) IntentName() string     { return "sharing.approve_join_request" }
func (RejectJoinRequest) IntentName() string      { return "sharing.reject_join_request" }
func (JoinRequestResolved) IntentName() string    { return "sharing.join_request_resolved" }
func (JoinRequestFailed) IntentName() string      { return "sharing.join_request_failed" }

func (CreateInvitation) sharingIntent()       {}
func (InvitationCreated) sharingIntent()      {}
func (InvitationCreateFailed) sharingIntent() {}
func (ResetInvitation) sharingIntent()        {}
func (ReceiveInvitation) sharingIntent()      {}
func (AcceptInvitation) sharingIntent()       {}
func (InvitationAccepted) sharingIntent()     {}
func (InvitationAcceptFailed) sharingIntent() {}
func (DismissInvitation) sharingIntent()      {}
func (LoadJoinRequests) sharingIntent()       {}
func (JoinRequestsLoaded) sharingIntent()     {}
func (JoinRequestsLoadFailed) sharingIntent() {}
func (ApproveJoinRequest) sharingIntent()     {}
func (RejectJoinRequest) sharingIntent()      {}
func (JoinRequestResolved) sharingIntent()    {}
func (JoinRequestFailed) sharingIntent()      {}

func (i InvitationCreateFailed) failure() domain.Failure { return i.Failure }
func (i InvitationAcceptFailed) failure() domain.Failure { return i.Failure }
func (i JoinRequestsLoadFailed) failure() domain.Failure { return i.Failure }
func (i JoinRequestFailed) failure() domain.Failure      { return i.Failure }

// ReduceSharing applies a sharing intent.
func ReduceSharing(s SharingState, intent SharingIntent) SharingState {
	switch i := intent.(type) {
	case CreateInvitation:
		if s.Invite.Status == InviteCreating {
			return s
		}
		s.Invite = Invitation{Status: InviteCreating}
		return s
	case InvitationCreated:
		if s.Invite.Status != InviteCreating || strings.TrimSpace(i.URL) == "" {
			return s
		}
		s.Invite = Invitation{Status: InviteSuccess, URL: strings.TrimSpace(i.URL)}
		return s
	case InvitationCreateFailed:
		if s.Invite.Status != InviteCreating {
			return s
		}
		s.Invite = Invitation{Status: InviteError, Error: i.Failure.Message}
		return s
	case ResetInvitation:
		s.Invite = Invitation{Status: InviteIdle}
		return s
	case ReceiveInvitation:
		token := strings.TrimSpace(i.Token)
		if token == "" || s.Accept.Status == AcceptAccepting {
			return s
		}
		s.Accept = Acceptance{Status: AcceptPending, Token: token}
		return s
	case AcceptInvitation:
		if s.Accept.Status != AcceptPending {
			return s
		}
		s.Accept.Status = AcceptAccepting
		s.Accept.Error = ""
		return s
	case InvitationAccepted:
		if s.Accept.Status != AcceptAccepting {
			return s
		}
		group := i.Group
		group.Members = slices.Clone(i.Group.Members)
		s.Accept = Acceptance{Status: AcceptSuccess, Group: &group}
		return s
	case InvitationAcceptFailed:
		if s.Accept.Status != AcceptAccepting {
			return s
		}
		s.Accept = Acceptance{Status: AcceptError, Token: s.Accept.Token, Error: i.Failure.Message}
		return s
	case DismissInvitation:
		s.Accept = Acceptance{Status: AcceptIdle}
		return s
	case LoadJoinRequests:
		s.RequestsLoading = true
		s.Error = ""
		return s
	case JoinRequestsLoaded:
		s.JoinRequests = slices.Clone(i.Requests)
		s.RequestsLoading = false
		return s
	case JoinRequestsLoadFailed:
		if !s.RequestsLoading {
			return s
		}
		s.RequestsLoading = false
		s.Error = i.Failure.Message
		return s
	case ApproveJoinRequest:
		return startResolving(s, i.ParticipantID)
	case RejectJoinRequest:
		return startResolving(s, i.ParticipantID)
	case JoinRequestResolved:
		if s.Processing == "" || s.Processing != i.ParticipantID {
			return s
		}
		status := domain.JoinRequestRejected
		if i.Approved {
			status = domain.JoinRequestApproved
		}
		s.JoinRequests = slices.Clone(s.JoinRequests)
		for idx := range s.JoinRequests {
			if s.JoinRequests[idx].ParticipantID == i.ParticipantID {
				s.JoinRequests[idx].Status = status
			}
		}
		s.Processing = ""
		return s
	case JoinRequestFailed:
		if s.Processing == "" || s.Processing != i.ParticipantID {
			return s
		}
		s.Processing = ""
		s.Error = i.Failure.Message
		return s
	}
	return s
}

// startResolving claims the exclusive processing marker for a pending request.
func startResolving(s SharingState, participantID string) SharingState {
	if s.Processing != "" {
		return s
	}
	if _, ok := s.PendingRequest(participantID); !ok {
		return s
	}
	s.Processing = participantID
	s.Error = ""
	return s
}
