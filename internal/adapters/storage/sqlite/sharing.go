package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/hylla/famboard/internal/app"
	"github.com/hylla/famboard/internal/domain"
)

var _ app.Sharing = (*Sharing)(nil)

// Sharing issues invitation links and manages join requests on top of a Repository.
type Sharing struct {
	repo    *Repository
	baseURL string
	token   func() string
}

// NewSharing builds invitation links under baseURL, for example "https://famboard.app/join".
func NewSharing(repo *Repository, baseURL string) *Sharing {
	return &Sharing{
		repo:    repo,
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   uuid.NewString,
	}
}

// CreateInvitation stores a new token for groupID and returns its link.
func (s *Sharing) CreateInvitation(ctx context.Context, groupID, inviterID string) (string, error) {
	if s.baseURL == "" {
		return "", app.ErrNotConfigured
	}
	group, err := s.repo.GetGroup(ctx, groupID)
	if err != nil {
		return "", err
	}
	if !group.HasMember(inviterID) {
		return "", fmt.Errorf("%w: %s is not a member of %s", app.ErrSharing, inviterID, groupID)
	}
	token := s.token()
	if _, err := s.repo.db.ExecContext(ctx, `
		INSERT INTO invitations(token, group_id, inviter_id, created_at)
		VALUES (?, ?, ?, ?)
	`, token, groupID, inviterID, ts(s.repo.now())); err != nil {
		return "", err
	}
	return s.baseURL + "/" + url.PathEscape(token), nil
}

// AcceptInvitation adds userID to the group behind token. token may be the bare token or the full link.
func (s *Sharing) AcceptInvitation(ctx context.Context, token, userID, displayName string) (group domain.Group, err error) {
	token = invitationToken(token)
	if token == "" || strings.TrimSpace(userID) == "" {
		return domain.Group{}, app.ErrInvalidInvitation
	}
	tx, err := s.repo.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Group{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var groupID string
	err = tx.QueryRowContext(ctx, `
		SELECT group_id FROM invitations WHERE token = ? AND revoked_at IS NULL
	`, token).Scan(&groupID)
	if errors.Is(err, sql.ErrNoRows) {
		err = app.ErrInvalidInvitation
	}
	if err != nil {
		return domain.Group{}, err
	}
	now := s.repo.now()
	member := domain.Member{UserID: strings.TrimSpace(userID), DisplayName: displayName, Role: domain.RoleMember}
	if err = addMember(ctx, tx, groupID, member, now); err != nil {
		return domain.Group{}, err
	}
	if group, err = getGroup(ctx, tx, groupID); err != nil {
		return domain.Group{}, err
	}
	err = tx.Commit()
	return group, err
}

// RevokeInvitation stops token from being accepted.
func (s *Sharing) RevokeInvitation(ctx context.Context, token string) error {
	res, err := s.repo.db.ExecContext(ctx, `
		UPDATE invitations SET revoked_at = ? WHERE token = ? AND revoked_at IS NULL
	`, ts(s.repo.now()), invitationToken(token))
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// RequestJoin records a pending request from participantID to join the group behind token.
func (s *Sharing) RequestJoin(ctx context.Context, token, participantID, displayName string) (domain.JoinRequest, error) {
	token = invitationToken(token)
	participantID = strings.TrimSpace(participantID)
	if token == "" || participantID == "" {
		return domain.JoinRequest{}, app.ErrInvalidInvitation
	}
	var groupID string
	err := s.repo.db.QueryRowContext(ctx, `
		SELECT group_id FROM invitations WHERE token = ? AND revoked_at IS NULL
	`, token).Scan(&groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.JoinRequest{}, app.ErrInvalidInvitation
	}
	if err != nil {
		return domain.JoinRequest{}, err
	}
	req := domain.JoinRequest{
		ParticipantID: participantID,
		GroupID:       groupID,
		DisplayName:   strings.TrimSpace(displayName),
		Status:        domain.JoinRequestPending,
		RequestedAt:   s.repo.now().UTC(),
	}
	if _, err := s.repo.db.ExecContext(ctx, `
		INSERT INTO join_requests(group_id, participant_id, display_name, status, requested_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(group_id, participant_id) DO UPDATE SET
			display_name = excluded.display_name,
			status = excluded.status,
			requested_at = excluded.requested_at
		WHERE join_requests.status <> 'approved'
	`, req.GroupID, req.ParticipantID, req.DisplayName, string(req.Status), ts(req.RequestedAt)); err != nil {
		return domain.JoinRequest{}, err
	}
	return req, nil
}

// ListJoinRequests lists groupID's join requests, oldest first.
func (s *Sharing) ListJoinRequests(ctx context.Context, groupID string) ([]domain.JoinRequest, error) {
	rows, err := s.repo.db.QueryContext(ctx, `
		SELECT group_id, participant_id, display_name, status, requested_at
		FROM join_requests
		WHERE group_id = ?
		ORDER BY requested_at ASC, participant_id ASC
	`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.JoinRequest{}
	for rows.Next() {
		var (
			req          domain.JoinRequest
			status       string
			requestedRaw string
		)
		if err := rows.Scan(&req.GroupID, &req.ParticipantID, &req.DisplayName, &status, &requestedRaw); err != nil {
			return nil, err
		}
		req.Status = domain.JoinRequestStatus(status)
		if !req.Status.IsValid() {
			return nil, fmt.Errorf("decode join_requests.status %q: %w", status, domain.ErrInvalidStatus)
		}
		req.RequestedAt = parseTS(requestedRaw)
		out = append(out, req)
	}
	return out, rows.Err()
}

// ApproveJoinRequest admits a pending participant as a member.
func (s *Sharing) ApproveJoinRequest(ctx context.Context, groupID, participantID string) error {
	return s.resolve(ctx, groupID, participantID, domain.JoinRequestApproved)
}

// RejectJoinRequest turns a pending participant away.
func (s *Sharing) RejectJoinRequest(ctx context.Context, groupID, participantID string) error {
	return s.resolve(ctx, groupID, participantID, domain.JoinRequestRejected)
}

func (s *Sharing) resolve(ctx context.Context, groupID, participantID string, status domain.JoinRequestStatus) (err error) {
	tx, err := s.repo.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var displayName string
	err = tx.QueryRowContext(ctx, `
		SELECT display_name FROM join_requests
		WHERE group_id = ? AND participant_id = ? AND status = 'pending'
	`, groupID, participantID).Scan(&displayName)
	if errors.Is(err, sql.ErrNoRows) {
		err = fmt.Errorf("%w: no pending request from %s", app.ErrSharing, participantID)
	}
	if err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `
		UPDATE join_requests SET status = ? WHERE group_id = ? AND participant_id = ?
	`, string(status), groupID, participantID); err != nil {
		return err
	}
	if status == domain.JoinRequestApproved {
		member := domain.Member{UserID: participantID, DisplayName: displayName, Role: domain.RoleMember}
		if err = addMember(ctx, tx, groupID, member, s.repo.now()); err != nil {
			return err
		}
	}
	err = tx.Commit()
	return err
}

// invitationToken extracts the token from a bare token or an invitation link.
func invitationToken(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "/") {
		return raw
	}
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		raw = u.Path
	}
	token, err := url.PathUnescape(path.Base(strings.TrimRight(raw, "/")))
	if err != nil || token == "." || token == "/" {
		return ""
	}
	return token
}
