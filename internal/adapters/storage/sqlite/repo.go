package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hylla/famboard/internal/app"
	"github.com/hylla/famboard/internal/domain"
	_ "modernc.org/sqlite"
)

// driverName defines a package constant value.
const driverName = "sqlite"

var _ app.Repository = (*Repository)(nil)

// Repository stores every group-scoped record in one sqlite database.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens the database at path, creating its directory and schema when missing.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return openDB(db)
}

// OpenInMemory opens a private in-memory database.
func OpenInMemory() (*Repository, error) {
	db, err := sql.Open(driverName, ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	// Every pooled connection would otherwise get its own empty database.
	db.SetMaxOpenConns(1)
	return openDB(db)
}

func openDB(db *sql.DB) (*Repository, error) {
	repo := &Repository{db: db, now: time.Now}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the database.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Ping reports whether the database answers.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// migrate handles migrate.
func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS groups_v1 (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS group_members (
			group_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			display_name TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL DEFAULT 'member',
			joined_at TEXT NOT NULL,
			PRIMARY KEY(group_id, user_id),
			FOREIGN KEY(group_id) REFERENCES groups_v1(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS schedule_entries (
			id TEXT PRIMARY KEY,
			group_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			day TEXT NOT NULL,
			drop_off TEXT NOT NULL DEFAULT 'notSet',
			pick_up TEXT NOT NULL DEFAULT 'notSet',
			updated_at TEXT NOT NULL,
			FOREIGN KEY(group_id) REFERENCES groups_v1(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS day_assignments (
			id TEXT PRIMARY KEY,
			group_id TEXT NOT NULL,
			day TEXT NOT NULL,
			drop_off_user_id TEXT NOT NULL DEFAULT '',
			pick_up_user_id TEXT NOT NULL DEFAULT '',
			drop_off_confirmed INTEGER NOT NULL DEFAULT 0,
			pick_up_confirmed INTEGER NOT NULL DEFAULT 0,
			updated_at TEXT NOT NULL,
			FOREIGN KEY(group_id) REFERENCES groups_v1(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS recipes (
			id TEXT PRIMARY KEY,
			group_id TEXT NOT NULL,
			title TEXT NOT NULL,
			body_json TEXT NOT NULL DEFAULT '{}',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			FOREIGN KEY(group_id) REFERENCES groups_v1(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS categories (
			id TEXT PRIMARY KEY,
			group_id TEXT NOT NULL,
			name TEXT NOT NULL,
			recipe_ids_json TEXT NOT NULL DEFAULT '[]',
			FOREIGN KEY(group_id) REFERENCES groups_v1(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS shopping_items (
			id TEXT PRIMARY KEY,
			group_id TEXT NOT NULL,
			name TEXT NOT NULL,
			amount TEXT NOT NULL DEFAULT '',
			checked INTEGER NOT NULL DEFAULT 0,
			recipe_id TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			FOREIGN KEY(group_id) REFERENCES groups_v1(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS invitations (
			token TEXT PRIMARY KEY,
			group_id TEXT NOT NULL,
			inviter_id TEXT NOT NULL,
			created_at TEXT NOT NULL,
			FOREIGN KEY(group_id) REFERENCES groups_v1(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS join_requests (
			group_id TEXT NOT NULL,
			participant_id TEXT NOT NULL,
			display_name TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'pending',
			requested_at TEXT NOT NULL,
			PRIMARY KEY(group_id, participant_id),
			FOREIGN KEY(group_id) REFERENCES groups_v1(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS purchases (
			user_id TEXT NOT NULL,
			product_id TEXT NOT NULL,
			purchased_at TEXT NOT NULL,
			PRIMARY KEY(user_id, product_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_group_members_user ON group_members(user_id);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_schedule_entries_owner_day ON schedule_entries(group_id, user_id, day);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_day_assignments_group_day ON day_assignments(group_id, day);`,
		`CREATE INDEX IF NOT EXISTS idx_recipes_group_created_at ON recipes(group_id, created_at ASC, id ASC);`,
		`CREATE INDEX IF NOT EXISTS idx_shopping_items_group_created_at ON shopping_items(group_id, created_at ASC, id ASC);`,
	}

	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	if _, err := r.db.ExecContext(ctx, `ALTER TABLE invitations ADD COLUMN revoked_at TEXT`); err != nil && !isDuplicateColumnErr(err) {
		return fmt.Errorf("migrate sqlite add invitations.revoked_at: %w", err)
	}
	return nil
}

// ListGroups lists the groups userID belongs to, oldest first.
func (r *Repository) ListGroups(ctx context.Context, userID string) ([]domain.Group, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT g.id, g.name, g.created_at
		FROM groups_v1 g
		JOIN group_members m ON m.group_id = g.id
		WHERE m.user_id = ?
		ORDER BY g.created_at ASC, g.id ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Group{}
	for rows.Next() {
		var (
			g          domain.Group
			createdRaw string
		)
		if err := rows.Scan(&g.ID, &g.Name, &createdRaw); err != nil {
			return nil, err
		}
		g.CreatedAt = parseTS(createdRaw)
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		members, err := listMembers(ctx, r.db, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Members = members
	}
	return out, nil
}

// GetGroup returns one group with its members.
func (r *Repository) GetGroup(ctx context.Context, id string) (domain.Group, error) {
	return getGroup(ctx, r.db, id)
}

// CreateGroup inserts group and its members.
func (r *Repository) CreateGroup(ctx context.Context, group domain.Group) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO groups_v1(id, name, created_at)
		VALUES (?, ?, ?)
	`, group.ID, group.Name, ts(group.CreatedAt)); err != nil {
		return err
	}
	for _, m := range group.Members {
		if err = addMember(ctx, tx, group.ID, m, group.CreatedAt); err != nil {
			return err
		}
	}
	err = tx.Commit()
	return err
}

// ListScheduleEntries lists owner's stored entries between from and to inclusive.
func (r *Repository) ListScheduleEntries(ctx context.Context, owner domain.Owner, from, to domain.Date) ([]domain.DayScheduleEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, group_id, user_id, day, drop_off, pick_up
		FROM schedule_entries
		WHERE group_id = ? AND user_id = ? AND day >= ? AND day <= ?
		ORDER BY day ASC
	`, owner.GroupID, owner.UserID, from.String(), to.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.DayScheduleEntry{}
	for rows.Next() {
		var (
			e               domain.DayScheduleEntry
			dayRaw          string
			dropOff, pickUp string
		)
		if err := rows.Scan(&e.ID, &e.GroupID, &e.UserID, &dayRaw, &dropOff, &pickUp); err != nil {
			return nil, err
		}
		if e.Date, err = domain.ParseDate(dayRaw); err != nil {
			return nil, fmt.Errorf("decode schedule_entries.day: %w", err)
		}
		e.DropOff = domain.NormalizeAvailability(domain.Availability(dropOff))
		e.PickUp = domain.NormalizeAvailability(domain.Availability(pickUp))
		out = append(out, e)
	}
	return out, rows.Err()
}

// SaveScheduleEntries upserts entries in one transaction.
func (r *Repository) SaveScheduleEntries(ctx context.Context, entries []domain.DayScheduleEntry) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := ts(r.now())
	for _, e := range entries {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO schedule_entries(id, group_id, user_id, day, drop_off, pick_up, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				drop_off = excluded.drop_off,
				pick_up = excluded.pick_up,
				updated_at = excluded.updated_at
		`, e.ID, e.GroupID, e.UserID, e.Date.String(), string(e.DropOff), string(e.PickUp), now); err != nil {
			return err
		}
	}
	err = tx.Commit()
	return err
}

// ListAssignments lists groupID's stored assignments between from and to inclusive.
func (r *Repository) ListAssignments(ctx context.Context, groupID string, from, to domain.Date) ([]domain.DayAssignment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, group_id, day, drop_off_user_id, pick_up_user_id, drop_off_confirmed, pick_up_confirmed
		FROM day_assignments
		WHERE group_id = ? AND day >= ? AND day <= ?
		ORDER BY day ASC
	`, groupID, from.String(), to.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.DayAssignment{}
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// SaveAssignment upserts one day and returns the stored row.
func (r *Repository) SaveAssignment(ctx context.Context, a domain.DayAssignment) (domain.DayAssignment, error) {
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO day_assignments(id, group_id, day, drop_off_user_id, pick_up_user_id, drop_off_confirmed, pick_up_confirmed, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			drop_off_user_id = excluded.drop_off_user_id,
			pick_up_user_id = excluded.pick_up_user_id,
			drop_off_confirmed = excluded.drop_off_confirmed,
			pick_up_confirmed = excluded.pick_up_confirmed,
			updated_at = excluded.updated_at
	`, a.ID, a.GroupID, a.Date.String(), a.DropOffUserID, a.PickUpUserID, a.DropOffConfirmed, a.PickUpConfirmed, ts(r.now())); err != nil {
		return domain.DayAssignment{}, err
	}
	row := r.db.QueryRowContext(ctx, `
		SELECT id, group_id, day, drop_off_user_id, pick_up_user_id, drop_off_confirmed, pick_up_confirmed
		FROM day_assignments
		WHERE id = ?
	`, a.ID)
	return scanAssignment(row)
}

// queryRower represents a query-only DB contract used by DB and Tx implementations.
type queryRower interface {
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// execerContext represents a write-only DB contract used by DB and Tx implementations.
type execerContext interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
}

// getGroup returns a group with members.
func getGroup(ctx context.Context, q queryRower, id string) (domain.Group, error) {
	var (
		g          domain.Group
		createdRaw string
	)
	err := q.QueryRowContext(ctx, `SELECT id, name, created_at FROM groups_v1 WHERE id = ?`, id).Scan(&g.ID, &g.Name, &createdRaw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Group{}, app.ErrNotFound
		}
		return domain.Group{}, err
	}
	g.CreatedAt = parseTS(createdRaw)
	if g.Members, err = listMembers(ctx, q, id); err != nil {
		return domain.Group{}, err
	}
	return g, nil
}

// listMembers lists a group's members in join order.
func listMembers(ctx context.Context, q queryRower, groupID string) ([]domain.Member, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT user_id, display_name, role
		FROM group_members
		WHERE group_id = ?
		ORDER BY joined_at ASC, user_id ASC
	`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Member{}
	for rows.Next() {
		var (
			m    domain.Member
			role string
		)
		if err := rows.Scan(&m.UserID, &m.DisplayName, &role); err != nil {
			return nil, err
		}
		m.Role = domain.Role(role)
		if m.Role != domain.RoleOwner {
			m.Role = domain.RoleMember
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// addMember inserts m unless they already belong to the group.
func addMember(ctx context.Context, execer execerContext, groupID string, m domain.Member, joinedAt time.Time) error {
	role := m.Role
	if role == "" {
		role = domain.RoleMember
	}
	_, err := execer.ExecContext(ctx, `
		INSERT INTO group_members(group_id, user_id, display_name, role, joined_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(group_id, user_id) DO NOTHING
	`, groupID, m.UserID, strings.TrimSpace(m.DisplayName), string(role), ts(joinedAt))
	return err
}

// scanner represents scanner data used by this package.
type scanner interface {
	Scan(dest ...any) error
}

// scanAssignment handles scan assignment.
func scanAssignment(s scanner) (domain.DayAssignment, error) {
	var (
		a      domain.DayAssignment
		dayRaw string
	)
	if err := s.Scan(&a.ID, &a.GroupID, &dayRaw, &a.DropOffUserID, &a.PickUpUserID, &a.DropOffConfirmed, &a.PickUpConfirmed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.DayAssignment{}, app.ErrNotFound
		}
		return domain.DayAssignment{}, err
	}
	day, err := domain.ParseDate(dayRaw)
	if err != nil {
		return domain.DayAssignment{}, fmt.Errorf("decode day_assignments.day: %w", err)
	}
	a.Date = day
	return a, nil
}

// translateNoRows handles translate no rows.
func translateNoRows(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return app.ErrNotFound
	}
	return nil
}

// ts handles ts.
func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTS parses input into a normalized form.
func parseTS(v string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}

// isDuplicateColumnErr reports whether the expected condition is satisfied.
func isDuplicateColumnErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "duplicate column name")
}
