package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/relateos/internal/models"
	"github.com/mmynk/relateos/internal/storage"
)

const (
	inviteCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	inviteCodeLength   = 6
	inviteCodeAttempts = 5
)

// CreateGroup persists a new group and its creator membership in one transaction.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}
	if group.TargetAmount <= 0 {
		group.TargetAmount = models.DefaultTargetAmount
	}
	if group.Status == "" {
		group.Status = models.GroupStatusOpen
	}

	var lastErr error
	for attempt := 0; attempt < inviteCodeAttempts; attempt++ {
		code, err := generateInviteCode()
		if err != nil {
			return fmt.Errorf("failed to generate invite code: %w", err)
		}
		group.InviteCode = code

		lastErr = s.insertGroup(ctx, group)
		if lastErr == nil {
			group.Members = []string{group.CreatorID}
			return nil
		}
		if !isUniqueViolation(lastErr) || !strings.Contains(lastErr.Error(), "groups.invite_code") {
			return lastErr
		}
	}

	return fmt.Errorf("failed to allocate unique invite code: %w", lastErr)
}

func (s *SQLiteStore) insertGroup(ctx context.Context, group *models.Group) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO groups (id, name, code_name, person_name, invite_code, creator_id, target_amount, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		group.ID, group.Name, group.CodeName, group.PersonName, group.InviteCode,
		group.CreatorID, group.TargetAmount, string(group.Status), group.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO group_members (group_id, user_id, joined_at) VALUES (?, ?, ?)",
		group.ID, group.CreatorID, group.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert creator membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

const groupColumns = "id, name, code_name, person_name, invite_code, creator_id, target_amount, status, created_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGroup(row rowScanner) (*models.Group, error) {
	group := &models.Group{}
	var status string
	err := row.Scan(
		&group.ID,
		&group.Name,
		&group.CodeName,
		&group.PersonName,
		&group.InviteCode,
		&group.CreatorID,
		&group.TargetAmount,
		&status,
		&group.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	group.Status = models.GroupStatus(status)
	return group, nil
}

// GetGroup retrieves a group by ID, including member IDs.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group, err := scanGroup(s.db.QueryRowContext(ctx,
		"SELECT "+groupColumns+" FROM groups WHERE id = ?",
		groupID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	if group.Members, err = s.listMembers(ctx, group.ID); err != nil {
		return nil, err
	}
	return group, nil
}

// GetGroupByInviteCode retrieves a group by its invite code.
func (s *SQLiteStore) GetGroupByInviteCode(ctx context.Context, code string) (*models.Group, error) {
	normalized := models.NormalizeInviteCode(code)
	if normalized == "" {
		return nil, fmt.Errorf("empty invite code: %w", storage.ErrNotFound)
	}

	group, err := scanGroup(s.db.QueryRowContext(ctx,
		"SELECT "+groupColumns+" FROM groups WHERE invite_code = ?",
		normalized,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("invite code %s: %w", normalized, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group by invite code: %w", err)
	}

	if group.Members, err = s.listMembers(ctx, group.ID); err != nil {
		return nil, err
	}
	return group, nil
}

// ListGroupsForUser returns the groups a user belongs to, newest first.
func (s *SQLiteStore) ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT g.id, g.name, g.code_name, g.person_name, g.invite_code, g.creator_id, g.target_amount, g.status, g.created_at
		FROM groups g
		JOIN group_members gm ON gm.group_id = g.id
		WHERE gm.user_id = ?
		ORDER BY g.created_at DESC, g.id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	var groups []*models.Group
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}

	// Members are loaded after the cursor is closed.
	for _, group := range groups {
		if group.Members, err = s.listMembers(ctx, group.ID); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

func (s *SQLiteStore) listMembers(ctx context.Context, groupID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id FROM group_members WHERE group_id = ? ORDER BY joined_at, user_id",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return members, nil
}

// AddMember adds a user to a group. Re-joining is a no-op.
func (s *SQLiteStore) AddMember(ctx context.Context, groupID, userID string) error {
	result, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO group_members (group_id, user_id, joined_at)
		SELECT id, ?, ? FROM groups WHERE id = ?`,
		userID, time.Now().Unix(), groupID,
	)
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}

	if n, _ := result.RowsAffected(); n == 0 {
		// Either already a member or the group does not exist.
		var exists int
		err := s.db.QueryRowContext(ctx, "SELECT 1 FROM groups WHERE id = ?", groupID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to check group: %w", err)
		}
	}
	return nil
}

// IsMember reports whether the user belongs to the group.
func (s *SQLiteStore) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM group_members WHERE group_id = ? AND user_id = ?",
		groupID, userID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return true, nil
}

// generateInviteCode returns a random upper-case alphanumeric code.
func generateInviteCode() (string, error) {
	max := big.NewInt(int64(len(inviteCodeAlphabet)))
	var b strings.Builder
	b.Grow(inviteCodeLength)
	for i := 0; i < inviteCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(inviteCodeAlphabet[n.Int64()])
	}
	return b.String(), nil
}
