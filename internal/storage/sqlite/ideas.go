package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/relateos/internal/calculator"
	"github.com/mmynk/relateos/internal/models"
	"github.com/mmynk/relateos/internal/storage"
)

// AddIdea persists a new idea with an empty voter set.
func (s *SQLiteStore) AddIdea(ctx context.Context, idea *models.Idea) error {
	if idea.ID == "" {
		idea.ID = uuid.New().String()
	}
	if idea.CreatedAt == 0 {
		idea.CreatedAt = time.Now().Unix()
	}
	idea.Votes = []string{}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO group_ideas (id, group_id, user_id, title, description, votes, created_at)
		VALUES (?, ?, ?, ?, ?, '[]', ?)`,
		idea.ID, idea.GroupID, idea.UserID, idea.Title, idea.Description, idea.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert idea: %w", err)
	}
	return nil
}

// ListIdeas returns a group's ideas in creation order.
func (s *SQLiteStore) ListIdeas(ctx context.Context, groupID string) ([]*models.Idea, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, group_id, user_id, title, description, votes, created_at
		FROM group_ideas
		WHERE group_id = ?
		ORDER BY created_at, rowid`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list ideas: %w", err)
	}
	defer rows.Close()

	var ideas []*models.Idea
	for rows.Next() {
		idea, err := scanIdea(rows)
		if err != nil {
			return nil, err
		}
		ideas = append(ideas, idea)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ideas: %w", err)
	}
	return ideas, nil
}

// ToggleVote applies the vote toggle rule to the stored voter set.
// The read and the write happen inside one immediate transaction so
// concurrent toggles on the same idea are serialized by SQLite.
func (s *SQLiteStore) ToggleVote(ctx context.Context, groupID, ideaID, userID string) (*models.Idea, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	idea, err := scanIdea(tx.QueryRowContext(ctx, `
		SELECT id, group_id, user_id, title, description, votes, created_at
		FROM group_ideas
		WHERE id = ? AND group_id = ?`,
		ideaID, groupID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("idea %s: %w", ideaID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	idea.Votes = calculator.ToggleVoter(idea.Votes, userID)
	encoded, err := json.Marshal(idea.Votes)
	if err != nil {
		return nil, fmt.Errorf("failed to encode votes: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE group_ideas SET votes = ? WHERE id = ?",
		string(encoded), idea.ID,
	); err != nil {
		return nil, fmt.Errorf("failed to update votes: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return idea, nil
}

func scanIdea(row rowScanner) (*models.Idea, error) {
	idea := &models.Idea{}
	var votes string
	err := row.Scan(
		&idea.ID,
		&idea.GroupID,
		&idea.UserID,
		&idea.Title,
		&idea.Description,
		&votes,
		&idea.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan idea: %w", err)
	}

	if err := json.Unmarshal([]byte(votes), &idea.Votes); err != nil {
		return nil, fmt.Errorf("failed to decode votes for idea %s: %w", idea.ID, err)
	}
	if idea.Votes == nil {
		idea.Votes = []string{}
	}
	return idea, nil
}
