package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/relateos/internal/models"
)

// AddContribution inserts a new contribution into the database.
func (s *SQLiteStore) AddContribution(ctx context.Context, c *models.Contribution) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt == 0 {
		c.CreatedAt = time.Now().Unix()
	}
	if c.Status == "" {
		c.Status = models.ContributionCompleted
	}

	query := `
		INSERT INTO group_contributions (id, group_id, user_id, amount, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		c.ID,
		c.GroupID,
		c.UserID,
		c.Amount,
		string(c.Status),
		c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create contribution: %w", err)
	}

	return nil
}

// ListContributions retrieves all contributions for a group, oldest first.
func (s *SQLiteStore) ListContributions(ctx context.Context, groupID string) ([]*models.Contribution, error) {
	query := `
		SELECT id, group_id, user_id, amount, status, created_at
		FROM group_contributions
		WHERE group_id = ?
		ORDER BY created_at ASC, rowid ASC
	`

	rows, err := s.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contributions: %w", err)
	}
	defer rows.Close()

	var contributions []*models.Contribution
	for rows.Next() {
		c := &models.Contribution{}
		var status string
		if err := rows.Scan(
			&c.ID,
			&c.GroupID,
			&c.UserID,
			&c.Amount,
			&status,
			&c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan contribution: %w", err)
		}
		c.Status = models.ContributionStatus(status)
		contributions = append(contributions, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contributions: %w", err)
	}

	return contributions, nil
}
