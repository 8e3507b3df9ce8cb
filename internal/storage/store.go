// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/relateos/internal/models"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique constraint would be violated.
	ErrConflict = errors.New("already exists")
)

// GroupStore defines the durable record of planning groups, their members,
// ideas and contributions.
// This abstraction allows swapping storage backends without changing the
// service layer or the relay's membership check.
type GroupStore interface {
	// CreateGroup persists a new group and adds the creator as a member.
	// ID, InviteCode, Status, TargetAmount and CreatedAt are filled in by the store.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group and its member IDs.
	// Returns ErrNotFound if the group does not exist.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// GetGroupByInviteCode looks a group up by invite code, ignoring case.
	GetGroupByInviteCode(ctx context.Context, code string) (*models.Group, error)

	// ListGroupsForUser returns every group the user belongs to, newest first.
	ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error)

	// AddMember adds a user to a group. Adding an existing member is a no-op.
	AddMember(ctx context.Context, groupID, userID string) error

	// IsMember reports whether the user belongs to the group.
	IsMember(ctx context.Context, groupID, userID string) (bool, error)

	// AddIdea persists a new idea with an empty voter set.
	AddIdea(ctx context.Context, idea *models.Idea) error

	// ListIdeas returns a group's ideas in creation order.
	ListIdeas(ctx context.Context, groupID string) ([]*models.Idea, error)

	// ToggleVote flips the user's membership in the idea's voter set
	// and returns the updated idea.
	ToggleVote(ctx context.Context, groupID, ideaID, userID string) (*models.Idea, error)

	// AddContribution appends a contribution to the group's pool.
	AddContribution(ctx context.Context, contribution *models.Contribution) error

	// ListContributions returns a group's contributions in creation order.
	ListContributions(ctx context.Context, groupID string) ([]*models.Contribution, error)
}

// UserStore defines user persistence.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
}

// Store combines every storage concern behind one backend.
type Store interface {
	GroupStore
	UserStore

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
