package models

import "strings"

// DefaultTargetAmount is the pool goal used when a group is created without one.
const DefaultTargetAmount = 500.0

// GroupStatus is the lifecycle marker of a group.
type GroupStatus string

const (
	// GroupStatusOpen is the only status the application actively uses.
	GroupStatusOpen GroupStatus = "open"
	// GroupStatusClosed is reserved for finished plans.
	GroupStatusClosed GroupStatus = "closed"
)

// Group represents a collaborative planning effort for one target person.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Mom's 60th").
	Name string

	// CodeName is an optional secret name so the plan can be discussed openly.
	CodeName string

	// PersonName is the display name of the person the surprise is for.
	PersonName string

	// InviteCode is the short shareable token used to join the group.
	// Globally unique and immutable once assigned. Stored upper-case.
	InviteCode string

	// CreatorID is the user who created the group. The creator is always a member.
	CreatorID string

	// TargetAmount is the contribution goal for the pool.
	TargetAmount float64

	// Status is the lifecycle marker (open/closed).
	Status GroupStatus

	// Members is the list of member user IDs.
	// Populated on reads only; membership is written through the store.
	Members []string

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// HasMember reports whether userID is in the loaded member list.
func (g *Group) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// NormalizeInviteCode upper-cases and trims an invite code for lookup.
func NormalizeInviteCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
