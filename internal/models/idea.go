package models

// Idea represents a proposed gift or activity under a group.
type Idea struct {
	// ID is the unique identifier for the idea (UUID format).
	ID string

	// GroupID is the group this idea belongs to.
	GroupID string

	// UserID is the member who proposed the idea.
	UserID string

	// Title is the short name of the idea (required).
	Title string

	// Description is optional free text.
	Description string

	// Votes is the set of user IDs who voted for this idea.
	// Each user appears at most once; order carries no meaning.
	Votes []string

	// CreatedAt is the Unix timestamp when the idea was proposed.
	CreatedAt int64
}

// VoteCount returns the number of distinct voters.
func (i *Idea) VoteCount() int {
	return len(i.Votes)
}
