package models

// ContributionStatus marks a contribution. There is no refund or cancel path.
type ContributionStatus string

const (
	ContributionPending   ContributionStatus = "pending"
	ContributionCompleted ContributionStatus = "completed"
)

// Contribution represents a monetary pledge toward a group's pool.
// Contributions are append-only.
type Contribution struct {
	// ID is the unique identifier for the contribution (UUID format).
	ID string

	// GroupID is the group whose pool this contribution adds to.
	GroupID string

	// UserID is the member who contributed.
	UserID string

	// Amount is the pledged amount. Always positive.
	Amount float64

	// Status is informational only; pool totals ignore it.
	Status ContributionStatus

	// CreatedAt is the Unix timestamp when the contribution was recorded.
	CreatedAt int64
}
