package calculator

import (
	"errors"
	"sort"
)

// ErrInvalidTarget is returned when a pool goal is zero or negative.
var ErrInvalidTarget = errors.New("target amount must be positive")

// ContributionForPool represents a contribution with the minimal information needed for pool calculations.
type ContributionForPool struct {
	UserID string
	Amount float64
}

// ContributorTotal is the sum pledged by one member.
type ContributorTotal struct {
	UserID string
	Total  float64
	Count  int
}

// PoolSummary is the aggregated view of a group's contributions.
type PoolSummary struct {
	Total        float64
	Target       float64
	Progress     float64 // 0..1, clamped
	Remaining    float64 // Never negative
	Count        int
	Contributors []ContributorTotal // Largest first
}

// PoolTotal sums every amount. Contribution status is not consulted.
func PoolTotal(amounts []float64) float64 {
	var total float64
	for _, a := range amounts {
		total += a
	}
	return total
}

// Progress computes min(total / target, 1).
// A negative total reports 0.
func Progress(total, target float64) (float64, error) {
	if target <= 0 {
		return 0, ErrInvalidTarget
	}
	p := total / target
	if p > 1 {
		return 1, nil
	}
	if p < 0 {
		return 0, nil
	}
	return p, nil
}

// Summarize aggregates contributions against a target.
//
// Algorithm:
// - total = sum of all amounts, independent of order
// - progress = min(total / target, 1)
// - remaining = max(target - total, 0)
// - contributors: per-user sums, ties broken by user ID for stable output
func Summarize(target float64, contributions []ContributionForPool) (*PoolSummary, error) {
	amounts := make([]float64, len(contributions))
	perUser := make(map[string]*ContributorTotal)

	for i, c := range contributions {
		amounts[i] = c.Amount

		if _, exists := perUser[c.UserID]; !exists {
			perUser[c.UserID] = &ContributorTotal{UserID: c.UserID}
		}
		perUser[c.UserID].Total += c.Amount
		perUser[c.UserID].Count++
	}

	total := PoolTotal(amounts)
	progress, err := Progress(total, target)
	if err != nil {
		return nil, err
	}

	remaining := target - total
	if remaining < 0 {
		remaining = 0
	}

	contributors := make([]ContributorTotal, 0, len(perUser))
	for _, ct := range perUser {
		contributors = append(contributors, *ct)
	}
	sort.Slice(contributors, func(i, j int) bool {
		if contributors[i].Total != contributors[j].Total {
			return contributors[i].Total > contributors[j].Total
		}
		return contributors[i].UserID < contributors[j].UserID
	})

	return &PoolSummary{
		Total:        total,
		Target:       target,
		Progress:     progress,
		Remaining:    remaining,
		Count:        len(contributions),
		Contributors: contributors,
	}, nil
}
