package calculator

import (
	"errors"
	"math"
	"testing"
)

func TestProgress(t *testing.T) {
	tests := []struct {
		name    string
		total   float64
		target  float64
		want    float64
		wantErr error
	}{
		{name: "half way", total: 250, target: 500, want: 0.5},
		{name: "over target clamps to one", total: 750, target: 500, want: 1.0},
		{name: "exactly at target", total: 500, target: 500, want: 1.0},
		{name: "empty pool", total: 0, target: 500, want: 0},
		{name: "zero target errors", total: 10, target: 0, wantErr: ErrInvalidTarget},
		{name: "negative target errors", total: 10, target: -5, wantErr: ErrInvalidTarget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Progress(tt.total, tt.target)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Progress() error = %v, want %v", err, tt.wantErr)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Progress() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPoolTotal_OrderIndependentAndMonotonic(t *testing.T) {
	amounts := []float64{25, 10.5, 100, 0.25, 64}
	want := 199.75

	forward := PoolTotal(amounts)
	reversed := make([]float64, len(amounts))
	for i, a := range amounts {
		reversed[len(amounts)-1-i] = a
	}
	backward := PoolTotal(reversed)

	if math.Abs(forward-want) > 0.001 || math.Abs(backward-want) > 0.001 {
		t.Errorf("totals = %v / %v, want %v", forward, backward, want)
	}

	var prev float64
	for i := 1; i <= len(amounts); i++ {
		total := PoolTotal(amounts[:i])
		if total < prev {
			t.Errorf("total decreased after %d contributions: %v < %v", i, total, prev)
		}
		prev = total
	}
}

func TestSummarize(t *testing.T) {
	contributions := []ContributionForPool{
		{UserID: "alice", Amount: 100},
		{UserID: "bob", Amount: 50},
		{UserID: "alice", Amount: 25},
		{UserID: "carol", Amount: 50},
	}

	summary, err := Summarize(500, contributions)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	if summary.Total != 225 {
		t.Errorf("Total = %v, want 225", summary.Total)
	}
	if math.Abs(summary.Progress-0.45) > 1e-9 {
		t.Errorf("Progress = %v, want 0.45", summary.Progress)
	}
	if summary.Remaining != 275 {
		t.Errorf("Remaining = %v, want 275", summary.Remaining)
	}
	if summary.Count != 4 {
		t.Errorf("Count = %d, want 4", summary.Count)
	}

	if len(summary.Contributors) != 3 {
		t.Fatalf("Contributors = %d, want 3", len(summary.Contributors))
	}
	first := summary.Contributors[0]
	if first.UserID != "alice" || first.Total != 125 || first.Count != 2 {
		t.Errorf("first contributor = %+v, want alice 125 x2", first)
	}
	// bob and carol tie at 50; user ID breaks the tie
	if summary.Contributors[1].UserID != "bob" || summary.Contributors[2].UserID != "carol" {
		t.Errorf("tie order = %s, %s", summary.Contributors[1].UserID, summary.Contributors[2].UserID)
	}
}

func TestSummarize_OverTarget(t *testing.T) {
	summary, err := Summarize(500, []ContributionForPool{{UserID: "alice", Amount: 750}})
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if summary.Progress != 1.0 {
		t.Errorf("Progress = %v, want 1.0", summary.Progress)
	}
	if summary.Remaining != 0 {
		t.Errorf("Remaining = %v, want 0", summary.Remaining)
	}
}

func TestSummarize_InvalidTarget(t *testing.T) {
	_, err := Summarize(0, nil)
	if !errors.Is(err, ErrInvalidTarget) {
		t.Errorf("expected ErrInvalidTarget, got %v", err)
	}
}
