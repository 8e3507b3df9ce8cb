package calculator

import "sort"

// ToggleVoter applies the vote toggle rule to a voter set:
// the user is removed if present, otherwise added.
// The input slice is never modified and duplicate entries are collapsed.
func ToggleVoter(voters []string, userID string) []string {
	seen := make(map[string]struct{}, len(voters)+1)
	result := make([]string, 0, len(voters)+1)
	present := false

	for _, v := range voters {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		if v == userID {
			present = true
			continue
		}
		result = append(result, v)
	}

	if !present {
		result = append(result, userID)
	}
	return result
}

// HasVoted reports whether userID is in the voter set.
func HasVoted(voters []string, userID string) bool {
	for _, v := range voters {
		if v == userID {
			return true
		}
	}
	return false
}

// IdeaForRanking represents an idea with the minimal information needed for ranking.
type IdeaForRanking struct {
	ID        string
	Votes     int
	CreatedAt int64
}

// RankIdeas orders ideas by vote count, most votes first.
// Ties keep the older idea first.
func RankIdeas(ideas []IdeaForRanking) []IdeaForRanking {
	ranked := make([]IdeaForRanking, len(ideas))
	copy(ranked, ideas)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Votes != ranked[j].Votes {
			return ranked[i].Votes > ranked[j].Votes
		}
		return ranked[i].CreatedAt < ranked[j].CreatedAt
	})
	return ranked
}
