package dedup

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gutworks/gutautomate/internal/task"
)

// ErrEmptyName is returned when a candidate task has an empty name.
// Similarity is undefined for empty strings; callers must not pass such
// candidates.
var ErrEmptyName = errors.New("candidate task name is empty")

// MatchResult pairs an existing task with its similarity score against the
// candidate.
type MatchResult struct {
	Task  *task.Task `json:"task"`
	Score float64    `json:"score"`
}

// FindMatches returns every existing task whose name scores at or above
// threshold against the candidate's name, sorted by score descending.
// Ties keep the snapshot order (stable sort). An empty result means the
// candidate is new, not an error.
//
// The function performs no I/O: existing is the snapshot the caller
// fetched once for the destination list. Never fetch per candidate.
func FindMatches(candidate *task.Task, existing []*task.Task, threshold float64) ([]MatchResult, error) {
	if candidate == nil {
		return nil, fmt.Errorf("candidate task cannot be nil")
	}
	if strings.TrimSpace(candidate.Name) == "" {
		return nil, ErrEmptyName
	}
	if threshold < 0.0 || threshold > 1.0 {
		return nil, fmt.Errorf("threshold must be between 0.0 and 1.0 (got %.2f)", threshold)
	}

	var matches []MatchResult
	for _, ex := range existing {
		if ex == nil || ex.Name == "" {
			continue
		}
		score := Similarity(candidate.Name, ex.Name)
		if score >= threshold {
			matches = append(matches, MatchResult{Task: ex, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	return matches, nil
}
