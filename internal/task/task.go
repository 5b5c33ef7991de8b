// Package task defines the work-item model shared by the extraction,
// deduplication, and ClickUp layers.
package task

import (
	"fmt"
	"strings"
	"time"
)

// Task represents a single work item, either an existing ClickUp task or a
// candidate freshly extracted from meeting notes. Candidates have no ID;
// they exist only for the duration of one detection pass and become a
// create, an update, or nothing.
type Task struct {
	ID          string     `json:"id,omitempty"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Assignees   []string   `json:"assignees,omitempty"`
	Status      string     `json:"status,omitempty"`
	URL         string     `json:"url,omitempty"`
	ListID      string     `json:"list_id,omitempty"`
}

// Validate checks the fields every comparison relies on. Name is the
// primary matching key and must be non-empty on both sides.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if len(t.Name) > 500 {
		return fmt.Errorf("name must be 500 characters or less (got %d)", len(t.Name))
	}
	return nil
}

// IsCandidate reports whether this task has not been created in ClickUp yet.
func (t *Task) IsCandidate() bool {
	return t.ID == ""
}

// AssigneeSet returns the assignees as a set for unordered comparison.
func (t *Task) AssigneeSet() map[string]struct{} {
	set := make(map[string]struct{}, len(t.Assignees))
	for _, a := range t.Assignees {
		set[a] = struct{}{}
	}
	return set
}
