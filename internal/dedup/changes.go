package dedup

import (
	"strings"
	"time"

	"github.com/gutworks/gutautomate/internal/task"
)

// ChangeSet records what differs between an existing task and a matched
// candidate. A nil field means no change; a ChangeSet with all fields nil
// means the pair is identical and no update is needed.
type ChangeSet struct {
	DueDate     *DueDateChange     `json:"due_date_change,omitempty"`
	Assignees   *AssigneeChange    `json:"assignee_change,omitempty"`
	Description *DescriptionChange `json:"description_change,omitempty"`
}

// DueDateChange carries the old and new due dates. Old is nil when the
// existing task had no due date.
type DueDateChange struct {
	Old *time.Time `json:"old,omitempty"`
	New time.Time  `json:"new"`
}

// AssigneeChange carries the full old and new assignee sets so the caller
// can render "added X, removed Y" if it wants to.
type AssigneeChange struct {
	Old []string `json:"old"`
	New []string `json:"new"`
}

// DescriptionChange carries the old description and the incoming content
// that was judged to be new information.
type DescriptionChange struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// Empty reports whether no changes were detected.
func (c ChangeSet) Empty() bool {
	return c.DueDate == nil && c.Assignees == nil && c.Description == nil
}

// Summary renders a one-line description of the changes, suitable for
// prompt display. Returns "No changes detected" for an empty set.
func (c ChangeSet) Summary() string {
	if c.Empty() {
		return "No changes detected"
	}
	var parts []string
	if c.DueDate != nil {
		parts = append(parts, "Due date: "+formatDue(c.DueDate.Old)+" → "+c.DueDate.New.Format("2006-01-02"))
	}
	if c.Assignees != nil {
		parts = append(parts, "Assignee changed")
	}
	if c.Description != nil {
		parts = append(parts, "Description has new information")
	}
	return strings.Join(parts, " | ")
}

// Compare diffs a matched pair and returns the structured changes. It is
// pure and total: absent optional fields on either side mean "no
// information", never an error.
//
// Rules:
//   - Due date: recorded when the candidate supplies a date that differs
//     from the existing one (including when the existing task has none).
//     A candidate without a date never clears an existing date.
//   - Assignees: recorded when the symmetric difference of the two sets is
//     non-empty. Order and duplicates are ignored.
//   - Description: recorded only when the candidate's description carries
//     material not already present, case- and whitespace-normalized, as a
//     substring of the existing description. Duplicated or empty content
//     produces no change.
func Compare(existing, candidate *task.Task) ChangeSet {
	var cs ChangeSet

	if candidate.DueDate != nil {
		if existing.DueDate == nil || !existing.DueDate.Equal(*candidate.DueDate) {
			cs.DueDate = &DueDateChange{Old: existing.DueDate, New: *candidate.DueDate}
		}
	}

	if !sameAssignees(existing.Assignees, candidate.Assignees) {
		cs.Assignees = &AssigneeChange{Old: existing.Assignees, New: candidate.Assignees}
	}

	newDesc := normalizeText(candidate.Description)
	if newDesc != "" && !strings.Contains(normalizeText(existing.Description), newDesc) {
		cs.Description = &DescriptionChange{Old: existing.Description, New: candidate.Description}
	}

	return cs
}

func sameAssignees(a, b []string) bool {
	as := make(map[string]struct{}, len(a))
	for _, x := range a {
		as[x] = struct{}{}
	}
	bs := make(map[string]struct{}, len(b))
	for _, x := range b {
		bs[x] = struct{}{}
	}
	if len(as) != len(bs) {
		return false
	}
	for x := range as {
		if _, ok := bs[x]; !ok {
			return false
		}
	}
	return true
}

func formatDue(t *time.Time) string {
	if t == nil {
		return "none"
	}
	return t.Format("2006-01-02")
}
