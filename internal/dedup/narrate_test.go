package dedup

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gutworks/gutautomate/internal/task"
)

func TestUpdateCommentFull(t *testing.T) {
	cs := Compare(
		&task.Task{ID: "t1", Name: "x", DueDate: date("2025-10-25"), Assignees: []string{"alice"}, Description: "old notes"},
		&task.Task{Name: "x", DueDate: date("2025-10-30"), Assignees: []string{"alice", "bob"}, Description: "new decisions were made"},
	)
	at := time.Date(2025, 11, 2, 9, 30, 0, 0, time.UTC)

	comment := UpdateComment(cs, "Weekly Sync", at)

	lines := strings.Split(comment, "\n")
	assert.Equal(t, "Updated from meeting: **Weekly Sync**", lines[0])
	assert.Equal(t, "Date: 2025-11-02 09:30", lines[1])
	assert.Contains(t, comment, "Due date changed: 2025-10-25 → 2025-10-30")
	assert.Contains(t, comment, "Assignees changed: [alice] → [alice, bob]")
	assert.Contains(t, comment, "New information added to description")
	// The merged text lives in the description, not in the audit note.
	assert.NotContains(t, comment, "new decisions were made")
}

func TestUpdateCommentDueDateFromNone(t *testing.T) {
	cs := Compare(
		&task.Task{ID: "t1", Name: "x"},
		&task.Task{Name: "x", DueDate: date("2025-12-01")},
	)
	comment := UpdateComment(cs, "Planning", time.Date(2025, 11, 2, 9, 30, 0, 0, time.UTC))
	assert.Contains(t, comment, "Due date changed: none → 2025-12-01")
}

func TestUpdateCommentEmptyChangeSet(t *testing.T) {
	comment := UpdateComment(ChangeSet{}, "Weekly Sync", time.Now())
	assert.Empty(t, comment, "an empty ChangeSet must never produce an audit note")
}

func TestUpdateCommentSingleChange(t *testing.T) {
	cs := Compare(
		&task.Task{ID: "t1", Name: "x", Assignees: []string{"alice"}},
		&task.Task{Name: "x", Assignees: []string{"bob"}},
	)
	comment := UpdateComment(cs, "Standup", time.Date(2025, 11, 2, 9, 30, 0, 0, time.UTC))
	assert.NotContains(t, comment, "Due date changed")
	assert.NotContains(t, comment, "description")
	assert.Contains(t, comment, "Assignees changed: [alice] → [bob]")
}
