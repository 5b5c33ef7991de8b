package dedup

import (
	"fmt"
	"strings"
	"time"
)

// UpdateComment renders a ChangeSet into a short audit note for the
// updated task: a header naming the source meeting and timestamp, then
// one line per detected change. The description line only states that new
// information was added; the merged text itself lives in the description.
//
// An empty ChangeSet produces an empty string, and the caller must skip
// posting the comment. Never emit a contentless note.
func UpdateComment(cs ChangeSet, meetingTitle string, processedAt time.Time) string {
	if cs.Empty() {
		return ""
	}

	lines := []string{
		fmt.Sprintf("Updated from meeting: **%s**", meetingTitle),
		fmt.Sprintf("Date: %s", processedAt.Format("2006-01-02 15:04")),
	}

	if cs.DueDate != nil {
		lines = append(lines, fmt.Sprintf("Due date changed: %s → %s",
			formatDue(cs.DueDate.Old), cs.DueDate.New.Format("2006-01-02")))
	}
	if cs.Assignees != nil {
		lines = append(lines, fmt.Sprintf("Assignees changed: [%s] → [%s]",
			strings.Join(cs.Assignees.Old, ", "), strings.Join(cs.Assignees.New, ", ")))
	}
	if cs.Description != nil {
		lines = append(lines, "New information added to description")
	}

	return strings.Join(lines, "\n")
}
