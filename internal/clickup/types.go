package clickup

import (
	"strconv"
	"time"

	"github.com/gutworks/gutautomate/internal/task"
)

// Wire shapes for the v2 API. Due dates travel as millisecond-epoch
// strings; assignees as user objects.

type listTasksResponse struct {
	Tasks    []apiTask `json:"tasks"`
	LastPage bool      `json:"last_page"`
}

type apiTask struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Status      apiStatus `json:"status"`
	DueDate     string    `json:"due_date"`
	Assignees   []apiUser `json:"assignees"`
	URL         string    `json:"url"`
	List        apiList   `json:"list"`
}

type apiStatus struct {
	Status string `json:"status"`
}

type apiUser struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

type apiList struct {
	ID string `json:"id"`
}

type createTaskRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Assignees   []string `json:"assignees,omitempty"`
	DueDate     int64    `json:"due_date,omitempty"`
}

// toTask converts a wire task to the internal model. An unparsable due
// date is treated as absent rather than failing the whole snapshot.
func (a *apiTask) toTask() *task.Task {
	t := &task.Task{
		ID:          a.ID,
		Name:        a.Name,
		Description: a.Description,
		Status:      a.Status.Status,
		URL:         a.URL,
		ListID:      a.List.ID,
	}
	if a.DueDate != "" {
		if millis, err := strconv.ParseInt(a.DueDate, 10, 64); err == nil {
			due := time.UnixMilli(millis).UTC()
			t.DueDate = &due
		}
	}
	for _, u := range a.Assignees {
		t.Assignees = append(t.Assignees, u.Username)
	}
	return t
}

// TaskURL builds the app URL for a task ID, used when the API response
// does not carry one.
func TaskURL(taskID string) string {
	return "https://app.clickup.com/t/" + taskID
}
