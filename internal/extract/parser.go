package extract

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/gutworks/gutautomate/internal/task"
)

// Models don't always honor "no markdown": responses arrive wrapped in
// code fences or with trailing commas often enough that a strict
// json.Unmarshal would throw away good extractions.
var (
	codeFenceRegex     = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?([\\s\\S]*?)\\n?```")
	trailingCommaRegex = regexp.MustCompile(`,(\s*[}\]])`)
	arrayRegex         = regexp.MustCompile(`(?s)\[[\s\S]*\]`)
)

// extractedItem is the wire shape of one action item in the AI response.
type extractedItem struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Assignees   []string `json:"assignees"`
	DueDate     string   `json:"due_date"`
}

// toTask converts an item to a candidate task, or nil when the item has
// no usable name.
func (i *extractedItem) toTask() *task.Task {
	name := strings.TrimSpace(i.Name)
	if name == "" {
		return nil
	}
	t := &task.Task{
		Name:        name,
		Description: strings.TrimSpace(i.Description),
		Assignees:   i.Assignees,
	}
	if i.DueDate != "" {
		if due, err := time.Parse("2006-01-02", i.DueDate); err == nil {
			t.DueDate = &due
		}
	}
	return t
}

// parseItems decodes the AI response, tolerating markdown fences,
// surrounding prose, and trailing commas.
func parseItems(text string) ([]extractedItem, error) {
	cleaned := strings.TrimSpace(text)

	if m := codeFenceRegex.FindStringSubmatch(cleaned); m != nil {
		cleaned = strings.TrimSpace(m[1])
	}

	var items []extractedItem
	if err := json.Unmarshal([]byte(cleaned), &items); err == nil {
		return items, nil
	}

	// Cleanup pass: pull out the outermost array and strip trailing commas.
	if m := arrayRegex.FindString(cleaned); m != "" {
		cleaned = m
	}
	cleaned = trailingCommaRegex.ReplaceAllString(cleaned, "$1")

	if err := json.Unmarshal([]byte(cleaned), &items); err != nil {
		return nil, err
	}
	return items, nil
}
