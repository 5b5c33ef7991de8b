// Package route picks a destination ClickUp list for a candidate task by
// keyword matching. Deliberately plain string matching — no fuzzy logic.
package route

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gutworks/gutautomate/internal/task"
)

// Rule maps keywords to a destination list. The first rule whose keyword
// appears in the task name or description wins.
type Rule struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
	ListID   string   `yaml:"list_id"`
}

// Router routes candidate tasks to destination lists.
type Router struct {
	rules         []Rule
	defaultListID string
}

// LoadRules reads routing rules from a YAML file. A missing file means no
// rules: everything goes to the default list.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read routing rules %s: %w", path, err)
	}

	var doc struct {
		Rules []Rule `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse routing rules %s: %w", path, err)
	}

	for i, r := range doc.Rules {
		if r.ListID == "" {
			return nil, fmt.Errorf("routing rule %d (%s) has no list_id", i, r.Name)
		}
	}
	return doc.Rules, nil
}

// NewRouter creates a router. defaultListID receives every task no rule
// claims and must be non-empty.
func NewRouter(rules []Rule, defaultListID string) (*Router, error) {
	if defaultListID == "" {
		return nil, fmt.Errorf("default list ID is required")
	}
	return &Router{rules: rules, defaultListID: defaultListID}, nil
}

// Route returns the destination list ID for a candidate task.
func (r *Router) Route(t *task.Task) string {
	text := strings.ToLower(t.Name + " " + t.Description)
	for _, rule := range r.rules {
		for _, kw := range rule.Keywords {
			if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
				return rule.ListID
			}
		}
	}
	return r.defaultListID
}

// ListIDs returns every list a task could be routed to, default last,
// de-duplicated. The pipeline uses this to know which snapshots to fetch.
func (r *Router) ListIDs() []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, rule := range r.rules {
		if _, ok := seen[rule.ListID]; !ok {
			seen[rule.ListID] = struct{}{}
			ids = append(ids, rule.ListID)
		}
	}
	if _, ok := seen[r.defaultListID]; !ok {
		ids = append(ids, r.defaultListID)
	}
	return ids
}
