// Package ledger tracks which source meetings have already produced
// ClickUp tasks.
//
// The ledger is the sole source of truth for "has this meeting been
// processed", keyed by Google Doc ID (or Gmail message ID). It exists for
// reprocessing-avoidance and provenance only — duplicate detection is
// always re-derived live from the ClickUp snapshot, because ClickUp is
// the authority on current task state and the ledger can go stale when
// tasks are edited or deleted directly.
//
// The file is read whole at the start of a run and replaced whole at the
// end. Saves are atomic (write-temp-then-rename), so a crash mid-save
// leaves the previous valid file intact. A single process at a time is
// assumed; there is no concurrent-writer protocol.
package ledger

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// timeFormat matches the timestamps stored in the ledger file.
const timeFormat = "2006-01-02 15:04:05"

// currentVersion is written into freshly created ledgers.
const currentVersion = "1.0"

// TaskRef records one task a meeting produced.
type TaskRef struct {
	TaskID   string `json:"task_id"`
	TaskName string `json:"task_name"`
	ListID   string `json:"list_id"`
}

// Meeting is one processed-meeting entry. Entries are appended after a
// meeting's tasks are successfully created or updated and never mutated
// afterward, except to append more TasksCreated when the same meeting is
// reprocessed and produces additional tasks.
type Meeting struct {
	DocID         string    `json:"doc_id"`
	MeetingTitle  string    `json:"meeting_title"`
	EmailID       string    `json:"email_id"`
	ProcessedDate string    `json:"processed_date"`
	TasksCreated  []TaskRef `json:"tasks_created"`
}

// Ledger is the full processed-meeting history. It grows monotonically;
// entries are never removed.
type Ledger struct {
	Version     string    `json:"version"`
	LastUpdated string    `json:"last_updated"`
	Meetings    []Meeting `json:"meetings"`
}

// NewLedger returns an empty ledger with the current schema version.
func NewLedger() *Ledger {
	return &Ledger{
		Version:     currentVersion,
		LastUpdated: time.Now().Format(timeFormat),
	}
}

// IsProcessed reports whether an entry with this doc ID already exists.
func (l *Ledger) IsProcessed(docID string) bool {
	return docID != "" && l.find(docID) != nil
}

// IsProcessedEmail reports whether any entry came from this Gmail message.
func (l *Ledger) IsProcessedEmail(emailID string) bool {
	if emailID == "" {
		return false
	}
	for i := range l.Meetings {
		if l.Meetings[i].EmailID == emailID {
			return true
		}
	}
	return false
}

// Record appends a meeting entry, or merges into the existing entry for
// the same doc ID by appending its tasks and refreshing the processed
// date. Existing tasks are never removed.
func (l *Ledger) Record(m Meeting) {
	if existing := l.find(m.DocID); existing != nil {
		existing.TasksCreated = append(existing.TasksCreated, m.TasksCreated...)
		existing.ProcessedDate = m.ProcessedDate
		return
	}
	l.Meetings = append(l.Meetings, m)
}

func (l *Ledger) find(docID string) *Meeting {
	if docID == "" {
		return nil
	}
	for i := range l.Meetings {
		if l.Meetings[i].DocID == docID {
			return &l.Meetings[i]
		}
	}
	return nil
}

// Store persists a Ledger to a JSON file.
type Store struct {
	path string
}

// NewStore creates a store for the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the ledger file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the ledger file. A missing or malformed file yields a fresh
// empty ledger, not an error: losing the history means some meetings may
// be re-examined, which the live duplicate check absorbs.
func (s *Store) Load() (*Ledger, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewLedger(), nil
		}
		return nil, fmt.Errorf("failed to read ledger %s: %w", s.path, err)
	}

	var l Ledger
	if err := json.Unmarshal(data, &l); err != nil {
		log.Printf("[WARN] ledger %s is malformed, starting fresh: %v", s.path, err)
		return NewLedger(), nil
	}
	if l.Version == "" {
		l.Version = currentVersion
	}
	return &l, nil
}

// Save writes the ledger atomically: marshal, write to a temp file in the
// same directory, then rename over the target. A failed save reports an
// error and leaves the previous file untouched.
func (s *Store) Save(l *Ledger) error {
	l.LastUpdated = time.Now().Format(timeFormat)

	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal ledger: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create ledger directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".ledger-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp ledger file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp ledger file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp ledger file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace ledger file: %w", err)
	}
	return nil
}

// Now returns the current time in the ledger's timestamp format, for
// callers filling in ProcessedDate.
func Now() string {
	return time.Now().Format(timeFormat)
}
