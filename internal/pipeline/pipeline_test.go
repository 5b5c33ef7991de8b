package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gutworks/gutautomate/internal/clickup"
	"github.com/gutworks/gutautomate/internal/dedup"
	"github.com/gutworks/gutautomate/internal/ledger"
	"github.com/gutworks/gutautomate/internal/prompt"
	"github.com/gutworks/gutautomate/internal/route"
	"github.com/gutworks/gutautomate/internal/source"
	"github.com/gutworks/gutautomate/internal/task"
)

type fakeMail struct {
	emails []source.NotesEmail
	read   []string
}

func (f *fakeMail) ListNotesEmails(_ context.Context, _ bool) ([]source.NotesEmail, error) {
	return f.emails, nil
}

func (f *fakeMail) MarkRead(_ context.Context, emailID string) error {
	f.read = append(f.read, emailID)
	return nil
}

type fakeDocs struct {
	texts map[string]string
}

func (f *fakeDocs) DocumentText(_ context.Context, docID string) (string, error) {
	text, ok := f.texts[docID]
	if !ok {
		return "", fmt.Errorf("no such doc %s", docID)
	}
	return text, nil
}

type fakeExtractor struct {
	// tasks maps notes text to the candidates extracted from it.
	tasks map[string][]*task.Task
}

func (f *fakeExtractor) Extract(_ context.Context, _, notes string) ([]*task.Task, error) {
	return f.tasks[notes], nil
}

type fakeDest struct {
	lists    map[string][]*task.Task
	created  []*task.Task
	updates  map[string]clickup.TaskUpdate
	comments map[string][]string
	nextID   int
}

func newFakeDest(lists map[string][]*task.Task) *fakeDest {
	return &fakeDest{
		lists:    lists,
		updates:  make(map[string]clickup.TaskUpdate),
		comments: make(map[string][]string),
	}
}

func (f *fakeDest) ListTasks(_ context.Context, listID string) ([]*task.Task, error) {
	return f.lists[listID], nil
}

func (f *fakeDest) CreateTask(_ context.Context, listID string, t *task.Task) (*task.Task, error) {
	f.nextID++
	created := *t
	created.ID = fmt.Sprintf("new-%d", f.nextID)
	created.ListID = listID
	f.created = append(f.created, &created)
	return &created, nil
}

func (f *fakeDest) UpdateTask(_ context.Context, taskID string, upd clickup.TaskUpdate) error {
	f.updates[taskID] = upd
	return nil
}

func (f *fakeDest) AddComment(_ context.Context, taskID, text string) error {
	f.comments[taskID] = append(f.comments[taskID], text)
	return nil
}

// fakePolicy returns scripted verdicts in order, defaulting to Skip.
type fakePolicy struct {
	verdicts []prompt.Verdict
	calls    int
}

func (f *fakePolicy) DuplicateAction(_, _ *task.Task, _ float64, _ dedup.ChangeSet) (prompt.Verdict, error) {
	v := prompt.VerdictSkip
	if f.calls < len(f.verdicts) {
		v = f.verdicts[f.calls]
	}
	f.calls++
	return v, nil
}

func newTestPipeline(t *testing.T, mail *fakeMail, docs *fakeDocs, ex *fakeExtractor, dest *fakeDest, policy *fakePolicy, opts Options) *Pipeline {
	t.Helper()
	router, err := route.NewRouter(nil, "100")
	require.NoError(t, err)
	return &Pipeline{
		Mail:      mail,
		Docs:      docs,
		Extractor: ex,
		Dest:      dest,
		Policy:    policy,
		Router:    router,
		Store:     ledger.NewStore(filepath.Join(t.TempDir(), "ledger.json")),
		Opts:      opts,
	}
}

func notesEmail(id, docID, title string) source.NotesEmail {
	return source.NotesEmail{ID: id, DocID: docID, MeetingTitle: title}
}

func TestRunCreatesNewTask(t *testing.T) {
	mail := &fakeMail{emails: []source.NotesEmail{notesEmail("e1", "d1", "Weekly Sync")}}
	docs := &fakeDocs{texts: map[string]string{"d1": "notes"}}
	ex := &fakeExtractor{tasks: map[string][]*task.Task{
		"notes": {{Name: "Book team offsite"}},
	}}
	dest := newFakeDest(nil)
	policy := &fakePolicy{}

	p := newTestPipeline(t, mail, docs, ex, dest, policy, Options{Engine: dedup.DefaultConfig()})
	report, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.TasksCreated)
	assert.Equal(t, 1, report.EmailsProcessed)
	require.Len(t, dest.created, 1)
	assert.Equal(t, "Book team offsite", dest.created[0].Name)
	assert.Equal(t, "100", dest.created[0].ListID)
	assert.Equal(t, []string{"e1"}, mail.read)
	assert.Equal(t, 0, policy.calls)

	led, err := p.Store.Load()
	require.NoError(t, err)
	assert.True(t, led.IsProcessed("d1"))
	require.Len(t, led.Meetings, 1)
	require.Len(t, led.Meetings[0].TasksCreated, 1)
	assert.Equal(t, "new-1", led.Meetings[0].TasksCreated[0].TaskID)
}

func TestRunSkipsDuplicate(t *testing.T) {
	existing := &task.Task{ID: "t1", Name: "Create overlay test for bitkey wallet"}
	mail := &fakeMail{emails: []source.NotesEmail{notesEmail("e1", "d1", "Weekly Sync")}}
	docs := &fakeDocs{texts: map[string]string{"d1": "notes"}}
	ex := &fakeExtractor{tasks: map[string][]*task.Task{
		"notes": {{Name: "Create overlay test for bitkey"}},
	}}
	dest := newFakeDest(map[string][]*task.Task{"100": {existing}})
	policy := &fakePolicy{verdicts: []prompt.Verdict{prompt.VerdictSkip}}

	p := newTestPipeline(t, mail, docs, ex, dest, policy, Options{Engine: dedup.DefaultConfig()})
	report, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.TasksSkipped)
	assert.Equal(t, 0, report.TasksCreated)
	assert.Empty(t, dest.created)
	assert.Equal(t, 1, policy.calls)

	// The meeting is still recorded as processed, with no tasks.
	led, err := p.Store.Load()
	require.NoError(t, err)
	assert.True(t, led.IsProcessed("d1"))
	assert.Empty(t, led.Meetings[0].TasksCreated)
}

func TestRunUpdatesDuplicate(t *testing.T) {
	existing := &task.Task{ID: "t1", Name: "Create overlay test for bitkey wallet", Description: "Original context."}
	mail := &fakeMail{emails: []source.NotesEmail{notesEmail("e1", "d1", "Weekly Sync")}}
	docs := &fakeDocs{texts: map[string]string{"d1": "notes"}}
	ex := &fakeExtractor{tasks: map[string][]*task.Task{
		"notes": {{Name: "Create overlay test for bitkey", Description: "Blocked on hardware batch."}},
	}}
	dest := newFakeDest(map[string][]*task.Task{"100": {existing}})
	policy := &fakePolicy{verdicts: []prompt.Verdict{prompt.VerdictUpdate}}

	p := newTestPipeline(t, mail, docs, ex, dest, policy, Options{Engine: dedup.DefaultConfig()})
	report, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.TasksUpdated)
	assert.Empty(t, dest.created)

	upd, ok := dest.updates["t1"]
	require.True(t, ok)
	require.NotNil(t, upd.Description)
	assert.Contains(t, *upd.Description, "Original context.")
	assert.Contains(t, *upd.Description, "Updated from new meeting notes:")
	assert.Contains(t, *upd.Description, "Blocked on hardware batch.")

	require.Len(t, dest.comments["t1"], 1)
	assert.Contains(t, dest.comments["t1"][0], "Weekly Sync")
}

func TestRunCreateAnywayVerdict(t *testing.T) {
	existing := &task.Task{ID: "t1", Name: "Create overlay test for bitkey wallet"}
	mail := &fakeMail{emails: []source.NotesEmail{notesEmail("e1", "d1", "Weekly Sync")}}
	docs := &fakeDocs{texts: map[string]string{"d1": "notes"}}
	ex := &fakeExtractor{tasks: map[string][]*task.Task{
		"notes": {{Name: "Create overlay test for bitkey"}},
	}}
	dest := newFakeDest(map[string][]*task.Task{"100": {existing}})
	policy := &fakePolicy{verdicts: []prompt.Verdict{prompt.VerdictCreate}}

	p := newTestPipeline(t, mail, docs, ex, dest, policy, Options{Engine: dedup.DefaultConfig()})
	report, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.TasksCreated)
	require.Len(t, dest.created, 1)
}

func TestRunSkipsProcessedMeetings(t *testing.T) {
	mail := &fakeMail{emails: []source.NotesEmail{notesEmail("e1", "d1", "Weekly Sync")}}
	docs := &fakeDocs{texts: map[string]string{"d1": "notes"}}
	ex := &fakeExtractor{tasks: map[string][]*task.Task{"notes": {{Name: "Anything"}}}}
	dest := newFakeDest(nil)
	policy := &fakePolicy{}

	p := newTestPipeline(t, mail, docs, ex, dest, policy, Options{Engine: dedup.DefaultConfig()})

	led := ledger.NewLedger()
	led.Record(ledger.Meeting{DocID: "d1", EmailID: "e1", ProcessedDate: ledger.Now()})
	require.NoError(t, p.Store.Save(led))

	report, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.EmailsSeen)
	assert.Equal(t, 0, report.EmailsProcessed)
	assert.Empty(t, dest.created)
	assert.Empty(t, mail.read)
}

func TestRunIntraRunDeduplication(t *testing.T) {
	// Two meetings in one run produce near-identical candidates: the
	// second must match the task created for the first.
	mail := &fakeMail{emails: []source.NotesEmail{
		notesEmail("e1", "d1", "Standup"),
		notesEmail("e2", "d2", "Planning"),
	}}
	docs := &fakeDocs{texts: map[string]string{"d1": "notes one", "d2": "notes two"}}
	ex := &fakeExtractor{tasks: map[string][]*task.Task{
		"notes one": {{Name: "Create overlay test for bitkey wallet"}},
		"notes two": {{Name: "Create overlay test for bitkey"}},
	}}
	dest := newFakeDest(nil)
	policy := &fakePolicy{verdicts: []prompt.Verdict{prompt.VerdictSkip}}

	p := newTestPipeline(t, mail, docs, ex, dest, policy, Options{Engine: dedup.DefaultConfig()})
	report, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.TasksCreated)
	assert.Equal(t, 1, report.TasksSkipped)
	assert.Equal(t, 1, policy.calls)
	require.Len(t, dest.created, 1)
}

func TestRunDryRunWritesNothing(t *testing.T) {
	existing := &task.Task{ID: "t1", Name: "Create overlay test for bitkey wallet", Description: "old"}
	mail := &fakeMail{emails: []source.NotesEmail{notesEmail("e1", "d1", "Weekly Sync")}}
	docs := &fakeDocs{texts: map[string]string{"d1": "notes"}}
	ex := &fakeExtractor{tasks: map[string][]*task.Task{
		"notes": {
			{Name: "Create overlay test for bitkey", Description: "new info"},
			{Name: "Book team offsite"},
		},
	}}
	dest := newFakeDest(map[string][]*task.Task{"100": {existing}})
	policy := &fakePolicy{verdicts: []prompt.Verdict{prompt.VerdictUpdate}}

	p := newTestPipeline(t, mail, docs, ex, dest, policy, Options{Engine: dedup.DefaultConfig(), DryRun: true})
	report, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.TasksCreated)
	assert.Empty(t, dest.created)
	assert.Empty(t, dest.updates)
	assert.Empty(t, dest.comments)
	assert.Empty(t, mail.read)

	led, err := p.Store.Load()
	require.NoError(t, err)
	assert.False(t, led.IsProcessed("d1"))
}

func TestRunContinuesPastFailedEmail(t *testing.T) {
	// First email's doc is missing; the second must still be processed.
	mail := &fakeMail{emails: []source.NotesEmail{
		notesEmail("e1", "missing-doc", "Broken"),
		notesEmail("e2", "d2", "Working"),
	}}
	docs := &fakeDocs{texts: map[string]string{"d2": "notes"}}
	ex := &fakeExtractor{tasks: map[string][]*task.Task{"notes": {{Name: "Fix the build"}}}}
	dest := newFakeDest(nil)
	policy := &fakePolicy{}

	p := newTestPipeline(t, mail, docs, ex, dest, policy, Options{Engine: dedup.DefaultConfig()})
	report, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.EmailsFailed)
	assert.Equal(t, 1, report.EmailsProcessed)
	assert.Equal(t, 1, report.TasksCreated)
	assert.Equal(t, []string{"e2"}, mail.read)
}

func TestRunRoutesByKeyword(t *testing.T) {
	router, err := route.NewRouter([]route.Rule{
		{Name: "wallet", Keywords: []string{"bitkey"}, ListID: "200"},
	}, "100")
	require.NoError(t, err)

	mail := &fakeMail{emails: []source.NotesEmail{notesEmail("e1", "d1", "Sync")}}
	docs := &fakeDocs{texts: map[string]string{"d1": "notes"}}
	ex := &fakeExtractor{tasks: map[string][]*task.Task{
		"notes": {
			{Name: "Create overlay test for bitkey wallet"},
			{Name: "Book team offsite"},
		},
	}}
	dest := newFakeDest(nil)

	p := newTestPipeline(t, mail, docs, ex, dest, &fakePolicy{}, Options{Engine: dedup.DefaultConfig()})
	p.Router = router

	_, err = p.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, dest.created, 2)
	assert.Equal(t, "200", dest.created[0].ListID)
	assert.Equal(t, "100", dest.created[1].ListID)
}

func TestRunUpdateAppliesAssigneeChange(t *testing.T) {
	existing := &task.Task{ID: "t1", Name: "Create overlay test for bitkey wallet", Assignees: []string{"alice"}}
	mail := &fakeMail{emails: []source.NotesEmail{notesEmail("e1", "d1", "Weekly Sync")}}
	docs := &fakeDocs{texts: map[string]string{"d1": "notes"}}
	ex := &fakeExtractor{tasks: map[string][]*task.Task{
		"notes": {{Name: "Create overlay test for bitkey", Assignees: []string{"alice", "bob"}}},
	}}
	dest := newFakeDest(map[string][]*task.Task{"100": {existing}})
	policy := &fakePolicy{verdicts: []prompt.Verdict{prompt.VerdictUpdate}}

	p := newTestPipeline(t, mail, docs, ex, dest, policy, Options{Engine: dedup.DefaultConfig()})
	report, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.TasksUpdated)

	upd, ok := dest.updates["t1"]
	require.True(t, ok, "an assignee-only change must still send an update")
	require.NotNil(t, upd.Assignees)
	assert.Equal(t, []string{"bob"}, upd.Assignees.Add)
	assert.Empty(t, upd.Assignees.Remove)

	require.Len(t, dest.comments["t1"], 1)
	assert.Contains(t, dest.comments["t1"][0], "Assignees changed")
}

func TestAssigneeDiff(t *testing.T) {
	tests := []struct {
		name     string
		old, new []string
		add, rem []string
	}{
		{"add one", []string{"alice"}, []string{"alice", "bob"}, []string{"bob"}, nil},
		{"remove one", []string{"alice", "bob"}, []string{"alice"}, nil, []string{"bob"}},
		{"swap", []string{"alice"}, []string{"bob"}, []string{"bob"}, []string{"alice"}},
		{"sorted output", nil, []string{"carol", "bob", "alice"}, []string{"alice", "bob", "carol"}, nil},
		{"duplicates ignored", []string{"alice", "alice"}, []string{"alice"}, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			add, rem := assigneeDiff(tt.old, tt.new)
			assert.Equal(t, tt.add, add)
			assert.Equal(t, tt.rem, rem)
		})
	}
}

// cancelingDocs cancels the run's context when asked for cancelAt, as if
// the user hit Ctrl-C between meetings.
type cancelingDocs struct {
	texts    map[string]string
	cancelAt string
	cancel   context.CancelFunc
}

func (c *cancelingDocs) DocumentText(ctx context.Context, docID string) (string, error) {
	if docID == c.cancelAt {
		c.cancel()
		return "", ctx.Err()
	}
	return c.texts[docID], nil
}

func TestRunLedgerPersistedPerMeeting(t *testing.T) {
	mail := &fakeMail{emails: []source.NotesEmail{
		notesEmail("e1", "d1", "Standup"),
		notesEmail("e2", "d2", "Planning"),
		notesEmail("e3", "d3", "Retro"),
	}}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	docs := &cancelingDocs{texts: map[string]string{"d1": "notes"}, cancelAt: "d2", cancel: cancel}
	ex := &fakeExtractor{tasks: map[string][]*task.Task{"notes": {{Name: "Book team offsite"}}}}
	dest := newFakeDest(nil)

	p := newTestPipeline(t, mail, nil, ex, dest, &fakePolicy{}, Options{Engine: dedup.DefaultConfig()})
	p.Docs = docs

	_, err := p.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	// The aborted run must have persisted the completed meeting already.
	led, err := p.Store.Load()
	require.NoError(t, err)
	assert.True(t, led.IsProcessed("d1"))
	require.Len(t, led.Meetings, 1)
	assert.Equal(t, "new-1", led.Meetings[0].TasksCreated[0].TaskID)
}

func TestRunFailedLedgerSaveLeavesEmailUnread(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("directory permission bits do not restrict root; save would succeed")
	}
	mail := &fakeMail{emails: []source.NotesEmail{notesEmail("e1", "d1", "Weekly Sync")}}
	docs := &fakeDocs{texts: map[string]string{"d1": "notes"}}
	ex := &fakeExtractor{tasks: map[string][]*task.Task{"notes": {{Name: "Book team offsite"}}}}
	dest := newFakeDest(nil)

	p := newTestPipeline(t, mail, docs, ex, dest, &fakePolicy{}, Options{Engine: dedup.DefaultConfig()})

	// An unwritable ledger directory makes the save fail.
	dir := t.TempDir()
	require.NoError(t, os.Chmod(dir, 0o555))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })
	p.Store = ledger.NewStore(filepath.Join(dir, "ledger.json"))

	report, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.EmailsFailed)
	assert.Empty(t, mail.read, "email must stay unread when provenance was not persisted")
}

func TestRunShortNameBypassesDuplicateCheck(t *testing.T) {
	existing := &task.Task{ID: "t1", Name: "QA"}
	mail := &fakeMail{emails: []source.NotesEmail{notesEmail("e1", "d1", "Weekly Sync")}}
	docs := &fakeDocs{texts: map[string]string{"d1": "notes"}}
	ex := &fakeExtractor{tasks: map[string][]*task.Task{
		"notes": {{Name: "QA"}},
	}}
	dest := newFakeDest(map[string][]*task.Task{"100": {existing}})
	policy := &fakePolicy{}

	p := newTestPipeline(t, mail, docs, ex, dest, policy, Options{Engine: dedup.DefaultConfig()})
	report, err := p.Run(context.Background())
	require.NoError(t, err)

	// "QA" is below the minimum name length: filed directly, no prompt
	// even though an identical task exists.
	assert.Equal(t, 1, report.TasksCreated)
	assert.Equal(t, 0, policy.calls)
	require.Len(t, dest.created, 1)
}
