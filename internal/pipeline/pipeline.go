// Package pipeline orchestrates one end-to-end run: read meeting-notes
// emails, extract candidate tasks, detect duplicates against the live
// ClickUp snapshot, and create or update tasks accordingly.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/gutworks/gutautomate/internal/clickup"
	"github.com/gutworks/gutautomate/internal/dedup"
	"github.com/gutworks/gutautomate/internal/ledger"
	"github.com/gutworks/gutautomate/internal/prompt"
	"github.com/gutworks/gutautomate/internal/route"
	"github.com/gutworks/gutautomate/internal/source"
	"github.com/gutworks/gutautomate/internal/task"
)

// MailSource lists and marks meeting-notes emails.
type MailSource interface {
	ListNotesEmails(ctx context.Context, unreadOnly bool) ([]source.NotesEmail, error)
	MarkRead(ctx context.Context, emailID string) error
}

// DocSource fetches the text of a linked notes document.
type DocSource interface {
	DocumentText(ctx context.Context, docID string) (string, error)
}

// TaskExtractor turns notes text into candidate tasks.
type TaskExtractor interface {
	Extract(ctx context.Context, meetingTitle, notes string) ([]*task.Task, error)
}

// Destination is the task tracker the pipeline writes to.
type Destination interface {
	ListTasks(ctx context.Context, listID string) ([]*task.Task, error)
	CreateTask(ctx context.Context, listID string, t *task.Task) (*task.Task, error)
	UpdateTask(ctx context.Context, taskID string, upd clickup.TaskUpdate) error
	AddComment(ctx context.Context, taskID, text string) error
}

// Policy decides what happens to a detected duplicate.
type Policy interface {
	DuplicateAction(candidate, existing *task.Task, score float64, cs dedup.ChangeSet) (prompt.Verdict, error)
}

// Options tunes a run.
type Options struct {
	// Engine tunes duplicate detection: match threshold, batch policy,
	// and the minimum name length worth scoring.
	Engine dedup.Config

	// DryRun reports what would happen without writing anything: no task
	// creation, no updates, no ledger writes, no mark-read.
	DryRun bool

	// UnreadOnly restricts the email query to unprocessed mail. The
	// backfill flow sets this false to sweep the last 30 days.
	UnreadOnly bool
}

// Pipeline wires the run's collaborators together.
type Pipeline struct {
	Mail      MailSource
	Docs      DocSource
	Extractor TaskExtractor
	Dest      Destination
	Policy    Policy
	Router    *route.Router
	Store     *ledger.Store
	Opts      Options
}

// Report summarizes one run.
type Report struct {
	RunID           string
	EmailsSeen      int
	EmailsProcessed int
	EmailsFailed    int
	TasksCreated    int
	TasksUpdated    int
	TasksSkipped    int
}

// Run executes one pipeline run. Individual email failures are reported
// and skipped; the run only aborts on setup failures (ledger, email
// listing, snapshot fetch) or context cancellation.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	report := &Report{RunID: uuid.NewString()[:8]}
	cyan := color.New(color.FgCyan).SprintFunc()

	led, err := p.Store.Load()
	if err != nil {
		return nil, err
	}

	emails, err := p.Mail.ListNotesEmails(ctx, p.Opts.UnreadOnly)
	if err != nil {
		return nil, err
	}
	report.EmailsSeen = len(emails)

	var pending []source.NotesEmail
	for _, e := range emails {
		if led.IsProcessed(e.DocID) || led.IsProcessedEmail(e.ID) {
			continue
		}
		pending = append(pending, e)
	}
	if len(pending) == 0 {
		fmt.Printf("[%s] No new meeting notes to process\n", report.RunID)
		return report, nil
	}
	fmt.Printf("[%s] %s\n", report.RunID, cyan(fmt.Sprintf("Processing %d meeting(s)", len(pending))))

	snapshots, err := p.fetchSnapshots(ctx)
	if err != nil {
		return nil, err
	}

	for _, email := range pending {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		if err := p.processEmail(ctx, email, led, snapshots, report); err != nil {
			color.Red("✗ Failed to process %q: %v", email.MeetingTitle, err)
			report.EmailsFailed++
			continue
		}
		report.EmailsProcessed++
	}
	return report, nil
}

// fetchSnapshots lists every routable destination list once, in parallel.
// The snapshot is taken once per run; candidates created during the run
// are appended so later candidates can match them.
func (p *Pipeline) fetchSnapshots(ctx context.Context) (map[string][]*task.Task, error) {
	snapshots := make(map[string][]*task.Task)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, listID := range p.Router.ListIDs() {
		g.Go(func() error {
			tasks, err := p.Dest.ListTasks(gctx, listID)
			if err != nil {
				return err
			}
			mu.Lock()
			snapshots[listID] = tasks
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snapshots, nil
}

func (p *Pipeline) processEmail(ctx context.Context, email source.NotesEmail, led *ledger.Ledger, snapshots map[string][]*task.Task, report *Report) error {
	if email.DocID == "" {
		return fmt.Errorf("no notes document linked in email %s", email.ID)
	}

	notes, err := p.Docs.DocumentText(ctx, email.DocID)
	if err != nil {
		return fmt.Errorf("failed to fetch notes document: %w", err)
	}

	candidates, err := p.Extractor.Extract(ctx, email.MeetingTitle, notes)
	if err != nil {
		return fmt.Errorf("failed to extract tasks: %w", err)
	}
	fmt.Printf("\n📋 %s: %d action item(s)\n", email.MeetingTitle, len(candidates))

	var created []ledger.TaskRef
	for _, candidate := range candidates {
		ref, err := p.processCandidate(ctx, candidate, email, snapshots, report)
		if err != nil {
			return err
		}
		if ref != nil {
			created = append(created, *ref)
		}
	}

	if p.Opts.DryRun {
		return nil
	}

	led.Record(ledger.Meeting{
		DocID:         email.DocID,
		MeetingTitle:  email.MeetingTitle,
		EmailID:       email.ID,
		ProcessedDate: ledger.Now(),
		TasksCreated:  created,
	})
	// Persist before marking read: a read email with no ledger entry would
	// never be picked up again, losing the meeting's provenance.
	if err := p.Store.Save(led); err != nil {
		return fmt.Errorf("failed to save ledger: %w", err)
	}
	if err := p.Mail.MarkRead(ctx, email.ID); err != nil {
		// The ledger entry already guards against reprocessing.
		color.Yellow("⚠ Could not mark email read: %v", err)
	}
	return nil
}

// processCandidate routes one candidate, checks it against the snapshot,
// and creates or updates per the policy verdict. Returns a TaskRef when a
// task was created.
func (p *Pipeline) processCandidate(ctx context.Context, candidate *task.Task, email source.NotesEmail, snapshots map[string][]*task.Task, report *Report) (*ledger.TaskRef, error) {
	listID := p.Router.Route(candidate)

	// Names below the minimum length carry too little signal for a ratio
	// score; file them without a duplicate check.
	if utf8.RuneCountInString(strings.TrimSpace(candidate.Name)) < p.Opts.Engine.MinNameLength {
		return p.createTask(ctx, candidate, listID, snapshots, report)
	}

	matches, err := dedup.FindMatches(candidate, snapshots[listID], p.Opts.Engine.Threshold)
	if err != nil {
		return nil, fmt.Errorf("duplicate check failed for %q: %w", candidate.Name, err)
	}

	if len(matches) == 0 {
		return p.createTask(ctx, candidate, listID, snapshots, report)
	}

	best := matches[0]
	cs := dedup.Compare(best.Task, candidate)

	verdict, err := p.Policy.DuplicateAction(candidate, best.Task, best.Score, cs)
	if err != nil {
		return nil, err
	}

	switch verdict {
	case prompt.VerdictSkip:
		report.TasksSkipped++
		fmt.Printf("  ⏭  Skipped %q (matches %q, %d%%)\n", candidate.Name, best.Task.Name, int(best.Score*100))
		return nil, nil
	case prompt.VerdictUpdate:
		if err := p.updateTask(ctx, best.Task, candidate, cs, email); err != nil {
			return nil, err
		}
		report.TasksUpdated++
		return nil, nil
	case prompt.VerdictCreate:
		return p.createTask(ctx, candidate, listID, snapshots, report)
	default:
		return nil, fmt.Errorf("unknown verdict %v", verdict)
	}
}

func (p *Pipeline) createTask(ctx context.Context, candidate *task.Task, listID string, snapshots map[string][]*task.Task, report *Report) (*ledger.TaskRef, error) {
	if p.Opts.DryRun {
		fmt.Printf("  [dry-run] would create %q in list %s\n", candidate.Name, listID)
		report.TasksCreated++
		return nil, nil
	}

	created, err := p.Dest.CreateTask(ctx, listID, candidate)
	if err != nil {
		return nil, fmt.Errorf("failed to create task %q: %w", candidate.Name, err)
	}
	report.TasksCreated++
	color.Green("  ✓ Created %q (%s)", created.Name, created.ID)

	// Later candidates in this run must see the new task.
	created.ListID = listID
	snapshots[listID] = append(snapshots[listID], created)
	return &ledger.TaskRef{TaskID: created.ID, TaskName: created.Name, ListID: listID}, nil
}

func (p *Pipeline) updateTask(ctx context.Context, existing, candidate *task.Task, cs dedup.ChangeSet, email source.NotesEmail) error {
	if cs.Empty() {
		fmt.Printf("  = %q already up to date\n", existing.Name)
		return nil
	}
	if p.Opts.DryRun {
		fmt.Printf("  [dry-run] would update %q: %s\n", existing.Name, cs.Summary())
		return nil
	}

	var upd clickup.TaskUpdate
	if cs.Description != nil {
		merged := dedup.MergeDescriptions(existing.Description, candidate.Description)
		upd.Description = &merged
	}
	if cs.DueDate != nil {
		due := cs.DueDate.New
		upd.DueDate = &due
	}
	if cs.Assignees != nil {
		add, remove := assigneeDiff(cs.Assignees.Old, cs.Assignees.New)
		upd.Assignees = &clickup.AssigneeUpdate{Add: add, Remove: remove}
	}
	if err := p.Dest.UpdateTask(ctx, existing.ID, upd); err != nil {
		return fmt.Errorf("failed to update task %s: %w", existing.ID, err)
	}

	comment := dedup.UpdateComment(cs, email.MeetingTitle, time.Now())
	if comment != "" {
		if err := p.Dest.AddComment(ctx, existing.ID, comment); err != nil {
			return fmt.Errorf("failed to comment on task %s: %w", existing.ID, err)
		}
	}
	color.Green("  ✓ Updated %q: %s", existing.Name, cs.Summary())
	return nil
}

// assigneeDiff turns old/new assignee sets into the add/remove deltas the
// tracker API takes. Both slices come back sorted.
func assigneeDiff(old, new []string) (add, remove []string) {
	oldSet := make(map[string]struct{}, len(old))
	for _, a := range old {
		oldSet[a] = struct{}{}
	}
	newSet := make(map[string]struct{}, len(new))
	for _, a := range new {
		newSet[a] = struct{}{}
	}
	for a := range newSet {
		if _, ok := oldSet[a]; !ok {
			add = append(add, a)
		}
	}
	for a := range oldSet {
		if _, ok := newSet[a]; !ok {
			remove = append(remove, a)
		}
	}
	sort.Strings(add)
	sort.Strings(remove)
	return add, remove
}
