// Package prompt implements the interactive and batch duplicate policy.
//
// The engine never blocks on a human: it hands the caller a match and a
// ChangeSet, and this package turns that into one of three verdicts. In
// batch mode the answer is always Skip, printed but never prompted.
package prompt

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/gutworks/gutautomate/internal/clickup"
	"github.com/gutworks/gutautomate/internal/dedup"
	"github.com/gutworks/gutautomate/internal/task"
)

// Verdict is the caller's decision for a detected duplicate.
type Verdict int

const (
	// VerdictSkip leaves the existing task alone and drops the candidate.
	VerdictSkip Verdict = iota
	// VerdictUpdate applies the detected changes to the existing task.
	VerdictUpdate
	// VerdictCreate files the candidate anyway, ignoring the match.
	VerdictCreate
)

func (v Verdict) String() string {
	switch v {
	case VerdictSkip:
		return "skip"
	case VerdictUpdate:
		return "update"
	case VerdictCreate:
		return "create"
	default:
		return "unknown"
	}
}

// Prompter asks the user what to do with duplicates. With batch set it
// auto-selects Skip without reading input.
type Prompter struct {
	batch bool
	rl    *readline.Instance
}

// New creates a Prompter. The readline instance is only opened in
// interactive mode.
func New(batch bool) (*Prompter, error) {
	p := &Prompter{batch: batch}
	if !batch {
		rl, err := readline.New("")
		if err != nil {
			return nil, fmt.Errorf("failed to initialize readline: %w", err)
		}
		p.rl = rl
	}
	return p, nil
}

// Close releases the readline instance.
func (p *Prompter) Close() error {
	if p.rl != nil {
		return p.rl.Close()
	}
	return nil
}

// DuplicateAction shows a detected duplicate and returns the user's
// verdict. Batch mode prints the auto-selected Skip and returns it.
func (p *Prompter) DuplicateAction(candidate, existing *task.Task, score float64, cs dedup.ChangeSet) (Verdict, error) {
	yellow := color.New(color.FgYellow, color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	fmt.Println()
	fmt.Println(yellow("⚠ POTENTIAL DUPLICATE DETECTED"))
	fmt.Printf("\n%s (%d%% match)\n", cyan("Existing task:"), int(score*100))
	fmt.Printf("   Name: %s\n", existing.Name)
	fmt.Printf("   ID: %s\n", existing.ID)
	fmt.Printf("   URL: %s\n", taskURL(existing))
	if existing.Status != "" {
		fmt.Printf("   Status: %s\n", existing.Status)
	}
	if len(existing.Assignees) > 0 {
		fmt.Printf("   Assignees: %s\n", strings.Join(existing.Assignees, ", "))
	}
	if existing.DueDate != nil {
		fmt.Printf("   Due Date: %s\n", existing.DueDate.Format("2006-01-02"))
	}

	fmt.Printf("\n%s\n", cyan("New task:"))
	fmt.Printf("   Name: %s\n", candidate.Name)
	if len(candidate.Assignees) > 0 {
		fmt.Printf("   Assignees: %s\n", strings.Join(candidate.Assignees, ", "))
	}
	if candidate.DueDate != nil {
		fmt.Printf("   Due Date: %s\n", candidate.DueDate.Format("2006-01-02"))
	}

	if !cs.Empty() {
		fmt.Printf("\n%s %s\n", cyan("Detected changes:"), cs.Summary())
	}

	fmt.Println()
	fmt.Println("  1) Skip - Don't create (task already exists)")
	fmt.Println("  2) Update - Update existing task with new information")
	fmt.Println("  3) Create - Create new task anyway (ignore duplicate)")

	if p.batch {
		fmt.Println(gray("[batch mode: auto-selecting 'skip']"))
		return VerdictSkip, nil
	}

	p.rl.SetPrompt("Your choice (1/2/3): ")
	for {
		line, err := p.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				return VerdictSkip, nil
			}
			return VerdictSkip, err
		}
		if v, ok := parseChoice(line); ok {
			return v, nil
		}
		fmt.Println("Please enter 1, 2, or 3")
	}
}

// Confirm asks a yes/no question, returning the default on empty input.
// Batch mode always returns the default.
func (p *Prompter) Confirm(question string, def bool) (bool, error) {
	suffix := "y/N"
	if def {
		suffix = "Y/n"
	}
	if p.batch {
		fmt.Printf("%s (%s) [batch mode: %t]\n", question, suffix, def)
		return def, nil
	}

	p.rl.SetPrompt(fmt.Sprintf("%s (%s): ", question, suffix))
	line, err := p.rl.Readline()
	if err != nil {
		if err == readline.ErrInterrupt || err == io.EOF {
			return false, nil
		}
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "":
		return def, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func parseChoice(line string) (Verdict, bool) {
	switch strings.TrimSpace(line) {
	case "1", "skip":
		return VerdictSkip, true
	case "2", "update":
		return VerdictUpdate, true
	case "3", "create":
		return VerdictCreate, true
	default:
		return VerdictSkip, false
	}
}

func taskURL(t *task.Task) string {
	if t.URL != "" {
		return t.URL
	}
	return clickup.TaskURL(t.ID)
}
