// Package extract turns meeting-notes text into candidate tasks using the
// Anthropic API.
package extract

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/gutworks/gutautomate/internal/task"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-sonnet-4-5"

// RetryConfig holds retry tuning for API calls.
type RetryConfig struct {
	MaxRetries     int           // Maximum number of retries (default: 3)
	InitialBackoff time.Duration // Initial backoff duration (default: 1s)
	MaxBackoff     time.Duration // Maximum backoff duration (default: 30s)
	Timeout        time.Duration // Per-request timeout (default: 60s)
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		Timeout:        60 * time.Second,
	}
}

// Config holds extractor configuration.
type Config struct {
	APIKey string // Falls back to ANTHROPIC_API_KEY
	Model  string // Falls back to DefaultModel
	Retry  RetryConfig
}

// Extractor calls the Anthropic API to pull action items out of meeting
// notes. Extracted tasks are candidates: no ID, name always non-empty.
type Extractor struct {
	client *anthropic.Client
	model  string
	retry  RetryConfig
}

// New creates an Extractor.
func New(cfg Config) (*Extractor, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	retry := cfg.Retry
	if retry.MaxRetries == 0 {
		retry = DefaultRetryConfig()
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Extractor{client: &client, model: model, retry: retry}, nil
}

// Extract returns the action items found in the notes as candidate tasks.
// Items without a usable name are dropped; due dates must already be
// concrete ISO dates in the notes (no natural-language date parsing
// happens here).
func (e *Extractor) Extract(ctx context.Context, meetingTitle, notes string) ([]*task.Task, error) {
	if strings.TrimSpace(notes) == "" {
		return nil, nil
	}

	prompt := buildExtractionPrompt(meetingTitle, notes)

	var responseText string
	err := e.retryWithBackoff(ctx, "extract_tasks", func(attemptCtx context.Context) error {
		resp, apiErr := e.client.Messages.New(attemptCtx, anthropic.MessageNewParams{
			Model:     anthropic.Model(e.model),
			MaxTokens: 4096,
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		if apiErr != nil {
			return apiErr
		}
		responseText = ""
		for _, block := range resp.Content {
			if block.Type == "text" {
				responseText += block.Text
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic API call failed: %w", err)
	}

	items, err := parseItems(responseText)
	if err != nil {
		return nil, fmt.Errorf("failed to parse extraction response: %w", err)
	}

	var tasks []*task.Task
	for _, item := range items {
		t := item.toTask()
		if t == nil {
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// retryWithBackoff executes an operation with retry and exponential backoff.
func (e *Extractor) retryWithBackoff(ctx context.Context, operation string, fn func(context.Context) error) error {
	var lastErr error
	backoff := e.retry.InitialBackoff

	for attempt := 0; attempt <= e.retry.MaxRetries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, e.retry.Timeout)
		err := fn(attemptCtx)
		cancel()

		if err == nil {
			if attempt > 0 {
				fmt.Printf("AI %s succeeded after %d retries\n", operation, attempt)
			}
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt < e.retry.MaxRetries {
			fmt.Fprintf(os.Stderr, "AI %s attempt %d failed: %v (retrying in %v)\n",
				operation, attempt+1, err, backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff *= 2
			if backoff > e.retry.MaxBackoff {
				backoff = e.retry.MaxBackoff
			}
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", operation, e.retry.MaxRetries+1, lastErr)
}

// buildExtractionPrompt builds the prompt for action-item extraction.
func buildExtractionPrompt(meetingTitle, notes string) string {
	return fmt.Sprintf(`You are extracting action items from meeting notes.

MEETING: %s

NOTES:
%s

TASK:
Extract every concrete action item as a task. For each task provide:
- "name": short imperative summary (the task title)
- "description": one or two sentences of context from the notes
- "assignees": list of people named as owners (empty list if none)
- "due_date": the date in YYYY-MM-DD format ONLY if the notes state a
  concrete date; otherwise omit the field

GUIDELINES:
1. Only extract items someone is expected to act on
2. Do not invent owners or dates that are not in the notes
3. Keep names short; details belong in the description
4. Skip decisions, status updates, and discussion summaries

OUTPUT FORMAT (JSON only, no markdown):
[
  {
    "name": "Create overlay test for bitkey wallet",
    "description": "Needed before the next release cut.",
    "assignees": ["alice"],
    "due_date": "2025-10-30"
  }
]

IMPORTANT: Respond with ONLY a raw JSON array. Do NOT wrap it in markdown code fences. Return [] if there are no action items.`,
		meetingTitle, notes)
}
