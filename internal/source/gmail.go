package source

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// notesQuery matches the notes emails Google Meet sends after a recorded
// meeting.
const notesQuery = `from:gemini-app-noreply@google.com subject:("Notes:")`

var docLinkRegex = regexp.MustCompile(`https://docs\.google\.com/document/d/([a-zA-Z0-9_-]+)`)

// NotesEmail is one meeting-notes email, with the linked Google Doc ID
// already extracted. DocID may be empty when no doc link was found.
type NotesEmail struct {
	ID           string
	Subject      string
	MeetingTitle string
	Date         string
	DocID        string
}

// Mail reads and marks meeting-notes emails.
type Mail struct {
	svc *gmail.Service
}

// NewMail creates a Gmail client with modify scope (needed to mark emails
// read after processing).
func NewMail(ctx context.Context) (*Mail, error) {
	client, err := authedClient(ctx, []string{gmail.GmailModifyScope})
	if err != nil {
		return nil, fmt.Errorf("failed to get authenticated client for Gmail: %w", err)
	}
	svc, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %w", err)
	}
	return &Mail{svc: svc}, nil
}

// ListNotesEmails returns meeting-notes emails. With unreadOnly, only
// unprocessed mail is returned; the backfill flow passes false to see
// everything from the last 30 days.
func (m *Mail) ListNotesEmails(ctx context.Context, unreadOnly bool) ([]NotesEmail, error) {
	query := notesQuery
	if unreadOnly {
		query += " is:unread"
	} else {
		query += " newer_than:30d"
	}

	listed, err := m.svc.Users.Messages.List("me").Q(query).MaxResults(100).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list notes emails: %w", err)
	}

	var emails []NotesEmail
	for _, ref := range listed.Messages {
		full, err := m.svc.Users.Messages.Get("me", ref.Id).Format("full").Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("failed to fetch email %s: %w", ref.Id, err)
		}
		emails = append(emails, parseNotesEmail(full))
	}
	return emails, nil
}

// MarkRead removes the UNREAD label so the email is not picked up again.
func (m *Mail) MarkRead(ctx context.Context, emailID string) error {
	_, err := m.svc.Users.Messages.Modify("me", emailID, &gmail.ModifyMessageRequest{
		RemoveLabelIds: []string{"UNREAD"},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to mark email %s read: %w", emailID, err)
	}
	return nil
}

// parseNotesEmail pulls the subject, date, and linked doc ID out of a full
// message.
func parseNotesEmail(msg *gmail.Message) NotesEmail {
	email := NotesEmail{ID: msg.Id}
	if msg.Payload == nil {
		return email
	}

	for _, h := range msg.Payload.Headers {
		switch h.Name {
		case "Subject":
			email.Subject = h.Value
		case "Date":
			email.Date = h.Value
		}
	}
	email.MeetingTitle = meetingTitleFromSubject(email.Subject)

	for _, part := range msg.Payload.Parts {
		if part.MimeType != "text/html" || part.Body == nil {
			continue
		}
		decoded, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(part.Body.Data)
		if err != nil {
			continue
		}
		if docID := ExtractDocID(string(decoded)); docID != "" {
			email.DocID = docID
			break
		}
	}
	return email
}

// meetingTitleFromSubject strips the "Notes:" prefix and surrounding
// quotes from an email subject.
func meetingTitleFromSubject(subject string) string {
	title := strings.TrimSpace(subject)
	title = strings.TrimPrefix(title, "Notes:")
	title = strings.TrimSpace(title)
	return strings.Trim(title, `"`)
}

// ExtractDocID finds the first Google Docs document ID in text, or ""
// when there is none.
func ExtractDocID(text string) string {
	m := docLinkRegex.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}
