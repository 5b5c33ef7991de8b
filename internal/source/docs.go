package source

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/docs/v1"
	"google.golang.org/api/option"
)

// Docs fetches meeting-notes documents.
type Docs struct {
	svc *docs.Service
}

// NewDocs creates a read-only Google Docs client.
func NewDocs(ctx context.Context) (*Docs, error) {
	client, err := authedClient(ctx, []string{docs.DocumentsReadonlyScope})
	if err != nil {
		return nil, fmt.Errorf("failed to get authenticated client for Docs: %w", err)
	}
	svc, err := docs.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Docs service: %w", err)
	}
	return &Docs{svc: svc}, nil
}

// DocumentText returns the document body as plain text.
func (d *Docs) DocumentText(ctx context.Context, docID string) (string, error) {
	doc, err := d.svc.Documents.Get(docID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to fetch document %s: %w", docID, err)
	}
	return documentText(doc), nil
}

// documentText flattens a document's structural elements into plain text.
// Tables and other non-paragraph content are skipped; meeting notes are
// paragraph text.
func documentText(doc *docs.Document) string {
	if doc == nil || doc.Body == nil {
		return ""
	}
	var sb strings.Builder
	for _, elem := range doc.Body.Content {
		if elem.Paragraph == nil {
			continue
		}
		for _, pe := range elem.Paragraph.Elements {
			if pe.TextRun != nil {
				sb.WriteString(pe.TextRun.Content)
			}
		}
	}
	return sb.String()
}
