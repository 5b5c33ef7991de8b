package dedup

import "strings"

// mergeSeparator is appended before new content so every update round
// stays visible in the description.
const mergeSeparator = "\n\n---\nUpdated from new meeting notes:\n"

// MergeDescriptions combines an existing description with new content
// without losing information. The result is append-only: previously
// merged blocks are never rewritten or deleted, so the full history of
// updates remains readable.
//
// When incoming is empty or already contained in existing (case- and
// whitespace-normalized), existing is returned unchanged, which makes the
// merge idempotent across repeated update rounds.
func MergeDescriptions(existing, incoming string) string {
	if strings.TrimSpace(incoming) == "" {
		return existing
	}
	if strings.TrimSpace(existing) == "" {
		return incoming
	}
	if strings.Contains(normalizeText(existing), normalizeText(incoming)) {
		return existing
	}
	return existing + mergeSeparator + incoming
}
