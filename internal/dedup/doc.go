// Package dedup detects duplicate tasks and computes what changed between
// a candidate task and the existing task it matches.
//
// # Overview
//
// When meeting notes are reprocessed, or two meetings cover the same work,
// the pipeline would happily file the same task twice. This package
// prevents that: given a candidate task and a snapshot of the destination
// list's existing tasks, it finds fuzzy name matches, diffs the matched
// pair, merges descriptions without losing prior content, and renders a
// human-readable audit comment for the update.
//
// # Components
//
//  1. Similarity: sequence-alignment ratio between two task names
//  2. FindMatches: ranked matches above a configurable threshold
//  3. Compare: structured diff of due date, assignees, and description
//  4. MergeDescriptions: append-only merge of description content
//  5. UpdateComment: audit note naming the source meeting and the changes
//
// All of these are pure functions over in-memory values. The caller
// fetches the existing-task snapshot once per list per run and performs
// every ClickUp read or write itself; nothing in this package does I/O.
//
// # Threshold
//
// The default similarity threshold is 0.85. Useful values live between
// 0.80 and 0.95: below 0.80 false positives climb sharply, above 0.95 the
// matcher degenerates into exact matching. See Config.
//
// # What this is not
//
// Matching is lexical, not semantic: "Fix login bug" and "Repair sign-in
// defect" will not match. Only one pre-fetched snapshot is ever consulted,
// and closed or archived tasks are the caller's problem to exclude.
package dedup
