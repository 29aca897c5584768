// Package prompts loads named system-prompt templates and composes them
// into client message sequences.
//
// Templates live as <name>.txt files under a configured root directory.
// Resolved templates are memoized in a bounded LRU cache; an optional
// filesystem watcher evicts entries whose backing files change.
package prompts
