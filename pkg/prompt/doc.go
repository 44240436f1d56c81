// Package prompt loads the per-stage prompt templates and composes the
// system and user messages sent to the backend.
package prompt
