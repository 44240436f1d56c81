package domain

import (
	"fmt"
	"strings"
)

// StageName identifies one of the fixed transformation steps.
type StageName string

const (
	// StageInitial groups the events recorded before the first stage runs.
	StageInitial StageName = "Initial"
	StageAlpha   StageName = "Alpha"
	StageBeta    StageName = "Beta"
	StageGamma   StageName = "Gamma"
	StageDelta   StageName = "Delta"
)

// Stages lists the pipeline stages in execution order.
var Stages = []StageName{StageAlpha, StageBeta, StageGamma, StageDelta}

// Key returns the lower-case identifier used for templates and metrics labels.
func (s StageName) Key() string {
	return strings.ToLower(string(s))
}

// Index returns the position of the stage in Stages, or -1.
func (s StageName) Index() int {
	for i, st := range Stages {
		if st == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is one of the four pipeline stages.
func (s StageName) Valid() bool {
	return s.Index() >= 0
}

// ParseStage resolves a stage name case-insensitively ("alpha", "ALPHA", "Alpha").
func ParseStage(name string) (StageName, error) {
	for _, st := range Stages {
		if strings.EqualFold(string(st), strings.TrimSpace(name)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: unknown stage %q", ErrValidation, name)
}

// StageState is the Retry Controller state of a single stage.
type StageState string

const (
	StatePending          StageState = "pending"
	StateExecuting        StageState = "executing"
	StateAwaitingDecision StageState = "awaiting_decision"
	StateRetrying         StageState = "retrying"
	StateRevising         StageState = "revising"
	StateFinalized        StageState = "finalized"
	StateFailed           StageState = "failed"
)

// Terminal reports whether no further transitions leave the state.
func (s StageState) Terminal() bool {
	return s == StateFinalized || s == StateFailed
}
