package domain

// ActionRequest is one message of the structured decision protocol.
type ActionRequest struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Standard Action Types
const (
	// ActionRenderStage presents a stage attempt.
	// Payload: StageView
	ActionRenderStage = "RENDER_STAGE"

	// ActionRequestDecision asks for a menu token.
	// Payload: Menu
	ActionRequestDecision = "REQUEST_DECISION"

	// ActionRequestText asks for free text.
	// Payload: Question
	ActionRequestText = "REQUEST_TEXT"

	// ActionSystemMessage represents a meta-message from the system (log, status, etc).
	// Payload: string (the message)
	ActionSystemMessage = "SYSTEM_MESSAGE"
)

// ActionSessionResult reports a finished session.
// Payload: Outcome
const ActionSessionResult = "SESSION_RESULT"
