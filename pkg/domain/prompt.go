package domain

// Prompt is the structured request sent to the generative backend.
type Prompt struct {
	System string `json:"system"`
	User   string `json:"user"`
}
