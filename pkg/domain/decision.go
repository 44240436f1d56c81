package domain

import "strconv"

// DecisionToken is the canonical decision vocabulary.
type DecisionToken string

const (
	DecisionAccept  DecisionToken = "accept"
	DecisionRetry   DecisionToken = "retry"
	DecisionModify  DecisionToken = "modify"
	DecisionQuit    DecisionToken = "quit"
	DecisionInvalid DecisionToken = "invalid"
)

// Decision is a normalized user answer.
type Decision struct {
	Token DecisionToken `json:"token"`
	// Choice is the 1-based option picked from a list menu (Gamma headlines), or 0.
	Choice int    `json:"choice,omitempty"`
	Raw    string `json:"raw"`
}

// Valid reports whether the token is part of the vocabulary.
func (d Decision) Valid() bool {
	return d.Token != DecisionInvalid && d.Token != ""
}

// Action is one entry of a stage menu.
type Action struct {
	// Key is the positional label typed by the user ("1", "0").
	Key    string        `json:"key"`
	Letter string        `json:"letter,omitempty"`
	Token  DecisionToken `json:"token"`
	Label  string        `json:"label"`
	Choice int           `json:"choice,omitempty"`
}

// Menu lists the actions available at a decision point, in stage-defined order.
type Menu struct {
	Stage   StageName `json:"stage"`
	Actions []Action  `json:"actions"`
	// Default is the Key selected by an empty answer.
	Default string `json:"default"`
}

// Find returns the action with key.
func (m Menu) Find(key string) (Action, bool) {
	for _, a := range m.Actions {
		if a.Key == key {
			return a, true
		}
	}
	return Action{}, false
}

// First returns the first action carrying token.
func (m Menu) First(token DecisionToken) (Action, bool) {
	if def, ok := m.Find(m.Default); ok && def.Token == token {
		return def, true
	}
	for _, a := range m.Actions {
		if a.Token == token {
			return a, true
		}
	}
	return Action{}, false
}

// StageMenu is the accept/retry/quit menu of Alpha and Beta.
func StageMenu(stage StageName) Menu {
	return Menu{
		Stage: stage,
		Actions: []Action{
			{Key: "1", Letter: "a", Token: DecisionAccept, Label: "accept"},
			{Key: "2", Letter: "r", Token: DecisionRetry, Label: "retry"},
			{Key: "3", Letter: "q", Token: DecisionQuit, Label: "quit"},
		},
		Default: "1",
	}
}

// RevisionMenu is the Delta menu: accept, revise with an instruction, or quit.
func RevisionMenu() Menu {
	return Menu{
		Stage: StageDelta,
		Actions: []Action{
			{Key: "1", Letter: "y", Token: DecisionAccept, Label: "accept"},
			{Key: "2", Letter: "n", Token: DecisionModify, Label: "revise with instructions"},
			{Key: "3", Letter: "q", Token: DecisionQuit, Label: "quit"},
		},
		Default: "1",
	}
}

// HeadlineMenu lists one accept action per headline, then custom, retry and quit.
func HeadlineMenu(out *GammaOutput) Menu {
	m := Menu{Stage: StageGamma}
	for i, h := range out.HeadlineOptions {
		m.Actions = append(m.Actions, Action{
			Key:    strconv.Itoa(i + 1),
			Token:  DecisionAccept,
			Label:  h.Kind + ": " + h.Text,
			Choice: i + 1,
		})
	}
	m.Actions = append(m.Actions,
		Action{Key: "0", Letter: "m", Token: DecisionModify, Label: "custom headline"},
		Action{Key: "r", Letter: "r", Token: DecisionRetry, Label: "retry"},
		Action{Key: "q", Letter: "q", Token: DecisionQuit, Label: "quit"},
	)
	m.Default = strconv.Itoa(out.RecommendedIndex())
	return m
}

// MenuFor returns the decision menu of stage for the given output.
func MenuFor(out StageOutput) Menu {
	switch o := out.(type) {
	case *GammaOutput:
		return HeadlineMenu(o)
	case *DeltaOutput:
		return RevisionMenu()
	}
	return StageMenu(out.Stage())
}

// Option is one selectable value of a free-form question.
type Option struct {
	Value   string `json:"value"`
	Summary string `json:"summary,omitempty"`
}

// Question asks the decision source for free text (revision note, custom
// headline, parameter value).
type Question struct {
	Stage   StageName `json:"stage"`
	Field   string    `json:"field"`
	Label   string    `json:"label"`
	Options []Option  `json:"options,omitempty"`
	Current string    `json:"current,omitempty"`
}

// StageView is what a decision source presents after an attempt.
type StageView struct {
	Stage   StageName   `json:"stage"`
	Attempt int         `json:"attempt"`
	Ceiling int         `json:"ceiling"`
	Output  StageOutput `json:"output"`
	Hints   []string    `json:"hints,omitempty"`
}
