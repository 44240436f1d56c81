package runtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/gazette/pkg/domain"
	"github.com/aretw0/gazette/pkg/prompt"
	"github.com/aretw0/gazette/pkg/runner"
)

// decide presents the attempt and asks for a decision until a valid one arrives.
// Invalid answers are recorded and re-prompted. Every valid answer is recorded
// as a user_choice event.
func (c *Controller) decide(ctx context.Context, r *run, ceiling int) (domain.Decision, error) {
	view := domain.StageView{
		Stage:   r.name,
		Attempt: r.res.Attempts,
		Ceiling: ceiling,
		Output:  r.last,
		Hints:   r.hints,
	}
	if err := c.source.Present(ctx, view); err != nil {
		return domain.Decision{}, abortCause(err)
	}

	menu := domain.MenuFor(r.last)
	for {
		raw, err := c.source.Choose(ctx, menu)
		if err != nil {
			return domain.Decision{}, abortCause(err)
		}
		d := runner.Normalize(raw, menu)
		payload := map[string]any{
			"choice":   raw,
			"decision": string(d.Token),
			"attempt":  r.res.Attempts,
		}
		if d.Choice > 0 {
			payload["option"] = d.Choice
		}
		r.trail.Log(ctx, domain.EventUserChoice, payload)
		if d.Valid() {
			return d, nil
		}
		_ = c.source.SystemOutput(ctx, fmt.Sprintf("Unrecognized choice %q, please try again.", raw))
	}
}

// customHeadline asks for a replacement headline. An empty answer keeps the
// recommended one.
func (c *Controller) customHeadline(ctx context.Context, r *run, g *domain.GammaOutput) error {
	q := domain.Question{
		Stage:   domain.StageGamma,
		Field:   "headline",
		Label:   "Custom headline",
		Current: g.Headline(),
	}
	raw, err := c.source.Prompt(ctx, q)
	if err != nil {
		return abortCause(err)
	}
	text := strings.TrimSpace(raw)
	if text == "" {
		text = q.Current
	}
	g.Selected = text
	r.trail.Log(ctx, domain.EventUserChoice, map[string]any{
		"decision": string(domain.DecisionModify),
		"headline": text,
		"custom":   text != q.Current,
		"attempt":  r.res.Attempts,
	})
	return nil
}

// prepareRetry gathers what the next attempt needs. Beta re-collects the style
// parameters and Delta asks for a revision instruction.
func (c *Controller) prepareRetry(ctx context.Context, r *run) error {
	switch r.name {
	case domain.StageBeta:
		c.transition(ctx, r, domain.StateRevising, "")
		return c.recollect(ctx, r)
	case domain.StageDelta:
		c.transition(ctx, r, domain.StateRevising, "")
		return c.revisionNotes(ctx, r)
	}
	c.transition(ctx, r, domain.StateRetrying, "")
	return nil
}

var recollectFields = []struct {
	field string
	label string
}{
	{prompt.FieldNewsType, "News type"},
	{prompt.FieldTargetStyle, "Target style"},
	{prompt.FieldTone, "Tone"},
}

func (c *Controller) recollect(ctx context.Context, r *run) error {
	params := &r.s.Parameters
	targets := map[string]*string{
		prompt.FieldNewsType:    &params.NewsType,
		prompt.FieldTargetStyle: &params.TargetStyle,
		prompt.FieldTone:        &params.Tone,
	}

	changes := map[string]any{"attempt": r.res.Attempts}
	for _, f := range recollectFields {
		dst := targets[f.field]
		q := domain.Question{Stage: domain.StageBeta, Field: f.field, Label: f.label, Current: *dst}
		if c.prompts != nil {
			q.Options = c.prompts.Options(f.field)
		}

		raw, err := c.source.Prompt(ctx, q)
		if err != nil {
			return abortCause(err)
		}
		value, custom := runner.ResolveAnswer(raw, q)
		if custom {
			cq := domain.Question{Stage: domain.StageBeta, Field: f.field, Label: f.label + " (custom)", Current: *dst}
			raw, err := c.source.Prompt(ctx, cq)
			if err != nil {
				return abortCause(err)
			}
			if value = strings.TrimSpace(raw); value == "" {
				value = *dst
			}
		}
		*dst = value
		changes[f.field] = value
	}
	r.trail.Log(ctx, domain.EventUserChoice, changes)
	return nil
}

func (c *Controller) revisionNotes(ctx context.Context, r *run) error {
	q := domain.Question{
		Stage: domain.StageDelta,
		Field: "revision_notes",
		Label: "Revision instructions (facts and figures stay unchanged)",
	}
	raw, err := c.source.Prompt(ctx, q)
	if err != nil {
		return abortCause(err)
	}
	r.revision = strings.TrimSpace(raw)
	r.trail.Log(ctx, domain.EventUserChoice, map[string]any{
		"revision_notes": r.revision,
		"attempt":        r.res.Attempts,
	})
	return nil
}
