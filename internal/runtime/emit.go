package runtime

import (
	"context"

	"github.com/aretw0/gazette/pkg/domain"
)

func (c *Controller) stageEvent(r *run, typ domain.EventType) *domain.StageEvent {
	return &domain.StageEvent{
		EventBase: domain.EventBase{
			Timestamp: c.now(),
			Type:      typ,
			SessionID: r.s.ID,
		},
		Stage:   r.name,
		Attempt: r.res.Attempts,
	}
}

func (c *Controller) emitStageEnter(ctx context.Context, r *run) {
	if c.hooks.OnStageEnter != nil {
		evt := c.stageEvent(r, domain.EventStageEnter)
		evt.To = r.res.State
		c.hooks.OnStageEnter(ctx, evt)
	}
}

// emitStateChange reports the move from `from` to the current state of r.
func (c *Controller) emitStateChange(ctx context.Context, r *run, from domain.StageState, reason domain.EventKind) {
	c.logger.Debug("stage transition", "session_id", r.s.ID, "stage", r.name, "attempt", r.res.Attempts, "from", from, "to", r.res.State)
	if c.hooks.OnStateChange != nil {
		evt := c.stageEvent(r, domain.EventStateChange)
		evt.From = from
		evt.To = r.res.State
		evt.Reason = reason
		c.hooks.OnStateChange(ctx, evt)
	}
}

func (c *Controller) emitStageLeave(ctx context.Context, r *run, reason domain.EventKind) {
	if c.hooks.OnStageLeave != nil {
		evt := c.stageEvent(r, domain.EventStageLeave)
		evt.To = r.res.State
		evt.Reason = reason
		c.hooks.OnStageLeave(ctx, evt)
	}
}
