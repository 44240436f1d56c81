package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/gazette/pkg/domain"
	"github.com/aretw0/gazette/pkg/ports"
)

// Mask replaces masked values.
const Mask = "***"

type piiMiddleware struct {
	next     ports.SessionStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks, before saving, the
// values of additional answers and event payload fields whose key matches
// one of the patterns.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: mask pattern %q: %v", domain.ErrValidation, p, err)
		}
		patterns[i] = re
	}
	return func(next ports.SessionStore) ports.SessionStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) Save(ctx context.Context, detail *domain.SessionDetail) error {
	// The caller keeps using its record; mask a copy.
	cloned := *detail
	cloned.Parameters.AdditionalAnswers = deepCopyMap(detail.Parameters.AdditionalAnswers)
	maskMap(cloned.Parameters.AdditionalAnswers, m.patterns)

	cloned.Events = m.maskEvents(detail.Events)

	// Stage results carry their own copy of the events.
	if detail.Stages != nil {
		cloned.Stages = make([]*domain.StageResult, len(detail.Stages))
		for i, r := range detail.Stages {
			if r == nil {
				continue
			}
			rc := *r
			rc.Events = m.maskEvents(r.Events)
			cloned.Stages[i] = &rc
		}
	}
	return m.next.Save(ctx, &cloned)
}

func (m *piiMiddleware) maskEvents(events []domain.DecisionEvent) []domain.DecisionEvent {
	if events == nil {
		return nil
	}
	out := make([]domain.DecisionEvent, len(events))
	for i, e := range events {
		e.Payload = deepCopyMap(e.Payload)
		maskMap(e.Payload, m.patterns)
		out[i] = e
	}
	return out
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string) (*domain.SessionDetail, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if subMap, ok := v.(map[string]any); ok {
			out[k] = deepCopyMap(subMap)
		} else {
			out[k] = v
		}
	}
	return out
}

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		masked := false
		for _, p := range patterns {
			if p.MatchString(k) {
				m[k] = Mask
				masked = true
				break
			}
		}
		if subMap, ok := v.(map[string]any); ok && !masked {
			maskMap(subMap, patterns)
		}
	}
}
