// Package mock provides a deterministic backend for simulation runs and tests.
package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/gazette/pkg/domain"
	"github.com/aretw0/gazette/pkg/ports"
)

// Interface compliance checks.
var (
	_ ports.Backend       = (*Backend)(nil)
	_ ports.HealthChecker = (*Backend)(nil)
	_ ports.ModelLister   = (*Backend)(nil)
)

// ModelName is reported by Models.
const ModelName = "mock"

// Canned holds the fixed response for every stage.
var Canned = map[domain.StageName]string{
	domain.StageAlpha: `{"draft_content":"模擬初稿","key_points":["重點一"],"word_count":100,"info_hierarchy":{},"completeness_score":10,"analysis_notes":[],"quality_score":10,"needs_retry":false}`,
	domain.StageBeta:  `{"styled_content":"模擬風格化內容","style_changes":[],"word_count":120,"tone_score":9,"readability_score":80,"style_notes":[],"quality_score":10,"needs_retry":false}`,
	domain.StageGamma: `{"headline_options":{"news_type":"模擬新聞標題","data_type":"模擬數據標題"},"recommended":"模擬新聞標題","seo_keywords":["模擬"],"headline_rationale":"","appeal_score":8,"quality_score":8,"needs_retry":false}`,
	domain.StageDelta: `{"final_body":"最終模擬內容","selected_headline":"最終模擬標題","quality_report":{"issues_found":[],"corrections_made":[],"quality_score":9},"publish_ready":true}`,
}

// Call records one Invoke.
type Call struct {
	Stage  domain.StageName
	Prompt domain.Prompt
}

// Backend returns Canned responses unless InvokeFn is set.
type Backend struct {
	// InvokeFn overrides the canned responses when non-nil.
	InvokeFn func(ctx context.Context, stage domain.StageName, prompt domain.Prompt) (string, error)

	mu    sync.Mutex
	calls []Call
}

// New returns a backend serving the canned responses.
func New() *Backend {
	return &Backend{}
}

// Invoke records the call and returns the scripted or canned response.
func (b *Backend) Invoke(ctx context.Context, stage domain.StageName, prompt domain.Prompt) (string, error) {
	b.mu.Lock()
	b.calls = append(b.calls, Call{Stage: stage, Prompt: prompt})
	b.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if b.InvokeFn != nil {
		return b.InvokeFn(ctx, stage, prompt)
	}
	out, ok := Canned[stage]
	if !ok {
		return "", fmt.Errorf("mock: no response for stage %q", stage)
	}
	return out, nil
}

// Calls returns the recorded invocations in order.
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Call(nil), b.calls...)
}

// Health always succeeds.
func (b *Backend) Health(context.Context) error { return nil }

// Models reports the single mock model.
func (b *Backend) Models(context.Context) ([]string, error) {
	return []string{ModelName}, nil
}

// Sequence returns an InvokeFn that serves responses per stage in order,
// repeating the last one once the queue is drained.
func Sequence(responses map[domain.StageName][]string) func(context.Context, domain.StageName, domain.Prompt) (string, error) {
	var mu sync.Mutex
	next := make(map[domain.StageName]int)
	return func(_ context.Context, stage domain.StageName, _ domain.Prompt) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		queue := responses[stage]
		if len(queue) == 0 {
			if out, ok := Canned[stage]; ok {
				return out, nil
			}
			return "", fmt.Errorf("mock: no response for stage %q", stage)
		}
		i := next[stage]
		if i >= len(queue) {
			i = len(queue) - 1
		}
		next[stage] = i + 1
		return queue[i], nil
	}
}
