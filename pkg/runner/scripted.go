package runner

import (
	"context"
	"sync"

	"github.com/aretw0/gazette/pkg/domain"
)

// ScriptedHandler answers decision points from a fixed queue of tokens.
// Once the queue is empty every Choose returns "" (the menu default, which is
// accept) and every Prompt returns "" (keep the current value).
type ScriptedHandler struct {
	mu       sync.Mutex
	answers  []string
	views    []domain.StageView
	menus    []domain.Menu
	messages []string
}

// NewScriptedHandler creates a handler that replays answers in order.
func NewScriptedHandler(answers ...string) *ScriptedHandler {
	return &ScriptedHandler{answers: append([]string(nil), answers...)}
}

func (h *ScriptedHandler) next() string {
	if len(h.answers) == 0 {
		return ""
	}
	a := h.answers[0]
	h.answers = h.answers[1:]
	return a
}

func (h *ScriptedHandler) Present(_ context.Context, view domain.StageView) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.views = append(h.views, view)
	return nil
}

func (h *ScriptedHandler) Choose(ctx context.Context, menu domain.Menu) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.menus = append(h.menus, menu)
	return h.next(), nil
}

func (h *ScriptedHandler) Prompt(ctx context.Context, _ domain.Question) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.next(), nil
}

func (h *ScriptedHandler) SystemOutput(_ context.Context, msg string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, msg)
	return nil
}

// Views returns every stage attempt presented so far.
func (h *ScriptedHandler) Views() []domain.StageView {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]domain.StageView(nil), h.views...)
}

// Menus returns every menu offered so far.
func (h *ScriptedHandler) Menus() []domain.Menu {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]domain.Menu(nil), h.menus...)
}

// Remaining reports how many scripted answers are left.
func (h *ScriptedHandler) Remaining() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.answers)
}
