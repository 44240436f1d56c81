package runner

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/gazette/pkg/domain"
)

// JSONHandler is a decision source speaking JSON Lines.
// Every prompt is emitted as one ActionRequest per line; answers are read one
// per line, either as a JSON string or as plain text.
type JSONHandler struct {
	mu      sync.Mutex
	encoder *json.Encoder
	lines   *lineReader
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		encoder: json.NewEncoder(w),
		lines:   newLineReader(r),
	}
}

func (h *JSONHandler) emit(kind string, payload any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.encoder.Encode(domain.ActionRequest{Type: kind, Payload: payload})
}

func (h *JSONHandler) Present(ctx context.Context, view domain.StageView) error {
	return h.emit(domain.ActionRenderStage, view)
}

func (h *JSONHandler) Choose(ctx context.Context, menu domain.Menu) (string, error) {
	if err := h.emit(domain.ActionRequestDecision, menu); err != nil {
		return "", err
	}
	return h.Input(ctx)
}

func (h *JSONHandler) Prompt(ctx context.Context, q domain.Question) (string, error) {
	if err := h.emit(domain.ActionRequestText, q); err != nil {
		return "", err
	}
	return h.Input(ctx)
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.emit(domain.ActionSystemMessage, msg)
}

// Input reads one answer line.
func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	text, err := h.lines.ReadLine(ctx)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)

	var val string
	if err := json.Unmarshal([]byte(text), &val); err == nil {
		text = val
	}
	return SanitizeInput(text)
}
