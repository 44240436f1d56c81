package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/gazette/pkg/domain"
	"github.com/mattn/go-runewidth"
)

// DefaultWidth is the column budget for menu and option lines.
const DefaultWidth = 100

// TextHandler is the interactive terminal decision source.
type TextHandler struct {
	Writer   io.Writer
	Renderer ContentRenderer
	Width    int

	lines *lineReader
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithTextHandlerWidth sets the column budget for menu lines.
func WithTextHandlerWidth(width int) TextHandlerOption {
	return func(h *TextHandler) {
		if width > 0 {
			h.Width = width
		}
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Writer: w,
		Width:  DefaultWidth,
		lines:  newLineReader(r),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TextHandler) Present(ctx context.Context, view domain.StageView) error {
	output := Markdown(view)
	if h.Renderer != nil {
		if rendered, err := h.Renderer(output); err == nil {
			output = rendered
		}
	}
	fmt.Fprintln(h.Writer, strings.TrimSpace(output))
	for _, hint := range view.Hints {
		fmt.Fprintf(h.Writer, "  ! %s\n", h.fit(hint))
	}
	return nil
}

func (h *TextHandler) Choose(ctx context.Context, menu domain.Menu) (string, error) {
	fmt.Fprintf(h.Writer, "\n%s - choose an action:\n", menu.Stage)
	for _, a := range menu.Actions {
		line := fmt.Sprintf("  %s) %s", a.Key, a.Label)
		if a.Letter != "" && a.Letter != a.Key {
			line += fmt.Sprintf(" (%s)", a.Letter)
		}
		fmt.Fprintln(h.Writer, h.fit(line))
	}
	if menu.Default != "" {
		fmt.Fprintf(h.Writer, "[default: %s]\n", menu.Default)
	}
	return h.Input(ctx)
}

func (h *TextHandler) Prompt(ctx context.Context, q domain.Question) (string, error) {
	fmt.Fprintf(h.Writer, "\n%s\n", q.Label)
	for i, opt := range q.Options {
		line := fmt.Sprintf("  %d) %s", i+1, opt.Value)
		if opt.Summary != "" {
			line += " - " + opt.Summary
		}
		fmt.Fprintln(h.Writer, h.fit(line))
	}
	if len(q.Options) > 0 {
		fmt.Fprintln(h.Writer, "  0) custom")
	}
	if q.Current != "" {
		fmt.Fprintf(h.Writer, "[current: %s]\n", q.Current)
	}
	return h.Input(ctx)
}

// Input reads one sanitized line, re-prompting on rejected input.
func (h *TextHandler) Input(ctx context.Context) (string, error) {
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
			fmt.Fprint(h.Writer, "> ")
		}

		text, err := h.lines.ReadLine(ctx)
		if err != nil {
			return "", err
		}
		clean, err := SanitizeInput(strings.TrimSpace(text))
		if err != nil {
			fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n", err)
			continue
		}
		return clean, nil
	}
}

func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	fmt.Fprintf(h.Writer, "\n[System] %s\n", msg)
	return nil
}

// fit truncates s to the handler width in display columns, so CJK text is
// cut at the same visual width as ASCII.
func (h *TextHandler) fit(s string) string {
	if h.Width <= 0 {
		return s
	}
	return runewidth.Truncate(s, h.Width, "…")
}
