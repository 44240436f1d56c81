package stage

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var smartQuotes = strings.NewReplacer("“", `"`, "”", `"`, "‘", "'", "’", "'")

var pyLiteral = regexp.MustCompile(`\b(True|False|None)\b`)

var pyToJSON = map[string]string{"True": "true", "False": "false", "None": "null"}

var trailingComma = regexp.MustCompile(`,\s*([}\]])`)

// Object is a decoded model response. Raw keeps the undecoded members so
// that order-sensitive fields can be decoded on their own.
type Object struct {
	Fields map[string]any
	Raw    map[string]json.RawMessage
}

// ParseObject decodes model output into a JSON object, repairing the usual
// defects: smart quotes, Python literals, prose around the object and
// trailing commas.
func ParseObject(text string) (*Object, error) {
	candidates := candidatesFor(text)

	firstErr := errors.New("empty response")
	for i, c := range candidates {
		obj, err := decodeObject(c)
		if err == nil {
			return obj, nil
		}
		if i == 0 {
			firstErr = err
		}
	}
	for _, c := range candidates {
		if obj, err := decodeObject(trailingComma.ReplaceAllString(c, "$1")); err == nil {
			return obj, nil
		}
	}
	return nil, fmt.Errorf("no JSON object after repairs: %w", firstErr)
}

func candidatesFor(text string) []string {
	var out []string
	add := func(s string) {
		if s == "" {
			return
		}
		for _, c := range out {
			if c == s {
				return
			}
		}
		out = append(out, s)
	}

	add(text)
	add(normalize(text))
	if extracted := firstObject(text); extracted != "" {
		add(extracted)
		add(normalize(extracted))
	}
	return out
}

func normalize(s string) string {
	s = smartQuotes.Replace(s)
	return pyLiteral.ReplaceAllStringFunc(s, func(m string) string { return pyToJSON[m] })
}

// firstObject returns the first balanced {...} span of s.
func firstObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

func decodeObject(s string) (*Object, error) {
	data := []byte(strings.TrimSpace(s))
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errors.New("not a JSON object")
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return &Object{Fields: fields, Raw: raw}, nil
}

// excerpt shortens s for error payloads.
func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
