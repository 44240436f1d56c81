package domain

import "fmt"

// Default parameter values.
const (
	DefaultNewsType    = "財經"
	DefaultTargetStyle = "經濟日報"
	DefaultWordLimit   = 800
	DefaultTone        = "客觀中性"
	DefaultMaxRetries  = 2
)

// Parameters configures one session. The values shape stage prompts and the
// retry ceiling; the control flow only reads MaxRetries and NonInteractive.
type Parameters struct {
	NewsType          string         `json:"news_type" yaml:"news_type" mapstructure:"news_type"`
	TargetStyle       string         `json:"target_style" yaml:"target_style" mapstructure:"target_style"`
	WordLimit         int            `json:"word_limit" yaml:"word_limit" mapstructure:"word_limit"`
	Tone              string         `json:"tone" yaml:"tone" mapstructure:"tone"`
	Constraints       string         `json:"constraints,omitempty" yaml:"constraints" mapstructure:"constraints"`
	AdditionalAnswers map[string]any `json:"additional_answers,omitempty" yaml:"additional_answers" mapstructure:"additional_answers"`
	MaxRetries        int            `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
	NonInteractive    bool           `json:"non_interactive" yaml:"non_interactive" mapstructure:"non_interactive"`
}

// DefaultParameters returns the stock configuration.
func DefaultParameters() Parameters {
	return Parameters{
		NewsType:    DefaultNewsType,
		TargetStyle: DefaultTargetStyle,
		WordLimit:   DefaultWordLimit,
		Tone:        DefaultTone,
		MaxRetries:  DefaultMaxRetries,
	}
}

// Ceiling is the maximum number of attempts per stage.
func (p Parameters) Ceiling() int {
	return p.MaxRetries + 1
}

// Validate checks the numeric bounds.
func (p Parameters) Validate() error {
	if p.MaxRetries < 0 {
		return fmt.Errorf("%w: max_retries must be >= 0, got %d", ErrValidation, p.MaxRetries)
	}
	if p.WordLimit <= 0 {
		return fmt.Errorf("%w: word_limit must be > 0, got %d", ErrValidation, p.WordLimit)
	}
	return nil
}

// Summary returns the parameters recorded in the session's config event.
func (p Parameters) Summary() map[string]any {
	return map[string]any{
		"news_type":       p.NewsType,
		"target_style":    p.TargetStyle,
		"word_limit":      p.WordLimit,
		"tone":            p.Tone,
		"constraints":     p.Constraints,
		"max_retries":     p.MaxRetries,
		"non_interactive": p.NonInteractive,
	}
}

// ParameterOverrides carries per-document changes. Zero values keep the base.
type ParameterOverrides struct {
	NewsType    string `json:"news_type,omitempty" yaml:"news_type" mapstructure:"news_type"`
	TargetStyle string `json:"target_style,omitempty" yaml:"target_style" mapstructure:"target_style"`
	WordLimit   int    `json:"word_limit,omitempty" yaml:"word_limit" mapstructure:"word_limit"`
	Tone        string `json:"tone,omitempty" yaml:"tone" mapstructure:"tone"`
	Constraints string `json:"constraints,omitempty" yaml:"constraints" mapstructure:"constraints"`
}

// Apply returns p with the non-zero overrides applied.
func (p Parameters) Apply(o ParameterOverrides) Parameters {
	if o.NewsType != "" {
		p.NewsType = o.NewsType
	}
	if o.TargetStyle != "" {
		p.TargetStyle = o.TargetStyle
	}
	if o.WordLimit > 0 {
		p.WordLimit = o.WordLimit
	}
	if o.Tone != "" {
		p.Tone = o.Tone
	}
	if o.Constraints != "" {
		p.Constraints = o.Constraints
	}
	return p
}

// SourceCLI identifies input passed directly on the command line.
const SourceCLI = "CLI_INPUT"

// Document is one unit of batch input.
type Document struct {
	// Source identifies where the text came from (file path, "CLI_INPUT", corpus id).
	Source    string
	Text      string
	Overrides ParameterOverrides
}
