package cli

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/gazette/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
)

// Parameter flag names.
const (
	FlagNewsType          = "news-type"
	FlagTargetStyle       = "target-style"
	FlagWordLimit         = "word-limit"
	FlagTone              = "tone"
	FlagConstraints       = "constraints"
	FlagAdditionalAnswers = "additional-answers-json"
	FlagMaxRetries        = "max-retries"
	FlagNonInteractive    = "non-interactive"
)

// AddParameterFlags registers the session parameter flags on fs.
func AddParameterFlags(fs *pflag.FlagSet) {
	fs.String(FlagNewsType, domain.DefaultNewsType, "News category")
	fs.String(FlagTargetStyle, domain.DefaultTargetStyle, "Publication style to imitate")
	fs.Int(FlagWordLimit, domain.DefaultWordLimit, "Target article length")
	fs.String(FlagTone, domain.DefaultTone, "Tone of the article")
	fs.String(FlagConstraints, "", "Extra writing constraints")
	fs.String(FlagAdditionalAnswers, "", "JSON object of extra answers passed to every prompt")
	fs.Int(FlagMaxRetries, domain.DefaultMaxRetries, "Retries allowed per stage")
	fs.Bool(FlagNonInteractive, false, "Accept every first successful output without asking")
}

// ApplyParameterFlags overrides base with the flags the user set explicitly.
func ApplyParameterFlags(fs *pflag.FlagSet, base domain.Parameters) (domain.Parameters, error) {
	p := base
	var err error
	if fs.Changed(FlagNewsType) {
		p.NewsType, err = fs.GetString(FlagNewsType)
	}
	if err == nil && fs.Changed(FlagTargetStyle) {
		p.TargetStyle, err = fs.GetString(FlagTargetStyle)
	}
	if err == nil && fs.Changed(FlagWordLimit) {
		p.WordLimit, err = fs.GetInt(FlagWordLimit)
	}
	if err == nil && fs.Changed(FlagTone) {
		p.Tone, err = fs.GetString(FlagTone)
	}
	if err == nil && fs.Changed(FlagConstraints) {
		p.Constraints, err = fs.GetString(FlagConstraints)
	}
	if err == nil && fs.Changed(FlagMaxRetries) {
		p.MaxRetries, err = fs.GetInt(FlagMaxRetries)
	}
	if err == nil && fs.Changed(FlagNonInteractive) {
		p.NonInteractive, err = fs.GetBool(FlagNonInteractive)
	}
	if err != nil {
		return base, err
	}
	if fs.Changed(FlagAdditionalAnswers) {
		raw, _ := fs.GetString(FlagAdditionalAnswers)
		answers, err := ParseAdditionalAnswers(raw)
		if err != nil {
			return base, err
		}
		p.AdditionalAnswers = answers
	}
	return p, p.Validate()
}

// ParseAdditionalAnswers decodes a JSON object into the answers map.
func ParseAdditionalAnswers(raw string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}
	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, fmt.Errorf("%w: --%s: %v", domain.ErrValidation, FlagAdditionalAnswers, err)
	}
	var answers map[string]any
	if err := mapstructure.Decode(decoded, &answers); err != nil {
		return nil, fmt.Errorf("%w: --%s must be a JSON object", domain.ErrValidation, FlagAdditionalAnswers)
	}
	return answers, nil
}
