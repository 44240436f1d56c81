package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// StageOutput is the parsed payload of one stage attempt.
// Each stage has exactly one concrete variant.
type StageOutput interface {
	// Stage returns the stage that produced the payload.
	Stage() StageName
	// Quality is the advisory score reported by the backend.
	Quality() int
	// ContinueRecommended is the backend's own accept/retry hint.
	ContinueRecommended() bool
	// Validate checks the required fields of the variant.
	Validate() error

	stageOutput()
}

// Interface compliance checks.
var (
	_ StageOutput = (*AlphaOutput)(nil)
	_ StageOutput = (*BetaOutput)(nil)
	_ StageOutput = (*GammaOutput)(nil)
	_ StageOutput = (*DeltaOutput)(nil)
)

// AlphaOutput is the structured draft.
type AlphaOutput struct {
	DraftContent      string         `json:"draft_content" mapstructure:"draft_content"`
	KeyPoints         []string       `json:"key_points" mapstructure:"key_points"`
	WordCount         int            `json:"word_count" mapstructure:"word_count"`
	InfoHierarchy     map[string]any `json:"info_hierarchy" mapstructure:"info_hierarchy"`
	CompletenessScore int            `json:"completeness_score" mapstructure:"completeness_score"`
	AnalysisNotes     []string       `json:"analysis_notes" mapstructure:"analysis_notes"`
	QualityScore      int            `json:"quality_score" mapstructure:"quality_score"`
	NeedsRetry        bool           `json:"needs_retry" mapstructure:"needs_retry"`
}

func (o *AlphaOutput) Stage() StageName          { return StageAlpha }
func (o *AlphaOutput) Quality() int              { return o.QualityScore }
func (o *AlphaOutput) ContinueRecommended() bool { return !o.NeedsRetry }
func (o *AlphaOutput) stageOutput()              {}

func (o *AlphaOutput) Validate() error {
	if strings.TrimSpace(o.DraftContent) == "" {
		return fmt.Errorf("%w: alpha draft_content is empty", ErrValidation)
	}
	return nil
}

// PrimaryPoint returns the first key point, used as the headline anchor.
func (o *AlphaOutput) PrimaryPoint() string {
	if len(o.KeyPoints) == 0 {
		return ""
	}
	return o.KeyPoints[0]
}

// BetaOutput is the body rewritten in the target style.
type BetaOutput struct {
	StyledContent    string   `json:"styled_content" mapstructure:"styled_content"`
	StyleChanges     []string `json:"style_changes" mapstructure:"style_changes"`
	WordCount        int      `json:"word_count" mapstructure:"word_count"`
	ToneScore        int      `json:"tone_score" mapstructure:"tone_score"`
	ReadabilityScore int      `json:"readability_score" mapstructure:"readability_score"`
	StyleNotes       []string `json:"style_notes" mapstructure:"style_notes"`
	QualityScore     int      `json:"quality_score" mapstructure:"quality_score"`
	NeedsRetry       bool     `json:"needs_retry" mapstructure:"needs_retry"`
}

func (o *BetaOutput) Stage() StageName          { return StageBeta }
func (o *BetaOutput) Quality() int              { return o.QualityScore }
func (o *BetaOutput) ContinueRecommended() bool { return !o.NeedsRetry }
func (o *BetaOutput) stageOutput()              {}

func (o *BetaOutput) Validate() error {
	if strings.TrimSpace(o.StyledContent) == "" {
		return fmt.Errorf("%w: beta styled_content is empty", ErrValidation)
	}
	return nil
}

// GammaOutput holds the headline candidates.
type GammaOutput struct {
	HeadlineOptions   Headlines `json:"headline_options" mapstructure:"-"`
	Recommended       string    `json:"recommended" mapstructure:"recommended"`
	SEOKeywords       []string  `json:"seo_keywords" mapstructure:"seo_keywords"`
	HeadlineRationale string    `json:"headline_rationale" mapstructure:"headline_rationale"`
	AppealScore       int       `json:"appeal_score" mapstructure:"appeal_score"`
	QualityScore      int       `json:"quality_score" mapstructure:"quality_score"`
	NeedsRetry        bool      `json:"needs_retry" mapstructure:"needs_retry"`

	// Selected is the headline chosen at finalization.
	Selected string `json:"selected,omitempty" mapstructure:"-"`
}

func (o *GammaOutput) Stage() StageName          { return StageGamma }
func (o *GammaOutput) ContinueRecommended() bool { return !o.NeedsRetry }
func (o *GammaOutput) stageOutput()              {}

// Quality falls back to the appeal score when no overall score is given.
func (o *GammaOutput) Quality() int {
	if o.QualityScore == 0 {
		return o.AppealScore
	}
	return o.QualityScore
}

func (o *GammaOutput) Validate() error {
	if len(o.HeadlineOptions) == 0 {
		return fmt.Errorf("%w: gamma headline_options is empty", ErrValidation)
	}
	for _, h := range o.HeadlineOptions {
		if strings.TrimSpace(h.Text) == "" {
			return fmt.Errorf("%w: gamma headline %q is empty", ErrValidation, h.Kind)
		}
	}
	return nil
}

// RecommendedIndex returns the 1-based position of the recommended headline, or 1.
func (o *GammaOutput) RecommendedIndex() int {
	for i, h := range o.HeadlineOptions {
		if h.Text == o.Recommended || h.Kind == o.Recommended {
			return i + 1
		}
	}
	return 1
}

// Choose returns the headline at the 1-based position n.
func (o *GammaOutput) Choose(n int) (string, bool) {
	if n < 1 || n > len(o.HeadlineOptions) {
		return "", false
	}
	return o.HeadlineOptions[n-1].Text, true
}

// Headline returns the selected headline, or the recommended one.
func (o *GammaOutput) Headline() string {
	if o.Selected != "" {
		return o.Selected
	}
	if text, ok := o.Choose(o.RecommendedIndex()); ok {
		return text
	}
	return o.Recommended
}

// DeltaOutput is the finalized article with its quality report.
type DeltaOutput struct {
	FinalBody       string         `json:"final_body" mapstructure:"final_body"`
	BestTitle       string         `json:"best_title" mapstructure:"best_title"`
	HeadlineOptions Headlines      `json:"headline_options" mapstructure:"-"`
	SEOKeywords     []string       `json:"seo_keywords" mapstructure:"seo_keywords"`
	QualityReport   map[string]any `json:"quality_report" mapstructure:"quality_report"`
	Publishable     bool           `json:"publishable" mapstructure:"publishable"`
}

func (o *DeltaOutput) Stage() StageName          { return StageDelta }
func (o *DeltaOutput) ContinueRecommended() bool { return o.Publishable }
func (o *DeltaOutput) stageOutput()              {}

// Quality reads quality_score, or professionalism_score, from the quality report.
func (o *DeltaOutput) Quality() int {
	for _, key := range []string{"quality_score", "professionalism_score"} {
		if n, ok := toInt(o.QualityReport[key]); ok {
			return n
		}
	}
	return 0
}

func (o *DeltaOutput) Validate() error {
	if strings.TrimSpace(o.FinalBody) == "" {
		return fmt.Errorf("%w: delta final body is empty", ErrValidation)
	}
	return nil
}

// DecodeOutput unmarshals a stored payload into the variant for stage.
func DecodeOutput(stage StageName, data []byte) (StageOutput, error) {
	var out StageOutput
	switch stage {
	case StageAlpha:
		out = &AlphaOutput{}
	case StageBeta:
		out = &BetaOutput{}
	case StageGamma:
		out = &GammaOutput{}
	case StageDelta:
		out = &DeltaOutput{}
	default:
		return nil, fmt.Errorf("%w: no payload for stage %q", ErrValidation, stage)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("decode %s output: %w", stage, err)
	}
	return out, nil
}

// Headline is one headline candidate.
type Headline struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// Headlines keeps headline candidates in the order the backend produced them.
// It marshals as a JSON object and accepts either an object or an array.
type Headlines []Headline

func (h Headlines) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, item := range h {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(item.Kind)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(item.Text)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (h *Headlines) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*h = nil
		return nil
	}

	if data[0] == '[' {
		var items []any
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		out := make(Headlines, 0, len(items))
		for i, item := range items {
			switch v := item.(type) {
			case map[string]any:
				out = append(out, Headline{Kind: stringify(v["kind"]), Text: stringify(v["text"])})
			default:
				out = append(out, Headline{Kind: strconv.Itoa(i + 1), Text: stringify(v)})
			}
		}
		*h = out
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("headlines: expected object or array, got %v", tok)
	}
	var out Headlines
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		var val any
		if err := dec.Decode(&val); err != nil {
			return err
		}
		out = append(out, Headline{Kind: key, Text: stringify(val)})
	}
	*h = out
	return nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case json.Number:
		f, err := n.Float64()
		return int(f), err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return int(f), err == nil
	}
	return 0, false
}
