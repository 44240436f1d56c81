package stage

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/aretw0/gazette/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// deltaWire accepts every field name the Delta prompt has been seen to produce.
type deltaWire struct {
	RefinedContent   string         `mapstructure:"refined_content"`
	FinalBody        string         `mapstructure:"final_body"`
	FinalContent     string         `mapstructure:"final_content"`
	SelectedHeadline string         `mapstructure:"selected_headline"`
	BestTitle        string         `mapstructure:"best_title"`
	QualityReport    map[string]any `mapstructure:"quality_report"`
	PublishReady     *bool          `mapstructure:"publish_ready"`
	Publishable      *bool          `mapstructure:"publishable"`
	SEOKeywords      []string       `mapstructure:"seo_keywords"`
}

// Decode maps a parsed response onto the stage's payload variant and
// validates it. gamma is the accepted Gamma output, used by Delta for the
// headline fallback; it may be nil for the other stages.
func Decode(stage domain.StageName, obj *Object, gamma *domain.GammaOutput) (domain.StageOutput, error) {
	out, _, err := decode(stage, obj, gamma)
	return out, err
}

// decode also reports the advisory keys whose values could not be read.
func decode(stage domain.StageName, obj *Object, gamma *domain.GammaOutput) (domain.StageOutput, []string, error) {
	var (
		out     domain.StageOutput
		ignored []string
		err     error
	)
	switch stage {
	case domain.StageAlpha:
		a := &domain.AlphaOutput{}
		ignored, err = weakDecode(obj.Fields, a)
		out = a
	case domain.StageBeta:
		b := &domain.BetaOutput{}
		ignored, err = weakDecode(obj.Fields, b)
		out = b
	case domain.StageGamma:
		g := &domain.GammaOutput{}
		ignored, err = weakDecode(obj.Fields, g)
		if raw, ok := obj.Raw["headline_options"]; ok && err == nil {
			if err = json.Unmarshal(raw, &g.HeadlineOptions); err != nil {
				err = fmt.Errorf("headline_options: %w", err)
			}
		}
		out = g
	case domain.StageDelta:
		var w deltaWire
		ignored, err = weakDecode(obj.Fields, &w)
		out = w.output(gamma)
	default:
		return nil, nil, fmt.Errorf("%w: unknown stage %q", domain.ErrValidation, stage)
	}
	if err != nil {
		return nil, nil, err
	}

	if err := out.Validate(); err != nil {
		return nil, nil, err
	}
	return out, ignored, nil
}

func (w deltaWire) output(gamma *domain.GammaOutput) *domain.DeltaOutput {
	d := &domain.DeltaOutput{
		FinalBody:     firstNonEmpty(w.RefinedContent, w.FinalBody, w.FinalContent),
		BestTitle:     firstNonEmpty(w.SelectedHeadline, w.BestTitle),
		QualityReport: w.QualityReport,
		SEOKeywords:   w.SEOKeywords,
	}
	switch {
	case w.PublishReady != nil:
		d.Publishable = *w.PublishReady
	case w.Publishable != nil:
		d.Publishable = *w.Publishable
	}
	if gamma != nil {
		if d.BestTitle == "" {
			d.BestTitle = gamma.Headline()
		}
		d.HeadlineOptions = gamma.HeadlineOptions
		if len(d.SEOKeywords) == 0 {
			d.SEOKeywords = gamma.SEOKeywords
		}
	}
	return d
}

// weakDecode decodes input into target. Integer and boolean fields are
// scores, counts and flags: a value that cannot be read as one becomes the
// zero value and its key is returned instead of failing the decode.
func weakDecode(input map[string]any, target any) ([]string, error) {
	fields, ignored := relaxAdvisory(input, target)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
		Result:           target,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(fields); err != nil {
		return nil, err
	}
	return ignored, nil
}

func relaxAdvisory(input map[string]any, target any) (map[string]any, []string) {
	out := make(map[string]any, len(input))
	for k, v := range input {
		out[k] = v
	}

	var ignored []string
	t := reflect.TypeOf(target).Elem()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		key := f.Tag.Get("mapstructure")
		v, ok := input[key]
		if key == "" || !ok || v == nil {
			continue
		}
		ft := f.Type
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}

		var (
			coerced any
			valid   bool
		)
		switch ft.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			coerced, valid = asInt(v)
		case reflect.Bool:
			coerced, valid = asBool(v)
		default:
			continue
		}
		if !valid {
			ignored = append(ignored, key)
			delete(out, key)
			continue
		}
		out[key] = coerced
	}
	return out, ignored
}

var firstNumber = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// asInt reads 8, 8.5, "8", " 8.5 ", "8/10" and "約120字".
func asInt(v any) (int64, bool) {
	switch x := v.(type) {
	case float64:
		return int64(x), true
	case int:
		return int64(x), true
	case int64:
		return x, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int64(f), true
		}
		if m := firstNumber.FindString(s); m != "" {
			if f, err := strconv.ParseFloat(m, 64); err == nil {
				return int64(f), true
			}
		}
	}
	return 0, false
}

func asBool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case float64:
		return x != 0, true
	case int:
		return x != 0, true
	case string:
		s := strings.ToLower(strings.TrimSpace(x))
		switch s {
		case "":
			return false, true
		case "yes", "y", "是", "對":
			return true, true
		case "no", "n", "否", "不":
			return false, true
		}
		if b, err := strconv.ParseBool(s); err == nil {
			return b, true
		}
	}
	return false, false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
