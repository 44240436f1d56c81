package stage

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/aretw0/gazette/pkg/domain"
)

const (
	cjkPunct = "，。；：「」『』（）！？《》、—•％￥＄"

	// EnglishRatioHint is the share of ASCII letters above which a field
	// is flagged as drifting out of Chinese.
	EnglishRatioHint = 0.3
)

// LangCheck is the language-consistency verdict of one field.
type LangCheck struct {
	OK      bool    `json:"ok"`
	RatioEN float64 `json:"ratio_en"`
}

// CheckChinese reports whether text reads as Chinese and its ASCII letter ratio.
func CheckChinese(text string) LangCheck {
	runes := []rune(text)
	var letters int
	var cjk bool
	for _, r := range runes {
		switch {
		case r >= 0x4E00 && r <= 0x9FFF:
			cjk = true
		case (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z'):
			letters++
		case strings.ContainsRune(cjkPunct, r):
			cjk = true
		}
	}
	ratio := float64(letters) / float64(max(1, len(runes)))
	return LangCheck{OK: cjk, RatioEN: math.Round(ratio*1000) / 1000}
}

// langFields lists the text fields of out that are checked.
func langFields(out domain.StageOutput) map[string]string {
	switch o := out.(type) {
	case *domain.AlphaOutput:
		return map[string]string{
			"draft_content":  o.DraftContent,
			"key_points":     strings.Join(o.KeyPoints, " "),
			"info_hierarchy": jsonText(o.InfoHierarchy),
			"analysis_notes": strings.Join(o.AnalysisNotes, " "),
		}
	case *domain.BetaOutput:
		return map[string]string{
			"styled_content": o.StyledContent,
			"style_changes":  strings.Join(o.StyleChanges, " "),
			"style_notes":    strings.Join(o.StyleNotes, " "),
		}
	case *domain.GammaOutput:
		return map[string]string{
			"headline_options":   jsonText(o.HeadlineOptions),
			"recommended":        o.Recommended,
			"headline_rationale": o.HeadlineRationale,
		}
	case *domain.DeltaOutput:
		return map[string]string{
			"final_body":     o.FinalBody,
			"best_title":     o.BestTitle,
			"quality_report": jsonText(o.QualityReport),
		}
	}
	return nil
}

// checkLanguage returns the lang_check payload and the hints for fields that fail.
func checkLanguage(out domain.StageOutput) (map[string]any, []string) {
	fields := langFields(out)
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	payload := make(map[string]any, len(fields))
	var hints []string
	for _, name := range names {
		text := fields[name]
		if strings.TrimSpace(text) == "" {
			continue
		}
		c := CheckChinese(text)
		payload[name] = c
		switch {
		case !c.OK:
			hints = append(hints, fmt.Sprintf("%s contains no Chinese text", name))
		case c.RatioEN > EnglishRatioHint:
			hints = append(hints, fmt.Sprintf("%s has a high English ratio (%.2f)", name, c.RatioEN))
		}
	}
	return payload, hints
}

func jsonText(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	switch s := string(b); s {
	case "null", "{}", "[]":
		return ""
	default:
		return s
	}
}
