package stage

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aretw0/gazette/pkg/domain"
)

// noConstraints is rendered when the session has no free-form constraints.
const noConstraints = "無"

// templateVars builds the {key} values for stage from the session so far.
func templateVars(stage domain.StageName, s *domain.Session, p domain.Parameters) (map[string]string, error) {
	vars := map[string]string{
		"news_type":    p.NewsType,
		"target_style": p.TargetStyle,
		"word_limit":   strconv.Itoa(p.WordLimit),
		"tone":         p.Tone,
		"constraints":  p.Constraints,
	}
	if strings.TrimSpace(p.Constraints) == "" {
		vars["constraints"] = noConstraints
	}

	switch stage {
	case domain.StageAlpha:
		vars["raw_data"] = s.Input
		vars["additional_block"] = additionalBlock(p.AdditionalAnswers)
	case domain.StageBeta:
		alpha, ok := s.Alpha()
		if !ok {
			return nil, missing(stage, domain.StageAlpha)
		}
		vars["draft_content"] = alpha.DraftContent
	case domain.StageGamma:
		alpha, ok := s.Alpha()
		if !ok {
			return nil, missing(stage, domain.StageAlpha)
		}
		beta, ok := s.Beta()
		if !ok {
			return nil, missing(stage, domain.StageBeta)
		}
		vars["styled_content"] = beta.StyledContent
		vars["primary_info"] = alpha.PrimaryPoint()
	case domain.StageDelta:
		beta, ok := s.Beta()
		if !ok {
			return nil, missing(stage, domain.StageBeta)
		}
		gamma, ok := s.Gamma()
		if !ok {
			return nil, missing(stage, domain.StageGamma)
		}
		headlines, err := json.Marshal(gamma.HeadlineOptions)
		if err != nil {
			return nil, err
		}
		vars["final_content"] = beta.StyledContent
		vars["headline_options"] = string(headlines)
		vars["recommended_headline"] = gamma.Headline()
	}
	return vars, nil
}

func missing(stage, need domain.StageName) error {
	return fmt.Errorf("%w: %s needs the accepted %s output", domain.ErrStageOrder, stage, need)
}

// additionalBlock renders structured extra answers as a prompt section.
func additionalBlock(answers map[string]any) string {
	if len(answers) == 0 {
		return ""
	}
	keys := make([]string, 0, len(answers))
	for k := range answers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("\n# 補充資訊")
	for _, k := range keys {
		fmt.Fprintf(&b, "\n- %s：%v", k, answers[k])
	}
	return b.String()
}
