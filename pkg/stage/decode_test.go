package stage

import (
	"testing"

	"github.com/aretw0/gazette/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, s string) *Object {
	t.Helper()
	obj, err := ParseObject(s)
	require.NoError(t, err)
	return obj
}

func TestDecode_AlphaWeakTypes(t *testing.T) {
	obj := mustParse(t, `{"draft_content": "初稿", "key_points": "單一重點", "word_count": "120", "quality_score": 8.0, "completeness_score": "7.5", "needs_retry": "false"}`)

	out, err := Decode(domain.StageAlpha, obj, nil)
	require.NoError(t, err)

	alpha := out.(*domain.AlphaOutput)
	assert.Equal(t, []string{"單一重點"}, alpha.KeyPoints)
	assert.Equal(t, 120, alpha.WordCount)
	assert.Equal(t, 8, alpha.Quality())
	assert.Equal(t, 7, alpha.CompletenessScore)
	assert.True(t, alpha.ContinueRecommended())
}

func TestDecode_MissingRequiredFieldIsRejected(t *testing.T) {
	_, err := Decode(domain.StageBeta, mustParse(t, `{"quality_score": 9}`), nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = Decode(domain.StageGamma, mustParse(t, `{"headline_options": {}}`), nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDecode_UnreadableAdvisoryFieldsAreIgnored(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		ignored []string
		check   func(t *testing.T, a *domain.AlphaOutput)
	}{
		{
			name:  "score out of ten",
			input: `{"draft_content": "初稿", "quality_score": "8/10"}`,
			check: func(t *testing.T, a *domain.AlphaOutput) { assert.Equal(t, 8, a.QualityScore) },
		},
		{
			name:  "count with units",
			input: `{"draft_content": "初稿", "word_count": "約120字"}`,
			check: func(t *testing.T, a *domain.AlphaOutput) { assert.Equal(t, 120, a.WordCount) },
		},
		{
			name:    "not a number",
			input:   `{"draft_content": "初稿", "quality_score": "N/A", "completeness_score": {"x": 1}}`,
			ignored: []string{"completeness_score", "quality_score"},
			check:   func(t *testing.T, a *domain.AlphaOutput) { assert.Zero(t, a.QualityScore) },
		},
		{
			name:    "unreadable flag",
			input:   `{"draft_content": "初稿", "needs_retry": "maybe"}`,
			ignored: []string{"needs_retry"},
			check:   func(t *testing.T, a *domain.AlphaOutput) { assert.True(t, a.ContinueRecommended()) },
		},
		{
			name:  "flag words",
			input: `{"draft_content": "初稿", "needs_retry": "是"}`,
			check: func(t *testing.T, a *domain.AlphaOutput) { assert.True(t, a.NeedsRetry) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, ignored, err := decode(domain.StageAlpha, mustParse(t, tt.input), nil)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.ignored, ignored)
			tt.check(t, out.(*domain.AlphaOutput))
		})
	}
}

func TestDecode_RequiredFieldStaysStrict(t *testing.T) {
	_, err := Decode(domain.StageAlpha, mustParse(t, `{"draft_content": {"text": "初稿"}, "quality_score": "N/A"}`), nil)
	assert.Error(t, err)
}

func TestDecode_DeltaUnreadablePublishFlagFallsBack(t *testing.T) {
	out, ignored, err := decode(domain.StageDelta, mustParse(t, `{"final_body": "本文", "publish_ready": "待定", "publishable": true}`), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"publish_ready"}, ignored)
	assert.True(t, out.ContinueRecommended())
}

func TestDecode_GammaKeepsHeadlineOrder(t *testing.T) {
	obj := mustParse(t, `{"headline_options": {"trend": "趨勢", "news": "新聞", "impact": "影響", "data": "數據"}, "recommended": "影響"}`)

	out, err := Decode(domain.StageGamma, obj, nil)
	require.NoError(t, err)

	gamma := out.(*domain.GammaOutput)
	kinds := []string{}
	for _, h := range gamma.HeadlineOptions {
		kinds = append(kinds, h.Kind)
	}
	assert.Equal(t, []string{"trend", "news", "impact", "data"}, kinds)
	assert.Equal(t, 3, gamma.RecommendedIndex())
}

func TestDecode_DeltaAliases(t *testing.T) {
	gamma := &domain.GammaOutput{
		HeadlineOptions: domain.Headlines{{Kind: "news", Text: "甲"}, {Kind: "data", Text: "乙"}},
		Recommended:     "甲",
		Selected:        "乙",
		SEOKeywords:     []string{"半導體"},
	}

	out, err := Decode(domain.StageDelta, mustParse(t, `{"final_content": "舊", "refined_content": "潤飾後", "publish_ready": true}`), gamma)
	require.NoError(t, err)
	delta := out.(*domain.DeltaOutput)
	assert.Equal(t, "潤飾後", delta.FinalBody)
	assert.Equal(t, "乙", delta.BestTitle, "falls back to the Gamma selection")
	assert.True(t, delta.Publishable)
	assert.Equal(t, []string{"半導體"}, delta.SEOKeywords)
	assert.Len(t, delta.HeadlineOptions, 2)

	out, err = Decode(domain.StageDelta, mustParse(t, `{"final_body": "本文", "best_title": "標題", "publishable": false, "quality_report": {"professionalism_score": "88"}}`), gamma)
	require.NoError(t, err)
	delta = out.(*domain.DeltaOutput)
	assert.Equal(t, "標題", delta.BestTitle)
	assert.False(t, delta.Publishable)
	assert.Equal(t, 88, delta.Quality())

	_, err = Decode(domain.StageDelta, mustParse(t, `{"selected_headline": "只有標題"}`), gamma)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCheckChinese(t *testing.T) {
	c := CheckChinese("台積電營收成長")
	assert.True(t, c.OK)
	assert.Zero(t, c.RatioEN)

	c = CheckChinese("Revenue grew")
	assert.False(t, c.OK)
	assert.Greater(t, c.RatioEN, EnglishRatioHint)

	payload, hints := checkLanguage(&domain.BetaOutput{StyledContent: "All English body text"})
	assert.Contains(t, payload, "styled_content")
	assert.Equal(t, []string{"styled_content contains no Chinese text"}, hints)
}
