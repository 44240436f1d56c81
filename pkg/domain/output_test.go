package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/gazette/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadlines_PreserveOrder(t *testing.T) {
	var h domain.Headlines
	require.NoError(t, json.Unmarshal([]byte(`{"trend":"T","news":"N","data":"D"}`), &h))
	require.Len(t, h, 3)
	assert.Equal(t, "trend", h[0].Kind)
	assert.Equal(t, "D", h[2].Text)

	out, err := json.Marshal(h)
	require.NoError(t, err)
	assert.JSONEq(t, `{"trend":"T","news":"N","data":"D"}`, string(out))
	assert.Equal(t, `{"trend":"T","news":"N","data":"D"}`, string(out))
}

func TestHeadlines_AcceptArray(t *testing.T) {
	var h domain.Headlines
	require.NoError(t, json.Unmarshal([]byte(`["first", {"kind":"data","text":"second"}]`), &h))
	assert.Equal(t, domain.Headlines{{Kind: "1", Text: "first"}, {Kind: "data", Text: "second"}}, h)
}

func TestGammaOutput_Selection(t *testing.T) {
	g := &domain.GammaOutput{
		HeadlineOptions: domain.Headlines{{Kind: "news", Text: "A"}, {Kind: "data", Text: "B"}},
		Recommended:     "B",
	}
	assert.Equal(t, 2, g.RecommendedIndex())
	assert.Equal(t, "B", g.Headline())

	text, ok := g.Choose(1)
	require.True(t, ok)
	assert.Equal(t, "A", text)

	_, ok = g.Choose(3)
	assert.False(t, ok)

	menu := domain.HeadlineMenu(g)
	assert.Equal(t, "2", menu.Default)
	custom, ok := menu.Find("0")
	require.True(t, ok)
	assert.Equal(t, domain.DecisionModify, custom.Token)
}

func TestValidate_RequiredFields(t *testing.T) {
	assert.ErrorIs(t, (&domain.AlphaOutput{}).Validate(), domain.ErrValidation)
	assert.ErrorIs(t, (&domain.BetaOutput{StyledContent: "  "}).Validate(), domain.ErrValidation)
	assert.ErrorIs(t, (&domain.GammaOutput{}).Validate(), domain.ErrValidation)
	assert.ErrorIs(t, (&domain.DeltaOutput{}).Validate(), domain.ErrValidation)
	assert.NoError(t, (&domain.DeltaOutput{FinalBody: "body"}).Validate())
}

func TestDeltaOutput_Quality(t *testing.T) {
	d := &domain.DeltaOutput{QualityReport: map[string]any{"professionalism_score": 85.0}}
	assert.Equal(t, 85, d.Quality())
	d.QualityReport["quality_score"] = "9"
	assert.Equal(t, 9, d.Quality())
}
