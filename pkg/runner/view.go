package runner

import (
	"fmt"
	"strings"

	"github.com/aretw0/gazette/pkg/domain"
)

// Markdown renders a stage attempt for display.
func Markdown(view domain.StageView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s (attempt %d/%d)\n\n", view.Stage, view.Attempt, view.Ceiling)

	switch out := view.Output.(type) {
	case *domain.AlphaOutput:
		b.WriteString(out.DraftContent + "\n\n")
		bullets(&b, "Key points", out.KeyPoints)
		bullets(&b, "Analysis notes", out.AnalysisNotes)
	case *domain.BetaOutput:
		b.WriteString(out.StyledContent + "\n\n")
		bullets(&b, "Style changes", out.StyleChanges)
		bullets(&b, "Style notes", out.StyleNotes)
	case *domain.GammaOutput:
		b.WriteString("**Headline options**\n\n")
		rec := out.RecommendedIndex()
		for i, h := range out.HeadlineOptions {
			marker := ""
			if i+1 == rec {
				marker = " *(recommended)*"
			}
			fmt.Fprintf(&b, "%d. [%s] %s%s\n", i+1, h.Kind, h.Text, marker)
		}
		b.WriteString("\n")
		if out.HeadlineRationale != "" {
			b.WriteString(out.HeadlineRationale + "\n\n")
		}
		if len(out.SEOKeywords) > 0 {
			fmt.Fprintf(&b, "SEO: %s\n\n", strings.Join(out.SEOKeywords, ", "))
		}
	case *domain.DeltaOutput:
		if out.BestTitle != "" {
			fmt.Fprintf(&b, "# %s\n\n", out.BestTitle)
		}
		b.WriteString(out.FinalBody + "\n\n")
		fmt.Fprintf(&b, "Publishable: %t\n\n", out.Publishable)
	}

	if view.Output != nil {
		fmt.Fprintf(&b, "Quality: %d", view.Output.Quality())
		if !view.Output.ContinueRecommended() {
			b.WriteString(" (model suggests another pass)")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Article renders the final headline and body.
func Article(outcome domain.Outcome) string {
	if !outcome.Succeeded() {
		return outcome.FailureDescriptor()
	}
	return fmt.Sprintf("# %s\n\n%s\n", outcome.Headline, outcome.Body)
}

func bullets(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "**%s**\n\n", title)
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
	b.WriteString("\n")
}
