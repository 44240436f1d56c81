package runner

import (
	"strconv"
	"strings"

	"github.com/aretw0/gazette/pkg/domain"
	"golang.org/x/text/unicode/norm"
)

// aliases maps words and letters to the decision vocabulary.
var aliases = map[string]domain.DecisionToken{
	"a": domain.DecisionAccept, "accept": domain.DecisionAccept, "y": domain.DecisionAccept,
	"yes": domain.DecisionAccept, "ok": domain.DecisionAccept, "接受": domain.DecisionAccept,
	"確認": domain.DecisionAccept,

	"r": domain.DecisionRetry, "retry": domain.DecisionRetry, "重試": domain.DecisionRetry,

	"m": domain.DecisionModify, "modify": domain.DecisionModify, "n": domain.DecisionModify,
	"no": domain.DecisionModify, "revise": domain.DecisionModify, "修改": domain.DecisionModify,

	"q": domain.DecisionQuit, "quit": domain.DecisionQuit, "exit": domain.DecisionQuit,
	"退出": domain.DecisionQuit,
}

// substitutes lets retry and modify stand in for each other on menus that
// only offer one of them.
var substitutes = map[domain.DecisionToken]domain.DecisionToken{
	domain.DecisionRetry:  domain.DecisionModify,
	domain.DecisionModify: domain.DecisionRetry,
}

// Fold canonicalizes a raw token: NFKC folds full-width digits and letters to
// ASCII, then surrounding space is trimmed and the result lower-cased.
func Fold(raw string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFKC.String(raw)))
}

// Normalize maps a raw answer to a decision on menu.
//
// Matching order: empty selects the menu default, then the positional key,
// then the action letter, then the alias table. Anything else is Invalid.
func Normalize(raw string, menu domain.Menu) domain.Decision {
	tok := Fold(raw)
	if tok == "" {
		tok = menu.Default
	}

	if a, ok := menu.Find(tok); ok {
		return decisionFor(a, raw)
	}
	for _, a := range menu.Actions {
		if a.Letter != "" && a.Letter == tok {
			return decisionFor(a, raw)
		}
	}
	if token, ok := aliases[tok]; ok {
		if a, ok := menu.First(token); ok {
			return decisionFor(a, raw)
		}
		if sub, ok := substitutes[token]; ok {
			if a, ok := menu.First(sub); ok {
				return decisionFor(a, raw)
			}
		}
	}
	return domain.Decision{Token: domain.DecisionInvalid, Raw: raw}
}

func decisionFor(a domain.Action, raw string) domain.Decision {
	return domain.Decision{Token: a.Token, Choice: a.Choice, Raw: raw}
}

// ResolveAnswer maps an answer to q onto a value.
// Empty keeps q.Current, "n" picks option n, "0" asks for custom text
// (custom is true) and anything else is taken verbatim.
func ResolveAnswer(raw string, q domain.Question) (value string, custom bool) {
	tok := Fold(raw)
	if tok == "" {
		return q.Current, false
	}
	if n, err := strconv.Atoi(tok); err == nil {
		if n == 0 {
			return "", true
		}
		if n >= 1 && n <= len(q.Options) {
			return q.Options[n-1].Value, false
		}
	}
	return strings.TrimSpace(raw), false
}
