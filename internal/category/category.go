// Package category maps merchant display names to spending categories using
// fixed keyword rules. It is pure and deterministic: the same merchant string
// always yields the same category, and unmatched input falls back to 기타.
package category

import (
	"regexp"
	"strings"
)

// Other is the fallback category for merchants matching no rule.
const Other = "기타"

// rule pairs a category label with the keywords that select it. Rules are
// evaluated in declaration order and the first matching category wins, so
// earlier entries take precedence over later ones.
type rule struct {
	label    string
	keywords []string
}

var rules = []rule{
	{"편의점", []string{"GS25", "CU", "세븐일레븐", "이마트24"}},
	{"카페", []string{"스타벅스", "이디야", "폴바셋", "커피"}},
	{"식비", []string{"맥도날드", "버거킹", "김밥", "식당", "한식"}},
	{"교통", []string{"지하철", "버스", "택시", "대중교통"}},
	{"쇼핑", []string{"무신사", "올리브영", "다이소"}},
	{"주거", []string{"관리비", "월세", "전기", "가스"}},
	{"뷰티", []string{"헤어", "네일", "미용"}},
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	// Branch-style suffixes stripped from merchant names before matching.
	// A single alternation so at most one suffix is removed per call.
	suffixRe = regexp.MustCompile(`(지점|점|센터|본점)$`)
)

// normalize lowercases, removes all whitespace and strips one trailing
// branch suffix. Applied to both merchant names and rule keywords so that
// "GS25 이대점" and "gs25이대" compare equal.
func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = whitespaceRe.ReplaceAllString(s, "")
	return suffixRe.ReplaceAllString(s, "")
}

// Categorize returns the spending category for a merchant name. Empty or
// unrecognized input returns Other; there is no error path.
func Categorize(merchant string) string {
	norm := normalize(merchant)

	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(norm, normalize(kw)) {
				return r.label
			}
		}
	}

	return Other
}

// Labels returns the category labels in rule order, with Other appended.
// Used by callers that need the closed category set (feature export,
// API responses).
func Labels() []string {
	labels := make([]string, 0, len(rules)+1)
	for _, r := range rules {
		labels = append(labels, r.label)
	}
	return append(labels, Other)
}
