// Package nlp converts casual chat messages into structured expense data.
//
// This file implements the keyword-scoring category classifier. Categories
// are held in an explicit ordered list so tie-breaking is a deliberate
// contract (first declared wins), not map iteration order.
package nlp

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Score weights for the keyword matching rules. All rules that fire for a
// keyword contribute; scores accumulate across keywords within a category.
const (
	scoreExact    = 100 // normalized text equals keyword
	scoreContains = 50  // normalized text contains keyword
	scoreToken    = 30  // a whitespace token of the text equals keyword
	scoreReverse  = 20  // keyword contains the text (text longer than 2 runes)

	// Below this accumulated score the keyword table is considered
	// inconclusive and the context rules take over.
	fallbackThreshold = 15
)

// DefaultFallbackCategory is assigned when neither keywords nor context
// rules match.
const DefaultFallbackCategory = "Groceries"

// CategoryRule pairs a category label with the keywords that pull text
// toward it.
type CategoryRule struct {
	Label    string
	Keywords []string
}

// DefaultCategoryRules is the canonical keyword table. Order matters: when
// two categories score equally the earlier entry wins, so "gas" resolves to
// Transportation even though Utilities lists it too.
func DefaultCategoryRules() []CategoryRule {
	return []CategoryRule{
		{Label: "Groceries", Keywords: []string{
			"grocery", "groceries", "food", "supermarket", "market",
			"fruits", "vegetables", "milk", "bread", "eggs", "pizza",
			"coffee", "lunch",
		}},
		{Label: "Transportation", Keywords: []string{
			"taxi", "uber", "lyft", "car", "gas", "fuel", "parking",
			"bus", "metro", "train", "ride", "transport",
		}},
		{Label: "Entertainment", Keywords: []string{
			"movie", "cinema", "netflix", "spotify", "gaming", "game",
			"fun", "entertainment", "music", "concert", "party",
		}},
		{Label: "Utilities", Keywords: []string{
			"electricity", "water", "gas", "internet", "wifi", "phone",
			"utility", "utilities", "bill", "subscription",
		}},
		{Label: "Healthcare", Keywords: []string{
			"medicine", "doctor", "hospital", "health", "pharmacy",
			"medical", "dental",
		}},
		{Label: "Education", Keywords: []string{
			"school", "course", "education", "book", "learning",
			"class", "tuition",
		}},
		{Label: "Clothing", Keywords: []string{
			"clothes", "shirt", "pants", "shoes", "dress", "clothing",
			"apparel", "fashion",
		}},
		{Label: "Shopping", Keywords: []string{
			"shopping", "amazon", "store", "online", "mall", "gift",
		}},
	}
}

// contextRule maps verbs and context words to a category when the keyword
// table is inconclusive. Rules are tried in declaration order; first match
// wins.
type contextRule struct {
	re    *regexp.Regexp
	label string
}

var contextRules = []contextRule{
	{regexp.MustCompile(`\b(ate|eat|eating|lunch|dinner|breakfast|snack|meal)\b`), "Groceries"},
	{regexp.MustCompile(`\b(drove|drive|driving|commute|commuting|ride|rode|trip)\b`), "Transportation"},
	{regexp.MustCompile(`\b(watch|watched|watching|stream|streamed|streaming)\b`), "Entertainment"},
	{regexp.MustCompile(`\b(bill|bills|billed|payment|recharge|renewal|renewed)\b`), "Utilities"},
	{regexp.MustCompile(`\b(bought|buy|buying|purchase|purchased|order|ordered)\b`), "Shopping"},
}

// stopWords are stripped before matching so articles and prepositions do not
// produce accidental partial matches ("a" inside "taxi").
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {},
	"of": {}, "for": {}, "on": {}, "at": {}, "in": {}, "to": {},
	"some": {}, "my": {}, "our": {},
}

// Classifier maps free-text fragments to a category label. It is immutable
// after construction and safe for concurrent use.
type Classifier struct {
	rules    []CategoryRule
	fallback string
}

// NewClassifier returns a classifier over the default keyword table with the
// default fallback category.
func NewClassifier() *Classifier {
	return NewClassifierWithRules(DefaultCategoryRules(), DefaultFallbackCategory)
}

// NewClassifierWithRules builds a classifier from a custom ordered keyword
// table. An empty fallback defaults to DefaultFallbackCategory.
func NewClassifierWithRules(rules []CategoryRule, fallback string) *Classifier {
	if fallback == "" {
		fallback = DefaultFallbackCategory
	}
	return &Classifier{rules: rules, fallback: fallback}
}

// Fallback returns the category assigned when nothing matches.
func (c *Classifier) Fallback() string {
	return c.fallback
}

// Classify returns the single best-fit category label for text. It never
// fails: unmatched input resolves to the fallback category.
func (c *Classifier) Classify(text string) string {
	norm := normalize(text)
	if norm != "" {
		if label, ok := c.bestKeywordMatch(norm); ok {
			return label
		}
		for _, rule := range contextRules {
			if rule.re.MatchString(norm) {
				return rule.label
			}
		}
	}
	return c.fallback
}

// bestKeywordMatch scores every category against the normalized text and
// returns the strict winner. Ties keep the earlier category: only a strictly
// higher score displaces the current best.
func (c *Classifier) bestKeywordMatch(norm string) (string, bool) {
	tokens := strings.Fields(norm)

	best := ""
	bestScore := 0
	for _, rule := range c.rules {
		score := 0
		for _, kw := range rule.Keywords {
			if norm == kw {
				score += scoreExact
			}
			if strings.Contains(norm, kw) {
				score += scoreContains
			}
			for _, tok := range tokens {
				if tok == kw {
					score += scoreToken
					break
				}
			}
			if utf8.RuneCountInString(norm) > 2 && strings.Contains(kw, norm) {
				score += scoreReverse
			}
		}
		if score > bestScore {
			bestScore = score
			best = rule.Label
		}
	}

	if bestScore > fallbackThreshold {
		return best, true
	}
	return "", false
}

// normalize lowercases, trims and strips stop words, collapsing whitespace.
func normalize(text string) string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(text)))
	kept := fields[:0]
	for _, f := range fields {
		if _, ok := stopWords[f]; ok {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}
