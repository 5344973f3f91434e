package nlp

import (
	"fmt"
	"regexp"
	"strings"

	"budgetbot/internal/core"
)

// DefaultMaxAmountCents is the parser's amount ceiling (100000.00). The
// original product used the same limit; it is configuration, not a law.
const DefaultMaxAmountCents int64 = 100000 * 100

// Extraction grammars, attempted in this order. Whichever matches first and
// survives amount validation wins.
//
//  1. "spent $20 on groceries"  (verb first)
//  2. "$20 groceries"           (amount first)
//  3. "groceries: 20"           (category first, colon optional)
var grammars = []struct {
	re        *regexp.Regexp
	amountIdx int
	catIdx    int
}{
	{
		re:        regexp.MustCompile(`(?i)^(?:i\s+)?(?:spent|paid|bought|got|purchased)\s*(?:\$)?(\d+(?:\.\d{1,2})?)\s*(?:on|for|at)?\s+([a-zA-Z\s]+?)(?:\s+(?:today|yesterday))?$`),
		amountIdx: 1, catIdx: 2,
	},
	{
		re:        regexp.MustCompile(`(?i)^(?:\$)?(\d+(?:\.\d{1,2})?)\s+([a-zA-Z\s]+?)$`),
		amountIdx: 1, catIdx: 2,
	},
	{
		re:        regexp.MustCompile(`(?i)^([a-zA-Z\s]+?)\s*:?\s*(?:\$)?(\d+(?:\.\d{1,2})?)$`),
		amountIdx: 2, catIdx: 1,
	},
}

// UsageHint is returned when no grammar matches. It is a user-facing reply,
// not an error.
const UsageHint = `I didn't quite catch that. Try saying something like:
- "spent $20 on groceries"
- "20 taxi"
- "utilities: 50"`

// Result is the outcome of parsing one chat line. When OK is false, Message
// carries the usage hint; when OK is true it carries a confirmation.
type Result struct {
	OK          bool
	Amount      core.Money
	Category    string
	Description string
	Message     string
}

// Parser extracts (amount, category, description) from one line of free
// text. It is a pure function of the text, the classifier table and the
// amount limits, so it is safe for concurrent use.
type Parser struct {
	classifier *Classifier
	maxCents   int64
}

// NewParser builds a parser around the given classifier. maxCents <= 0
// selects DefaultMaxAmountCents.
func NewParser(classifier *Classifier, maxCents int64) *Parser {
	if classifier == nil {
		classifier = NewClassifier()
	}
	if maxCents <= 0 {
		maxCents = DefaultMaxAmountCents
	}
	return &Parser{classifier: classifier, maxCents: maxCents}
}

// Parse attempts the grammars in order. A grammar that matches but fails
// amount validation (non-positive or above the ceiling) is skipped rather
// than failing the whole parse.
func (p *Parser) Parse(text string) Result {
	msg := strings.TrimSpace(text)

	for _, g := range grammars {
		m := g.re.FindStringSubmatch(msg)
		if m == nil {
			continue
		}

		cents, err := core.ParseDecimalToCents(m[g.amountIdx])
		if err != nil || cents <= 0 || cents > p.maxCents {
			continue
		}

		catText := strings.TrimSpace(m[g.catIdx])
		category := p.classifier.Classify(catText)
		amount := core.FromCents(cents)

		return Result{
			OK:          true,
			Amount:      amount,
			Category:    category,
			Description: catText,
			Message: fmt.Sprintf("Got it! Added $%s for %s: %q",
				amount, strings.ToLower(category), catText),
		}
	}

	return Result{OK: false, Message: UsageHint}
}

// Classify exposes the parser's classifier table for callers that already
// hold extracted category text.
func (p *Parser) Classify(text string) string {
	return p.classifier.Classify(text)
}
