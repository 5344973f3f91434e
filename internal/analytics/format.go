package analytics

import (
	"fmt"
	"sort"
	"strings"
)

func statusMarker(s Status) string {
	switch s {
	case StatusOver:
		return "[over]"
	case StatusWarning:
		return "[warn]"
	default:
		return "[ok]"
	}
}

// Summary renders the compact budget overview sent as a chat reply.
// Categories are listed alphabetically for readability; the report itself
// keeps encounter order.
func (r *Report) Summary() string {
	if len(r.Categories) == 0 {
		return fmt.Sprintf("No expenses yet for %s", r.Month)
	}

	cats := make([]CategoryReport, len(r.Categories))
	copy(cats, r.Categories)
	sort.Slice(cats, func(i, j int) bool { return cats[i].Label < cats[j].Label })

	var b strings.Builder
	fmt.Fprintf(&b, "Budget summary for %s\n\n", r.Month)
	for _, c := range cats {
		fmt.Fprintf(&b, "%s %s\n", statusMarker(c.Status), c.Label)
		fmt.Fprintf(&b, "   Spent: $%s / $%s\n", c.Spent, c.Budget)
		if c.Budget.Cents > 0 {
			fmt.Fprintf(&b, "   Progress: %d%%\n", roundPercent(c.Spent, c.Budget))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "TOTAL\nSpent: $%s / $%s", r.Totals.Spent, r.Totals.Budget)
	if r.Totals.Spent.Cents > r.Totals.Budget.Cents && r.Totals.Budget.Cents > 0 {
		b.WriteString(" - over budget!")
	}
	return b.String()
}

// Detailed renders the full monthly report: totals, category breakdown and
// per-member spending.
func (r *Report) Detailed() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Detailed report - %s\n\n", r.Month)

	fmt.Fprintf(&b, "TOTAL SPENDING\n")
	fmt.Fprintf(&b, "   Spent: $%s\n", r.Totals.Spent)
	fmt.Fprintf(&b, "   Budget: $%s\n", r.Totals.Budget)
	fmt.Fprintf(&b, "   Balance: $%s\n\n", r.Totals.Remaining)

	cats := make([]CategoryReport, len(r.Categories))
	copy(cats, r.Categories)
	sort.Slice(cats, func(i, j int) bool { return cats[i].Label < cats[j].Label })

	b.WriteString("BY CATEGORY\n")
	for _, c := range cats {
		fmt.Fprintf(&b, "\n%s %s\n", statusMarker(c.Status), c.Label)
		fmt.Fprintf(&b, "   Spent: $%s / $%s\n", c.Spent, c.Budget)
		if c.Budget.Cents > 0 {
			fmt.Fprintf(&b, "   Progress: %d%%\n", roundPercent(c.Spent, c.Budget))
		}
		fmt.Fprintf(&b, "   Transactions: %d\n", c.Count)
	}

	users := make([]UserReport, len(r.Users))
	copy(users, r.Users)
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })

	b.WriteString("\nBY FAMILY MEMBER\n")
	for _, u := range users {
		fmt.Fprintf(&b, "   %s: $%s (%d transactions)\n", u.Name, u.Spent, u.Count)
	}

	return b.String()
}
