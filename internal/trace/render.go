package trace

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/networth/internal/model"
)

var (
	sparkStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	labelStyle = lipgloss.NewStyle().Bold(true)
	blocks     = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
)

// Sparkline renders one block per value scaled between the series minimum
// and maximum, so negative balances still render.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	span := hi - lo

	var buf strings.Builder
	buf.Grow(len(values) * 3)
	for _, v := range values {
		idx := 0
		if span > 0 {
			idx = int((v - lo) / span * float64(len(blocks)-1))
		}
		idx = max(0, min(idx, len(blocks)-1))
		buf.WriteRune(blocks[idx])
	}
	return sparkStyle.Render(buf.String())
}

// YearEnd returns the ending balance of the last month of each simulated
// year, including a trailing partial year.
func YearEnd(t model.Trace) []model.MonthRecord {
	var out []model.MonthRecord
	for i, r := range t {
		if (r.Month+1)%12 == 0 || i == len(t)-1 {
			out = append(out, r)
		}
	}
	return out
}

// Summary renders a sparkline of month-end balances followed by a
// year-by-year table.
func Summary(t model.Trace) string {
	if len(t) == 0 {
		return ""
	}

	values := make([]float64, len(t))
	for i, r := range t {
		values[i] = r.EndingBalance.InexactFloat64()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n\n", labelStyle.Render("Ending assets"), Sparkline(values))
	fmt.Fprintf(&b, "%-6s %18s %18s\n", "Year", "Investment return", "Ending balance")

	yearReturn := decimal.Zero
	ends := make(map[int]bool)
	for _, r := range YearEnd(t) {
		ends[r.Month] = true
	}
	for _, r := range t {
		yearReturn = yearReturn.Add(r.InvestmentReturn)
		if !ends[r.Month] {
			continue
		}
		fmt.Fprintf(&b, "%-6d %18s %18s\n", r.Year(), yearReturn.StringFixed(2), r.EndingBalance.StringFixed(2))
		yearReturn = decimal.Zero
	}

	change := t.Final().Sub(t[0].StartingBalance)
	fmt.Fprintf(&b, "\n%s %s over %d months\n", labelStyle.Render("Net change"), change.StringFixed(2), len(t))
	return b.String()
}
