package model

import (
	"github.com/shopspring/decimal"
)

// MonthRecord is one simulated month in a Trace.
type MonthRecord struct {
	Month            int // 0-based month index
	StartingBalance  decimal.Decimal
	Outflows         decimal.Decimal // total deducted this month
	MarketReturn     float64         // sampled fractional return
	InvestmentReturn decimal.Decimal // after investment tax
	NetIncome        decimal.Decimal // after income tax
	EndingBalance    decimal.Decimal
}

// Trace is the ordered output of a simulation run.
type Trace []MonthRecord

// EndingBalances returns the month-end balances in order.
func (t Trace) EndingBalances() []decimal.Decimal {
	out := make([]decimal.Decimal, len(t))
	for i, r := range t {
		out[i] = r.EndingBalance
	}
	return out
}

// Final returns the last month's ending balance, or zero for an empty trace.
func (t Trace) Final() decimal.Decimal {
	if len(t) == 0 {
		return decimal.Zero
	}
	return t[len(t)-1].EndingBalance
}

// Year returns the 1-based simulation year a month index falls into.
// 0 -> 1, 11 -> 1, 12 -> 2
func (r MonthRecord) Year() int {
	return r.Month/12 + 1
}
