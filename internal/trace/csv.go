// Package trace encodes and renders simulation traces.
package trace

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/networth/internal/model"
)

// Header is the CSV header for a trace.
const Header = "month,starting_balance,outflows,market_return,investment_return,net_income,ending_balance"

const (
	numFields     = 7
	colMonth      = 0
	colStarting   = 1
	colOutflows   = 2
	colMarket     = 3
	colInvestment = 4
	colNetIncome  = 5
	colEnding     = 6
)

// MarshalRecord converts a MonthRecord to a CSV row. Currency columns are
// rounded to cents for output only; the market return keeps full float
// precision.
func MarshalRecord(r model.MonthRecord) []string {
	row := make([]string, numFields)
	row[colMonth] = strconv.Itoa(r.Month)
	row[colStarting] = r.StartingBalance.StringFixed(2)
	row[colOutflows] = r.Outflows.StringFixed(2)
	row[colMarket] = strconv.FormatFloat(r.MarketReturn, 'g', -1, 64)
	row[colInvestment] = r.InvestmentReturn.StringFixed(2)
	row[colNetIncome] = r.NetIncome.StringFixed(2)
	row[colEnding] = r.EndingBalance.StringFixed(2)
	return row
}

// UnmarshalRecord converts a CSV row to a MonthRecord.
func UnmarshalRecord(record []string) (model.MonthRecord, error) {
	if len(record) != numFields {
		return model.MonthRecord{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	month, err := strconv.Atoi(record[colMonth])
	if err != nil {
		return model.MonthRecord{}, fmt.Errorf("parsing month %q: %w", record[colMonth], err)
	}
	market, err := strconv.ParseFloat(record[colMarket], 64)
	if err != nil {
		return model.MonthRecord{}, fmt.Errorf("parsing market_return %q: %w", record[colMarket], err)
	}

	rec := model.MonthRecord{Month: month, MarketReturn: market}
	for _, f := range []struct {
		col  int
		name string
		dst  *decimal.Decimal
	}{
		{colStarting, "starting_balance", &rec.StartingBalance},
		{colOutflows, "outflows", &rec.Outflows},
		{colInvestment, "investment_return", &rec.InvestmentReturn},
		{colNetIncome, "net_income", &rec.NetIncome},
		{colEnding, "ending_balance", &rec.EndingBalance},
	} {
		d, err := decimal.NewFromString(record[f.col])
		if err != nil {
			return model.MonthRecord{}, fmt.Errorf("parsing %s %q: %w", f.name, record[f.col], err)
		}
		*f.dst = d
	}
	return rec, nil
}

// Write writes a trace with its header.
func Write(w io.Writer, t model.Trace) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, r := range t {
		if err := cw.Write(MarshalRecord(r)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read parses a trace written by Write.
func Read(r io.Reader) (model.Trace, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading trace CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	t := make(model.Trace, 0, len(records)-1)
	for i, rec := range records[1:] {
		mr, err := UnmarshalRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		t = append(t, mr)
	}
	return t, nil
}
