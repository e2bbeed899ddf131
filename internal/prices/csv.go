package prices

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/networth/internal/model"
)

// Header is the CSV header of the generic price format.
const Header = "date,price"

const (
	dateFormat      = "2006-01-02"
	genericFields   = 2
	colDate         = 0
	colPrice        = 1
	yahooAdjClose   = "Adj Close"
	yahooClose      = "Close"
	yahooDateColumn = "Date"
)

// GenericParser reads "date,price" files. An empty or "null" price is a
// missing observation.
type GenericParser struct{}

// Format returns the parser name.
func (p *GenericParser) Format() string { return "generic" }

// Parse reads a generic price CSV.
func (p *GenericParser) Parse(r io.Reader) ([]model.PricePoint, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = genericFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading price CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var points []model.PricePoint
	for i, rec := range records[1:] {
		pt, err := parsePoint(rec[colDate], rec[colPrice])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		points = append(points, pt)
	}
	return points, nil
}

// YahooParser reads Yahoo Finance history exports, preferring the adjusted
// close column.
type YahooParser struct{}

// Format returns the parser name.
func (p *YahooParser) Format() string { return "yahoo" }

// Parse reads a Yahoo history CSV.
func (p *YahooParser) Parse(r io.Reader) ([]model.PricePoint, error) {
	cr := csv.NewReader(r)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading yahoo CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	cols := make(map[string]int)
	for i, name := range records[0] {
		cols[strings.TrimSpace(name)] = i
	}
	dateCol, ok := cols[yahooDateColumn]
	if !ok {
		return nil, fmt.Errorf("yahoo CSV missing %q column", yahooDateColumn)
	}
	priceCol, ok := cols[yahooAdjClose]
	if !ok {
		if priceCol, ok = cols[yahooClose]; !ok {
			return nil, fmt.Errorf("yahoo CSV missing %q or %q column", yahooAdjClose, yahooClose)
		}
	}

	var points []model.PricePoint
	for i, rec := range records[1:] {
		pt, err := parsePoint(rec[dateCol], rec[priceCol])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		points = append(points, pt)
	}
	return points, nil
}

func parsePoint(dateField, priceField string) (model.PricePoint, error) {
	date, err := time.Parse(dateFormat, strings.TrimSpace(dateField))
	if err != nil {
		return model.PricePoint{}, fmt.Errorf("parsing date %q: %w", dateField, err)
	}

	raw := strings.TrimSpace(priceField)
	if raw == "" || strings.EqualFold(raw, "null") || strings.EqualFold(raw, "nan") {
		return model.Missing(date), nil
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return model.PricePoint{}, fmt.Errorf("parsing price %q: %w", priceField, err)
	}
	return model.Observed(date, price), nil
}

// WritePoints writes points in the generic format, including the header.
func WritePoints(w io.Writer, points []model.PricePoint) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, pt := range points {
		price := ""
		if pt.Price.Valid {
			price = pt.Price.Decimal.String()
		}
		if err := cw.Write([]string{pt.Date.Format(dateFormat), price}); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
