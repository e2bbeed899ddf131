package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint is one observation in a historical price series.
type PricePoint struct {
	Date  time.Time
	Price decimal.NullDecimal // Valid=false for a missing observation
}

// Observed returns a valid PricePoint.
func Observed(date time.Time, price decimal.Decimal) PricePoint {
	return PricePoint{Date: date, Price: decimal.NewNullDecimal(price)}
}

// Missing returns a PricePoint with no value.
func Missing(date time.Time) PricePoint {
	return PricePoint{Date: date}
}
