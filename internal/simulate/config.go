package simulate

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// AdjustmentPolicy decides which months trigger the annual raise and
// inflation step.
type AdjustmentPolicy string

const (
	// AdjustMonthZero fires after every month where month%12 == 0,
	// including the very first month of the run.
	AdjustMonthZero AdjustmentPolicy = "month-zero"
	// AdjustAnniversary fires after every 12th completed month.
	AdjustAnniversary AdjustmentPolicy = "anniversary"
)

// Fires reports whether the adjustment applies after the given month index.
func (p AdjustmentPolicy) Fires(month int) bool {
	switch p {
	case AdjustAnniversary:
		return (month+1)%12 == 0
	default:
		return month%12 == 0
	}
}

// Outflow is one named monthly expense category.
type Outflow struct {
	Name   string
	Amount decimal.Decimal
}

// Config fixes every input of a simulation run.
type Config struct {
	StartingAssets   decimal.Decimal
	AnnualIncome     decimal.Decimal
	Outflows         []Outflow
	Months           int
	IncomeTaxRate    decimal.Decimal
	InvestmentTax    decimal.Decimal
	IncomeRaiseRate  decimal.Decimal
	InflationRate    decimal.Decimal
	ReturnMean       float64
	ReturnStdDev     float64
	AdjustmentPolicy AdjustmentPolicy // empty means AdjustMonthZero
}

// ConfigError reports an invalid configuration field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e ConfigError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Reason)
}

// Validate checks every field and returns all violations joined, or nil.
func (c Config) Validate() error {
	var errs []error

	if c.Months <= 0 {
		errs = append(errs, ConfigError{Field: "months", Reason: fmt.Sprintf("horizon must be positive, got %d", c.Months)})
	}
	for _, r := range []struct {
		field string
		rate  decimal.Decimal
	}{
		{"tax_on_income", c.IncomeTaxRate},
		{"tax_on_investment", c.InvestmentTax},
	} {
		if r.rate.IsNegative() || r.rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			errs = append(errs, ConfigError{Field: r.field, Reason: fmt.Sprintf("rate %s not in [0, 1)", r.rate)})
		}
	}
	if c.AnnualIncome.IsNegative() {
		errs = append(errs, ConfigError{Field: "annual_income", Reason: "must not be negative"})
	}
	if c.IncomeRaiseRate.LessThanOrEqual(decimal.NewFromInt(-1)) {
		errs = append(errs, ConfigError{Field: "avg_income_raise", Reason: "must be greater than -1"})
	}
	if c.InflationRate.LessThanOrEqual(decimal.NewFromInt(-1)) {
		errs = append(errs, ConfigError{Field: "avg_inflation_rate", Reason: "must be greater than -1"})
	}

	seen := make(map[string]bool)
	for _, o := range c.Outflows {
		if o.Name == "" {
			errs = append(errs, ConfigError{Field: "outflows", Reason: "category name must not be empty"})
			continue
		}
		if seen[o.Name] {
			errs = append(errs, ConfigError{Field: "outflows." + o.Name, Reason: "duplicate category"})
		}
		seen[o.Name] = true
		if o.Amount.IsNegative() {
			errs = append(errs, ConfigError{Field: "outflows." + o.Name, Reason: "amount must not be negative"})
		}
	}

	if math.IsNaN(c.ReturnMean) || math.IsInf(c.ReturnMean, 0) {
		errs = append(errs, ConfigError{Field: "avg_monthly_market_returns", Reason: "must be finite"})
	}
	if math.IsNaN(c.ReturnStdDev) || math.IsInf(c.ReturnStdDev, 0) || c.ReturnStdDev < 0 {
		errs = append(errs, ConfigError{Field: "avg_monthly_market_volatility", Reason: "must be finite and not negative"})
	}

	switch c.AdjustmentPolicy {
	case "", AdjustMonthZero, AdjustAnniversary:
	default:
		errs = append(errs, ConfigError{Field: "adjustment_policy", Reason: fmt.Sprintf("unknown policy %q", c.AdjustmentPolicy)})
	}

	return errors.Join(errs...)
}

// TotalOutflows sums the configured monthly outflows.
func (c Config) TotalOutflows() decimal.Decimal {
	return sumOutflows(c.Outflows)
}

func sumOutflows(outflows []Outflow) decimal.Decimal {
	total := decimal.Zero
	for _, o := range outflows {
		total = total.Add(o.Amount)
	}
	return total
}
