package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/networth/internal/simulate"
)

// FileName is the default plan file written by init.
const FileName = "networth.yaml"

// Decimal is a decimal.Decimal that also decodes bare TOML numbers
// exactly. YAML and quoted TOML values go through UnmarshalText.
type Decimal struct {
	decimal.Decimal
}

// Dec wraps d.
func Dec(d decimal.Decimal) Decimal {
	return Decimal{Decimal: d}
}

// UnmarshalTOML accepts TOML strings, integers and floats.
func (d *Decimal) UnmarshalTOML(v any) error {
	var text string
	switch x := v.(type) {
	case string:
		text = x
	case int64:
		text = strconv.FormatInt(x, 10)
	case float64:
		text = strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Errorf("expected a number or string, got %T", v)
	}
	parsed, err := decimal.NewFromString(text)
	if err != nil {
		return fmt.Errorf("parsing decimal %q: %w", text, err)
	}
	d.Decimal = parsed
	return nil
}

// Plan is the on-disk household plan.
type Plan struct {
	StartingAssets             Decimal   `yaml:"starting_assets" toml:"starting_assets"`
	AnnualIncome               Decimal   `yaml:"annual_income" toml:"annual_income"`
	Outflows                   []Outflow `yaml:"outflows" toml:"outflows"`
	Years                      int       `yaml:"years" toml:"years"`
	TaxOnIncome                Decimal   `yaml:"tax_on_income" toml:"tax_on_income"`
	AvgIncomeRaise             Decimal   `yaml:"avg_income_raise" toml:"avg_income_raise"`
	AvgInflationRate           Decimal   `yaml:"avg_inflation_rate" toml:"avg_inflation_rate"`
	TaxOnInvestment            Decimal   `yaml:"tax_on_investment" toml:"tax_on_investment"`
	AvgMonthlyMarketReturns    float64   `yaml:"avg_monthly_market_returns" toml:"avg_monthly_market_returns"`
	AvgMonthlyMarketVolatility float64   `yaml:"avg_monthly_market_volatility" toml:"avg_monthly_market_volatility"`
	AdjustmentPolicy           string    `yaml:"adjustment_policy,omitempty" toml:"adjustment_policy,omitempty"`
	Seed                       *uint64   `yaml:"seed,omitempty" toml:"seed,omitempty"`
}

// Outflow is one named monthly expense.
type Outflow struct {
	Name   string  `yaml:"name" toml:"name"`
	Amount Decimal `yaml:"amount" toml:"amount"`
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Load reads a plan from disk. Files ending in .toml are decoded as TOML,
// everything else as YAML.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var plan Plan
	if isTOML(path) {
		if _, err := toml.Decode(string(data), &plan); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
		return &plan, nil
	}
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &plan, nil
}

// Save writes a plan in the format implied by the path's extension.
func Save(path string, plan *Plan) error {
	var data []byte
	if isTOML(path) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(plan); err != nil {
			return fmt.Errorf("marshaling config: %w", err)
		}
		data = buf.Bytes()
	} else {
		var err error
		data, err = yaml.Marshal(plan)
		if err != nil {
			return fmt.Errorf("marshaling config: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns the reference household: 5 lakh in assets, 6 lakh yearly
// income and 28,500 in monthly outflows over ten years.
func Default() *Plan {
	return &Plan{
		StartingAssets: Dec(decimal.NewFromInt(500_000)),
		AnnualIncome:   Dec(decimal.NewFromInt(600_000)),
		Outflows: []Outflow{
			{Name: "rent", Amount: Dec(decimal.NewFromInt(15_000))},
			{Name: "credit_card_payment", Amount: Dec(decimal.NewFromInt(5_000))},
			{Name: "medical_insurance", Amount: Dec(decimal.NewFromInt(1_500))},
			{Name: "pension_contribution", Amount: Dec(decimal.NewFromInt(2_000))},
			{Name: "misc", Amount: Dec(decimal.NewFromInt(5_000))},
		},
		Years:                      10,
		TaxOnIncome:                Dec(decimal.RequireFromString("0.25")),
		AvgIncomeRaise:             Dec(decimal.RequireFromString("0.05")),
		AvgInflationRate:           Dec(decimal.RequireFromString("0.06")),
		TaxOnInvestment:            Dec(decimal.RequireFromString("0.30")),
		AvgMonthlyMarketReturns:    0.01,
		AvgMonthlyMarketVolatility: 0.05,
		AdjustmentPolicy:           string(simulate.AdjustMonthZero),
	}
}

// Simulation converts the plan into a simulator configuration.
func (p *Plan) Simulation() simulate.Config {
	outflows := make([]simulate.Outflow, len(p.Outflows))
	for i, o := range p.Outflows {
		outflows[i] = simulate.Outflow{Name: o.Name, Amount: o.Amount.Decimal}
	}
	return simulate.Config{
		StartingAssets:   p.StartingAssets.Decimal,
		AnnualIncome:     p.AnnualIncome.Decimal,
		Outflows:         outflows,
		Months:           p.Years * 12,
		IncomeTaxRate:    p.TaxOnIncome.Decimal,
		InvestmentTax:    p.TaxOnInvestment.Decimal,
		IncomeRaiseRate:  p.AvgIncomeRaise.Decimal,
		InflationRate:    p.AvgInflationRate.Decimal,
		ReturnMean:       p.AvgMonthlyMarketReturns,
		ReturnStdDev:     p.AvgMonthlyMarketVolatility,
		AdjustmentPolicy: simulate.AdjustmentPolicy(p.AdjustmentPolicy),
	}
}
