// Package simulate projects month-end asset balances under stochastic
// market returns.
package simulate

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/networth/internal/model"
)

var (
	one    = decimal.NewFromInt(1)
	twelve = decimal.NewFromInt(12)
)

// SimulationAbortedError reports a failure partway through a run.
type SimulationAbortedError struct {
	Month int
	Err   error
}

func (e *SimulationAbortedError) Error() string {
	return fmt.Sprintf("simulation aborted at month %d: %v", e.Month, e.Err)
}

func (e *SimulationAbortedError) Unwrap() error { return e.Err }

// Simulator runs single-path projections. It holds no per-run state, so one
// Simulator may be reused across sequential runs; parallel runs need their
// own Simulator and RandomSource.
type Simulator struct {
	src RandomSource
}

// New creates a Simulator drawing returns from src.
func New(src RandomSource) *Simulator {
	return &Simulator{src: src}
}

// state is the mutable part of a run.
type state struct {
	balance  decimal.Decimal
	income   decimal.Decimal
	outflows []Outflow
}

// Run validates cfg and simulates cfg.Months months. Either the full trace is
// returned or an error with no trace.
func (s *Simulator) Run(cfg Config) (model.Trace, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	policy := cfg.AdjustmentPolicy
	if policy == "" {
		policy = AdjustMonthZero
	}

	st := &state{
		balance:  cfg.StartingAssets,
		income:   cfg.AnnualIncome,
		outflows: append([]Outflow(nil), cfg.Outflows...),
	}

	trace := make(model.Trace, 0, cfg.Months)
	for month := 0; month < cfg.Months; month++ {
		rec, err := s.step(cfg, st, month)
		if err != nil {
			return nil, &SimulationAbortedError{Month: month, Err: err}
		}
		trace = append(trace, rec)

		if policy.Fires(month) {
			adjust(cfg, st)
		}
	}
	return trace, nil
}

// step applies one month's transition to st and returns its record.
func (s *Simulator) step(cfg Config, st *state, month int) (model.MonthRecord, error) {
	rec := model.MonthRecord{Month: month, StartingBalance: st.balance}

	rec.Outflows = sumOutflows(st.outflows)
	balance := st.balance.Sub(rec.Outflows)

	rate, err := s.draw(cfg.ReturnMean, cfg.ReturnStdDev)
	if err != nil {
		return model.MonthRecord{}, err
	}
	rec.MarketReturn = rate

	rec.InvestmentReturn = balance.
		Mul(decimal.NewFromFloat(rate)).
		Mul(one.Sub(cfg.InvestmentTax))
	balance = balance.Add(rec.InvestmentReturn)

	rec.NetIncome = st.income.Mul(one.Sub(cfg.IncomeTaxRate)).Div(twelve)
	balance = balance.Add(rec.NetIncome)

	rec.EndingBalance = balance
	st.balance = balance
	return rec, nil
}

// draw samples one rate, converting panics and non-finite values to errors.
func (s *Simulator) draw(mean, stddev float64) (rate float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("random source panicked: %v", r)
		}
	}()

	rate, err = s.src.Normal(mean, stddev)
	if err != nil {
		return 0, fmt.Errorf("sampling return: %w", err)
	}
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return 0, fmt.Errorf("sampled non-finite return %v", rate)
	}
	return rate, nil
}

// adjust compounds income by the raise rate and every outflow by inflation.
func adjust(cfg Config, st *state) {
	st.income = st.income.Mul(one.Add(cfg.IncomeRaiseRate))
	inflation := one.Add(cfg.InflationRate)
	for i := range st.outflows {
		st.outflows[i].Amount = st.outflows[i].Amount.Mul(inflation)
	}
}
