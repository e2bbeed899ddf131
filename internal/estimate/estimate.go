// Package estimate derives return distribution parameters from a historical
// price series.
package estimate

import (
	"fmt"
	"math"
	"time"

	"github.com/cleared-dev/networth/internal/model"
)

// Period is the resampling frequency of the return series.
type Period string

const (
	// Daily keeps one close per calendar day, weekends included.
	Daily Period = "daily"
	// Monthly keeps the last close of each calendar month.
	Monthly Period = "monthly"
	// Yearly keeps the last close of each calendar year.
	Yearly Period = "yearly"
)

// ParsePeriod validates a period name.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case Daily, Monthly, Yearly:
		return p, nil
	case "":
		return Monthly, nil
	default:
		return "", fmt.Errorf("unknown period %q", s)
	}
}

// index numbers periods consecutively, so adjacent periods differ by one.
func (p Period) index(t time.Time) int {
	switch p {
	case Daily:
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return int(day.Unix() / 86400)
	case Yearly:
		return t.Year()
	default:
		return t.Year()*12 + int(t.Month()) - 1
	}
}

// Params holds the sample statistics of a return series.
type Params struct {
	Mean    float64
	StdDev  float64
	Samples int // number of percentage changes
}

// DataInsufficientError reports a price history too short to estimate from.
type DataInsufficientError struct {
	Have int
	Need int
	What string
}

func (e *DataInsufficientError) Error() string {
	return fmt.Sprintf("insufficient price data: %d %s, need at least %d", e.Have, e.What, e.Need)
}

// Returns forward-fills points, keeps the last observation per period and
// computes the mean and sample standard deviation of the period-over-period
// percentage changes.
func Returns(points []model.PricePoint, period Period) (Params, error) {
	closes, err := Collapse(points, period)
	if err != nil {
		return Params{}, err
	}
	if len(closes) < 2 {
		return Params{}, &DataInsufficientError{Have: len(closes), Need: 2, What: "observations"}
	}

	changes, err := PercentChanges(closes)
	if err != nil {
		return Params{}, err
	}
	if len(changes) < 2 {
		return Params{}, &DataInsufficientError{Have: len(changes), Need: 2, What: "returns"}
	}

	mean, std := meanStdDev(changes)
	return Params{Mean: mean, StdDev: std, Samples: len(changes)}, nil
}

// Collapse forward-fills missing prices and returns the last price of each
// period in chronological order. A period with no observations carries the
// previous period's close. Leading missing values are dropped.
func Collapse(points []model.PricePoint, period Period) ([]float64, error) {
	var (
		closes  []float64
		lastIdx int
		last    float64
		known   bool
	)
	for i, p := range points {
		if i > 0 && p.Date.Before(points[i-1].Date) {
			return nil, fmt.Errorf("price at %s precedes %s: series must be ascending",
				p.Date.Format(time.DateOnly), points[i-1].Date.Format(time.DateOnly))
		}
		if p.Price.Valid {
			last = p.Price.Decimal.InexactFloat64()
			known = true
		}
		if !known {
			continue
		}

		idx := period.index(p.Date)
		if len(closes) > 0 {
			if idx == lastIdx {
				closes[len(closes)-1] = last
				continue
			}
			carried := closes[len(closes)-1]
			for gap := lastIdx + 1; gap < idx; gap++ {
				closes = append(closes, carried)
			}
		}
		closes = append(closes, last)
		lastIdx = idx
	}
	return closes, nil
}

// PercentChanges returns (p[t]-p[t-1])/p[t-1] for t >= 1.
func PercentChanges(prices []float64) ([]float64, error) {
	if len(prices) < 2 {
		return nil, nil
	}
	out := make([]float64, 0, len(prices)-1)
	for t := 1; t < len(prices); t++ {
		if prices[t-1] == 0 {
			return nil, fmt.Errorf("zero price at period %d: percentage change undefined", t-1)
		}
		out = append(out, (prices[t]-prices[t-1])/prices[t-1])
	}
	return out, nil
}

// meanStdDev uses the n-1 sample definition; len(xs) must be at least 2.
func meanStdDev(xs []float64) (float64, float64) {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))

	var sq float64
	for _, x := range xs {
		d := x - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(xs)-1))
}
