package estimate

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/networth/internal/model"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func price(t time.Time, v string) model.PricePoint {
	return model.Observed(t, decimal.RequireFromString(v))
}

func monthly(values ...string) []model.PricePoint {
	var pts []model.PricePoint
	for i, v := range values {
		at := date(2024, 1, 1).AddDate(0, i, 0)
		if v == "" {
			pts = append(pts, model.Missing(at))
			continue
		}
		pts = append(pts, price(at, v))
	}
	return pts
}

func TestReturns_ConstantGrowth(t *testing.T) {
	p, err := Returns(monthly("100", "110", "121"), Monthly)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, p.Mean, 1e-12)
	assert.InDelta(t, 0.0, p.StdDev, 1e-12)
	assert.Equal(t, 2, p.Samples)
}

func TestReturns_SampleStdDev(t *testing.T) {
	// Changes: +0.10, -0.10, +0.25.
	p, err := Returns(monthly("100", "110", "99", "123.75"), Monthly)
	require.NoError(t, err)
	assert.InDelta(t, 0.25/3, p.Mean, 1e-12)

	mean := 0.25 / 3
	ss := (0.1-mean)*(0.1-mean) + (-0.1-mean)*(-0.1-mean) + (0.25-mean)*(0.25-mean)
	assert.InDelta(t, ss/2, p.StdDev*p.StdDev, 1e-12)
}

func TestReturns_SingleObservation(t *testing.T) {
	_, err := Returns(monthly("100"), Monthly)
	var die *DataInsufficientError
	require.ErrorAs(t, err, &die)
	assert.Equal(t, 1, die.Have)
}

func TestReturns_TwoObservationsNoStdDev(t *testing.T) {
	_, err := Returns(monthly("100", "110"), Monthly)
	var die *DataInsufficientError
	require.ErrorAs(t, err, &die)
	assert.Equal(t, "returns", die.What)
}

func TestReturns_Empty(t *testing.T) {
	_, err := Returns(nil, Monthly)
	var die *DataInsufficientError
	require.ErrorAs(t, err, &die)
	assert.Equal(t, 0, die.Have)
}

func TestCollapse_ForwardFill(t *testing.T) {
	closes, err := Collapse(monthly("", "100", "", "121"), Monthly)
	require.NoError(t, err)
	// Leading gap dropped, interior gap carries 100 forward.
	assert.Equal(t, []float64{100, 100, 121}, closes)
}

func TestCollapse_AllMissing(t *testing.T) {
	_, err := Returns(monthly("", "", ""), Monthly)
	var die *DataInsufficientError
	require.ErrorAs(t, err, &die)
}

func TestCollapse_LastPerMonth(t *testing.T) {
	pts := []model.PricePoint{
		price(date(2024, 1, 2), "90"),
		price(date(2024, 1, 31), "100"),
		price(date(2024, 2, 1), "105"),
		model.Missing(date(2024, 2, 29)),
		price(date(2024, 3, 15), "121"),
		price(date(2024, 3, 28), "132"),
	}
	closes, err := Collapse(pts, Monthly)
	require.NoError(t, err)
	// February's trailing gap forward-fills to 105.
	assert.Equal(t, []float64{100, 105, 132}, closes)

	daily, err := Collapse(pts, Daily)
	require.NoError(t, err)
	// Jan 2 through Mar 28, 2024: 30 + 29 + 28 days.
	require.Len(t, daily, 87)
	assert.Equal(t, 90.0, daily[0])
	assert.Equal(t, 90.0, daily[1], "Jan 3 carries Jan 2")
	assert.Equal(t, 132.0, daily[86])

	yearly, err := Collapse(pts, Yearly)
	require.NoError(t, err)
	assert.Equal(t, []float64{132}, yearly)
}

func TestCollapse_EmptyPeriodCarriesClose(t *testing.T) {
	pts := []model.PricePoint{
		price(date(2024, 1, 31), "100"),
		price(date(2024, 3, 29), "110"),
		price(date(2024, 4, 30), "121"),
	}
	closes, err := Collapse(pts, Monthly)
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 100, 110, 121}, closes)

	p, err := Returns(pts, Monthly)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Samples, "February contributes a zero return")
	assert.InDelta(t, 0.2/3, p.Mean, 1e-12)
}

func TestCollapse_EmptyPeriodAcrossYears(t *testing.T) {
	pts := []model.PricePoint{
		price(date(2023, 11, 30), "100"),
		price(date(2024, 2, 29), "120"),
	}
	closes, err := Collapse(pts, Monthly)
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 100, 100, 120}, closes)

	yearly, err := Collapse([]model.PricePoint{
		price(date(2020, 6, 1), "50"),
		price(date(2023, 6, 1), "80"),
	}, Yearly)
	require.NoError(t, err)
	assert.Equal(t, []float64{50, 50, 50, 80}, yearly)
}

func TestCollapse_RejectsDescending(t *testing.T) {
	pts := []model.PricePoint{
		price(date(2024, 2, 1), "100"),
		price(date(2024, 1, 1), "110"),
	}
	_, err := Collapse(pts, Monthly)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ascending")
}

func TestPercentChanges_ZeroPrice(t *testing.T) {
	_, err := Returns(monthly("0", "10", "20"), Monthly)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zero price")
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("")
	require.NoError(t, err)
	assert.Equal(t, Monthly, p)

	p, err = ParsePeriod("yearly")
	require.NoError(t, err)
	assert.Equal(t, Yearly, p)

	_, err = ParsePeriod("hourly")
	require.Error(t, err)
}
