package commands

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/networth/internal/estimate"
	"github.com/cleared-dev/networth/internal/prices"
)

func newEstimateCommand() *cobra.Command {
	var pricesPath, format, period string

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate return mean and volatility from price history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := estimateFromFile(pricesPath, format, period)
			if err != nil {
				return err
			}
			fmt.Printf("avg_monthly_market_returns: %.6f\n", params.Mean)
			fmt.Printf("avg_monthly_market_volatility: %.6f\n", params.StdDev)
			fmt.Printf("samples: %d\n", params.Samples)
			return nil
		},
	}

	addPriceFlags(cmd, &pricesPath, &format, &period)
	_ = cmd.MarkFlagRequired("prices")

	return cmd
}

func addPriceFlags(cmd *cobra.Command, path, format, period *string) {
	cmd.Flags().StringVar(path, "prices", "", "price history CSV")
	formats := strings.Join(prices.DefaultRegistry().Formats(), ", ")
	cmd.Flags().StringVar(format, "format", "generic", "price file format ("+formats+")")
	cmd.Flags().StringVar(period, "period", "monthly", "return period (daily, monthly, yearly)")
}

func estimateFromFile(path, format, period string) (estimate.Params, error) {
	p, err := estimate.ParsePeriod(period)
	if err != nil {
		return estimate.Params{}, err
	}

	points, err := prices.DefaultRegistry().ReadFile(path, format)
	if err != nil {
		return estimate.Params{}, err
	}

	params, err := estimate.Returns(points, p)
	if err != nil {
		return estimate.Params{}, fmt.Errorf("estimating returns from %s: %w", path, err)
	}

	log.Info().
		Str("prices", path).
		Int("observations", len(points)).
		Float64("mean", params.Mean).
		Float64("stddev", params.StdDev).
		Msg("Estimated return parameters")
	return params, nil
}
