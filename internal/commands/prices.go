package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/networth/internal/prices"
	"github.com/cleared-dev/networth/internal/prices/twelvedata"
)

// apiKeyEnv names the environment variable holding the Twelve Data key.
const apiKeyEnv = "TWELVE_API_KEY"

func newPricesCommand() *cobra.Command {
	pricesCmd := &cobra.Command{
		Use:   "prices",
		Short: "Price history operations",
	}
	pricesCmd.AddCommand(newPricesFetchCommand())
	return pricesCmd
}

type fetchOptions struct {
	symbol  string
	start   string
	end     string
	out     string
	baseURL string
	timeout time.Duration
}

func newPricesFetchCommand() *cobra.Command {
	var opts fetchOptions

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download monthly closes into a generic price CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.symbol, "symbol", "", "ticker symbol (required)")
	_ = cmd.MarkFlagRequired("symbol")
	cmd.Flags().StringVar(&opts.start, "start", "2009-12-31", "first date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.end, "end", "", "last date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&opts.out, "out", "", "output CSV (default stdout)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "request timeout")
	cmd.Flags().StringVar(&opts.baseURL, "api-url", twelvedata.DefaultBaseURL, "API base URL")
	_ = cmd.Flags().MarkHidden("api-url")

	return cmd
}

func runFetch(ctx context.Context, opts fetchOptions) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return fmt.Errorf("%s is not set", apiKeyEnv)
	}

	start, err := time.Parse(time.DateOnly, opts.start)
	if err != nil {
		return fmt.Errorf("parsing --start: %w", err)
	}
	end := time.Now().UTC()
	if opts.end != "" {
		if end, err = time.Parse(time.DateOnly, opts.end); err != nil {
			return fmt.Errorf("parsing --end: %w", err)
		}
	}
	if end.Before(start) {
		return fmt.Errorf("--end %s is before --start %s", end.Format(time.DateOnly), opts.start)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	client := twelvedata.NewClient(twelvedata.ClientOptions{
		APIKey:         apiKey,
		BaseURL:        opts.baseURL,
		RequestTimeout: opts.timeout,
	})
	points, err := client.MonthlyCloses(ctx, opts.symbol, start, end)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", opts.symbol, err)
	}
	log.Info().Str("symbol", opts.symbol).Int("count", len(points)).Msg("Fetched price history")

	if opts.out == "" {
		return prices.WritePoints(os.Stdout, points)
	}
	f, err := os.Create(opts.out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", opts.out, err)
	}
	if err := prices.WritePoints(f, points); err != nil {
		f.Close()
		return fmt.Errorf("writing prices: %w", err)
	}
	return f.Close()
}
