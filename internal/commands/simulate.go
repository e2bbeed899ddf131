package commands

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/networth/internal/config"
	"github.com/cleared-dev/networth/internal/model"
	"github.com/cleared-dev/networth/internal/simulate"
	"github.com/cleared-dev/networth/internal/trace"
)

type simulateOptions struct {
	configPath string
	pricesPath string
	format     string
	period     string
	seed       uint64
	seedSet    bool
	out        string
	chart      bool
}

func newSimulateCommand() *cobra.Command {
	var opts simulateOptions

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Project month-end assets over the plan horizon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.seedSet = cmd.Flags().Changed("seed")
			return runSimulate(opts)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", config.FileName, "plan file (yaml or toml)")
	addPriceFlags(cmd, &opts.pricesPath, &opts.format, &opts.period)
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "random seed (overrides the plan)")
	cmd.Flags().StringVar(&opts.out, "out", "", "write the trace CSV to this file")
	cmd.Flags().BoolVar(&opts.chart, "chart", false, "print a sparkline and yearly summary")

	return cmd
}

func runSimulate(opts simulateOptions) error {
	plan, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	cfg := plan.Simulation()

	if opts.pricesPath != "" {
		params, err := estimateFromFile(opts.pricesPath, opts.format, opts.period)
		if err != nil {
			return err
		}
		cfg.ReturnMean = params.Mean
		cfg.ReturnStdDev = params.StdDev
	}

	var src simulate.RandomSource
	switch {
	case opts.seedSet:
		src = simulate.NewNormalSource(opts.seed)
	case plan.Seed != nil:
		src = simulate.NewNormalSource(*plan.Seed)
	default:
		src = simulate.NewRandomSource()
	}

	log.Debug().
		Int("months", cfg.Months).
		Str("policy", string(cfg.AdjustmentPolicy)).
		Float64("mean", cfg.ReturnMean).
		Float64("stddev", cfg.ReturnStdDev).
		Msg("Starting simulation")

	result, err := simulate.New(src).Run(cfg)
	if err != nil {
		return fmt.Errorf("simulating %s: %w", opts.configPath, err)
	}

	log.Info().Str("final", result.Final().StringFixed(2)).Int("months", len(result)).Msg("Simulation complete")

	if opts.out != "" {
		if err := writeTrace(opts.out, result); err != nil {
			return err
		}
	} else if !opts.chart {
		if err := trace.Write(os.Stdout, result); err != nil {
			return fmt.Errorf("writing trace: %w", err)
		}
	}

	if opts.chart {
		fmt.Print(trace.Summary(result))
	}
	return nil
}

func writeTrace(path string, t model.Trace) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := trace.Write(f, t); err != nil {
		f.Close()
		return fmt.Errorf("writing trace: %w", err)
	}
	return f.Close()
}
