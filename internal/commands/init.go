package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/networth/internal/config"
)

func newInitCommand() *cobra.Command {
	var format string
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Write a default household plan",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(absDir, format, force)
		},
	}

	cmd.Flags().StringVar(&format, "format", "yaml", "plan file format (yaml, toml)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing plan")

	return cmd
}

func runInit(dir, format string, force bool) error {
	var name string
	switch format {
	case "yaml":
		name = config.FileName
	case "toml":
		name = "networth.toml"
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", path, err)
	}

	if err := config.Save(path, config.Default()); err != nil {
		return fmt.Errorf("writing plan: %w", err)
	}

	fmt.Printf("Wrote default plan to %s\n", path)
	return nil
}
