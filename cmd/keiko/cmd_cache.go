package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/microsoft/keiko/internal/cache"
	"github.com/microsoft/keiko/internal/projectconfig"
)

func newCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the judge response cache",
		Long: `Manage the judge response cache.

The cache stores judge verdicts to avoid re-judging unchanged outputs.
Entries are keyed by judge configuration, case, and agent output, so any
change to those invalidates the entry automatically.`,
	}

	cmd.AddCommand(newCacheClearCommand())

	return cmd
}

func newCacheClearCommand() *cobra.Command {
	var cacheDir string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear the judge response cache",
		Long: `Clear all cached judge responses.

The next scoring pass will call the judge for every case again.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cacheClearE(cmd, cacheDir)
		},
	}

	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Cache directory to clear (default: .keiko-cache)")

	return cmd
}

func cacheClearE(cmd *cobra.Command, cacheDir string) error {
	cfg, err := projectconfig.Load(".")
	if err != nil {
		return err
	}

	absDir, err := filepath.Abs(firstNonEmpty(cacheDir, cfg.Cache.Dir))
	if err != nil {
		return fmt.Errorf("resolving cache directory: %w", err)
	}

	c := cache.New(absDir)
	if err := c.Clear(); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Cache cleared: %s\n", absDir) //nolint:errcheck
	return nil
}
