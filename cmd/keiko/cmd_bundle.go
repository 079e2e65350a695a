package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/microsoft/keiko/internal/bundle"
)

func newBundleCommand() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "bundle <results-dir>",
		Short: "Pack a results directory into a compressed archive",
		Long: `Pack the files of a results directory into a single ` + bundle.Extension + ` archive,
suitable for attaching to CI artifacts or publishing to blob storage.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return bundleCommandE(cmd, args[0], outPath)
		},
	}

	cmd.Flags().StringVar(&outPath, "out", "", "Archive path (default: a timestamped name in the current directory)")

	return cmd
}

func bundleCommandE(cmd *cobra.Command, resultsDir, outPath string) error {
	if outPath == "" {
		outPath = bundle.DefaultName(resultsDir, time.Now())
	}

	if err := bundle.Create(resultsDir, outPath); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Bundle written to: %s\n", outPath) //nolint:errcheck
	return nil
}
