package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/microsoft/keiko/internal/bundle"
	"github.com/microsoft/keiko/internal/publish"
)

func newPublishCommand() *cobra.Command {
	var (
		accountURL string
		container  string
	)

	cmd := &cobra.Command{
		Use:   "publish <results-dir>",
		Short: "Bundle a results directory and upload it to Azure Blob Storage",
		Long: `Bundle the results directory and upload the archive to an Azure Blob
Storage container.

Authentication uses the default Azure credential chain (environment
variables, managed identity, Azure CLI login).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return publishCommandE(cmd, args[0], accountURL, container)
		},
	}

	cmd.Flags().StringVar(&accountURL, "account-url", "", "Storage account URL (e.g. https://myaccount.blob.core.windows.net)")
	cmd.Flags().StringVar(&container, "container", "keiko-results", "Blob container name")

	return cmd
}

func publishCommandE(cmd *cobra.Command, resultsDir, accountURL, container string) error {
	publisher, err := publish.NewPublisher(accountURL, container, nil)
	if err != nil {
		return err
	}

	tmpDir, err := os.MkdirTemp("", "keiko-publish-*")
	if err != nil {
		return fmt.Errorf("creating staging directory: %w", err)
	}
	defer os.RemoveAll(tmpDir) //nolint:errcheck

	archivePath := filepath.Join(tmpDir, bundle.DefaultName(resultsDir, time.Now()))
	if err := bundle.Create(resultsDir, archivePath); err != nil {
		return err
	}

	blobName, err := publisher.Publish(cmd.Context(), archivePath, "")
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Published %s to container %q as %s\n", resultsDir, container, blobName) //nolint:errcheck
	return nil
}
