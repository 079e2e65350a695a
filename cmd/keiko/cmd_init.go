package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/microsoft/keiko/internal/projectconfig"
	"github.com/microsoft/keiko/internal/scaffold"
	"github.com/microsoft/keiko/internal/wizard"
)

func newInitCommand() *cobra.Command {
	var interactive bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new eval project",
		Long: `Initialize a new eval project with a starter cases file.

Creates a .keiko.yaml configuration, a cases.jsonl with example cases, and
a README.md describing the workflow.

When running in a terminal (TTY), launches an interactive wizard that
collects the agent and judge configuration. In non-interactive environments
(CI, pipes), uses placeholder defaults you can edit afterwards.

If no directory is specified, the current directory is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return initCommandE(cmd, args, interactive)
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Force the configuration wizard even without a TTY")

	return cmd
}

func initCommandE(cmd *cobra.Command, args []string, interactive bool) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	name := projectName(dir)

	// Check TTY from the command's input stream, not os.Stdin directly.
	inReader := cmd.InOrStdin()
	isTTY := false
	if f, ok := inReader.(*os.File); ok {
		isTTY = term.IsTerminal(int(f.Fd()))
	}

	var spec *wizard.ProjectSpec
	if isTTY || interactive {
		var err error
		spec, err = wizard.RunProjectWizard(inReader, cmd.OutOrStdout(), name)
		if err != nil {
			return fmt.Errorf("wizard failed: %w", err)
		}
	} else {
		spec = wizard.DefaultSpec(name)
	}

	configContent, err := wizard.GenerateConfig(spec)
	if err != nil {
		return err
	}

	casesContent, err := scaffold.StarterCases(spec.Stack)
	if err != nil {
		return err
	}

	files := []fileEntry{
		{filepath.Join(dir, projectconfig.FileName), configContent},
		{filepath.Join(dir, "cases.jsonl"), casesContent},
		{filepath.Join(dir, "README.md"), scaffold.README(spec.Name)},
	}

	if err := writeFiles(cmd, files); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\nNext steps:")                                       //nolint:errcheck
	fmt.Fprintf(out, "  1. Edit %s with your agent command\n", projectconfig.FileName) //nolint:errcheck
	fmt.Fprintln(out, "  2. Replace the example cases in cases.jsonl")       //nolint:errcheck
	fmt.Fprintln(out, "  3. keiko run cases.jsonl")                          //nolint:errcheck

	return nil
}

// projectName derives a project name from the target directory, using the
// working directory's base name when initializing in place.
func projectName(dir string) string {
	if dir != "." {
		return filepath.Base(dir)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "my-eval"
	}
	return filepath.Base(cwd)
}

// fileEntry pairs a path with its content for batch writing.
type fileEntry struct {
	path    string
	content string
}

// writeFiles writes each file, skipping any that already exist.
func writeFiles(cmd *cobra.Command, files []fileEntry) error {
	fmt.Fprintln(cmd.OutOrStdout(), "Initialized eval project:") //nolint:errcheck

	for _, f := range files {
		if _, err := os.Stat(f.path); err == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "  skip %s (already exists)\n", f.path) //nolint:errcheck
			continue
		}

		if err := os.WriteFile(f.path, []byte(f.content), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.path, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "  create %s\n", f.path) //nolint:errcheck
	}

	return nil
}
