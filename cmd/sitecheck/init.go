package main

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/sitecheck/internal/config"
)

//go:embed templates/sitecheck.yaml
var configTemplate embed.FS

const templatePath = "templates/sitecheck.yaml"

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new sitecheck configuration file",
		Long: `Init writes a commented .sitecheck configuration file.

The generated file documents every option: default headers, User-Agent and
error keywords, plus per-site overrides. With --from, an empty entry is added
under "sites" for every site of a URL list, keyed the way sitecheck looks
sites up, so only the overrides need to be filled in.

Examples:
  # Create .sitecheck in current directory
  sitecheck init

  # Create a config with an entry per site of a list
  sitecheck init --from sites.txt -o sitecheck.yaml

  # Print the template instead of writing a file
  sitecheck init --stdout

  # Force overwrite existing file
  sitecheck init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")
	cmd.Flags().String("from", "",
		"File with one site URL per line to add under sites")
	cmd.Flags().Bool("stdout", false,
		"Print the configuration to stdout instead of writing a file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	outputPath, err := flags.GetString("output")
	if err != nil {
		return err
	}
	force, err := flags.GetBool("force")
	if err != nil {
		return err
	}
	listFile, err := flags.GetString("from")
	if err != nil {
		return err
	}
	toStdout, err := flags.GetBool("stdout")
	if err != nil {
		return err
	}

	content, err := renderConfig(listFile)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if toStdout {
		_, err := out.Write(content)
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}
	if err := writeConfig(outputPath, content); err != nil {
		return err
	}

	printInitHelp(out, outputPath)
	return nil
}

// renderConfig returns the template, with one sites entry per target of
// listFile when it is set.
func renderConfig(listFile string) ([]byte, error) {
	content, err := configTemplate.ReadFile(templatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config template: %w", err)
	}
	if listFile == "" {
		return content, nil
	}

	raws, err := config.LoadTargetsFile(listFile)
	if err != nil {
		return nil, err
	}
	targets, err := config.ParseTargets(raws)
	if err != nil {
		return nil, err
	}

	// "sites:" is the last key of the template, so entries appended at
	// two-space indent land under it.
	var buf bytes.Buffer
	buf.Write(content)
	buf.WriteString("\n")
	seen := make(map[string]bool, len(targets))
	for _, t := range targets {
		if seen[t.Domain] {
			continue
		}
		seen[t.Domain] = true
		fmt.Fprintf(&buf, "  %q: {} # %s\n", t.Domain, t.URL)
	}
	return buf.Bytes(), nil
}

func writeConfig(path string, content []byte) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	// Headers in the file may hold credentials.
	if err := os.WriteFile(path, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}
	return nil
}

func printInitHelp(out io.Writer, path string) {
	fmt.Fprintf(out, "Created configuration file: %s\n", path)
	fmt.Fprintln(out, "\nEdit this file to configure site-specific settings such as:")
	fmt.Fprintln(out, "  - Extra request headers (for example basic auth behind a staging proxy)")
	fmt.Fprintln(out, "  - User-Agent and error keywords per site")
	fmt.Fprintln(out, "  - Turning snapshots on or off per site")
}
