package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"adquery/pkg/config"
	"adquery/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage adquery configuration files.

Configuration is merged from, highest priority first:
  - Command line flags
  - Environment variables (ADQUERY_*), including a .env file
  - Configuration file
  - Default values`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default values",
	Long: `Write a configuration file holding every option at its default value.

The file is created as '.adquery.yaml' in the current directory unless a
different path is given with --config.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load the configuration from all sources and check it.

Besides value ranges this checks that the lookup command can be found on
PATH and that the directories for the output files exist or can be created.`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = ".adquery.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists: %s", path)
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}

	ui.PrintSuccess("Configuration file created: " + path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	var problems []error
	var warnings []string

	if err := checkCommand(cfg.Source.Command); err != nil {
		warnings = append(warnings, err.Error())
	}
	for _, path := range []string{cfg.Files.CheckpointFile, cfg.Files.ErrorLog, cfg.Files.DefaultOutput, cfg.Logging.File} {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			problems = append(problems, fmt.Errorf("cannot create directory for %s: %w", path, err))
		}
	}

	for _, w := range warnings {
		ui.PrintWarning(w)
	}
	if len(problems) > 0 {
		return errors.Join(problems...)
	}

	ui.PrintSuccess("Configuration is valid")
	ui.PrintInfo("Batch size", fmt.Sprint(cfg.Run.BatchSize))
	ui.PrintInfo("Workers", fmt.Sprint(cfg.Run.MaxWorkers))
	ui.PrintInfo("Query timeout", cfg.Run.QueryTimeout.String())
	ui.PrintInfo("Checkpoint mode", cfg.Run.CheckpointMode)
	return nil
}

// checkCommand reports whether the lookup command can be found on PATH
func checkCommand(name string) error {
	if _, err := exec.LookPath(name); err != nil {
		return fmt.Errorf("lookup command %q not found on PATH", name)
	}
	return nil
}
