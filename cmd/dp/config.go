package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sparse/dp/internal/config"
	"github.com/sparse/dp/internal/ui"
)

var (
	initForce bool
	initIface string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the dp config file",
	Long: `Create or inspect the dp configuration file.

The file lives in the user config directory unless --config is given.
Flags passed to 'dp serve' override values from the file.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with default values",
	Example: `  dp config init --iface eth0
  dp config init --config ./dp.yaml --force`,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveConfigPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing file without asking")
	configInitCmd.Flags().StringVarP(&initIface, "iface", "i", "", "Network interface to store in the file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
}

func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.GetConfigPath()
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path, err := resolveConfigPath()
	if err != nil {
		return err
	}
	printer := ui.NewPrinter(cmd.OutOrStdout())

	_, statErr := os.Stat(path)
	exists := statErr == nil
	if statErr != nil && !errors.Is(statErr, fs.ErrNotExist) {
		return fmt.Errorf("cannot access %s: %w", path, statErr)
	}

	if exists && !initForce {
		if !ui.IsTerminal(os.Stdin) {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if !ui.Confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "Config file exists",
			ui.Detail{Key: "Path", Value: path}) {
			printer.Println("Aborted.")
			return nil
		}
	}

	cfg := config.Default()
	cfg.Interface = initIface
	if err := cfg.Save(path); err != nil {
		return err
	}

	printer.Success("Config file written",
		ui.Detail{Key: "Path", Value: path},
		ui.Detail{Key: "Interface", Value: orDefault(cfg.Interface, "(set with --iface)")},
	)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
