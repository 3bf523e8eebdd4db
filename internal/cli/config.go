package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/warndiff/internal/config"
)

var (
	flagShowAs    string
	flagInitForce bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage warndiff configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Create a default configuration file",
	Long: "Write the default configuration to path, or to the user config file when no path " +
		"is given. The format follows the file extension.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var path string
		if len(args) == 1 {
			path = args[0]
		} else {
			p, err := config.ConfigPath()
			if err != nil {
				return err
			}
			path = p
		}

		if _, err := os.Stat(path); err == nil && !flagInitForce {
			fmt.Fprintf(cmd.ErrOrStderr(), "Config file already exists at %s\n", path)
			return nil
		}

		if err := config.WriteFile(path, config.Default()); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Config file created at %s\n", path)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  "Set a value in the user config file. Keys: " + strings.Join(config.Keys(), ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.ConfigPath()
		if err != nil {
			return err
		}
		cfg := config.Default()
		if _, statErr := os.Stat(path); statErr == nil {
			cfg, err = config.LoadFile(path)
			if err != nil {
				return err
			}
		}

		if err := config.SetField(&cfg, args[0], args[1]); err != nil {
			return err
		}
		if err := config.Validate(cfg); err != nil {
			return err
		}

		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", args[0], args[1])
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig, nil)
		if err != nil {
			return err
		}
		return config.Encode(cmd.OutOrStdout(), flagShowAs, cfg)
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.ResolvePath(flagConfig)
		if err != nil {
			return err
		}
		cfg, err := config.Load(flagConfig, nil)
		if err != nil {
			return err
		}
		if err := config.Validate(cfg); err != nil {
			return err
		}
		if path == "" {
			path = "built-in defaults"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration is valid (%s)\n", path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&flagInitForce, "force", false, "Overwrite an existing file")
	configShowCmd.Flags().StringVar(&flagShowAs, "as", "yaml", "Encoding (yaml, json, toml)")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}
