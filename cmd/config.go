package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/jsphweid/chordfuse/config"
)

var overwriteConfig bool

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)
	configInitCmd.Flags().BoolVar(&overwriteConfig, "overwrite", false, "Replace an existing file")
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration utilities",
}

var configInitCmd = &cobra.Command{
	Use:         "init [path]",
	Short:       "Writes a commented sample configuration",
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{"skipConfigLoad": "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		target := "chordfuse.toml"
		if len(args) == 1 {
			target = args[0]
		}
		if !overwriteConfig {
			if _, err := os.Stat(target); err == nil {
				return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
			} else if !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("check config path: %w", err)
			}
		}
		if err := config.CreateSample(target); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", target)
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Loads and validates the configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "policy: %s\n", cfg.Selection.Policy)
		fmt.Fprintf(out, "priority: %v\n", cfg.Fusion.Priority)
		fmt.Fprintf(out, "model: %s\n", valueOr(cfg.Model.Path, "(fallback heuristic)"))
		fmt.Fprintf(out, "store: %s\n", cfg.Store.Path)
		fmt.Fprintln(out, "configuration ok")
		return nil
	},
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
