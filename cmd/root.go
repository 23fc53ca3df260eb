package cmd

import (
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jsphweid/chordfuse/config"
	"github.com/jsphweid/chordfuse/logging"
)

var (
	configFlag   string
	logLevelFlag string

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "chordfuse",
	Short:         "Fuses chord estimates from audio, MIDI and tabs",
	Long:          `Scores chord label sequences from audio recognizers, aligned MIDI files and aligned tabs, picks the ones expected to be best and fuses them into a single estimate per song.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations["skipConfigLoad"] == "true" {
			logger = logging.NewNop()
			return nil
		}
		return setup()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (default $CHORDFUSE_CONFIG or ./chordfuse.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Override logging.level")
}

func setup() error {
	loaded, path, exists, err := config.Load(strings.TrimSpace(configFlag))
	if err != nil {
		return err
	}
	if lvl := strings.TrimSpace(logLevelFlag); lvl != "" {
		loaded.Logging.Level = strings.ToLower(lvl)
	}
	l, err := logging.NewFromConfig(loaded)
	if err != nil {
		return err
	}
	cfg, logger = loaded, l
	logger.Debug("configuration loaded", "path", path, "exists", exists)
	return nil
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

// ExecuteArgs runs the command line given by args, writing command output
// to out.
func ExecuteArgs(args []string, out io.Writer) error {
	resetFlags(rootCmd)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	return rootCmd.Execute()
}

// resetFlags restores every flag of c and its subcommands to its default so
// that one invocation does not leak into the next within a process.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}
