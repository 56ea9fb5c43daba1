// Package cli is the phishyctl operator command line.
package cli

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bryanwahyu/phishy/internal/config"
	"github.com/bryanwahyu/phishy/internal/logging"
)

func NewRoot(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "phishyctl",
		Short:         "phishyctl: phishing URL classifier tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Version = version
	cmd.SetVersionTemplate("phishyctl {{.Version}}\n")

	cmd.PersistentFlags().String("config", getenvDefault("CONFIG_PATH", "config.yaml"), "Config file path")

	cmd.AddCommand(newFeaturesCmd())
	cmd.AddCommand(newClassifyCmd())
	cmd.AddCommand(newModelCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newScansCmd())

	return cmd
}

// loadConfig reads the file named by the root --config flag.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Root().PersistentFlags().GetString("config")
	return config.Load(path)
}

// cliLogger writes to stderr so stdout stays parseable.
func cliLogger(cmd *cobra.Command, cfg *config.Config) zerolog.Logger {
	return logging.NewWithWriter(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Pretty)
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
