package main

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ThiagoPoppe/parc/config"
	"github.com/ThiagoPoppe/parc/logging"
)

var (
	flagLogLevel   string
	flagEnvFile    string
	flagConfigPath string
	flagNoColor    bool
)

var rootCmd = &cobra.Command{
	Use:   "parc",
	Short: "Beat-synchronous harmony dataset builder",
	Long: `parc turns symbolic harmony annotations and audio into beat-synchronous,
multi-task training segments: resolved Roman-numeral labels on one side,
beat-pooled chroma and semitone-spectrum features on the other.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if flagEnvFile != "" {
			if err := godotenv.Load(flagEnvFile); err != nil {
				return fmt.Errorf("loading env file %s: %w", flagEnvFile, err)
			}
		} else if err := godotenv.Load(); err != nil {
			logging.Debug("No .env file found, using process environment")
		}

		level, err := logging.ParseLevel(flagLogLevel)
		if err != nil {
			return err
		}
		logging.SetLevel(level)
		if flagNoColor {
			logging.DisableColors()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info",
		"minimum log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", "",
		"env file to load before running (default: .env when present)")
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "",
		"JSON config file overriding stage defaults")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false,
		"disable colored log output")
}

// loadRunConfig resolves the processing config for a run: the file named by
// --config when given, stage defaults otherwise.
func loadRunConfig() (*config.Config, error) {
	if flagConfigPath == "" {
		return config.Default(), nil
	}
	return config.Load(flagConfigPath)
}

// Execute runs the root command under the given context.
func Execute(ctx context.Context) {
	cobra.CheckErr(rootCmd.ExecuteContext(ctx))
}
