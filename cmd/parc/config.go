package main

import (
	"github.com/spf13/cobra"

	"github.com/ThiagoPoppe/parc/config"
	"github.com/ThiagoPoppe/parc/logging"
)

var configOutPath string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Write the default config file for hand editing",
	Long: `Writes every stage's default settings as an indented JSON file. Edit the
result and pass it back with --config; sections and fields left out of the
file keep their defaults.`,
	RunE: runConfig,
}

func init() {
	configCmd.Flags().StringVar(&configOutPath, "out", "", "output JSON file (required)")
	_ = configCmd.MarkFlagRequired("out")

	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	if err := config.Default().Save(configOutPath); err != nil {
		return err
	}
	logging.Info("Default config written", logging.Fields{"out": configOutPath})
	return nil
}
