package main

import (
	"github.com/spf13/cobra"

	"github.com/ThiagoPoppe/parc/dataset"
	"github.com/ThiagoPoppe/parc/logging"
)

var (
	vocabOutPath string
	vocabReduced bool
)

var vocabCmd = &cobra.Command{
	Use:   "vocab",
	Short: "Write the generated task domains to a JSON file",
	Long: `Generates the closed per-task label vocabularies (keys, degrees,
qualities, Roman-numeral tokens) and writes them as a task set JSON, the
format the labels command accepts through --domains.`,
	RunE: runVocab,
}

func init() {
	vocabCmd.Flags().StringVar(&vocabOutPath, "out", "", "output JSON file (required)")
	vocabCmd.Flags().BoolVar(&vocabReduced, "reduced", false, "write the reduced task set")
	_ = vocabCmd.MarkFlagRequired("out")

	rootCmd.AddCommand(vocabCmd)
}

func runVocab(cmd *cobra.Command, args []string) error {
	tasks := dataset.DefaultTaskSet()
	if vocabReduced {
		tasks = dataset.ReducedTaskSet()
	}

	if err := tasks.Save(vocabOutPath); err != nil {
		return err
	}

	logging.Info("Task domains written", logging.Fields{
		"tasks": len(tasks.Tasks),
		"sizes": tasks.Sizes(),
		"out":   vocabOutPath,
	})
	return nil
}
