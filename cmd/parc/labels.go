package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ThiagoPoppe/parc/dataset"
	"github.com/ThiagoPoppe/parc/logging"
	"github.com/ThiagoPoppe/parc/pipeline"
)

var (
	labelsRecordsPath string
	labelsOutPath     string
	labelsDomainsPath string
	labelsReduced     bool
	labelsWorkers     int
	labelsTags        []string
)

var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "Encode windowed label segments from a records file",
	Long: `Encodes every record's harmony annotations into a per-beat multi-task
label table, windows it, and appends the resulting label blocks to a gob
stream.`,
	RunE: runLabels,
}

func init() {
	labelsCmd.Flags().StringVar(&labelsRecordsPath, "records", "", "records JSON file (required)")
	labelsCmd.Flags().StringVar(&labelsOutPath, "out", "", "output gob file (required)")
	labelsCmd.Flags().StringVar(&labelsDomainsPath, "domains", "", "task set JSON overriding the generated domains")
	labelsCmd.Flags().BoolVar(&labelsReduced, "reduced", false, "encode the reduced task set")
	labelsCmd.Flags().IntVar(&labelsWorkers, "workers", pipeline.DefaultWorkers, "parallel entities")
	labelsCmd.Flags().StringSliceVar(&labelsTags, "require-tag", nil, "only process records carrying every given tag")
	_ = labelsCmd.MarkFlagRequired("records")
	_ = labelsCmd.MarkFlagRequired("out")

	rootCmd.AddCommand(labelsCmd)
}

func runLabels(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig()
	if err != nil {
		return err
	}

	tasks, err := resolveTaskSet(labelsDomainsPath, labelsReduced)
	if err != nil {
		return err
	}

	records, err := dataset.LoadDataset(labelsRecordsPath)
	if err != nil {
		return err
	}

	store, err := pipeline.NewGobStore(labelsOutPath)
	if err != nil {
		return err
	}

	runnerConfig := cfg.Runner
	if runnerConfig == nil {
		runnerConfig = pipeline.DefaultRunnerConfig()
	}
	runnerConfig.StoreLabels = true
	runnerConfig.StoreFeatures = false
	if cmd.Flags().Changed("workers") {
		runnerConfig.Workers = labelsWorkers
	}
	if len(labelsTags) > 0 {
		runnerConfig.RequiredTags = labelsTags
	}

	runner := pipeline.NewRunner(
		runnerConfig,
		pipeline.New(cfg.Windows, dataset.NewEncoder(nil, tasks), nil),
		store,
	)

	report, runErr := runner.Run(cmd.Context(), records, nil)
	closeErr := store.Close()

	logging.Info("Label run complete", logging.Fields{
		"run_id":    report.RunID,
		"records":   len(records),
		"processed": report.Processed,
		"skipped":   report.Skipped,
		"filtered":  report.Filtered,
		"windows":   report.Windows,
		"out":       labelsOutPath,
	})

	if runErr != nil {
		return runErr
	}
	return closeErr
}

// resolveTaskSet picks the task vocabulary for a run: an explicit domains
// file wins, otherwise the generated full or reduced set.
func resolveTaskSet(domainsPath string, reduced bool) (*dataset.TaskSet, error) {
	if domainsPath != "" {
		if reduced {
			return nil, fmt.Errorf("--domains and --reduced are mutually exclusive")
		}
		return dataset.LoadTaskSet(domainsPath)
	}
	if reduced {
		return dataset.ReducedTaskSet(), nil
	}
	return dataset.DefaultTaskSet(), nil
}
