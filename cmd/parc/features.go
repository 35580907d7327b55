package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ThiagoPoppe/parc/analysis"
	"github.com/ThiagoPoppe/parc/beatsync"
	"github.com/ThiagoPoppe/parc/dataset"
	"github.com/ThiagoPoppe/parc/logging"
	"github.com/ThiagoPoppe/parc/pipeline"
	"github.com/ThiagoPoppe/parc/transcode"
)

var (
	featuresRecordsPath string
	featuresAudioDir    string
	featuresOutPath     string
	featuresWorkers     int
	featuresTags        []string
)

// audioExtensions lists the container extensions probed when locating an
// entity's downloaded clip.
var audioExtensions = []string{".mp3", ".m4a", ".webm", ".opus", ".ogg", ".wav", ".flac"}

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "Extract windowed beat-synchronous feature segments",
	Long: `Decodes each record's audio clip, computes chroma, bass-chroma and
semitone-spectrum frame matrices, pools them per beat, and appends the
windowed feature blocks to a gob stream. Label windows are computed alongside
so mismatched entities are rejected before anything is written.`,
	RunE: runFeatures,
}

func init() {
	featuresCmd.Flags().StringVar(&featuresRecordsPath, "records", "", "records JSON file (required)")
	featuresCmd.Flags().StringVar(&featuresAudioDir, "audio-dir", "", "directory of downloaded audio clips (default: $PARC_AUDIO_DIR)")
	featuresCmd.Flags().StringVar(&featuresOutPath, "out", "", "output gob file (required)")
	featuresCmd.Flags().IntVar(&featuresWorkers, "workers", pipeline.DefaultWorkers, "parallel entities")
	featuresCmd.Flags().StringSliceVar(&featuresTags, "require-tag", nil, "only process records carrying every given tag")
	_ = featuresCmd.MarkFlagRequired("records")
	_ = featuresCmd.MarkFlagRequired("out")

	rootCmd.AddCommand(featuresCmd)
}

func runFeatures(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	audioDir := featuresAudioDir
	if audioDir == "" {
		audioDir = os.Getenv("PARC_AUDIO_DIR")
	}
	if audioDir == "" {
		return fmt.Errorf("no audio directory: pass --audio-dir or set PARC_AUDIO_DIR")
	}

	decoder := transcode.NewDecoder(cfg.Decoder)
	if err := decoder.ValidateConfig(); err != nil {
		return err
	}

	analyzer, err := analysis.NewAnalyzer(cfg.Analyzer)
	if err != nil {
		return err
	}

	records, err := dataset.LoadDataset(featuresRecordsPath)
	if err != nil {
		return err
	}

	store, err := pipeline.NewGobStore(featuresOutPath)
	if err != nil {
		return err
	}

	runnerConfig := cfg.Runner
	if runnerConfig == nil {
		runnerConfig = pipeline.DefaultRunnerConfig()
	}
	runnerConfig.StoreLabels = false
	runnerConfig.StoreFeatures = true
	if cmd.Flags().Changed("workers") {
		runnerConfig.Workers = featuresWorkers
	}
	if len(featuresTags) > 0 {
		runnerConfig.RequiredTags = featuresTags
	}

	runner := pipeline.NewRunner(
		runnerConfig,
		pipeline.New(cfg.Windows, nil, beatsync.NewAligner(cfg.AlignerConfig())),
		store,
	)

	report, runErr := runner.Run(cmd.Context(), records, audioFrameSource(audioDir, decoder, analyzer))
	closeErr := store.Close()

	logging.Info("Feature run complete", logging.Fields{
		"run_id":    report.RunID,
		"records":   len(records),
		"processed": report.Processed,
		"skipped":   report.Skipped,
		"filtered":  report.Filtered,
		"windows":   report.Windows,
		"out":       featuresOutPath,
	})

	if runErr != nil {
		return runErr
	}
	return closeErr
}

// audioFrameSource decodes the annotated stretch of an entity's clip and
// runs the analyzer over it.
func audioFrameSource(audioDir string, decoder *transcode.Decoder, analyzer *analysis.Analyzer) pipeline.FrameSource {
	return func(rec *dataset.Record) (*analysis.FrameSet, error) {
		if rec.Youtube == nil || rec.Youtube.ID == "" {
			return nil, fmt.Errorf("entity %s has no linked audio", rec.ID)
		}

		path, err := findAudioFile(audioDir, rec.Youtube.ID)
		if err != nil {
			return nil, err
		}

		audio, err := decoder.DecodeSegment(path, rec.Youtube.StartSync, rec.Youtube.EndSync)
		if err != nil {
			return nil, err
		}
		return analyzer.Analyze(audio.PCM)
	}
}

// findAudioFile locates a clip by video id, trying the known container
// extensions.
func findAudioFile(dir, videoID string) (string, error) {
	for _, ext := range audioExtensions {
		path := filepath.Join(dir, videoID+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no audio file for video %s under %s", videoID, dir)
}
