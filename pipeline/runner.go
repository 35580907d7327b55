package pipeline

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/ThiagoPoppe/parc/analysis"
	"github.com/ThiagoPoppe/parc/dataset"
	"github.com/ThiagoPoppe/parc/logging"
)

// DefaultWorkers is the batch parallelism used when none is configured.
const DefaultWorkers = 8

// FrameSource produces the analysis frames for one entity, typically by
// decoding its audio and running the analyzer. A nil FrameSource runs the
// label branch only.
type FrameSource func(rec *dataset.Record) (*analysis.FrameSet, error)

// RunnerConfig controls batch execution.
type RunnerConfig struct {
	Workers       int      `json:"workers"`
	RequiredTags  []string `json:"required_tags"`
	StoreLabels   bool     `json:"store_labels"`
	StoreFeatures bool     `json:"store_features"`
}

// DefaultRunnerConfig runs 8 workers and persists both block kinds.
func DefaultRunnerConfig() *RunnerConfig {
	return &RunnerConfig{
		Workers:       DefaultWorkers,
		StoreLabels:   true,
		StoreFeatures: true,
	}
}

// Report summarizes one batch run.
type Report struct {
	RunID     string
	Processed int
	Skipped   int
	Filtered  int
	Windows   int
	Errors    map[string]string
}

// Runner drives a batch of entities through the pipeline with a fixed worker
// pool. One entity failing is logged and counted, never fatal for the batch.
type Runner struct {
	config   *RunnerConfig
	pipeline *Pipeline
	store    Store
	logger   logging.Logger
}

// NewRunner creates a runner. A nil config or pipeline selects defaults; a
// nil store collects into a fresh MemoryStore.
func NewRunner(config *RunnerConfig, pipeline *Pipeline, store Store) *Runner {
	if config == nil {
		config = DefaultRunnerConfig()
	}
	if pipeline == nil {
		pipeline = New(nil, nil, nil)
	}
	if store == nil {
		store = NewMemoryStore()
	}
	return &Runner{
		config:   config,
		pipeline: pipeline,
		store:    store,
		logger:   logging.WithFields(logging.Fields{"component": "runner"}),
	}
}

// Run processes every record, filtered by RequiredTags, across the worker
// pool and flushes the store. The returned Report carries per-entity errors;
// Run itself errors only on cancellation or a failing store.
func (r *Runner) Run(ctx context.Context, records map[string]*dataset.Record, source FrameSource) (*Report, error) {
	report := &Report{
		RunID:  uuid.NewString(),
		Errors: make(map[string]string),
	}
	ctx = logging.ContextWithFields(ctx, logging.Fields{"run_id": report.RunID})
	logger := r.logger.WithContext(ctx)

	queue := make([]*dataset.Record, 0, len(records))
	for _, id := range slices.Sorted(maps.Keys(records)) {
		rec := records[id]
		if r.matchesTags(rec) {
			queue = append(queue, rec)
			continue
		}
		report.Filtered++
	}

	logger.Info("Starting batch run", logging.Fields{
		"entities": len(queue),
		"filtered": report.Filtered,
		"workers":  r.workerCount(len(queue)),
	})

	jobs := make(chan *dataset.Record)
	go func() {
		defer close(jobs)
		for _, rec := range queue {
			select {
			case <-ctx.Done():
				return
			case jobs <- rec:
			}
		}
	}()

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for range r.workerCount(len(queue)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range jobs {
				windows, err := r.processOne(rec, source, logger)

				mu.Lock()
				if err != nil {
					report.Skipped++
					report.Errors[rec.ID] = err.Error()
				} else {
					report.Processed++
					report.Windows += windows
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if err := r.store.Flush(); err != nil {
		return report, err
	}

	logger.Info("Batch run finished", logging.Fields{
		"processed": report.Processed,
		"skipped":   report.Skipped,
		"filtered":  report.Filtered,
		"windows":   report.Windows,
	})

	return report, ctx.Err()
}

// processOne runs a single entity end to end and persists its blocks. The
// window-count check inside ProcessEntity has already passed by the time
// anything is stored.
func (r *Runner) processOne(rec *dataset.Record, source FrameSource, logger logging.Logger) (int, error) {
	entityLogger := logger.WithFields(logging.Fields{"entity_id": rec.ID})

	var frames *analysis.FrameSet
	if source != nil {
		var err error
		frames, err = source(rec)
		if err != nil {
			entityLogger.Error(err, "Frame extraction failed, skipping entity")
			return 0, err
		}
	}

	blocks, err := r.pipeline.ProcessEntity(rec, frames)
	if err != nil {
		entityLogger.Error(err, "Processing failed, skipping entity")
		return 0, err
	}

	if r.config.StoreLabels {
		for _, block := range blocks.Labels {
			if err := r.store.PutLabels(block); err != nil {
				entityLogger.Error(err, "Storing label block failed")
				return 0, err
			}
		}
	}
	if r.config.StoreFeatures {
		for _, block := range blocks.Features {
			if err := r.store.PutFeatures(block); err != nil {
				entityLogger.Error(err, "Storing feature block failed")
				return 0, err
			}
		}
	}

	entityLogger.Debug("Entity processed", logging.Fields{
		"windows":        blocks.Windows,
		"label_blocks":   len(blocks.Labels),
		"feature_blocks": len(blocks.Features),
	})
	return blocks.Windows, nil
}

// matchesTags reports whether the record carries every required tag.
func (r *Runner) matchesTags(rec *dataset.Record) bool {
	for _, tag := range r.config.RequiredTags {
		if !rec.HasTag(tag) {
			return false
		}
	}
	return true
}

func (r *Runner) workerCount(entities int) int {
	workers := r.config.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if entities > 0 && workers > entities {
		workers = entities
	}
	return workers
}
