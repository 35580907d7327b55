// Package pipeline turns validated records and their analysis frames into
// aligned label and feature blocks, and drives batches of entities through
// that transformation. The processing core here is pure computation; stores
// and the Runner own all I/O and partial-failure policy.
package pipeline

import (
	"fmt"
	"sync"

	"github.com/ThiagoPoppe/parc/analysis"
	"github.com/ThiagoPoppe/parc/beatsync"
	"github.com/ThiagoPoppe/parc/dataset"
	"github.com/ThiagoPoppe/parc/segment"
)

// Config holds the windowing geometry shared by both branches.
type Config struct {
	WindowWidth  int `json:"window_width"`
	WindowStride int `json:"window_stride"`
}

// DefaultConfig returns the 256-beat window / 32-beat stride geometry.
func DefaultConfig() *Config {
	return &Config{
		WindowWidth:  segment.DefaultWidth,
		WindowStride: segment.DefaultStride,
	}
}

// Pipeline computes the label and feature blocks of single entities.
type Pipeline struct {
	config  *Config
	encoder *dataset.Encoder
	aligner *beatsync.Aligner
}

// New creates a pipeline. Nil arguments select defaults: the default window
// geometry, an encoder over the full task set, and the standard frame
// geometry.
func New(config *Config, encoder *dataset.Encoder, aligner *beatsync.Aligner) *Pipeline {
	if config == nil {
		config = DefaultConfig()
	}
	if encoder == nil {
		encoder = dataset.NewEncoder(nil, nil)
	}
	if aligner == nil {
		aligner = beatsync.NewAligner(nil)
	}
	return &Pipeline{
		config:  config,
		encoder: encoder,
		aligner: aligner,
	}
}

// EntityBlocks bundles everything one entity contributes to the dataset.
// Label and feature blocks sharing a window index describe the same beats.
type EntityBlocks struct {
	Labels   []segment.LabelBlock
	Features []segment.FeatureBlock
	Windows  int
}

// ProcessLabels encodes the record's per-beat label table and windows it.
func (p *Pipeline) ProcessLabels(rec *dataset.Record) ([]segment.LabelBlock, error) {
	if rec == nil {
		return nil, fmt.Errorf("nil record")
	}

	table, err := p.encoder.Encode(rec)
	if err != nil {
		return nil, err
	}

	windows, err := segment.Slide(table, p.config.WindowWidth, p.config.WindowStride, dataset.LabelPadding)
	if err != nil {
		return nil, fmt.Errorf("entity %s: windowing labels: %w", rec.ID, err)
	}

	blocks := make([]segment.LabelBlock, len(windows))
	for w, window := range windows {
		blocks[w] = segment.LabelBlock{
			EntityID: rec.ID,
			Index:    w,
			Tasks:    p.encoder.Tasks().Tasks,
			Data:     window,
		}
	}
	return blocks, nil
}

// ProcessFeatures turns raw frame matrices into windowed beat-synchronous
// feature blocks: the fixed semitone roll, then frame pooling per beat, then
// the modality's normalization, then windowing. Chroma and bass chroma are
// min-max scaled, the semitone spectrum standardized.
func (p *Pipeline) ProcessFeatures(rec *dataset.Record, frames *analysis.FrameSet) ([]segment.FeatureBlock, error) {
	if rec == nil {
		return nil, fmt.Errorf("nil record")
	}
	if frames == nil {
		return nil, fmt.Errorf("entity %s: no analysis frames", rec.ID)
	}

	bounds, err := p.aligner.BoundaryFrames(rec.NumBeats, frames.NumFrames)
	if err != nil {
		return nil, fmt.Errorf("entity %s: %w", rec.ID, err)
	}

	modalities := []struct {
		name      string
		data      [][]float64
		normalize func([][]float64) [][]float64
	}{
		{segment.ModalityChroma, frames.Chroma, beatsync.MinMaxColumns},
		{segment.ModalityBassChroma, frames.BassChroma, beatsync.MinMaxColumns},
		{segment.ModalitySpectrum, frames.Spectrum, beatsync.StandardizeColumns},
	}

	var blocks []segment.FeatureBlock
	for _, m := range modalities {
		rolled := beatsync.RollRows(m.data, beatsync.SemitoneShift)

		beats, err := beatsync.ResampleToBeats(rolled, bounds)
		if err != nil {
			return nil, fmt.Errorf("entity %s: resampling %s: %w", rec.ID, m.name, err)
		}

		windows, err := segment.Slide(m.normalize(beats), p.config.WindowWidth, p.config.WindowStride, beatsync.FeaturePadding)
		if err != nil {
			return nil, fmt.Errorf("entity %s: windowing %s: %w", rec.ID, m.name, err)
		}

		for w, window := range windows {
			blocks = append(blocks, segment.FeatureBlock{
				EntityID: rec.ID,
				Index:    w,
				Modality: m.name,
				Data:     window,
			})
		}
	}
	return blocks, nil
}

// ProcessEntity runs the label branch and, when frames are supplied, the
// feature branch concurrently, then checks that both branches agree on the
// window count before anything can be persisted. With nil frames only labels
// are produced.
func (p *Pipeline) ProcessEntity(rec *dataset.Record, frames *analysis.FrameSet) (*EntityBlocks, error) {
	if rec == nil {
		return nil, fmt.Errorf("nil record")
	}

	if frames == nil {
		labels, err := p.ProcessLabels(rec)
		if err != nil {
			return nil, err
		}
		return &EntityBlocks{Labels: labels, Windows: len(labels)}, nil
	}

	var (
		wg         sync.WaitGroup
		labels     []segment.LabelBlock
		labelErr   error
		features   []segment.FeatureBlock
		featureErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		labels, labelErr = p.ProcessLabels(rec)
	}()
	go func() {
		defer wg.Done()
		features, featureErr = p.ProcessFeatures(rec, frames)
	}()
	wg.Wait()

	if labelErr != nil {
		return nil, labelErr
	}
	if featureErr != nil {
		return nil, featureErr
	}

	if err := checkWindowCounts(rec.ID, len(labels), features); err != nil {
		return nil, err
	}

	return &EntityBlocks{
		Labels:   labels,
		Features: features,
		Windows:  len(labels),
	}, nil
}

// checkWindowCounts verifies every feature modality produced exactly as many
// windows as the label branch.
func checkWindowCounts(entityID string, labelWindows int, features []segment.FeatureBlock) error {
	perModality := make(map[string]int)
	for _, block := range features {
		perModality[block.Modality]++
	}
	for modality, count := range perModality {
		if count != labelWindows {
			return fmt.Errorf("%w: entity %s has %d label windows but %d %s windows",
				ErrWindowCountMismatch, entityID, labelWindows, count, modality)
		}
	}
	return nil
}
