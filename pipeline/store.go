package pipeline

import (
	"bufio"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ThiagoPoppe/parc/segment"
)

// Store receives the blocks of successfully processed entities. Put calls
// must be safe for concurrent use; Flush is called once after the batch.
type Store interface {
	PutLabels(block segment.LabelBlock) error
	PutFeatures(block segment.FeatureBlock) error
	Flush() error
}

// MemoryStore collects blocks in memory.
type MemoryStore struct {
	mu       sync.Mutex
	labels   []segment.LabelBlock
	features []segment.FeatureBlock
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) PutLabels(block segment.LabelBlock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.labels = append(s.labels, block)
	return nil
}

func (s *MemoryStore) PutFeatures(block segment.FeatureBlock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.features = append(s.features, block)
	return nil
}

func (s *MemoryStore) Flush() error {
	return nil
}

// Labels returns a snapshot of the stored label blocks.
func (s *MemoryStore) Labels() []segment.LabelBlock {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]segment.LabelBlock, len(s.labels))
	copy(out, s.labels)
	return out
}

// Features returns a snapshot of the stored feature blocks.
func (s *MemoryStore) Features() []segment.FeatureBlock {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]segment.FeatureBlock, len(s.features))
	copy(out, s.features)
	return out
}

// blockEnvelope is the gob stream element: exactly one of the two fields is
// set per entry.
type blockEnvelope struct {
	Label   *segment.LabelBlock
	Feature *segment.FeatureBlock
}

// GobStore appends blocks to a single gob stream on disk.
type GobStore struct {
	mu      sync.Mutex
	file    *os.File
	writer  *bufio.Writer
	encoder *gob.Encoder
}

// NewGobStore creates (or truncates) the file at path and prepares the
// stream.
func NewGobStore(path string) (*GobStore, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating block store: %w", err)
	}

	writer := bufio.NewWriter(file)
	return &GobStore{
		file:    file,
		writer:  writer,
		encoder: gob.NewEncoder(writer),
	}, nil
}

func (s *GobStore) PutLabels(block segment.LabelBlock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.encoder.Encode(blockEnvelope{Label: &block})
}

func (s *GobStore) PutFeatures(block segment.FeatureBlock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.encoder.Encode(blockEnvelope{Feature: &block})
}

func (s *GobStore) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writer.Flush()
}

// Close flushes and closes the underlying file.
func (s *GobStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writer.Flush(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}

// ReadBlocks loads every block from a gob stream written by GobStore,
// preserving write order within each kind.
func ReadBlocks(path string) ([]segment.LabelBlock, []segment.FeatureBlock, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening block store: %w", err)
	}
	defer file.Close()

	var (
		labels   []segment.LabelBlock
		features []segment.FeatureBlock
	)

	decoder := gob.NewDecoder(bufio.NewReader(file))
	for {
		var envelope blockEnvelope
		if err := decoder.Decode(&envelope); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, nil, fmt.Errorf("decoding block store: %w", err)
		}

		switch {
		case envelope.Label != nil:
			labels = append(labels, *envelope.Label)
		case envelope.Feature != nil:
			features = append(features, *envelope.Feature)
		}
	}

	return labels, features, nil
}
