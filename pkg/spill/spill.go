// Package spill provides a disk-backed, append-only sequence of gob-encoded
// values. It keeps large finding sequences out of memory: producers append
// while classifying, consumers range over the file afterwards.
package spill

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// Spill is an append-only on-disk sequence of items of type T.
type Spill[T any] interface {
	Len() uint64
	Path() string
	Append(item T) error
	AppendBatch(items []T) error
	Range(fn func(index uint64, item T) error) error
	Close() error
}

type fileSpill[T any] struct {
	path    string
	file    *os.File
	encoder *gob.Encoder
	mu      sync.Mutex
	length  uint64
	// readOnly spills were opened from an existing file; appends are
	// rejected so a report can never be extended after the run.
	readOnly bool
}

// Create starts a new spill at path, truncating any existing file.
func Create[T any](path string) (Spill[T], error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create spill file: %w", err)
	}

	return &fileSpill[T]{
		path:    path,
		file:    file,
		encoder: gob.NewEncoder(file),
	}, nil
}

// CreateTemp starts a new spill in the OS temp directory.
func CreateTemp[T any](pattern string) (Spill[T], error) {
	file, err := os.CreateTemp("", pattern)
	if err != nil {
		return nil, fmt.Errorf("create temp spill file: %w", err)
	}

	return &fileSpill[T]{
		path:    file.Name(),
		file:    file,
		encoder: gob.NewEncoder(file),
	}, nil
}

// Open loads an existing spill read-only, counting its items.
func Open[T any](path string) (Spill[T], error) {
	s := &fileSpill[T]{path: path, readOnly: true}

	count, err := s.count()
	if err != nil {
		return nil, err
	}

	s.length = count

	return s, nil
}

func (s *fileSpill[T]) count() (uint64, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return 0, fmt.Errorf("open spill file: %w", err)
	}
	defer closeQuietly(file, s.path)

	decoder := gob.NewDecoder(file)

	var (
		item  T
		count uint64
	)

	for {
		if err := decoder.Decode(&item); err != nil {
			if errors.Is(err, io.EOF) {
				return count, nil
			}

			return 0, fmt.Errorf("decode item %d: %w", count, err)
		}

		count++
	}
}

// Append writes one item to the end of the spill.
func (s *fileSpill[T]) Append(item T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.readOnly {
		return fmt.Errorf("spill %s is read-only", s.path)
	}

	if err := s.encoder.Encode(item); err != nil {
		return fmt.Errorf("encode item %d: %w", s.length, err)
	}

	s.length++

	return nil
}

// AppendBatch writes items in order, stopping at the first failure.
func (s *fileSpill[T]) AppendBatch(items []T) error {
	for _, item := range items {
		if err := s.Append(item); err != nil {
			return err
		}
	}

	return nil
}

// Len returns the number of items appended or counted at open.
func (s *fileSpill[T]) Len() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.length
}

// Path returns the backing file path.
func (s *fileSpill[T]) Path() string {
	return s.path
}

// Range calls fn for every item in append order. It stops early when fn
// returns an error and reports that error.
func (s *fileSpill[T]) Range(fn func(index uint64, item T) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("open spill file: %w", err)
	}
	defer closeQuietly(file, s.path)

	decoder := gob.NewDecoder(file)

	for i := uint64(0); i < s.length; i++ {
		var item T
		if err := decoder.Decode(&item); err != nil {
			return fmt.Errorf("decode item %d: %w", i, err)
		}

		if err := fn(i, item); err != nil {
			return err
		}
	}

	return nil
}

// Close releases the write handle. Read-only spills hold no handle.
func (s *fileSpill[T]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}

	err := s.file.Close()
	s.file = nil

	if err != nil {
		return fmt.Errorf("close spill file: %w", err)
	}

	return nil
}

func closeQuietly(file *os.File, path string) {
	if err := file.Close(); err != nil {
		slog.Warn("failed to close spill file", "path", path, "error", err)
	}
}
