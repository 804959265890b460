// Package adapter contains infrastructure adapters for the soundcheck CLI:
// snapshot discovery and decoding, and run report persistence. The domain
// layer never touches the filesystem directly.
package adapter

import (
	"crypto/sha256"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	m "github.com/safer-rust/rust-safety-standard/internal/model"
)

// SnapshotSuffix is the file suffix the front end gives crate snapshots.
const SnapshotSuffix = ".crate.yaml"

// SnapshotAdapter abstracts locating and decoding crate snapshots so the
// domain layer can be tested without touching the disk.
type SnapshotAdapter interface {
	// Find returns snapshot file paths under the given roots, recursively,
	// skipping any path matched by an exclude pattern. A root that is itself
	// a snapshot file is returned as-is.
	Find(roots []m.Path, exclude []string) ([]m.Path, error)

	// Load decodes one snapshot file into an immutable crate model.
	Load(path m.Path) (*m.Crate, error)

	// Hash returns a stable fingerprint for the snapshot file.
	Hash(path m.Path) (string, error)
}

// LocalSnapshotAdapter reads snapshots from the local filesystem.
type LocalSnapshotAdapter struct{}

// NewLocalSnapshotAdapter constructs a LocalSnapshotAdapter ready to be
// wired into the workflow.
func NewLocalSnapshotAdapter() *LocalSnapshotAdapter {
	return &LocalSnapshotAdapter{}
}

// Find walks each root and collects snapshot files in walk order.
func (a *LocalSnapshotAdapter) Find(roots []m.Path, exclude []string) ([]m.Path, error) {
	patterns, err := compileExcludes(exclude)
	if err != nil {
		return nil, err
	}

	if len(roots) == 0 {
		roots = []m.Path{"."}
	}

	var found []m.Path

	for _, root := range roots {
		info, err := os.Stat(string(root))
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", root, err)
		}

		if !info.IsDir() {
			if !excluded(patterns, string(root)) {
				found = append(found, root)
			}

			continue
		}

		err = filepath.WalkDir(string(root), func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if entry.IsDir() || !strings.HasSuffix(path, SnapshotSuffix) {
				return nil
			}

			if excluded(patterns, path) {
				return nil
			}

			found = append(found, m.Path(path))

			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}

	return found, nil
}

// Load decodes a snapshot and fills in declaration indexes when the front
// end left them all unset.
func (a *LocalSnapshotAdapter) Load(path m.Path) (*m.Crate, error) {
	content, err := os.ReadFile(string(path))
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}

	var crate m.Crate
	if err := yaml.Unmarshal(content, &crate); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}

	if crate.Name == "" {
		return nil, fmt.Errorf("snapshot %s declares no crate name", path)
	}

	assignDeclIndexes(&crate)

	return &crate, nil
}

// Hash returns the SHA-256 fingerprint of a snapshot file.
func (a *LocalSnapshotAdapter) Hash(path m.Path) (string, error) {
	file, err := os.Open(string(path))
	if err != nil {
		return "", fmt.Errorf("open snapshot %s: %w", path, err)
	}

	defer func() {
		_ = file.Close()
	}()

	digest := sha256.New()
	if _, err := io.Copy(digest, file); err != nil {
		return "", fmt.Errorf("hash snapshot %s: %w", path, err)
	}

	return fmt.Sprintf("%x", digest.Sum(nil)), nil
}

// assignDeclIndexes numbers declarations by order of appearance when every
// index is zero, preserving any explicit ordering the front end recorded.
func assignDeclIndexes(crate *m.Crate) {
	for _, item := range crate.Items {
		if item.DeclIndex != 0 {
			return
		}
	}

	for _, s := range crate.Structs {
		if s.DeclIndex != 0 {
			return
		}
	}

	for _, t := range crate.Traits {
		if t.DeclIndex != 0 {
			return
		}
	}

	for _, impl := range crate.Impls {
		if impl.DeclIndex != 0 {
			return
		}
	}

	next := 0

	for _, item := range crate.Items {
		item.DeclIndex = next
		next++
	}

	for _, s := range crate.Structs {
		s.DeclIndex = next
		next++
	}

	for _, t := range crate.Traits {
		t.DeclIndex = next
		next++
	}

	for _, impl := range crate.Impls {
		impl.DeclIndex = next
		next++
	}
}

func compileExcludes(exclude []string) ([]*regexp.Regexp, error) {
	patterns := make([]*regexp.Regexp, 0, len(exclude))

	for _, raw := range exclude {
		pattern, err := regexp.Compile(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", raw, err)
		}

		patterns = append(patterns, pattern)
	}

	return patterns, nil
}

func excluded(patterns []*regexp.Regexp, path string) bool {
	for _, pattern := range patterns {
		if pattern.MatchString(path) {
			return true
		}
	}

	return false
}
