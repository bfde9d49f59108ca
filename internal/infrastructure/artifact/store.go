// Package artifact persists trained ensemble models as JSON files with
// an atomic "current" pointer, so a live predictor never observes a
// half-written model.
package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"

	"github.com/WarenOdhiambo1/oddsengine/internal/engine/ensemble"
	"github.com/WarenOdhiambo1/oddsengine/internal/platform/resilience"
)

const (
	currentPointerFile = "current"
	artifactPrefix     = "ensemble_"
	artifactSuffix     = ".json"
)

// Store reads and writes ensemble artifacts under one directory.
type Store struct {
	dir string

	flight resilience.SingleFlight

	mu     sync.RWMutex
	cached *ensemble.Artifact
	file   string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// VersionName builds the canonical artifact version string.
func VersionName(at time.Time) string {
	return fmt.Sprintf("v1_%d", at.Unix())
}

// Save writes the artifact to its own file and then swaps the current
// pointer. Both writes go through a temp file and rename, so readers
// see either the old model or the new one, never a torn file.
func (s *Store) Save(_ context.Context, a *ensemble.Artifact) (string, error) {
	if err := a.Validate(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create artifact directory")
	}

	payload, err := sonic.Marshal(a)
	if err != nil {
		return "", errors.Wrap(err, "encode artifact")
	}

	name := artifactPrefix + a.Version + artifactSuffix
	if err := writeAtomic(filepath.Join(s.dir, name), payload); err != nil {
		return "", errors.Wrap(err, "write artifact file")
	}
	if err := writeAtomic(filepath.Join(s.dir, currentPointerFile), []byte(name+"\n")); err != nil {
		return "", errors.Wrap(err, "swap current pointer")
	}

	s.mu.Lock()
	s.cached, s.file = a, name
	s.mu.Unlock()

	return filepath.Join(s.dir, name), nil
}

// LoadCurrent returns the artifact the current pointer names. Loads of
// the same file are deduplicated and cached until the pointer moves.
func (s *Store) LoadCurrent(_ context.Context) (*ensemble.Artifact, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, currentPointerFile))
	if os.IsNotExist(err) {
		return nil, ensemble.ErrModelUnavailable
	}
	if err != nil {
		return nil, errors.Wrap(err, "read current pointer")
	}
	name := strings.TrimSpace(string(raw))
	if name == "" {
		return nil, ensemble.ErrModelUnavailable
	}

	s.mu.RLock()
	if s.cached != nil && s.file == name {
		a := s.cached
		s.mu.RUnlock()
		return a, nil
	}
	s.mu.RUnlock()

	val, err, _ := s.flight.Do(name, func() (any, error) {
		return s.readArtifact(name)
	})
	if err != nil {
		return nil, err
	}
	a := val.(*ensemble.Artifact)

	s.mu.Lock()
	s.cached, s.file = a, name
	s.mu.Unlock()

	return a, nil
}

func (s *Store) readArtifact(name string) (*ensemble.Artifact, error) {
	payload, err := os.ReadFile(filepath.Join(s.dir, name))
	if os.IsNotExist(err) {
		return nil, errors.Mark(errors.Newf("artifact file %s missing", name), ensemble.ErrModelUnavailable)
	}
	if err != nil {
		return nil, errors.Wrap(err, "read artifact file")
	}

	var a ensemble.Artifact
	if err := sonic.Unmarshal(payload, &a); err != nil {
		return nil, errors.Wrap(err, "decode artifact")
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

func writeAtomic(path string, payload []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
