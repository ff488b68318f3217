package safeio

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"taskgateway/internal/apperr"
)

const errOverwrite = "overwriting file is not allowed. use a different name for the output file"

// IsWritableTarget reports whether path may receive new output: it does not
// exist yet, or it is an empty regular file.
func IsWritableTarget(path string) bool {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return true
	}
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Size() == 0
}

// CheckTarget validates an output path before any side effect happens.
func (s *SafeFS) CheckTarget(userPath string) (string, error) {
	if strings.TrimSpace(userPath) == "" {
		return "", apperr.Invalid("invalid output filename")
	}
	p, err := s.Resolve(userPath)
	if err != nil {
		return "", err
	}
	if !IsWritableTarget(p) {
		return "", apperr.Invalid(errOverwrite)
	}
	return p, nil
}

// SafeWriteFile writes data to an output path under the root. The sandbox and
// overwrite checks are repeated while holding a per-path lock so two writers
// in this process cannot both pass the guard.
func (s *SafeFS) SafeWriteFile(userPath string, data []byte) error {
	p, err := s.Resolve(userPath)
	if err != nil {
		return err
	}
	unlock := s.locks.lock(p)
	defer unlock()

	if _, err := s.CheckTarget(userPath); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

// pathLocks is a refcounted keyed mutex.
type pathLocks struct {
	mu    sync.Mutex
	locks map[string]*pathLock
}

type pathLock struct {
	mu   sync.Mutex
	refs int
}

func newPathLocks() *pathLocks {
	return &pathLocks{locks: map[string]*pathLock{}}
}

func (l *pathLocks) lock(key string) func() {
	l.mu.Lock()
	pl, ok := l.locks[key]
	if !ok {
		pl = &pathLock{}
		l.locks[key] = pl
	}
	pl.refs++
	l.mu.Unlock()

	pl.mu.Lock()
	return func() {
		pl.mu.Unlock()
		l.mu.Lock()
		pl.refs--
		if pl.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}
