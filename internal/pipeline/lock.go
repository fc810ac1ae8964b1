package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another run holds the lock for the same source.
var ErrLocked = errors.New("another streamline run is processing this source")

// runLock is an exclusive, non-blocking file lock keyed by the absolute
// source directory.
type runLock struct {
	fl *flock.Flock
}

// lockPath returns the lock file for source under the OS temp directory.
func lockPath(source string) (string, error) {
	abs, err := filepath.Abs(source)
	if err != nil {
		return "", fmt.Errorf("resolve source path: %w", err)
	}
	sum := sha256.Sum256([]byte(filepath.Clean(abs)))
	return filepath.Join(os.TempDir(), "streamline-"+hex.EncodeToString(sum[:8])+".lock"), nil
}

func acquireLock(source string) (*runLock, error) {
	path, err := lockPath(source)
	if err != nil {
		return nil, err
	}
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock %s)", ErrLocked, path)
	}
	return &runLock{fl: fl}, nil
}

func (l *runLock) release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}
