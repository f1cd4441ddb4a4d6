package staging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

// Stager writes attachment bytes into a scoped temporary directory. Each
// file gets a uuid prefix so attachments sharing a name across messages
// never collide within one run. Close removes the whole area.
type Stager struct {
	dir      string
	attempts uint64
	interval time.Duration
}

// NewStager creates the staging directory. attempts and interval bound the
// retry on write contention (a scanner holding the fresh file open).
func NewStager(attempts int, interval time.Duration) (*Stager, error) {
	dir, err := os.MkdirTemp("", "iocharvest-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging dir: %w", err)
	}
	if attempts < 0 {
		attempts = 0
	}
	return &Stager{dir: dir, attempts: uint64(attempts), interval: interval}, nil
}

// Stage persists one attachment and returns its staged path. On persistent
// contention the attachment is given up on; the caller skips it and moves
// to the next one.
func (s *Stager) Stage(filename string, content []byte) (string, error) {
	name := uuid.NewString() + "_" + filepath.Base(filename)
	path := filepath.Join(s.dir, name)

	write := func() error {
		return os.WriteFile(path, content, 0o600)
	}
	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(s.interval), s.attempts)
	if err := backoff.Retry(write, policy); err != nil {
		return "", fmt.Errorf("failed to stage %s: %w", filename, err)
	}
	return path, nil
}

// Dir exposes the staging area, mainly for tests.
func (s *Stager) Dir() string {
	return s.dir
}

func (s *Stager) Close() error {
	return os.RemoveAll(s.dir)
}
