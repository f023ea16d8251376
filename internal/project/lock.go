package project

import (
	"fmt"

	"github.com/gofrs/flock"

	"lingosub/internal/services"
)

// TryLock takes the run lock of p without blocking. The lock is an advisory
// file lock, so it also excludes runs started by other processes. A held lock
// yields a concurrency error.
func (s *Store) TryLock(p Project) (func(), error) {
	lock := flock.New(s.Layout(p).Lock())
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire project lock: %w", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrConcurrency, "", "acquire project lock",
			fmt.Sprintf("a run is already in progress for project %s", p.ID), nil)
	}
	return func() { _ = lock.Unlock() }, nil
}

// IsLocked reports whether a run currently holds the lock of p.
func (s *Store) IsLocked(p Project) bool {
	unlock, err := s.TryLock(p)
	if err != nil {
		return true
	}
	unlock()
	return false
}
