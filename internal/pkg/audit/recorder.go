// Package audit persists the append-only trail of access decisions. Every
// evaluation the web layer performs is recorded here, granted or denied,
// before the response is served.
package audit

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/juridiskporten/portal/app/models"
)

// ErrWriteFault marks a failed audit insert. The access decision already
// made stands; losing audit coverage is an operator concern, not a
// user-facing error, so callers log it and move on.
var ErrWriteFault = errors.New("audit: write fault")

// Repository is the append-only sink for audit records.
type Repository interface {
	Create(attempt *models.AccessAttempt) error
}

// Recorder writes access attempts durably and in per-user submission
// order. Records for different users carry no ordering guarantee.
type Recorder struct {
	repo Repository

	mu    sync.Mutex
	users map[uint]*sync.Mutex
}

// NewRecorder creates a recorder over the given repository.
func NewRecorder(repo Repository) *Recorder {
	return &Recorder{
		repo:  repo,
		users: make(map[uint]*sync.Mutex),
	}
}

// Record persists one attempt synchronously. The record is durable before
// Record returns; there is no buffering that could drop it on a crash.
func (r *Recorder) Record(attempt *models.AccessAttempt) error {
	lock := r.userLock(attempt.UserID)
	lock.Lock()
	defer lock.Unlock()

	if err := r.repo.Create(attempt); err != nil {
		// Escalate to the operator log; the caller's decision is unaffected.
		log.Printf("[audit] FAULT: failed to persist access attempt user=%d package=%v outcome=%s: %v",
			attempt.UserID, attempt.PackageID, attempt.Outcome, err)
		return fmt.Errorf("%w: %v", ErrWriteFault, err)
	}
	return nil
}

func (r *Recorder) userLock(userID uint) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.users[userID]; ok {
		return l
	}
	l := &sync.Mutex{}
	r.users[userID] = l
	return l
}
