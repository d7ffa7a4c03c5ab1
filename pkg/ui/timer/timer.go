// Package timer provides simple stage-aware timing for CLI activities.
package timer

import (
	"sync"
	"time"
)

// Timer tracks the total elapsed time of a command and the elapsed time of the
// current stage within it. Stage boundaries are advanced with NewStage.
type Timer interface {
	// Start begins timing. Calling Start again resets the timer.
	Start()

	// NewStage marks the beginning of a new stage.
	NewStage()

	// GetTiming returns the total elapsed time and the elapsed time of the
	// current stage.
	GetTiming() (total time.Duration, stage time.Duration)
}

// New creates an unstarted Timer.
func New() Timer {
	return &clockTimer{}
}

type clockTimer struct {
	mu         sync.Mutex
	start      time.Time
	stageStart time.Time
}

func (t *clockTimer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	t.start = now
	t.stageStart = now
}

func (t *clockTimer) NewStage() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stageStart = time.Now()
}

func (t *clockTimer) GetTiming() (time.Duration, time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.start.IsZero() {
		return 0, 0
	}

	now := time.Now()

	return now.Sub(t.start), now.Sub(t.stageStart)
}
