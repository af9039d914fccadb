// Package common provides small shared utilities.
package common

import (
	"fmt"
	"time"
)

// StageTimer measures how long one pipeline stage step took.
type StageTimer struct {
	stage    string
	start    time.Time
	duration time.Duration
}

// NewStageTimer starts a timer for the named stage.
func NewStageTimer(stage string) *StageTimer {
	return &StageTimer{stage: stage, start: time.Now()}
}

// Stop freezes the timer and returns the elapsed duration. Safe to call more
// than once; later calls return the first recorded duration.
func (t *StageTimer) Stop() time.Duration {
	if t.duration == 0 {
		t.duration = time.Since(t.start)
	}
	return t.duration
}

// Stage returns the stage name.
func (t *StageTimer) Stage() string { return t.stage }

func (t *StageTimer) String() string {
	return fmt.Sprintf("%s: %v", t.stage, t.duration)
}
