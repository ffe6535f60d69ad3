// Package profiler - Per-interaction stage timing.
package profiler

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Pipeline stage names.
const (
	StageFetch   = "fetch"
	StageLoad    = "load"
	StagePredict = "predict"
	StageRender  = "render"
)

// Stage is the measured duration of one named stage.
type Stage struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
}

// StageTimer records the stages of a single interaction in the order they finish.
type StageTimer struct {
	mu     sync.Mutex
	start  time.Time
	stages []Stage
	now    func() time.Time
}

// NewStageTimer creates a timer starting now.
func NewStageTimer() *StageTimer {
	return newStageTimer(time.Now)
}

func newStageTimer(now func() time.Time) *StageTimer {
	return &StageTimer{start: now(), now: now}
}

// StartOperation begins timing a stage.
//
// Arguments:
//   - name: The name of the stage to track
//
// Returns:
//   - A function to call when the stage completes
func (t *StageTimer) StartOperation(name string) func() {
	begin := t.now()
	return func() {
		t.record(name, t.now().Sub(begin))
	}
}

func (t *StageTimer) record(name string, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stages = append(t.stages, Stage{Name: name, Duration: d})
}

// Stages returns a copy of the recorded stages.
func (t *StageTimer) Stages() []Stage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Stage(nil), t.stages...)
}

// Elapsed returns the time since the timer was created.
func (t *StageTimer) Elapsed() time.Duration {
	return t.now().Sub(t.start)
}

// Summary formats the stages as "fetch=12ms load=1.2s ...".
func Summary(stages []Stage) string {
	parts := make([]string, len(stages))
	for i, s := range stages {
		parts[i] = fmt.Sprintf("%s=%s", s.Name, s.Duration.Round(time.Millisecond))
	}
	return strings.Join(parts, " ")
}
