package pipeline

import (
	"fmt"
	"sync"
)

// Stage identifies where a run currently is. Stages advance linearly;
// StageError is a parallel terminal reachable from any non-terminal stage.
type Stage int

const (
	StageIdle Stage = iota
	StageAnalyzing
	StageAcquiring
	StageStaging
	StageCompiling
	StageExecuting
	StageRetrieving
	StageCleanup
	StageComplete
	StageError
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageAnalyzing:
		return "analyzing inputs"
	case StageAcquiring:
		return "acquiring engine"
	case StageStaging:
		return "staging inputs"
	case StageCompiling:
		return "compiling"
	case StageExecuting:
		return "executing"
	case StageRetrieving:
		return "retrieving output"
	case StageCleanup:
		return "cleaning up"
	case StageComplete:
		return "complete"
	case StageError:
		return "error"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// State is a snapshot of one run, owned by the orchestrator driving it.
type State struct {
	Stage    Stage
	Progress float64
	Message  string
	Running  bool
	Err      error
}

// Observer receives state snapshots for a single run. Passed explicitly by
// the caller so concurrent tool instances never share progress plumbing.
type Observer func(State)

// Fixed progress milestones per stage.
type band struct {
	from float64
	to   float64
}

var bands = map[Stage]band{
	StageAnalyzing:  {0, 10},
	StageAcquiring:  {10, 20},
	StageStaging:    {20, 38},
	StageCompiling:  {38, 40},
	StageExecuting:  {40, 90},
	StageRetrieving: {90, 95},
	StageCleanup:    {95, 100},
}

// tracker mutates the run state and publishes snapshots. Progress never
// regresses within a run: every update clamps to the current value.
type tracker struct {
	mu       sync.Mutex
	state    State
	observer Observer
}

func newTracker(obs Observer) *tracker {
	return &tracker{
		state:    State{Stage: StageIdle},
		observer: obs,
	}
}

// enter moves the run to a stage and its band start.
func (t *tracker) enter(stage Stage, message string) {
	t.mu.Lock()
	t.state.Stage = stage
	t.state.Message = message
	t.state.Running = true
	t.bump(bands[stage].from)
	snap := t.state
	t.mu.Unlock()
	t.publish(snap)
}

// step advances linearly within the current stage's band as items complete.
func (t *tracker) step(stage Stage, done, total int, message string) {
	if total <= 0 {
		return
	}
	b := bands[stage]
	t.mu.Lock()
	t.state.Message = message
	t.bump(b.from + (b.to-b.from)*float64(done)/float64(total))
	snap := t.state
	t.mu.Unlock()
	t.publish(snap)
}

// complete marks a successful run at full progress.
func (t *tracker) complete(message string) {
	t.mu.Lock()
	t.state.Stage = StageComplete
	t.state.Message = message
	t.state.Running = false
	t.bump(100)
	snap := t.state
	t.mu.Unlock()
	t.publish(snap)
}

// fail moves the run to the error terminal. Progress stays where it was.
func (t *tracker) fail(err error, message string) {
	t.mu.Lock()
	t.state.Stage = StageError
	t.state.Message = message
	t.state.Running = false
	t.state.Err = err
	snap := t.state
	t.mu.Unlock()
	t.publish(snap)
}

// snapshot returns the current state.
func (t *tracker) snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// bump raises progress, never lowering it. Caller holds the lock.
func (t *tracker) bump(p float64) {
	if p > t.state.Progress {
		t.state.Progress = p
	}
}

func (t *tracker) publish(snap State) {
	if t.observer != nil {
		t.observer(snap)
	}
}
