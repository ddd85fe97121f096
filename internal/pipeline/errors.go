package pipeline

import (
	"errors"

	"github.com/keagan/fadereel/internal/filtergraph"
)

// Failure taxonomy. Compiler-level validation errors surface before any
// engine interaction; engine failures are normalized into one of these and
// always trigger cleanup of whatever was already staged.
var (
	// ErrInvalidInputCount: fewer than two images, or more than the
	// configured maximum.
	ErrInvalidInputCount = filtergraph.ErrInvalidInputCount

	// ErrInvalidDuration: display or transition duration outside its
	// configured bounds.
	ErrInvalidDuration = filtergraph.ErrInvalidDuration

	// ErrEngineUnavailable: the engine could not be acquired. The run fails
	// fast and stages nothing.
	ErrEngineUnavailable = errors.New("engine unavailable")

	// ErrEngineExecutionFailed: staging, execution or retrieval failed
	// inside the engine. No partial recovery is attempted.
	ErrEngineExecutionFailed = errors.New("engine execution failed")

	// ErrIO: a source image could not be read or its dimensions probed.
	ErrIO = errors.New("unreadable input")

	// ErrRunInFlight: the orchestrator is not re-entrant; one run per
	// instance.
	ErrRunInFlight = errors.New("a run is already in flight")
)
