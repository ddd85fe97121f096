// Package engine defines the media engine surface the pipeline drives and
// provides the ffmpeg-backed implementation plus single-flight acquisition.
package engine

import "context"

// Engine is the narrow collaborator surface the orchestrator consumes. The
// engine owns a flat working storage addressed by bare file names.
type Engine interface {
	// Initialize prepares the engine. Idempotent; may be slow on first call.
	Initialize(ctx context.Context) error

	// WriteInput stores bytes under name in the engine's working storage.
	WriteInput(name string, data []byte) error

	// Run executes one compiled invocation. No partial recovery: any failure
	// fails the whole run.
	Run(ctx context.Context, argv []string) error

	// ReadOutput returns the bytes of a produced artifact.
	ReadOutput(name string) ([]byte, error)

	// DeleteFile removes a file from working storage. Deleting an absent
	// file is a no-op.
	DeleteFile(name string) error
}
