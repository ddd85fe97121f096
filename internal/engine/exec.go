package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/keagan/fadereel/internal/logging"
)

// Exec runs graphs through the ffmpeg binary, staging all files in a
// private flat working directory.
type Exec struct {
	logger  zerolog.Logger
	binary  string
	threads int

	path    string
	workDir string
}

// NewExec creates an ffmpeg-backed engine. Nothing is resolved or created
// until Initialize.
func NewExec(logger zerolog.Logger, binary string, threads int) *Exec {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Exec{
		logger:  logging.Component(logger, "engine"),
		binary:  binary,
		threads: threads,
	}
}

// Initialize resolves the binary and creates the working directory. Calling
// it again after success is a no-op.
func (e *Exec) Initialize(_ context.Context) error {
	if e.path != "" && e.workDir != "" {
		return nil
	}

	path, err := exec.LookPath(e.binary)
	if err != nil {
		return fmt.Errorf("%s not found in PATH: %w", e.binary, err)
	}

	workDir, err := os.MkdirTemp("", "fadereel-engine")
	if err != nil {
		return fmt.Errorf("create working directory: %w", err)
	}

	e.path = path
	e.workDir = workDir
	e.logger.Debug().Str("binary", path).Str("work_dir", workDir).Msg("engine initialized")
	return nil
}

// WriteInput stages bytes under name in the working directory.
func (e *Exec) WriteInput(name string, data []byte) error {
	full, err := e.resolve(name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(full, data, 0644); err != nil {
		return fmt.Errorf("stage %s: %w", name, err)
	}
	return nil
}

// Run invokes ffmpeg with the compiled argument list, working-directory
// relative. Stderr is captured for failure reporting and tee'd to the debug
// log.
func (e *Exec) Run(ctx context.Context, argv []string) error {
	if e.path == "" {
		return errors.New("engine not initialized")
	}

	args := []string{"-hide_banner", "-nostdin", "-loglevel", "error"}
	if e.threads > 0 {
		args = append(args, "-threads", strconv.Itoa(e.threads))
	}
	args = append(args, argv...)

	e.logger.Debug().Strs("args", args).Msg("executing engine")

	cmd := exec.CommandContext(ctx, e.path, args...)
	cmd.Dir = e.workDir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("engine run failed: %w: %s", err, stderrTail(stderr.String()))
	}

	for _, line := range strings.Split(strings.TrimSpace(stderr.String()), "\n") {
		if line != "" {
			e.logger.Debug().Str("engine", line).Msg("engine output")
		}
	}
	return nil
}

// ReadOutput returns the bytes of a produced artifact.
func (e *Exec) ReadOutput(name string) ([]byte, error) {
	full, err := e.resolve(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("read output %s: %w", name, err)
	}
	return data, nil
}

// DeleteFile removes a staged or produced file. Absent files are a no-op.
func (e *Exec) DeleteFile(name string) error {
	full, err := e.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return nil
}

// Close removes the working directory and everything staged in it.
func (e *Exec) Close() error {
	if e.workDir == "" {
		return nil
	}
	err := os.RemoveAll(e.workDir)
	e.workDir = ""
	return err
}

// resolve maps a flat storage name onto the working directory, rejecting
// anything that would escape it.
func (e *Exec) resolve(name string) (string, error) {
	if e.workDir == "" {
		return "", errors.New("engine not initialized")
	}
	if name == "" || filepath.Base(name) != name {
		return "", fmt.Errorf("invalid storage name %q", name)
	}
	return filepath.Join(e.workDir, name), nil
}

func stderrTail(stderr string) string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	if len(lines) > 5 {
		lines = lines[len(lines)-5:]
	}
	return strings.Join(lines, " | ")
}
