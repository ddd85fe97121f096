package engine

import (
	"context"
	"os/exec"
	"testing"

	"github.com/rs/zerolog"
)

func testExec(t *testing.T) *Exec {
	t.Helper()
	e := NewExec(zerolog.Nop(), "ffmpeg", 0)
	e.workDir = t.TempDir()
	return e
}

func TestExec_StorageRoundtrip(t *testing.T) {
	e := testExec(t)

	if err := e.WriteInput("in.png", []byte("payload")); err != nil {
		t.Fatalf("WriteInput: %v", err)
	}
	data, err := e.ReadOutput("in.png")
	if err != nil {
		t.Fatalf("ReadOutput: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("read %q, want payload", data)
	}

	if err := e.DeleteFile("in.png"); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	if _, err := e.ReadOutput("in.png"); err == nil {
		t.Error("expected read failure after delete")
	}
}

func TestExec_DeleteAbsentIsNoop(t *testing.T) {
	e := testExec(t)
	if err := e.DeleteFile("never-staged.png"); err != nil {
		t.Errorf("DeleteFile on absent file: %v", err)
	}
}

func TestExec_RejectsEscapingNames(t *testing.T) {
	e := testExec(t)
	for _, name := range []string{"", "../escape.png", "sub/dir.png"} {
		if err := e.WriteInput(name, nil); err == nil {
			t.Errorf("WriteInput(%q) succeeded, want error", name)
		}
	}
}

func TestExec_UninitializedStorageFails(t *testing.T) {
	e := NewExec(zerolog.Nop(), "ffmpeg", 0)
	if err := e.WriteInput("a.png", nil); err == nil {
		t.Error("WriteInput before Initialize succeeded")
	}
	if err := e.Run(context.Background(), []string{"-y", "out.mp4"}); err == nil {
		t.Error("Run before Initialize succeeded")
	}
}

func TestExec_InitializeIdempotent(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH")
	}

	e := NewExec(zerolog.Nop(), "ffmpeg", 0)
	t.Cleanup(func() { e.Close() })

	if err := e.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	workDir := e.workDir
	if err := e.Initialize(context.Background()); err != nil {
		t.Fatalf("second Initialize: %v", err)
	}
	if e.workDir != workDir {
		t.Error("second Initialize replaced the working directory")
	}
}
