//go:build unix

package guide

import (
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"
)

func TestLoadImage_RejectsNamedPipe(t *testing.T) {
	fifo := filepath.Join(t.TempDir(), "pic.png")
	if err := syscall.Mkfifo(fifo, 0o644); err != nil {
		t.Skipf("mkfifo: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := LoadImage(fifo)
		done <- err
	}()
	select {
	case err := <-done:
		if err == nil || !strings.Contains(err.Error(), "not a regular file") {
			t.Fatalf("LoadImage(fifo) error = %v, want not a regular file", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("LoadImage blocked reading a named pipe")
	}
}
