package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/timbits/carp/internal/atomicfile"
)

func writeConfig(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestNew(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeConfig(t, path, "version = 2\n")

	w, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	if w.Events() == nil {
		t.Fatal("Events() returned nil channel")
	}
	// Don't assert Polling() is false: CI environments may lack inotify.
	_ = w.Polling()
}

func TestNewFileNotYetCreated(t *testing.T) {
	// The config file may not exist yet; the directory is what's watched.
	w, err := New(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestWriteTriggersEvent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping slow watcher test in short mode")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeConfig(t, path, "version = 2\n")

	w, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	time.Sleep(100 * time.Millisecond)
	writeConfig(t, path, "version = 2\n# edited\n")

	// Generous timeout: polling mode has a 2s interval.
	select {
	case <-w.Events():
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change event")
	}
}

func TestAtomicRenameTriggersEvent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping slow watcher test in short mode")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeConfig(t, path, "version = 2\n")

	w, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	time.Sleep(100 * time.Millisecond)

	// Config saves go through a temp file and a rename, which replaces the
	// watched inode. The watcher must still see the change.
	if err := atomicfile.Write(path, []byte("version = 2\n# saved\n"), 0o644); err != nil {
		t.Fatalf("atomic write: %v", err)
	}

	select {
	case <-w.Events():
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for rename event")
	}
}

func TestUnrelatedFilesIgnored(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping slow watcher test in short mode")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeConfig(t, path, "version = 2\n")

	w, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	time.Sleep(100 * time.Millisecond)
	writeConfig(t, filepath.Join(dir, "daemon.log"), "log line\n")

	select {
	case <-w.Events():
		if !w.Polling() {
			t.Error("received event for a sibling file")
		}
	case <-time.After(500 * time.Millisecond):
	}
}

func TestCloseStopsEvents(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping slow watcher test in short mode")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeConfig(t, path, "version = 2\n")

	w, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	time.Sleep(100 * time.Millisecond)
	writeConfig(t, path, "version = 2\n# edited\n")

	select {
	case <-w.Events():
		t.Error("received event after Close")
	case <-time.After(500 * time.Millisecond):
	}
}

func TestFallbackToPollKeepsCloseSafe(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeConfig(t, path, "version = 2\n")

	w, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if w.Polling() {
		t.Skip("fsnotify unavailable; fallback path already taken in New")
	}

	// The fsnotify-error path switches to polling without reassigning fsw,
	// so Close can always reach it.
	w.fallbackToPoll()
	if !w.Polling() {
		t.Fatal("fallbackToPoll did not enable polling mode")
	}
	if w.fsw == nil {
		t.Fatal("fallbackToPoll cleared fsw")
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close after fallback: %v", err)
	}
}

func TestPollDetectsModification(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping slow polling test in short mode")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeConfig(t, path, "version = 2\n")

	// Build a watcher manually in polling mode to exercise poll() directly.
	w := &Watcher{
		path:         path,
		events:       make(chan struct{}, 1),
		done:         make(chan struct{}),
		pollInterval: 100 * time.Millisecond,
	}
	w.polling.Store(true)
	go w.poll()
	defer w.Close()

	time.Sleep(150 * time.Millisecond)

	future := time.Now().Add(time.Second)
	os.Chtimes(path, future, future)

	select {
	case <-w.Events():
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for poll event")
	}
}

func TestPollMissingFileNoEvent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping slow polling test in short mode")
	}

	w := &Watcher{
		path:         filepath.Join(t.TempDir(), "config.toml"),
		events:       make(chan struct{}, 1),
		done:         make(chan struct{}),
		pollInterval: 100 * time.Millisecond,
	}
	w.polling.Store(true)
	go w.poll()
	defer w.Close()

	select {
	case <-w.Events():
		t.Error("received event for a missing file")
	case <-time.After(350 * time.Millisecond):
	}
}
