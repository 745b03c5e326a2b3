package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestIsMarkdown(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"note.md", true},
		{"NOTE.MD", true},
		{"sub/dir/note.md", true},
		{"note.txt", false},
		{"note.md.bak", false},
		{"note", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isMarkdown(tt.path); got != tt.want {
			t.Errorf("isMarkdown(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestWatcherNotifiesOnCreate(t *testing.T) {
	root := t.TempDir()
	changes := make(chan string, 16)
	w := NewWatcher(root, func(path string) { changes <- path }, WithDebounce(20*time.Millisecond))
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	target := filepath.Join(root, "note.md")
	if err := os.WriteFile(target, []byte("hello"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case got := <-changes:
		if got != target {
			t.Errorf("changed path: %s, want %s", got, target)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification")
	}
}

func TestWatcherIgnoresNonMarkdown(t *testing.T) {
	root := t.TempDir()
	changes := make(chan string, 16)
	w := NewWatcher(root, func(path string) { changes <- path }, WithDebounce(20*time.Millisecond))
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(root, "data.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case got := <-changes:
		t.Errorf("unexpected notification for %s", got)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherNewSubdirectory(t *testing.T) {
	root := t.TempDir()
	changes := make(chan string, 16)
	w := NewWatcher(root, func(path string) { changes <- path }, WithDebounce(20*time.Millisecond))
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	sub := filepath.Join(root, "sub")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	// Give the watcher a moment to pick up the new directory.
	time.Sleep(200 * time.Millisecond)

	target := filepath.Join(sub, "nested.md")
	if err := os.WriteFile(target, []byte("hello"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case got := <-changes:
		if got != target {
			t.Errorf("changed path: %s, want %s", got, target)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification for nested file")
	}
}

func TestWatcherStopIdempotent(t *testing.T) {
	w := NewWatcher(t.TempDir(), func(string) {})
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	w.Stop()
	w.Stop() // second stop must not panic
}

func TestWatcherStartTwice(t *testing.T) {
	w := NewWatcher(t.TempDir(), func(string) {})
	ctx := context.Background()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()
	if err := w.Start(ctx); err != nil {
		t.Errorf("second Start: %v", err)
	}
}
