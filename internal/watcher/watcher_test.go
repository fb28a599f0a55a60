package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type ingestRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *ingestRecorder) record(projectID, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, projectID+":"+filepath.Base(path))
}

func (r *ingestRecorder) wait(t *testing.T, want string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		r.mu.Lock()
		for _, c := range r.calls {
			if c == want {
				r.mu.Unlock()
				return
			}
		}
		r.mu.Unlock()
		time.Sleep(20 * time.Millisecond)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t.Fatalf("ingest %q not observed, got %v", want, r.calls)
}

func (r *ingestRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func startWatcher(t *testing.T, root string, rec *ingestRecorder) *Watcher {
	t.Helper()
	w := New(root, []string{".md", ".pdf"}, rec.record, WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(w.Stop)
	return w
}

func TestIngestFileInExistingProjectDir(t *testing.T) {
	root := filepath.Join(t.TempDir(), "uploads")
	projectDir := filepath.Join(root, "proj-1")
	if err := os.MkdirAll(projectDir, 0755); err != nil {
		t.Fatal(err)
	}
	rec := &ingestRecorder{}
	startWatcher(t, root, rec)

	if err := os.WriteFile(filepath.Join(projectDir, "paper.md"), []byte("# T\n\nbody"), 0644); err != nil {
		t.Fatal(err)
	}
	rec.wait(t, "proj-1:paper.md")
}

func TestIngestFileInNewProjectDir(t *testing.T) {
	root := filepath.Join(t.TempDir(), "uploads")
	rec := &ingestRecorder{}
	startWatcher(t, root, rec)

	projectDir := filepath.Join(root, "proj-2")
	if err := os.MkdirAll(projectDir, 0755); err != nil {
		t.Fatal(err)
	}
	// Give the watcher a moment to register the new directory.
	time.Sleep(200 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(projectDir, "late.md"), []byte("# L\n\nbody"), 0644); err != nil {
		t.Fatal(err)
	}
	rec.wait(t, "proj-2:late.md")
}

func TestExtensionFilter(t *testing.T) {
	root := filepath.Join(t.TempDir(), "uploads")
	projectDir := filepath.Join(root, "proj-3")
	if err := os.MkdirAll(projectDir, 0755); err != nil {
		t.Fatal(err)
	}
	rec := &ingestRecorder{}
	startWatcher(t, root, rec)

	if err := os.WriteFile(filepath.Join(projectDir, "notes.tmp"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(projectDir, "kept.md"), []byte("# K\n\nbody"), 0644); err != nil {
		t.Fatal(err)
	}
	rec.wait(t, "proj-3:kept.md")
	if rec.count() != 1 {
		t.Errorf("filtered file was ingested: %v", rec.calls)
	}
}

func TestRootLevelFilesIgnored(t *testing.T) {
	root := filepath.Join(t.TempDir(), "uploads")
	projectDir := filepath.Join(root, "proj-4")
	if err := os.MkdirAll(projectDir, 0755); err != nil {
		t.Fatal(err)
	}
	rec := &ingestRecorder{}
	startWatcher(t, root, rec)

	// Files directly in the root have no project and must be skipped.
	if err := os.WriteFile(filepath.Join(root, "stray.md"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(projectDir, "ok.md"), []byte("# O\n\nbody"), 0644); err != nil {
		t.Fatal(err)
	}
	rec.wait(t, "proj-4:ok.md")
	if rec.count() != 1 {
		t.Errorf("root-level file was ingested: %v", rec.calls)
	}
}

func TestSyncExisting(t *testing.T) {
	root := filepath.Join(t.TempDir(), "uploads")
	projectDir := filepath.Join(root, "proj-5")
	if err := os.MkdirAll(projectDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(projectDir, "old.md"), []byte("# O\n\nbody"), 0644); err != nil {
		t.Fatal(err)
	}
	rec := &ingestRecorder{}
	w := startWatcher(t, root, rec)

	w.SyncExisting()
	rec.wait(t, "proj-5:old.md")
}

func TestProjectIDFor(t *testing.T) {
	w := New("/data/uploads", nil, func(string, string) {})
	tests := []struct {
		path string
		want string
	}{
		{"/data/uploads/p1/file.md", "p1"},
		{"/data/uploads/file.md", ""},
		{"/data/uploads/p1/nested/file.md", ""},
		{"/elsewhere/file.md", ""},
	}
	for _, tt := range tests {
		if got := w.projectIDFor(tt.path); got != tt.want {
			t.Errorf("projectIDFor(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
