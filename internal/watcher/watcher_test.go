package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *recorder) handle(_ context.Context, p string) {
	r.mu.Lock()
	r.paths = append(r.paths, filepath.Base(p))
	r.mu.Unlock()
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]string(nil), r.paths...)
	sort.Strings(out)
	return out
}

func waitFor(t *testing.T, r *recorder, n int) []string {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if got := r.snapshot(); len(got) >= n {
			return got
		}
		time.Sleep(20 * time.Millisecond)
	}
	return r.snapshot()
}

func writeFile(t *testing.T, p, content string) {
	t.Helper()
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		path       string
		extensions []string
		want       bool
	}{
		{"/in/lote.json", []string{".json", ".zip"}, true},
		{"/in/LOTE.ZIP", []string{"json", "zip"}, true},
		{"/in/notas.txt", []string{".json"}, false},
		{"/in/sin-extension", nil, true},
	}
	for _, tt := range tests {
		if got := Match(tt.path, tt.extensions); got != tt.want {
			t.Errorf("Match(%q, %v) = %v, want %v", tt.path, tt.extensions, got, tt.want)
		}
	}
}

func TestWatcher_handlesNewFiles(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	w := New(dir, []string{".json"}, rec.handle, WithSettle(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	writeFile(t, filepath.Join(dir, "a.json"), `{"titulo":"a"}`)
	writeFile(t, filepath.Join(dir, "ignorado.txt"), "x")

	waitFor(t, rec, 1)
	time.Sleep(100 * time.Millisecond)
	got := rec.snapshot()
	if len(got) != 1 || got[0] != "a.json" {
		t.Errorf("handled = %v, want [a.json]", got)
	}
}

func TestWatcher_recursiveNewDirectory(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	w := New(dir, []string{".json"}, rec.handle, WithSettle(50*time.Millisecond), WithRecursive(true))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	sub := filepath.Join(dir, "lote")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	writeFile(t, filepath.Join(sub, "b.json"), `{"titulo":"b"}`)

	got := waitFor(t, rec, 1)
	if len(got) == 0 || got[0] != "b.json" {
		t.Errorf("handled = %v, want b.json", got)
	}
}

func TestWatcher_SyncAndMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "bandeja", "entrada")
	rec := &recorder{}
	w := New(root, []string{".json"}, rec.handle)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	if _, err := os.Stat(root); err != nil {
		t.Fatalf("root not created: %v", err)
	}

	writeFile(t, filepath.Join(root, "c.json"), "{}")
	writeFile(t, filepath.Join(root, "d.csv"), "x")
	rec2 := &recorder{}
	New(root, []string{".json"}, rec2.handle).Sync(context.Background())
	if got := rec2.snapshot(); len(got) != 1 || got[0] != "c.json" {
		t.Errorf("Sync handled %v, want [c.json]", got)
	}
}
