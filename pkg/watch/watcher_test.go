package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMatches(t *testing.T) {
	w := &Watcher{Pattern: "*logdata*"}
	if !w.matches("/logs/2025-05-30-0948_logdata_run1") {
		t.Error("should match logdata file")
	}
	if w.matches("/logs/notes.txt") {
		t.Error("should not match unrelated file")
	}

	w.Pattern = ""
	if !w.matches("/logs/anything") {
		t.Error("empty pattern matches everything")
	}
}

func TestDispatch_SkipsFileAlreadyProcessing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "0948_logdata_run1")
	if err := os.WriteFile(path, []byte("[Header]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := New(time.Second, "")
	if err != nil {
		t.Fatal(err)
	}

	block := make(chan struct{})
	var calls int32
	w.OnLog = func(string) {
		atomic.AddInt32(&calls, 1)
		<-block
	}

	go w.dispatch(path)
	deadline := time.Now().Add(3 * time.Second)
	for atomic.LoadInt32(&calls) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatal("first dispatch never reached OnLog")
	}

	// A settle timer firing again while the file converts must not start
	// a second conversion of the same file.
	w.dispatch(path)
	close(block)

	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("OnLog called %d times, want 1", n)
	}
}

func TestRun_SettledFileDispatched(t *testing.T) {
	dir := t.TempDir()

	w, err := New(50*time.Millisecond, "*logdata*")
	if err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	got := make(map[string]int)
	w.OnLog = func(path string) {
		mu.Lock()
		got[filepath.Base(path)]++
		mu.Unlock()
	}

	if err := w.Add(dir); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()

	match := filepath.Join(dir, "0948_logdata_run1")
	other := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(match, []byte("[Header]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(other, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := got["0948_logdata_run1"]
		mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	if got["0948_logdata_run1"] == 0 {
		t.Error("settled matching file was never dispatched")
	}
	if got["notes.txt"] != 0 {
		t.Error("non-matching file should be ignored")
	}
}
