package scanner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"pcbuilds/internal/catalog"
	"pcbuilds/internal/database/dbtest"
	"pcbuilds/internal/logger"
	"pcbuilds/internal/repository"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeImporter struct {
	mu    sync.Mutex
	seen  []string
	fail  map[string]bool
	block chan struct{}
}

func (f *fakeImporter) Import(ctx context.Context, filename string, data []byte) (*catalog.Result, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, filename)
	if f.fail[filename] {
		return nil, &catalog.ImportError{RunID: "r", File: filename, Err: errors.New("disk full")}
	}
	return &catalog.Result{RunID: "r", File: filename, Mode: catalog.FormatSimple}, nil
}

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("Name\nx\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestRunOnceImportsInNameOrder(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "b.csv", "a.xlsx", "notes.txt", ".hidden.csv", "c.CSV")

	imp := &fakeImporter{fail: map[string]bool{"b.csv": true}}
	settings := repository.NewSettingsRepository(dbtest.Open(t))
	sc := New(dir, imp, settings, nil)

	st, err := sc.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	if want := []string{"a.xlsx", "b.csv", "c.CSV"}; !reflect.DeepEqual(imp.seen, want) {
		t.Fatalf("imported %q, want %q", imp.seen, want)
	}
	if st.Running || st.Total != 3 || st.Processed != 3 || st.Imported != 2 || st.Failed != 1 {
		t.Fatalf("status = %+v", st)
	}

	if !exists(filepath.Join(dir, ProcessedDir, "a.xlsx")) || !exists(filepath.Join(dir, ProcessedDir, "c.CSV")) {
		t.Fatal("committed files must move to processed/")
	}
	if !exists(filepath.Join(dir, "b.csv")) {
		t.Fatal("a failed file must stay in the drop folder")
	}
	if !exists(filepath.Join(dir, "notes.txt")) {
		t.Fatal("unrelated files must be left alone")
	}
	if settings.GetTime(context.Background(), repository.SettingLastImportAt).IsZero() {
		t.Fatal("last import time was not recorded")
	}
}

func TestRunOnceRenamesOnCollision(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, ProcessedDir), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFiles(t, filepath.Join(dir, ProcessedDir), "parts.csv")
	writeFiles(t, dir, "parts.csv")

	sc := New(dir, &fakeImporter{}, nil, nil)
	sc.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	if _, err := sc.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !exists(filepath.Join(dir, ProcessedDir, "parts-20260102T030405.csv")) {
		t.Fatal("expected a timestamped copy in processed/")
	}
}

func TestRunOnceMissingDir(t *testing.T) {
	sc := New(filepath.Join(t.TempDir(), "missing"), &fakeImporter{}, nil, nil)
	st, err := sc.RunOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if st.Running || st.Imported != 0 || st.Message == "" {
		t.Fatalf("status = %+v", st)
	}
}

func TestStartScanRejectsConcurrentRun(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.csv")

	imp := &fakeImporter{block: make(chan struct{})}
	sc := New(dir, imp, nil, nil)

	if !sc.StartScan(context.Background()) {
		t.Fatal("first StartScan should start")
	}
	if sc.StartScan(context.Background()) {
		t.Fatal("second StartScan should be refused while running")
	}
	if _, err := sc.RunOnce(context.Background()); !errors.Is(err, ErrBusy) {
		t.Fatalf("RunOnce err = %v, want ErrBusy", err)
	}
	close(imp.block)

	deadline := time.Now().Add(5 * time.Second)
	for sc.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("scan did not finish")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if st := sc.Status(); st.Imported != 1 {
		t.Fatalf("status = %+v", st)
	}
}

func TestRunSchedulerStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.csv")
	imp := &fakeImporter{}
	sc := New(dir, imp, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- RunScheduler(ctx, sc, nil, 10*time.Millisecond, nil) }()

	deadline := time.Now().Add(5 * time.Second)
	for !exists(filepath.Join(dir, ProcessedDir, "a.csv")) {
		if time.Now().After(deadline) {
			t.Fatal("scheduler never imported the file")
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("RunScheduler: %v", err)
	}
}

func TestSchedulerHonoursAutoImportSetting(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.csv")
	ctx := context.Background()
	settings := repository.NewSettingsRepository(dbtest.Open(t))
	if err := settings.SetBool(ctx, repository.SettingAutoImport, false); err != nil {
		t.Fatal(err)
	}
	imp := &fakeImporter{}
	sc := New(dir, imp, settings, nil)

	checkAndRunScan(ctx, sc, settings, nil)
	if len(imp.seen) != 0 {
		t.Fatal("scan ran with auto import disabled")
	}
}

func TestScannerLogsTagComponentOnce(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.csv")

	core, logs := observer.New(zap.DebugLevel)
	log := &logger.Logger{SugaredLogger: zap.New(core).Sugar()}
	sc := New(dir, &fakeImporter{}, nil, log)

	if _, err := sc.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	entries := logs.All()
	if len(entries) == 0 {
		t.Fatal("no log entries")
	}
	for _, e := range entries {
		n := 0
		for _, f := range e.Context {
			if f.Key == "component" {
				n++
				if f.String != "scanner" {
					t.Errorf("%q: component = %q", e.Message, f.String)
				}
			}
		}
		if n != 1 {
			t.Errorf("%q carries component %d times, want 1", e.Message, n)
		}
	}
}
