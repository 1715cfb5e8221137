package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"pcbuilds/internal/catalog"
	"pcbuilds/internal/logger"
	"pcbuilds/internal/models"
	"pcbuilds/internal/repository"
)

// ProcessedDir is where committed files are moved, below the drop folder.
const ProcessedDir = "processed"

var importExts = map[string]bool{
	".csv":  true,
	".xlsx": true,
}

var ErrBusy = errors.New("scanner: a scan is already running")

// Importer applies one file to the catalog.
type Importer interface {
	Import(ctx context.Context, filename string, data []byte) (*catalog.Result, error)
}

// Scanner imports every catalog file dropped into a folder.
type Scanner struct {
	dir          string
	importer     Importer
	settingsRepo *repository.SettingsRepository
	log          *logger.Logger
	now          func() time.Time

	mu     sync.Mutex
	status models.ScanStatus
}

func New(dir string, importer Importer, settingsRepo *repository.SettingsRepository, log *logger.Logger) *Scanner {
	if log == nil {
		log = logger.Nop()
	}
	return &Scanner{
		dir:          dir,
		importer:     importer,
		settingsRepo: settingsRepo,
		log:          log.With("component", "scanner"),
		now:          time.Now,
	}
}

func (s *Scanner) Dir() string { return s.dir }

func (s *Scanner) Status() models.ScanStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Scanner) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status.Running
}

func (s *Scanner) claim() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Running {
		return false
	}
	s.status = models.ScanStatus{Running: true, Message: "Starting scan..."}
	return true
}

// StartScan runs a scan in the background. It reports false when one is
// already running.
func (s *Scanner) StartScan(ctx context.Context) bool {
	if !s.claim() {
		return false
	}
	go s.run(ctx)
	return true
}

// RunOnce scans synchronously and returns the final status.
func (s *Scanner) RunOnce(ctx context.Context) (models.ScanStatus, error) {
	if !s.claim() {
		return s.Status(), ErrBusy
	}
	s.run(ctx)
	return s.Status(), nil
}

func (s *Scanner) setStatus(fn func(*models.ScanStatus)) {
	s.mu.Lock()
	fn(&s.status)
	s.mu.Unlock()
}

// pending lists importable files in the drop folder in name order.
func (s *Scanner) pending() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read import dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if importExts[strings.ToLower(filepath.Ext(e.Name()))] {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

func (s *Scanner) run(ctx context.Context) {
	defer func() {
		s.setStatus(func(st *models.ScanStatus) {
			st.Running = false
			if st.Message == "" || strings.HasSuffix(st.Message, "...") {
				st.Message = fmt.Sprintf("Scan complete. %d imported, %d failed.", st.Imported, st.Failed)
			}
		})
	}()

	files, err := s.pending()
	if err != nil {
		s.log.Error("scan failed", "dir", s.dir, "error", err)
		s.setStatus(func(st *models.ScanStatus) { st.Message = err.Error() })
		return
	}
	s.setStatus(func(st *models.ScanStatus) {
		st.Total = len(files)
		st.Message = "Importing files..."
	})

	for _, name := range files {
		if ctx.Err() != nil {
			s.log.Warn("scan cancelled", "remaining", len(files)-s.Status().Processed)
			return
		}
		ok := s.importFile(ctx, name)
		s.setStatus(func(st *models.ScanStatus) {
			st.Processed++
			if ok {
				st.Imported++
			} else {
				st.Failed++
			}
		})
	}

	if st := s.Status(); st.Imported > 0 && s.settingsRepo != nil {
		if err := s.settingsRepo.SetTime(ctx, repository.SettingLastImportAt, s.now()); err != nil {
			s.log.Warn("record last import time", "error", err)
		}
	}
}

// importFile imports one file and moves it to the processed folder. A
// file that fails stays where it is and is retried on the next scan.
func (s *Scanner) importFile(ctx context.Context, name string) bool {
	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		s.log.Error("read import file", "file", name, "error", err)
		return false
	}

	res, err := s.importer.Import(ctx, name, data)
	if err != nil {
		s.log.Error("import file failed", "file", name, "error", err)
		return false
	}

	if err := s.markProcessed(name); err != nil {
		s.log.Error("move imported file", "file", name, "error", err)
		return false
	}
	s.log.Info("file imported", "file", name, "run_id", res.RunID, "mode", res.Mode)
	return true
}

func (s *Scanner) markProcessed(name string) error {
	dst := filepath.Join(s.dir, ProcessedDir)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return err
	}
	target := filepath.Join(dst, name)
	if _, err := os.Stat(target); err == nil {
		ext := filepath.Ext(name)
		target = filepath.Join(dst, fmt.Sprintf("%s-%s%s",
			strings.TrimSuffix(name, ext), s.now().UTC().Format("20060102T150405"), ext))
	}
	return os.Rename(filepath.Join(s.dir, name), target)
}
