package catalog

import (
	"context"
	"errors"
	"sync"
	"time"

	"pcbuilds/internal/database"
	"pcbuilds/internal/i18n"
	"pcbuilds/internal/logger"

	"github.com/google/uuid"
)

// Result is the outcome of one import. Exactly one of Simple and Shopify
// is set, matching Mode.
type Result struct {
	RunID    string        `json:"run_id"`
	File     string        `json:"file"`
	Mode     Format        `json:"mode"`
	Simple   *SimpleStats  `json:"simple,omitempty"`
	Shopify  *ShopifyStats `json:"shopify,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Changed reports whether the import wrote anything.
func (r *Result) Changed() bool {
	switch {
	case r.Simple != nil:
		return r.Simple.PartsAdded+r.Simple.PartsUpdated+r.Simple.CategoriesCreated > 0
	case r.Shopify != nil:
		s := r.Shopify
		return s.BuildsCreated+s.BuildsUpdated+s.PartsCreated+s.LinksCreated+s.CategoriesCreated > 0
	}
	return false
}

// Summary is the single message shown to the user for this import.
func (r *Result) Summary(ctx context.Context) string {
	if r.Shopify != nil {
		s := r.Shopify
		return i18n.T(ctx, "import.summary_shopify",
			s.RowsSeen, s.BuildsCreated, s.BuildsUpdated, s.PartsCreated, s.LinksCreated, s.ProductsSkipped)
	}
	s := r.Simple
	if s == nil {
		s = &SimpleStats{}
	}
	return i18n.T(ctx, "import.summary_simple", s.PartsAdded, s.PartsUpdated, s.CategoriesCreated, s.RowsSkipped)
}

// Service runs imports against the catalog, one at a time.
type Service struct {
	db  *database.DB
	log *logger.Logger
	mu  sync.Mutex
	now func() time.Time
}

func NewService(db *database.DB, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{db: db, log: log, now: time.Now}
}

// Import parses data and applies it in a single transaction. Unreadable
// or empty files give a zero-effect simple Result. A storage failure
// rolls back the whole file and is returned as *ImportError.
func (s *Service) Import(ctx context.Context, filename string, data []byte) (*Result, error) {
	start := s.now()
	res := &Result{RunID: uuid.NewString(), File: filename, Mode: FormatSimple}
	log := s.log.With("run_id", res.RunID, "file", filename)

	table, err := ReadTable(filename, data)
	if err != nil {
		log.Warn("import file unreadable", "error", err)
		res.Simple = &SimpleStats{}
		return res, nil
	}
	if len(table.Header) == 0 {
		log.Info("import file empty")
		res.Simple = &SimpleStats{}
		return res, nil
	}
	res.Mode = DetectFormat(table.Header)
	log.Info("import started", "mode", res.Mode, "rows", len(table.Rows))

	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.db.InTx(ctx, func(q database.Querier) error {
		eng := NewEngine(q, log)
		switch res.Mode {
		case FormatShopify:
			stats, err := importShopify(ctx, eng, table, log)
			if err != nil {
				return err
			}
			res.Shopify = stats
		default:
			stats, err := importSimple(ctx, eng, table, log)
			if err != nil {
				return err
			}
			res.Simple = stats
		}
		return nil
	})
	if err != nil {
		log.Error("import failed", "error", err)
		return nil, &ImportError{RunID: res.RunID, File: filename, Err: err}
	}

	res.Duration = s.now().Sub(start)
	if res.Shopify != nil {
		st := res.Shopify
		log.Info("import finished", "mode", res.Mode, "duration", res.Duration,
			"rows_seen", st.RowsSeen, "builds_created", st.BuildsCreated, "builds_updated", st.BuildsUpdated,
			"parts_created", st.PartsCreated, "links_created", st.LinksCreated, "products_skipped", st.ProductsSkipped)
	} else {
		st := res.Simple
		log.Info("import finished", "mode", res.Mode, "duration", res.Duration,
			"parts_added", st.PartsAdded, "parts_updated", st.PartsUpdated, "rows_skipped", st.RowsSkipped)
	}
	return res, nil
}

// IsImportError reports whether err came from a failed import.
func IsImportError(err error) bool {
	var ie *ImportError
	return errors.As(err, &ie)
}
