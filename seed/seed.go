// Package seed loads unicorn companies from a tabular source into the store.
//
// The pipeline is strictly sequential: a record is read, transformed and
// inserted before the next one is read. The first malformed value aborts the
// run; rows inserted before it stay in place.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"unicorns/db"
	"unicorns/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Result summarises one import.
type Result struct {
	RunID    uuid.UUID
	Source   string
	RowsRead int // includes skipped duplicates
	Inserted int
	Skipped  int
	Records  []RawRecord
}

type Seeder struct {
	store  db.Store
	logger *zap.SugaredLogger
	now    func() time.Time
}

func NewSeeder(store db.Store, logger *zap.SugaredLogger) *Seeder {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Seeder{store: store, logger: logger, now: time.Now}
}

// EnsureSchema creates the unicorns table if it does not exist yet.
func (s *Seeder) EnsureSchema(ctx context.Context) (bool, error) {
	created, err := s.store.EnsureSchema(ctx)
	if err != nil {
		return false, &StoreError{Op: "create schema", Err: err}
	}
	return created, nil
}

// SeedFile imports the CSV file at path. The file is closed before SeedFile
// returns, whatever the outcome.
func (s *Seeder) SeedFile(ctx context.Context, path string) (*Result, error) {
	src, err := OpenCSV(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := src.Close(); err != nil {
			s.logger.Warnf("failed to close %s: %v", path, err)
		}
	}()
	return s.Seed(ctx, src)
}

// Seed imports every record of src. Duplicate companies are counted in
// Skipped and otherwise ignored.
func (s *Seeder) Seed(ctx context.Context, src Source) (*Result, error) {
	res := &Result{RunID: uuid.New(), Source: src.String()}
	log := s.logger.With("run_id", res.RunID.String(), "source", res.Source)
	started := s.now()
	log.Infow("seed: import started")

	err := s.consume(ctx, src, res, log)

	run := model.ImportRun{
		RunID:      res.RunID.String(),
		Source:     res.Source,
		RowsRead:   res.RowsRead,
		Inserted:   res.Inserted,
		Skipped:    res.Skipped,
		Status:     model.ImportSucceeded,
		StartedAt:  started,
		FinishedAt: s.now(),
	}
	if err != nil {
		run.Status = model.ImportFailed
		run.Message = err.Error()
	}
	s.store.LogImportRun(log, run)

	if err != nil {
		log.Errorw("seed: import aborted", "rows", res.RowsRead, "error", err)
		return nil, err
	}
	log.Infow("seed: import finished",
		"rows", res.RowsRead,
		"inserted", res.Inserted,
		"skipped", res.Skipped,
		"took", run.FinishedAt.Sub(started),
	)
	return res, nil
}

func (s *Seeder) consume(ctx context.Context, src Source, res *Result, log *zap.SugaredLogger) error {
	for {
		raw, err := src.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		res.RowsRead++
		res.Records = append(res.Records, raw)

		u, err := Transform(raw)
		if err != nil {
			if ls, ok := src.(interface{ Line() int }); ok {
				return fmt.Errorf("row %d (line %d): %w", res.RowsRead, ls.Line(), err)
			}
			return fmt.Errorf("row %d: %w", res.RowsRead, err)
		}

		inserted, err := s.store.InsertUnicorn(ctx, u)
		if err != nil {
			return &StoreError{Op: "insert", Err: err}
		}
		if inserted {
			res.Inserted++
			log.Debugw("seed: inserted", "company", u.Company)
		} else {
			res.Skipped++
			log.Debugw("seed: duplicate skipped", "company", u.Company)
		}
	}
}
