package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"unicorns/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// schemaModels lists every table the store owns, in creation order.
var schemaModels = []any{
	&model.Unicorn{},
	&model.ImportRun{},
}

type SQLStore struct {
	db *gorm.DB
}

var _ Store = (*SQLStore)(nil)

func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Ping verifies the underlying database connection is healthy.
func (s *SQLStore) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sql store is not initialized")
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// EnsureSchema creates each table that does not exist yet. Existing tables
// are left untouched. The returned bool reports whether the unicorns table
// itself was created; bookkeeping tables do not count.
func (s *SQLStore) EnsureSchema(ctx context.Context) (bool, error) {
	migrator := s.db.WithContext(ctx).Migrator()
	created := false
	for _, m := range schemaModels {
		if migrator.HasTable(m) {
			continue
		}
		if err := migrator.CreateTable(m); err != nil {
			return created, fmt.Errorf("creating table for %T: %w", m, err)
		}
		if _, ok := m.(*model.Unicorn); ok {
			created = true
		}
	}
	return created, nil
}

// InsertUnicorn writes u unless a row with the same company already exists.
// It reports whether a row was written; a conflict is not an error.
func (s *SQLStore) InsertUnicorn(ctx context.Context, u *model.Unicorn) (bool, error) {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "company"}},
			DoNothing: true,
		}).
		Create(u)
	if res.Error != nil {
		return false, fmt.Errorf("inserting unicorn %q: %w", u.Company, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *SQLStore) CountUnicorns(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Unicorn{}).Count(&count).Error
	return count, err
}

// ListUnicorns returns unicorns matching filter, most valuable first.
func (s *SQLStore) ListUnicorns(ctx context.Context, filter UnicornFilter) ([]model.Unicorn, error) {
	q := s.db.WithContext(ctx).Model(&model.Unicorn{})
	if filter.Country != "" {
		q = q.Where("country = ?", filter.Country)
	}
	if filter.Industry != "" {
		q = q.Where("industry = ?", filter.Industry)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	var unicorns []model.Unicorn
	if err := q.Order("valuation DESC").Order("company").Find(&unicorns).Error; err != nil {
		return nil, err
	}
	return unicorns, nil
}

func (s *SQLStore) GetUnicornByCompany(ctx context.Context, company string) (*model.Unicorn, error) {
	var u model.Unicorn
	err := s.db.WithContext(ctx).Where("company = ?", company).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnicornNotFound
		}
		return nil, err
	}
	return &u, nil
}

// LogImportRun stores run. Failures are logged and otherwise ignored.
func (s *SQLStore) LogImportRun(logger *zap.SugaredLogger, run model.ImportRun) {
	if run.Status == "" {
		run.Status = model.ImportSucceeded
	}

	err := s.db.WithContext(context.Background()).Create(&run).Error
	if err != nil {
		logger.Errorf("failed to write %v import run: %v", run.RunID, err)
	}
}

// ListImportRuns returns the most recent runs first.
func (s *SQLStore) ListImportRuns(ctx context.Context, limit int) ([]model.ImportRun, error) {
	q := s.db.WithContext(ctx).Order("finished_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var runs []model.ImportRun
	if err := q.Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}
