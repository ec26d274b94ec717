package db

import (
	"context"
	"errors"

	"unicorns/model"

	"go.uber.org/zap"
)

var ErrUnicornNotFound = errors.New("unicorn not found")

// UnicornFilter narrows ListUnicorns. Zero values match everything.
type UnicornFilter struct {
	Country  string
	Industry string
	Limit    int
}

type Store interface {
	Ping(ctx context.Context) error
	EnsureSchema(ctx context.Context) (bool, error)
	InsertUnicorn(ctx context.Context, u *model.Unicorn) (bool, error)
	CountUnicorns(ctx context.Context) (int64, error)
	ListUnicorns(ctx context.Context, filter UnicornFilter) ([]model.Unicorn, error)
	GetUnicornByCompany(ctx context.Context, company string) (*model.Unicorn, error)
	LogImportRun(logger *zap.SugaredLogger, run model.ImportRun)
	ListImportRuns(ctx context.Context, limit int) ([]model.ImportRun, error)
}
