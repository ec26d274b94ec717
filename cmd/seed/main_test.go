package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"unicorns/config"
	"unicorns/seed"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const csvData = `Company,Valuation ($B),Date Joined,Country,City,Industry,Select Investors
Bytedance,$180,7/4/2017,China,Beijing,Artificial intelligence,"Sequoia Capital China, SIG Asia Investments"
SpaceX,$100.3,1/12/2012,United States,Hawthorne,Other,"Founders Fund, Draper Fisher Jurvetson"
Bytedance,$1,1/1/2020,China,Beijing,Other,Nobody
`

func testConfig(t *testing.T, csv string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "unicorns.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(csv), 0o600))
	return &config.Config{
		Database: config.DatabaseConfig{Driver: config.DriverSQLite, Path: filepath.Join(dir, "unicorns.db")},
		Seed:     config.SeedConfig{File: csvPath, Backup: true, MaxBackups: 2},
		Log:      config.LogConfig{Level: "info"},
	}
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, csvData)
	zl := zaptest.NewLogger(t).Sugar()

	var out bytes.Buffer
	res, err := run(ctx, cfg, true, &out, zl)
	require.NoError(t, err)
	assert.Equal(t, 3, res.RowsRead)
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, "Created \"unicorns\" table\nSeeded 3 unicorns\n", out.String())

	out.Reset()
	res, err = run(ctx, cfg, true, &out, zl)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Inserted)
	assert.Equal(t, 3, res.Skipped)
	assert.Equal(t, "Table \"unicorns\" already exists\nSeeded 3 unicorns\n", out.String())

	backups, err := filepath.Glob(cfg.Database.Path + ".*.bak")
	require.NoError(t, err)
	assert.Len(t, backups, 1, "second run backs up the database the first run created")
}

func TestRunSchemaOnly(t *testing.T) {
	cfg := testConfig(t, csvData)
	var out bytes.Buffer
	res, err := run(context.Background(), cfg, false, &out, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Equal(t, "Created \"unicorns\" table\n", out.String())
}

func TestRunParseError(t *testing.T) {
	cfg := testConfig(t, "Company,Valuation ($B),Date Joined,Country,City,Industry,Select Investors\nAcme,$1,2020-01-01,UK,London,Fintech,Tiger\n")
	var out bytes.Buffer
	_, err := run(context.Background(), cfg, true, &out, zaptest.NewLogger(t).Sugar())

	var pe *seed.ParseError
	require.ErrorAs(t, err, &pe)
	assert.NotContains(t, out.String(), "Seeded")
}

func TestRootCmd(t *testing.T) {
	cfg := testConfig(t, csvData)
	t.Chdir(t.TempDir())

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{
		"--file", cfg.Seed.File,
		"--db", cfg.Database.Path,
		"--backup=false",
		"--log-level", "error",
	})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "Seeded 3 unicorns")

	cmd = newRootCmd()
	cmd.SetArgs([]string{"--driver", "mysql"})
	assert.Error(t, cmd.ExecuteContext(context.Background()))
}
