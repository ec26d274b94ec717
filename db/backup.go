package db

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	backupFileExt  = ".bak"
	backupStampFmt = "20060102-150405"
	backupFileMode = 0o600
)

// BackupSQLite snapshots the SQLite file at dbPath next to itself and keeps
// only the newest maxBackups snapshots. It returns the snapshot path, or ""
// when there was no database file yet.
func BackupSQLite(dbPath string, maxBackups int, zl *zap.SugaredLogger) (string, error) {
	return backupSQLiteAt(dbPath, maxBackups, time.Now(), zl)
}

func backupSQLiteAt(dbPath string, maxBackups int, now time.Time, zl *zap.SugaredLogger) (string, error) {
	info, err := os.Stat(dbPath)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("backup: %s is not a regular file", dbPath)
	}

	snapshot := dbPath + "." + now.Format(backupStampFmt) + backupFileExt
	if err := snapshotFile(dbPath, snapshot); err != nil {
		return "", fmt.Errorf("backup: %w", err)
	}
	zl.Debugw("database snapshot written", "path", snapshot, "bytes", info.Size())

	removed, err := pruneSnapshots(dbPath, maxBackups)
	for _, p := range removed {
		zl.Infow("old database snapshot removed", "path", p)
	}
	if err != nil {
		zl.Warnw("pruning database snapshots failed", "error", err)
	}
	return snapshot, nil
}

// snapshotFile copies src to dst. A partially written dst is removed.
func snapshotFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, backupFileMode)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(dst)
		}
	}()

	_, err = io.Copy(out, in)
	return err
}

// snapshotsOf lists the snapshots of dbPath, oldest first. The timestamp in
// the name sorts lexically.
func snapshotsOf(dbPath string) ([]string, error) {
	dir := filepath.Dir(dbPath)
	prefix := filepath.Base(dbPath) + "."
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var snaps []string
	for _, e := range entries {
		name := e.Name()
		if e.Type().IsRegular() && strings.HasPrefix(name, prefix) && strings.HasSuffix(name, backupFileExt) {
			snaps = append(snaps, filepath.Join(dir, name))
		}
	}
	slices.Sort(snaps)
	return snaps, nil
}

// pruneSnapshots deletes all but the newest keep snapshots of dbPath and
// returns the paths it removed.
func pruneSnapshots(dbPath string, keep int) ([]string, error) {
	snaps, err := snapshotsOf(dbPath)
	if err != nil || len(snaps) <= keep {
		return nil, err
	}
	var removed []string
	var errs []error
	for _, p := range snaps[:len(snaps)-keep] {
		if err := os.Remove(p); err != nil {
			errs = append(errs, err)
			continue
		}
		removed = append(removed, p)
	}
	return removed, errors.Join(errs...)
}
