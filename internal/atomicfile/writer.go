package atomicfile

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/TilmanGriesel/graphite-theme-patcher/internal/logger"
	"github.com/TilmanGriesel/graphite-theme-patcher/internal/security"
	"github.com/TilmanGriesel/graphite-theme-patcher/internal/structure"
	"github.com/TilmanGriesel/graphite-theme-patcher/pkg/diff"
	patcherrors "github.com/TilmanGriesel/graphite-theme-patcher/pkg/errors"
)

const backupSuffix = ".backup"

// Test seam so batch failure paths can be exercised deterministically.
var writeFile = writeFileAtomic

// FileEdit pairs a loaded theme file with the full line set that should
// replace its content.
type FileEdit struct {
	File     *structure.ThemeFile
	NewLines []string
}

// BackupRecord tracks one pre-mutation snapshot.
type BackupRecord struct {
	Original string
	Backup   string
	Checksum string
}

// Report summarizes a batch application. After a rollback FilesChanged is
// zero and Restored lists every file put back from its backup.
type Report struct {
	FilesChanged   int
	FilesUnchanged int
	Restored       []string
	Diffs          map[string]string
}

// ApplyBatch commits a set of file edits atomically as a whole: every file is
// locked and snapshotted before the first write, each write goes through a
// temp file and rename, and any failure restores every file in the batch from
// its backup. Partial application is not a representable outcome.
func ApplyBatch(ctx context.Context, log *logger.Logger, edits []FileEdit) (*Report, error) {
	if err := security.CheckBatchSize(len(edits)); err != nil {
		return nil, err
	}

	report := &Report{Diffs: make(map[string]string)}
	if len(edits) == 0 {
		return report, nil
	}

	paths := make([]string, len(edits))
	for i, e := range edits {
		paths[i] = e.File.Path
	}

	locks, err := acquireLocks(ctx, paths)
	if err != nil {
		return nil, err
	}
	defer releaseLocks(locks)

	records, err := createBackups(log, paths)
	if err != nil {
		return nil, err
	}

	var firstErr error
	for _, e := range edits {
		oldContent := structure.JoinLines(e.File.Lines, e.File.TrailingNewline)
		newContent := structure.JoinLines(e.NewLines, true)
		if newContent == oldContent {
			report.FilesUnchanged++
			log.WithFields(map[string]any{"file": e.File.Path}).Debug("content unchanged, skipping write")
			continue
		}

		encoded, encErr := encodeContent(newContent, e.File.Encoding)
		if encErr == nil {
			encErr = writeFile(e.File.Path, encoded, e.File.Permissions)
		}
		if encErr != nil {
			firstErr = patcherrors.NewWriteError(e.File.Path, encErr)
			break
		}

		report.FilesChanged++
		report.Diffs[e.File.Path] = diff.Unified(oldContent, newContent, e.File.Path)
		log.WithFields(map[string]any{"file": e.File.Path}).Info("file updated")
	}

	if firstErr != nil {
		report.Restored = rollback(log, records)
		report.FilesChanged = 0
		report.Diffs = map[string]string{}
		removeBackups(log, records)
		log.Error(firstErr, "batch failed, all files restored from backup")
		return report, firstErr
	}

	removeBackups(log, records)
	return report, nil
}

func createBackups(log *logger.Logger, paths []string) ([]BackupRecord, error) {
	var records []BackupRecord
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err == nil {
			backupPath := path + backupSuffix
			err = os.WriteFile(backupPath, data, 0o600)
			if err == nil {
				sum := sha256.Sum256(data)
				records = append(records, BackupRecord{
					Original: path,
					Backup:   backupPath,
					Checksum: hex.EncodeToString(sum[:]),
				})
				log.WithFields(map[string]any{"file": path, "backup": backupPath}).Debug("backup created")
				continue
			}
		}
		removeBackups(log, records)
		return nil, patcherrors.NewWriteError(path, fmt.Errorf("failed to create backup: %w", err))
	}
	return records, nil
}

// rollback restores every file in the batch verbatim from its backup and
// returns the list of restored paths.
func rollback(log *logger.Logger, records []BackupRecord) []string {
	var restored []string
	for _, rec := range records {
		data, err := os.ReadFile(rec.Backup)
		if err != nil {
			log.Error(err, "cannot read backup for restore: "+rec.Backup)
			continue
		}
		sum := sha256.Sum256(data)
		if hex.EncodeToString(sum[:]) != rec.Checksum {
			log.Error(nil, "backup checksum mismatch, refusing to restore: "+rec.Backup)
			continue
		}
		if err := os.WriteFile(rec.Original, data, 0o644); err != nil {
			log.Error(err, "failed to restore "+rec.Original)
			continue
		}
		restored = append(restored, rec.Original)
		log.WithFields(map[string]any{"file": rec.Original}).Info("restored from backup")
	}
	return restored
}

func removeBackups(log *logger.Logger, records []BackupRecord) {
	for _, rec := range records {
		if err := os.Remove(rec.Backup); err != nil {
			log.Warn("could not remove backup: " + rec.Backup)
		}
	}
}
