package repair

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Rollback restores every file recorded in a run's manifest. An empty
// runID selects the most recent run.
func Rollback(backupDir, runID string, logger *slog.Logger) (*Manifest, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if runID == "" {
		runs, err := ListRuns(backupDir)
		if err != nil {
			return nil, err
		}
		if len(runs) == 0 {
			return nil, fmt.Errorf("%w in %s", ErrNoRuns, backupDir)
		}
		runID = runs[len(runs)-1].ID
	}

	runDir := filepath.Join(backupDir, runID)
	m, err := readManifest(runDir)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	for _, entry := range m.Files {
		data, err := os.ReadFile(backupPath(runDir, entry.RelPath))
		if err != nil {
			return m, fmt.Errorf("read backup of %s: %w", entry.RelPath, err)
		}
		mode := entry.Mode
		if mode == 0 {
			mode = 0o644
		}
		if err := WriteFileAtomic(entry.Original, data, mode); err != nil {
			return m, fmt.Errorf("restore %s: %w", entry.RelPath, err)
		}
		logger.Info("restored file", "file", entry.RelPath, "run", runID)
	}
	return m, nil
}
