package repair

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// ManifestName is the file written at the top of every backup run.
const ManifestName = "manifest.json"

// ErrBackupFailed is returned when the pre-write backup could not be
// stored. The original file is left untouched.
var ErrBackupFailed = errors.New("backup failed")

// ErrNoRuns is returned when a backup directory holds no runs.
var ErrNoRuns = errors.New("no backup runs found")

// Manifest lists every file backed up by one repair run.
type Manifest struct {
	RunID   string          `json:"run_id"`
	Created time.Time       `json:"created"`
	DryRun  bool            `json:"dry_run,omitempty"`
	Files   []ManifestEntry `json:"files"`
}

// ManifestEntry is one backed-up file.
type ManifestEntry struct {
	RelPath  string      `json:"rel_path"`
	Original string      `json:"original"` // absolute path restored by rollback
	Size     int64       `json:"size"`
	Mode     fs.FileMode `json:"mode"`
}

// RunInfo summarises a backup run for listing.
type RunInfo struct {
	ID      string    `json:"id"`
	Created time.Time `json:"created"`
	Files   int       `json:"files"`
}

// ListRuns returns the runs under backupDir, oldest first. Directories
// without a readable manifest are ignored.
func ListRuns(backupDir string) ([]RunInfo, error) {
	entries, err := os.ReadDir(backupDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read backup dir: %w", err)
	}

	var runs []RunInfo
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		m, err := readManifest(filepath.Join(backupDir, e.Name()))
		if err != nil {
			continue
		}
		runs = append(runs, RunInfo{ID: e.Name(), Created: m.Created, Files: len(m.Files)})
	}
	// run ids start with a UTC timestamp
	sort.Slice(runs, func(i, j int) bool { return runs[i].ID < runs[j].ID })
	return runs, nil
}

func readManifest(runDir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(runDir, ManifestName))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}
