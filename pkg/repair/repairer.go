// Package repair rewrites site pages to fix navigation and phone
// inconsistencies, backing up every file before it is replaced.
package repair

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leapstack-labs/siteaudit/pkg/core"
	"github.com/leapstack-labs/siteaudit/pkg/region"
)

// Options configures a Repairer.
type Options struct {
	Strategies []Strategy
	BackupDir  string // required unless DryRun
	DryRun     bool
	Logger     *slog.Logger
	Now        func() time.Time
}

// Repairer applies strategies to files and writes the results. Repair is
// safe for concurrent use on distinct files; callers serialise repairs of
// the same physical file.
type Repairer struct {
	strategies []Strategy
	dryRun     bool
	logger     *slog.Logger
	runID      string
	runDir     string

	mu       sync.Mutex
	manifest Manifest
	backedUp map[string]bool
}

// New creates a Repairer with a fresh run id.
func New(opts Options) (*Repairer, error) {
	if len(opts.Strategies) == 0 {
		return nil, errors.New("no repair strategies selected")
	}
	if opts.BackupDir == "" && !opts.DryRun {
		return nil, errors.New("backup directory is required")
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	created := now().UTC()
	runID := created.Format("20060102T150405Z") + "-" + uuid.NewString()[:8]
	r := &Repairer{
		strategies: opts.Strategies,
		dryRun:     opts.DryRun,
		logger:     logger,
		runID:      runID,
		manifest:   Manifest{RunID: runID, Created: created, DryRun: opts.DryRun},
		backedUp:   make(map[string]bool),
	}
	if opts.BackupDir != "" {
		r.runDir = filepath.Join(opts.BackupDir, runID)
	}
	return r, nil
}

// RunID returns the backup run id.
func (r *Repairer) RunID() string { return r.runID }

// RunDir returns the directory backups are written to.
func (r *Repairer) RunDir() string { return r.runDir }

// DryRun reports whether writes are suppressed.
func (r *Repairer) DryRun() bool { return r.dryRun }

// Manifest returns a copy of the run manifest so far.
func (r *Repairer) Manifest() Manifest {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.manifest
	m.Files = append([]ManifestEntry(nil), r.manifest.Files...)
	return m
}

// Repair runs every strategy over the file in order. A file no strategy
// changes is never written. Write failures are reported both in the
// outcome (State Failed) and as the returned error.
func (r *Repairer) Repair(file *core.FileRecord, reg region.Region) (Outcome, error) {
	o := Outcome{File: file.RelPath, State: Scanned, DryRun: r.dryRun}

	content := file.Content
	for _, s := range r.strategies {
		next, details, err := s.Apply(content, reg)
		if errors.Is(err, ErrNoBody) {
			o.Notes = append(o.Notes, fmt.Sprintf("%s: %v", s.Name(), err))
			continue
		}
		if err != nil {
			return o.fail(fmt.Errorf("%s: %w", s.Name(), err))
		}
		if len(details) == 0 {
			continue
		}
		o.Changes = append(o.Changes, Change{Strategy: s.Name(), Details: details})
		content = next
	}

	if !o.Changed() {
		o.State = NoViolations
		return o, nil
	}

	o.State = Rewriting
	o.Content = content
	if r.dryRun {
		return o, nil
	}

	// write through symlinks so links stay links
	target := file.Path
	if real, err := filepath.EvalSymlinks(target); err == nil {
		target = real
	}
	info, err := os.Stat(target)
	if err != nil {
		return o.fail(fmt.Errorf("stat %s: %w", file.RelPath, err))
	}

	backup, err := r.backup(file, target, info.Mode().Perm())
	if err != nil {
		return o.fail(fmt.Errorf("%w: %s: %w", ErrBackupFailed, file.RelPath, err))
	}
	o.Backup = backup

	if err := WriteFileAtomic(target, content, info.Mode().Perm()); err != nil {
		return o.fail(fmt.Errorf("write %s: %w", file.RelPath, err))
	}

	o.State = Written
	r.logger.Info("repaired file",
		"file", file.RelPath,
		"strategies", len(o.Changes),
		"backup", backup)
	return o, nil
}

// backup stores the unmodified bytes and records them in the manifest.
// A file already backed up in this run keeps its first backup.
func (r *Repairer) backup(file *core.FileRecord, target string, mode os.FileMode) (string, error) {
	original, err := filepath.Abs(target)
	if err != nil {
		return "", err
	}
	dst := backupPath(r.runDir, file.RelPath)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.backedUp[original] {
		return dst, nil
	}
	if err := WriteFileAtomic(dst, file.Content, mode); err != nil {
		return "", err
	}

	r.manifest.Files = append(r.manifest.Files, ManifestEntry{
		RelPath:  file.RelPath,
		Original: original,
		Size:     file.SizeBytes,
		Mode:     mode,
	})
	if err := WriteJSONAtomic(filepath.Join(r.runDir, ManifestName), r.manifest); err != nil {
		r.manifest.Files = r.manifest.Files[:len(r.manifest.Files)-1]
		return "", err
	}
	r.backedUp[original] = true
	return dst, nil
}
