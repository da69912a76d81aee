package repair

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/siteaudit/internal/testutil"
	"github.com/leapstack-labs/siteaudit/pkg/core"
	"github.com/leapstack-labs/siteaudit/pkg/region"
)

const wrongDC = `<html><body><p>Call <a href="tel:202-215-3191">202-215-3191</a></p></body></html>`

func record(t *testing.T, root, rel string) *core.FileRecord {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return &core.FileRecord{Path: path, RelPath: rel, Content: data, SizeBytes: int64(len(data))}
}

func newPhoneRepairer(t *testing.T, backupDir string, dryRun bool, now time.Time) *Repairer {
	t.Helper()
	fixer, err := NewPhoneFixer(core.DefaultExpectations().PhoneCorrections, nil, false)
	require.NoError(t, err)
	r, err := New(Options{
		Strategies: []Strategy{fixer},
		BackupDir:  backupDir,
		DryRun:     dryRun,
		Logger:     testutil.NewTestLogger(t),
		Now:        func() time.Time { return now },
	})
	require.NoError(t, err)
	return r
}

func TestRepair_WritesWithBackup(t *testing.T) {
	root := testutil.WriteSite(t, map[string]string{"washington-dc/index.html": wrongDC})
	backups := filepath.Join(t.TempDir(), "backups")
	r := newPhoneRepairer(t, backups, false, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))

	assert.Regexp(t, `^20240301T120000Z-[0-9a-f]{8}$`, r.RunID())

	o, err := r.Repair(record(t, root, "washington-dc/index.html"), "dc")
	require.NoError(t, err)
	assert.Equal(t, Written, o.State)
	require.Len(t, o.Changes, 1)
	assert.Equal(t, "phone", o.Changes[0].Strategy)

	assert.Contains(t, testutil.ReadFile(t, root, "washington-dc/index.html"), "tel:202-335-4240")
	assert.Equal(t, wrongDC, testutil.ReadFile(t, r.RunDir(), "washington-dc/index.html"))

	runs, err := ListRuns(backups)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, r.RunID(), runs[0].ID)
	assert.Equal(t, 1, runs[0].Files)
}

func TestRepair_SecondRunIsNoop(t *testing.T) {
	root := testutil.WriteSite(t, map[string]string{"dc.html": wrongDC})
	backups := t.TempDir()

	first := newPhoneRepairer(t, backups, false, time.Now())
	_, err := first.Repair(record(t, root, "dc.html"), "dc")
	require.NoError(t, err)
	afterFirst := testutil.ReadFile(t, root, "dc.html")

	second := newPhoneRepairer(t, backups, false, time.Now())
	o, err := second.Repair(record(t, root, "dc.html"), "dc")
	require.NoError(t, err)
	assert.Equal(t, NoViolations, o.State)
	assert.Nil(t, o.Content)
	assert.Equal(t, afterFirst, testutil.ReadFile(t, root, "dc.html"))
	assert.NoDirExists(t, second.RunDir())
}

func TestRepair_NoopNeverWrites(t *testing.T) {
	root := testutil.WriteSite(t, map[string]string{"md.html": `<body>(301) 215-3191</body>`})
	path := filepath.Join(root, "md.html")
	old := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(path, old, old))

	r := newPhoneRepairer(t, t.TempDir(), false, time.Now())
	o, err := r.Repair(record(t, root, "md.html"), "maryland")
	require.NoError(t, err)
	assert.Equal(t, NoViolations, o.State)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(old))
}

func TestRepair_DryRun(t *testing.T) {
	root := testutil.WriteSite(t, map[string]string{"dc.html": wrongDC})
	r := newPhoneRepairer(t, "", true, time.Now())

	o, err := r.Repair(record(t, root, "dc.html"), "dc")
	require.NoError(t, err)
	assert.Equal(t, Rewriting, o.State)
	assert.True(t, o.DryRun)
	assert.Contains(t, string(o.Content), "202-335-4240")
	assert.Equal(t, wrongDC, testutil.ReadFile(t, root, "dc.html"))
}

func TestRepair_BackupFailureBlocksWrite(t *testing.T) {
	root := testutil.WriteSite(t, map[string]string{"dc.html": wrongDC, "blocker": "not a dir"})
	r := newPhoneRepairer(t, filepath.Join(root, "blocker"), false, time.Now())

	o, err := r.Repair(record(t, root, "dc.html"), "dc")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBackupFailed)
	assert.Equal(t, Failed, o.State)
	assert.NotEmpty(t, o.Error)
	assert.Equal(t, wrongDC, testutil.ReadFile(t, root, "dc.html"))
}

func TestRepair_PreservesMode(t *testing.T) {
	root := testutil.WriteSite(t, map[string]string{"dc.html": wrongDC})
	path := filepath.Join(root, "dc.html")
	require.NoError(t, os.Chmod(path, 0o640))

	r := newPhoneRepairer(t, t.TempDir(), false, time.Now())
	_, err := r.Repair(record(t, root, "dc.html"), "dc")
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
}

func TestRepair_NavigationWithoutBodyNoted(t *testing.T) {
	root := testutil.WriteSite(t, map[string]string{"frag.html": `<div class="navbar">202-215-3191</div>`})
	nav := newNavFixer(t)
	phones, err := NewPhoneFixer(core.DefaultExpectations().PhoneCorrections, nil, false)
	require.NoError(t, err)

	r, err := New(Options{Strategies: []Strategy{nav, phones}, BackupDir: t.TempDir()})
	require.NoError(t, err)

	o, err := r.Repair(record(t, root, "frag.html"), region.Unknown)
	require.NoError(t, err)
	assert.Equal(t, Written, o.State)
	require.Len(t, o.Notes, 1)
	assert.Contains(t, o.Notes[0], "navigation")
	assert.Equal(t, `<div class="navbar">202-335-4240</div>`, testutil.ReadFile(t, root, "frag.html"))
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Options{BackupDir: t.TempDir()})
	assert.Error(t, err)

	fixer, err := NewPhoneFixer(nil, nil, false)
	require.NoError(t, err)
	_, err = New(Options{Strategies: []Strategy{fixer}})
	assert.Error(t, err)
}
