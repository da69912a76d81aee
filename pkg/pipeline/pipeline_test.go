package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/siteaudit/internal/metrics"
	"github.com/leapstack-labs/siteaudit/internal/testutil"
	"github.com/leapstack-labs/siteaudit/pkg/core"
	"github.com/leapstack-labs/siteaudit/pkg/lint"
	_ "github.com/leapstack-labs/siteaudit/pkg/lint/rules"
	"github.com/leapstack-labs/siteaudit/pkg/repair"
	"github.com/leapstack-labs/siteaudit/pkg/walker"
)

func phonePage(phone string) string {
	return `<html><head><title>t</title></head><body>
<nav class="main-navigation"></nav>
<section class="authority-reversal"></section>
<a href="tel:` + phone + `">Call</a>
</body></html>`
}

func phoneOnly() *lint.Config {
	return lint.NewConfig().Category(core.CategoryPhone)
}

func TestRun_MarylandPhoneIsClean(t *testing.T) {
	root := testutil.WriteSite(t, map[string]string{
		"western-maryland/index.html": phonePage("301-215-3191"),
	})

	res, err := Run(context.Background(), Options{Root: root, Lint: phoneOnly()})
	require.NoError(t, err)
	require.Len(t, res.Files, 1)
	assert.Equal(t, "maryland", res.Files[0].Region)
	assert.Empty(t, res.Violations())
}

func TestRun_DCWrongPhone(t *testing.T) {
	root := testutil.WriteSite(t, map[string]string{
		"washington-dc/index.html": phonePage("202-215-3191"),
	})

	res, err := Run(context.Background(), Options{Root: root, Lint: phoneOnly()})
	require.NoError(t, err)

	vs := res.Violations()
	require.Len(t, vs, 1)
	assert.Equal(t, "washington-dc/index.html", vs[0].File)
	assert.Equal(t, "dc", vs[0].Region)
	assert.Equal(t, "2022153191", vs[0].Found)
	assert.Equal(t, "2023354240", vs[0].Expected)
}

func TestRun_UnknownRegionNeverFlagsPhones(t *testing.T) {
	root := testutil.WriteSite(t, map[string]string{
		"about/index.html": phonePage("888-826-9429"),
	})

	res, err := Run(context.Background(), Options{Root: root, Lint: phoneOnly()})
	require.NoError(t, err)
	assert.Equal(t, "unknown", res.Files[0].Region)
	assert.Empty(t, res.Violations())
}

func TestRun_ExcludedDirectory(t *testing.T) {
	root := testutil.WriteSite(t, map[string]string{
		"backups/washington-dc/index.html": phonePage("202-215-3191"),
	})

	res, err := Run(context.Background(), Options{
		Root:   root,
		Lint:   phoneOnly(),
		Walker: walker.Options{Exclude: walker.DefaultExclude},
	})
	require.NoError(t, err)
	assert.Empty(t, res.Files)
	assert.Empty(t, res.Violations())
}

func TestRun_RootNotFound(t *testing.T) {
	_, err := Run(context.Background(), Options{Root: filepath.Join(t.TempDir(), "nope")})
	assert.ErrorIs(t, err, walker.ErrRootNotFound)
}

func TestRun_SiteRulesAndBuildScore(t *testing.T) {
	root := testutil.WriteSite(t, map[string]string{
		"index.html":   phonePage("301-215-3191"),
		"package.json": "{}",
		"public/":      "",
	})

	res, err := Run(context.Background(), Options{Root: root})
	require.NoError(t, err)
	assert.Equal(t, 50, res.BuildScore.Percent)
	require.Len(t, res.SiteViolations, 2)
	assert.Equal(t, "BS01", res.SiteViolations[0].RuleID)
}

func TestRun_ParallelMatchesSequential(t *testing.T) {
	files := map[string]string{}
	for _, dir := range []string{"washington-dc", "fairfax", "western-maryland", "blog"} {
		for _, name := range []string{"a.html", "b.html", "c.html"} {
			files[dir+"/"+name] = phonePage("202-215-3191")
		}
	}
	root := testutil.WriteSite(t, files)

	seq, err := Run(context.Background(), Options{Root: root})
	require.NoError(t, err)
	par, err := Run(context.Background(), Options{Root: root, Workers: 4})
	require.NoError(t, err)

	if diff := cmp.Diff(seq.Files, par.Files, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("parallel results differ (-seq +par):\n%s", diff)
	}
	assert.Len(t, par.Files, 12)
}

func TestRun_ReadFailureContinues(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	root := testutil.WriteSite(t, map[string]string{
		"a.html": phonePage("301-215-3191"),
		"b.html": phonePage("301-215-3191"),
	})
	require.NoError(t, os.Chmod(filepath.Join(root, "a.html"), 0o000))

	m := metrics.New()
	res, err := Run(context.Background(), Options{Root: root, Observer: m, Logger: testutil.NewTestLogger(t)})
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "read", res.Errors[0].Op)
	assert.Len(t, res.Files, 1)
}

func TestRun_Cancelled(t *testing.T) {
	root := testutil.WriteSite(t, map[string]string{"a.html": "", "b.html": ""})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, workers := range []int{1, 3} {
		res, err := Run(ctx, Options{Root: root, Workers: workers})
		assert.ErrorIs(t, err, context.Canceled)
		require.NotNil(t, res)
		assert.Empty(t, res.Files)
	}
}

func TestRun_WithRepairer(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require privileges on windows")
	}
	root := testutil.WriteSite(t, map[string]string{
		"washington-dc/index.html": phonePage("202-215-3191"),
		"western-maryland/x.html":  phonePage("301-215-3191"),
	})
	require.NoError(t, os.Symlink(
		filepath.Join(root, "washington-dc", "index.html"),
		filepath.Join(root, "washington-dc", "alias.html")))

	fixer, err := repair.NewPhoneFixer(core.DefaultExpectations().PhoneCorrections, nil, false)
	require.NoError(t, err)
	rep, err := repair.New(repair.Options{
		Strategies: []repair.Strategy{fixer},
		BackupDir:  filepath.Join(t.TempDir(), "backups"),
		Now:        func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)

	m := metrics.New()
	res, err := Run(context.Background(), Options{Root: root, Repairer: rep, Observer: m})
	require.NoError(t, err)
	require.Empty(t, res.Errors)

	states := map[string]repair.State{}
	for _, f := range res.Files {
		require.NotNil(t, f.Repair)
		states[f.File] = f.Repair.State
	}
	assert.Equal(t, map[string]repair.State{
		"washington-dc/index.html": repair.Written,
		"western-maryland/x.html":  repair.NoViolations,
	}, states)
	assert.Contains(t, testutil.ReadFile(t, root, "washington-dc/index.html"), "tel:202-335-4240")
	assert.Contains(t, testutil.ReadFile(t, root, "washington-dc/alias.html"), "tel:202-335-4240")
	assert.Len(t, rep.Manifest().Files, 1)

	info, err := os.Lstat(filepath.Join(root, "washington-dc", "alias.html"))
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&os.ModeSymlink, "alias must stay a symlink")
}
