package commands

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateHealthScore(t *testing.T) {
	tests := []struct {
		name   string
		checks []HealthCheck
		want   int
	}{
		{name: "no checks returns 100", checks: nil, want: 100},
		{
			name:   "all passing returns 100",
			checks: []HealthCheck{{ID: "root", Status: statusPass}, {ID: "config", Status: statusPass}},
			want:   100,
		},
		{
			name:   "warnings reduce score",
			checks: []HealthCheck{{ID: "config", Status: statusWarn}},
			want:   90,
		},
		{
			name:   "errors reduce score more",
			checks: []HealthCheck{{ID: "root", Status: statusError}, {ID: "config", Status: statusWarn}},
			want:   65,
		},
		{
			name: "clamped at zero",
			checks: []HealthCheck{
				{Status: statusError}, {Status: statusError}, {Status: statusError},
				{Status: statusError}, {Status: statusError},
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, calculateHealthScore(tt.checks))
		})
	}
}

func TestGetRecommendation(t *testing.T) {
	for _, id := range []string{"root", "config", "expectations", "nav-template", "backup-dir", "forward-token"} {
		assert.NotEmpty(t, getRecommendation(id), id)
	}
	assert.Empty(t, getRecommendation("UNKNOWN"))
}

func TestCheckWritable(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, checkWritable(dir))
	assert.NoError(t, checkWritable(filepath.Join(dir, "not", "yet")))

	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	assert.Error(t, checkWritable(file))
}

func TestDoctor_HealthySite(t *testing.T) {
	root := setupSite(t, map[string]string{
		"washington-dc/index.html": page("202-335-4240"),
	})
	jsonOutput(t, root)

	out, err := execute(t, NewDoctorCommand())
	require.NoError(t, err, out)

	var got DoctorOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 100, got.Score, out)
	assert.Zero(t, got.IssueCount)
	assert.Empty(t, got.Recommendations)
	assert.Equal(t, filepath.Join(root, "siteaudit.yaml"), got.ConfigFile)
}

func TestDoctor_ReportsProblems(t *testing.T) {
	setupSite(t, nil)
	nav := filepath.Join(t.TempDir(), "nav.html")
	require.NoError(t, os.WriteFile(nav, []byte(`<div>no nav here</div>`), 0o644))
	t.Setenv("SITEAUDIT_NAV_TEMPLATE", nav)
	t.Setenv("SITEAUDIT_SERVE__FORWARD_URL", "https://crm.example.com")
	t.Setenv("SITEAUDIT_FORWARD_TOKEN", "")

	out, err := execute(t, NewDoctorCommand(), "--format", "json")
	require.NoError(t, err, out)

	var got DoctorOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))

	status := make(map[string]string)
	for _, c := range got.HealthChecks {
		status[c.ID] = c.Status
	}
	assert.Equal(t, map[string]string{
		"root":          statusWarn, // no pages
		"config":        statusWarn,
		"expectations":  statusPass,
		"nav-template":  statusError,
		"backup-dir":    statusPass,
		"forward-token": statusWarn,
	}, status)
	assert.Equal(t, 45, got.Score)
	assert.Len(t, got.Recommendations, 4)
}
