package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/siteaudit/pkg/core"
	"github.com/leapstack-labs/siteaudit/pkg/extract"
	"github.com/leapstack-labs/siteaudit/pkg/lint"
	"github.com/leapstack-labs/siteaudit/pkg/region"
)

func newContext(t *testing.T, path, doc string) *lint.Context {
	t.Helper()
	exp := core.DefaultExpectations()
	resolver, err := region.NewResolver(exp)
	require.NoError(t, err)

	return &lint.Context{
		File:         &core.FileRecord{Path: path, RelPath: path, Content: []byte(doc)},
		Facts:        extract.Extract([]byte(doc), extract.OptionsFrom(exp)),
		Region:       resolver.Resolve(path),
		Resolver:     resolver,
		Expectations: &exp,
	}
}

func TestRegistered(t *testing.T) {
	for _, id := range []string{"PH01", "MK01", "NV01", "NV02"} {
		rule, ok := lint.GetByID(id)
		require.True(t, ok, id)
		assert.NotNil(t, rule.Check, id)
		assert.NotEmpty(t, rule.Description, id)
	}
}

func TestPH01_RegionalPhone(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		doc      string
		wantDigs []string
	}{
		{
			name: "maryland page with maryland phone",
			path: "western-maryland/index.html",
			doc:  `<a href="tel:301-215-3191">Call</a>`,
		},
		{
			name:     "dc page with old dc phone",
			path:     "washington-dc/index.html",
			doc:      `<a href="tel:202-215-3191">Call</a>`,
			wantDigs: []string{"2022153191"},
		},
		{
			name:     "virginia page with two wrong numbers",
			path:     "fairfax/contact.html",
			doc:      `(301) 215-3191 and 202.335.4240 and 703-229-1321`,
			wantDigs: []string{"3012153191", "2023354240"},
		},
		{
			name: "unknown region never flagged",
			path: "about/index.html",
			doc:  `(888) 826-9429 202-215-3191`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checkRegionalPhone(newContext(t, tt.path, tt.doc))
			var digs []string
			for _, v := range got {
				digs = append(digs, v.Found)
				assert.Equal(t, "PH01", v.RuleID)
				assert.Equal(t, core.SeverityError, v.Severity)
				assert.Equal(t, core.CategoryPhone, v.Category)
			}
			assert.Equal(t, tt.wantDigs, digs)
		})
	}
}

func TestPH01_ExpectedIsCanonical(t *testing.T) {
	got := checkRegionalPhone(newContext(t, "washington-dc/index.html", `tel:202-215-3191`))
	require.Len(t, got, 1)
	assert.Equal(t, "2023354240", got[0].Expected)
	assert.Equal(t, "dc", got[0].Region)
	assert.Equal(t, "washington-dc/index.html", got[0].File)
}

func TestMK01_AuthorityReversal(t *testing.T) {
	assert.Len(t, checkAuthorityReversal(newContext(t, "a.html", `<p>plain</p>`)), 1)
	assert.Empty(t, checkAuthorityReversal(newContext(t, "a.html", `<section class="authority-reversal"></section>`)))
	assert.Empty(t, checkAuthorityReversal(newContext(t, "a.html", `Ask any Funeral Director`)))
}

func TestNV01_NV02_Navigation(t *testing.T) {
	tests := []struct {
		name        string
		doc         string
		wantMissing int
		wantDup     int
	}{
		{"canonical only", `<body><nav class="main-navigation"></nav></body>`, 0, 0},
		{"none", `<body><p>x</p></body>`, 1, 0},
		{"legacy only", `<body><div class="navbar"></div></body>`, 1, 0},
		{"stacked", `<body><nav class="main-navigation"></nav><ul class="nav-menu"></ul></body>`, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := newContext(t, "page.html", tt.doc)
			assert.Len(t, checkNavigationMissing(ctx), tt.wantMissing)
			assert.Len(t, checkNavigationDuplicate(ctx), tt.wantDup)
		})
	}
}
