package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/leapstack-labs/siteaudit/internal/metrics"
	"github.com/leapstack-labs/siteaudit/internal/testutil"
	"github.com/leapstack-labs/siteaudit/pkg/core"
	"github.com/leapstack-labs/siteaudit/pkg/region"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type mockForwarder struct {
	mock.Mock
}

func (m *mockForwarder) Forward(ctx context.Context, c Contact) (string, error) {
	args := m.Called(ctx, c)
	return args.String(0), args.Error(1)
}

func newTestRouter(t *testing.T, fwd Forwarder, m *metrics.Metrics) http.Handler {
	t.Helper()
	res, err := region.NewResolver(core.DefaultExpectations())
	require.NoError(t, err)
	h, err := NewRouter(Options{
		Resolver:  res,
		Forwarder: fwd,
		Metrics:   m,
		Logger:    testutil.NewTestLogger(t),
		Now:       func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return h
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/leads", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rec, req)
	return rec
}

func TestLeads_ResolvesRegionAndForwards(t *testing.T) {
	fwd := new(mockForwarder)
	fwd.On("Forward", mock.Anything, mock.MatchedBy(func(c Contact) bool {
		return c.Email == "pat@example.com" &&
			c.City == "Washington DC" &&
			c.CustomFields["regional_phone"] == "(202) 335-4240" &&
			c.CustomFields["lead_quality"] == "hot" &&
			c.CustomFields["request_timestamp"] == "2025-03-01T12:00:00Z"
	})).Return("contact-123", nil).Once()

	m := metrics.New()
	h := newTestRouter(t, fwd, m)

	rec := post(t, h, `{"email":"pat@example.com","zip":"20005","checklist_type":"emergency"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp LeadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, LeadResponse{
		Success:       true,
		Region:        "Washington DC",
		RegionalPhone: "(202) 335-4240",
		ChecklistType: "emergency",
		ContactID:     "contact-123",
	}, resp)
	assert.InDelta(t, 1, promtest.ToFloat64(m.Leads.WithLabelValues("dc")), 0)
	fwd.AssertExpectations(t)
}

func TestLeads_RegionFromZip(t *testing.T) {
	tests := []struct {
		zip   string
		want  string
		phone string
	}{
		{"22030", "Virginia", "(703) 229-1321"},
		{"20814-1234", "Maryland", "(301) 215-3191"},
		{"", "Washington DC", "(202) 335-4240"},
		{"90210", "Maryland", "(301) 215-3191"},
		{"abcde", "Maryland", "(301) 215-3191"},
	}
	for _, tt := range tests {
		t.Run(tt.zip, func(t *testing.T) {
			fwd := new(mockForwarder)
			fwd.On("Forward", mock.Anything, mock.Anything).Return("id", nil)
			h := newTestRouter(t, fwd, nil)

			rec := post(t, h, `{"email":"a@b.co","zip":"`+tt.zip+`","checklist_type":"water"}`)
			require.Equal(t, http.StatusOK, rec.Code)

			var resp LeadResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.want, resp.Region)
			assert.Equal(t, tt.phone, resp.RegionalPhone)
		})
	}
}

func TestLeads_MissingZipRoutesToBlankZipRegion(t *testing.T) {
	fwd := new(mockForwarder)
	fwd.On("Forward", mock.Anything, mock.MatchedBy(func(c Contact) bool {
		return c.CustomFields["regional_phone"] == "(202) 335-4240"
	})).Return("id", nil).Once()
	m := metrics.New()
	h := newTestRouter(t, fwd, m)

	rec := post(t, h, `{"email":"a@b.com","checklist_type":"water"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp LeadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Washington DC", resp.Region)
	assert.Equal(t, "(202) 335-4240", resp.RegionalPhone)
	assert.InDelta(t, 1, promtest.ToFloat64(m.Leads.WithLabelValues("dc")), 0)
	fwd.AssertExpectations(t)
}

func TestLeads_ContactDefaults(t *testing.T) {
	var got Contact
	fwd := new(mockForwarder)
	fwd.On("Forward", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { got = args.Get(1).(Contact) }).
		Return("id", nil)
	h := newTestRouter(t, fwd, nil)

	rec := post(t, h, `{"email":"jordan@example.com","zip":"22101","checklist_type":"mold","timestamp":"2025-01-01T00:00:00Z"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "jordan", got.FirstName)
	assert.Equal(t, "Website Lead", got.LastName)
	assert.Equal(t, "ZIP: 22101", got.Address1)
	assert.Equal(t, []string{"pdf-checklist", "checklist-mold", "region-virginia", "lead-source-website"}, got.Tags)
	assert.Equal(t, "warm", got.CustomFields["lead_quality"])
	assert.Equal(t, "unknown", got.CustomFields["page_source"])
	assert.Equal(t, "2025-01-01T00:00:00Z", got.CustomFields["request_timestamp"])
}

func TestLeads_ChatbotEvent(t *testing.T) {
	fwd := new(mockForwarder)
	h := newTestRouter(t, fwd, nil)

	rec := post(t, h, `{"event_type":"chatbot_interaction","event":"emergency_selected","timestamp":"2025-02-02T10:00:00Z"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp EventResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, EventResponse{Success: true, EventTracked: "emergency_selected", Timestamp: "2025-02-02T10:00:00Z"}, resp)
	fwd.AssertNotCalled(t, "Forward", mock.Anything, mock.Anything)
}

func TestLeads_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"not json", `email=a@b.co`, "invalid JSON body"},
		{"missing email", `{"zip":"20001"}`, "email is required"},
		{"blank email", `{"email":"   "}`, "email is required"},
		{"no at sign", `{"email":"nobody"}`, "email is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fwd := new(mockForwarder)
			h := newTestRouter(t, fwd, nil)

			rec := post(t, h, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
			fwd.AssertNotCalled(t, "Forward", mock.Anything, mock.Anything)
		})
	}
}

func TestLeads_MethodNotAllowed(t *testing.T) {
	h := newTestRouter(t, new(mockForwarder), nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/leads", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Body.String(), "Method Not Allowed")
}

func TestLeads_ForwardFailure(t *testing.T) {
	fwd := new(mockForwarder)
	fwd.On("Forward", mock.Anything, mock.Anything).Return("", errors.New("crm down"))
	m := metrics.New()
	h := newTestRouter(t, fwd, m)

	rec := post(t, h, `{"email":"a@b.co","zip":"20001"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.InDelta(t, 0, promtest.ToFloat64(m.Leads.WithLabelValues("dc")), 0)
}

func TestHealthAndMetrics(t *testing.T) {
	m := metrics.New()
	m.FileScanned()
	h := newTestRouter(t, new(mockForwarder), m)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "siteaudit_files_scanned_total 1")
}

func TestNewRouter_RequiresResolver(t *testing.T) {
	_, err := NewRouter(Options{})
	assert.Error(t, err)
}

func TestHTTPForwarder(t *testing.T) {
	var gotAuth string
	var gotContact Contact
	crm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotContact)
		_, _ = io.WriteString(w, `{"contact":{"id":"crm-42"}}`)
	}))
	defer crm.Close()

	fwd := NewHTTPForwarder(crm.URL, "secret")
	id, err := fwd.Forward(context.Background(), Contact{Email: "a@b.co", City: "Maryland"})
	require.NoError(t, err)
	assert.Equal(t, "crm-42", id)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "a@b.co", gotContact.Email)
	crm.Client().CloseIdleConnections()
	fwd.Client.CloseIdleConnections()
}

func TestHTTPForwarder_ErrorStatus(t *testing.T) {
	crm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"message":"duplicate contact"}`)
	}))
	defer crm.Close()

	fwd := NewHTTPForwarder(crm.URL, "")
	_, err := fwd.Forward(context.Background(), Contact{Email: "a@b.co"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
	assert.Contains(t, err.Error(), "duplicate contact")
	fwd.Client.CloseIdleConnections()
}

func TestLogForwarder(t *testing.T) {
	id, err := LogForwarder{Logger: testutil.NewTestLogger(t)}.Forward(context.Background(), Contact{Email: "a@b.co"})
	require.NoError(t, err)
	assert.Len(t, id, 36)
}

func TestServer_GracefulShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	h := newTestRouter(t, new(mockForwarder), nil)
	srv := &Server{Handler: h, Logger: testutil.NewTestLogger(t)}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ServeListener(ctx, ln) }()

	client := &http.Client{Timeout: 5 * time.Second}
	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = client.Get("http://" + ln.Addr().String() + "/healthz")
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	client.CloseIdleConnections()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
