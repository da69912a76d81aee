package webhook

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/leapstack-labs/siteaudit/internal/metrics"
	"github.com/leapstack-labs/siteaudit/pkg/region"
)

// maxBodyBytes caps a lead payload.
const maxBodyBytes = 64 << 10

// Options configures the router.
type Options struct {
	Resolver  *region.Resolver
	Forwarder Forwarder
	Metrics   *metrics.Metrics // nil disables /metrics
	Logger    *slog.Logger
	Now       func() time.Time
}

type handlers struct {
	resolver  *region.Resolver
	forwarder Forwarder
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// NewRouter builds the chi router serving /leads, /healthz and /metrics.
func NewRouter(opts Options) (http.Handler, error) {
	if opts.Resolver == nil {
		return nil, errors.New("webhook: region resolver is required")
	}
	h := &handlers{
		resolver:  opts.Resolver,
		forwarder: opts.Forwarder,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
		now:       opts.Now,
	}
	if h.logger == nil {
		h.logger = slog.New(slog.DiscardHandler)
	}
	if h.forwarder == nil {
		h.forwarder = LogForwarder{Logger: h.logger}
	}
	if h.now == nil {
		h.now = time.Now
	}

	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
	)
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "Method Not Allowed"})
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Not Found"})
	})

	r.Post("/leads", h.leads)
	r.Get("/healthz", h.health)
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}
	return r, nil
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) leads(w http.ResponseWriter, r *http.Request) {
	var lead Lead
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&lead); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body"})
		return
	}

	if lead.EventType == EventChatbot {
		h.chatbotEvent(w, lead)
		return
	}

	lead.Email = strings.TrimSpace(lead.Email)
	if lead.Email == "" || !strings.Contains(lead.Email, "@") {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "email is required"})
		return
	}

	reg, phone := regionFor(h.resolver, lead.Zip)
	display := h.resolver.Display(reg)
	timestamp := lead.Timestamp
	if timestamp == "" {
		timestamp = h.now().UTC().Format(time.RFC3339)
	}

	id, err := h.forwarder.Forward(r.Context(), buildContact(lead, display, phone, timestamp))
	if err != nil {
		h.logger.Error("lead forwarding failed",
			"request_id", middleware.GetReqID(r.Context()),
			"region", reg.String(),
			"error", err)
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: "failed to forward lead"})
		return
	}

	h.metrics.LeadCaptured(reg.String())
	writeJSON(w, http.StatusOK, LeadResponse{
		Success:       true,
		Region:        display,
		RegionalPhone: phone,
		ChecklistType: lead.ChecklistType,
		ContactID:     id,
	})
}

func (h *handlers) chatbotEvent(w http.ResponseWriter, lead Lead) {
	switch {
	case lead.Event == "emergency_selected":
		h.logger.Warn("emergency chatbot interaction", "page", lead.PageURL)
	case lead.LeadScore > 0:
		h.logger.Info("chatbot lead scoring event",
			"event", lead.Event,
			"score", lead.LeadScore,
			"page", lead.PageURL)
	}
	writeJSON(w, http.StatusOK, EventResponse{
		Success:      true,
		EventTracked: lead.Event,
		Timestamp:    lead.Timestamp,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
