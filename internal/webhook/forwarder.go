package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Forwarder submits a contact to a CRM and returns the CRM's contact id.
type Forwarder interface {
	Forward(ctx context.Context, c Contact) (string, error)
}

// LogForwarder only logs contacts. Ids are generated locally.
type LogForwarder struct {
	Logger *slog.Logger
}

// Forward implements Forwarder.
func (f LogForwarder) Forward(_ context.Context, c Contact) (string, error) {
	id := uuid.NewString()
	if f.Logger != nil {
		f.Logger.Info("lead captured",
			"contact_id", id,
			"email", c.Email,
			"region", c.City,
			"quality", c.CustomFields["lead_quality"])
	}
	return id, nil
}

// HTTPForwarder posts contacts as JSON with a bearer token.
type HTTPForwarder struct {
	URL    string
	Token  string
	Client *http.Client
}

// NewHTTPForwarder creates a forwarder with a bounded client timeout.
func NewHTTPForwarder(url, token string) *HTTPForwarder {
	return &HTTPForwarder{
		URL:    url,
		Token:  token,
		Client: &http.Client{Timeout: 15 * time.Second},
	}
}

type crmResponse struct {
	Contact struct {
		ID string `json:"id"`
	} `json:"contact"`
	Message string `json:"message"`
}

// Forward implements Forwarder.
func (f *HTTPForwarder) Forward(ctx context.Context, c Contact) (string, error) {
	body, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode contact: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.URL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if f.Token != "" {
		req.Header.Set("Authorization", "Bearer "+f.Token)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("forward contact: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var out crmResponse
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	_ = json.Unmarshal(data, &out)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if out.Message != "" {
			return "", fmt.Errorf("crm returned %d: %s", resp.StatusCode, out.Message)
		}
		return "", fmt.Errorf("crm returned %d", resp.StatusCode)
	}
	if out.Contact.ID == "" {
		return uuid.NewString(), nil
	}
	return out.Contact.ID, nil
}
