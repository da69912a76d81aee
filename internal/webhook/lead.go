// Package webhook captures website leads and chatbot events, resolves the
// visitor's region from their zip code and forwards contacts to a CRM.
package webhook

import (
	"strings"

	"github.com/leapstack-labs/siteaudit/pkg/region"
)

// EventChatbot marks a chatbot interaction rather than a lead.
const EventChatbot = "chatbot_interaction"

// Lead is the JSON body posted by checklist forms and the chatbot widget.
type Lead struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Zip           string `json:"zip"`
	ChecklistType string `json:"checklist_type"`
	PageURL       string `json:"page_url"`
	Timestamp     string `json:"timestamp"`
	EventType     string `json:"event_type"`

	// chatbot events only
	Event     string `json:"event,omitempty"`
	LeadScore int    `json:"lead_score,omitempty"`
}

// Contact is what gets forwarded to the CRM.
type Contact struct {
	FirstName    string            `json:"firstName"`
	LastName     string            `json:"lastName"`
	Email        string            `json:"email"`
	Phone        string            `json:"phone,omitempty"`
	Address1     string            `json:"address1,omitempty"`
	City         string            `json:"city"`
	Tags         []string          `json:"tags"`
	CustomFields map[string]string `json:"customFields"`
}

// LeadResponse is returned for a captured lead.
type LeadResponse struct {
	Success       bool   `json:"success"`
	Region        string `json:"region"`
	RegionalPhone string `json:"regional_phone"`
	ChecklistType string `json:"checklist_type"`
	ContactID     string `json:"contact_id"`
}

// EventResponse is returned for a tracked chatbot event.
type EventResponse struct {
	Success      bool   `json:"success"`
	EventTracked string `json:"event_tracked"`
	Timestamp    string `json:"timestamp"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// buildContact maps a lead onto a CRM contact. Missing names fall back to
// the email's local part and a placeholder last name.
func buildContact(l Lead, display, phone, timestamp string) Contact {
	first := l.FirstName
	if first == "" {
		first, _, _ = strings.Cut(l.Email, "@")
	}
	last := l.LastName
	if last == "" {
		last = "Website Lead"
	}
	address := ""
	if l.Zip != "" {
		address = "ZIP: " + l.Zip
	}
	page := l.PageURL
	if page == "" {
		page = "unknown"
	}
	quality := "warm"
	if l.ChecklistType == "emergency" {
		quality = "hot"
	}
	return Contact{
		FirstName: first,
		LastName:  last,
		Email:     l.Email,
		Phone:     l.Phone,
		Address1:  address,
		City:      display,
		Tags: []string{
			"pdf-checklist",
			"checklist-" + l.ChecklistType,
			"region-" + strings.ToLower(strings.ReplaceAll(display, " ", "-")),
			"lead-source-website",
		},
		CustomFields: map[string]string{
			"checklist_type":    l.ChecklistType,
			"lead_source":       "pdf-checklist-download",
			"request_timestamp": timestamp,
			"page_source":       page,
			"regional_phone":    phone,
			"lead_quality":      quality,
		},
	}
}

// regionFor resolves a lead's region and formatted canonical phone.
func regionFor(res *region.Resolver, zip string) (region.Region, string) {
	reg := res.FromZip(zip)
	digits, _ := res.Phone(reg)
	return reg, region.FormatPhone(digits)
}
