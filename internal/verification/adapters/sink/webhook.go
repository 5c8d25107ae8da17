package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mkrasic/handoff/internal/verification/domain"
)

// Webhook POSTs each registration record as JSON to a configured URL. Any
// HTTP client can stand behind it; the receiver may answer with its own id.
type Webhook struct {
	url  string
	http *http.Client
}

// NewWebhook constructs the sink. The client's timeout is left to the
// registrar's per-call context.
func NewWebhook(url string) *Webhook {
	return &Webhook{url: url, http: &http.Client{}}
}

// Record delivers the registration and returns the receiver-assigned id when
// the response body carries one.
func (s *Webhook) Record(ctx context.Context, rec domain.RegistrationRecord) (string, error) {
	body, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal registration: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("webhook request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	var ack struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ack); err == nil && ack.ID != "" {
		return ack.ID, nil
	}
	return rec.ID, nil
}
