package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/mkrasic/handoff/internal/verification/domain"
)

// AirtableConfig identifies the table records are inserted into.
type AirtableConfig struct {
	// BaseURL defaults to the public API host; tests override it.
	BaseURL string
	BaseID  string
	Table   string
	Token   string
}

const defaultAirtableBaseURL = "https://api.airtable.com"

// Airtable inserts registration records into a low-code table store via its
// records REST API.
type Airtable struct {
	endpoint string
	token    string
	http     *http.Client
}

func NewAirtable(cfg AirtableConfig) (*Airtable, error) {
	if cfg.BaseID == "" || cfg.Table == "" || cfg.Token == "" {
		return nil, fmt.Errorf("airtable sink requires base id, table and token")
	}
	base := cfg.BaseURL
	if base == "" {
		base = defaultAirtableBaseURL
	}
	return &Airtable{
		endpoint: fmt.Sprintf("%s/v0/%s/%s", base, cfg.BaseID, url.PathEscape(cfg.Table)),
		token:    cfg.Token,
		http:     &http.Client{},
	}, nil
}

// Record inserts one row and returns the table-assigned record id.
func (s *Airtable) Record(ctx context.Context, rec domain.RegistrationRecord) (string, error) {
	payload := map[string]any{
		"records": []map[string]any{{
			"fields": map[string]any{
				"Registration ID": rec.ID,
				"Order ID":        rec.Order.OrderID,
				"Order Number":    rec.Order.OrderNumber,
				"Email":           rec.Order.Email,
				"Customer Name":   rec.Order.CustomerName,
				"Total":           rec.Order.Total,
				"Currency":        rec.Order.Currency,
				"Roblox User ID":  rec.Identity.UserID,
				"Roblox Username": rec.Identity.Username,
				"Avatar URL":      rec.Identity.AvatarURL,
				"Status":          string(rec.Status),
				"Created At":      rec.CreatedAt.Format(time.RFC3339),
			},
		}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal airtable payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build airtable request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("airtable request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("airtable returned status %d", resp.StatusCode)
	}

	var ack struct {
		Records []struct {
			ID string `json:"id"`
		} `json:"records"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return "", fmt.Errorf("decode airtable response: %w", err)
	}
	if len(ack.Records) == 0 || ack.Records[0].ID == "" {
		return rec.ID, nil
	}
	return ack.Records[0].ID, nil
}
