// Package roblox implements the IdentityGateway against the Roblox users and
// thumbnails REST APIs.
package roblox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mkrasic/handoff/internal/apperr"
	"github.com/mkrasic/handoff/internal/verification/domain"
	"github.com/mkrasic/handoff/internal/verification/ports"
)

// Config carries the provider endpoints. Separate bases because the users
// and thumbnails APIs live on different hosts.
type Config struct {
	UsersBaseURL      string
	ThumbnailsBaseURL string
	Timeout           time.Duration
}

const (
	defaultUsersBaseURL      = "https://users.roblox.com"
	defaultThumbnailsBaseURL = "https://thumbnails.roblox.com"
)

// Client talks to the identity provider.
type Client struct {
	usersBase      string
	thumbnailsBase string
	http           *http.Client
	logger         *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	usersBase := cfg.UsersBaseURL
	if usersBase == "" {
		usersBase = defaultUsersBaseURL
	}
	thumbnailsBase := cfg.ThumbnailsBaseURL
	if thumbnailsBase == "" {
		thumbnailsBase = defaultThumbnailsBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		usersBase:      usersBase,
		thumbnailsBase: thumbnailsBase,
		http:           &http.Client{Timeout: timeout},
		logger:         logger,
	}
}

// LookupByUsername resolves a handle via the batch usernames endpoint.
func (c *Client) LookupByUsername(ctx context.Context, username string) (*domain.Identity, error) {
	payload := map[string]any{
		"usernames":          []string{username},
		"excludeBannedUsers": true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal usernames request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.usersBase+"/v1/usernames/users", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build usernames request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp userListResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("username %q: %w", username, ports.ErrIdentityNotFound)
	}
	return &domain.Identity{UserID: resp.Data[0].ID, Username: resp.Data[0].Name}, nil
}

// SearchByKeyword runs the keyword search endpoint and returns the first
// result page.
func (c *Client) SearchByKeyword(ctx context.Context, keyword string) ([]domain.Identity, error) {
	query := url.Values{
		"keyword": {keyword},
		"limit":   {"10"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.usersBase+"/v1/users/search?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}

	var resp userListResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}

	identities := make([]domain.Identity, 0, len(resp.Data))
	for _, u := range resp.Data {
		identities = append(identities, domain.Identity{UserID: u.ID, Username: u.Name})
	}
	return identities, nil
}

// AvatarURL fetches the headshot thumbnail URL for a user id.
func (c *Client) AvatarURL(ctx context.Context, userID int64) (string, error) {
	query := url.Values{
		"userIds": {strconv.FormatInt(userID, 10)},
		"size":    {"150x150"},
		"format":  {"Png"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.thumbnailsBase+"/v1/users/avatar-headshot?"+query.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build avatar request: %w", err)
	}

	var resp thumbnailResponse
	if err := c.do(req, &resp); err != nil {
		return "", err
	}
	if len(resp.Data) == 0 || resp.Data[0].ImageURL == "" {
		return "", fmt.Errorf("no thumbnail for user %d", userID)
	}
	return resp.Data[0].ImageURL, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("identity request: %w: %v", apperr.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("identity request: %w", apperr.ErrRateLimited)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("identity request: %w: status %d", apperr.ErrUpstreamUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode identity response: %w", err)
	}
	return nil
}

type userListResponse struct {
	Data []wireUser `json:"data"`
}

type wireUser struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type thumbnailResponse struct {
	Data []wireThumbnail `json:"data"`
}

type wireThumbnail struct {
	ImageURL string `json:"imageUrl"`
}
