package domain

import (
	"errors"
	"strings"
	"time"
)

// RegistrationStatus tags the downstream processing state of a registration.
// This service only ever writes the initial state; staff move records through
// the rest of the lifecycle out of band.
type RegistrationStatus string

const (
	RegistrationPendingDelivery RegistrationStatus = "pending_delivery"
)

// OrderSnapshot captures the order fields frozen into a registration record.
type OrderSnapshot struct {
	OrderID      string     `json:"orderId"`
	OrderNumber  string     `json:"orderNumber"`
	Email        string     `json:"email"`
	CustomerName string     `json:"customerName,omitempty"`
	Items        []LineItem `json:"items,omitempty"`
	Total        string     `json:"total,omitempty"`
	Currency     string     `json:"currency,omitempty"`
}

// IdentitySnapshot captures the resolved identity fields frozen into a
// registration record.
type IdentitySnapshot struct {
	UserID    int64  `json:"userId"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// RegistrationRecord is the immutable pairing of a verified order and a
// resolved identity, created at most once per successful registration call.
type RegistrationRecord struct {
	ID        string             `json:"registrationId"`
	Order     OrderSnapshot      `json:"order"`
	Identity  IdentitySnapshot   `json:"roblox"`
	Status    RegistrationStatus `json:"status"`
	CreatedAt time.Time          `json:"createdAt"`
}

// Validate checks the sub-fields a registration cannot be recorded without.
func (r RegistrationRecord) Validate() error {
	if strings.TrimSpace(r.Order.OrderNumber) == "" {
		return errors.New("deliveryData.order.orderNumber is required")
	}
	if strings.TrimSpace(r.Order.Email) == "" {
		return errors.New("deliveryData.order.email is required")
	}
	if strings.TrimSpace(r.Identity.Username) == "" {
		return errors.New("deliveryData.roblox.username is required")
	}
	if r.Identity.UserID <= 0 {
		return errors.New("deliveryData.roblox.userId is required")
	}
	return nil
}
