package app

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/mkrasic/handoff/internal/apperr"
	"github.com/mkrasic/handoff/internal/verification/domain"
	"github.com/mkrasic/handoff/internal/verification/ports"
)

// VerificationService is the use-case surface the HTTP layer talks to.
type VerificationService interface {
	VerifyOrder(ctx context.Context, input VerifyOrderInput) (*VerifiedOrder, error)
	VerifyUsername(ctx context.Context, username string) (*VerifiedIdentity, error)
	RegisterDelivery(ctx context.Context, input RegisterDeliveryInput) (*RegistrationResult, error)
}

// Service bundles the verification use cases.
type Service struct {
	locator   *Locator
	resolver  *Resolver
	registrar *Registrar
}

// NewService wires required dependencies.
func NewService(
	commerce ports.CommerceGateway,
	identity ports.IdentityGateway,
	sink ports.RegistrationSink,
	sinkBudget time.Duration,
	logger *slog.Logger,
) *Service {
	return &Service{
		locator:   NewLocator(commerce, logger),
		resolver:  NewResolver(identity, logger),
		registrar: NewRegistrar(sink, sinkBudget, logger),
	}
}

// VerifyOrderInput captures the payload of a verify_order call.
type VerifyOrderInput struct {
	OrderNumber string `json:"orderNumber"`
	Email       string `json:"email"`
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func (in VerifyOrderInput) Validate() error {
	if strings.TrimSpace(in.OrderNumber) == "" {
		return fmt.Errorf("%w: orderNumber is required", apperr.ErrInvalidInput)
	}
	if !emailPattern.MatchString(strings.TrimSpace(in.Email)) {
		return fmt.Errorf("%w: email format is invalid", apperr.ErrInvalidInput)
	}
	return nil
}

// VerifiedOrder is the successful verify_order response body.
type VerifiedOrder struct {
	OrderNumber  string            `json:"orderNumber"`
	Email        string            `json:"email"`
	OrderID      int64             `json:"orderId"`
	CustomerName string            `json:"customerName"`
	Items        []domain.LineItem `json:"items"`
	Total        string            `json:"total"`
	Currency     string            `json:"currency"`
	OrderDate    time.Time         `json:"orderDate"`
	Fulfilled    bool              `json:"fulfilled"`
	Verified     bool              `json:"verified"`
}

// VerifyOrder locates the order for the caller's reference and email and
// applies the eligibility rules.
func (s *Service) VerifyOrder(ctx context.Context, input VerifyOrderInput) (*VerifiedOrder, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	result, err := s.locator.Locate(ctx, strings.TrimSpace(input.OrderNumber), input.Email)
	if err != nil {
		return nil, err
	}

	switch result.Status {
	case domain.LocateNotFound:
		return nil, fmt.Errorf("order %q: %w", input.OrderNumber, apperr.ErrOrderNotFound)
	case domain.LocateWrongOwner:
		return nil, fmt.Errorf("order %s: %w", result.Order.Name, apperr.ErrWrongOwner)
	}

	order := result.Order
	if decision := domain.CheckEligibility(*order); !decision.Eligible {
		return nil, &apperr.IneligibleError{Reason: string(decision.Reason), Detail: decision.Detail}
	}

	return &VerifiedOrder{
		OrderNumber:  order.Name,
		Email:        strings.TrimSpace(input.Email),
		OrderID:      order.ID,
		CustomerName: order.CustomerName,
		Items:        order.LineItems,
		Total:        domain.FormatCents(order.TotalCents),
		Currency:     order.Currency,
		OrderDate:    order.CreatedAt,
		Fulfilled:    order.FulfillmentStatus == domain.FulfillmentFulfilled,
		Verified:     true,
	}, nil
}

// VerifiedIdentity is the successful verify_username response body.
type VerifiedIdentity struct {
	UserID    int64  `json:"userId"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl"`
	Verified  bool   `json:"verified"`
}

// VerifyUsername resolves a handle to its canonical identity record.
func (s *Service) VerifyUsername(ctx context.Context, username string) (*VerifiedIdentity, error) {
	identity, err := s.resolver.Resolve(ctx, username)
	if err != nil {
		return nil, err
	}
	return &VerifiedIdentity{
		UserID:    identity.UserID,
		Username:  identity.Username,
		AvatarURL: identity.AvatarURL,
		Verified:  true,
	}, nil
}

// RegisterDeliveryInput captures the payload of a register_delivery call.
type RegisterDeliveryInput struct {
	Order    domain.OrderSnapshot    `json:"order"`
	Identity domain.IdentitySnapshot `json:"roblox"`
}

// RegistrationResult is the register_delivery response body. Synced is false
// when the sink timed out and the tracking id only exists locally.
type RegistrationResult struct {
	RegistrationID string                    `json:"registrationId"`
	Record         domain.RegistrationRecord `json:"data"`
	Synced         bool                      `json:"-"`
}

// RegisterDelivery files the verified pair into the configured sink.
func (s *Service) RegisterDelivery(ctx context.Context, input RegisterDeliveryInput) (*RegistrationResult, error) {
	outcome, err := s.registrar.Register(ctx, input.Order, input.Identity)
	if err != nil {
		return nil, err
	}
	return &RegistrationResult{
		RegistrationID: outcome.Record.ID,
		Record:         outcome.Record,
		Synced:         outcome.Synced,
	}, nil
}
