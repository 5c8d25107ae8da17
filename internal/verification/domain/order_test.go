package domain_test

import (
	"testing"

	"github.com/mkrasic/handoff/internal/verification/domain"
)

func TestParseAmountCents(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{input: "100.00", want: 10000},
		{input: "0.99", want: 99},
		{input: "12", want: 1200},
		{input: "12.5", want: 1250},
		{input: " 7.03 ", want: 703},
		{input: "-3.20", want: -320},
		{input: "", wantErr: true},
		{input: "abc", wantErr: true},
		{input: "12.x0", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got, err := domain.ParseAmountCents(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %d", tc.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("expected %d cents, got %d", tc.want, got)
			}
		})
	}
}

func TestFormatCents(t *testing.T) {
	if got := domain.FormatCents(10000); got != "100.00" {
		t.Errorf("expected 100.00, got %s", got)
	}
	if got := domain.FormatCents(99); got != "0.99" {
		t.Errorf("expected 0.99, got %s", got)
	}
	if got := domain.FormatCents(-320); got != "-3.20" {
		t.Errorf("expected -3.20, got %s", got)
	}
}

func TestEmailMatches(t *testing.T) {
	order := domain.Order{Email: "Test@Shop.com"}

	if !order.EmailMatches("test@shop.com") {
		t.Error("expected case-insensitive match")
	}
	if !order.EmailMatches("  test@shop.com  ") {
		t.Error("expected whitespace-trimmed match")
	}
	if order.EmailMatches("other@x.com") {
		t.Error("expected mismatch for different address")
	}
}

func TestRefundedCents(t *testing.T) {
	order := domain.Order{Refunds: []domain.Refund{{AmountCents: 1500}, {AmountCents: 2500}}}

	if got := order.RefundedCents(); got != 4000 {
		t.Errorf("expected 4000, got %d", got)
	}
}

func TestValidateHandle(t *testing.T) {
	valid := []string{"abc", "builderman", "Road_To_100K", "a1_b2_c3"}
	for _, handle := range valid {
		if err := domain.ValidateHandle(handle); err != nil {
			t.Errorf("expected %q to be valid, got %v", handle, err)
		}
	}

	invalid := []string{"", "ab", "this_name_is_way_too_long_x", "has space", "dash-ed", "émile"}
	for _, handle := range invalid {
		if err := domain.ValidateHandle(handle); err == nil {
			t.Errorf("expected %q to be rejected", handle)
		}
	}
}

func TestRegistrationRecordValidate(t *testing.T) {
	valid := domain.RegistrationRecord{
		ID: "REG-1",
		Order: domain.OrderSnapshot{
			OrderNumber: "#1222",
			Email:       "test@shop.com",
		},
		Identity: domain.IdentitySnapshot{
			UserID:   156,
			Username: "builderman",
		},
		Status: domain.RegistrationPendingDelivery,
	}

	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid record, got %v", err)
	}

	t.Run("missing order number", func(t *testing.T) {
		rec := valid
		rec.Order.OrderNumber = " "
		if err := rec.Validate(); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("missing email", func(t *testing.T) {
		rec := valid
		rec.Order.Email = ""
		if err := rec.Validate(); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("missing username", func(t *testing.T) {
		rec := valid
		rec.Identity.Username = ""
		if err := rec.Validate(); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("missing user id", func(t *testing.T) {
		rec := valid
		rec.Identity.UserID = 0
		if err := rec.Validate(); err == nil {
			t.Error("expected error")
		}
	})
}
