//go:build integration

package postgres_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	testpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mkrasic/handoff/internal/database"
	"github.com/mkrasic/handoff/internal/verification/adapters/sink/postgres"
	"github.com/mkrasic/handoff/internal/verification/domain"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := testpostgres.Run(ctx,
		"postgres:16-alpine",
		testpostgres.WithDatabase("test"),
		testpostgres.WithUsername("test"),
		testpostgres.WithPassword("test"),
		testpostgres.BasicWaitStrategies(),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").WithOccurrence(2)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	projectRoot := findProjectRoot(t)
	migrationsPath := filepath.Join(projectRoot, "migrations")

	if err := database.RunMigrations(connStr, migrationsPath); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	pool, err := database.NewPool(ctx, connStr)
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
	})

	return pool
}

func findProjectRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

func testRecord(id string) domain.RegistrationRecord {
	return domain.RegistrationRecord{
		ID: id,
		Order: domain.OrderSnapshot{
			OrderID:      "450789469",
			OrderNumber:  "#1222",
			Email:        "test@shop.com",
			CustomerName: "Paul Norman",
			Items: []domain.LineItem{
				{Title: "Game Pass", Variant: "Gold", Quantity: 2},
			},
			Total:    "100.00",
			Currency: "USD",
		},
		Identity: domain.IdentitySnapshot{
			UserID:    156,
			Username:  "Builderman",
			AvatarURL: "https://cdn.example/156.png",
		},
		Status:    domain.RegistrationPendingDelivery,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestSinkRecord(t *testing.T) {
	pool := setupTestDB(t)
	s := postgres.NewSink(pool)
	ctx := context.Background()

	rec := testRecord("REG-it-0001")

	id, err := s.Record(ctx, rec)
	if err != nil {
		t.Fatalf("failed to record registration: %v", err)
	}
	if id != rec.ID {
		t.Errorf("expected id %s, got %s", rec.ID, id)
	}

	stored, err := s.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("failed to retrieve registration: %v", err)
	}

	if stored.Order.OrderNumber != rec.Order.OrderNumber {
		t.Errorf("expected order number %s, got %s", rec.Order.OrderNumber, stored.Order.OrderNumber)
	}
	if stored.Order.Email != rec.Order.Email {
		t.Errorf("expected email %s, got %s", rec.Order.Email, stored.Order.Email)
	}
	if stored.Identity.UserID != rec.Identity.UserID {
		t.Errorf("expected user id %d, got %d", rec.Identity.UserID, stored.Identity.UserID)
	}
	if stored.Status != domain.RegistrationPendingDelivery {
		t.Errorf("expected status pending_delivery, got %s", stored.Status)
	}
	if len(stored.Order.Items) != 1 || stored.Order.Items[0].Title != "Game Pass" {
		t.Errorf("expected stored line items to round-trip, got %+v", stored.Order.Items)
	}
}

func TestSinkRecord_DuplicateIsNoOp(t *testing.T) {
	pool := setupTestDB(t)
	s := postgres.NewSink(pool)
	ctx := context.Background()

	original := testRecord("REG-it-0002")
	if _, err := s.Record(ctx, original); err != nil {
		t.Fatalf("failed to record registration: %v", err)
	}

	altered := original
	altered.Order.Email = "other@shop.com"
	if _, err := s.Record(ctx, altered); err != nil {
		t.Fatalf("duplicate insert should not fail: %v", err)
	}

	stored, err := s.GetByID(ctx, original.ID)
	if err != nil {
		t.Fatalf("failed to retrieve registration: %v", err)
	}
	if stored.Order.Email != original.Order.Email {
		t.Errorf("expected first write to win, got email %s", stored.Order.Email)
	}
}

func TestSinkGetByID_NotFound(t *testing.T) {
	pool := setupTestDB(t)
	s := postgres.NewSink(pool)

	if _, err := s.GetByID(context.Background(), "REG-missing"); err == nil {
		t.Error("expected an error for a missing registration")
	}
}
