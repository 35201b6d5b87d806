package service

import (
	"context"
	"errors"
	"testing"
	"time"

	clientdomain "github.com/ataboardhq/ataboard/internal/client/domain"
	clientrepository "github.com/ataboardhq/ataboard/internal/client/repository"
	"github.com/ataboardhq/ataboard/internal/clock"
	"github.com/ataboardhq/ataboard/internal/events"
	invoicedomain "github.com/ataboardhq/ataboard/internal/invoice/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func setupClientTest(t *testing.T) (clientdomain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&clientdomain.Client{},
		&invoicedomain.Invoice{},
		&events.BillingEvent{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	svc := NewService(Params{
		DB:     db,
		Log:    zap.NewNop(),
		GenID:  node,
		Clock:  clock.Fixed{At: testNow},
		Repo:   clientrepository.Provide(),
		Outbox: events.NewOutbox(db, node),
	})
	return svc, db, node
}

func TestCreateClient(t *testing.T) {
	svc, _, _ := setupClientTest(t)

	client, err := svc.Create(context.Background(), clientdomain.CreateClientRequest{
		Name:  "Acme Ltda",
		Email: "Billing@Acme.Example",
		TaxID: "11.222.333/0001-81",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if client.Status != clientdomain.ClientStatusActive {
		t.Fatalf("expected ACTIVE, got %s", client.Status)
	}
	if client.Email != "billing@acme.example" {
		t.Fatalf("expected lowercased email, got %s", client.Email)
	}
	if client.TaxID != "11222333000181" {
		t.Fatalf("expected normalized tax id, got %s", client.TaxID)
	}
}

func TestCreateClientValidation(t *testing.T) {
	svc, _, _ := setupClientTest(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  clientdomain.CreateClientRequest
		want error
	}{
		{"empty name", clientdomain.CreateClientRequest{Email: "a@b.c", TaxID: "12345678901"}, clientdomain.ErrInvalidName},
		{"bad email", clientdomain.CreateClientRequest{Name: "A", Email: "nope", TaxID: "12345678901"}, clientdomain.ErrInvalidEmail},
		{"short tax id", clientdomain.CreateClientRequest{Name: "A", Email: "a@b.c", TaxID: "123"}, clientdomain.ErrInvalidTaxID},
		{"wrong digit count", clientdomain.CreateClientRequest{Name: "A", Email: "a@b.c", TaxID: "123456789012"}, clientdomain.ErrInvalidTaxID},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tc.req); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestCreateClientDuplicateTaxID(t *testing.T) {
	svc, _, _ := setupClientTest(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, clientdomain.CreateClientRequest{
		Name: "Acme", Email: "a@acme.example", TaxID: "11222333000181",
	}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := svc.Create(ctx, clientdomain.CreateClientRequest{
		Name: "Other", Email: "b@other.example", TaxID: "11.222.333/0001-81",
	})
	if !errors.Is(err, clientdomain.ErrTaxIDTaken) {
		t.Fatalf("expected ErrTaxIDTaken, got %v", err)
	}
}

func TestRecomputeStanding(t *testing.T) {
	svc, db, node := setupClientTest(t)
	ctx := context.Background()

	client, err := svc.Create(ctx, clientdomain.CreateClientRequest{
		Name: "Acme", Email: "a@acme.example", TaxID: "11222333000181",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	invoice := invoicedomain.Invoice{
		ID:             node.Generate(),
		SubscriptionID: node.Generate(),
		ClientID:       client.ID,
		PlanID:         node.Generate(),
		ReferenceMonth: "2026-02",
		Amount:         19900,
		Currency:       "BRL",
		Status:         invoicedomain.InvoiceStatusOverdue,
		DueDate:        time.Date(2026, time.February, 10, 0, 0, 0, 0, time.UTC),
	}
	if err := db.Create(&invoice).Error; err != nil {
		t.Fatalf("seed invoice: %v", err)
	}

	standing, err := svc.RecomputeStanding(ctx, client.ID)
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if standing != clientdomain.ClientStatusDelinquent {
		t.Fatalf("expected DELINQUENT, got %s", standing)
	}

	// Settling the invoice restores the standing.
	if err := db.Exec(`UPDATE invoices SET status = 'PAID' WHERE id = ?`, invoice.ID).Error; err != nil {
		t.Fatalf("settle invoice: %v", err)
	}
	standing, err = svc.RecomputeStanding(ctx, client.ID)
	if err != nil {
		t.Fatalf("second recompute: %v", err)
	}
	if standing != clientdomain.ClientStatusActive {
		t.Fatalf("expected ACTIVE, got %s", standing)
	}
}

func TestListClientsRejectsUnknownStatus(t *testing.T) {
	svc, _, _ := setupClientTest(t)

	_, err := svc.List(context.Background(), clientdomain.ListClientRequest{Status: "BANKRUPT"})
	if !errors.Is(err, clientdomain.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}
