package service

import (
	"context"
	"errors"
	"testing"
	"time"

	auditdomain "github.com/ataboardhq/ataboard/internal/audit/domain"
	auditservice "github.com/ataboardhq/ataboard/internal/audit/service"
	clientdomain "github.com/ataboardhq/ataboard/internal/client/domain"
	"github.com/ataboardhq/ataboard/internal/clock"
	"github.com/ataboardhq/ataboard/internal/events"
	plandomain "github.com/ataboardhq/ataboard/internal/plan/domain"
	subdomain "github.com/ataboardhq/ataboard/internal/subscription/domain"
	subrepository "github.com/ataboardhq/ataboard/internal/subscription/repository"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	db     *gorm.DB
	svc    subdomain.Service
	client clientdomain.Client
	plan   plandomain.Plan
}

func setupSubscriptionTest(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&clientdomain.Client{},
		&plandomain.Plan{},
		&subdomain.Subscription{},
		&events.BillingEvent{},
		&auditdomain.AuditLog{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	clk := clock.Fixed{At: testNow}
	log := zap.NewNop()

	client := clientdomain.Client{
		ID:        node.Generate(),
		Name:      "Acme Ltda",
		Email:     "billing@acme.example",
		TaxID:     "11222333000181",
		Status:    clientdomain.ClientStatusActive,
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
	if err := db.Create(&client).Error; err != nil {
		t.Fatalf("seed client: %v", err)
	}
	plan := plandomain.Plan{
		ID:        node.Generate(),
		Name:      "Pro",
		Slug:      "pro",
		Price:     19900,
		IsActive:  true,
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
	if err := db.Create(&plan).Error; err != nil {
		t.Fatalf("seed plan: %v", err)
	}

	svc := NewService(Params{
		DB:      db,
		Log:     log,
		GenID:   node,
		Clock:   clk,
		Repo:    subrepository.Provide(),
		Clients: &stubClientService{db: db},
		Plans:   &stubPlanService{db: db},
		Outbox:  events.NewOutbox(db, node),
		Audit: auditservice.NewService(auditservice.Params{
			DB:    db,
			Log:   log,
			GenID: node,
		}),
	})
	return &testEnv{db: db, svc: svc, client: client, plan: plan}
}

// stubClientService reads straight from the table; the subscription service
// only needs GetByID during Create.
type stubClientService struct {
	db *gorm.DB
}

func (s *stubClientService) Create(context.Context, clientdomain.CreateClientRequest) (clientdomain.Client, error) {
	panic("not used")
}

func (s *stubClientService) GetByID(ctx context.Context, id string) (clientdomain.Client, error) {
	clientID, err := snowflake.ParseString(id)
	if err != nil {
		return clientdomain.Client{}, clientdomain.ErrInvalidClientID
	}
	var client clientdomain.Client
	if err := s.db.WithContext(ctx).Where("id = ?", clientID).First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return clientdomain.Client{}, clientdomain.ErrClientNotFound
		}
		return clientdomain.Client{}, err
	}
	return client, nil
}

func (s *stubClientService) List(context.Context, clientdomain.ListClientRequest) ([]clientdomain.Client, error) {
	panic("not used")
}

func (s *stubClientService) RecomputeStanding(context.Context, snowflake.ID) (clientdomain.ClientStatus, error) {
	panic("not used")
}

func (s *stubClientService) RecomputeStandingTx(context.Context, *gorm.DB, snowflake.ID) (clientdomain.ClientStatus, error) {
	panic("not used")
}

type stubPlanService struct {
	db *gorm.DB
}

func (s *stubPlanService) Create(context.Context, plandomain.CreatePlanRequest) (plandomain.Plan, error) {
	panic("not used")
}

func (s *stubPlanService) List(context.Context) ([]plandomain.Plan, error) {
	panic("not used")
}

func (s *stubPlanService) GetByID(ctx context.Context, id snowflake.ID) (plandomain.Plan, error) {
	var plan plandomain.Plan
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return plandomain.Plan{}, plandomain.ErrPlanNotFound
		}
		return plandomain.Plan{}, err
	}
	return plan, nil
}

func TestCreateSubscription(t *testing.T) {
	env := setupSubscriptionTest(t)
	ctx := context.Background()

	sub, err := env.svc.Create(ctx, subdomain.CreateSubscriptionRequest{
		ClientID:   env.client.ID.String(),
		PlanID:     env.plan.ID.String(),
		BillingDay: 10,
	})
	if err != nil {
		t.Fatalf("create subscription: %v", err)
	}
	if sub.Status != subdomain.SubscriptionStatusActive {
		t.Fatalf("expected ACTIVE, got %s", sub.Status)
	}
	if sub.BillingDay != 10 {
		t.Fatalf("expected billing day 10, got %d", sub.BillingDay)
	}
	if !sub.StartDate.Equal(testNow) {
		t.Fatalf("expected start date %v, got %v", testNow, sub.StartDate)
	}
	if sub.EndDate != nil {
		t.Fatalf("expected nil end date, got %v", sub.EndDate)
	}
}

func TestCreateSubscriptionExplicitStartDate(t *testing.T) {
	env := setupSubscriptionTest(t)

	sub, err := env.svc.Create(context.Background(), subdomain.CreateSubscriptionRequest{
		ClientID:   env.client.ID.String(),
		PlanID:     env.plan.ID.String(),
		BillingDay: 1,
		StartDate:  "2026-01-15",
	})
	if err != nil {
		t.Fatalf("create subscription: %v", err)
	}
	want := time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)
	if !sub.StartDate.Equal(want) {
		t.Fatalf("expected start date %v, got %v", want, sub.StartDate)
	}
}

func TestCreateSubscriptionRejectsBillingDay(t *testing.T) {
	env := setupSubscriptionTest(t)

	for _, day := range []int{0, -1, 29, 31} {
		_, err := env.svc.Create(context.Background(), subdomain.CreateSubscriptionRequest{
			ClientID:   env.client.ID.String(),
			PlanID:     env.plan.ID.String(),
			BillingDay: day,
		})
		if !errors.Is(err, subdomain.ErrInvalidBillingDay) {
			t.Fatalf("billing day %d: expected ErrInvalidBillingDay, got %v", day, err)
		}
	}
}

func TestCreateSubscriptionRejectsOverlap(t *testing.T) {
	env := setupSubscriptionTest(t)
	ctx := context.Background()

	req := subdomain.CreateSubscriptionRequest{
		ClientID:   env.client.ID.String(),
		PlanID:     env.plan.ID.String(),
		BillingDay: 5,
	}
	if _, err := env.svc.Create(ctx, req); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := env.svc.Create(ctx, req); !errors.Is(err, subdomain.ErrOverlappingSubscription) {
		t.Fatalf("expected ErrOverlappingSubscription, got %v", err)
	}
}

func TestCreateSubscriptionAfterCancelAllowed(t *testing.T) {
	env := setupSubscriptionTest(t)
	ctx := context.Background()

	req := subdomain.CreateSubscriptionRequest{
		ClientID:   env.client.ID.String(),
		PlanID:     env.plan.ID.String(),
		BillingDay: 5,
	}
	sub, err := env.svc.Create(ctx, req)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := env.svc.Cancel(ctx, sub.ID.String()); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := env.svc.Create(ctx, req); err != nil {
		t.Fatalf("create after cancel: %v", err)
	}
}

func TestCreateSubscriptionRejectsDelinquentClient(t *testing.T) {
	env := setupSubscriptionTest(t)
	ctx := context.Background()

	if err := env.db.Exec(
		`UPDATE clients SET status = 'DELINQUENT' WHERE id = ?`, env.client.ID,
	).Error; err != nil {
		t.Fatalf("mark delinquent: %v", err)
	}

	_, err := env.svc.Create(ctx, subdomain.CreateSubscriptionRequest{
		ClientID:   env.client.ID.String(),
		PlanID:     env.plan.ID.String(),
		BillingDay: 5,
	})
	if !errors.Is(err, subdomain.ErrClientDelinquent) {
		t.Fatalf("expected ErrClientDelinquent, got %v", err)
	}
}

func TestCreateSubscriptionRejectsInactivePlan(t *testing.T) {
	env := setupSubscriptionTest(t)

	if err := env.db.Exec(
		`UPDATE plans SET is_active = false WHERE id = ?`, env.plan.ID,
	).Error; err != nil {
		t.Fatalf("deactivate plan: %v", err)
	}

	_, err := env.svc.Create(context.Background(), subdomain.CreateSubscriptionRequest{
		ClientID:   env.client.ID.String(),
		PlanID:     env.plan.ID.String(),
		BillingDay: 5,
	})
	if !errors.Is(err, plandomain.ErrPlanInactive) {
		t.Fatalf("expected ErrPlanInactive, got %v", err)
	}
}

func TestSubscriptionLifecycle(t *testing.T) {
	env := setupSubscriptionTest(t)
	ctx := context.Background()

	sub, err := env.svc.Create(ctx, subdomain.CreateSubscriptionRequest{
		ClientID:   env.client.ID.String(),
		PlanID:     env.plan.ID.String(),
		BillingDay: 15,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	id := sub.ID.String()

	suspended, err := env.svc.Suspend(ctx, id)
	if err != nil {
		t.Fatalf("suspend: %v", err)
	}
	if suspended.Status != subdomain.SubscriptionStatusSuspended {
		t.Fatalf("expected SUSPENDED, got %s", suspended.Status)
	}

	reactivated, err := env.svc.Activate(ctx, id)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if reactivated.Status != subdomain.SubscriptionStatusActive {
		t.Fatalf("expected ACTIVE, got %s", reactivated.Status)
	}

	cancelled, err := env.svc.Cancel(ctx, id)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != subdomain.SubscriptionStatusCancelled {
		t.Fatalf("expected CANCELLED, got %s", cancelled.Status)
	}
	if cancelled.EndDate == nil || !cancelled.EndDate.Equal(testNow) {
		t.Fatalf("expected end date %v, got %v", testNow, cancelled.EndDate)
	}

	// Cancelled is terminal.
	if _, err := env.svc.Activate(ctx, id); !errors.Is(err, subdomain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition after cancel, got %v", err)
	}
	if _, err := env.svc.Suspend(ctx, id); !errors.Is(err, subdomain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition after cancel, got %v", err)
	}
}

func TestActivateRequiresSuspended(t *testing.T) {
	env := setupSubscriptionTest(t)
	ctx := context.Background()

	sub, err := env.svc.Create(ctx, subdomain.CreateSubscriptionRequest{
		ClientID:   env.client.ID.String(),
		PlanID:     env.plan.ID.String(),
		BillingDay: 15,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := env.svc.Activate(ctx, sub.ID.String()); !errors.Is(err, subdomain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestTransitionWritesOutboxEvent(t *testing.T) {
	env := setupSubscriptionTest(t)
	ctx := context.Background()

	sub, err := env.svc.Create(ctx, subdomain.CreateSubscriptionRequest{
		ClientID:   env.client.ID.String(),
		PlanID:     env.plan.ID.String(),
		BillingDay: 15,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := env.svc.Cancel(ctx, sub.ID.String()); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	var count int64
	if err := env.db.Raw(
		`SELECT COUNT(1) FROM billing_events WHERE event_type = ?`,
		events.EventSubscriptionCancelled,
	).Scan(&count).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 cancellation event, got %d", count)
	}
}
