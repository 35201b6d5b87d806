package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	auditdomain "github.com/ataboardhq/ataboard/internal/audit/domain"
	auditservice "github.com/ataboardhq/ataboard/internal/audit/service"
	clientdomain "github.com/ataboardhq/ataboard/internal/client/domain"
	clientrepository "github.com/ataboardhq/ataboard/internal/client/repository"
	clientservice "github.com/ataboardhq/ataboard/internal/client/service"
	"github.com/ataboardhq/ataboard/internal/clock"
	"github.com/ataboardhq/ataboard/internal/config"
	"github.com/ataboardhq/ataboard/internal/events"
	invoicedomain "github.com/ataboardhq/ataboard/internal/invoice/domain"
	invoicerepository "github.com/ataboardhq/ataboard/internal/invoice/repository"
	invoiceservice "github.com/ataboardhq/ataboard/internal/invoice/service"
	paymentdomain "github.com/ataboardhq/ataboard/internal/payment/domain"
	paymentrepository "github.com/ataboardhq/ataboard/internal/payment/repository"
	paymentservice "github.com/ataboardhq/ataboard/internal/payment/service"
	plandomain "github.com/ataboardhq/ataboard/internal/plan/domain"
	planrepository "github.com/ataboardhq/ataboard/internal/plan/repository"
	planservice "github.com/ataboardhq/ataboard/internal/plan/service"
	subdomain "github.com/ataboardhq/ataboard/internal/subscription/domain"
	subrepository "github.com/ataboardhq/ataboard/internal/subscription/repository"
	subservice "github.com/ataboardhq/ataboard/internal/subscription/service"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func setupServerTest(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

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
		&invoicedomain.Invoice{},
		&paymentdomain.Payment{},
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
	outbox := events.NewOutbox(db, node)
	cfg := config.Config{
		Billing:   config.BillingConfig{Currency: "BRL"},
		Scheduler: config.SchedulerConfig{BatchSize: 50},
	}

	audit := auditservice.NewService(auditservice.Params{DB: db, Log: log, GenID: node})
	clients := clientservice.NewService(clientservice.Params{
		DB: db, Log: log, GenID: node, Clock: clk,
		Repo: clientrepository.Provide(), Outbox: outbox,
	})
	plans := planservice.NewService(planservice.Params{
		DB: db, Log: log, GenID: node, Clock: clk,
		Repo: planrepository.Provide(),
	})
	subs := subservice.NewService(subservice.Params{
		DB: db, Log: log, GenID: node, Clock: clk,
		Repo: subrepository.Provide(), Clients: clients, Plans: plans,
		Outbox: outbox, Audit: audit,
	})
	invoices := invoiceservice.NewService(invoiceservice.Params{
		DB: db, Log: log, GenID: node, Clock: clk, Cfg: cfg,
		Repo: invoicerepository.Provide(), Subscriptions: subrepository.Provide(),
		Plans: plans, Payments: paymentrepository.Provide(), Clients: clients,
		Outbox: outbox, Audit: audit,
	})
	payments := paymentservice.NewService(paymentservice.Params{
		DB: db, Log: log, GenID: node, Clock: clk,
		Repo: paymentrepository.Provide(), Invoices: invoicerepository.Provide(),
		Clients: clients, Outbox: outbox, Audit: audit,
	})

	srv := NewServer(Params{
		Cfg: cfg, Log: log, DB: db,
		Clients: clients, Plans: plans, Subs: subs,
		Invoices: invoices, Payments: payments, Audit: audit,
	})
	engine := gin.New()
	engine.Use(actorMiddleware())
	srv.RegisterRoutes(engine)
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	var parsed map[string]any
	decoder := json.NewDecoder(rec.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&parsed); err != nil {
		t.Fatalf("decode response %s %s: %v", method, path, err)
	}
	return rec.Code, parsed
}

func dataField(t *testing.T, parsed map[string]any, key string) string {
	t.Helper()
	data, ok := parsed["data"].(map[string]any)
	if !ok {
		t.Fatalf("missing data envelope in %v", parsed)
	}
	switch value := data[key].(type) {
	case string:
		return value
	case json.Number:
		return value.String()
	default:
		t.Fatalf("unexpected %s value %v", key, data[key])
		return ""
	}
}

func TestBillingFlow(t *testing.T) {
	engine := setupServerTest(t)

	status, resp := doJSON(t, engine, http.MethodPost, "/api/clients", gin.H{
		"name":   "Acme Ltda",
		"email":  "billing@acme.example",
		"tax_id": "11.222.333/0001-81",
	})
	if status != http.StatusOK {
		t.Fatalf("create client: status %d (%v)", status, resp)
	}
	clientID := dataField(t, resp, "id")

	status, resp = doJSON(t, engine, http.MethodPost, "/api/plans", gin.H{
		"name":  "Pro",
		"slug":  "pro",
		"price": 19900,
	})
	if status != http.StatusOK {
		t.Fatalf("create plan: status %d (%v)", status, resp)
	}
	planID := dataField(t, resp, "id")

	status, resp = doJSON(t, engine, http.MethodPost, "/api/subscriptions", gin.H{
		"client_id":   clientID,
		"plan_id":     planID,
		"billing_day": 10,
	})
	if status != http.StatusOK {
		t.Fatalf("create subscription: status %d (%v)", status, resp)
	}
	subscriptionID := dataField(t, resp, "id")

	status, resp = doJSON(t, engine, http.MethodPost, "/api/invoices/generate", gin.H{
		"subscription_id": subscriptionID,
		"reference_month": "2026-03",
	})
	if status != http.StatusOK {
		t.Fatalf("generate invoice: status %d (%v)", status, resp)
	}
	invoiceID := dataField(t, resp, "id")
	if got := dataField(t, resp, "status"); got != "PENDING" {
		t.Fatalf("expected PENDING invoice, got %s", got)
	}

	status, resp = doJSON(t, engine, http.MethodPost, "/api/payments", gin.H{
		"invoice_id": invoiceID,
		"amount":     19900,
		"method":     "PIX",
	})
	if status != http.StatusOK {
		t.Fatalf("record payment: status %d (%v)", status, resp)
	}

	status, resp = doJSON(t, engine, http.MethodGet, "/api/invoices/"+invoiceID, nil)
	if status != http.StatusOK {
		t.Fatalf("get invoice: status %d (%v)", status, resp)
	}
	if got := dataField(t, resp, "status"); got != "PAID" {
		t.Fatalf("expected PAID invoice, got %s", got)
	}
}

func TestCreateSubscriptionValidation(t *testing.T) {
	engine := setupServerTest(t)

	status, resp := doJSON(t, engine, http.MethodPost, "/api/clients", gin.H{
		"name":   "Acme Ltda",
		"email":  "billing@acme.example",
		"tax_id": "11222333000181",
	})
	if status != http.StatusOK {
		t.Fatalf("create client: status %d (%v)", status, resp)
	}
	clientID := dataField(t, resp, "id")

	status, resp = doJSON(t, engine, http.MethodPost, "/api/plans", gin.H{
		"name": "Pro", "slug": "pro", "price": 19900,
	})
	if status != http.StatusOK {
		t.Fatalf("create plan: status %d (%v)", status, resp)
	}
	planID := dataField(t, resp, "id")

	status, resp = doJSON(t, engine, http.MethodPost, "/api/subscriptions", gin.H{
		"client_id":   clientID,
		"plan_id":     planID,
		"billing_day": 31,
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for billing day 31, got %d (%v)", status, resp)
	}
}

func TestCancelTwiceConflicts(t *testing.T) {
	engine := setupServerTest(t)

	_, resp := doJSON(t, engine, http.MethodPost, "/api/clients", gin.H{
		"name": "Acme Ltda", "email": "billing@acme.example", "tax_id": "11222333000181",
	})
	clientID := dataField(t, resp, "id")
	_, resp = doJSON(t, engine, http.MethodPost, "/api/plans", gin.H{
		"name": "Pro", "slug": "pro", "price": 19900,
	})
	planID := dataField(t, resp, "id")
	_, resp = doJSON(t, engine, http.MethodPost, "/api/subscriptions", gin.H{
		"client_id": clientID, "plan_id": planID, "billing_day": 10,
	})
	subscriptionID := dataField(t, resp, "id")

	status, resp := doJSON(t, engine, http.MethodPost, "/api/subscriptions/"+subscriptionID+"/cancel", nil)
	if status != http.StatusOK {
		t.Fatalf("first cancel: status %d (%v)", status, resp)
	}
	status, resp = doJSON(t, engine, http.MethodPost, "/api/subscriptions/"+subscriptionID+"/cancel", nil)
	if status != http.StatusConflict {
		t.Fatalf("expected 409 on second cancel, got %d (%v)", status, resp)
	}
}

func TestUnknownInvoiceReturns404(t *testing.T) {
	engine := setupServerTest(t)

	status, resp := doJSON(t, engine, http.MethodGet, "/api/invoices/123456789", nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d (%v)", status, resp)
	}
}

func TestHealthz(t *testing.T) {
	engine := setupServerTest(t)

	status, resp := doJSON(t, engine, http.MethodGet, "/healthz", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d (%v)", status, resp)
	}
}
