// Package server wires the HTTP surface: admin CRUD for clients, plans and
// subscriptions, invoice and payment operations, and manual job triggers.
package server

import (
	"context"
	"errors"
	"net/http"

	auditdomain "github.com/ataboardhq/ataboard/internal/audit/domain"
	clientdomain "github.com/ataboardhq/ataboard/internal/client/domain"
	"github.com/ataboardhq/ataboard/internal/config"
	invoicedomain "github.com/ataboardhq/ataboard/internal/invoice/domain"
	obscontext "github.com/ataboardhq/ataboard/internal/observability/context"
	"github.com/ataboardhq/ataboard/internal/observability/logger"
	"github.com/ataboardhq/ataboard/internal/observability/metrics"
	"github.com/ataboardhq/ataboard/internal/observability/tracing"
	paymentdomain "github.com/ataboardhq/ataboard/internal/payment/domain"
	plandomain "github.com/ataboardhq/ataboard/internal/plan/domain"
	subdomain "github.com/ataboardhq/ataboard/internal/subscription/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Cfg      config.Config
	Log      *zap.Logger
	DB       *gorm.DB
	Clients  clientdomain.Service
	Plans    plandomain.Service
	Subs     subdomain.Service
	Invoices invoicedomain.Service
	Payments paymentdomain.Service
	Audit    auditdomain.Service
}

type Server struct {
	cfg        config.Config
	log        *zap.Logger
	db         *gorm.DB
	clientSvc  clientdomain.Service
	planSvc    plandomain.Service
	subSvc     subdomain.Service
	invoiceSvc invoicedomain.Service
	paymentSvc paymentdomain.Service
	auditSvc   auditdomain.Service
}

func NewServer(p Params) *Server {
	return &Server{
		cfg:        p.Cfg,
		log:        p.Log.Named("server"),
		db:         p.DB,
		clientSvc:  p.Clients,
		planSvc:    p.Plans,
		subSvc:     p.Subs,
		invoiceSvc: p.Invoices,
		paymentSvc: p.Payments,
		auditSvc:   p.Audit,
	}
}

// NewEngine builds the gin engine with the shared middleware chain.
func NewEngine(cfg config.Config, httpMetrics *metrics.HTTPMetrics) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(tracing.GinMiddleware())
	engine.Use(metrics.GinMiddleware(httpMetrics))
	engine.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	engine.Use(actorMiddleware())
	return engine
}

// actorMiddleware records who performs the request for the audit trail.
// There is no auth layer; the header is advisory.
func actorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := c.GetHeader("X-Actor")
		if actor == "" {
			actor = auditdomain.ActorAdmin
		}
		c.Request = c.Request.WithContext(
			obscontext.WithActor(c.Request.Context(), actor),
		)
		c.Next()
	}
}

// RegisterRoutes attaches every handler to the engine.
func (s *Server) RegisterRoutes(engine *gin.Engine) {
	engine.GET("/healthz", s.Healthz)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api")
	{
		api.POST("/clients", s.CreateClient)
		api.GET("/clients", s.ListClients)
		api.GET("/clients/:id", s.GetClientByID)
		api.GET("/clients/:id/standing", s.GetClientStanding)

		api.POST("/plans", s.CreatePlan)
		api.GET("/plans", s.ListPlans)
		api.GET("/plans/:id", s.GetPlanByID)

		api.POST("/subscriptions", s.CreateSubscription)
		api.GET("/subscriptions", s.ListSubscriptions)
		api.GET("/subscriptions/:id", s.GetSubscriptionByID)
		api.POST("/subscriptions/:id/cancel", s.CancelSubscription)
		api.POST("/subscriptions/:id/suspend", s.SuspendSubscription)
		api.POST("/subscriptions/:id/activate", s.ActivateSubscription)

		api.POST("/invoices/generate", s.GenerateInvoice)
		api.GET("/invoices", s.ListInvoices)
		api.GET("/invoices/:id", s.GetInvoiceByID)
		api.PATCH("/invoices/:id/status", s.UpdateInvoiceStatus)
		api.GET("/invoices/:id/payments", s.ListInvoicePayments)
		api.POST("/invoices/:id/payments", s.RecordInvoicePayment)

		api.POST("/payments", s.RecordPayment)
		api.GET("/payments/:id", s.GetPaymentByID)
		api.POST("/payments/:id/reverse", s.ReversePayment)

		api.POST("/jobs/generate-invoices", s.RunGenerateJob)
		api.POST("/jobs/sweep-overdue", s.RunSweepJob)
	}
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /healthz [get]
func (s *Server) Healthz(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RunHTTP starts the HTTP listener under the fx lifecycle.
func RunHTTP(lc fx.Lifecycle, engine *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: engine,
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTP.Addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

var Module = fx.Module("server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server, engine *gin.Engine) {
		s.RegisterRoutes(engine)
	}),
	fx.Invoke(RunHTTP),
)
