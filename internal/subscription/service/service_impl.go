package service

import (
	"context"
	"strings"
	"time"

	auditdomain "github.com/ataboardhq/ataboard/internal/audit/domain"
	clientdomain "github.com/ataboardhq/ataboard/internal/client/domain"
	"github.com/ataboardhq/ataboard/internal/clock"
	"github.com/ataboardhq/ataboard/internal/events"
	obscontext "github.com/ataboardhq/ataboard/internal/observability/context"
	"github.com/ataboardhq/ataboard/internal/period"
	plandomain "github.com/ataboardhq/ataboard/internal/plan/domain"
	subdomain "github.com/ataboardhq/ataboard/internal/subscription/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const startDateLayout = "2006-01-02"

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    subdomain.Repository
	Clients clientdomain.Service
	Plans   plandomain.Service
	Outbox  *events.Outbox
	Audit   auditdomain.Service
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    subdomain.Repository
	clients clientdomain.Service
	plans   plandomain.Service
	outbox  *events.Outbox
	audit   auditdomain.Service
}

func NewService(p Params) subdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("subscription.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		clients: p.Clients,
		plans:   p.Plans,
		outbox:  p.Outbox,
		audit:   p.Audit,
	}
}

func (s *Service) Create(ctx context.Context, req subdomain.CreateSubscriptionRequest) (subdomain.Subscription, error) {
	if !period.ValidBillingDay(req.BillingDay) {
		return subdomain.Subscription{}, subdomain.ErrInvalidBillingDay
	}

	client, err := s.clients.GetByID(ctx, req.ClientID)
	if err != nil {
		return subdomain.Subscription{}, err
	}
	if client.Status == clientdomain.ClientStatusDelinquent {
		return subdomain.Subscription{}, subdomain.ErrClientDelinquent
	}

	planID, err := snowflake.ParseString(strings.TrimSpace(req.PlanID))
	if err != nil {
		return subdomain.Subscription{}, plandomain.ErrInvalidPlanID
	}
	plan, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		return subdomain.Subscription{}, err
	}
	if !plan.IsActive {
		return subdomain.Subscription{}, plandomain.ErrPlanInactive
	}

	now := s.clock.Now(ctx)
	startDate := now
	if raw := strings.TrimSpace(req.StartDate); raw != "" {
		startDate, err = time.ParseInLocation(startDateLayout, raw, time.UTC)
		if err != nil {
			return subdomain.Subscription{}, subdomain.ErrInvalidStartDate
		}
	}

	sub := subdomain.Subscription{
		ID:         s.genID.Generate(),
		ClientID:   client.ID,
		PlanID:     plan.ID,
		Status:     subdomain.SubscriptionStatusActive,
		BillingDay: req.BillingDay,
		StartDate:  startDate,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		open, err := s.repo.CountOpen(ctx, tx, client.ID, plan.ID)
		if err != nil {
			return err
		}
		if open > 0 {
			return subdomain.ErrOverlappingSubscription
		}
		if err := s.repo.Insert(ctx, tx, &sub); err != nil {
			return err
		}
		subID := sub.ID.String()
		return s.audit.AuditLog(ctx, tx, s.actor(ctx), "subscription.create", "subscription", &subID, map[string]any{
			"client_id":   client.ID.String(),
			"plan_id":     plan.ID.String(),
			"billing_day": req.BillingDay,
		})
	})
	if err != nil {
		return subdomain.Subscription{}, err
	}

	s.log.Info("subscription created",
		zap.String("subscription_id", sub.ID.String()),
		zap.String("client_id", client.ID.String()),
		zap.String("plan_id", plan.ID.String()),
		zap.Int("billing_day", sub.BillingDay),
	)
	return sub, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (subdomain.Subscription, error) {
	subID, err := parseID(id)
	if err != nil {
		return subdomain.Subscription{}, err
	}
	sub, err := s.repo.FindByID(ctx, s.db, subID)
	if err != nil {
		return subdomain.Subscription{}, err
	}
	if sub == nil {
		return subdomain.Subscription{}, subdomain.ErrSubscriptionNotFound
	}
	return *sub, nil
}

func (s *Service) List(ctx context.Context, req subdomain.ListSubscriptionRequest) ([]subdomain.Subscription, error) {
	filter := subdomain.ListFilter{}
	if raw := strings.TrimSpace(req.ClientID); raw != "" {
		clientID, err := snowflake.ParseString(raw)
		if err != nil {
			return nil, clientdomain.ErrInvalidClientID
		}
		filter.ClientID = clientID
	}
	if raw := strings.TrimSpace(req.Status); raw != "" {
		status := subdomain.SubscriptionStatus(strings.ToUpper(raw))
		switch status {
		case subdomain.SubscriptionStatusActive, subdomain.SubscriptionStatusSuspended, subdomain.SubscriptionStatusCancelled:
			filter.Status = status
		default:
			return nil, subdomain.ErrInvalidStatus
		}
	}
	return s.repo.List(ctx, s.db, filter)
}

func (s *Service) Cancel(ctx context.Context, id string) (subdomain.Subscription, error) {
	return s.transition(ctx, id, subdomain.SubscriptionStatusCancelled, events.EventSubscriptionCancelled)
}

func (s *Service) Suspend(ctx context.Context, id string) (subdomain.Subscription, error) {
	return s.transition(ctx, id, subdomain.SubscriptionStatusSuspended, events.EventSubscriptionSuspended)
}

func (s *Service) Activate(ctx context.Context, id string) (subdomain.Subscription, error) {
	return s.transition(ctx, id, subdomain.SubscriptionStatusActive, events.EventSubscriptionActivated)
}

// transition applies one state-machine edge. The status update is a
// compare-and-set keyed on the status observed before the transaction, so a
// concurrent transition makes the CAS miss and the caller gets
// ErrInvalidTransition rather than a silently re-applied edge.
func (s *Service) transition(ctx context.Context, id string, to subdomain.SubscriptionStatus, eventType string) (subdomain.Subscription, error) {
	subID, err := parseID(id)
	if err != nil {
		return subdomain.Subscription{}, err
	}
	sub, err := s.repo.FindByID(ctx, s.db, subID)
	if err != nil {
		return subdomain.Subscription{}, err
	}
	if sub == nil {
		return subdomain.Subscription{}, subdomain.ErrSubscriptionNotFound
	}
	if !subdomain.CanTransition(sub.Status, to) {
		return subdomain.Subscription{}, subdomain.ErrInvalidTransition
	}

	now := s.clock.Now(ctx)
	endDate := sub.EndDate
	if to == subdomain.SubscriptionStatusCancelled {
		endDate = &now
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		changed, err := s.repo.UpdateStatus(ctx, tx, subID, sub.Status, to, endDate, now)
		if err != nil {
			return err
		}
		if !changed {
			return subdomain.ErrInvalidTransition
		}
		if err := s.outbox.PublishTx(ctx, tx, events.Event{
			Type: eventType,
			Payload: map[string]any{
				"subscription_id": subID.String(),
				"client_id":       sub.ClientID.String(),
				"from":            string(sub.Status),
				"to":              string(to),
			},
			DedupeKey: eventType + ":" + subID.String() + ":" + now.Format(time.RFC3339),
		}); err != nil {
			return err
		}
		target := subID.String()
		return s.audit.AuditLog(ctx, tx, s.actor(ctx), eventType, "subscription", &target, map[string]any{
			"from": string(sub.Status),
			"to":   string(to),
		})
	})
	if err != nil {
		return subdomain.Subscription{}, err
	}

	sub.Status = to
	sub.EndDate = endDate
	sub.UpdatedAt = now
	s.log.Info("subscription transition",
		zap.String("subscription_id", subID.String()),
		zap.String("to", string(to)),
	)
	return *sub, nil
}

func (s *Service) actor(ctx context.Context) string {
	if actor := obscontext.ActorFromContext(ctx); actor != "" {
		return actor
	}
	return auditdomain.ActorAdmin
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil {
		return 0, subdomain.ErrInvalidSubscriptionID
	}
	return id, nil
}
