package service

import (
	"context"
	"errors"
	"strings"
	"time"

	clientdomain "github.com/ataboardhq/ataboard/internal/client/domain"
	"github.com/ataboardhq/ataboard/internal/clock"
	"github.com/ataboardhq/ataboard/internal/events"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Repo   clientdomain.Repository
	Outbox *events.Outbox
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	clock  clock.Clock
	repo   clientdomain.Repository
	outbox *events.Outbox
}

func NewService(p Params) clientdomain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("client.service"),
		genID:  p.GenID,
		clock:  p.Clock,
		repo:   p.Repo,
		outbox: p.Outbox,
	}
}

func (s *Service) Create(ctx context.Context, req clientdomain.CreateClientRequest) (clientdomain.Client, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return clientdomain.Client{}, clientdomain.ErrInvalidName
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return clientdomain.Client{}, clientdomain.ErrInvalidEmail
	}
	taxID := normalizeTaxID(req.TaxID)
	if taxID == "" {
		return clientdomain.Client{}, clientdomain.ErrInvalidTaxID
	}

	now := s.clock.Now(ctx)
	client := clientdomain.Client{
		ID:        s.genID.Generate(),
		Name:      name,
		Email:     email,
		TaxID:     taxID,
		Address:   strings.TrimSpace(req.Address),
		Status:    clientdomain.ClientStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, s.db, &client); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return clientdomain.Client{}, clientdomain.ErrTaxIDTaken
		}
		return clientdomain.Client{}, err
	}
	return client, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (clientdomain.Client, error) {
	clientID, err := parseID(id)
	if err != nil {
		return clientdomain.Client{}, err
	}
	client, err := s.repo.FindByID(ctx, s.db, clientID)
	if err != nil {
		return clientdomain.Client{}, err
	}
	if client == nil {
		return clientdomain.Client{}, clientdomain.ErrClientNotFound
	}
	return *client, nil
}

func (s *Service) List(ctx context.Context, req clientdomain.ListClientRequest) ([]clientdomain.Client, error) {
	filter := clientdomain.ListFilter{}
	if raw := strings.TrimSpace(req.Status); raw != "" {
		status := clientdomain.ClientStatus(strings.ToUpper(raw))
		if status != clientdomain.ClientStatusActive && status != clientdomain.ClientStatusDelinquent {
			return nil, clientdomain.ErrInvalidStatus
		}
		filter.Status = status
	}
	return s.repo.List(ctx, s.db, filter)
}

func (s *Service) RecomputeStanding(ctx context.Context, clientID snowflake.ID) (clientdomain.ClientStatus, error) {
	var standing clientdomain.ClientStatus
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		standing, err = s.RecomputeStandingTx(ctx, tx, clientID)
		return err
	})
	return standing, err
}

func (s *Service) RecomputeStandingTx(ctx context.Context, tx *gorm.DB, clientID snowflake.ID) (clientdomain.ClientStatus, error) {
	overdue, err := s.repo.CountOverdueInvoices(ctx, tx, clientID)
	if err != nil {
		return "", err
	}

	standing := clientdomain.ClientStatusActive
	if overdue > 0 {
		standing = clientdomain.ClientStatusDelinquent
	}

	changed, err := s.repo.UpdateStanding(ctx, tx, clientID, standing, s.clock.Now(ctx))
	if err != nil {
		return "", err
	}
	if changed {
		payload := events.StandingPayload{
			ClientID: clientID.String(),
			Standing: string(standing),
		}
		if err := s.outbox.PublishTx(ctx, tx, events.Event{
			Type:      events.EventClientStandingChanged,
			Payload:   payload.ToMap(),
			DedupeKey: "standing:" + clientID.String() + ":" + string(standing) + ":" + s.clock.Now(ctx).Format(time.RFC3339),
		}); err != nil {
			return "", err
		}
		s.log.Info("client standing changed",
			zap.String("client_id", clientID.String()),
			zap.String("standing", string(standing)),
		)
	}
	return standing, nil
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil {
		return 0, clientdomain.ErrInvalidClientID
	}
	return id, nil
}

func normalizeTaxID(raw string) string {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() != 11 && digits.Len() != 14 {
		return ""
	}
	return digits.String()
}
