package service

import (
	"context"
	"strings"
	"time"

	auditdomain "github.com/ataboardhq/ataboard/internal/audit/domain"
	obscontext "github.com/ataboardhq/ataboard/internal/observability/context"
	"github.com/ataboardhq/ataboard/internal/observability/logger"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
}

func NewService(p Params) auditdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
	}
}

func (s *Service) AuditLog(
	ctx context.Context,
	tx *gorm.DB,
	actor string,
	action string,
	targetType string,
	targetID *string,
	metadata map[string]any,
) error {
	db := tx
	if db == nil {
		db = s.db
	}

	actor = strings.TrimSpace(actor)
	if actor == "" {
		actor = auditdomain.ActorSystem
	}

	entry := auditdomain.AuditLog{
		ID:         s.genID.Generate(),
		Actor:      actor,
		Action:     strings.TrimSpace(action),
		TargetType: strings.TrimSpace(targetType),
		TargetID:   targetID,
		Metadata:   datatypes.JSONMap(logger.MaskJSON(metadata)),
		CreatedAt:  time.Now().UTC(),
	}
	if entry.Metadata == nil {
		entry.Metadata = datatypes.JSONMap{}
	}
	if requestID := obscontext.RequestIDFromContext(ctx); requestID != "" {
		entry.RequestID = &requestID
	}

	if err := db.WithContext(ctx).Create(&entry).Error; err != nil {
		s.log.Warn("failed to write audit log",
			zap.String("action", entry.Action),
			zap.Error(err),
		)
		return err
	}
	return nil
}
