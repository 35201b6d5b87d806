package domain

import (
	"context"

	"gorm.io/gorm"
)

// Service appends audit entries. tx may be nil, in which case the default
// connection is used.
type Service interface {
	AuditLog(ctx context.Context, tx *gorm.DB, actor string, action string, targetType string, targetID *string, metadata map[string]any) error
}
