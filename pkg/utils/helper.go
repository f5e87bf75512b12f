package utils

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aldoetobex/storefront-web/pkg/models"
)

// LogAdminAction inserts an audit record into admin_audits.
// Used to track catalog and account changes made from the admin screens.
// Errors are ignored on purpose (best-effort logging).
func LogAdminAction(
	ctx context.Context,
	db *gorm.DB,
	actorID uuid.UUID,
	entityType string,
	entityID uuid.UUID,
	action, detail string,
) {
	_ = db.WithContext(ctx).Create(&models.AdminAudit{
		ActorID:    actorID,
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Detail:     detail,
		CreatedAt:  time.Now(),
	}).Error
}
