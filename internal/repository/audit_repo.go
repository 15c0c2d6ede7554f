package repository

import (
	"context"

	"github.com/wayakart27/ecommerce-sub002/internal/models"

	"gorm.io/gorm"
)

type AuditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

func (r *AuditLogRepository) Create(ctx context.Context, l *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(l).Error
}

// ListByResource returns entries for one resource, newest first.
func (r *AuditLogRepository) ListByResource(ctx context.Context, resource, resourceID string) ([]models.AuditLog, error) {
	var list []models.AuditLog
	err := r.db.WithContext(ctx).Where("resource = ? AND resource_id = ?", resource, resourceID).
		Order("created_at DESC, id DESC").Find(&list).Error
	return list, err
}
