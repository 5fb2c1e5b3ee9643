package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/spediralabs/spedira/internal/audit/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() auditdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, event *auditdomain.AuditEvent) error {
	return db.WithContext(ctx).Create(event).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, priceListID snowflake.ID, filter auditdomain.ListFilter) ([]auditdomain.AuditEvent, int64, error) {
	query := db.WithContext(ctx).
		Model(&auditdomain.AuditEvent{}).
		Where("price_list_id = ?", priceListID)

	if len(filter.EventTypes) > 0 {
		query = query.Where("event_type IN ?", filter.EventTypes)
	}
	if filter.ActorID != nil {
		query = query.Where("actor_id = ?", *filter.ActorID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	var events []auditdomain.AuditEvent
	err := query.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&events).Error
	if err != nil {
		return nil, 0, err
	}

	return events, total, nil
}
