package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	auditdomain "github.com/spediralabs/spedira/internal/audit/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type RecorderParam struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo auditdomain.Repository
}

type recorder struct {
	db   *gorm.DB
	log  *zap.Logger
	repo auditdomain.Repository
}

func NewRecorder(p RecorderParam) auditdomain.Recorder {
	return &recorder{
		db:   p.DB,
		log:  p.Log.Named("audit.recorder"),
		repo: p.Repo,
	}
}

// Record appends one event. Failures are logged and swallowed; audit
// logging must never fail or roll back the mutation that triggered it.
func (r *recorder) Record(ctx context.Context, eventType auditdomain.EventType, priceListID, actorID *snowflake.ID, message string, metadata map[string]any, severity auditdomain.Severity) {
	event := r.newEvent(eventType, priceListID, actorID, message, severity)
	if metadata != nil {
		event.Metadata = datatypes.JSONMap(metadata)
	}
	r.append(ctx, event)
}

func (r *recorder) RecordChange(ctx context.Context, eventType auditdomain.EventType, priceListID, actorID *snowflake.ID, message string, oldValue, newValue map[string]any) {
	event := r.newEvent(eventType, priceListID, actorID, message, auditdomain.SeverityInfo)
	if oldValue != nil {
		event.OldValue = datatypes.JSONMap(oldValue)
	}
	if newValue != nil {
		event.NewValue = datatypes.JSONMap(newValue)
	}
	r.append(ctx, event)
}

func (r *recorder) ListEvents(ctx context.Context, priceListID snowflake.ID, filter auditdomain.ListFilter) (*auditdomain.ListResult, error) {
	events, total, err := r.repo.List(ctx, r.db, priceListID, filter)
	if err != nil {
		return nil, err
	}
	return &auditdomain.ListResult{Events: events, TotalCount: total}, nil
}

func (r *recorder) newEvent(eventType auditdomain.EventType, priceListID, actorID *snowflake.ID, message string, severity auditdomain.Severity) *auditdomain.AuditEvent {
	actorType := auditdomain.ActorSystem
	if actorID != nil {
		actorType = auditdomain.ActorUser
	}
	now := time.Now().UTC()
	return &auditdomain.AuditEvent{
		ID:          ulid.Make().String(),
		EventType:   eventType,
		Severity:    severity,
		PriceListID: priceListID,
		ActorID:     actorID,
		ActorType:   actorType,
		Message:     message,
		CreatedAt:   now,
	}
}

func (r *recorder) append(ctx context.Context, event *auditdomain.AuditEvent) {
	if err := r.repo.Insert(ctx, r.db, event); err != nil {
		r.log.Error("failed to append audit event",
			zap.String("event_type", string(event.EventType)),
			zap.Error(err),
		)
	}
}
