// Package domain defines the immutable audit trail for price-list
// mutations and comparison decisions.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type EventType string

const (
	EventPriceListCloned   EventType = "price_list_cloned"
	EventEntriesUpserted   EventType = "price_list_entries_upserted"
	EventEntryDeleted      EventType = "price_list_entry_deleted"
	EventAssignmentCreated EventType = "price_list_assigned"
	EventAssignmentRevoked EventType = "price_list_assignment_revoked"
	EventComparisonDecided EventType = "rate_comparison_decided"
	EventCacheInvalidated  EventType = "master_cache_invalidated"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

type ActorType string

const (
	ActorUser   ActorType = "user"
	ActorSystem ActorType = "system"
)

// AuditEvent is append-only. Rows are never updated or deleted.
type AuditEvent struct {
	// ID is a ULID so events sort lexicographically by creation time.
	ID          string            `gorm:"primaryKey;type:text" json:"id"`
	EventType   EventType         `gorm:"type:text;not null;index" json:"event_type"`
	Severity    Severity          `gorm:"type:text;not null" json:"severity"`
	PriceListID *snowflake.ID     `gorm:"index" json:"price_list_id,omitempty"`
	ActorID     *snowflake.ID     `gorm:"index" json:"actor_id,omitempty"`
	ActorType   ActorType         `gorm:"type:text;not null" json:"actor_type"`
	Message     string            `gorm:"type:text" json:"message"`
	OldValue    datatypes.JSONMap `gorm:"type:jsonb" json:"old_value,omitempty"`
	NewValue    datatypes.JSONMap `gorm:"type:jsonb" json:"new_value,omitempty"`
	Metadata    datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt   time.Time         `gorm:"not null;index" json:"created_at"`
}

func (AuditEvent) TableName() string { return "audit_events" }

type ListFilter struct {
	EventTypes []EventType
	ActorID    *snowflake.ID
	Limit      int
	Offset     int
}

type ListResult struct {
	Events     []AuditEvent `json:"events"`
	TotalCount int64        `json:"total_count"`
}

// Recorder appends events best-effort: a failed append is logged locally
// and must never fail the primary mutation.
type Recorder interface {
	Record(ctx context.Context, eventType EventType, priceListID *snowflake.ID, actorID *snowflake.ID, message string, metadata map[string]any, severity Severity)
	RecordChange(ctx context.Context, eventType EventType, priceListID *snowflake.ID, actorID *snowflake.ID, message string, oldValue, newValue map[string]any)
	ListEvents(ctx context.Context, priceListID snowflake.ID, filter ListFilter) (*ListResult, error)
}
