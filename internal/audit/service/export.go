package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/spediralabs/spedira/internal/audit/domain"
	"gorm.io/gorm"
)

type ExportService struct {
	db *gorm.DB
}

func NewExportService(db *gorm.DB) auditdomain.ExportService {
	return &ExportService{db: db}
}

func (s *ExportService) Export(ctx context.Context, req auditdomain.ExportRequest) (*auditdomain.ExportResult, error) {
	query := s.db.WithContext(ctx).Model(&auditdomain.AuditEvent{}).
		Where("created_at >= ? AND created_at < ?", req.StartDate, req.EndDate)

	if req.PriceListID != nil {
		query = query.Where("price_list_id = ?", *req.PriceListID)
	}
	if len(req.EventTypes) > 0 {
		query = query.Where("event_type IN ?", req.EventTypes)
	}

	var events []auditdomain.AuditEvent
	if err := query.Order("created_at ASC").Find(&events).Error; err != nil {
		return nil, err
	}

	var data []byte
	var err error

	switch req.Format {
	case auditdomain.ExportFormatCSV:
		data, err = s.formatCSV(events)
	case auditdomain.ExportFormatJSON:
		data, err = s.formatJSON(events)
	default:
		return nil, fmt.Errorf("unsupported export format: %s", req.Format)
	}
	if err != nil {
		return nil, err
	}

	// Checksum lets auditors verify export integrity offline.
	checksum := calculateChecksum(data)

	return &auditdomain.ExportResult{
		Data:     data,
		Checksum: checksum,
		Format:   req.Format,
		Count:    len(events),
	}, nil
}

func (s *ExportService) formatCSV(events []auditdomain.AuditEvent) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"timestamp",
		"event_type",
		"severity",
		"price_list_id",
		"actor_type",
		"actor_id",
		"message",
		"metadata",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, event := range events {
		metadataJSON, _ := json.Marshal(event.Metadata)

		row := []string{
			event.CreatedAt.Format(time.RFC3339),
			string(event.EventType),
			string(event.Severity),
			formatSnowflakeID(event.PriceListID),
			string(event.ActorType),
			formatSnowflakeID(event.ActorID),
			event.Message,
			string(metadataJSON),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (s *ExportService) formatJSON(events []auditdomain.AuditEvent) ([]byte, error) {
	type ExportRecord struct {
		Timestamp   string         `json:"timestamp"`
		EventType   string         `json:"event_type"`
		Severity    string         `json:"severity"`
		PriceListID string         `json:"price_list_id,omitempty"`
		ActorType   string         `json:"actor_type"`
		ActorID     string         `json:"actor_id,omitempty"`
		Message     string         `json:"message,omitempty"`
		Metadata    map[string]any `json:"metadata,omitempty"`
	}

	records := make([]ExportRecord, 0, len(events))
	for _, event := range events {
		records = append(records, ExportRecord{
			Timestamp:   event.CreatedAt.Format(time.RFC3339),
			EventType:   string(event.EventType),
			Severity:    string(event.Severity),
			PriceListID: formatSnowflakeID(event.PriceListID),
			ActorType:   string(event.ActorType),
			ActorID:     formatSnowflakeID(event.ActorID),
			Message:     event.Message,
			Metadata:    event.Metadata,
		})
	}

	return json.MarshalIndent(records, "", "  ")
}

func formatSnowflakeID(id *snowflake.ID) string {
	if id == nil || *id == 0 {
		return ""
	}
	return id.String()
}

func calculateChecksum(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
