package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	auditdomain "github.com/spediralabs/spedira/internal/audit/domain"
	"github.com/spediralabs/spedira/internal/audit/repository"
	"github.com/spediralabs/spedira/internal/audit/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&auditdomain.AuditEvent{}))
	return db
}

func newRecorder(t *testing.T, db *gorm.DB) auditdomain.Recorder {
	t.Helper()
	return service.NewRecorder(service.RecorderParam{
		DB:   db,
		Log:  zap.NewNop(),
		Repo: repository.Provide(),
	})
}

func TestRecordAndList(t *testing.T) {
	db := setupDB(t)
	rec := newRecorder(t, db)
	ctx := context.Background()

	listID := snowflake.ID(42)
	actorID := snowflake.ID(7)

	rec.Record(ctx, auditdomain.EventPriceListCloned, &listID, &actorID, "cloned from master",
		map[string]any{"source_id": "1"}, auditdomain.SeverityInfo)
	rec.Record(ctx, auditdomain.EventEntriesUpserted, &listID, &actorID, "batch of 3",
		nil, auditdomain.SeverityInfo)
	rec.Record(ctx, auditdomain.EventEntriesUpserted, &listID, nil, "system sync",
		nil, auditdomain.SeverityWarning)

	res, err := rec.ListEvents(ctx, listID, auditdomain.ListFilter{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.TotalCount)
	require.Len(t, res.Events, 3)

	// Newest first.
	for i := 1; i < len(res.Events); i++ {
		assert.False(t, res.Events[i-1].CreatedAt.Before(res.Events[i].CreatedAt))
	}

	// Actor type derived from actor presence.
	var systemEvents int
	for _, e := range res.Events {
		if e.ActorType == auditdomain.ActorSystem {
			systemEvents++
		}
	}
	assert.Equal(t, 1, systemEvents)
}

func TestListFilters(t *testing.T) {
	db := setupDB(t)
	rec := newRecorder(t, db)
	ctx := context.Background()

	listID := snowflake.ID(1)
	alice := snowflake.ID(10)
	bob := snowflake.ID(11)

	rec.Record(ctx, auditdomain.EventPriceListCloned, &listID, &alice, "", nil, auditdomain.SeverityInfo)
	rec.Record(ctx, auditdomain.EventEntriesUpserted, &listID, &bob, "", nil, auditdomain.SeverityInfo)
	rec.Record(ctx, auditdomain.EventEntriesUpserted, &listID, &alice, "", nil, auditdomain.SeverityInfo)

	res, err := rec.ListEvents(ctx, listID, auditdomain.ListFilter{
		EventTypes: []auditdomain.EventType{auditdomain.EventEntriesUpserted},
		Limit:      10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.TotalCount)

	res, err = rec.ListEvents(ctx, listID, auditdomain.ListFilter{
		ActorID: &alice,
		Limit:   10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.TotalCount)
}

func TestListPagination(t *testing.T) {
	db := setupDB(t)
	rec := newRecorder(t, db)
	ctx := context.Background()

	listID := snowflake.ID(9)
	for i := 0; i < 5; i++ {
		rec.Record(ctx, auditdomain.EventEntriesUpserted, &listID, nil, "", nil, auditdomain.SeverityInfo)
	}

	res, err := rec.ListEvents(ctx, listID, auditdomain.ListFilter{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), res.TotalCount)
	assert.Len(t, res.Events, 2)

	res, err = rec.ListEvents(ctx, listID, auditdomain.ListFilter{Limit: 2, Offset: 4})
	require.NoError(t, err)
	assert.Len(t, res.Events, 1)
}

func TestRecordNeverFailsCaller(t *testing.T) {
	// Point the recorder at a database without the audit table: the append
	// fails internally and the caller proceeds.
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	rec := newRecorder(t, db)
	listID := snowflake.ID(1)

	assert.NotPanics(t, func() {
		rec.Record(context.Background(), auditdomain.EventPriceListCloned, &listID, nil, "", nil, auditdomain.SeverityInfo)
	})
}

func TestExportChecksumAndFormats(t *testing.T) {
	db := setupDB(t)
	rec := newRecorder(t, db)
	ctx := context.Background()

	listID := snowflake.ID(3)
	rec.Record(ctx, auditdomain.EventPriceListCloned, &listID, nil, "clone", nil, auditdomain.SeverityInfo)

	exporter := service.NewExportService(db)
	res, err := exporter.Export(ctx, auditdomain.ExportRequest{
		PriceListID: &listID,
		StartDate:   time.Now().Add(-time.Hour),
		EndDate:     time.Now().Add(time.Hour),
		Format:      auditdomain.ExportFormatCSV,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)
	assert.Len(t, res.Checksum, 64)
	assert.Contains(t, string(res.Data), "price_list_cloned")

	_, err = exporter.Export(ctx, auditdomain.ExportRequest{
		StartDate: time.Now().Add(-time.Hour),
		EndDate:   time.Now().Add(time.Hour),
		Format:    "xml",
	})
	assert.Error(t, err)
}
