package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	auditdomain "github.com/spediralabs/spedira/internal/audit/domain"
	"github.com/spediralabs/spedira/internal/observability"
	pricelistdomain "github.com/spediralabs/spedira/internal/pricelist/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// countingCache mirrors the cache-layer contract: the cache itself counts
// its invalidations, callers do not.
type countingCache struct {
	metrics     *observability.Metrics
	invalidated int
}

func (c *countingCache) Get(context.Context, snowflake.ID) (*pricelistdomain.PriceList, error) {
	return nil, nil
}

func (c *countingCache) Invalidate(context.Context) error {
	c.invalidated++
	c.metrics.CacheInvalidation.Inc()
	return nil
}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, auditdomain.EventType, *snowflake.ID, *snowflake.ID, string, map[string]any, auditdomain.Severity) {
}

func (nopRecorder) RecordChange(context.Context, auditdomain.EventType, *snowflake.ID, *snowflake.ID, string, map[string]any, map[string]any) {
}

func (nopRecorder) ListEvents(context.Context, snowflake.ID, auditdomain.ListFilter) (*auditdomain.ListResult, error) {
	return &auditdomain.ListResult{}, nil
}

func TestInvalidateMasterCacheCountsOnce(t *testing.T) {
	gin.SetMode(gin.TestMode)

	metrics := observability.NewMetrics()
	cache := &countingCache{metrics: metrics}
	srv := &Server{
		log:      zap.NewNop(),
		cache:    cache,
		metrics:  metrics,
		auditSvc: nopRecorder{},
	}

	router := gin.New()
	router.POST("/cache/invalidate", srv.InvalidateMasterCache)

	req := httptest.NewRequest(http.MethodPost, "/cache/invalidate", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 1, cache.invalidated)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.CacheInvalidation))
}
