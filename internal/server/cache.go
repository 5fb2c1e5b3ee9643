package server

import (
	"github.com/gin-gonic/gin"
	auditdomain "github.com/spediralabs/spedira/internal/audit/domain"
)

// InvalidateMasterCache handles POST /api/v1/admin/cache/invalidate.
// Invalidation is global; the next resolution rebuilds from the store.
func (s *Server) InvalidateMasterCache(c *gin.Context) {
	if err := s.cache.Invalidate(c.Request.Context()); err != nil {
		AbortWithError(c, err)
		return
	}

	if account := accountFrom(c); account != nil {
		id := account.ID
		s.auditSvc.Record(c.Request.Context(), auditdomain.EventCacheInvalidated, nil, &id,
			"master list cache invalidated", nil, auditdomain.SeverityInfo)
	} else {
		s.auditSvc.Record(c.Request.Context(), auditdomain.EventCacheInvalidated, nil, nil,
			"master list cache invalidated", nil, auditdomain.SeverityInfo)
	}

	respondData(c, gin.H{"invalidated": true})
}
