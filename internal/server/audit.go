package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	auditdomain "github.com/spediralabs/spedira/internal/audit/domain"
)

// ListAuditEvents handles GET /api/v1/price-lists/:id/audit
func (s *Server) ListAuditEvents(c *gin.Context) {
	listID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	filter := auditdomain.ListFilter{}
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			AbortWithError(c, newValidationError("limit", "invalid_limit", "invalid limit"))
			return
		}
		filter.Limit = limit
	}
	if raw := strings.TrimSpace(c.Query("offset")); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			AbortWithError(c, newValidationError("offset", "invalid_offset", "invalid offset"))
			return
		}
		filter.Offset = offset
	}
	if raw := strings.TrimSpace(c.Query("event_types")); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			filter.EventTypes = append(filter.EventTypes, auditdomain.EventType(strings.TrimSpace(t)))
		}
	}
	if raw := strings.TrimSpace(c.Query("actor_id")); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, newValidationError("actor_id", "invalid_id", "invalid actor id"))
			return
		}
		filter.ActorID = &id
	}

	result, err := s.auditSvc.ListEvents(c.Request.Context(), listID, filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondData(c, result)
}

// ExportAuditEvents handles GET /api/v1/admin/audit/export
func (s *Server) ExportAuditEvents(c *gin.Context) {
	startDateStr := strings.TrimSpace(c.Query("start_date"))
	endDateStr := strings.TrimSpace(c.Query("end_date"))
	formatStr := strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", "csv")))

	if startDateStr == "" || endDateStr == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	startDate, err := time.Parse("2006-01-02", startDateStr)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	endDate, err := time.Parse("2006-01-02", endDateStr)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	// End date is exclusive end of day.
	endDate = endDate.Add(24 * time.Hour)
	if endDate.Before(startDate) {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	// Exports are capped at 90 days per request.
	if endDate.Sub(startDate) > 90*24*time.Hour {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var format auditdomain.ExportFormat
	switch formatStr {
	case "csv":
		format = auditdomain.ExportFormatCSV
	case "json":
		format = auditdomain.ExportFormatJSON
	default:
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	req := auditdomain.ExportRequest{
		StartDate: startDate,
		EndDate:   endDate,
		Format:    format,
	}

	if raw := strings.TrimSpace(c.Query("price_list_id")); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, newValidationError("price_list_id", "invalid_id", "invalid price list id"))
			return
		}
		req.PriceListID = &id
	}
	if raw := strings.TrimSpace(c.Query("event_types")); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			req.EventTypes = append(req.EventTypes, auditdomain.EventType(strings.TrimSpace(t)))
		}
	}

	result, err := s.auditExport.Export(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	filename := "audit_export_" + startDateStr + "_" + endDateStr + "." + string(result.Format)
	contentType := "text/csv"
	if result.Format == auditdomain.ExportFormatJSON {
		contentType = "application/json"
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("X-Export-Checksum", result.Checksum)
	c.Header("X-Export-Count", strconv.Itoa(result.Count))
	c.Data(http.StatusOK, contentType, result.Data)
}
