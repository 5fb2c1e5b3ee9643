package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type ReadinessState string

const (
	ReadinessStateReady    ReadinessState = "ready"
	ReadinessStateNotReady ReadinessState = "not_ready"
)

type ReadinessIssue struct {
	ID       string            `json:"id"`
	Status   ReadinessState    `json:"status"`
	Evidence map[string]string `json:"evidence,omitempty"`
}

type ReadinessResponse struct {
	SystemState ReadinessState   `json:"system_state"`
	Issues      []ReadinessIssue `json:"issues"`
}

// GetSystemReadiness exposes a system-level readiness endpoint for
// control-plane orchestration.
func (s *Server) GetSystemReadiness(c *gin.Context) {
	ctx := c.Request.Context()

	issues := make([]ReadinessIssue, 0, 2)
	isReady := true

	var one int
	if err := s.db.WithContext(ctx).Raw(`SELECT 1`).Scan(&one).Error; err != nil {
		isReady = false
		issues = append(issues, ReadinessIssue{
			ID:       "database",
			Status:   ReadinessStateNotReady,
			Evidence: map[string]string{"error": err.Error()},
		})
	} else {
		issues = append(issues, ReadinessIssue{ID: "database", Status: ReadinessStateReady})
	}

	// The cache degrades to the loader when redis is down, so a cache
	// failure is evidence but never flips overall readiness.
	if _, err := s.cache.Get(ctx, 0); err != nil {
		issues = append(issues, ReadinessIssue{
			ID:       "master_cache",
			Status:   ReadinessStateNotReady,
			Evidence: map[string]string{"error": err.Error()},
		})
	} else {
		issues = append(issues, ReadinessIssue{ID: "master_cache", Status: ReadinessStateReady})
	}

	state := ReadinessStateReady
	status := http.StatusOK
	if !isReady {
		state = ReadinessStateNotReady
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, ReadinessResponse{SystemState: state, Issues: issues})
}
