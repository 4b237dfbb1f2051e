package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	meteringdomain "github.com/agentbill/agentbill/internal/metering/domain"
)

func (s *Server) RecordTokenUsage(c *gin.Context) {
	var req meteringdomain.RecordTokenUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.meteringSvc.RecordTokenUsage(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type recordTokenUsageBatchRequest struct {
	Entries []meteringdomain.RecordTokenUsageRequest `json:"entries"`
}

func (s *Server) RecordTokenUsageBatch(c *gin.Context) {
	var req recordTokenUsageBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if len(req.Entries) == 0 {
		AbortWithError(c, newValidationError("entries", "invalid_entries", "entries must not be empty"))
		return
	}

	// Serialize batches per customer/agent pair so interleaved retries
	// cannot double-record. The first entry keys the lock.
	first := req.Entries[0]
	token, ok, err := s.ingestLimiter.TryLockBatch(c.Request.Context(), first.CustomerID, first.AgentID)
	if err != nil {
		s.log.Warn("batch ingest lock failed", zap.Error(err))
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	if !ok {
		c.Header("Retry-After", "1")
		AbortWithError(c, ErrRateLimited)
		return
	}
	if token != "" {
		defer func() {
			if err := s.ingestLimiter.ReleaseBatch(c.Request.Context(), first.CustomerID, first.AgentID, token); err != nil {
				s.log.Warn("batch ingest lock release failed", zap.Error(err))
			}
		}()
	}

	resp, err := s.meteringSvc.RecordTokenUsageBatch(c.Request.Context(), req.Entries)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RecordSignalCall(c *gin.Context) {
	var req meteringdomain.RecordSignalCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.meteringSvc.RecordSignalCall(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListTokenUsage(c *gin.Context) {
	req, err := s.bindUsageListQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.meteringSvc.ListTokenUsage(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListSignalCalls(c *gin.Context) {
	req, err := s.bindUsageListQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.meteringSvc.ListSignalCalls(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) bindUsageListQuery(c *gin.Context) (meteringdomain.ListUsageRequest, error) {
	var query struct {
		CustomerID string `form:"customer_id"`
		AgentID    string `form:"agent_id"`
		StartDate  string `form:"start_date"`
		EndDate    string `form:"end_date"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		return meteringdomain.ListUsageRequest{}, invalidRequestError()
	}
	if strings.TrimSpace(query.CustomerID) == "" {
		return meteringdomain.ListUsageRequest{}, newValidationError("customer_id", "invalid_customer_id", "customer_id is required")
	}

	from, err := parseOptionalTime(query.StartDate, false)
	if err != nil {
		return meteringdomain.ListUsageRequest{}, newValidationError("start_date", "invalid_start_date", "invalid start_date")
	}
	to, err := parseOptionalTime(query.EndDate, true)
	if err != nil {
		return meteringdomain.ListUsageRequest{}, newValidationError("end_date", "invalid_end_date", "invalid end_date")
	}

	return meteringdomain.ListUsageRequest{
		CustomerID: strings.TrimSpace(query.CustomerID),
		AgentID:    strings.TrimSpace(query.AgentID),
		From:       from,
		To:         to,
	}, nil
}

func isMeteringValidationError(err error) bool {
	switch err {
	case meteringdomain.ErrInvalidTokens:
		return true
	default:
		return false
	}
}
