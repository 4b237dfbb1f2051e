package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	profitabilitydomain "github.com/agentbill/agentbill/internal/profitability/domain"
)

func (s *Server) GetProfitability(c *gin.Context) {
	var query struct {
		CustomerID string `form:"customer_id"`
		AgentID    string `form:"agent_id"`
		StartDate  string `form:"start_date"`
		EndDate    string `form:"end_date"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	start, err := parseOptionalTime(query.StartDate, false)
	if err != nil {
		AbortWithError(c, newValidationError("start_date", "invalid_start_date", "invalid start_date"))
		return
	}
	end, err := parseOptionalTime(query.EndDate, true)
	if err != nil {
		AbortWithError(c, newValidationError("end_date", "invalid_end_date", "invalid end_date"))
		return
	}

	resp, err := s.profitabilitySvc.ComputeProfitability(c.Request.Context(), profitabilitydomain.ReportRequest{
		CustomerID: strings.TrimSpace(query.CustomerID),
		AgentID:    strings.TrimSpace(query.AgentID),
		StartDate:  start,
		EndDate:    end,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// parseOptionalTime accepts RFC 3339 timestamps or bare dates. Bare end
// dates cover the whole day.
func parseOptionalTime(value string, endOfDay bool) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}

	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t.UTC(), nil
}
