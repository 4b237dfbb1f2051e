package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	feedomain "github.com/agentbill/agentbill/internal/fees/domain"
)

func (s *Server) ListFees(c *gin.Context) {
	var query struct {
		CustomerID string `form:"customer_id"`
		AgentID    string `form:"agent_id"`
		FeeType    string `form:"fee_type"`
		ActiveOnly bool   `form:"active_only"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := feedomain.ListFeeRequest{
		FeeType:    strings.TrimSpace(query.FeeType),
		ActiveOnly: query.ActiveOnly,
	}

	if raw := strings.TrimSpace(query.CustomerID); raw != "" {
		customer, err := s.customerSvc.Resolve(c.Request.Context(), raw)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		req.CustomerID = customer.ID.String()
	}
	if raw := strings.TrimSpace(query.AgentID); raw != "" {
		agent, err := s.agentSvc.Resolve(c.Request.Context(), raw)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		req.AgentID = agent.ID.String()
	}

	resp, err := s.feeSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// RenewDueFees triggers the platform fee sweep on demand, outside the
// scheduler's cadence.
func (s *Server) RenewDueFees(c *gin.Context) {
	resp, err := s.feeSvc.RenewDueFees(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isFeeValidationError(err error) bool {
	switch err {
	case feedomain.ErrInvalidID,
		feedomain.ErrInvalidAmount,
		feedomain.ErrInvalidCycle,
		feedomain.ErrInvalidAnchor,
		feedomain.ErrInvalidFeeType:
		return true
	default:
		return false
	}
}
