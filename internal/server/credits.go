package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	creditdomain "github.com/agentbill/agentbill/internal/credits/domain"
)

type topUpCreditsRequest struct {
	CustomerID   string `json:"customer_id"`
	AgentID      string `json:"agent_id"`
	SignalID     string `json:"signal_id"`
	CreditsCents int64  `json:"credits_cents"`
	AmountCents  int64  `json:"amount_cents"`
}

func (s *Server) TopUpCredits(c *gin.Context) {
	var req topUpCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	customerID, agentID, signalID, err := s.resolveCreditScope(c, req.CustomerID, req.AgentID, req.SignalID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.creditSvc.Allocate(c.Request.Context(), creditdomain.AllocateRequest{
		CustomerID:   customerID,
		AgentID:      agentID,
		SignalID:     signalID,
		CreditsCents: req.CreditsCents,
		AmountCents:  req.AmountCents,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetCreditBalance(c *gin.Context) {
	customerID, agentID, signalID, err := s.resolveCreditScope(
		c,
		c.Query("customer_id"),
		c.Query("agent_id"),
		c.Query("signal_id"),
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.creditSvc.Balance(c.Request.Context(), creditdomain.BalanceRequest{
		CustomerID: customerID,
		AgentID:    agentID,
		SignalID:   signalID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListCustomerCredits(c *gin.Context) {
	customer, err := s.customerSvc.Resolve(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.creditSvc.ListAllocations(c.Request.Context(), customer.ID.String())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// resolveCreditScope normalizes slug identifiers to IDs before they reach
// the credit ledger, which deals in IDs only.
func (s *Server) resolveCreditScope(c *gin.Context, rawCustomer, rawAgent, rawSignal string) (string, string, string, error) {
	customer, err := s.customerSvc.Resolve(c.Request.Context(), strings.TrimSpace(rawCustomer))
	if err != nil {
		return "", "", "", err
	}
	agent, err := s.agentSvc.Resolve(c.Request.Context(), strings.TrimSpace(rawAgent))
	if err != nil {
		return "", "", "", err
	}
	signal, err := s.agentSvc.ResolveSignal(c.Request.Context(), agent.ID.String(), strings.TrimSpace(rawSignal))
	if err != nil {
		return "", "", "", err
	}
	return customer.ID.String(), agent.ID.String(), signal.ID.String(), nil
}

func isCreditValidationError(err error) bool {
	switch err {
	case creditdomain.ErrInvalidID,
		creditdomain.ErrInvalidAmount:
		return true
	default:
		return false
	}
}
