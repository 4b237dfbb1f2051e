package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	agentdomain "github.com/agentbill/agentbill/internal/agent/domain"
	"github.com/agentbill/agentbill/pkg/db/pagination"
)

type signalRequest struct {
	Slug                string `json:"slug"`
	Name                string `json:"name"`
	SignalType          string `json:"signal_type"`
	PricePerCallCents   int64  `json:"price_per_call_cents"`
	OutcomePriceCents   int64  `json:"outcome_price_cents"`
	CreditsPerCallCents int64  `json:"credits_per_call_cents"`
}

type createAgentRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`

	SetupFeeEnabled         bool   `json:"setup_fee_enabled"`
	SetupFeeCents           int64  `json:"setup_fee_cents"`
	PlatformFeeEnabled      bool   `json:"platform_fee_enabled"`
	PlatformFeeCents        int64  `json:"platform_fee_cents"`
	PlatformFeeBillingCycle string `json:"platform_fee_billing_cycle"`

	Signals  []signalRequest `json:"signals"`
	Metadata map[string]any  `json:"metadata"`
}

func (s *Server) CreateAgent(c *gin.Context) {
	var req createAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.agentSvc.Create(c.Request.Context(), agentdomain.CreateAgentRequest{
		Name:                    strings.TrimSpace(req.Name),
		Slug:                    strings.TrimSpace(req.Slug),
		SetupFeeEnabled:         req.SetupFeeEnabled,
		SetupFeeCents:           req.SetupFeeCents,
		PlatformFeeEnabled:      req.PlatformFeeEnabled,
		PlatformFeeCents:        req.PlatformFeeCents,
		PlatformFeeBillingCycle: agentdomain.BillingCycle(req.PlatformFeeBillingCycle),
		Signals:                 toSignalInputs(req.Signals),
		Metadata:                req.Metadata,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListAgents(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Name string `form:"name"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.agentSvc.List(c.Request.Context(), agentdomain.ListAgentRequest{
		PageToken: query.PageToken,
		PageSize:  int32(query.PageSize),
		Name:      strings.TrimSpace(query.Name),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetAgentByID(c *gin.Context) {
	agent, err := s.agentSvc.Resolve(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.agentSvc.GetByID(c.Request.Context(), agent.ID.String())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateAgentRequest struct {
	Name string `json:"name"`

	SetupFeeEnabled         bool   `json:"setup_fee_enabled"`
	SetupFeeCents           int64  `json:"setup_fee_cents"`
	PlatformFeeEnabled      bool   `json:"platform_fee_enabled"`
	PlatformFeeCents        int64  `json:"platform_fee_cents"`
	PlatformFeeBillingCycle string `json:"platform_fee_billing_cycle"`

	Signals  []signalRequest `json:"signals"`
	Metadata map[string]any  `json:"metadata"`
}

func (s *Server) UpdateAgent(c *gin.Context) {
	var req updateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	agent, err := s.agentSvc.Resolve(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.agentSvc.Update(c.Request.Context(), agentdomain.UpdateAgentRequest{
		ID:                      agent.ID.String(),
		Name:                    strings.TrimSpace(req.Name),
		SetupFeeEnabled:         req.SetupFeeEnabled,
		SetupFeeCents:           req.SetupFeeCents,
		PlatformFeeEnabled:      req.PlatformFeeEnabled,
		PlatformFeeCents:        req.PlatformFeeCents,
		PlatformFeeBillingCycle: agentdomain.BillingCycle(req.PlatformFeeBillingCycle),
		Signals:                 toSignalInputs(req.Signals),
		Metadata:                req.Metadata,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteAgent(c *gin.Context) {
	agent, err := s.agentSvc.Resolve(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.agentSvc.Delete(c.Request.Context(), agent.ID.String()); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}

func toSignalInputs(reqs []signalRequest) []agentdomain.SignalInput {
	if reqs == nil {
		return nil
	}
	inputs := make([]agentdomain.SignalInput, 0, len(reqs))
	for _, req := range reqs {
		inputs = append(inputs, agentdomain.SignalInput{
			Slug:                strings.TrimSpace(req.Slug),
			Name:                strings.TrimSpace(req.Name),
			SignalType:          agentdomain.SignalType(req.SignalType),
			PricePerCallCents:   req.PricePerCallCents,
			OutcomePriceCents:   req.OutcomePriceCents,
			CreditsPerCallCents: req.CreditsPerCallCents,
		})
	}
	return inputs
}

func isAgentValidationError(err error) bool {
	switch err {
	case agentdomain.ErrInvalidName,
		agentdomain.ErrInvalidSlug,
		agentdomain.ErrInvalidID,
		agentdomain.ErrInvalidSignalType,
		agentdomain.ErrInvalidBillingCycle,
		agentdomain.ErrInvalidFeeAmount:
		return true
	default:
		return false
	}
}
