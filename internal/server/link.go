package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	linkdomain "github.com/agentbill/agentbill/internal/link/domain"
)

type linkRequest struct {
	CustomerID string `json:"customer_id"`
	AgentID    string `json:"agent_id"`
}

func (s *Server) CreateLink(c *gin.Context) {
	var req linkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.linkSvc.Link(c.Request.Context(), linkdomain.LinkRequest{
		CustomerID: strings.TrimSpace(req.CustomerID),
		AgentID:    strings.TrimSpace(req.AgentID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteLink(c *gin.Context) {
	var req linkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	err := s.linkSvc.Unlink(c.Request.Context(), linkdomain.LinkRequest{
		CustomerID: strings.TrimSpace(req.CustomerID),
		AgentID:    strings.TrimSpace(req.AgentID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"unlinked": true}})
}

func (s *Server) ListCustomerLinks(c *gin.Context) {
	resp, err := s.linkSvc.ListByCustomer(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListAgentLinks(c *gin.Context) {
	resp, err := s.linkSvc.ListByAgent(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isLinkValidationError(err error) bool {
	switch err {
	case linkdomain.ErrInvalidID:
		return true
	default:
		return false
	}
}
