package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	catalogdomain "github.com/agentbill/agentbill/internal/catalog/domain"
	"github.com/agentbill/agentbill/pkg/db/pagination"
)

type createModelRequest struct {
	Model                      string `json:"model"`
	InputCostPer1MTokensCents  int64  `json:"input_cost_per_1m_tokens_cents"`
	OutputCostPer1MTokensCents int64  `json:"output_cost_per_1m_tokens_cents"`
}

func (s *Server) CreateModel(c *gin.Context) {
	var req createModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.catalogSvc.Create(c.Request.Context(), catalogdomain.CreateModelRequest{
		Model:                      strings.TrimSpace(req.Model),
		InputCostPer1MTokensCents:  req.InputCostPer1MTokensCents,
		OutputCostPer1MTokensCents: req.OutputCostPer1MTokensCents,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListModels(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Active *bool `form:"active"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.catalogSvc.List(c.Request.Context(), catalogdomain.ListModelRequest{
		PageToken: query.PageToken,
		PageSize:  int32(query.PageSize),
		Active:    query.Active,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetModelByID(c *gin.Context) {
	resp, err := s.catalogSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateModelRequest struct {
	InputCostPer1MTokensCents  int64 `json:"input_cost_per_1m_tokens_cents"`
	OutputCostPer1MTokensCents int64 `json:"output_cost_per_1m_tokens_cents"`
	Active                     *bool `json:"active"`
}

func (s *Server) UpdateModel(c *gin.Context) {
	var req updateModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.catalogSvc.Update(c.Request.Context(), catalogdomain.UpdateModelRequest{
		ID:                         c.Param("id"),
		InputCostPer1MTokensCents:  req.InputCostPer1MTokensCents,
		OutputCostPer1MTokensCents: req.OutputCostPer1MTokensCents,
		Active:                     req.Active,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteModel(c *gin.Context) {
	if err := s.catalogSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}

func isModelValidationError(err error) bool {
	switch err {
	case catalogdomain.ErrInvalidModel,
		catalogdomain.ErrInvalidRate,
		catalogdomain.ErrInvalidID:
		return true
	default:
		return false
	}
}
