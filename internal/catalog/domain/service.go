package domain

import (
	"context"
	"errors"

	"github.com/agentbill/agentbill/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
)

type ListModelRequest struct {
	PageToken string
	PageSize  int32
	Active    *bool
}

type ListModelFilter struct {
	Active *bool
}

type ListModelResponse struct {
	pagination.PageInfo
	Models []ValidModel `json:"models"`
}

type CreateModelRequest struct {
	Model                      string
	InputCostPer1MTokensCents  int64
	OutputCostPer1MTokensCents int64
}

type UpdateModelRequest struct {
	ID                         string
	InputCostPer1MTokensCents  int64
	OutputCostPer1MTokensCents int64
	Active                     *bool
}

// Rate is the pricing snapshot used by the metering pipeline.
type Rate struct {
	ModelID                    snowflake.ID
	Model                      string
	InputCostPer1MTokensCents  int64
	OutputCostPer1MTokensCents int64
}

type Service interface {
	Create(context.Context, CreateModelRequest) (ValidModel, error)
	Update(context.Context, UpdateModelRequest) (ValidModel, error)
	List(context.Context, ListModelRequest) (ListModelResponse, error)
	GetByID(context.Context, string) (ValidModel, error)
	// LookupRate returns the active rate for a model identifier. Unknown and
	// inactive models both report ErrModelNotFound.
	LookupRate(context.Context, string) (Rate, error)
	Delete(context.Context, string) error
}

var (
	ErrInvalidModel  = errors.New("invalid_model")
	ErrInvalidRate   = errors.New("invalid_rate")
	ErrInvalidID     = errors.New("invalid_id")
	ErrModelTaken    = errors.New("model_taken")
	ErrModelNotFound = errors.New("model_not_found")
)
