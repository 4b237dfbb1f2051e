package domain

import (
	"context"
	"errors"

	"github.com/agentbill/agentbill/pkg/db/pagination"
)

type ListCustomerRequest struct {
	PageToken string
	PageSize  int32
	Name      string
}

type ListCustomerFilter struct {
	Name string
}

type ListCustomerResponse struct {
	pagination.PageInfo
	Customers []Customer `json:"customers"`
}

type CreateCustomerRequest struct {
	Name     string
	Slug     string
	Metadata map[string]any
}

type UpdateCustomerRequest struct {
	ID       string
	Name     string
	Metadata map[string]any
}

type Service interface {
	Create(context.Context, CreateCustomerRequest) (Customer, error)
	Update(context.Context, UpdateCustomerRequest) (Customer, error)
	List(context.Context, ListCustomerRequest) (ListCustomerResponse, error)
	GetByID(context.Context, string) (Customer, error)
	// Resolve accepts either a snowflake ID or a slug.
	Resolve(context.Context, string) (Customer, error)
	Delete(context.Context, string) error
}

var (
	ErrInvalidName = errors.New("invalid_name")
	ErrInvalidSlug = errors.New("invalid_slug")
	ErrInvalidID   = errors.New("invalid_id")
	ErrSlugTaken   = errors.New("slug_taken")
	ErrNotFound    = errors.New("not_found")
)
