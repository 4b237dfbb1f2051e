package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/agentbill/agentbill/internal/clock"
	"github.com/agentbill/agentbill/internal/fees/domain"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("fees.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) ChargeSetupFee(ctx context.Context, req domain.ChargeSetupFeeRequest) (*domain.FeeTransaction, error) {
	if req.CustomerID == 0 || req.AgentID == 0 {
		return nil, domain.ErrInvalidID
	}
	if req.AmountCents < 0 {
		return nil, domain.ErrInvalidAmount
	}

	charged, err := s.repo.HasAny(ctx, s.db, req.CustomerID, req.AgentID, domain.FeeTypeSetup)
	if err != nil {
		return nil, err
	}
	if charged {
		return nil, nil
	}

	now := s.clock.Now()
	fee := domain.FeeTransaction{
		ID:               s.genID.Generate(),
		CustomerID:       req.CustomerID,
		AgentID:          req.AgentID,
		FeeType:          domain.FeeTypeSetup,
		AmountCents:      req.AmountCents,
		TransactionDate:  now,
		BillingAnchorDay: 1,
		BillingTimezone:  "UTC",
		IsActive:         true,
		Metadata:         toJSONMap(req.Metadata),
		CreatedAt:        now,
	}
	if err := s.repo.Insert(ctx, s.db, &fee); err != nil {
		return nil, err
	}
	return &fee, nil
}

func (s *Service) ChargePlatformFee(ctx context.Context, req domain.ChargePlatformFeeRequest) (*domain.FeeTransaction, error) {
	if req.CustomerID == 0 || req.AgentID == 0 {
		return nil, domain.ErrInvalidID
	}
	if req.AmountCents < 0 {
		return nil, domain.ErrInvalidAmount
	}
	if !req.BillingCycle.Valid() {
		return nil, domain.ErrInvalidCycle
	}

	active, err := s.repo.FindActive(ctx, s.db, req.CustomerID, req.AgentID, domain.FeeTypePlatform)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, nil
	}

	now := s.clock.Now()
	anchorDay := req.BillingAnchorDay
	if anchorDay == 0 {
		anchorDay = now.Day()
	}
	if anchorDay < 1 || anchorDay > 31 {
		return nil, domain.ErrInvalidAnchor
	}
	timezone := strings.TrimSpace(req.BillingTimezone)
	if timezone == "" {
		timezone = "UTC"
	}

	next := domain.NextBillingDate(now, req.BillingCycle, anchorDay, timezone)
	fee := domain.FeeTransaction{
		ID:               s.genID.Generate(),
		CustomerID:       req.CustomerID,
		AgentID:          req.AgentID,
		FeeType:          domain.FeeTypePlatform,
		AmountCents:      req.AmountCents,
		BillingCycle:     req.BillingCycle,
		TransactionDate:  now,
		BillingAnchorDay: anchorDay,
		BillingTimezone:  timezone,
		NextBillingDate:  &next,
		IsActive:         true,
		Metadata:         toJSONMap(req.Metadata),
		CreatedAt:        now,
	}
	if err := s.repo.Insert(ctx, s.db, &fee); err != nil {
		return nil, err
	}
	return &fee, nil
}

func (s *Service) ShouldChargePlatformFee(ctx context.Context, customerID, agentID snowflake.ID) (bool, error) {
	active, err := s.repo.FindActive(ctx, s.db, customerID, agentID, domain.FeeTypePlatform)
	if err != nil {
		return false, err
	}
	if active == nil {
		return true, nil
	}
	if active.NextBillingDate == nil {
		return false, nil
	}
	return !active.NextBillingDate.After(s.clock.Now()), nil
}

func (s *Service) RenewDueFees(ctx context.Context) (domain.RenewalResult, error) {
	now := s.clock.Now()
	due, err := s.repo.FindDuePlatformFees(ctx, s.db, now)
	if err != nil {
		return domain.RenewalResult{}, err
	}

	var result domain.RenewalResult
	for i := range due {
		fee := due[i].FeeTransaction
		if !due[i].PlatformFeeEnabled {
			// Disabled agents freeze: the due row stays active and
			// untouched rather than being refunded or voided.
			result.Skipped++
			continue
		}
		if fee.NextBillingDate == nil {
			result.Skipped++
			continue
		}

		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			ok, err := s.repo.Deactivate(ctx, tx, fee.ID)
			if err != nil {
				return err
			}
			if !ok {
				result.Skipped++
				return nil
			}

			// The successor bills from the due date, not the sweep time,
			// so late sweeps do not drift the anchor.
			chargedAt := *fee.NextBillingDate
			next := domain.NextBillingDate(chargedAt, fee.BillingCycle, fee.BillingAnchorDay, fee.BillingTimezone)
			previousID := fee.ID
			successor := domain.FeeTransaction{
				ID:                    s.genID.Generate(),
				CustomerID:            fee.CustomerID,
				AgentID:               fee.AgentID,
				FeeType:               domain.FeeTypePlatform,
				AmountCents:           fee.AmountCents,
				BillingCycle:          fee.BillingCycle,
				TransactionDate:       chargedAt,
				BillingAnchorDay:      fee.BillingAnchorDay,
				BillingTimezone:       fee.BillingTimezone,
				NextBillingDate:       &next,
				PreviousTransactionID: &previousID,
				IsActive:              true,
				Metadata:              fee.Metadata,
				CreatedAt:             now,
			}
			if err := s.repo.Insert(ctx, tx, &successor); err != nil {
				return err
			}
			result.Renewed++
			return nil
		})
		if err != nil {
			s.log.Error("platform fee renewal failed",
				zap.String("fee_id", fee.ID.String()),
				zap.Error(err),
			)
			return result, err
		}
	}

	return result, nil
}

func (s *Service) List(ctx context.Context, req domain.ListFeeRequest) ([]domain.FeeTransaction, error) {
	filter := domain.ListFeeFilter{ActiveOnly: req.ActiveOnly}

	if raw := strings.TrimSpace(req.CustomerID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil || id == 0 {
			return nil, domain.ErrInvalidID
		}
		filter.CustomerID = id
	}
	if raw := strings.TrimSpace(req.AgentID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil || id == 0 {
			return nil, domain.ErrInvalidID
		}
		filter.AgentID = id
	}
	if raw := strings.TrimSpace(req.FeeType); raw != "" {
		feeType := domain.FeeType(raw)
		if feeType != domain.FeeTypeSetup && feeType != domain.FeeTypePlatform {
			return nil, domain.ErrInvalidFeeType
		}
		filter.FeeType = feeType
	}

	return s.repo.List(ctx, s.db, filter)
}

func toJSONMap(m map[string]any) datatypes.JSONMap {
	if m == nil {
		return datatypes.JSONMap{}
	}
	return datatypes.JSONMap(m)
}
