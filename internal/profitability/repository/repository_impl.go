package repository

import (
	"context"
	"strings"

	"github.com/agentbill/agentbill/internal/profitability/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

type sumRow struct {
	Total int64
	Count int64
}

func (r *repo) SumTokenCosts(ctx context.Context, db *gorm.DB, scope domain.Scope) (int64, int64, error) {
	where, args := scopeClause(scope, "recorded_at")
	var row sumRow
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(total_cost_cents), 0) AS total, COUNT(1) AS count
		 FROM token_usage `+where,
		args...,
	).Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	return row.Total, row.Count, nil
}

func (r *repo) SumSignalRevenue(ctx context.Context, db *gorm.DB, scope domain.Scope) (int64, int64, error) {
	where, args := scopeClause(scope, "recorded_at", `cost_type = 'monetary'`)
	var row sumRow
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(amount_cents), 0) AS total, COUNT(1) AS count
		 FROM signal_logs `+where,
		args...,
	).Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	return row.Total, row.Count, nil
}

func (r *repo) SumFees(ctx context.Context, db *gorm.DB, scope domain.Scope) (int64, int64, error) {
	where, args := scopeClause(scope, "transaction_date")

	var fees []struct {
		FeeType string
		Total   int64
	}
	err := db.WithContext(ctx).Raw(
		`SELECT fee_type, COALESCE(SUM(amount_cents), 0) AS total
		 FROM fee_transactions `+where+`
		 GROUP BY fee_type`,
		args...,
	).Scan(&fees).Error
	if err != nil {
		return 0, 0, err
	}

	var setup, platform int64
	for _, fee := range fees {
		switch fee.FeeType {
		case "setup":
			setup = fee.Total
		case "platform":
			platform = fee.Total
		}
	}
	return setup, platform, nil
}

func (r *repo) SumCreditPurchases(ctx context.Context, db *gorm.DB, scope domain.Scope) (int64, error) {
	where, args := scopeClause(scope, "purchased_at")
	var row sumRow
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(amount_cents), 0) AS total
		 FROM credit_purchases `+where,
		args...,
	).Scan(&row).Error
	if err != nil {
		return 0, err
	}
	return row.Total, nil
}

// scopeClause builds the shared WHERE clause. Zero time bounds leave that
// side of the period open, so an unscoped all-time query yields no WHERE
// at all.
func scopeClause(scope domain.Scope, dateColumn string, extra ...string) (string, []any) {
	var conds []string
	var args []any
	if !scope.From.IsZero() {
		conds = append(conds, dateColumn+` >= ?`)
		args = append(args, scope.From)
	}
	if !scope.To.IsZero() {
		conds = append(conds, dateColumn+` <= ?`)
		args = append(args, scope.To)
	}
	if scope.CustomerID != 0 {
		conds = append(conds, `customer_id = ?`)
		args = append(args, scope.CustomerID)
	}
	if scope.AgentID != 0 {
		conds = append(conds, `agent_id = ?`)
		args = append(args, scope.AgentID)
	}
	conds = append(conds, extra...)
	if len(conds) == 0 {
		return "", nil
	}
	return `WHERE ` + strings.Join(conds, ` AND `), args
}
