package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jehnsen/coopledger/internal/domain/model"
	"github.com/jehnsen/coopledger/internal/domain/port"
	"github.com/jehnsen/coopledger/internal/domain/valueobject"
)

var _ port.LoanProductRepository = (*ProductRepo)(nil)

// ProductRepo reads loan products. Products are maintained outside the
// lending core.
type ProductRepo struct {
	pool *pgxpool.Pool
}

func NewProductRepo(pool *pgxpool.Pool) *ProductRepo {
	return &ProductRepo{pool: pool}
}

func (r *ProductRepo) FindByID(ctx context.Context, id string) (model.LoanProduct, error) {
	var (
		p         model.LoanProduct
		intervals []string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, code, name, monthly_interest_rate, processing_fee_rate, penalty_rate,
		       service_fee, min_principal, max_principal, max_term_months,
		       payment_intervals, is_active
		FROM loan_products WHERE id = $1
	`, id).Scan(
		&p.ID, &p.Code, &p.Name, &p.MonthlyRate, &p.ProcessingFeeRate, &p.PenaltyRate,
		&p.ServiceFee, &p.MinPrincipal, &p.MaxPrincipal, &p.MaxTermMonths,
		&intervals, &p.IsActive,
	)
	if err != nil {
		return model.LoanProduct{}, translate(err, "loan product %s not found", id)
	}

	for _, raw := range intervals {
		interval, err := valueobject.NewPaymentInterval(raw)
		if err != nil {
			return model.LoanProduct{}, fmt.Errorf("loan product %s: %w", id, err)
		}
		p.Intervals = append(p.Intervals, interval)
	}
	return p, nil
}
