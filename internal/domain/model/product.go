package model

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/jehnsen/coopledger/internal/domain/valueobject"
	"github.com/jehnsen/coopledger/pkg/money"
)

// DefaultPenaltyRate is the monthly late-payment rate applied when neither
// the caller nor the product specifies one.
var DefaultPenaltyRate = decimal.RequireFromString("0.02")

// LoanProduct is a loan offering configured by the cooperative. The lending
// core only reads products.
type LoanProduct struct {
	MonthlyRate       decimal.Decimal
	ProcessingFeeRate decimal.Decimal
	PenaltyRate       decimal.Decimal
	ID                string
	Code              string
	Name              string
	Intervals         []valueobject.PaymentInterval
	MinPrincipal      money.Money
	MaxPrincipal      money.Money
	ServiceFee        money.Money
	MaxTermMonths     int
	IsActive          bool
}

// CheckTerms validates requested terms against the product limits.
func (p LoanProduct) CheckTerms(principal money.Money, termMonths int, interval valueobject.PaymentInterval) error {
	if !p.IsActive {
		return NewValidationError("loan product %s is not active", p.Code)
	}
	if principal.LessThan(p.MinPrincipal) {
		return NewValidationError("principal %s is below the %s minimum of %s", principal, p.Code, p.MinPrincipal)
	}
	if p.MaxPrincipal.IsPositive() && principal.GreaterThan(p.MaxPrincipal) {
		return NewValidationError("principal %s exceeds the %s maximum of %s", principal, p.Code, p.MaxPrincipal)
	}
	if p.MaxTermMonths > 0 && termMonths > p.MaxTermMonths {
		return NewValidationError("term of %d months exceeds the %s maximum of %d", termMonths, p.Code, p.MaxTermMonths)
	}
	if len(p.Intervals) > 0 && !slices.ContainsFunc(p.Intervals, interval.Equal) {
		return NewValidationError("payment interval %s is not offered by %s", interval, p.Code)
	}
	return nil
}

// ProcessingFee is round(principal × processing fee rate).
func (p LoanProduct) ProcessingFee(principal money.Money) money.Money {
	return principal.MulRound(p.ProcessingFeeRate.InexactFloat64())
}

// EffectivePenaltyRate falls back to DefaultPenaltyRate.
func (p LoanProduct) EffectivePenaltyRate() decimal.Decimal {
	if p.PenaltyRate.IsPositive() {
		return p.PenaltyRate
	}
	return DefaultPenaltyRate
}

// MemberStatusActive is the only membership status eligible for loans.
const MemberStatusActive = "active"
