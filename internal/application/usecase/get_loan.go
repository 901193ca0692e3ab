package usecase

import (
	"context"
	"fmt"

	"github.com/jehnsen/coopledger/internal/application/dto"
	"github.com/jehnsen/coopledger/internal/domain/port"
	"github.com/jehnsen/coopledger/internal/domain/service"
)

// GetLoanUseCase retrieves a loan with its schedule, penalties and payments.
type GetLoanUseCase struct {
	store port.LedgerStore
}

// NewGetLoanUseCase wires dependencies.
func NewGetLoanUseCase(store port.LedgerStore) *GetLoanUseCase {
	return &GetLoanUseCase{store: store}
}

// Execute returns the loan detail for the given ID.
func (uc *GetLoanUseCase) Execute(ctx context.Context, req dto.GetLoanRequest) (dto.LoanDetailResponse, error) {
	loan, err := uc.store.FindLoan(ctx, req.LoanID)
	if err != nil {
		return dto.LoanDetailResponse{}, fmt.Errorf("find loan: %w", err)
	}
	schedule, err := uc.store.FindSchedule(ctx, loan.ID())
	if err != nil {
		return dto.LoanDetailResponse{}, fmt.Errorf("find schedule: %w", err)
	}
	penalties, err := uc.store.FindPenalties(ctx, loan.ID())
	if err != nil {
		return dto.LoanDetailResponse{}, fmt.Errorf("find penalties: %w", err)
	}
	payments, err := uc.store.FindPayments(ctx, loan.ID())
	if err != nil {
		return dto.LoanDetailResponse{}, fmt.Errorf("find payments: %w", err)
	}

	resp := dto.LoanDetailResponse{
		Loan:      toLoanResponse(loan),
		Schedule:  make([]dto.ScheduleEntryResponse, len(schedule)),
		Penalties: toPenaltyResponses(penalties),
		Payments:  make([]dto.PaymentResponse, len(payments)),
	}
	for i, e := range schedule {
		resp.Schedule[i] = toScheduleEntryResponse(e)
	}
	for i, p := range payments {
		resp.Payments[i] = toPaymentResponse(p)
	}
	if loan.CanAcceptPayment() == nil {
		resp.PayoffAmount = service.PayoffAmount(penalties, schedule)
	}
	return resp, nil
}
