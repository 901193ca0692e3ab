package grpc

import (
	"context"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/jehnsen/coopledger/internal/application/dto"
	"github.com/jehnsen/coopledger/internal/application/usecase"
	"github.com/jehnsen/coopledger/internal/domain/valueobject"
	"github.com/jehnsen/coopledger/pkg/auth"
)

var (
	rolesOriginate = []string{auth.RoleLoanOfficer, auth.RoleManager}
	rolesDecide    = []string{auth.RoleManager}
	rolesCollect   = []string{auth.RoleCashier, auth.RoleManager}
	rolesRead      = []string{auth.RoleLoanOfficer, auth.RoleManager, auth.RoleCashier, auth.RoleAuditor}
)

// UseCases groups the application services the handler exposes.
type UseCases struct {
	PreviewSchedule  *usecase.PreviewScheduleUseCase
	ApplyForLoan     *usecase.ApplyForLoanUseCase
	SubmitForReview  *usecase.SubmitForReviewUseCase
	ApproveLoan      *usecase.ApproveLoanUseCase
	RejectLoan       *usecase.RejectLoanUseCase
	DisburseLoan     *usecase.DisburseLoanUseCase
	RecordPayment    *usecase.RecordPaymentUseCase
	ReversePayment   *usecase.ReversePaymentUseCase
	ComputePenalties *usecase.ComputePenaltiesUseCase
	WaivePenalty     *usecase.WaivePenaltyUseCase
	GetLoan          *usecase.GetLoanUseCase
}

// LendingHandler is the gRPC handler for lending operations. The caller's
// JWT claims supply the operator recorded on every audit column.
type LendingHandler struct {
	UnimplementedLendingServiceServer
	uc     UseCases
	logger *slog.Logger
}

// NewLendingHandler creates a new handler with all use-case dependencies.
func NewLendingHandler(uc UseCases, logger *slog.Logger) *LendingHandler {
	return &LendingHandler{uc: uc, logger: logger}
}

func (h *LendingHandler) operator(ctx context.Context, roles ...string) (valueobject.Operator, error) {
	claims, err := auth.RequireAnyRole(ctx, roles...)
	if err != nil {
		return valueobject.Operator{}, err
	}
	op, err := valueobject.NewOperator(claims.UserID, claims.Name)
	if err != nil {
		return valueobject.Operator{}, status.Error(codes.Unauthenticated, err.Error())
	}
	return op, nil
}

func (h *LendingHandler) fail(ctx context.Context, method string, err error) error {
	st := toStatus(err)
	if status.Code(st) == codes.Internal {
		h.logger.ErrorContext(ctx, "request failed", "method", method, "error", err)
	}
	return st
}

func (h *LendingHandler) PreviewSchedule(ctx context.Context, req *PreviewScheduleRequest) (*ScheduleResponse, error) {
	if _, err := h.operator(ctx, rolesRead...); err != nil {
		return nil, err
	}
	principal, err := parseAmount("principal", req.Principal)
	if err != nil {
		return nil, err
	}
	rate, err := parseRate("monthly_interest_rate", req.MonthlyInterestRate)
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.PreviewSchedule.Execute(ctx, dto.PreviewScheduleRequest{
		Principal:        principal,
		MonthlyRate:      rate,
		TermMonths:       int(req.TermMonths),
		Interval:         req.PaymentInterval,
		FirstPaymentDate: timeOf(req.FirstPaymentDate),
	})
	if err != nil {
		return nil, h.fail(ctx, "PreviewSchedule", err)
	}
	return &ScheduleResponse{
		Rows:          toScheduleEntryMessages(resp.Rows),
		PeriodicRate:  resp.PeriodicRate.String(),
		Installment:   pesos(resp.Installment),
		TotalInterest: pesos(resp.TotalInterest),
		TotalPayable:  pesos(resp.TotalPayable),
		Periods:       int32(resp.Periods),
	}, nil
}

func (h *LendingHandler) ApplyForLoan(ctx context.Context, req *ApplyForLoanRequest) (*LoanResponse, error) {
	op, err := h.operator(ctx, rolesOriginate...)
	if err != nil {
		return nil, err
	}
	principal, err := parseAmount("principal", req.Principal)
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.ApplyForLoan.Execute(ctx, dto.ApplyForLoanRequest{
		CustomerID:       req.CustomerID,
		ProductID:        req.ProductID,
		Principal:        principal,
		TermMonths:       int(req.TermMonths),
		Interval:         req.PaymentInterval,
		Purpose:          req.Purpose,
		FirstPaymentDate: timeOf(req.FirstPaymentDate),
	}, op)
	if err != nil {
		return nil, h.fail(ctx, "ApplyForLoan", err)
	}
	return &LoanResponse{Loan: toLoanMessage(resp)}, nil
}

func (h *LendingHandler) SubmitForReview(ctx context.Context, req *SubmitForReviewRequest) (*LoanResponse, error) {
	op, err := h.operator(ctx, rolesOriginate...)
	if err != nil {
		return nil, err
	}
	resp, err := h.uc.SubmitForReview.Execute(ctx, dto.SubmitForReviewRequest{LoanID: req.LoanID}, op)
	if err != nil {
		return nil, h.fail(ctx, "SubmitForReview", err)
	}
	return &LoanResponse{Loan: toLoanMessage(resp)}, nil
}

func (h *LendingHandler) ApproveLoan(ctx context.Context, req *ApproveLoanRequest) (*LoanResponse, error) {
	op, err := h.operator(ctx, rolesDecide...)
	if err != nil {
		return nil, err
	}
	resp, err := h.uc.ApproveLoan.Execute(ctx, dto.ApproveLoanRequest{LoanID: req.LoanID, Notes: req.Notes}, op)
	if err != nil {
		return nil, h.fail(ctx, "ApproveLoan", err)
	}
	return &LoanResponse{Loan: toLoanMessage(resp)}, nil
}

func (h *LendingHandler) RejectLoan(ctx context.Context, req *RejectLoanRequest) (*LoanResponse, error) {
	op, err := h.operator(ctx, rolesDecide...)
	if err != nil {
		return nil, err
	}
	resp, err := h.uc.RejectLoan.Execute(ctx, dto.RejectLoanRequest{LoanID: req.LoanID, Reason: req.Reason}, op)
	if err != nil {
		return nil, h.fail(ctx, "RejectLoan", err)
	}
	return &LoanResponse{Loan: toLoanMessage(resp)}, nil
}

func (h *LendingHandler) DisburseLoan(ctx context.Context, req *DisburseLoanRequest) (*LoanResponse, error) {
	op, err := h.operator(ctx, rolesDecide...)
	if err != nil {
		return nil, err
	}
	processingFee, err := parseOptionalAmount("processing_fee", req.ProcessingFee)
	if err != nil {
		return nil, err
	}
	serviceFee, err := parseOptionalAmount("service_fee", req.ServiceFee)
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.DisburseLoan.Execute(ctx, dto.DisburseLoanRequest{
		LoanID:           req.LoanID,
		DisbursementDate: timeOf(req.DisbursementDate),
		FirstPaymentDate: timeOf(req.FirstPaymentDate),
		Method:           req.Method,
		Reference:        req.Reference,
		ProcessingFee:    processingFee,
		ServiceFee:       serviceFee,
	}, op)
	if err != nil {
		return nil, h.fail(ctx, "DisburseLoan", err)
	}
	return &LoanResponse{Loan: toLoanMessage(resp)}, nil
}

func (h *LendingHandler) RecordPayment(ctx context.Context, req *RecordPaymentRequest) (*PaymentResponse, error) {
	op, err := h.operator(ctx, rolesCollect...)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.RecordPayment.Execute(ctx, dto.RecordPaymentRequest{
		LoanID:         req.LoanID,
		Amount:         amount,
		Method:         req.Method,
		PaymentDate:    timeOf(req.PaymentDate),
		Reference:      req.Reference,
		IdempotencyKey: req.IdempotencyKey,
	}, op)
	if err != nil {
		return nil, h.fail(ctx, "RecordPayment", err)
	}
	return &PaymentResponse{
		Payment:    toPaymentMessage(resp),
		LoanStatus: resp.LoanStatus,
		Replayed:   resp.Replayed,
	}, nil
}

func (h *LendingHandler) ReversePayment(ctx context.Context, req *ReversePaymentRequest) (*PaymentResponse, error) {
	op, err := h.operator(ctx, rolesDecide...)
	if err != nil {
		return nil, err
	}
	resp, err := h.uc.ReversePayment.Execute(ctx, dto.ReversePaymentRequest{PaymentID: req.PaymentID, Reason: req.Reason}, op)
	if err != nil {
		return nil, h.fail(ctx, "ReversePayment", err)
	}
	return &PaymentResponse{Payment: toPaymentMessage(resp), LoanStatus: resp.LoanStatus}, nil
}

func (h *LendingHandler) ComputePenalties(ctx context.Context, req *ComputePenaltiesRequest) (*ComputePenaltiesResponse, error) {
	op, err := h.operator(ctx, rolesOriginate...)
	if err != nil {
		return nil, err
	}
	rate, err := parseRate("penalty_rate", req.PenaltyRate)
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.ComputePenalties.Execute(ctx, dto.ComputePenaltiesRequest{
		LoanID:   req.LoanID,
		AsOfDate: timeOf(req.AsOfDate),
		Rate:     rate,
	}, op)
	if err != nil {
		return nil, h.fail(ctx, "ComputePenalties", err)
	}
	return &ComputePenaltiesResponse{
		AsOfDate:                  timestamp(resp.AsOfDate),
		Penalties:                 toPenaltyMessages(resp.Penalties),
		TotalAccrued:              pesos(resp.TotalAccrued),
		TotalPenaltiesOutstanding: pesos(resp.TotalPenaltiesOutstanding),
	}, nil
}

func (h *LendingHandler) WaivePenalty(ctx context.Context, req *WaivePenaltyRequest) (*PenaltyResponse, error) {
	op, err := h.operator(ctx, rolesDecide...)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.WaivePenalty.Execute(ctx, dto.WaivePenaltyRequest{
		PenaltyID: req.PenaltyID,
		Amount:    amount,
		Reason:    req.Reason,
	}, op)
	if err != nil {
		return nil, h.fail(ctx, "WaivePenalty", err)
	}
	return &PenaltyResponse{Penalty: toPenaltyMessage(resp)}, nil
}

func (h *LendingHandler) GetLoan(ctx context.Context, req *GetLoanRequest) (*GetLoanResponse, error) {
	if _, err := h.operator(ctx, rolesRead...); err != nil {
		return nil, err
	}
	resp, err := h.uc.GetLoan.Execute(ctx, dto.GetLoanRequest{LoanID: req.LoanID})
	if err != nil {
		return nil, h.fail(ctx, "GetLoan", err)
	}

	payments := make([]*Payment, 0, len(resp.Payments))
	for _, p := range resp.Payments {
		payments = append(payments, toPaymentMessage(p))
	}
	return &GetLoanResponse{
		Loan:         toLoanMessage(resp.Loan),
		Schedule:     toScheduleEntryMessages(resp.Schedule),
		Penalties:    toPenaltyMessages(resp.Penalties),
		Payments:     payments,
		PayoffAmount: pesos(resp.PayoffAmount),
	}, nil
}
