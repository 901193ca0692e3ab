package usecase

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jehnsen/coopledger/internal/application/dto"
	"github.com/jehnsen/coopledger/internal/domain/model"
)

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func toLoanResponse(loan model.Loan) dto.LoanResponse {
	s := loan.State()
	return dto.LoanResponse{
		ID:                   s.ID,
		LoanNumber:           s.LoanNumber,
		CustomerID:           s.CustomerID,
		ProductID:            s.ProductID,
		Principal:            s.Principal,
		MonthlyRate:          s.MonthlyRate,
		PenaltyRate:          s.PenaltyRate,
		TermMonths:           s.TermMonths,
		Interval:             s.Interval.String(),
		Purpose:              s.Purpose,
		Status:               s.Status.String(),
		RejectionReason:      s.RejectionReason,
		OutstandingBalance:   s.OutstandingBalance,
		TotalPrincipalPaid:   s.TotalPrincipalPaid,
		TotalInterestPaid:    s.TotalInterestPaid,
		TotalPenaltyPaid:     s.TotalPenaltyPaid,
		PenaltiesOutstanding: s.PenaltiesOutstanding,
		ProcessingFee:        s.ProcessingFee,
		ServiceFee:           s.ServiceFee,
		NetProceeds:          s.NetProceeds,
		Installment:          s.Installment,
		TotalInterest:        s.TotalInterest,
		TotalPayable:         s.TotalPayable,
		ApplicationDate:      s.ApplicationDate,
		ApprovalDate:         optionalTime(s.ApprovalDate),
		DisbursementDate:     optionalTime(s.DisbursementDate),
		FirstPaymentDate:     s.FirstPaymentDate,
		MaturityDate:         s.MaturityDate,
		ClosedAt:             optionalTime(s.ClosedAt),
		Version:              s.Version,
		UpdatedAt:            s.UpdatedAt,
	}
}

func toScheduleEntryResponse(e model.ScheduleEntry) dto.ScheduleEntryResponse {
	return dto.ScheduleEntryResponse{
		PaymentNumber:    e.PaymentNumber,
		DueDate:          e.DueDate,
		PaidDate:         optionalTime(e.PaidDate),
		Status:           e.Status.String(),
		BeginningBalance: e.BeginningBalance,
		PrincipalDue:     e.PrincipalDue,
		InterestDue:      e.InterestDue,
		TotalDue:         e.TotalDue,
		PrincipalPaid:    e.PrincipalPaid,
		InterestPaid:     e.InterestPaid,
		TotalPaid:        e.TotalPaid,
		EndingBalance:    e.EndingBalance,
	}
}

func toScheduleResponse(a model.Amortization) dto.ScheduleResponse {
	rows := make([]dto.ScheduleEntryResponse, len(a.Rows))
	for i, r := range a.Rows {
		rows[i] = dto.ScheduleEntryResponse{
			PaymentNumber:    r.PaymentNumber,
			DueDate:          r.DueDate,
			Status:           "pending",
			BeginningBalance: r.BeginningBalance,
			PrincipalDue:     r.PrincipalDue,
			InterestDue:      r.InterestDue,
			TotalDue:         r.TotalDue,
			EndingBalance:    r.EndingBalance,
		}
	}
	return dto.ScheduleResponse{
		Rows:          rows,
		PeriodicRate:  decimal.NewFromFloat(a.PeriodicRate).Round(10),
		Installment:   a.Installment,
		TotalInterest: a.TotalInterest,
		TotalPayable:  a.TotalPayable,
		Periods:       a.Periods,
	}
}

func toPaymentResponse(p model.Payment) dto.PaymentResponse {
	return dto.PaymentResponse{
		ID:               p.ID,
		PaymentNumber:    p.PaymentNumber,
		LoanID:           p.LoanID,
		Method:           p.Method.String(),
		Reference:        p.Reference,
		PaymentDate:      p.PaymentDate,
		ReceivedBy:       p.ReceivedBy,
		Amount:           p.Amount,
		PrincipalPortion: p.PrincipalPortion,
		InterestPortion:  p.InterestPortion,
		PenaltyPortion:   p.PenaltyPortion,
		UnappliedAmount:  p.UnappliedAmount,
		BalanceBefore:    p.BalanceBefore,
		BalanceAfter:     p.BalanceAfter,
		IsReversed:       p.IsReversed,
		ReversedAt:       optionalTime(p.ReversedAt),
		ReversedBy:       p.ReversedBy,
		ReversalReason:   p.ReversalReason,
	}
}

func toPenaltyResponse(p model.Penalty) dto.PenaltyResponse {
	return dto.PenaltyResponse{
		ID:              p.ID,
		LoanID:          p.LoanID,
		ScheduleEntryID: p.ScheduleEntryID,
		PaymentNumber:   p.PaymentNumber,
		OverdueAmount:   p.OverdueAmount,
		DaysOverdue:     p.DaysOverdue,
		PenaltyRate:     p.PenaltyRate,
		PenaltyAmount:   p.PenaltyAmount,
		WaivedAmount:    p.WaivedAmount,
		NetPenalty:      p.NetPenalty,
		AmountPaid:      p.AmountPaid,
		IsPaid:          p.IsPaid,
		PaidDate:        optionalTime(p.PaidDate),
		AppliedDate:     p.AppliedDate,
		WaiverReason:    p.WaiverReason,
	}
}

func toPenaltyResponses(ps []model.Penalty) []dto.PenaltyResponse {
	out := make([]dto.PenaltyResponse, len(ps))
	for i, p := range ps {
		out[i] = toPenaltyResponse(p)
	}
	return out
}
