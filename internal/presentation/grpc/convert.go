package grpc

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/jehnsen/coopledger/internal/application/dto"
	"github.com/jehnsen/coopledger/pkg/money"
)

var (
	minCentavos = decimal.NewFromInt(math.MinInt64)
	maxCentavos = decimal.NewFromInt(math.MaxInt64)
)

// parseAmount converts a peso string to centavos. More than two decimal
// places is rejected rather than rounded, as is anything outside int64.
func parseAmount(field, s string) (money.Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return money.Zero, status.Errorf(codes.InvalidArgument, "%s: invalid amount %q", field, s)
	}
	centavos := d.Shift(2)
	if !centavos.IsInteger() {
		return money.Zero, status.Errorf(codes.InvalidArgument, "%s: at most two decimal places", field)
	}
	if centavos.LessThan(minCentavos) || centavos.GreaterThan(maxCentavos) {
		return money.Zero, status.Errorf(codes.InvalidArgument, "%s: amount %q out of range", field, s)
	}
	return money.New(centavos.IntPart()), nil
}

func parseOptionalAmount(field, s string) (*money.Money, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	m, err := parseAmount(field, s)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// parseRate returns zero for an empty string.
func parseRate(field, s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, status.Errorf(codes.InvalidArgument, "%s: invalid rate %q", field, s)
	}
	return d, nil
}

func pesos(m money.Money) string { return m.String() }

func timeOf(ts *timestamppb.Timestamp) time.Time {
	if ts == nil {
		return time.Time{}
	}
	return ts.AsTime()
}

func timestamp(t time.Time) *timestamppb.Timestamp {
	if t.IsZero() {
		return nil
	}
	return timestamppb.New(t)
}

func optionalTimestamp(t *time.Time) *timestamppb.Timestamp {
	if t == nil {
		return nil
	}
	return timestamp(*t)
}

func toLoanMessage(l dto.LoanResponse) *Loan {
	return &Loan{
		ID:                        l.ID,
		LoanNumber:                l.LoanNumber,
		CustomerID:                l.CustomerID,
		ProductID:                 l.ProductID,
		Status:                    l.Status,
		PaymentInterval:           l.Interval,
		Purpose:                   l.Purpose,
		RejectionReason:           l.RejectionReason,
		MonthlyInterestRate:       l.MonthlyRate.String(),
		PenaltyRate:               l.PenaltyRate.String(),
		Principal:                 pesos(l.Principal),
		OutstandingBalance:        pesos(l.OutstandingBalance),
		TotalPrincipalPaid:        pesos(l.TotalPrincipalPaid),
		TotalInterestPaid:         pesos(l.TotalInterestPaid),
		TotalPenaltyPaid:          pesos(l.TotalPenaltyPaid),
		TotalPenaltiesOutstanding: pesos(l.PenaltiesOutstanding),
		ProcessingFee:             pesos(l.ProcessingFee),
		ServiceFee:                pesos(l.ServiceFee),
		NetProceeds:               pesos(l.NetProceeds),
		Installment:               pesos(l.Installment),
		TotalInterest:             pesos(l.TotalInterest),
		TotalPayable:              pesos(l.TotalPayable),
		TermMonths:                int32(l.TermMonths),
		Version:                   int64(l.Version),
		ApplicationDate:           timestamp(l.ApplicationDate),
		ApprovalDate:              optionalTimestamp(l.ApprovalDate),
		DisbursementDate:          optionalTimestamp(l.DisbursementDate),
		FirstPaymentDate:          timestamp(l.FirstPaymentDate),
		MaturityDate:              timestamp(l.MaturityDate),
		ClosedAt:                  optionalTimestamp(l.ClosedAt),
		UpdatedAt:                 timestamp(l.UpdatedAt),
	}
}

func toScheduleEntryMessages(rows []dto.ScheduleEntryResponse) []*ScheduleEntry {
	out := make([]*ScheduleEntry, 0, len(rows))
	for _, e := range rows {
		out = append(out, &ScheduleEntry{
			PaymentNumber:    int32(e.PaymentNumber),
			DueDate:          timestamp(e.DueDate),
			PaidDate:         optionalTimestamp(e.PaidDate),
			Status:           e.Status,
			BeginningBalance: pesos(e.BeginningBalance),
			PrincipalDue:     pesos(e.PrincipalDue),
			InterestDue:      pesos(e.InterestDue),
			TotalDue:         pesos(e.TotalDue),
			PrincipalPaid:    pesos(e.PrincipalPaid),
			InterestPaid:     pesos(e.InterestPaid),
			TotalPaid:        pesos(e.TotalPaid),
			EndingBalance:    pesos(e.EndingBalance),
		})
	}
	return out
}

func toPaymentMessage(p dto.PaymentResponse) *Payment {
	return &Payment{
		ID:               p.ID,
		PaymentNumber:    p.PaymentNumber,
		LoanID:           p.LoanID,
		Method:           p.Method,
		Reference:        p.Reference,
		ReceivedBy:       p.ReceivedBy,
		ReversedBy:       p.ReversedBy,
		ReversalReason:   p.ReversalReason,
		Amount:           pesos(p.Amount),
		PrincipalPortion: pesos(p.PrincipalPortion),
		InterestPortion:  pesos(p.InterestPortion),
		PenaltyPortion:   pesos(p.PenaltyPortion),
		UnappliedAmount:  pesos(p.UnappliedAmount),
		BalanceBefore:    pesos(p.BalanceBefore),
		BalanceAfter:     pesos(p.BalanceAfter),
		IsReversed:       p.IsReversed,
		PaymentDate:      timestamp(p.PaymentDate),
		ReversedAt:       optionalTimestamp(p.ReversedAt),
	}
}

func toPenaltyMessage(p dto.PenaltyResponse) *Penalty {
	return &Penalty{
		ID:              p.ID,
		LoanID:          p.LoanID,
		ScheduleEntryID: p.ScheduleEntryID,
		PaymentNumber:   int32(p.PaymentNumber),
		DaysOverdue:     int32(p.DaysOverdue),
		PenaltyRate:     p.PenaltyRate.String(),
		OverdueAmount:   pesos(p.OverdueAmount),
		PenaltyAmount:   pesos(p.PenaltyAmount),
		WaivedAmount:    pesos(p.WaivedAmount),
		NetPenalty:      pesos(p.NetPenalty),
		AmountPaid:      pesos(p.AmountPaid),
		WaiverReason:    p.WaiverReason,
		IsPaid:          p.IsPaid,
		AppliedDate:     timestamp(p.AppliedDate),
		PaidDate:        optionalTimestamp(p.PaidDate),
	}
}

func toPenaltyMessages(ps []dto.PenaltyResponse) []*Penalty {
	out := make([]*Penalty, 0, len(ps))
	for _, p := range ps {
		out = append(out, toPenaltyMessage(p))
	}
	return out
}
