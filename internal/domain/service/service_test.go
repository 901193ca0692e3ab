package service_test

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jehnsen/coopledger/internal/domain/model"
	"github.com/jehnsen/coopledger/internal/domain/valueobject"
	"github.com/jehnsen/coopledger/pkg/money"
)

var (
	now      = time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)
	firstDue = time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)
)

func activeLoan(t *testing.T, outstanding int64) model.Loan {
	t.Helper()
	return model.ReconstructLoan(model.LoanState{
		ID:                 uuid.New().String(),
		LoanNumber:         "LN-2026-000007",
		Status:             valueobject.LoanStatusActive,
		Principal:          money.New(outstanding),
		OutstandingBalance: money.New(outstanding),
		PenaltyRate:        model.DefaultPenaltyRate,
		Version:            3,
	})
}

func entry(loanID string, n int, principal, interest int64) model.ScheduleEntry {
	return model.ScheduleEntry{
		ID:            uuid.New().String(),
		LoanID:        loanID,
		PaymentNumber: n,
		DueDate:       firstDue.AddDate(0, n-1, 0),
		PrincipalDue:  money.New(principal),
		InterestDue:   money.New(interest),
		TotalDue:      money.New(principal + interest),
		Status:        valueobject.ScheduleStatusPending,
	}
}

func penalty(loanID, id string, amount int64, applied time.Time) model.Penalty {
	return model.Penalty{
		ID:            id,
		LoanID:        loanID,
		PenaltyAmount: money.New(amount),
		NetPenalty:    money.New(amount),
		AppliedDate:   applied,
	}
}
