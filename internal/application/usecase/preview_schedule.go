package usecase

import (
	"context"
	"fmt"

	"github.com/jehnsen/coopledger/internal/application/dto"
	"github.com/jehnsen/coopledger/internal/domain/model"
	"github.com/jehnsen/coopledger/internal/domain/valueobject"
)

// PreviewScheduleUseCase computes a repayment schedule without persisting
// anything.
type PreviewScheduleUseCase struct{}

// NewPreviewScheduleUseCase returns the use case.
func NewPreviewScheduleUseCase() *PreviewScheduleUseCase {
	return &PreviewScheduleUseCase{}
}

// Execute returns the schedule for the requested terms.
func (uc *PreviewScheduleUseCase) Execute(ctx context.Context, req dto.PreviewScheduleRequest) (dto.ScheduleResponse, error) {
	_, span := startSpan(ctx, "PreviewSchedule")
	resp, err := uc.execute(req)
	endSpan(span, err)
	return resp, err
}

func (uc *PreviewScheduleUseCase) execute(req dto.PreviewScheduleRequest) (dto.ScheduleResponse, error) {
	interval, err := valueobject.NewPaymentInterval(req.Interval)
	if err != nil {
		return dto.ScheduleResponse{}, model.NewValidationError("%v", err)
	}
	if req.FirstPaymentDate.IsZero() {
		return dto.ScheduleResponse{}, model.NewValidationError("first payment date is required")
	}

	amort, err := model.ComputeSchedule(req.Principal, req.MonthlyRate.InexactFloat64(), req.TermMonths, req.FirstPaymentDate, interval)
	if err != nil {
		return dto.ScheduleResponse{}, fmt.Errorf("compute schedule: %w", err)
	}
	return toScheduleResponse(amort), nil
}
