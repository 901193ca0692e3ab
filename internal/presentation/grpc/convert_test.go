package grpc

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/jehnsen/coopledger/internal/domain/model"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"9168", 916_800, false},
		{"9168.5", 916_850, false},
		{" 0.01 ", 1, false},
		{"100000.00", 10_000_000, false},
		{"-5.00", -500, false},
		{"10.005", 0, true},
		{"92233720368547758.07", 9_223_372_036_854_775_807, false},
		{"92233720368547758.08", 0, true},
		{"184467440737095517.16", 0, true},
		{"-92233720368547758.09", 0, true},
		{"ten", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseAmount("amount", tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, codes.InvalidArgument, status.Code(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Centavos())
		})
	}
}

func TestParseOptionalAmount(t *testing.T) {
	got, err := parseOptionalAmount("processing_fee", "")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = parseOptionalAmount("processing_fee", "2000")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(200_000), got.Centavos())
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"validation", fmt.Errorf("record payment: %w", model.NewValidationError("amount must be positive")), codes.InvalidArgument},
		{"state", model.NewStateError("loan is closed"), codes.FailedPrecondition},
		{"eligibility", model.NewEligibilityError("not a member"), codes.FailedPrecondition},
		{"not found", model.NewNotFoundError("loan x not found"), codes.NotFound},
		{"duplicate", fmt.Errorf("claim key: %w", model.ErrDuplicateRequest), codes.AlreadyExists},
		{"cancelled", fmt.Errorf("lock loan: %w", context.Canceled), codes.Canceled},
		{"status passthrough", status.Error(codes.PermissionDenied, "nope"), codes.PermissionDenied},
		{"unknown", errors.New("connection reset"), codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, status.Code(toStatus(tt.err)))
		})
	}

	assert.NoError(t, toStatus(nil))
	assert.Equal(t, "internal error", status.Convert(toStatus(errors.New("secret dsn"))).Message())
}
