package valueobject

import (
	"errors"

	"github.com/google/uuid"
)

// Operator identifies the staff member performing an operation. It is
// attached to every audit column (created_by, approved_by, received_by, ...).
type Operator struct {
	ID   uuid.UUID
	Name string
}

// NewOperator validates and returns an Operator.
func NewOperator(id uuid.UUID, name string) (Operator, error) {
	if id == uuid.Nil {
		return Operator{}, errors.New("operator id is required")
	}
	return Operator{ID: id, Name: name}, nil
}

// IsZero returns true if no operator was supplied.
func (o Operator) IsZero() bool { return o.ID == uuid.Nil }
