package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jehnsen/coopledger/internal/domain/model"
	"github.com/jehnsen/coopledger/internal/domain/port"
)

var _ port.MemberDirectory = (*MemberDirectory)(nil)

// MemberDirectory answers eligibility from the members table, which is kept
// current by the membership event consumer.
type MemberDirectory struct {
	pool *pgxpool.Pool
}

func NewMemberDirectory(pool *pgxpool.Pool) *MemberDirectory {
	return &MemberDirectory{pool: pool}
}

// IsActiveMember reports false for unknown customers.
func (d *MemberDirectory) IsActiveMember(ctx context.Context, customerID string) (bool, error) {
	var status string
	err := d.pool.QueryRow(ctx, `SELECT status FROM members WHERE customer_id = $1`, customerID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query member: %w", err)
	}
	return status == model.MemberStatusActive, nil
}

// UpsertMember records a membership status change. Older updates than the
// stored one are ignored so replayed events cannot regress a member.
func (d *MemberDirectory) UpsertMember(ctx context.Context, customerID, status string, at time.Time) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO members (customer_id, status, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (customer_id) DO UPDATE SET
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
		WHERE members.updated_at <= EXCLUDED.updated_at
	`, customerID, status, at)
	if err != nil {
		return fmt.Errorf("upsert member: %w", err)
	}
	return nil
}
