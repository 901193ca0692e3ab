package testutil

import (
	"github.com/google/uuid"
)

// Fixed identifiers for deterministic testing
var (
	TestOperatorID  = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	TestApproverID  = uuid.MustParse("00000000-0000-0000-0000-000000000002")
	TestCustomerID  = "00000000-0000-0000-0000-000000000010"
	TestProductID   = "00000000-0000-0000-0000-000000000020"
	TestProductCode = "REG"
)

// SeedProductSQL inserts the regular loan product: 1.5% a month, 2%
// processing fee, 100.00 service fee, 2% penalty, 1,000.00 to 500,000.00 over
// at most 36 months.
const SeedProductSQL = `
	INSERT INTO loan_products (
		id, code, name, monthly_interest_rate, processing_fee_rate, penalty_rate,
		service_fee, min_principal, max_principal, max_term_months, payment_intervals, is_active
	) VALUES ($1, $2, 'Regular Loan', 0.015, 0.02, 0.02, 10000, 100000, 50000000, 36, '{monthly,semi_monthly}', TRUE)`

// SeedMemberSQL inserts or updates a member row.
const SeedMemberSQL = `
	INSERT INTO members (customer_id, status, updated_at) VALUES ($1, $2, NOW())
	ON CONFLICT (customer_id) DO UPDATE SET status = EXCLUDED.status`
