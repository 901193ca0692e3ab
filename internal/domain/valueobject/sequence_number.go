package valueobject

import "fmt"

// Sequence prefixes for human-readable document numbers.
const (
	SequenceLoan    = "LN"
	SequencePayment = "PAY"
)

// FormatSequenceNumber renders a document number such as LN-2026-000042.
// Values wider than six digits are printed in full.
func FormatSequenceNumber(prefix string, year int, n int64) string {
	return fmt.Sprintf("%s-%04d-%06d", prefix, year, n)
}
