package valueobject

import "fmt"

// PaymentMethod records how cash was tendered or released.
type PaymentMethod struct {
	value string
}

const (
	methodCash         = "cash"
	methodCheck        = "check"
	methodBankTransfer = "bank_transfer"
	methodGCash        = "gcash"
	methodSalaryDeduct = "salary_deduction"
)

var (
	PaymentMethodCash            = PaymentMethod{value: methodCash}
	PaymentMethodCheck           = PaymentMethod{value: methodCheck}
	PaymentMethodBankTransfer    = PaymentMethod{value: methodBankTransfer}
	PaymentMethodGCash           = PaymentMethod{value: methodGCash}
	PaymentMethodSalaryDeduction = PaymentMethod{value: methodSalaryDeduct}
)

var validPaymentMethods = map[string]PaymentMethod{
	methodCash:         PaymentMethodCash,
	methodCheck:        PaymentMethodCheck,
	methodBankTransfer: PaymentMethodBankTransfer,
	methodGCash:        PaymentMethodGCash,
	methodSalaryDeduct: PaymentMethodSalaryDeduction,
}

// NewPaymentMethod creates a PaymentMethod from a raw string.
func NewPaymentMethod(s string) (PaymentMethod, error) {
	v, ok := validPaymentMethods[s]
	if !ok {
		return PaymentMethod{}, fmt.Errorf("invalid payment method: %q", s)
	}
	return v, nil
}

func (m PaymentMethod) String() string { return m.value }
func (m PaymentMethod) IsZero() bool   { return m.value == "" }
