package enums

import "fmt"

// PaymentStatus mirrors the gateway's view of whether money was captured.
type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaid   PaymentStatus = "paid"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusUnpaid,
	PaymentStatusPaid,
}

// String implements fmt.Stringer.
func (p PaymentStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentStatus.
func (p PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentStatus converts raw input into a PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	for _, candidate := range validPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}

// PaymentTransactionStatus tracks the local lifecycle of a checkout session.
type PaymentTransactionStatus string

const (
	PaymentTransactionPending   PaymentTransactionStatus = "pending"
	PaymentTransactionCompleted PaymentTransactionStatus = "completed"
	PaymentTransactionFailed    PaymentTransactionStatus = "failed"
	PaymentTransactionExpired   PaymentTransactionStatus = "expired"
)

var validPaymentTransactionStatuses = []PaymentTransactionStatus{
	PaymentTransactionPending,
	PaymentTransactionCompleted,
	PaymentTransactionFailed,
	PaymentTransactionExpired,
}

// String implements fmt.Stringer.
func (p PaymentTransactionStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentTransactionStatus.
func (p PaymentTransactionStatus) IsValid() bool {
	for _, candidate := range validPaymentTransactionStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}
