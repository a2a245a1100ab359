package enums

import "fmt"

// InvoiceStatus tracks an invoice through its forward-only lifecycle.
type InvoiceStatus string

const (
	InvoiceStatusDraft InvoiceStatus = "draft"
	InvoiceStatusSent  InvoiceStatus = "sent"
	InvoiceStatusPaid  InvoiceStatus = "paid"
	InvoiceStatusVoid  InvoiceStatus = "void"
)

var validInvoiceStatuses = []InvoiceStatus{
	InvoiceStatusDraft,
	InvoiceStatusSent,
	InvoiceStatusPaid,
	InvoiceStatusVoid,
}

// invoiceStatusRank orders the forward progression draft -> sent -> paid.
var invoiceStatusRank = map[InvoiceStatus]int{
	InvoiceStatusDraft: 0,
	InvoiceStatusSent:  1,
	InvoiceStatusPaid:  2,
}

// String implements fmt.Stringer.
func (i InvoiceStatus) String() string {
	return string(i)
}

// IsValid reports whether the value is a known InvoiceStatus.
func (i InvoiceStatus) IsValid() bool {
	for _, candidate := range validInvoiceStatuses {
		if candidate == i {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether moving from the current status to next is a
// legal forward transition. Void is reachable from draft or sent only.
func (i InvoiceStatus) CanTransitionTo(next InvoiceStatus) bool {
	if i == next {
		return false
	}
	if next == InvoiceStatusVoid {
		return i == InvoiceStatusDraft || i == InvoiceStatusSent
	}
	from, okFrom := invoiceStatusRank[i]
	to, okTo := invoiceStatusRank[next]
	if !okFrom || !okTo {
		return false
	}
	return to > from
}

// ParseInvoiceStatus converts raw input into an InvoiceStatus.
func ParseInvoiceStatus(value string) (InvoiceStatus, error) {
	for _, candidate := range validInvoiceStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid invoice status %q", value)
}
