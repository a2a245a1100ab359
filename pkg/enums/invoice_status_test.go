package enums

import "testing"

func TestInvoiceStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to InvoiceStatus
		want     bool
	}{
		{InvoiceStatusDraft, InvoiceStatusSent, true},
		{InvoiceStatusDraft, InvoiceStatusPaid, true},
		{InvoiceStatusDraft, InvoiceStatusVoid, true},
		{InvoiceStatusSent, InvoiceStatusPaid, true},
		{InvoiceStatusSent, InvoiceStatusVoid, true},
		{InvoiceStatusSent, InvoiceStatusDraft, false},
		{InvoiceStatusPaid, InvoiceStatusSent, false},
		{InvoiceStatusPaid, InvoiceStatusVoid, false},
		{InvoiceStatusPaid, InvoiceStatusDraft, false},
		{InvoiceStatusVoid, InvoiceStatusSent, false},
		{InvoiceStatusVoid, InvoiceStatusPaid, false},
		{InvoiceStatusDraft, InvoiceStatusDraft, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Fatalf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.want, got)
		}
	}
}

func TestParseInvoiceStatus(t *testing.T) {
	status, err := ParseInvoiceStatus("sent")
	if err != nil {
		t.Fatalf("parse sent: %v", err)
	}
	if status != InvoiceStatusSent {
		t.Fatalf("unexpected status %s", status)
	}
	if _, err := ParseInvoiceStatus("shipped"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestParseOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus("in_progress")
	if err != nil {
		t.Fatalf("parse in_progress: %v", err)
	}
	if status != OrderStatusInProgress {
		t.Fatalf("unexpected status %s", status)
	}
	if _, err := ParseOrderStatus("IN_PROGRESS"); err == nil {
		t.Fatal("expected case-sensitive parse to fail")
	}
}
