package payments

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CheckoutInput starts a one-time payment session.
type CheckoutInput struct {
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	Currency    string          `json:"currency" validate:"omitempty,oneof=eur usd mxn"`
	Description string          `json:"description" validate:"omitempty,max=500"`
	OrderID     *uuid.UUID      `json:"orderId"`
}

// CheckoutResponse hands the hosted payment page back to the client.
type CheckoutResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// CreateInvoiceInput bills a completed order.
type CreateInvoiceInput struct {
	OrderID uuid.UUID `json:"orderId" validate:"required"`
}
