package orders

import "github.com/shopspring/decimal"

// CreateOrderInput carries a new service order.
type CreateOrderInput struct {
	ClientName  string           `json:"clientName" validate:"required,min=1,max=160"`
	Title       string           `json:"title" validate:"required,min=1,max=200"`
	Description *string          `json:"description" validate:"omitempty,max=5000"`
	Amount      *decimal.Decimal `json:"amount"`
	Currency    string           `json:"currency" validate:"omitempty,oneof=eur usd mxn"`
}

// UpdateOrderInput carries the editable order fields. Nil means unchanged.
type UpdateOrderInput struct {
	ClientName  *string          `json:"clientName" validate:"omitempty,min=1,max=160"`
	Title       *string          `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string          `json:"description" validate:"omitempty,max=5000"`
	Amount      *decimal.Decimal `json:"amount"`
	Currency    *string          `json:"currency" validate:"omitempty,oneof=eur usd mxn"`
}

// UpdateStatusInput moves an order through its lifecycle.
type UpdateStatusInput struct {
	Status string `json:"status" validate:"required"`
}
