package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/miguelserrato/tapiceros-backend/pkg/enums"
)

// Invoice is the local record of a billed order. Status only moves forward
// (draft -> sent -> paid); the reconciler is the only writer of paid.
type Invoice struct {
	ID              uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	Number          string              `gorm:"column:number;not null;uniqueIndex" json:"number"`
	OrderID         uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index" json:"orderId"`
	UserID          uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index" json:"userId"`
	Amount          decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null" json:"amount"`
	Currency        enums.Currency      `gorm:"column:currency;not null" json:"currency"`
	Status          enums.InvoiceStatus `gorm:"column:status;not null;default:'draft'" json:"status"`
	StripeInvoiceID *string             `gorm:"column:stripe_invoice_id;uniqueIndex" json:"stripeInvoiceId,omitempty"`
	IssuedAt        *time.Time          `gorm:"column:issued_at" json:"issuedAt,omitempty"`
	PaidAt          *time.Time          `gorm:"column:paid_at" json:"paidAt,omitempty"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (i *Invoice) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
