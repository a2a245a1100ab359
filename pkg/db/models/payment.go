package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/miguelserrato/tapiceros-backend/pkg/enums"
)

// Payment mirrors a settled charge at the payment processor. The processor
// reference is unique so a replayed webhook cannot double-book funds.
type Payment struct {
	ID                    uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	UserID                uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index" json:"userId"`
	OrderID               *uuid.UUID          `gorm:"column:order_id;type:uuid" json:"orderId,omitempty"`
	Amount                decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null" json:"amount"`
	Currency              enums.Currency      `gorm:"column:currency;not null" json:"currency"`
	Status                enums.PaymentStatus `gorm:"column:status;not null;default:'pending'" json:"status"`
	StripePaymentIntentID string              `gorm:"column:stripe_payment_intent_id;not null;uniqueIndex" json:"stripePaymentIntentId"`
	Description           *string             `gorm:"type:text" json:"description,omitempty"`
	CreatedAt             time.Time           `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

func (p *Payment) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
