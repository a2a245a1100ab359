package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/miguelserrato/tapiceros-backend/pkg/enums"
)

// Order is a service job an upholsterer performs for a client.
// CompletedAt is written exactly once, on the first transition into completed.
type Order struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID     uuid.UUID         `gorm:"column:owner_id;type:uuid;not null;index" json:"ownerId"`
	ClientName  string            `gorm:"column:client_name;not null" json:"clientName"`
	Title       string            `gorm:"type:text;not null" json:"title"`
	Description *string           `gorm:"type:text" json:"description,omitempty"`
	Status      enums.OrderStatus `gorm:"column:status;not null;default:'pending'" json:"status"`
	Amount      *decimal.Decimal  `gorm:"column:amount;type:numeric(12,2)" json:"amount,omitempty"`
	Currency    enums.Currency    `gorm:"column:currency;not null;default:'eur'" json:"currency"`
	CompletedAt *time.Time        `gorm:"column:completed_at" json:"completedAt,omitempty"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (o *Order) BeforeCreate(_ *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
