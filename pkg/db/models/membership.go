package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/miguelserrato/tapiceros-backend/pkg/enums"
)

// Membership mirrors a payment processor subscription per user. The processor
// subscription reference is unique across all memberships.
type Membership struct {
	ID                   uuid.UUID              `gorm:"type:uuid;primaryKey" json:"id"`
	UserID               uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index" json:"userId"`
	Type                 enums.MembershipType   `gorm:"column:type;not null;default:'basic'" json:"type"`
	Status               enums.MembershipStatus `gorm:"column:status;not null;default:'active'" json:"status"`
	StripeSubscriptionID string                 `gorm:"column:stripe_subscription_id;not null;uniqueIndex" json:"stripeSubscriptionId"`
	StripePriceID        string                 `gorm:"column:stripe_price_id;not null" json:"stripePriceId"`
	EndsAt               *time.Time             `gorm:"column:ends_at" json:"endsAt,omitempty"`
	CreatedAt            time.Time              `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt            time.Time              `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (m *Membership) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
