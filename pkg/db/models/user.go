package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents the canonical identity entity for upholsterers.
type User struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email            string    `gorm:"type:text;not null;uniqueIndex" json:"email"`
	PasswordHash     string    `gorm:"column:password_hash;not null" json:"-"`
	FirstName        string    `gorm:"column:first_name;not null" json:"firstName"`
	LastName         string    `gorm:"column:last_name;not null" json:"lastName"`
	Phone            *string   `gorm:"column:phone" json:"phone,omitempty"`
	CompanyName      *string   `gorm:"column:company_name" json:"companyName,omitempty"`
	Bio              *string   `gorm:"type:text" json:"bio,omitempty"`
	AvatarURL        *string   `gorm:"column:avatar_url" json:"avatarUrl,omitempty"`
	City             *string   `gorm:"column:city" json:"city,omitempty"`
	DeviceToken      *string   `gorm:"column:device_token" json:"-"`
	StripeCustomerID *string   `gorm:"column:stripe_customer_id" json:"-"`
	// No gorm default tag: Create must persist an explicit false.
	IsActive    bool       `gorm:"column:is_active;not null" json:"isActive"`
	LastLoginAt *time.Time `gorm:"column:last_login_at" json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
