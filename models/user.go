package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// User is a referral participant.
// ReferralsCount is a denormalized cache of the user's referral edges; it only grows.
type User struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	Name           string          `gorm:"size:100;not null" json:"name"`
	Email          string          `gorm:"size:100;uniqueIndex;not null" json:"email"`
	ReferralCode   string          `gorm:"size:10;uniqueIndex;not null" json:"referral_code"`
	ReferralsCount int64           `gorm:"not null;default:0" json:"referrals_count"`
	ProfilePicture string          `gorm:"size:255;default:''" json:"profile_picture"`
	TotalEarned    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_earned"`
	CreatedAt      time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time       `json:"updated_at" gorm:"autoUpdateTime"`

	// Admin-only removal; normal operation never deletes users.
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Referrals []Referral `gorm:"foreignKey:ReferrerID" json:"-"`
}
