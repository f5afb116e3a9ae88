package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PeriodType is the cadence a winner is selected on.
type PeriodType string

const (
	PeriodDaily  PeriodType = "daily"
	PeriodWeekly PeriodType = "weekly"
)

// Valid reports whether p is a known period type.
func (p PeriodType) Valid() bool {
	return p == PeriodDaily || p == PeriodWeekly
}

// Winner is the durable record of a paid period.
// The unique (type, period_end) index is the idempotency token: a second insert
// for the same window fails instead of paying twice.
type Winner struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	UserID        uint            `gorm:"index;not null" json:"user_id"`
	Type          PeriodType      `gorm:"type:varchar(16);not null;uniqueIndex:idx_winner_period,priority:1" json:"type"`
	PeriodStart   time.Time       `gorm:"not null" json:"period_start"`
	PeriodEnd     time.Time       `gorm:"not null;uniqueIndex:idx_winner_period,priority:2" json:"period_end"`
	ReferralCount int64           `gorm:"not null" json:"referral_count"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	CreatedAt     time.Time       `json:"created_at" gorm:"autoCreateTime"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
