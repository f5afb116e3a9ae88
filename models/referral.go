package models

import "time"

// Referral is one edge from a referrer to the email they brought in.
// ReferredEmail is unique system-wide; the check happens when the referral is processed.
type Referral struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ReferrerID    uint      `gorm:"index;not null" json:"referrer_id"`
	ReferredEmail string    `gorm:"size:100;index;not null" json:"referred_email"`
	CreatedAt     time.Time `gorm:"index;autoCreateTime" json:"created_at"`
}
