// Package testutil provides a migrated sqlite database and seed helpers for tests.
package testutil

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"referral-rewards-system/config"
	"referral-rewards-system/database"
	"referral-rewards-system/models"

	"gorm.io/gorm"
)

// NewTestDB returns a fresh, migrated database backed by a temp file.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "rewards.db")
	db, err := database.Open(config.DatabaseConfig{
		Type: "sqlite",
		URL:  "file:" + path + "?_pragma=busy_timeout(5000)",
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// CreateUser inserts a user with a predictable email and referral code.
func CreateUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()

	user := &models.User{
		Name:         name,
		Email:        fmt.Sprintf("%s@example.com", name),
		ReferralCode: fmt.Sprintf("R%.7s", name),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create user %s: %v", name, err)
	}
	return user
}

// AddReferrals records n referrals for the user at the given instant and bumps
// the user's cached referral count.
func AddReferrals(t *testing.T, db *gorm.DB, user *models.User, n int, at time.Time) {
	t.Helper()

	if n == 0 {
		return
	}
	refs := make([]models.Referral, n)
	for i := range refs {
		refs[i] = models.Referral{
			ReferrerID:    user.ID,
			ReferredEmail: fmt.Sprintf("%s-%d-%d@referred.example.com", user.ReferralCode, at.UnixNano(), i),
			CreatedAt:     at.UTC(),
		}
	}
	if err := db.CreateInBatches(refs, 100).Error; err != nil {
		t.Fatalf("Failed to add referrals for %s: %v", user.Name, err)
	}
	if err := db.Model(user).UpdateColumn("referrals_count", gorm.Expr("referrals_count + ?", n)).Error; err != nil {
		t.Fatalf("Failed to bump referrals_count for %s: %v", user.Name, err)
	}
	user.ReferralsCount += int64(n)
}
