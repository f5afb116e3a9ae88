package services

import (
	"context"
	"fmt"
	"time"

	"referral-rewards-system/metrics"
	"referral-rewards-system/models"

	"gorm.io/gorm"
)

// LeaderboardEntry is one ranked row. Score is the referral count inside the window
// (or the all-time cached count for the all-time board).
type LeaderboardEntry struct {
	Rank           int    `json:"rank"`
	UserID         uint   `json:"user_id"`
	Name           string `json:"name"`
	ProfilePicture string `json:"profilePicture"`
	Score          int64  `json:"score"`
}

// EntryFor returns userID's row on the board, or false if the user has no
// referrals in it.
func EntryFor(entries []LeaderboardEntry, userID uint) (LeaderboardEntry, bool) {
	for _, e := range entries {
		if e.UserID == userID {
			return e, true
		}
	}
	return LeaderboardEntry{}, false
}

type LeaderboardService struct {
	DB      *gorm.DB
	Periods *PeriodCalculator
	Now     func() time.Time
}

func NewLeaderboardService(db *gorm.DB, periods *PeriodCalculator) *LeaderboardService {
	return &LeaderboardService{DB: db, Periods: periods, Now: time.Now}
}

// Current ranks users for the period window containing now. Read-only.
func (s *LeaderboardService) Current(ctx context.Context, period models.PeriodType) (Window, []LeaderboardEntry, error) {
	w, err := s.Periods.Window(period, s.Now())
	if err != nil {
		return Window{}, nil, err
	}
	entries, err := s.ForWindow(ctx, w)
	return w, entries, err
}

// ForWindow ranks users by referrals created in [w.Start, w.Until()).
func (s *LeaderboardService) ForWindow(ctx context.Context, w Window) ([]LeaderboardEntry, error) {
	until := w.Until()
	return rankReferrers(s.DB.WithContext(ctx), w.Start, &until)
}

// Since ranks users by referrals created at or after since, with no upper bound.
func (s *LeaderboardService) Since(ctx context.Context, since time.Time) ([]LeaderboardEntry, error) {
	return rankReferrers(s.DB.WithContext(ctx), since, nil)
}

// AllTime returns the top limit users by their cached referral count.
func (s *LeaderboardService) AllTime(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 7
	}

	var users []models.User
	err := s.DB.WithContext(ctx).
		Order("referrals_count DESC").
		Order("id ASC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load all-time leaderboard: %w", err)
	}

	entries := make([]LeaderboardEntry, len(users))
	for i, u := range users {
		entries[i] = LeaderboardEntry{
			Rank:           i + 1,
			UserID:         u.ID,
			Name:           u.Name,
			ProfilePicture: u.ProfilePicture,
			Score:          u.ReferralsCount,
		}
	}
	return entries, nil
}

// rankReferrers runs one grouped aggregation over referral edges. Ties are broken
// by user id so repeated calls over the same data rank identically.
func rankReferrers(db *gorm.DB, since time.Time, until *time.Time) ([]LeaderboardEntry, error) {
	scope := "since"
	if until != nil {
		scope = "window"
	}
	timer := time.Now()
	defer func() {
		metrics.LeaderboardDuration.WithLabelValues(scope).Observe(time.Since(timer).Seconds())
	}()

	var rows []struct {
		UserID         uint
		Name           string
		ProfilePicture string
		Score          int64
	}

	q := db.Table("users").
		Select("users.id AS user_id, users.name, users.profile_picture, COUNT(referrals.id) AS score").
		Joins("JOIN referrals ON referrals.referrer_id = users.id").
		Where("users.deleted_at IS NULL").
		Where("referrals.created_at >= ?", since.UTC())
	if until != nil {
		q = q.Where("referrals.created_at < ?", until.UTC())
	}

	err := q.Group("users.id, users.name, users.profile_picture").
		Order("score DESC").
		Order("users.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate referrals: %w", err)
	}

	entries := make([]LeaderboardEntry, len(rows))
	for i, r := range rows {
		entries[i] = LeaderboardEntry{
			Rank:           i + 1,
			UserID:         r.UserID,
			Name:           r.Name,
			ProfilePicture: r.ProfilePicture,
			Score:          r.Score,
		}
	}
	return entries, nil
}
