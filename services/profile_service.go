package services

import (
	"context"
	"errors"
	"fmt"

	"referral-rewards-system/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Profile is a user's referral standing. DailyRank and WeeklyRank are nil when the
// user has no referrals in the current window.
type Profile struct {
	ID              uint            `json:"id"`
	Name            string          `json:"name"`
	Email           string          `json:"email"`
	ProfilePicture  string          `json:"profilePicture"`
	ReferralCode    string          `json:"referralCode"`
	TotalReferrals  int64           `json:"totalReferrals"`
	DailyReferrals  int64           `json:"dailyReferrals"`
	WeeklyReferrals int64           `json:"weeklyReferrals"`
	TotalRank       int64           `json:"totalRank"`
	DailyRank       *int            `json:"dailyRank"`
	WeeklyRank      *int            `json:"weeklyRank"`
	TotalEarned     decimal.Decimal `json:"totalEarned"`
	ReferralLink    string          `json:"referralLink"`
}

type ProfileService struct {
	DB            *gorm.DB
	Leaderboard   *LeaderboardService
	SignupBaseURL string
}

func NewProfileService(db *gorm.DB, leaderboard *LeaderboardService, signupBaseURL string) *ProfileService {
	return &ProfileService{DB: db, Leaderboard: leaderboard, SignupBaseURL: signupBaseURL}
}

func (s *ProfileService) GetProfile(ctx context.Context, userID uint) (*Profile, error) {
	var user models.User
	err := s.DB.WithContext(ctx).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}

	var ahead int64
	if err := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("referrals_count > ?", user.ReferralsCount).
		Count(&ahead).Error; err != nil {
		return nil, fmt.Errorf("failed to compute total rank: %w", err)
	}

	p := &Profile{
		ID:             user.ID,
		Name:           user.Name,
		Email:          user.Email,
		ProfilePicture: user.ProfilePicture,
		ReferralCode:   user.ReferralCode,
		TotalReferrals: user.ReferralsCount,
		TotalRank:      ahead + 1,
		TotalEarned:    user.TotalEarned,
		ReferralLink:   s.referralLink(user.ReferralCode),
	}

	now := s.Leaderboard.Now()
	for _, period := range []models.PeriodType{models.PeriodDaily, models.PeriodWeekly} {
		w, err := s.Leaderboard.Periods.Window(period, now)
		if err != nil {
			return nil, err
		}
		board, err := s.Leaderboard.ForWindow(ctx, w)
		if err != nil {
			return nil, err
		}

		var count int64
		var rank *int
		if e, ok := EntryFor(board, user.ID); ok {
			rank, count = &e.Rank, e.Score
		}
		if period == models.PeriodDaily {
			p.DailyReferrals, p.DailyRank = count, rank
		} else {
			p.WeeklyReferrals, p.WeeklyRank = count, rank
		}
	}
	return p, nil
}

func (s *ProfileService) referralLink(code string) string {
	return ReferralLink(s.SignupBaseURL, code)
}
