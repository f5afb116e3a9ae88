package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"

	"referral-rewards-system/metrics"
	"referral-rewards-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const referralCodeLength = 8

type ReferralService struct {
	DB *gorm.DB
	// NewCode is swappable so collisions can be forced in tests.
	NewCode func() string
	// Welcome, when set, gets a message with the new user's referral link after signup commits.
	Welcome       WelcomeSender
	SignupBaseURL string
}

func NewReferralService(db *gorm.DB) *ReferralService {
	return &ReferralService{DB: db, NewCode: generateReferralCode}
}

type RegisterUserInput struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	ProfilePicture string `json:"profile_picture"`
	ReferrerCode   string `json:"referral_code"` // optional
}

// RegisterUser creates a user with a fresh referral code. When a referrer code is
// given, the referral is recorded in the same transaction, so a bad code leaves no user behind.
func (s *ReferralService) RegisterUser(ctx context.Context, in RegisterUserInput) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	in.ReferrerCode = strings.TrimSpace(in.ReferrerCode)
	if in.Name == "" || in.Email == "" {
		return nil, fmt.Errorf("%w: name and email are required", ErrMissingField)
	}

	var user *models.User
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&models.User{}).Where("email = ?", in.Email).Count(&taken).Error; err != nil {
			return fmt.Errorf("failed to check email: %w", err)
		}
		if taken > 0 {
			return ErrEmailTaken
		}

		if in.ReferrerCode != "" {
			if _, err := recordReferral(tx, in.Email, in.ReferrerCode); err != nil {
				return err
			}
		}

		code, err := s.uniqueCode(tx)
		if err != nil {
			return err
		}
		user = &models.User{
			Name:           in.Name,
			Email:          in.Email,
			ReferralCode:   code,
			ProfilePicture: in.ProfilePicture,
		}
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if in.ReferrerCode != "" {
		metrics.ReferralsProcessed.WithLabelValues("signup").Inc()
	}
	s.sendWelcome(ctx, user)
	return user, nil
}

func (s *ReferralService) sendWelcome(ctx context.Context, user *models.User) {
	if s.Welcome == nil {
		return
	}
	err := s.Welcome.SendWelcome(ctx, WelcomeNotification{
		Recipient:    user.Email,
		Name:         user.Name,
		ReferralCode: user.ReferralCode,
		ReferralLink: ReferralLink(s.SignupBaseURL, user.ReferralCode),
	})
	if err != nil {
		log.Printf("[Notify] ⚠️ Failed to send welcome email to %s, signup stands: %v", user.Email, err)
	}
}

// ReferralLink is the signup URL that credits code's owner.
func ReferralLink(base, code string) string {
	return base + "?ref=" + url.QueryEscape(code)
}

// ProcessReferral records that referrerCode's owner brought in referredEmail.
// Each email can be referred once system-wide.
func (s *ReferralService) ProcessReferral(ctx context.Context, referredEmail, referrerCode string) (*models.Referral, error) {
	referredEmail = normalizeEmail(referredEmail)
	referrerCode = strings.TrimSpace(referrerCode)
	if referredEmail == "" || referrerCode == "" {
		return nil, fmt.Errorf("%w: email and referral code are required", ErrMissingField)
	}

	var ref *models.Referral
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		ref, err = recordReferral(tx, referredEmail, referrerCode)
		return err
	})
	switch {
	case err == nil:
		metrics.ReferralsProcessed.WithLabelValues("accepted").Inc()
	case errors.Is(err, ErrInvalidReferralCode):
		metrics.ReferralsProcessed.WithLabelValues("invalid_code").Inc()
	case errors.Is(err, ErrAlreadyReferred):
		metrics.ReferralsProcessed.WithLabelValues("duplicate").Inc()
	default:
		metrics.ReferralsProcessed.WithLabelValues("failed").Inc()
	}
	return ref, err
}

func recordReferral(tx *gorm.DB, referredEmail, referrerCode string) (*models.Referral, error) {
	var referrer models.User
	err := tx.Where("referral_code = ?", referrerCode).First(&referrer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidReferralCode
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up referral code: %w", err)
	}

	var existing int64
	if err := tx.Model(&models.Referral{}).Where("referred_email = ?", referredEmail).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to check referral: %w", err)
	}
	if existing > 0 {
		return nil, ErrAlreadyReferred
	}

	ref := &models.Referral{ReferrerID: referrer.ID, ReferredEmail: referredEmail}
	if err := tx.Create(ref).Error; err != nil {
		return nil, fmt.Errorf("failed to create referral: %w", err)
	}
	if err := tx.Model(&referrer).UpdateColumn("referrals_count", gorm.Expr("referrals_count + ?", 1)).Error; err != nil {
		return nil, fmt.Errorf("failed to increment referral count: %w", err)
	}
	return ref, nil
}

func (s *ReferralService) uniqueCode(tx *gorm.DB) (string, error) {
	for attempt := 0; attempt < 10; attempt++ {
		code := s.NewCode()
		var n int64
		if err := tx.Model(&models.User{}).Unscoped().Where("referral_code = ?", code).Count(&n).Error; err != nil {
			return "", fmt.Errorf("failed to check referral code: %w", err)
		}
		if n == 0 {
			return code, nil
		}
	}
	return "", errors.New("could not generate a unique referral code")
}

func generateReferralCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:referralCodeLength])
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
