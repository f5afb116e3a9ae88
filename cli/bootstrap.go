package cli

import (
	"context"
	"fmt"
	"log"

	"referral-rewards-system/config"
	"referral-rewards-system/database"
	"referral-rewards-system/models"
	"referral-rewards-system/services"
	"referral-rewards-system/utils"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// runtime is the wired service graph shared by every command.
type runtime struct {
	cfg         config.Config
	db          *gorm.DB
	periods     *services.PeriodCalculator
	referrals   *services.ReferralService
	leaderboard *services.LeaderboardService
	profiles    *services.ProfileService
	winners     *services.WinnerService
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if databaseURL != "" {
		cfg.Database.URL = databaseURL
	}
	if databaseType != "" {
		cfg.Database.Type = databaseType
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func bootstrap(ctx context.Context, cfg config.Config) (*runtime, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}

	var notifier services.Notifier = services.LogNotifier{}
	var welcome services.WelcomeSender = services.LogNotifier{}
	if cfg.SMTP.Enabled() {
		email := services.NewEmailNotifier(cfg.SMTP)
		notifier, welcome = email, email
	} else {
		log.Println("⚠️  [Notify] SMTP not configured, winner and welcome emails go to the log")
	}

	var archive services.ReceiptArchive
	r2, err := utils.NewR2Archive(ctx, cfg.Archive)
	if err != nil {
		return nil, err
	}
	if r2 != nil {
		archive = r2
	}

	periods := services.NewPeriodCalculator(loc)
	leaderboard := services.NewLeaderboardService(db, periods)
	rules := []services.PeriodRule{
		{Type: models.PeriodDaily, Threshold: cfg.Rewards.DailyThreshold, Amount: decimal.NewFromFloat(cfg.Rewards.DailyPrizeAmount)},
		{Type: models.PeriodWeekly, Threshold: cfg.Rewards.WeeklyThreshold, Amount: decimal.NewFromFloat(cfg.Rewards.WeeklyPrizeAmount)},
	}

	referrals := services.NewReferralService(db)
	referrals.Welcome = welcome
	referrals.SignupBaseURL = cfg.Server.SignupBaseURL

	return &runtime{
		cfg:         cfg,
		db:          db,
		periods:     periods,
		referrals:   referrals,
		leaderboard: leaderboard,
		profiles:    services.NewProfileService(db, leaderboard, cfg.Server.SignupBaseURL),
		winners:     services.NewWinnerService(db, periods, rules, notifier, archive),
	}, nil
}

func (r *runtime) close() {
	if sqlDB, err := r.db.DB(); err == nil {
		sqlDB.Close()
	}
}

func parsePeriod(s string) (models.PeriodType, error) {
	p := models.PeriodType(s)
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q (use daily or weekly)", services.ErrUnknownPeriod, s)
	}
	return p, nil
}
