package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"referral-rewards-system/metrics"
	"referral-rewards-system/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PeriodRule is the eligibility bar and prize for one period type.
type PeriodRule struct {
	Type      models.PeriodType
	Threshold int64
	Amount    decimal.Decimal
}

// PrizeLabel is the human form of the prize, e.g. "$1".
func (r PeriodRule) PrizeLabel() string {
	return "$" + r.Amount.String()
}

type SelectionStatus string

const (
	SelectionWinnerRecorded   SelectionStatus = "winner_recorded"
	SelectionNoWinner         SelectionStatus = "no_winner"
	SelectionAlreadyProcessed SelectionStatus = "already_processed"
)

// SelectionResult describes what a select-and-process run did. NotifyErr is set
// when the payout committed but the notification could not be delivered.
type SelectionResult struct {
	Period            models.PeriodType `json:"period"`
	Window            Window            `json:"window"`
	Status            SelectionStatus   `json:"status"`
	Winner            *models.Winner    `json:"winner,omitempty"`
	NotifyErr         error             `json:"-"`
	NotificationError string            `json:"notification_error,omitempty"`
}

// PublicWinner is a winner as shown to unauthenticated callers: no contact
// details, codes or balances.
type PublicWinner struct {
	Type           models.PeriodType `json:"type"`
	PeriodEnd      time.Time         `json:"period_end"`
	ReferralCount  int64             `json:"referral_count"`
	Amount         decimal.Decimal   `json:"amount"`
	Name           string            `json:"name"`
	ProfilePicture string            `json:"profilePicture"`
}

// PublicWinners projects winner rows (with User preloaded) for public listing.
func PublicWinners(winners []models.Winner) []PublicWinner {
	out := make([]PublicWinner, len(winners))
	for i, w := range winners {
		out[i] = PublicWinner{
			Type:          w.Type,
			PeriodEnd:     w.PeriodEnd,
			ReferralCount: w.ReferralCount,
			Amount:        w.Amount,
		}
		if w.User != nil {
			out[i].Name = w.User.Name
			out[i].ProfilePicture = w.User.ProfilePicture
		}
	}
	return out
}

// ReceiptArchive stores a copy of each committed payout outside the database.
type ReceiptArchive interface {
	ArchiveWinner(ctx context.Context, winner *models.Winner, user *models.User) error
}

type WinnerService struct {
	DB       *gorm.DB
	Periods  *PeriodCalculator
	Rules    map[models.PeriodType]PeriodRule
	Notifier Notifier
	Archive  ReceiptArchive // optional
	Now      func() time.Time
}

func NewWinnerService(db *gorm.DB, periods *PeriodCalculator, rules []PeriodRule, notifier Notifier, archive ReceiptArchive) *WinnerService {
	byType := make(map[models.PeriodType]PeriodRule, len(rules))
	for _, r := range rules {
		byType[r.Type] = r
	}
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &WinnerService{
		DB:       db,
		Periods:  periods,
		Rules:    byType,
		Notifier: notifier,
		Archive:  archive,
		Now:      time.Now,
	}
}

// SelectAndProcess evaluates the current window of period and pays at most one
// winner for it. Running it again in the same window is a no-op once a winner
// exists; with no qualifier it simply re-evaluates.
//
// The existence check, leaderboard read, winner insert and balance credit share
// one transaction. The insert is conditional on the (type, period_end) unique
// index, so a concurrent run that passed the check loses the insert and rolls back.
func (s *WinnerService) SelectAndProcess(ctx context.Context, period models.PeriodType) (*SelectionResult, error) {
	rule, ok := s.Rules[period]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPeriod, period)
	}
	w, err := s.Periods.Window(period, s.Now())
	if err != nil {
		return nil, err
	}

	result := &SelectionResult{Period: period, Window: w}
	var winner models.Winner
	var user models.User

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := findWinner(tx, period, w)
		if err != nil {
			return err
		}
		if existing != nil {
			result.Status = SelectionAlreadyProcessed
			result.Winner = existing
			return nil
		}

		until := w.Until()
		board, err := rankReferrers(tx, w.Start, &until)
		if err != nil {
			return err
		}
		entry, ok := firstQualifier(board, rule.Threshold)
		if !ok {
			result.Status = SelectionNoWinner
			return nil
		}

		if err := tx.First(&user, entry.UserID).Error; err != nil {
			return fmt.Errorf("failed to load winning user %d: %w", entry.UserID, err)
		}

		winner = models.Winner{
			UserID:        user.ID,
			Type:          period,
			PeriodStart:   w.Start.UTC(),
			PeriodEnd:     w.End.UTC(),
			ReferralCount: entry.Score,
			Amount:        rule.Amount,
		}
		if err := claimPeriod(tx, &winner); err != nil {
			return err
		}
		if err := creditBalance(tx, user.ID, rule.Amount); err != nil {
			return err
		}
		result.Status = SelectionWinnerRecorded
		return nil
	})

	if errors.Is(err, errPeriodClaimed) {
		log.Printf("[Winners] %s window ending %s was claimed by a concurrent run", period, w.End.Format(time.RFC3339))
		result.Status = SelectionAlreadyProcessed
		metrics.WinnerSelections.WithLabelValues(string(period), string(result.Status)).Inc()
		return result, nil
	}
	if err != nil {
		log.Printf("[Winners] ❌ %s selection failed, nothing committed: %v", period, err)
		metrics.WinnerSelections.WithLabelValues(string(period), "failed").Inc()
		return nil, fmt.Errorf("failed to process %s winner: %w", period, err)
	}

	metrics.WinnerSelections.WithLabelValues(string(period), string(result.Status)).Inc()

	switch result.Status {
	case SelectionAlreadyProcessed:
		log.Printf("[Winners] %s winner already processed for window ending %s", period, w.End.Format(time.RFC3339))
	case SelectionNoWinner:
		log.Printf("[Winners] No %s winner found (minimum %d referrals not met)", period, rule.Threshold)
	case SelectionWinnerRecorded:
		metrics.PayoutsCredited.WithLabelValues(string(period)).Inc()
		user.TotalEarned = user.TotalEarned.Add(rule.Amount)
		winner.User = &user
		result.Winner = &winner
		log.Printf("[Winners] ✅ %s winner processed: %s with %d referrals (+%s)", period, user.Name, winner.ReferralCount, rule.Amount)
		s.dispatch(ctx, rule, result)
	}
	return result, nil
}

// ProcessAll runs every configured period, daily first. The periods are
// independent, so a failed daily run does not stop the weekly one; the failures
// come back joined.
func (s *WinnerService) ProcessAll(ctx context.Context) ([]*SelectionResult, error) {
	var results []*SelectionResult
	var errs []error
	for _, period := range []models.PeriodType{models.PeriodDaily, models.PeriodWeekly} {
		if _, ok := s.Rules[period]; !ok {
			continue
		}
		res, err := s.SelectAndProcess(ctx, period)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

// dispatch notifies the winner and archives the receipt. Neither can undo the payout.
func (s *WinnerService) dispatch(ctx context.Context, rule PeriodRule, result *SelectionResult) {
	winner := result.Winner
	user := winner.User

	n := WinnerNotification{
		Recipient:     user.Email,
		Name:          user.Name,
		ReferralCount: winner.ReferralCount,
		Prize:         rule.PrizeLabel(),
		Period:        winner.Type,
		Date:          result.Window.End.Format("January 02, 2006"),
		ReferralCode:  user.ReferralCode,
	}
	if err := s.Notifier.NotifyWinner(ctx, n); err != nil {
		result.NotifyErr = err
		result.NotificationError = err.Error()
		metrics.NotificationFailures.WithLabelValues(string(winner.Type)).Inc()
		log.Printf("[Notify] ⚠️ Failed to notify %s winner %s, payout stands: %v", winner.Type, user.Email, err)
	}

	if s.Archive != nil {
		if err := s.Archive.ArchiveWinner(ctx, winner, user); err != nil {
			log.Printf("[Archive] ⚠️ Failed to archive %s winner receipt %d: %v", winner.Type, winner.ID, err)
		}
	}
}

// ListWinners returns winners newest first, optionally filtered by period type.
func (s *WinnerService) ListWinners(ctx context.Context, period models.PeriodType, page, size int) ([]models.Winner, int64, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}

	q := s.DB.WithContext(ctx).Model(&models.Winner{})
	if period != "" {
		if !period.Valid() {
			return nil, 0, fmt.Errorf("%w: %q", ErrUnknownPeriod, period)
		}
		q = q.Where("type = ?", period)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count winners: %w", err)
	}

	var winners []models.Winner
	err := q.Preload("User").
		Order("period_end DESC").
		Order("id DESC").
		Limit(size).
		Offset((page - 1) * size).
		Find(&winners).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list winners: %w", err)
	}
	return winners, total, nil
}

// firstQualifier scans a rank-descending board, so the first hit is also the top scorer over the bar.
func firstQualifier(board []LeaderboardEntry, threshold int64) (LeaderboardEntry, bool) {
	for _, e := range board {
		if e.Score >= threshold {
			return e, true
		}
	}
	return LeaderboardEntry{}, false
}

// findWinner returns the winner already recorded inside w, or nil. Most runs find
// none, so it uses Find rather than First to keep that path off the error log.
func findWinner(tx *gorm.DB, period models.PeriodType, w Window) (*models.Winner, error) {
	var existing []models.Winner
	err := tx.Where("type = ? AND period_end >= ? AND period_end <= ?", period, w.Start.UTC(), w.End.UTC()).
		Order("id ASC").
		Limit(1).
		Find(&existing).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check existing %s winner: %w", period, err)
	}
	if len(existing) == 0 {
		return nil, nil
	}
	return &existing[0], nil
}

// claimPeriod inserts the winner unless the (type, period_end) slot is taken.
func claimPeriod(tx *gorm.DB, winner *models.Winner) error {
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "type"}, {Name: "period_end"}},
		DoNothing: true,
	}).Create(winner)
	if res.Error != nil {
		return fmt.Errorf("failed to insert winner record: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errPeriodClaimed
	}
	return nil
}

func creditBalance(tx *gorm.DB, userID uint, amount decimal.Decimal) error {
	res := tx.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("total_earned", gorm.Expr("total_earned + ?", amount))
	if res.Error != nil {
		return fmt.Errorf("failed to credit user %d: %w", userID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("failed to credit user %d: %w", userID, ErrUserNotFound)
	}
	return nil
}
