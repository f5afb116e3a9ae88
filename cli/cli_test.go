package cli

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"referral-rewards-system/config"
	"referral-rewards-system/models"
	"referral-rewards-system/services"

	"github.com/shopspring/decimal"
)

func TestParsePeriod(t *testing.T) {
	if p, err := parsePeriod("weekly"); err != nil || p != models.PeriodWeekly {
		t.Errorf("parsePeriod(weekly) = %q, %v", p, err)
	}
	if _, err := parsePeriod("monthly"); !errors.Is(err, services.ErrUnknownPeriod) {
		t.Errorf("parsePeriod(monthly) error = %v, want ErrUnknownPeriod", err)
	}
}

func TestBootstrap(t *testing.T) {
	cfg := config.Default()
	cfg.Database = config.DatabaseConfig{
		Type: "sqlite",
		URL:  "file:" + filepath.Join(t.TempDir(), "cli.db"),
	}
	cfg.Rewards.Timezone = "UTC"
	cfg.Rewards.DailyPrizeAmount = 2.5

	rt, err := bootstrap(context.Background(), cfg)
	if err != nil {
		t.Fatalf("bootstrap() error: %v", err)
	}
	defer rt.close()

	if _, ok := rt.winners.Notifier.(services.LogNotifier); !ok {
		t.Errorf("Notifier = %T, want LogNotifier without SMTP", rt.winners.Notifier)
	}
	if rt.winners.Archive != nil {
		t.Errorf("Archive = %v, want nil without R2", rt.winners.Archive)
	}
	daily := rt.winners.Rules[models.PeriodDaily]
	if daily.Threshold != 20 || !daily.Amount.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("daily rule = %+v", daily)
	}

	results, err := rt.winners.ProcessAll(context.Background())
	if err != nil {
		t.Fatalf("ProcessAll() error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	for _, r := range results {
		if r.Status != services.SelectionNoWinner {
			t.Errorf("%s status = %s, want no_winner on an empty database", r.Period, r.Status)
		}
	}
}

func TestLoadConfig_FlagsOverride(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env/rewards")
	t.Setenv("DATABASE_TYPE", "postgres")

	databaseURL, databaseType = "file:flag.db", "sqlite"
	defer func() { databaseURL, databaseType = "", "" }()

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if cfg.Database.URL != "file:flag.db" || cfg.Database.Type != "sqlite" {
		t.Errorf("Database = %+v, want flag values", cfg.Database)
	}
}
