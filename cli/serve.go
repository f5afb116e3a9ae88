package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"referral-rewards-system/handlers"
	"referral-rewards-system/models"
	"referral-rewards-system/services"

	"github.com/spf13/cobra"
)

var (
	servePort   int
	noScheduler bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the winner scheduler",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Listen port (overrides PORT)")
	serveCmd.Flags().BoolVar(&noScheduler, "no-scheduler", false, "Do not schedule winner selection (use an external cron)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.close()

	if !noScheduler {
		sched, err := rt.winners.StartWinnerScheduler(ctx, []services.WinnerSchedule{
			{Period: models.PeriodDaily, Cron: cfg.Rewards.DailyCron},
			{Period: models.PeriodWeekly, Cron: cfg.Rewards.WeeklyCron},
		})
		if err != nil {
			return err
		}
		defer func() {
			if err := sched.Shutdown(); err != nil {
				log.Printf("[Scheduler] shutdown: %v", err)
			}
		}()
	}

	app := handlers.NewApp(cfg.Server, handlers.Services{
		Referrals:   rt.referrals,
		Leaderboard: rt.leaderboard,
		Profiles:    rt.profiles,
		Winners:     rt.winners,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(addr)
	}()

	log.Printf("✅ Server running on http://localhost%s", addr)
	log.Printf("✅ CORS configured for origins: %s", cfg.Server.Origins())
	log.Printf("✅ Rewards timezone: %s", rt.periods.Location)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	return app.ShutdownWithTimeout(10 * time.Second)
}
