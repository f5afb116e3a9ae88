package cli

import (
	"context"
	"encoding/json"
	"os"

	"referral-rewards-system/models"
	"referral-rewards-system/services"

	"github.com/spf13/cobra"
)

var winnersCmd = &cobra.Command{
	Use:   "winners",
	Short: "Winner selection and history",
}

var winnersRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Select and pay the winner for the current window",
	Long: `Select and pay the winner for the current daily or weekly window.
Safe to run repeatedly: a window that already has a winner is left untouched.`,
	RunE: runWinnersRun,
}

var winnersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded winners, newest first",
	RunE:  runWinnersList,
}

func init() {
	rootCmd.AddCommand(winnersCmd)
	winnersCmd.AddCommand(winnersRunCmd)
	winnersCmd.AddCommand(winnersListCmd)

	winnersRunCmd.Flags().String("period", "all", "daily, weekly or all")
	winnersListCmd.Flags().String("period", "", "Filter by daily or weekly")
	winnersListCmd.Flags().Int("page", 1, "Page number")
	winnersListCmd.Flags().Int("size", 20, "Page size")
}

func runWinnersRun(cmd *cobra.Command, _ []string) error {
	periodFlag, _ := cmd.Flags().GetString("period")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	rt, err := bootstrap(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.close()

	var results []*services.SelectionResult
	if periodFlag == "all" {
		results, err = rt.winners.ProcessAll(ctx)
	} else {
		period, perr := parsePeriod(periodFlag)
		if perr != nil {
			return perr
		}
		var res *services.SelectionResult
		res, err = rt.winners.SelectAndProcess(ctx, period)
		if res != nil {
			results = append(results, res)
		}
	}
	if printErr := printJSON(results); printErr != nil {
		return printErr
	}
	return err
}

func runWinnersList(cmd *cobra.Command, _ []string) error {
	periodFlag, _ := cmd.Flags().GetString("period")
	page, _ := cmd.Flags().GetInt("page")
	size, _ := cmd.Flags().GetInt("size")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	rt, err := bootstrap(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.close()

	var filter models.PeriodType
	if periodFlag != "" {
		if filter, err = parsePeriod(periodFlag); err != nil {
			return err
		}
	}
	winners, total, err := rt.winners.ListWinners(ctx, filter, page, size)
	if err != nil {
		return err
	}
	return printJSON(map[string]any{"winners": winners, "total": total})
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
