package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Print the current daily or weekly leaderboard",
	RunE:  runLeaderboard,
}

func init() {
	rootCmd.AddCommand(leaderboardCmd)
	leaderboardCmd.Flags().String("period", "daily", "daily or weekly")
}

func runLeaderboard(cmd *cobra.Command, _ []string) error {
	periodFlag, _ := cmd.Flags().GetString("period")
	period, err := parsePeriod(periodFlag)
	if err != nil {
		return err
	}

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

	w, entries, err := rt.leaderboard.Current(ctx, period)
	if err != nil {
		return err
	}

	fmt.Printf("%s leaderboard %s to %s\n", period, w.Start.Format("2006-01-02 15:04"), w.End.Format("2006-01-02 15:04:05 MST"))
	if len(entries) == 0 {
		fmt.Println("No referrals in this window yet.")
		return nil
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tUSER\tNAME\tREFERRALS")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%d\n", e.Rank, e.UserID, e.Name, e.Score)
	}
	return tw.Flush()
}
