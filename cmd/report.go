package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/theirongolddev/tally/internal/cli"
	"github.com/theirongolddev/tally/internal/model"
	"github.com/theirongolddev/tally/internal/reconcile"

	"github.com/spf13/cobra"
)

var flagReportMonth string

var reportCmd = &cobra.Command{
	Use:   "report <project>",
	Short: "Reconcile a month: spend against budget, allocations and pacing",
	Args:  cobra.ExactArgs(1),
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&flagReportMonth, "month", "m", "", "Month as YYYY-MM (default: current month)")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	return withTracker(cmd, func(ctx context.Context, a *app) error {
		p, err := resolveProject(ctx, a, args[0])
		if err != nil {
			return err
		}
		month, err := parseMonthArg(flagReportMonth)
		if err != nil {
			return err
		}
		view, err := a.tracker.MonthView(ctx, p.ID, month, today())
		if err != nil {
			return err
		}
		names, err := userNames(ctx, a)
		if err != nil {
			return err
		}
		r := view.Report

		fmt.Println()
		fmt.Println(cli.RenderTitle(fmt.Sprintf("%s  %s", strings.ToUpper(p.Name), month.Label())))
		fmt.Println()

		field("Budget", cli.FormatMoney(r.Budget))
		field("Spend", cli.FormatMoney(r.Spend))
		field("Used", cli.RenderBudgetBar(r.Percentage, 30))
		remaining := cli.FormatMoney(r.Remaining)
		if r.Remaining.IsNegative() {
			remaining = cli.Bad(remaining)
		}
		field("Unallocated", remaining)
		field("Logged", cli.FormatHours(r.LoggedHours))
		if r.UnratedHours.IsPositive() {
			fmt.Printf("  %s\n", cli.Warn(fmt.Sprintf("%s logged by users without a rate are not costed",
				cli.FormatHours(r.UnratedHours))))
		}
		if r.OverBudget() {
			fmt.Printf("  %s\n", cli.Bad("Over budget"))
		}
		field("Days", workingDaysLine(r.WorkingDays))

		if spark := dailySparkline(month, view.Logs); spark != "" {
			field("Daily", spark)
		}
		fmt.Println()

		if len(r.Members) == 0 {
			fmt.Println("  No members, allocations or logs this month.")
			return nil
		}
		rows := make([][]string, 0, len(r.Members))
		for _, m := range r.Members {
			rate, spend := cli.Muted("no rate"), cli.Muted("-")
			if m.Rated {
				rate = cli.FormatMoney(m.Rate) + "/h"
				spend = cli.FormatMoney(m.Spend)
			}
			allocated := cli.FormatHours(m.Allocated)
			if m.OverCap {
				allocated = cli.Bad(allocated)
			}
			rows = append(rows, []string{
				nameOf(names, m.UserID),
				rate,
				allocated,
				m.MaxHours.String(),
				cli.FormatHours(m.Logged),
				spend,
				paceCell(m.Pacing),
			})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"Member", "Rate", "Allocated", "Max hours", "Logged", "Spend", "Pace"},
			Rows:    rows,
		}))
		return nil
	})
}

func field(label, value string) {
	fmt.Printf("  %-12s %s\n", label, value)
}

func workingDaysLine(wd reconcile.WorkingDays) string {
	if wd.Total == 0 {
		return cli.Muted("no working days set for this month")
	}
	if !wd.Current {
		return fmt.Sprintf("%d working days", wd.Total)
	}
	return fmt.Sprintf("%d of %d working days elapsed", wd.Elapsed, wd.Total)
}

func paceCell(p reconcile.Pacing) string {
	switch p.Status {
	case reconcile.PaceAhead:
		return cli.Good(fmt.Sprintf("%s (%s)", p.Status, cli.FormatHoursDelta(p.Delta)))
	case reconcile.PaceBehind:
		return cli.Bad(fmt.Sprintf("%s (%s)", p.Status, cli.FormatHoursDelta(p.Delta)))
	default:
		return cli.Muted(p.Status.String())
	}
}

// dailySparkline plots hours logged per day of month.
func dailySparkline(month model.Month, logs []model.DailyLog) string {
	if len(logs) == 0 {
		return ""
	}
	days := make([]float64, month.End().Day)
	for _, l := range logs {
		if month.Contains(l.Date) {
			h, _ := l.Hours.Float64()
			days[l.Date.Day-1] += h
		}
	}
	return cli.RenderSparkline(days)
}
