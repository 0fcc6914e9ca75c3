package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/tally/internal/cli"
	"github.com/theirongolddev/tally/internal/model"

	"github.com/spf13/cobra"
)

var flagCalendarMonth string

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Manage working days and holidays",
}

var calendarShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a month's working days and holidays",
	Args:  cobra.NoArgs,
	RunE:  runCalendarShow,
}

var calendarSetCmd = &cobra.Command{
	Use:   "set <month> [days]",
	Short: "Record a month's working days; without days they are counted from weekdays and holidays",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runCalendarSet,
}

var calendarHolidayCmd = &cobra.Command{
	Use:   "holiday <date> <name>...",
	Short: "Record a holiday",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runCalendarHoliday,
}

func init() {
	calendarShowCmd.Flags().StringVarP(&flagCalendarMonth, "month", "m", "", "Month as YYYY-MM (default: current month)")

	calendarCmd.AddCommand(calendarShowCmd, calendarSetCmd, calendarHolidayCmd)
	rootCmd.AddCommand(calendarCmd)
}

func runCalendarShow(cmd *cobra.Command, _ []string) error {
	return withTracker(cmd, func(ctx context.Context, a *app) error {
		month, err := parseMonthArg(flagCalendarMonth)
		if err != nil {
			return err
		}
		total, err := a.tracker.Days.InMonth(ctx, month)
		if err != nil {
			return err
		}
		holidays, err := a.tracker.Backend().ListHolidays(ctx, month.Start(), month.End())
		if err != nil {
			return err
		}

		fmt.Println()
		fmt.Println(cli.RenderTitle("CALENDAR  " + month.Label()))
		fmt.Println()
		if total == 0 {
			field("Working days", cli.Muted("not set; run `tally calendar set "+month.Key()[:7]+"`"))
		} else {
			field("Working days", strconv.Itoa(total))
		}
		if now := today(); month.Contains(now) && total > 0 {
			field("Elapsed", strconv.Itoa(a.tracker.Days.Elapsed(ctx, now)))
		}

		if len(holidays) > 0 {
			fmt.Println()
			rows := make([][]string, 0, len(holidays))
			for _, h := range holidays {
				rows = append(rows, []string{
					h.Date.String(),
					cli.FormatDayOfWeek(int(h.Date.Weekday())),
					h.Name,
				})
			}
			fmt.Print(cli.RenderTable(cli.Table{
				Title:   "Holidays",
				Headers: []string{"Date", "Day", "Name"},
				Rows:    rows,
			}))
		}
		return nil
	})
}

func runCalendarSet(cmd *cobra.Command, args []string) error {
	return withTracker(cmd, func(ctx context.Context, a *app) error {
		month, err := model.ParseMonth(args[0])
		if err != nil {
			return err
		}
		var override *int
		if len(args) == 2 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return model.NewValidationError("working_days", fmt.Sprintf("invalid day count %q", args[1]))
			}
			override = &n
		}
		days, err := a.tracker.Backend().ScheduleMonth(ctx, month, override)
		if err != nil {
			return err
		}
		fmt.Printf("  %s has %d working days\n", month.Label(), days)
		return nil
	})
}

func runCalendarHoliday(cmd *cobra.Command, args []string) error {
	return withTracker(cmd, func(ctx context.Context, a *app) error {
		date, err := model.ParseDate(args[0])
		if err != nil {
			return err
		}
		name := strings.TrimSpace(strings.Join(args[1:], " "))
		if name == "" {
			return errors.New("holiday name is required")
		}
		if err := a.tracker.Backend().AddHoliday(ctx, date, name); err != nil {
			return err
		}
		fmt.Printf("  Recorded %s on %s\n", name, date)
		fmt.Printf("  Run `tally calendar set %s` to recount that month.\n", date.MonthOf().Key()[:7])
		return nil
	})
}
