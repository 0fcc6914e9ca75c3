package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/theirongolddev/tally/internal/cli"
	"github.com/theirongolddev/tally/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	flagLogDate  string
	flagLogMonth string
	flagLogFrom  string
	flagLogTo    string
	flagLogUser  string
	flagLogHours string
	flagLogDescs []string
)

var logCmd = &cobra.Command{
	Use:     "log",
	Aliases: []string{"logs"},
	Short:   "Record and review time logs",
}

var logListCmd = &cobra.Command{
	Use:   "list <project>",
	Short: "List time logs of a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogList,
}

var logAddCmd = &cobra.Command{
	Use:   "add <project> <hours> <description>...",
	Short: "Log hours as the signed-in user",
	Args:  cobra.MinimumNArgs(3),
	RunE:  runLogAdd,
}

var logEditCmd = &cobra.Command{
	Use:   "edit <log-id>",
	Short: "Replace the hours and descriptions of a log",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogEdit,
}

var logRemoveCmd = &cobra.Command{
	Use:     "rm <log-id>",
	Aliases: []string{"remove"},
	Short:   "Delete a log",
	Args:    cobra.ExactArgs(1),
	RunE:    runLogRemove,
}

func init() {
	logListCmd.Flags().StringVarP(&flagLogMonth, "month", "m", "", "Month as YYYY-MM (default: current month)")
	logListCmd.Flags().StringVar(&flagLogFrom, "from", "", "First date (YYYY-MM-DD); overrides --month")
	logListCmd.Flags().StringVar(&flagLogTo, "to", "", "Last date (YYYY-MM-DD); overrides --month")
	logListCmd.Flags().StringVar(&flagLogUser, "user", "", "Only logs of this user")

	logAddCmd.Flags().StringVar(&flagLogDate, "date", "", "Date as YYYY-MM-DD (default: today)")

	logEditCmd.Flags().StringVar(&flagLogHours, "hours", "", "Hours spent")
	logEditCmd.Flags().StringArrayVar(&flagLogDescs, "desc", nil, "Work description (repeatable)")
	_ = logEditCmd.MarkFlagRequired("hours")
	_ = logEditCmd.MarkFlagRequired("desc")

	logCmd.AddCommand(logListCmd, logAddCmd, logEditCmd, logRemoveCmd)
	rootCmd.AddCommand(logCmd)
}

// logRange resolves the date flags of `log list`.
func logRange() (model.Date, model.Date, error) {
	if flagLogFrom == "" && flagLogTo == "" {
		month, err := parseMonthArg(flagLogMonth)
		if err != nil {
			return model.Date{}, model.Date{}, err
		}
		return month.Start(), month.End(), nil
	}
	var from, to model.Date
	var err error
	if flagLogFrom != "" {
		if from, err = model.ParseDate(flagLogFrom); err != nil {
			return from, to, err
		}
	}
	if flagLogTo != "" {
		if to, err = model.ParseDate(flagLogTo); err != nil {
			return from, to, err
		}
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return from, to, model.NewValidationError("to", "end date is before start date")
	}
	return from, to, nil
}

func runLogList(cmd *cobra.Command, args []string) error {
	return withTracker(cmd, func(ctx context.Context, a *app) error {
		p, err := resolveProject(ctx, a, args[0])
		if err != nil {
			return err
		}
		from, to, err := logRange()
		if err != nil {
			return err
		}
		var only uuid.UUID
		if flagLogUser != "" {
			if only, err = resolveUser(ctx, a, flagLogUser); err != nil {
				return err
			}
		}
		logs, err := a.tracker.Logs.Range(ctx, p.ID, from, to)
		if err != nil {
			return err
		}
		names, err := userNames(ctx, a)
		if err != nil {
			return err
		}

		var (
			rows  [][]string
			total decimal.Decimal
		)
		for _, l := range logs {
			if only != uuid.Nil && l.UserID != only {
				continue
			}
			total = total.Add(l.Hours)
			rows = append(rows, []string{
				l.Date.String() + " " + cli.FormatDayOfWeek(int(l.Date.Weekday())),
				nameOf(names, l.UserID),
				cli.FormatHours(l.Hours),
				truncate(strings.Join(l.Descriptions, "; "), 40),
				l.ID.String(),
			})
		}
		if len(rows) == 0 {
			fmt.Printf("\n  No logs for %s in that range.\n", p.Name)
			return nil
		}
		rows = append(rows, []string{"---"}, []string{"Total", "", cli.FormatHours(total), "", ""})

		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   p.Name,
			Headers: []string{"Date", "Member", "Hours", "Work", "ID"},
			Rows:    rows,
		}))
		return nil
	})
}

func runLogAdd(cmd *cobra.Command, args []string) error {
	return withTracker(cmd, func(ctx context.Context, a *app) error {
		p, err := resolveProject(ctx, a, args[0])
		if err != nil {
			return err
		}
		hours, err := parseAmount("hours_spent", args[1])
		if err != nil {
			return err
		}
		date, err := parseDateArg(flagLogDate)
		if err != nil {
			return err
		}
		l, err := a.tracker.Logs.Create(ctx, p.ID, date, hours, args[2:])
		if err != nil {
			return err
		}
		fmt.Printf("  Logged %s on %s for %s (%s)\n", cli.FormatHours(l.Hours), p.Name, l.Date, l.ID)
		return nil
	})
}

func runLogEdit(cmd *cobra.Command, args []string) error {
	return withTracker(cmd, func(ctx context.Context, a *app) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return model.NewValidationError("id", fmt.Sprintf("invalid log id %q", args[0]))
		}
		hours, err := parseAmount("hours_spent", flagLogHours)
		if err != nil {
			return err
		}
		if err := a.tracker.Logs.Update(ctx, id, hours, flagLogDescs); err != nil {
			return err
		}
		fmt.Printf("  Updated log %s\n", id)
		return nil
	})
}

func runLogRemove(cmd *cobra.Command, args []string) error {
	return withTracker(cmd, func(ctx context.Context, a *app) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return model.NewValidationError("id", fmt.Sprintf("invalid log id %q", args[0]))
		}
		if err := a.tracker.Logs.Delete(ctx, id); err != nil {
			return err
		}
		fmt.Printf("  Deleted log %s\n", id)
		return nil
	})
}
