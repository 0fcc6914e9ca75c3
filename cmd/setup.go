package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/theirongolddev/tally/internal/config"
	"github.com/theirongolddev/tally/internal/model"
	"github.com/theirongolddev/tally/internal/tui"
	"github.com/theirongolddev/tally/internal/tui/theme"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	Args:  cobra.NoArgs,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadFile()
	if err != nil {
		return err
	}

	theme.SetActive(cfg.Appearance.Theme)
	lipgloss.SetColorProfile(termenv.TrueColor)

	v := tui.SetupValuesFrom(cfg)
	if err := tui.NewSetupForm(&v).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled; nothing was saved.")
			return nil
		}
		return err
	}

	id, err := v.Apply(&cfg)
	if err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Printf("  Signed in as %s\n", id)

	if strings.TrimSpace(v.FullName) != "" || strings.TrimSpace(v.Email) != "" {
		err := withTracker(cmd, func(ctx context.Context, a *app) error {
			_, err := a.tracker.Projects.SaveProfile(ctx, model.Profile{
				ID:       id,
				FullName: strings.TrimSpace(v.FullName),
				Email:    strings.TrimSpace(v.Email),
			})
			return err
		})
		if err != nil {
			fmt.Printf("  Could not save your profile: %s\n", describeError(err))
			fmt.Println("  Retry with `tally user add --id " + id.String() + " --name <name>`.")
		}
	}

	fmt.Println("  Run `tally setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}
