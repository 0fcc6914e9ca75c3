package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/theirongolddev/tally/internal/cli"
	"github.com/theirongolddev/tally/internal/config"
	"github.com/theirongolddev/tally/internal/model"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	flagUserEmail string
	flagUserName  string
	flagUserID    string
)

var userCmd = &cobra.Command{
	Use:     "user",
	Aliases: []string{"users"},
	Short:   "Manage user profiles",
}

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create or update a user profile",
	Args:  cobra.NoArgs,
	RunE:  runUserAdd,
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List user profiles",
	Args:  cobra.NoArgs,
	RunE:  runUserList,
}

var loginCmd = &cobra.Command{
	Use:   "login [user]",
	Short: "Sign in as a user, or show who is signed in",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

func init() {
	userAddCmd.Flags().StringVar(&flagUserEmail, "email", "", "Email address")
	userAddCmd.Flags().StringVar(&flagUserName, "name", "", "Full name")
	userAddCmd.Flags().StringVar(&flagUserID, "id", "", "User ID to update (default: a new one)")

	userCmd.AddCommand(userAddCmd, userListCmd)
	rootCmd.AddCommand(userCmd, loginCmd, logoutCmd)
}

func runUserAdd(cmd *cobra.Command, _ []string) error {
	return withTracker(cmd, func(ctx context.Context, a *app) error {
		p := model.Profile{
			Email:    strings.TrimSpace(flagUserEmail),
			FullName: strings.TrimSpace(flagUserName),
		}
		if flagUserID != "" {
			id, err := uuid.Parse(flagUserID)
			if err != nil {
				return model.NewValidationError("id", fmt.Sprintf("invalid user id %q", flagUserID))
			}
			p.ID = id
		}
		saved, err := a.tracker.Projects.SaveProfile(ctx, p)
		if err != nil {
			return err
		}
		fmt.Printf("  Saved %s (%s)\n", saved.DisplayName(), saved.ID)
		return nil
	})
}

func runUserList(cmd *cobra.Command, _ []string) error {
	return withTracker(cmd, func(ctx context.Context, a *app) error {
		profiles, err := a.tracker.Projects.Profiles(ctx)
		if err != nil {
			return err
		}
		if len(profiles) == 0 {
			fmt.Println("\n  No users yet. Add one with `tally user add --name <name>`.")
			return nil
		}
		current, _ := a.identity.CurrentUser()

		rows := make([][]string, 0, len(profiles))
		for _, p := range profiles {
			name := p.DisplayName()
			if p.ID == current {
				name = cli.Good(name + " *")
			}
			rows = append(rows, []string{name, p.Email, p.ID.String()})
		}
		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Users",
			Headers: []string{"Name", "Email", "User ID"},
			Rows:    rows,
		}))
		return nil
	})
}

func runLogin(cmd *cobra.Command, args []string) error {
	return withTracker(cmd, func(ctx context.Context, a *app) error {
		if len(args) == 0 {
			id, err := a.identity.CurrentUser()
			if err != nil {
				return err
			}
			names, err := userNames(ctx, a)
			if err != nil {
				return err
			}
			fmt.Printf("  Signed in as %s (%s)\n", nameOf(names, id), id)
			return nil
		}

		id, err := resolveUser(ctx, a, args[0])
		if err != nil {
			return err
		}
		ident, err := storedIdentity()
		if err != nil {
			return err
		}
		if err := ident.SignIn(id); err != nil {
			return fmt.Errorf("saving sign-in: %w", err)
		}
		fmt.Printf("  Signed in as %s\n", id)
		return nil
	})
}

func runLogout(_ *cobra.Command, _ []string) error {
	ident, err := storedIdentity()
	if err != nil {
		return err
	}
	if err := ident.SignOut(); err != nil {
		return fmt.Errorf("saving sign-out: %w", err)
	}
	fmt.Println("  Signed out")
	return nil
}

// storedIdentity returns an identity over the config file as stored, so
// that flag and environment overrides are not written back.
func storedIdentity() (*config.Identity, error) {
	cfg, err := config.LoadFile()
	if err != nil {
		return nil, err
	}
	return config.NewIdentity(&cfg), nil
}
