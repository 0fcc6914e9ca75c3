// Package cmd implements the tally CLI commands.
package cmd

import (
	"fmt"

	"github.com/theirongolddev/tally/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Database: %s\n", cfg.DBPath())
	if cfg.General.UserID != "" {
		fmt.Printf("    User ID:  %s\n", cfg.General.UserID)
	} else {
		fmt.Println("    User ID:  not signed in")
	}
	fmt.Println()

	fmt.Println("  [Remote]")
	if cfg.Remote.URL != "" {
		fmt.Printf("    URL:     %s\n", cfg.Remote.URL)
		fmt.Printf("    Token:   %s\n", maskToken(cfg.Remote.Token))
		fmt.Printf("    Timeout: %s\n", cfg.RemoteTimeout())
	} else {
		fmt.Println("    Not configured (using the local database)")
	}
	fmt.Println()

	policy := cfg.RetryPolicy()
	fmt.Println("  [Retry]")
	fmt.Printf("    Attempts:      %d\n", policy.Attempts)
	fmt.Printf("    Initial delay: %s\n", policy.InitialDelay)
	fmt.Println()

	fmt.Println("  [Server]")
	fmt.Printf("    Address: %s\n", cfg.Server.Addr)
	fmt.Printf("    Token:   %s\n", maskToken(cfg.Server.Token))
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [Logging]")
	fmt.Printf("    Level:  %s\n", cfg.Logging.Level)
	fmt.Printf("    Format: %s\n", cfg.Logging.Format)
	fmt.Println()

	fmt.Println("  Run `tally setup` to reconfigure.")
	return nil
}

func maskToken(key string) string {
	switch {
	case key == "":
		return "not set"
	case len(key) > 16:
		return key[:8] + "..." + key[len(key)-4:]
	case len(key) > 4:
		return key[:4] + "..."
	default:
		return "****"
	}
}
