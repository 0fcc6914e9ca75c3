package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/theirongolddev/tally/internal/config"
	"github.com/theirongolddev/tally/internal/model"
	"github.com/theirongolddev/tally/internal/remote"
	"github.com/theirongolddev/tally/internal/store"
	"github.com/theirongolddev/tally/internal/tracker"

	"github.com/spf13/cobra"
)

var (
	flagDB       string
	flagRemote   string
	flagQuiet    bool
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "tally",
	Short: "Project budgets, allocations and time logs",
	Long: "Track time logs against monthly project budgets, plan member " +
		"allocations and see how the month is pacing.",
	RunE:          runProjectList,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "  Error: %s\n", describeError(err))
		cancel()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagRemote, "remote", "", "tally server URL; overrides the local database")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn or error")
}

// app is what every command works with: the loaded config, the signed-in
// identity and a tracker over the configured backend.
type app struct {
	cfg      *config.Config
	identity *config.Identity
	tracker  *tracker.Tracker
	log      *slog.Logger
	close    func() error
}

func (a *app) Close() {
	if a.close != nil {
		if err := a.close(); err != nil {
			a.log.Warn("closing backend", "err", err)
		}
	}
}

// loadConfig reads the config file and applies the global flags.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if flagDB != "" {
		cfg.General.DBPath = flagDB
	}
	if flagRemote != "" {
		cfg.Remote.URL = flagRemote
	}

	var w io.Writer = os.Stderr
	if flagQuiet && flagLogLevel == "" {
		w = io.Discard
	}
	logger, err := config.NewLogger(cfg.Logging, w, flagLogLevel)
	if err != nil {
		return nil, nil, err
	}
	return &cfg, logger, nil
}

// openTracker is the shared backend opening path used by all commands. A
// configured remote URL wins over the local database.
func openTracker() (*app, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}

	var (
		backend tracker.Backend
		closer  func() error
	)
	if cfg.Remote.URL != "" {
		client, err := remote.New(cfg.Remote.URL, remote.Options{
			Token:   cfg.Remote.Token,
			Timeout: cfg.RemoteTimeout(),
		})
		if err != nil {
			return nil, err
		}
		backend = client
		logger.Debug("using remote record store", "url", cfg.Remote.URL)
	} else {
		s, err := store.Open(cfg.DBPath())
		if err != nil {
			return nil, err
		}
		backend, closer = s, s.Close
		logger.Debug("using local record store", "path", cfg.DBPath())
	}

	identity := config.NewIdentity(cfg)
	return &app{
		cfg:      cfg,
		identity: identity,
		tracker:  tracker.New(backend, identity, cfg.RetryPolicy(), logger),
		log:      logger,
		close:    closer,
	}, nil
}

// withTracker opens the backend for the duration of fn.
func withTracker(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	a, err := openTracker()
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(cmd.Context(), a)
}

// describeError turns errors into the message shown to the user.
func describeError(err error) string {
	var (
		batch *model.BatchError
		ve    *model.ValidationError
	)
	switch {
	case errors.Is(err, context.Canceled):
		return "interrupted"
	case errors.As(err, &batch):
		lines := make([]string, 0, len(batch.Errors)+1)
		lines = append(lines, fmt.Sprintf("%s: %d of %d changes failed; run the command again to see what was saved",
			batch.Op, len(batch.Errors), batch.Total))
		for _, e := range batch.Errors {
			lines = append(lines, "    "+e.Error())
		}
		return strings.Join(lines, "\n")
	case model.IsTransient(err):
		return "the record store did not respond, try again (" + err.Error() + ")"
	case errors.Is(err, model.ErrUnauthenticated):
		return "not signed in; run `tally login <user>` or `tally setup`"
	case errors.As(err, &ve):
		return "invalid input: " + ve.Error()
	default:
		return err.Error()
	}
}

// today returns the local calendar date.
func today() model.Date {
	return model.DateOf(time.Now())
}

// progressf prints a progress line unless --quiet is set.
func progressf(format string, args ...any) {
	if flagQuiet {
		return
	}
	fmt.Fprintf(os.Stderr, "  "+format+"\n", args...)
}
