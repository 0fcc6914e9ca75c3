package tui

import (
	"errors"
	"net/url"
	"strings"

	"github.com/theirongolddev/tally/internal/config"
	"github.com/theirongolddev/tally/internal/tui/theme"

	"github.com/charmbracelet/huh"
	"github.com/google/uuid"
)

// Backend modes offered by the setup form.
const (
	ModeLocal  = "local"
	ModeRemote = "remote"
)

// SetupValues are the answers of the setup form.
type SetupValues struct {
	FullName  string
	Email     string
	UserID    string
	Mode      string
	DBPath    string
	RemoteURL string
	Token     string
	Theme     string
}

// SetupValuesFrom prefills the form from cfg.
func SetupValuesFrom(cfg config.Config) SetupValues {
	v := SetupValues{
		UserID:    cfg.General.UserID,
		Mode:      ModeLocal,
		DBPath:    cfg.DBPath(),
		RemoteURL: cfg.Remote.URL,
		Token:     cfg.Remote.Token,
		Theme:     cfg.Appearance.Theme,
	}
	if cfg.Remote.URL != "" {
		v.Mode = ModeRemote
	}
	return v
}

// NewSetupForm builds the first-run form writing into v.
func NewSetupForm(v *SetupValues) *huh.Form {
	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themeOpts = append(themeOpts, huh.NewOption(t.Name, t.Name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to tally").
				Description("Budgets, allocations and time logs for your projects."),
			huh.NewInput().
				Title("Your name").
				Value(&v.FullName),
			huh.NewInput().
				Title("Email").
				Value(&v.Email).
				Validate(validateEmail),
			huh.NewInput().
				Title("User ID").
				Description("Leave empty to create a new one.").
				Value(&v.UserID).
				Validate(validateUserID),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Where are your records kept?").
				Options(
					huh.NewOption("Local database", ModeLocal),
					huh.NewOption("tally server", ModeRemote),
				).
				Value(&v.Mode),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Database path").
				Value(&v.DBPath),
		).WithHideFunc(func() bool { return v.Mode != ModeLocal }),
		huh.NewGroup(
			huh.NewInput().
				Title("Server URL").
				Placeholder("http://127.0.0.1:8787").
				Value(&v.RemoteURL).
				Validate(validateURL),
			huh.NewInput().
				Title("Access token").
				EchoMode(huh.EchoModePassword).
				Value(&v.Token),
		).WithHideFunc(func() bool { return v.Mode != ModeRemote }),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&v.Theme),
		),
	).WithTheme(huh.ThemeBase())
}

// Apply writes v into cfg and returns the user to sign in as, generating
// one when none was given.
func (v SetupValues) Apply(cfg *config.Config) (uuid.UUID, error) {
	id := uuid.New()
	if raw := strings.TrimSpace(v.UserID); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return uuid.Nil, errors.New("user id must be a UUID")
		}
		id = parsed
	}
	cfg.General.UserID = id.String()

	switch v.Mode {
	case ModeRemote:
		if err := validateURL(v.RemoteURL); err != nil {
			return uuid.Nil, err
		}
		cfg.Remote.URL = strings.TrimSpace(v.RemoteURL)
		cfg.Remote.Token = strings.TrimSpace(v.Token)
	default:
		cfg.Remote.URL = ""
		cfg.Remote.Token = ""
		cfg.General.DBPath = strings.TrimSpace(v.DBPath)
	}

	cfg.Appearance.Theme = theme.ByName(v.Theme).Name
	return id, nil
}

func validateUserID(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if _, err := uuid.Parse(strings.TrimSpace(s)); err != nil {
		return errors.New("must be a UUID")
	}
	return nil
}

func validateEmail(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if at := strings.Index(s, "@"); at <= 0 || at == len(s)-1 {
		return errors.New("not an email address")
	}
	return nil
}

func validateURL(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("must be an http(s) URL")
	}
	return nil
}
