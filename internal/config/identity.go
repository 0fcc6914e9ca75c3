package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/theirongolddev/tally/internal/model"

	"github.com/google/uuid"
)

// Identity is the signed-in user recorded in the config file.
type Identity struct {
	mu  sync.Mutex
	cfg *Config
	// persist writes sign-in changes; nil keeps them in memory.
	persist func(Config) error
}

// NewIdentity returns an Identity over cfg that saves changes with Save.
func NewIdentity(cfg *Config) *Identity {
	return &Identity{cfg: cfg, persist: Save}
}

// CurrentUser returns the signed-in user or model.ErrUnauthenticated.
func (i *Identity) CurrentUser() (uuid.UUID, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	raw := strings.TrimSpace(i.cfg.General.UserID)
	if raw == "" {
		return uuid.Nil, model.ErrUnauthenticated
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("configured user %q: %w", raw, model.ErrUnauthenticated)
	}
	return id, nil
}

// SignIn records id as the current user.
func (i *Identity) SignIn(id uuid.UUID) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.cfg.General.UserID = id.String()
	return i.save()
}

// SignOut forgets the current user.
func (i *Identity) SignOut() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.cfg.General.UserID = ""
	return i.save()
}

func (i *Identity) save() error {
	if i.persist == nil {
		return nil
	}
	return i.persist(*i.cfg)
}
