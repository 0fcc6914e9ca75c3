// Package editor holds an unsaved draft of a month's allocations and saves
// only what changed.
package editor

import (
	"context"
	"errors"
	"maps"
	"sync"

	"github.com/theirongolddev/tally/internal/model"
	"github.com/theirongolddev/tally/internal/reconcile"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrSaving is returned when Save is called while a save is in flight.
var ErrSaving = errors.New("save already in progress")

// State is the lifecycle state of a draft.
type State int

const (
	Clean State = iota
	Dirty
	Saving
)

func (s State) String() string {
	switch s {
	case Dirty:
		return "unsaved changes"
	case Saving:
		return "saving"
	default:
		return "saved"
	}
}

// Applier writes a batch of allocations. Hours <= 0 delete.
// tracker.AllocationStore satisfies it.
type Applier interface {
	ApplyBatch(ctx context.Context, projectID uuid.UUID, month model.Month, hours map[uuid.UUID]decimal.Decimal) error
}

// Editor is a draft of one project month. It is safe for concurrent use.
type Editor struct {
	applier   Applier
	projectID uuid.UUID
	month     model.Month

	mu       sync.Mutex
	state    State
	baseline map[uuid.UUID]decimal.Decimal
	draft    map[uuid.UUID]decimal.Decimal
	rev      int
	err      error
}

// New starts a clean draft from the persisted allocations.
func New(applier Applier, projectID uuid.UUID, month model.Month, persisted map[uuid.UUID]model.OptionalHours) *Editor {
	base := positive(nil)
	for u, h := range persisted {
		if h.OrZero().IsPositive() {
			base[u] = h.Hours
		}
	}
	return &Editor{
		applier:   applier,
		projectID: projectID,
		month:     month,
		baseline:  base,
		draft:     maps.Clone(base),
	}
}

// Month returns the month being edited.
func (e *Editor) Month() model.Month { return e.month }

// State returns the current lifecycle state.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Err returns the error of the last failed save, if any.
func (e *Editor) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// Set changes the draft hours of user. Zero is allowed and means the
// allocation will be removed on save.
func (e *Editor) Set(user uuid.UUID, hours decimal.Decimal) error {
	if hours.IsNegative() {
		return model.NewValidationError("allocated_hours", "hours must not be negative")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.draft[user] = hours
	e.rev++
	if e.state == Clean {
		e.state = Dirty
	}
	return nil
}

// Hours returns the draft hours of user, zero when unset.
func (e *Editor) Hours(user uuid.UUID) decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft[user]
}

// Draft returns a copy of the draft, including zero entries.
func (e *Editor) Draft() map[uuid.UUID]decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return maps.Clone(e.draft)
}

// HasChanges reports whether the draft differs from the persisted state
// once zero entries are ignored.
func (e *Editor) HasChanges() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(diff(e.baseline, positive(e.draft))) > 0
}

// Changes returns the writes Save would issue. Zero hours mean delete.
func (e *Editor) Changes() map[uuid.UUID]decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return diff(e.baseline, positive(e.draft))
}

// Remaining returns the budget left under the draft.
func (e *Editor) Remaining(budget decimal.Decimal, rates map[uuid.UUID]decimal.Decimal) decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return reconcile.Remaining(budget, rates, e.draft)
}

// Reset discards all edits.
func (e *Editor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Saving {
		return
	}
	e.draft = maps.Clone(e.baseline)
	e.state = Clean
	e.err = nil
}

// Save writes the difference between the draft and the persisted state.
// On success the draft becomes the new baseline. On failure the draft is
// kept as is and the editor stays dirty; nothing is retried.
func (e *Editor) Save(ctx context.Context) error {
	e.mu.Lock()
	switch e.state {
	case Saving:
		e.mu.Unlock()
		return ErrSaving
	case Clean:
		e.mu.Unlock()
		return nil
	}
	filtered := positive(e.draft)
	changes := diff(e.baseline, filtered)
	rev := e.rev
	e.state = Saving
	e.mu.Unlock()

	err := e.applier.ApplyBatch(ctx, e.projectID, e.month, changes)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.state = Dirty
		e.err = err
		return err
	}
	e.baseline = filtered
	e.err = nil
	if e.rev != rev {
		// Edited while saving; keep the newer draft.
		e.state = Dirty
		return nil
	}
	e.draft = maps.Clone(filtered)
	e.state = Clean
	return nil
}

// positive copies the entries of m with hours > 0.
func positive(m map[uuid.UUID]decimal.Decimal) map[uuid.UUID]decimal.Decimal {
	out := make(map[uuid.UUID]decimal.Decimal, len(m))
	for u, h := range m {
		if h.IsPositive() {
			out[u] = h
		}
	}
	return out
}

// diff returns upserts for entries of next that differ from base and zero
// deletes for entries of base missing from next.
func diff(base, next map[uuid.UUID]decimal.Decimal) map[uuid.UUID]decimal.Decimal {
	out := make(map[uuid.UUID]decimal.Decimal)
	for u, h := range next {
		if old, ok := base[u]; !ok || !old.Equal(h) {
			out[u] = h
		}
	}
	for u := range base {
		if _, ok := next[u]; !ok {
			out[u] = decimal.Zero
		}
	}
	return out
}
