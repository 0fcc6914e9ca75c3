// Package tui implements the interactive allocation editor and the setup
// form.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/theirongolddev/tally/internal/cli"
	"github.com/theirongolddev/tally/internal/editor"
	"github.com/theirongolddev/tally/internal/reconcile"
	"github.com/theirongolddev/tally/internal/tui/components"
	"github.com/theirongolddev/tally/internal/tui/theme"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	defaultWidth = 90
	minWidth     = 60
	hoursPerDay  = 8
)

// Member is one editable row of the allocation editor.
type Member struct {
	UserID uuid.UUID
	Name   string
	Rate   decimal.Decimal
	// Rated is false for users without a team membership; they cost nothing.
	Rated bool
}

// savedMsg reports the result of a save started by the editor.
type savedMsg struct {
	err error
}

// AllocModel is the bubbletea model of `tally alloc edit`.
type AllocModel struct {
	ctx     context.Context
	editor  *editor.Editor
	project string
	budget  decimal.Decimal
	members []Member
	rates   map[uuid.UUID]decimal.Decimal

	keys   keyMap
	help   help.Model
	cursor int
	width  int

	status      string
	confirmQuit bool
	quitting    bool
}

// NewAllocModel returns an editor model over ed for the given members.
// ctx bounds the saves it starts.
func NewAllocModel(ctx context.Context, project string, ed *editor.Editor, budget decimal.Decimal, members []Member) AllocModel {
	rates := make(map[uuid.UUID]decimal.Decimal, len(members))
	for _, m := range members {
		if m.Rated {
			rates[m.UserID] = m.Rate
		}
	}
	return AllocModel{
		ctx:     ctx,
		editor:  ed,
		project: project,
		budget:  budget,
		members: members,
		rates:   rates,
		keys:    defaultKeyMap(),
		help:    help.New(),
		width:   defaultWidth,
	}
}

// Editor returns the draft being edited.
func (m AllocModel) Editor() *editor.Editor { return m.editor }

// Init implements tea.Model.
func (m AllocModel) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m AllocModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = max(msg.Width, minWidth)
		m.help.Width = msg.Width
		return m, nil

	case savedMsg:
		switch {
		case errors.Is(msg.err, editor.ErrSaving):
			m.status = "save already in progress"
		case msg.err != nil:
			m.status = "save failed: " + msg.err.Error()
		default:
			m.status = "saved"
		}
		return m, nil

	case tea.KeyMsg:
		return m.updateKey(msg)
	}
	return m, nil
}

func (m AllocModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		m.quitting = true
		return m, tea.Quit
	}
	if key.Matches(msg, m.keys.Quit) {
		if m.editor.HasChanges() && !m.confirmQuit {
			m.confirmQuit = true
			m.status = "unsaved changes, press q again to discard them"
			return m, nil
		}
		m.quitting = true
		return m, tea.Quit
	}
	m.confirmQuit = false

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.members)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.More):
		m.adjust(1)
	case key.Matches(msg, m.keys.Less):
		m.adjust(-1)
	case key.Matches(msg, m.keys.MoreDay):
		m.adjust(hoursPerDay)
	case key.Matches(msg, m.keys.LessDay):
		m.adjust(-hoursPerDay)
	case key.Matches(msg, m.keys.Clear):
		m.set(decimal.Zero)
	case key.Matches(msg, m.keys.Reset):
		if m.editor.State() == editor.Saving {
			m.status = "cannot reset while saving"
			break
		}
		m.editor.Reset()
		m.status = "changes discarded"
	case key.Matches(msg, m.keys.Save):
		if m.editor.State() == editor.Clean {
			m.status = "nothing to save"
			break
		}
		m.status = "saving..."
		return m, m.saveCmd()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m AllocModel) saveCmd() tea.Cmd {
	ed, ctx := m.editor, m.ctx
	return func() tea.Msg {
		return savedMsg{err: ed.Save(ctx)}
	}
}

// adjust moves the selected member's hours by delta, stopping at zero.
func (m *AllocModel) adjust(delta int64) {
	if len(m.members) == 0 {
		return
	}
	h := m.editor.Hours(m.members[m.cursor].UserID).Add(decimal.NewFromInt(delta))
	if h.IsNegative() {
		h = decimal.Zero
	}
	m.set(h)
}

func (m *AllocModel) set(hours decimal.Decimal) {
	if len(m.members) == 0 {
		return
	}
	if err := m.editor.Set(m.members[m.cursor].UserID, hours); err != nil {
		m.status = err.Error()
		return
	}
	m.status = ""
}

// View implements tea.Model.
func (m AllocModel) View() string {
	if m.quitting {
		return ""
	}
	t := theme.Active
	w := m.width

	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	b.WriteString(titleStyle.Render(fmt.Sprintf(" Allocations · %s · %s", m.project, m.editor.Month().Label())))
	b.WriteString("\n\n")

	remaining := m.editor.Remaining(m.budget, m.rates)
	committed := m.budget.Sub(remaining)
	var hours decimal.Decimal
	for _, h := range m.editor.Draft() {
		hours = hours.Add(h)
	}
	remainingColor := t.Green
	if remaining.IsNegative() {
		remainingColor = t.Red
	}
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Budget", Value: cli.FormatMoney(m.budget)},
		{Label: "Allocated", Value: cli.FormatMoney(committed), Note: cli.FormatHours(hours)},
		{Label: "Remaining", Value: cli.FormatMoney(remaining), Color: remainingColor},
	}, w))
	b.WriteString("\n")

	pct, _ := reconcile.Percentage(committed, m.budget).Float64()
	b.WriteString(components.BudgetBar(" Allocated", pct, 10, max(w-18, 10)))
	b.WriteString("\n\n")

	b.WriteString(components.ContentCard("Members", m.renderRows(components.CardInnerWidth(w)), w, true))
	b.WriteString("\n")

	right := m.editor.State().String() + " "
	b.WriteString(components.RenderStatusBar(w, " "+m.status, right))
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m AllocModel) renderRows(width int) string {
	t := theme.Active
	if len(m.members) == 0 {
		return lipgloss.NewStyle().Foreground(t.TextDim).Render("No members to allocate.")
	}

	nameW := max(width-51, 12)
	header := fmt.Sprintf("  %-*s %12s %10s %10s %12s", nameW, "Member", "Rate", "Hours", "Max", "Cost")
	lines := []string{lipgloss.NewStyle().Foreground(t.TextMuted).Render(header)}

	for i, mem := range m.members {
		hours := m.editor.Hours(mem.UserID)
		limit := reconcile.MaxHours(m.budget, mem.Rate)
		rate, cost := "no rate", "-"
		if mem.Rated {
			rate = cli.FormatMoney(mem.Rate) + "/h"
			cost = cli.FormatMoney(hours.Mul(mem.Rate))
		} else {
			limit = reconcile.Cap{Unbounded: true}
		}

		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		line := fmt.Sprintf("%s%-*s %12s %10s %10s %12s",
			cursor, nameW, truncate(mem.Name, nameW), rate, cli.FormatHours(hours), limit.String(), cost)

		style := lipgloss.NewStyle().Foreground(t.TextPrimary)
		if !limit.Allows(hours) {
			style = style.Foreground(t.Red)
		}
		if i == m.cursor {
			style = style.Background(t.SurfaceHover).Bold(true)
		}
		lines = append(lines, style.Render(line))
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
