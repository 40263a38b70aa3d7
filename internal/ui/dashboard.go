// Package ui is the terminal dashboard for a live workout.
package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/asheshgoplani/caloriesburner/internal/workout"
)

// Commands is what the dashboard can ask of the workout controller.
// Each call runs to completion; results arrive as snapshot updates.
type Commands interface {
	RequestAuthorization(ctx context.Context)
	Start(ctx context.Context)
	Stop(ctx context.Context)
}

var _ Commands = (*workout.Controller)(nil)

// tileWidth is the inner width of a metric tile
const tileWidth = 14

// snapshotMsg carries one controller update into the bubbletea loop
type snapshotMsg workout.Update

// commandDoneMsg is sent when a controller command returns
type commandDoneMsg struct {
	name string
}

type keyMap struct {
	Start     key.Binding
	Finish    key.Binding
	Authorize key.Binding
	Quit      key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Start, k.Finish, k.Authorize, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func newKeyMap() keyMap {
	return keyMap{
		Start:     key.NewBinding(key.WithKeys("s", "enter"), key.WithHelp("s", "start")),
		Finish:    key.NewBinding(key.WithKeys("f", "enter"), key.WithHelp("f", "finish")),
		Authorize: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "authorize")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// Dashboard shows heart rate, calories and the session state, and offers
// Start or Finish depending on the state.
type Dashboard struct {
	ctx        context.Context
	commands   Commands
	projection workout.Projection
	keys       keyMap
	help       help.Model
	spinner    spinner.Model
	pending    string // name of the command in flight
	width      int
	height     int
}

// NewDashboard creates a dashboard issuing commands with ctx.
func NewDashboard(ctx context.Context, commands Commands) *Dashboard {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = busyStyle

	d := &Dashboard{
		ctx:        ctx,
		commands:   commands,
		projection: workout.NewProjection(),
		keys:       newKeyMap(),
		help:       help.New(),
		spinner:    sp,
	}
	d.syncKeys()
	return d
}

// Snapshot returns what the dashboard currently displays.
func (d *Dashboard) Snapshot() workout.Snapshot {
	return d.projection.Snapshot()
}

// Init requests authorization as soon as the dashboard is shown.
func (d *Dashboard) Init() tea.Cmd {
	return tea.Batch(d.spinner.Tick, d.run("authorize", d.commands.RequestAuthorization))
}

// Update implements tea.Model
func (d *Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		d.width = msg.Width
		d.height = msg.Height
		d.help.Width = msg.Width
		return d, nil

	case snapshotMsg:
		d.projection.Apply(workout.Update(msg))
		d.syncKeys()
		return d, nil

	case commandDoneMsg:
		if d.pending == msg.name {
			d.pending = ""
		}
		d.syncKeys()
		return d, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		d.spinner, cmd = d.spinner.Update(msg)
		return d, cmd

	case tea.KeyMsg:
		return d, d.handleKey(msg)
	}
	return d, nil
}

func (d *Dashboard) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, d.keys.Quit) {
		return tea.Quit
	}
	// One command at a time, like a disabled button
	if d.pending != "" {
		return nil
	}
	switch {
	case key.Matches(msg, d.keys.Start):
		return d.run("start", d.commands.Start)
	case key.Matches(msg, d.keys.Finish):
		return d.run("stop", d.commands.Stop)
	case key.Matches(msg, d.keys.Authorize):
		return d.run("authorize", d.commands.RequestAuthorization)
	}
	return nil
}

// run issues a controller command off the update loop.
func (d *Dashboard) run(name string, fn func(context.Context)) tea.Cmd {
	d.pending = name
	d.syncKeys()
	ctx := d.ctx
	return func() tea.Msg {
		fn(ctx)
		return commandDoneMsg{name: name}
	}
}

// syncKeys enables only the bindings that make sense in the current state.
func (d *Dashboard) syncKeys() {
	state := d.projection.Snapshot().State
	idle := d.pending == ""
	d.keys.Start.SetEnabled(idle && state.CanStart())
	d.keys.Finish.SetEnabled(idle && state.CanStop())
	d.keys.Authorize.SetEnabled(idle && state == workout.NeedsAuthorization)
}

// View implements tea.Model
func (d *Dashboard) View() string {
	snap := d.projection.Snapshot()

	heart := tileStyle.Render(heartRateStyle.Render(fitWidth(placeholder(snap.HeartRateText, "-- BPM"), tileWidth)))
	calories := tileStyle.Render(caloriesStyle.Render(fitWidth(placeholder(snap.CaloriesText, "-- kcal"), tileWidth)))
	metrics := lipgloss.JoinHorizontal(lipgloss.Top, heart, " ", calories)

	var action string
	switch {
	case d.pending != "":
		action = d.spinner.View() + " " + busyStyle.Render(pendingLabel(d.pending))
	case snap.State.CanStart():
		action = buttonStyle.Render("Start")
	case snap.State.CanStop():
		action = stopButtonStyle.Render("Finish")
	case snap.State == workout.NeedsAuthorization:
		action = busyStyle.Render("Waiting for health data access")
	}

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		titleStyle.Render("Calories Burner"),
		"",
		metrics,
		"",
		action,
		"",
		stateStyle.Render(snap.State.String()),
		"",
		d.help.View(d.keys),
	)

	if d.width > 0 && d.height > 0 {
		return lipgloss.Place(d.width, d.height, lipgloss.Center, lipgloss.Center, content)
	}
	return content
}

func placeholder(text, fallback string) string {
	if text == "" {
		return fallback
	}
	return text
}

func pendingLabel(name string) string {
	switch name {
	case "start":
		return "Starting workout..."
	case "stop":
		return "Finishing workout..."
	default:
		return "Requesting access..."
	}
}

// fitWidth centers s in width cells, truncating wide strings.
func fitWidth(s string, width int) string {
	s = runewidth.Truncate(s, width, "…")
	gap := width - runewidth.StringWidth(s)
	if gap <= 0 {
		return s
	}
	left := gap / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", gap-left)
}
