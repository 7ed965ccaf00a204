package menu

import (
	"fmt"
	"log/slog"
	"time"
)

// Mode is the navigation level currently shown.
type Mode int

const (
	// TopMenu shows [Back, menu titles..., Go, Reset].
	TopMenu Mode = iota
	// Submenu shows [Return, values..., blank] for one menu.
	Submenu
)

func (m Mode) String() string {
	if m == Submenu {
		return "submenu"
	}
	return "top"
}

// Display labels. The blank slot renders as an empty string.
const (
	BackLabel   = "Back"
	GoLabel     = "Go"
	ResetLabel  = "Reset"
	ReturnLabel = "↩ Return"

	topTitle = "Picker"
)

// Action names passed to the action callback.
const (
	ActionBack  = "Back"
	ActionGo    = "Go"
	ActionReset = "Reset"
)

// DisplayFunc receives the visible list whenever it changes. items is the
// full domain for the mode, cursor the highlighted index.
type DisplayFunc func(mode Mode, title string, items []string, cursor int)

// ActionFunc receives Go, Reset and Back action triggers.
type ActionFunc func(name string)

// Config tunes navigation behavior.
type Config struct {
	// Wrap makes the cursor wrap at list ends instead of clamping.
	Wrap bool

	// IdleTimeout is how long the top menu sits untouched before it acts as
	// if Back were pressed. Zero means the 3 second default.
	IdleTimeout time.Duration
}

func (c *Config) fillDefaults() {
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 3 * time.Second
	}
}

// Navigator is the two-level navigation state machine. It is not safe for
// concurrent use: a single UI loop feeds it movement, presses and idle checks.
//
// Committed selections are value indexes; len(values) means the trailing
// blank slot and every menu starts there.
type Navigator struct {
	menus     []Definition
	cfg       Config
	onDisplay DisplayFunc
	onAction  ActionFunc
	logger    *slog.Logger

	mode       Mode
	active     int
	cursor     int
	selections []int

	lastActivity time.Time
	idleFired    bool
}

// NewNavigator builds the machine in the top menu with the cursor on Back and
// emits the initial display.
func NewNavigator(menus []Definition, cfg Config, onDisplay DisplayFunc, onAction ActionFunc, logger *slog.Logger, now time.Time) (*Navigator, error) {
	if len(menus) == 0 {
		return nil, fmt.Errorf("navigator needs at least one menu")
	}
	cfg.fillDefaults()
	if onDisplay == nil {
		onDisplay = func(Mode, string, []string, int) {}
	}
	if onAction == nil {
		onAction = func(string) {}
	}
	if logger == nil {
		logger = slog.Default()
	}

	selections := make([]int, len(menus))
	for i, m := range menus {
		selections[i] = len(m.Values)
	}

	n := &Navigator{
		menus:        menus,
		cfg:          cfg,
		onDisplay:    onDisplay,
		onAction:     onAction,
		logger:       logger,
		selections:   selections,
		lastActivity: now,
	}
	n.logger.Info("navigator ready", "menus", len(menus), "wrap", cfg.Wrap, "idle_timeout", cfg.IdleTimeout)
	n.refresh()
	return n, nil
}

// Mode returns the current navigation level.
func (n *Navigator) Mode() Mode { return n.mode }

// Cursor returns the highlighted index in the current list.
func (n *Navigator) Cursor() int { return n.cursor }

// CurrentDisplay returns the visible list without emitting a callback.
func (n *Navigator) CurrentDisplay() (title string, items []string, cursor int) {
	return n.title(), n.items(), n.cursor
}

// Move shifts the cursor by delta items, clamping or wrapping per config.
// Fast sweeps arrive as |delta| > 1 and move in one step.
func (n *Navigator) Move(delta int, now time.Time) {
	if delta == 0 {
		return
	}
	n.touch(now)

	items := n.items()
	cursor := n.cursor + delta
	if n.cfg.Wrap {
		cursor = ((cursor % len(items)) + len(items)) % len(items)
	} else {
		if cursor < 0 {
			cursor = 0
		}
		if cursor > len(items)-1 {
			cursor = len(items) - 1
		}
	}

	if cursor != n.cursor {
		n.cursor = cursor
		n.refresh()
	}
}

// Press acts on the highlighted item.
func (n *Navigator) Press(now time.Time) {
	n.touch(now)
	if n.mode == TopMenu {
		n.pressTop()
	} else {
		n.pressSubmenu()
	}
}

func (n *Navigator) pressTop() {
	nMenus := len(n.menus)
	switch {
	case n.cursor == 0:
		n.logger.Info("action", "name", ActionBack)
		n.onAction(ActionBack)

	case n.cursor <= nMenus:
		n.active = n.cursor - 1
		n.mode = Submenu
		// Snap to the committed selection; +1 skips the Return entry.
		n.cursor = n.selections[n.active] + 1
		n.logger.Debug("entering submenu", "menu", n.menus[n.active].Title, "cursor", n.cursor)
		n.refresh()

	case n.cursor == nMenus+1:
		n.logger.Info("action", "name", ActionGo)
		n.onAction(ActionGo)

	default:
		n.logger.Info("action", "name", ActionReset)
		n.onAction(ActionReset)
	}
}

func (n *Navigator) pressSubmenu() {
	if n.cursor > 0 {
		// A value or the blank slot commits; Return leaves the selection alone.
		n.selections[n.active] = n.cursor - 1
		m := n.menus[n.active]
		n.logger.Info("selection committed", "menu", m.Title, "value", n.valueAt(n.active, n.cursor-1))
	}
	n.enterTop()
}

// CheckIdle emits a Back-equivalent once after the idle timeout elapses with
// no movement or press, then forces the top menu back to its home position.
// Only the top menu idles out; a submenu stays put until acted on.
func (n *Navigator) CheckIdle(now time.Time) {
	if n.mode != TopMenu || n.idleFired {
		return
	}
	if now.Sub(n.lastActivity) < n.cfg.IdleTimeout {
		return
	}
	n.idleFired = true
	n.logger.Info("idle timeout", "after", n.cfg.IdleTimeout)
	n.onAction(ActionBack)
	if n.cursor != 0 {
		n.cursor = 0
		n.refresh()
	}
}

// SetSelectionIndex commits a selection directly, bypassing submenu
// navigation. The six-knob input path uses it: a knob position is a value
// index, clamped so the top positions land on the blank slot.
func (n *Navigator) SetSelectionIndex(menu, idx int, now time.Time) {
	if menu < 0 || menu >= len(n.menus) {
		return
	}
	maxIdx := len(n.menus[menu].Values)
	if idx < 0 {
		idx = 0
	}
	if idx > maxIdx {
		idx = maxIdx
	}
	if n.selections[menu] == idx {
		return
	}
	n.touch(now)
	n.selections[menu] = idx
	n.logger.Info("selection committed", "menu", n.menus[menu].Title, "value", n.valueAt(menu, idx))
	n.refresh()
}

// Selections returns the committed value per menu title, empty string for the
// blank slot.
func (n *Navigator) Selections() map[string]string {
	out := make(map[string]string, len(n.menus))
	for i, m := range n.menus {
		out[m.Title] = n.valueAt(i, n.selections[i])
	}
	return out
}

// Redisplay re-emits the current view, forcing the top menu home first.
func (n *Navigator) Redisplay() {
	if n.mode == TopMenu {
		n.cursor = 0
	}
	n.refresh()
}

func (n *Navigator) enterTop() {
	n.mode = TopMenu
	n.cursor = 0
	n.refresh()
}

func (n *Navigator) touch(now time.Time) {
	n.lastActivity = now
	n.idleFired = false
}

func (n *Navigator) valueAt(menu, idx int) string {
	values := n.menus[menu].Values
	if idx < 0 || idx >= len(values) {
		return ""
	}
	return values[idx]
}

func (n *Navigator) title() string {
	if n.mode == Submenu {
		return n.menus[n.active].Title
	}
	return topTitle
}

// items builds the full visible domain for the current mode. In a submenu the
// committed value carries a "* " marker and the trailing entry is the blank
// slot.
func (n *Navigator) items() []string {
	if n.mode == TopMenu {
		items := make([]string, 0, len(n.menus)+3)
		items = append(items, BackLabel)
		for _, m := range n.menus {
			items = append(items, m.Title)
		}
		return append(items, GoLabel, ResetLabel)
	}

	m := n.menus[n.active]
	saved := n.selections[n.active]
	items := make([]string, 0, len(m.Values)+2)
	items = append(items, ReturnLabel)
	for i, v := range m.Values {
		if i == saved {
			v = "* " + v
		}
		items = append(items, v)
	}
	blank := ""
	if saved == len(m.Values) {
		blank = "* "
	}
	return append(items, blank)
}

func (n *Navigator) refresh() {
	n.onDisplay(n.mode, n.title(), n.items(), n.cursor)
}
