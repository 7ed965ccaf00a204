package main

import (
	"context"
	"log/slog"
	"time"

	"picker/input"
	"picker/menu"
)

// Command is an externally injected request, delivered through the commands
// channel so navigation state stays single-threaded inside the tick loop.
type Command interface{ commandMarker() }

// CmdRotate injects detents, positive for clockwise.
type CmdRotate struct{ Delta int }

// CmdPress injects one debounced button press.
type CmdPress struct{}

// CmdSelections asks for the committed selections.
type CmdSelections struct{ Reply chan map[string]string }

// CmdSnapshot asks for the full navigation snapshot (state websocket init).
type CmdSnapshot struct{ Reply chan StateSnapshot }

func (CmdRotate) commandMarker()     {}
func (CmdPress) commandMarker()      {}
func (CmdSelections) commandMarker() {}
func (CmdSnapshot) commandMarker()   {}

// StateSnapshot is the externally visible navigation state.
type StateSnapshot struct {
	Mode       string            `json:"mode"`
	Title      string            `json:"title"`
	Items      []string          `json:"items"`
	Cursor     int               `json:"cursor"`
	Selections map[string]string `json:"selections"`
}

// Daemon owns the UI tick loop: it drains the rotation queue once per tick,
// feeds the navigation machine, and fans state out to the renderer and the
// websocket hub. Pollers run in their own goroutines and share only the
// queue and the knob-change channel with the loop.
type Daemon struct {
	cfg    Config
	logger *slog.Logger

	queue     *input.Queue
	coalescer *input.Coalescer
	nav       *menu.Navigator
	menus     []menu.Definition

	renderer  Renderer
	generator *Generator
	hub       *Hub

	commands    chan Command
	knobChanges chan input.PositionChanged

	// Go/Reset ADC buttons of the six-knob board. Nil outside knobs mode.
	buttons *adcButtons

	needRedisplay bool
	lastStalls    uint64
	lastDropped   uint64
}

// adcButtons turns the two button channels into debounced Go/Reset edges.
type adcButtons struct {
	adc       input.ADCReader
	threshold float64
	goDeb     *input.ButtonDebouncer
	resetDeb  *input.ButtonDebouncer
}

func newADCButtons(adc input.ADCReader, threshold float64, now time.Time) *adcButtons {
	window := 50 * time.Millisecond
	return &adcButtons{
		adc:       adc,
		threshold: threshold,
		goDeb:     input.NewButtonDebouncer(false, window, now),
		resetDeb:  input.NewButtonDebouncer(false, window, now),
	}
}

// poll samples both button channels and reports which actions fired.
func (b *adcButtons) poll(now time.Time) (goPressed, resetPressed bool) {
	read := func(ch int) bool {
		counts, err := b.adc.Read(ch)
		if err != nil {
			return false
		}
		return float64(counts)/float64(1023) > b.threshold
	}
	goPressed = b.goDeb.Observe(read(goButtonChannel), now) == input.Pressed
	resetPressed = b.resetDeb.Observe(read(resetButtonChannel), now) == input.Pressed
	return goPressed, resetPressed
}

// NewDaemon wires the tick loop. The navigator is constructed here so its
// callbacks land on the daemon's renderer and hub.
func NewDaemon(cfg Config, menus []menu.Definition, q *input.Queue, renderer Renderer, hub *Hub, logger *slog.Logger) (*Daemon, error) {
	d := &Daemon{
		cfg:    cfg,
		logger: logger,
		queue:  q,
		coalescer: input.NewCoalescer(q, input.CoalescerConfig{
			WindowSize:        cfg.Input.WindowSize,
			Lookback:          cfg.Input.Lookback,
			MomentumThreshold: cfg.Input.MomentumThreshold,
			DetentsPerItem:    cfg.Input.DetentsPerItem,
		}),
		menus:       menus,
		renderer:    renderer,
		generator:   newGenerator(cfg.Generator, logger),
		hub:         hub,
		commands:    make(chan Command, 64),
		knobChanges: make(chan input.PositionChanged, 64),
	}

	nav, err := menu.NewNavigator(menus, menu.Config{
		Wrap:        cfg.Nav.Wrap,
		IdleTimeout: time.Duration(cfg.Nav.IdleTimeoutMS) * time.Millisecond,
	}, d.onDisplay, d.onAction, logger, time.Now())
	if err != nil {
		return nil, err
	}
	d.nav = nav
	return d, nil
}

// Commands returns the injection channel shared with the IPC and websocket
// servers.
func (d *Daemon) Commands() chan<- Command { return d.commands }

// KnobChanges returns the channel the knob poller reports confirmed position
// changes on.
func (d *Daemon) KnobChanges() chan<- input.PositionChanged { return d.knobChanges }

// AttachADCButtons enables the Go/Reset button channels in knobs mode.
func (d *Daemon) AttachADCButtons(adc input.ADCReader, threshold float64) {
	d.buttons = newADCButtons(adc, threshold, time.Now())
}

// Run drives the tick loop until ctx is canceled.
func (d *Daemon) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(d.cfg.Input.TickHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	d.logger.Info("daemon loop started", "tick_hz", d.cfg.Input.TickHz)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("daemon loop stopping")
			return ctx.Err()
		case now := <-ticker.C:
			d.tick(now)
		}
	}
}

// tick is one pass of the consumer loop. Everything that touches navigation
// state happens here.
func (d *Daemon) tick(now time.Time) {
	d.drainCommands()

	res := d.coalescer.DrainAndResolve()
	if res.Discarded {
		d.logger.Debug("rotation delta discarded as bounce", "raw_delta", res.RawDelta)
	}
	if res.Movement != 0 {
		d.nav.Move(res.Movement, now)
	}
	for i := 0; i < res.Presses; i++ {
		d.nav.Press(now)
	}

	d.drainKnobChanges(now)

	if d.buttons != nil {
		goPressed, resetPressed := d.buttons.poll(now)
		if goPressed {
			d.onAction(menu.ActionGo)
		}
		if resetPressed {
			d.onAction(menu.ActionReset)
		}
	}

	d.nav.CheckIdle(now)

	if d.needRedisplay {
		d.needRedisplay = false
		d.nav.Redisplay()
	}

	d.reportQueueHealth()
}

func (d *Daemon) drainCommands() {
	for {
		select {
		case cmd := <-d.commands:
			d.handleCommand(cmd)
		default:
			return
		}
	}
}

func (d *Daemon) handleCommand(cmd Command) {
	switch cmd := cmd.(type) {
	case CmdRotate:
		step := 1
		if cmd.Delta < 0 {
			step = -1
		}
		for i := 0; i != cmd.Delta; i += step {
			d.queue.Push(input.Rotate{Delta: step})
		}
	case CmdPress:
		d.queue.Push(input.ButtonDown{})
		d.queue.Push(input.ButtonUp{})
	case CmdSelections:
		cmd.Reply <- d.nav.Selections()
	case CmdSnapshot:
		cmd.Reply <- d.snapshot()
	}
}

func (d *Daemon) drainKnobChanges(now time.Time) {
	for {
		select {
		case ev := <-d.knobChanges:
			for i, ch := range knobMenuChannels {
				if ch == ev.Channel && i < len(d.menus) {
					d.nav.SetSelectionIndex(i, ev.Position, now)
					break
				}
			}
		default:
			return
		}
	}
}

func (d *Daemon) snapshot() StateSnapshot {
	title, items, cursor := d.nav.CurrentDisplay()
	return StateSnapshot{
		Mode:       d.nav.Mode().String(),
		Title:      title,
		Items:      items,
		Cursor:     cursor,
		Selections: d.nav.Selections(),
	}
}

// onDisplay is the navigator's display callback: compose, push to the
// renderer, and broadcast the new state.
func (d *Daemon) onDisplay(mode menu.Mode, title string, items []string, cursor int) {
	frame := composeMenuFrame(mode, title, items, cursor)
	if err := d.renderer.Render(frame); err != nil {
		d.logger.Error("render failed", "error", err)
	}
	if d.hub != nil {
		d.hub.BroadcastState("nav_changed", d.snapshot())
	}
}

// onAction is the navigator's action callback, also fired directly by the
// ADC Go/Reset buttons.
func (d *Daemon) onAction(name string) {
	d.logger.Info("action triggered", "name", name)
	if d.hub != nil {
		d.hub.BroadcastState("action", map[string]string{"name": name})
	}

	switch name {
	case menu.ActionGo:
		d.renderMessage("GO!")
		d.startGeneration()
		d.needRedisplay = true

	case menu.ActionReset:
		d.renderMessage("RESETTING")
		d.needRedisplay = true

	case menu.ActionBack:
		// Idle main screen; the next input redraws the menu.
		d.renderMessage(BuildPrompt(d.menus, d.nav.Selections()))
	}
}

func (d *Daemon) renderMessage(msg string) {
	if msg == "" {
		msg = "Picker"
	}
	if err := d.renderer.Render(composeMessageFrame(msg)); err != nil {
		d.logger.Error("render failed", "error", err)
	}
}

// startGeneration runs the generator off the tick loop. A zero-value
// generator means no URL is configured.
func (d *Daemon) startGeneration() {
	if d.generator == nil {
		d.logger.Info("generator not configured, skipping generation")
		return
	}
	prompt := BuildPrompt(d.menus, d.nav.Selections())
	timeout := time.Duration(d.cfg.Generator.TimeoutMS) * time.Millisecond

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		path, err := d.generator.Generate(ctx, prompt)
		if err != nil {
			d.logger.Error("generation failed", "error", err, "prompt", prompt)
			return
		}
		if d.hub != nil {
			d.hub.BroadcastState("generated", map[string]string{"path": path, "prompt": prompt})
		}
	}()
}

// reportQueueHealth surfaces consumer stalls and drops as log lines. Growth
// is an observability signal, not a fault.
func (d *Daemon) reportQueueHealth() {
	high, dropped, stalls := d.queue.Stats()
	if stalls > d.lastStalls {
		d.logger.Warn("rotation queue crossed soft limit", "high_water", high, "stalls", stalls)
		d.lastStalls = stalls
	}
	if dropped > d.lastDropped {
		d.logger.Warn("rotation queue dropped events", "dropped", dropped)
		d.lastDropped = dropped
	}
}
