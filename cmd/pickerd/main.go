package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"periph.io/x/host/v3"

	"picker/input"
	"picker/menu"
)

const version = "1.0.0"

func printVersion() {
	fmt.Printf("pickerd v%s\n", version)
	fmt.Println("Knob-and-button menu daemon for an e-paper prompt picker")
}

func printUsage() {
	printVersion()
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  pickerd [OPTIONS]")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Daemon that turns rotary encoder, analog knob or simulated input into")
	fmt.Println("  hierarchical menu navigation on a Waveshare 2.13\" e-paper display,")
	fmt.Println("  and fires a Stable Diffusion txt2img request with the selected values")
	fmt.Println("  when Go is pressed.")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -config string")
	fmt.Println("        YAML config file path (optional; flags override file values)")
	fmt.Println()
	fmt.Println("  -input-mode string")
	fmt.Printf("        Input mode: rotary|evdev|knobs|sim (default \"rotary\")\n")
	fmt.Println()
	fmt.Println("  -menus string")
	fmt.Printf("        Menus file, flexible or legacy format (default \"/etc/picker/menus.yaml\")\n")
	fmt.Println()
	fmt.Println("  -calibration string")
	fmt.Println("        Knob calibration profile path (empty = linear fallback)")
	fmt.Println()
	fmt.Println("  -clk-pin string / -dt-pin string / -sw-pin string")
	fmt.Printf("        Rotary encoder GPIO pins (defaults %s, %s, %s)\n", defaultClkPin, defaultDtPin, defaultSwPin)
	fmt.Println()
	fmt.Println("  -knob-spi-port string")
	fmt.Println("        SPI port for the MCP3008 in knobs mode (default \"SPI0.1\")")
	fmt.Println()
	fmt.Println("  -display-mode string")
	fmt.Println("        Display mode: epaper|log (default \"epaper\")")
	fmt.Println()
	fmt.Println("  -generator-url string")
	fmt.Println("        Stable Diffusion web UI base URL; empty disables generation")
	fmt.Println()
	fmt.Println("  -ipc-socket string")
	fmt.Println("        Unix domain socket path for IPC (default \"/tmp/pickerd.sock\")")
	fmt.Println()
	fmt.Println("  -state-ws-port int")
	fmt.Println("        State websocket HTTP port; 0 disables (default 3002)")
	fmt.Println()
	fmt.Println("  -wrap")
	fmt.Println("        Wrap the cursor at menu boundaries instead of clamping")
	fmt.Println()
	fmt.Println("  -log-level string")
	fmt.Println("        Log level: error, warn, info, debug (default \"info\")")
	fmt.Println()
	fmt.Println("  -version")
	fmt.Println("        Print version and exit")
	fmt.Println()
	fmt.Println("  -help")
	fmt.Println("        Print this help message")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Rotary encoder on default pins, e-paper display")
	fmt.Println("  pickerd -menus /etc/picker/menus.yaml")
	fmt.Println()
	fmt.Println("  # Six analog knobs through an MCP3008, with calibration")
	fmt.Println("  pickerd -input-mode knobs -calibration /etc/picker/calibration.yaml")
	fmt.Println()
	fmt.Println("  # Development on a machine with no hardware")
	fmt.Println("  pickerd -input-mode sim -display-mode log")
	fmt.Println()
	fmt.Println("NOTES:")
	fmt.Println("  - Hardware modes need SPI/GPIO access (run as root or fix group perms)")
	fmt.Println("  - The e-paper hat owns SPI0 CE0; the MCP3008 goes on CE1 (SPI0.1)")
	fmt.Println("  - Use picker-ctl to inject rotate/press events over the IPC socket")
	fmt.Println()
}

func main() {
	// Check for version/help flags early, before flag parsing can fail
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" {
			printVersion()
			return
		}
		if arg == "-help" || arg == "--help" || arg == "-h" {
			printUsage()
			return
		}
	}

	var (
		configPath  = flag.String("config", "", "YAML config file path")
		inputMode   = flag.String("input-mode", "", "Input mode: rotary|evdev|knobs|sim")
		menusPath   = flag.String("menus", "", "Menus file path")
		calibration = flag.String("calibration", "", "Knob calibration profile path")
		clkPin      = flag.String("clk-pin", "", "Rotary encoder CLK pin")
		dtPin       = flag.String("dt-pin", "", "Rotary encoder DT pin")
		swPin       = flag.String("sw-pin", "", "Rotary encoder switch pin")
		knobSPIPort = flag.String("knob-spi-port", "", "SPI port for the MCP3008")
		displayMode = flag.String("display-mode", "", "Display mode: epaper|log")
		genURL      = flag.String("generator-url", "", "Stable Diffusion web UI base URL")
		ipcSocket   = flag.String("ipc-socket", "", "Unix domain socket path for IPC")
		stateWSPort = flag.Int("state-ws-port", 0, "State websocket HTTP port (0 disables)")
		wrap        = flag.Bool("wrap", false, "Wrap the cursor at menu boundaries")
		logLevelStr = flag.String("log-level", "", "Log level: error, warn, info, debug")
		showVersion = flag.Bool("version", false, "Print version and exit")
		showHelp    = flag.Bool("help", false, "Print help message")
	)

	flag.Usage = printUsage
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}
	if *showVersion {
		printVersion()
		return
	}

	cfg := DefaultConfig()
	if *configPath != "" {
		loaded, err := LoadConfigFile(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	// Only flags the user actually set override the file. Defaults on unset
	// flags must not clobber file values, so track what was passed.
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	var ov FlagOverrides
	if set["input-mode"] {
		ov.InputMode = inputMode
	}
	if set["menus"] {
		ov.Menus = menusPath
	}
	if set["calibration"] {
		ov.Calibration = calibration
	}
	if set["clk-pin"] {
		ov.ClkPin = clkPin
	}
	if set["dt-pin"] {
		ov.DtPin = dtPin
	}
	if set["sw-pin"] {
		ov.SwPin = swPin
	}
	if set["knob-spi-port"] {
		ov.KnobSPIPort = knobSPIPort
	}
	if set["display-mode"] {
		ov.DisplayMode = displayMode
	}
	if set["generator-url"] {
		ov.GeneratorURL = genURL
	}
	if set["ipc-socket"] {
		ov.IPCSocketPath = ipcSocket
	}
	if set["state-ws-port"] {
		ov.StateWSPort = stateWSPort
	}
	if set["wrap"] {
		ov.Wrap = wrap
	}
	if set["log-level"] {
		ov.LogLevel = logLevelStr
	}
	ov.Apply(&cfg)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	logLevel, err := parseLogLevel(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	logger := setupLogger(logLevel)

	if err := run(cfg, logger); err != nil {
		logger.Error("pickerd exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	menus, err := menu.LoadFile(ExpandPath(cfg.Menus))
	if err != nil {
		return fmt.Errorf("load menus: %w", err)
	}
	logger.Info("menus loaded", "path", cfg.Menus, "count", len(menus))

	var profile *input.CalibrationProfile
	if cfg.Calibration != "" {
		profile, err = input.LoadCalibrationFile(ExpandPath(cfg.Calibration))
		if err != nil {
			return fmt.Errorf("load calibration: %w", err)
		}
		logger.Info("calibration loaded", "path", cfg.Calibration)
	}

	needHardware := cfg.Input.Mode == "rotary" || cfg.Input.Mode == "knobs" || cfg.Display.Mode == "epaper"
	if needHardware {
		if _, err := host.Init(); err != nil {
			return fmt.Errorf("periph host init: %w", err)
		}
	}

	var renderer Renderer
	switch cfg.Display.Mode {
	case "epaper":
		renderer, err = openEpaperRenderer(cfg.Display.SPIPort)
		if err != nil {
			return fmt.Errorf("open e-paper display: %w", err)
		}
	default:
		renderer = newLogRenderer(logger)
	}
	defer renderer.Close()

	q := input.NewQueue(defaultQueueCapacity, defaultQueueSoftLimit)

	hub := NewHub(logger, HubConfig{})

	daemon, err := NewDaemon(cfg, menus, q, renderer, hub, logger)
	if err != nil {
		return fmt.Errorf("init daemon: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(ctx)
		return nil
	})

	switch cfg.Input.Mode {
	case "rotary":
		r := cfg.Input.Rotary
		clk, dt, sw, err := input.OpenRotaryPins(r.ClkPin, r.DtPin, r.SwPin)
		if err != nil {
			return fmt.Errorf("open rotary pins: %w", err)
		}
		poller := input.NewRotaryPoller(clk, dt, sw, q, input.RotaryPollerConfig{
			PollHz:            r.PollHz,
			LineStableSamples: r.LineStableSamples,
			ButtonWindow:      time.Duration(r.ButtonWindowMS) * time.Millisecond,
		}, logger)
		g.Go(func() error { return poller.Run(ctx) })

	case "evdev":
		dev, err := input.OpenEvdevRotary(cfg.Input.Evdev.Devices, q, input.EvdevConfig{
			RelCode: uint16(cfg.Input.Evdev.RelCode),
			KeyCode: uint16(cfg.Input.Evdev.KeyCode),
		}, logger)
		if err != nil {
			return fmt.Errorf("open evdev devices: %w", err)
		}
		defer dev.Close()
		g.Go(func() error { return dev.Run(ctx) })

	case "knobs":
		k := cfg.Input.Knobs
		adc, err := input.OpenMCP3008(k.SPIPort)
		if err != nil {
			return fmt.Errorf("open MCP3008: %w", err)
		}
		defer adc.Close()

		knobChanges := daemon.KnobChanges()
		poller := input.NewKnobPoller(adc, profile, input.KnobPollerConfig{
			PollHz:         k.PollHz,
			Channels:       knobMenuChannels,
			StableRequired: k.StableRequired,
		}, func(pc input.PositionChanged) {
			select {
			case knobChanges <- pc:
			default:
				logger.Warn("knob change dropped, daemon behind", "channel", pc.Channel)
			}
		}, logger)
		daemon.AttachADCButtons(adc, k.ButtonThreshold)
		g.Go(func() error { return poller.Run(ctx) })

	case "sim":
		logger.Info("sim input mode, events accepted over IPC only")
	}

	g.Go(func() error {
		return runIPCServer(ctx, ExpandPath(cfg.IPC.SocketPath), daemon.Commands(), logger)
	})

	if cfg.StateWS.Port > 0 {
		stateServer := NewStateServer(logger, hub, daemon.Commands())
		g.Go(func() error {
			return runStateWSServer(ctx, cfg.StateWS.Port, stateServer, logger)
		})
	}

	g.Go(func() error { return daemon.Run(ctx) })

	logger.Info("pickerd running",
		"version", version,
		"input_mode", cfg.Input.Mode,
		"display_mode", cfg.Display.Mode,
		"tick_hz", cfg.Input.TickHz,
		"ipc", cfg.IPC.SocketPath,
		"state_ws_port", cfg.StateWS.Port,
		"generator", cfg.Generator.URL != "")

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("shutting down")
	return nil
}
