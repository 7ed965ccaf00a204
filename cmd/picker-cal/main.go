package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"periph.io/x/host/v3"

	"picker/input"
)

// picker-cal samples the six MCP3008 knob channels while the user moves each
// knob through its positions, detects settled voltages, and writes the
// calibration profile pickerd loads at startup.

var knobChannels = []int{0, 1, 2, 4, 5, 6}

func main() {
	var (
		outfile       = flag.String("outfile", "picker_calibration.yaml", "Output calibration file")
		spiPort       = flag.String("spi-port", "SPI0.1", "SPI port of the MCP3008")
		rate          = flag.Float64("rate", 50, "Sampling rate in Hz")
		vref          = flag.Float64("vref", input.DefaultVRef, "ADC reference voltage")
		settleWindow  = flag.Float64("settle-window", 0.25, "Stability window in seconds")
		settleThresh  = flag.Float64("settle-threshold", 0.02, "Max voltage range to count as settled")
		clusterTol    = flag.Float64("cluster-tol", 0.05, "Voltage tolerance for merging positions")
		settleConfirm = flag.Int("settle-confirm", 3, "Consecutive settled windows to confirm a position")
	)
	flag.Parse()

	if *rate <= 0 || *rate > 1000 {
		fmt.Fprintln(os.Stderr, "error: -rate must be between 1 and 1000")
		os.Exit(1)
	}

	if _, err := host.Init(); err != nil {
		fmt.Fprintln(os.Stderr, "error: periph host init:", err)
		os.Exit(1)
	}

	adc, err := input.OpenMCP3008(*spiPort)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error: open MCP3008:", err)
		os.Exit(1)
	}
	defer adc.Close()

	windowSize := int(*settleWindow * *rate)
	if windowSize < 3 {
		windowSize = 3
	}

	calibrators := make(map[int]*ChannelCalibrator, len(knobChannels))
	for _, ch := range knobChannels {
		calibrators[ch] = NewChannelCalibrator(CalibratorConfig{
			WindowSize:       windowSize,
			SettleThreshold:  *settleThresh,
			ClusterTolerance: *clusterTol,
			ConfirmRequired:  *settleConfirm,
		})
	}

	fmt.Println("Picker Knob Calibrator")
	fmt.Println("======================")
	fmt.Println("1. Slowly move each knob through ALL positions")
	fmt.Println("2. Hold each position steady for about a second")
	fmt.Println("3. Repeat for all six knobs (CH0, CH1, CH2, CH4, CH5, CH6)")
	fmt.Println("4. Press Enter when finished")
	fmt.Println()

	stop := make(chan struct{})
	go func() {
		bufio.NewReader(os.Stdin).ReadString('\n')
		close(stop)
	}()

	ticker := time.NewTicker(time.Duration(float64(time.Second) / *rate))
	defer ticker.Stop()

	lastStatus := time.Now()
	samples := 0

sampling:
	for {
		select {
		case <-stop:
			break sampling
		case <-ticker.C:
		}

		for _, ch := range knobChannels {
			counts, err := adc.Read(ch)
			if err != nil {
				fmt.Fprintf(os.Stderr, "read channel %d: %v\n", ch, err)
				continue
			}
			voltage := input.CountsToVoltage(counts, *vref)
			if v, registered := calibrators[ch].Push(voltage); registered {
				fmt.Printf("CH%d: position at %.3fV (%d total)\n", ch, v, len(calibrators[ch].Breakpoints()))
			}
		}
		samples++

		if time.Since(lastStatus) >= time.Second {
			lastStatus = time.Now()
			printStatus(calibrators, samples, *settleThresh)
		}
	}

	profile := &input.CalibrationProfile{
		VRef:     *vref,
		Channels: make(map[int][]float64),
	}
	skipped := 0
	for _, ch := range knobChannels {
		bps := calibrators[ch].Breakpoints()
		if len(bps) < 2 {
			fmt.Printf("CH%d: only %d position(s) detected, leaving uncalibrated\n", ch, len(bps))
			skipped++
			continue
		}
		profile.Channels[ch] = bps
	}

	if len(profile.Channels) == 0 {
		fmt.Fprintln(os.Stderr, "error: no channel collected enough positions; nothing to save")
		os.Exit(1)
	}

	if err := profile.WriteFile(*outfile); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	fmt.Printf("\nCalibration saved to %s\n", *outfile)
	fmt.Println("\nSummary:")
	chs := make([]int, 0, len(profile.Channels))
	for ch := range profile.Channels {
		chs = append(chs, ch)
	}
	sort.Ints(chs)
	for _, ch := range chs {
		fmt.Printf("  CH%d: %d positions %v\n", ch, len(profile.Channels[ch]), formatVolts(profile.Channels[ch]))
	}
	if skipped > 0 {
		fmt.Printf("  (%d channel(s) skipped; they fall back to linear mapping)\n", skipped)
	}
	fmt.Printf("\nRun pickerd with: -input-mode knobs -calibration %s\n", *outfile)
}

func printStatus(calibrators map[int]*ChannelCalibrator, samples int, settleThresh float64) {
	fmt.Printf("-- %d samples --\n", samples)
	for _, ch := range knobChannels {
		cal := calibrators[ch]
		med, rng, ok := cal.WindowStats()
		if !ok {
			fmt.Printf("CH%d: n/a\n", ch)
			continue
		}
		settled := "no"
		if rng <= settleThresh {
			settled = "YES"
		}
		fmt.Printf("CH%d: %.3fV (range %.3fV, settled %s) positions %v\n",
			ch, med, rng, settled, formatVolts(cal.Breakpoints()))
	}
}

func formatVolts(vs []float64) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = fmt.Sprintf("%.3f", v)
	}
	return out
}
