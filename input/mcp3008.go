package input

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
)

// ADCReader reads raw counts from an analog channel. Implemented by MCP3008
// for hardware and SimulatedADC for tests.
type ADCReader interface {
	Read(channel int) (int, error)
}

// mcp3008MaxCount is the full-scale value of the 10-bit converter.
const mcp3008MaxCount = 1023

// MCP3008 reads the 8-channel 10-bit SPI ADC that carries the six knobs and
// the two pushbuttons. The e-paper panel owns CE0, so the converter sits on
// CE1 by convention.
type MCP3008 struct {
	mu   sync.Mutex
	port spi.PortCloser
	conn spi.Conn
}

// OpenMCP3008 opens the SPI port by registry name (e.g. "SPI0.1", or "" for
// the first available) and configures the converter link. The clock is kept
// conservative; the MCP3008 tops out well below most SPI buses.
func OpenMCP3008(portName string) (*MCP3008, error) {
	port, err := spireg.Open(portName)
	if err != nil {
		return nil, fmt.Errorf("open spi port %q: %w", portName, err)
	}
	conn, err := port.Connect(1350*physic.KiloHertz, spi.Mode0, 8)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("connect mcp3008: %w", err)
	}
	return &MCP3008{port: port, conn: conn}, nil
}

// Read performs one single-ended conversion and returns the 10-bit count.
func (m *MCP3008) Read(channel int) (int, error) {
	if channel < 0 || channel > 7 {
		return 0, fmt.Errorf("mcp3008: channel %d out of range 0..7", channel)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Start bit, single-ended mode + channel, then clocks for the result.
	tx := []byte{0x01, byte(0x80 | channel<<4), 0x00}
	rx := make([]byte, 3)
	if err := m.conn.Tx(tx, rx); err != nil {
		return 0, fmt.Errorf("mcp3008: tx channel %d: %w", channel, err)
	}
	return int(rx[1]&0x03)<<8 | int(rx[2]), nil
}

// Close releases the SPI port.
func (m *MCP3008) Close() error {
	return m.port.Close()
}

// CountsToVoltage converts a raw ADC count to volts against vref.
func CountsToVoltage(counts int, vref float64) float64 {
	if counts < 0 {
		counts = 0
	}
	if counts > mcp3008MaxCount {
		counts = mcp3008MaxCount
	}
	return float64(counts) / mcp3008MaxCount * vref
}
