package camdrv

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// SensorBusConfig describes the SPI register bus and GPIO reset line a CSI
// sensor is wired to, the same SPI+GPIO shape the teacher's hardware/oled
// package uses for its display panel (spireg.Open + periph.io/x/host
// init + gpiocdev.RequestLine for a dedicated reset pin).
type SensorBusConfig struct {
	SPIPort  string           // spidev path, e.g. "/dev/spidev0.1"
	SPISpeed physic.Frequency // sensor register-bus clock
	GPIOChip string           // gpiochip device, e.g. "gpiochip0"
	ResetPin int              // BCM GPIO line number for the sensor's reset pin
}

// SensorBus is the CSI sensor's register control bus: an SPI connection for
// register reads/writes plus a GPIO line that pulses the sensor's hardware
// reset on Init, mirroring hardware/oled.OLED's bus setup exactly.
type SensorBus struct {
	port    spi.PortCloser
	conn    spi.Conn
	rstLine *gpiocdev.Line
}

// OpenSensorBus opens the SPI port and reset GPIO line for one sensor. The
// caller closes the returned bus on Deinit.
func OpenSensorBus(cfg SensorBusConfig) (*SensorBus, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("camdrv: host init: %w", err)
	}

	port, err := spireg.Open(cfg.SPIPort)
	if err != nil {
		return nil, fmt.Errorf("camdrv: open spi %s: %w", cfg.SPIPort, err)
	}

	conn, err := port.Connect(cfg.SPISpeed, spi.Mode0, 8)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("camdrv: connect spi: %w", err)
	}

	chip := cfg.GPIOChip
	if chip == "" {
		chip = "gpiochip0"
	}
	rstLine, err := gpiocdev.RequestLine(chip, cfg.ResetPin, gpiocdev.AsOutput(1), gpiocdev.WithPullUp)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("camdrv: request reset line: %w", err)
	}

	return &SensorBus{port: port, conn: conn, rstLine: rstLine}, nil
}

// Reset pulses the sensor's hardware reset line low then high.
func (b *SensorBus) Reset() error {
	if err := b.rstLine.SetValue(0); err != nil {
		return fmt.Errorf("camdrv: assert reset: %w", err)
	}
	if err := b.rstLine.SetValue(1); err != nil {
		return fmt.Errorf("camdrv: release reset: %w", err)
	}
	return nil
}

// WriteRegister writes one sensor register over the SPI bus: address byte
// followed by the value byte, the same Tx shape hardware/oled uses for
// SSD1327 command bytes.
func (b *SensorBus) WriteRegister(addr, value byte) error {
	return b.conn.Tx([]byte{addr, value}, nil)
}

func (b *SensorBus) Close() error {
	if b.rstLine != nil {
		_ = b.rstLine.Close()
	}
	return b.port.Close()
}
