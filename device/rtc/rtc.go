// Package rtc drives the real-time clock's periodic interrupt as a
// rate-limited tick source for user programs.
package rtc

import (
	"encoding/binary"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"

	"github.com/jonjonleee/Linux-like-OS/hw"
	"github.com/jonjonleee/Linux-like-OS/log"
)

var (
	ErrBadRate   = errors.New("rate is not a power of two in [2,1024]")
	ErrBadBuffer = errors.New("rate buffer must be 4 bytes")
)

const (
	DefaultRate = 2
	MinRate     = 2
	MaxRate     = 1024
)

// rateSelect holds the register A nibble for 2Hz, 4Hz, ... 1024Hz.
var rateSelect = [...]uint8{0x0F, 0x0E, 0x0D, 0x0C, 0x0B, 0x0A, 0x09, 0x08, 0x07, 0x06}

// RateSelect maps a frequency to its register A nibble.
func RateSelect(hz uint32) (uint8, error) {
	if hz < MinRate || hz > MaxRate || hz&(hz-1) != 0 {
		return 0, errors.Wrapf(ErrBadRate, "rate=%d", hz)
	}

	exp := 0
	for v := hz; v > 1; v >>= 1 {
		exp++
	}

	return rateSelect[exp-1], nil
}

type Driver struct {
	L hclog.Logger

	cpu *hw.CPU
	dev *hw.RTC

	ticked bool
}

func New(cpu *hw.CPU, dev *hw.RTC) *Driver {
	return &Driver{
		L:   log.L.Named("rtc"),
		cpu: cpu,
		dev: dev,
	}
}

// Init turns on the periodic interrupt at the default rate.
func (d *Driver) Init() {
	d.dev.EnablePeriodic()

	rs, _ := RateSelect(DefaultRate)
	d.dev.SetRate(rs)
}

// Interrupt is the IRQ8 body. Register C must be read or the chip stops
// interrupting.
func (d *Driver) Interrupt() {
	d.dev.ReadC()
	d.ticked = true
}

// Open resets the rate to 2Hz.
func (d *Driver) Open() error {
	rs, _ := RateSelect(DefaultRate)
	d.dev.SetRate(rs)
	return nil
}

func (d *Driver) Close() error {
	return nil
}

// Read blocks until the next periodic interrupt.
func (d *Driver) Read() error {
	d.ticked = false

	for !d.ticked {
		d.cpu.Hlt()
	}

	return nil
}

// Write takes a 4-byte little-endian frequency. An invalid one leaves the
// current rate alone.
func (d *Driver) Write(buf []byte) error {
	if len(buf) != 4 {
		return errors.Wrapf(ErrBadBuffer, "got %d bytes", len(buf))
	}

	hz := binary.LittleEndian.Uint32(buf)

	rs, err := RateSelect(hz)
	if err != nil {
		return err
	}

	flag := d.cpu.Cli()
	d.dev.SetRate(rs)
	d.cpu.Restore(flag)

	d.L.Trace("rate", "hz", hz, "rs", hclog.Hex(rs))

	return nil
}

// Frequency is the current periodic rate in Hz.
func (d *Driver) Frequency() int {
	return d.dev.Frequency()
}
