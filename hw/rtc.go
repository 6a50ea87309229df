package hw

import (
	"context"
	"sync"
	"time"
)

const (
	// RTCBase is the 32.768kHz time base.
	RTCBase = 32768

	RegBPeriodic = 0x40
	RegCPeriodic = 0x40
)

// RTC is an MC146818 with only the periodic interrupt modeled.
type RTC struct {
	mu sync.Mutex

	regA, regB uint8
	pending    bool
	fired      uint64

	pic *PIC
}

// SetRate writes the rate-select nibble of register A.
func (r *RTC) SetRate(rs uint8) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.regA = r.regA&0xF0 | rs&0x0F
}

func (r *RTC) Rate() uint8 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.regA & 0x0F
}

// Frequency is the periodic interrupt rate in Hz, 0 when disabled.
func (r *RTC) Frequency() int {
	rs := r.Rate()
	if rs == 0 {
		return 0
	}

	return RTCBase >> (rs - 1)
}

// EnablePeriodic sets the PIE bit of register B.
func (r *RTC) EnablePeriodic() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.regB |= RegBPeriodic
}

// Fire latches a periodic interrupt. Nothing is raised until register C has
// been read for the previous one.
func (r *RTC) Fire() {
	r.mu.Lock()

	if r.regB&RegBPeriodic == 0 || r.pending {
		r.mu.Unlock()
		return
	}

	r.pending = true
	r.fired++
	r.mu.Unlock()

	r.pic.Raise(8)
}

// ReadC reads and clears register C.
func (r *RTC) ReadC() uint8 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.pending {
		return 0
	}

	r.pending = false
	return RegCPeriodic
}

func (r *RTC) Fired() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.fired
}

// Run fires at the programmed frequency until ctx is done.
func (r *RTC) Run(ctx context.Context) {
	for {
		hz := r.Frequency()
		if hz == 0 {
			hz = 2
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second / time.Duration(hz)):
			r.Fire()
		}
	}
}
