// Package transfer implements the work-order model, the shared worker
// pools, the multipart upload lifecycle, and the resumable chunked download
// described by the transfer manager's component design.
package transfer

import "sync"

// Progress tracks a done/total byte (or work-order) count with a derived
// fractional value. Grounded on the lineage's thread-safe getter/setter
// pattern (a mutex-guarded struct with explicit accessor methods) rather
// than bare atomics, since done/total must be read together for Value.
type Progress struct {
	mu    sync.Mutex
	done  int64
	total int64
}

// NewProgress creates a Progress with the given total.
func NewProgress(total int64) *Progress {
	return &Progress{total: total}
}

// SetDone sets the done counter directly.
func (p *Progress) SetDone(done int64) {
	p.mu.Lock()
	p.done = done
	p.mu.Unlock()
}

// IncreaseDone adds delta to the done counter.
func (p *Progress) IncreaseDone(delta int64) {
	p.mu.Lock()
	p.done += delta
	p.mu.Unlock()
}

// DecreaseDone subtracts delta from the done counter, clamped at zero.
// Used when a work order's in-flight bytes must be rolled back after a
// transport failure (SPEC_FULL.md §4.E).
func (p *Progress) DecreaseDone(delta int64) {
	p.mu.Lock()
	p.done -= delta
	if p.done < 0 {
		p.done = 0
	}
	p.mu.Unlock()
}

// SetTotal sets the total counter.
func (p *Progress) SetTotal(total int64) {
	p.mu.Lock()
	p.total = total
	p.mu.Unlock()
}

// SetValue sets done to a fraction of total. (Work orders reset their
// progress on retry through Reset, not this method.)
func (p *Progress) SetValue(fraction float64) {
	p.mu.Lock()
	p.done = int64(fraction * float64(p.total))
	p.mu.Unlock()
}

// Reset zeroes the done counter without touching total.
func (p *Progress) Reset() {
	p.SetDone(0)
}

// Snapshot returns (done, total) under a single lock acquisition.
func (p *Progress) Snapshot() (done, total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done, p.total
}

// Value returns done/total, or 0 if total is not yet known.
func (p *Progress) Value() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.total == 0 {
		return 0
	}
	return float64(p.done) / float64(p.total)
}
