package tui

import "io"

// MaxOffset exposes maxOffset for tests.
func (v *Vterm) MaxOffset() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.maxOffset()
}

// NewLineWriter exposes lineWriter for tests.
func NewLineWriter(send func(line string)) io.Writer {
	return &lineWriter{send: send}
}
