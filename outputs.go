//go:build !tinygo

package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// sysfsLED drives /sys/class/leds/<name>/brightness, e.g. led0 on a
// Raspberry Pi. An empty name makes it a no-op.
type sysfsLED struct {
	path string
	log  *log.Logger

	mu   sync.Mutex
	last error
}

func newSysfsLED(name string, logger *log.Logger) *sysfsLED {
	if name == "" {
		return &sysfsLED{log: logger}
	}
	return &sysfsLED{
		path: filepath.Join("/sys/class/leds", name, "brightness"),
		log:  logger,
	}
}

func (l *sysfsLED) Set(on bool) {
	if l.path == "" {
		return
	}
	v := "0"
	if on {
		v = "1"
	}
	err := os.WriteFile(l.path, []byte(v), 0o644)

	l.mu.Lock()
	defer l.mu.Unlock()
	// Log each distinct error once.
	if err != nil && (l.last == nil || l.last.Error() != err.Error()) {
		l.log.Printf("set led: %v", err)
	}
	l.last = err
}

// bellBuzzer rings the terminal bell while an alarm is active and mirrors its
// state to the web display.
type bellBuzzer struct {
	out  io.Writer
	disp *wsDisplay

	mu sync.Mutex
	on bool
}

func (b *bellBuzzer) On() error {
	b.mu.Lock()
	changed := !b.on
	b.on = true
	b.mu.Unlock()
	if changed && b.disp != nil {
		b.disp.buzzerChanged(true)
	}
	if _, err := fmt.Fprint(b.out, "\a"); err != nil {
		return fmt.Errorf("ring bell: %w", err)
	}
	return nil
}

func (b *bellBuzzer) Off() error {
	b.mu.Lock()
	changed := b.on
	b.on = false
	b.mu.Unlock()
	if changed && b.disp != nil {
		b.disp.buzzerChanged(false)
	}
	return nil
}
