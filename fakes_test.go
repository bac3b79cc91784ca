package main

import (
	"errors"
	"io"
	"log"
	"sync"
	"time"
)

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

type fakeTransport struct {
	mu         sync.Mutex
	advertised int
	advErr     error
	notifyErr  error
	replies    [][]byte
	frames     [][]byte
}

func (f *fakeTransport) Advertise() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.advErr != nil {
		return f.advErr
	}
	f.advertised++
	return nil
}

func (f *fakeTransport) Notify(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.notifyErr != nil {
		return f.notifyErr
	}
	f.replies = append(f.replies, append([]byte(nil), data...))
	return sendFrames(data, defaultFrameSize, 0, func(frame []byte) error {
		f.frames = append(f.frames, append([]byte(nil), frame...))
		return nil
	})
}

func (f *fakeTransport) snapshot() (int, [][]byte, [][]byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.advertised, append([][]byte(nil), f.replies...), append([][]byte(nil), f.frames...)
}

// countingStore wraps memoryStore and records calls.
type countingStore struct {
	memoryStore
	mu      sync.Mutex
	loads   int
	saves   int
	saveErr error
}

func (s *countingStore) Load() AlarmList {
	s.mu.Lock()
	s.loads++
	s.mu.Unlock()
	return s.memoryStore.Load()
}

func (s *countingStore) Save(list AlarmList) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	return s.memoryStore.Save(list)
}

func (s *countingStore) counts() (loads, saves int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads, s.saves
}

type fakeLED struct {
	mu   sync.Mutex
	ons  int
	offs int
	last bool
}

func (l *fakeLED) Set(on bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if on {
		l.ons++
	} else {
		l.offs++
	}
	l.last = on
}

func (l *fakeLED) state() (ons, offs int, last bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ons, l.offs, l.last
}

type fakeBuzzer struct {
	mu    sync.Mutex
	on    bool
	ons   int
	offs  int
	onErr error
}

func (b *fakeBuzzer) On() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.onErr != nil {
		return b.onErr
	}
	b.on = true
	b.ons++
	return nil
}

func (b *fakeBuzzer) Off() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.on = false
	b.offs++
	return nil
}

func (b *fakeBuzzer) isOn() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.on
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func at(hour, minute, second int) time.Time {
	return time.Date(2024, time.March, 1, hour, minute, second, 0, time.UTC)
}

type fakeDisplay struct {
	mu    sync.Mutex
	shown []string
	err   error
}

func (d *fakeDisplay) ShowTime(hour, minute int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.shown = append(d.shown, AlarmTime{hour, minute}.String())
	return d.err
}

var errRadio = errors.New("radio down")

// chunk appends the filler character clients put after every write.
func chunk(s string) []byte {
	return []byte(s + " ")
}
