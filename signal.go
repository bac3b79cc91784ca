package main

import (
	"log"
	"sync"
	"time"
)

// indicator is the connection LED.
type indicator interface {
	Set(on bool)
}

// connSignal tracks the link state and drives the indicator: blinking while
// disconnected, steady on while connected. Losing the central re-arms
// advertising.
//
// The blink is two independent periodic timers, one switching the LED on and
// one switching it off, the second started offset after the first.
type connSignal struct {
	led    indicator
	adv    transport
	log    *log.Logger
	period time.Duration
	offset time.Duration

	mu          sync.Mutex
	state       ConnState
	advertising bool
	stop        chan struct{}
	wg          sync.WaitGroup
}

func newConnSignal(led indicator, adv transport, logger *log.Logger, period, offset time.Duration) *connSignal {
	return &connSignal{
		led:    led,
		adv:    adv,
		log:    logger,
		period: period,
		offset: offset,
		state:  StateDisconnected,
	}
}

// start puts the signal in its boot state: disconnected, advertising and
// blinking.
func (s *connSignal) start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startBlinking()
	return s.advertise()
}

func (s *connSignal) connected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopBlinking()
	s.state = StateConnected
	// The stack stops advertising once a central connects.
	s.advertising = false
	s.led.Set(true)
	s.log.Println("central connected")
}

func (s *connSignal) disconnected() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateDisconnected
	s.startBlinking()
	s.log.Println("central disconnected")
	return s.advertise()
}

// advertise must be called with mu held.
func (s *connSignal) advertise() error {
	if err := s.adv.Advertise(); err != nil {
		s.advertising = false
		return err
	}
	s.advertising = true
	return nil
}

// startBlinking must be called with mu held.
func (s *connSignal) startBlinking() {
	if s.stop != nil {
		return
	}
	stop := make(chan struct{})
	s.stop = stop
	s.wg.Add(2)
	go s.toggle(stop, 0, true)
	go s.toggle(stop, s.offset, false)
}

// stopBlinking must be called with mu held.
func (s *connSignal) stopBlinking() {
	if s.stop == nil {
		return
	}
	close(s.stop)
	s.stop = nil
	s.wg.Wait()
}

func (s *connSignal) toggle(stop <-chan struct{}, delay time.Duration, on bool) {
	defer s.wg.Done()
	if delay > 0 {
		select {
		case <-stop:
			return
		case <-time.After(delay):
		}
	}
	t := time.NewTicker(s.period)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			s.led.Set(on)
		}
	}
}

// close stops the blink timers.
func (s *connSignal) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopBlinking()
}

func (s *connSignal) status() (ConnState, bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.advertising, s.stop != nil
}
