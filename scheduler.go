package main

import (
	"log"
	"sync/atomic"
	"time"
)

type clockSource interface {
	Now() time.Time
}

// display shows the current time. Builds without a display pass nil.
type display interface {
	ShowTime(hour, minute int) error
}

type buzzer interface {
	On() error
	Off() error
}

// wallClock reads the system clock, which is assumed to be synchronized
// before the daemon starts.
type wallClock struct {
	loc *time.Location
}

func (c wallClock) Now() time.Time {
	if c.loc == nil {
		return time.Now()
	}
	return time.Now().In(c.loc)
}

// scheduler compares the clock with the alarm list once per tick.
type scheduler struct {
	clock   clockSource
	display display
	buzzer  buzzer
	alarms  *alarmState
	log     *log.Logger

	// oncePerMinute fires on the first tick seen in a matching minute.
	// Without it a matching alarm re-fires on every tick of that minute.
	oncePerMinute bool
	debug         bool

	ringing   atomic.Bool
	lastFired time.Time
}

// tick runs one pass and reports whether the buzzer was switched on.
func (s *scheduler) tick() bool {
	now := s.clock.Now()
	hour, minute, second := now.Clock()

	if s.display != nil {
		if err := s.display.ShowTime(hour, minute); err != nil {
			s.log.Printf("display: %v", err)
		}
	}
	if s.debug {
		s.log.Printf("tick %02d:%02d:%02d", hour, minute, second)
	}

	minute0 := now.Truncate(time.Minute)
	if s.oncePerMinute && minute0.Equal(s.lastFired) {
		return false
	}
	for _, a := range s.alarms.get() {
		if !a.Matches(hour, minute) {
			continue
		}
		if err := s.buzzer.On(); err != nil {
			s.log.Printf("buzzer on: %v", err)
			return false
		}
		s.lastFired = minute0
		if !s.ringing.Swap(true) {
			s.log.Printf("ALARM %s", a.Time)
		}
		return true
	}
	return false
}

// silence is the stop button. It is safe to press when nothing is ringing.
func (s *scheduler) silence() {
	if err := s.buzzer.Off(); err != nil {
		s.log.Printf("buzzer off: %v", err)
		return
	}
	if s.ringing.Swap(false) {
		s.log.Println("alarm stopped")
	}
}
