package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// ErrQueueFull is returned by post when the event queue has no room.
var ErrQueueFull = errors.New("event queue full")

const eventQueueSize = 64

// connObserver is told about link state changes, beyond the LED.
type connObserver interface {
	ConnectionChanged(state ConnState)
}

// alarmClock owns every piece of runtime state. Radio and button callbacks
// only post events; run handles them on one goroutine together with the
// scheduler ticks, so protocol writes and alarm matching never interleave.
type alarmClock struct {
	log      *log.Logger
	alarms   *alarmState
	handler  *protocolHandler
	signal   *connSignal
	sched    *scheduler
	observer connObserver
	tick     time.Duration

	events chan event
}

type clockDeps struct {
	store     alarmStore
	transport transport
	led       indicator
	display   display
	buzzer    buzzer
	clock     clockSource
	observer  connObserver
}

func newAlarmClock(cfg *Config, logger *log.Logger, deps clockDeps) *alarmClock {
	alarms := newAlarmState(deps.store.Load())
	logger.Printf("loaded %d alarms", alarms.len())
	return &alarmClock{
		log:    logger,
		alarms: alarms,
		handler: &protocolHandler{
			store:             deps.store,
			alarms:            alarms,
			transport:         deps.transport,
			log:               logger,
			saveEveryFragment: cfg.Storage.SaveEveryFragment,
			maxAlarms:         cfg.MaxAlarms,
			debug:             cfg.Debug,
		},
		signal: newConnSignal(deps.led, deps.transport, logger,
			cfg.Indicator.Period.Duration, cfg.Indicator.Offset.Duration),
		sched: &scheduler{
			clock:             deps.clock,
			display:           deps.display,
			buzzer:            deps.buzzer,
			alarms:            alarms,
			log:               logger,
			oncePerMinute:     cfg.Clock.OncePerMinute,
			debug:             cfg.Debug,
		},
		observer: deps.observer,
		tick:     cfg.Clock.Tick.Duration,
		events:   make(chan event, eventQueueSize),
	}
}

// post queues an event without blocking. Data is copied because radio
// stacks reuse their buffers.
func (c *alarmClock) post(kind eventKind, data []byte) error {
	ev := event{Kind: kind}
	if data != nil {
		ev.Data = append([]byte(nil), data...)
	}
	select {
	case c.events <- ev:
		return nil
	default:
		return fmt.Errorf("%w: dropped %s", ErrQueueFull, kind)
	}
}

// postLogged is post for callbacks that have nowhere to return an error.
func (c *alarmClock) postLogged(kind eventKind, data []byte) {
	if err := c.post(kind, data); err != nil {
		c.log.Println(err)
	}
}

// run starts advertising and loops until ctx is cancelled.
func (c *alarmClock) run(ctx context.Context) error {
	if err := c.signal.start(); err != nil {
		c.log.Printf("advertise: %v", err)
	}
	defer c.signal.close()

	c.sched.tick()
	t := time.NewTicker(c.tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			c.sched.tick()
		case ev := <-c.events:
			c.dispatch(ev)
		}
	}
}

func (c *alarmClock) dispatch(ev event) {
	switch ev.Kind {
	case eventConnected:
		c.signal.connected()
		c.notifyObserver(StateConnected)
	case eventDisconnected:
		if err := c.signal.disconnected(); err != nil {
			c.log.Printf("advertise: %v", err)
		}
		c.notifyObserver(StateDisconnected)
	case eventDataWritten:
		if err := c.handler.handleWrite(ev.Data); err != nil {
			c.log.Printf("handle write: %v", err)
		}
	case eventButtonPressed:
		c.sched.silence()
	default:
		c.log.Printf("unknown event %s", ev.Kind)
	}
}

func (c *alarmClock) notifyObserver(state ConnState) {
	if c.observer != nil {
		c.observer.ConnectionChanged(state)
	}
}

func (c *alarmClock) status() IPCResponse {
	state, advertising, _ := c.signal.status()
	return IPCResponse{
		State:       string(state),
		Advertising: advertising,
		Ringing:     c.sched.ringing.Load(),
		AlarmCount:  c.alarms.len(),
	}
}
