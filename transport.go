package main

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotConnected is returned by notify when no central is subscribed.
var ErrNotConnected = errors.New("no central subscribed")

// transport is the part of the radio stack the clock talks to. Inbound
// traffic arrives as events posted by the implementation.
type transport interface {
	Advertise() error
	Notify(data []byte) error
}

type eventKind int

const (
	eventConnected eventKind = iota
	eventDisconnected
	eventDataWritten
	eventButtonPressed
)

func (k eventKind) String() string {
	switch k {
	case eventConnected:
		return "connected"
	case eventDisconnected:
		return "disconnected"
	case eventDataWritten:
		return "data-written"
	case eventButtonPressed:
		return "button-pressed"
	}
	return fmt.Sprintf("event(%d)", int(k))
}

type event struct {
	Kind eventKind
	Data []byte
}

// sendFrames chops data into frames of at most size bytes and hands them to
// send one at a time, sleeping delay between frames.
func sendFrames(data []byte, size int, delay time.Duration, send func([]byte) error) error {
	if size <= 0 {
		size = defaultFrameSize
	}
	for i := 0; len(data) != 0; i++ {
		if i > 0 && delay > 0 {
			time.Sleep(delay)
		}
		n := size
		if len(data) < n {
			n = len(data)
		}
		if err := send(data[:n]); err != nil {
			return fmt.Errorf("send frame %d: %w", i, err)
		}
		data = data[n:]
	}
	return nil
}
