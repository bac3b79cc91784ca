package main

import (
	"errors"
	"fmt"
	"log"
)

// ErrDecode is returned when a completed message is not a valid alarm list.
var ErrDecode = errors.New("decode alarm list")

// protocolHandler interprets writes to the RX characteristic.
type protocolHandler struct {
	store     alarmStore
	alarms    *alarmState
	transport transport
	log       *log.Logger

	asm reassembler

	// saveEveryFragment persists after every non-command chunk, even
	// before the message is complete. Off means save on completion only.
	saveEveryFragment bool
	maxAlarms         int
	debug             bool
}

// handleWrite processes one raw chunk. Errors are returned for logging; the
// handler stays usable after any of them.
func (h *protocolHandler) handleWrite(raw []byte) error {
	if decodeChunk(raw) == cmdGetAlarms {
		return h.replyAlarms()
	}

	var decodeErr error
	msg, complete := h.asm.feed(raw)
	if h.debug {
		h.log.Printf("fragment %q complete=%v pending=%d", decodeChunk(raw), complete, h.asm.pending())
	}
	if complete {
		list, err := h.decode(msg)
		if err != nil {
			decodeErr = err
		} else {
			h.alarms.replace(list)
			h.log.Printf("received %d alarms", len(list))
		}
	}

	if !complete && !h.saveEveryFragment {
		return nil
	}
	if err := h.store.Save(h.alarms.get()); err != nil {
		return errors.Join(decodeErr, fmt.Errorf("save alarms: %w", err))
	}
	return decodeErr
}

func (h *protocolHandler) decode(msg string) (AlarmList, error) {
	list, err := decodeAlarmList([]byte(msg))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if h.maxAlarms > 0 && len(list) > h.maxAlarms {
		return nil, fmt.Errorf("%w: %d alarms exceeds limit of %d", ErrDecode, len(list), h.maxAlarms)
	}
	return list, nil
}

// replyAlarms reloads the stored list, makes it the live one and sends it
// back to the central.
func (h *protocolHandler) replyAlarms() error {
	h.asm.reset()
	list := h.store.Load()
	h.alarms.replace(list)
	data, err := encodeAlarmList(list)
	if err != nil {
		return fmt.Errorf("encode alarms: %w", err)
	}
	h.log.Printf("sending %d alarms (%d bytes)", len(list), len(data))
	if err := h.transport.Notify(data); err != nil {
		return fmt.Errorf("reply alarms: %w", err)
	}
	return nil
}
