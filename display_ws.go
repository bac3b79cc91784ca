//go:build !tinygo

package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 5 * time.Second
	wsSendBuffer = 16
)

// displayMessage is what web clients receive on /ws.
type displayMessage struct {
	Type  string `json:"type"` // "time" | "buzzer" | "connection"
	Time  string `json:"time,omitempty"`
	On    *bool  `json:"on,omitempty"`
	State string `json:"state,omitempty"`
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// wsDisplay stands in for the digit display on hosts without one: every
// WebSocket client sees the clock face, the buzzer and the link state.
type wsDisplay struct {
	log      *log.Logger
	upgrader websocket.Upgrader

	mu       sync.Mutex
	clients  map[*wsClient]struct{}
	lastTime []byte
	shown    string
}

func newWSDisplay(logger *log.Logger) *wsDisplay {
	return &wsDisplay{
		log:     logger,
		clients: make(map[*wsClient]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (d *wsDisplay) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := d.upgrader.Upgrade(w, r, nil)
	if err != nil {
		d.log.Printf("websocket upgrade: %v", err)
		return
	}
	c := &wsClient{conn: conn, send: make(chan []byte, wsSendBuffer)}

	d.mu.Lock()
	d.clients[c] = struct{}{}
	if d.lastTime != nil {
		c.send <- d.lastTime
	}
	d.mu.Unlock()

	go d.writeLoop(c)
	// Drain until the client goes away; nothing it sends is used.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	d.remove(c)
}

func (d *wsDisplay) writeLoop(c *wsClient) {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			d.remove(c)
			return
		}
	}
}

func (d *wsDisplay) remove(c *wsClient) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.clients[c]; ok {
		delete(d.clients, c)
		close(c.send)
	}
}

func (d *wsDisplay) broadcast(m displayMessage) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode %s message: %w", m.Type, err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if m.Type == "time" {
		d.lastTime = data
	}
	for c := range d.clients {
		select {
		case c.send <- data:
		default:
			// Too slow to keep up; drop it.
			delete(d.clients, c)
			close(c.send)
		}
	}
	return nil
}

// ShowTime implements display. Repeated times are not re-sent.
func (d *wsDisplay) ShowTime(hour, minute int) error {
	s := fmt.Sprintf("%02d:%02d", hour, minute)
	d.mu.Lock()
	same := s == d.shown
	d.shown = s
	d.mu.Unlock()
	if same {
		return nil
	}
	return d.broadcast(displayMessage{Type: "time", Time: s})
}

func (d *wsDisplay) ConnectionChanged(state ConnState) {
	if err := d.broadcast(displayMessage{Type: "connection", State: string(state)}); err != nil {
		d.log.Println(err)
	}
}

func (d *wsDisplay) buzzerChanged(on bool) {
	if err := d.broadcast(displayMessage{Type: "buzzer", On: &on}); err != nil {
		d.log.Println(err)
	}
}

func (d *wsDisplay) close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for c := range d.clients {
		delete(d.clients, c)
		close(c.send)
	}
}
