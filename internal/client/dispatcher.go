// Package client is the listener/host side of a room: it keeps a local
// mirror of the room, applies what the server sends and emits the host's
// own actions.
package client

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Ayush94-1708/music-glass/internal/protocol"
)

// Handler receives the raw frame of one message type.
type Handler func(raw []byte)

// Dispatcher routes inbound frames by their type. Handlers are registered
// once per connection and read session state through pointers, never
// through captured copies.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string][]Handler)}
}

func (d *Dispatcher) On(msgType string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[msgType] = append(d.handlers[msgType], h)
}

// Dispatch decodes the envelope and runs every handler for its type.
// Frames without a handler are ignored.
func (d *Dispatcher) Dispatch(raw []byte) error {
	var env protocol.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	d.mu.RLock()
	hs := d.handlers[env.Type]
	d.mu.RUnlock()
	for _, h := range hs {
		h(raw)
	}
	return nil
}
