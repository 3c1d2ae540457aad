package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog/log"
)

// Sender emits one outbound message.
type Sender interface {
	Send(ctx context.Context, v any) error
}

// Conn is a client connection to the room socket.
type Conn struct {
	ws           *websocket.Conn
	disp         *Dispatcher
	writeTimeout time.Duration
}

// Dial opens the room socket. Inbound frames go to disp once Run is called.
func Dial(ctx context.Context, url string, disp *Dispatcher, opts *websocket.DialOptions) (*Conn, error) {
	ws, _, err := websocket.Dial(ctx, url, opts)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	ws.SetReadLimit(1 << 20)
	return &Conn{ws: ws, disp: disp, writeTimeout: 5 * time.Second}, nil
}

func (c *Conn) Send(ctx context.Context, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, c.writeTimeout)
	defer cancel()
	return c.ws.Write(ctx, websocket.MessageText, b)
}

// Run reads until the connection closes or ctx ends. A normal close
// returns nil.
func (c *Conn) Run(ctx context.Context) error {
	for {
		_, data, err := c.ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if err := c.disp.Dispatch(data); err != nil {
			log.Warn().Err(err).Str("module", "client").Msg("dropping frame")
		}
	}
}

func (c *Conn) Close() error {
	return c.ws.Close(websocket.StatusNormalClosure, "bye")
}
