// Package transport owns the broker connection: a message-oriented conn
// abstraction, its websocket implementation, and the reconnecting lifecycle
// manager that the command layer sends frames through.
package transport

import (
	"context"
	"fmt"

	"github.com/coder/websocket"
)

// Kind distinguishes text and binary messages.
type Kind int

const (
	KindText Kind = iota
	KindBinary
)

// Conn is one live, bidirectional, message-oriented connection.
type Conn interface {
	Write(ctx context.Context, kind Kind, data []byte) error
	Read(ctx context.Context) (Kind, []byte, error)
	Close() error
}

// DialFunc establishes one connection attempt to an endpoint.
type DialFunc func(ctx context.Context, endpoint string) (Conn, error)

// DialWebSocket dials a ws:// or wss:// endpoint.
func DialWebSocket(ctx context.Context, endpoint string) (Conn, error) {
	c, _, err := websocket.Dial(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", endpoint, err)
	}
	return &wsConn{conn: c}, nil
}

type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) Write(ctx context.Context, kind Kind, data []byte) error {
	mt := websocket.MessageText
	if kind == KindBinary {
		mt = websocket.MessageBinary
	}
	return c.conn.Write(ctx, mt, data)
}

func (c *wsConn) Read(ctx context.Context) (Kind, []byte, error) {
	mt, data, err := c.conn.Read(ctx)
	if err != nil {
		return KindText, nil, err
	}
	kind := KindText
	if mt == websocket.MessageBinary {
		kind = KindBinary
	}
	return kind, data, nil
}

func (c *wsConn) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "")
}
