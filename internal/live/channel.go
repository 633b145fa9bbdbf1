package live

import (
	"context"
	"fmt"
	"net/url"

	"github.com/gorilla/websocket"
)

// Conn is one open push channel. Next blocks until a frame arrives and
// returns an error on channel fault; after an error the Conn is dead.
type Conn interface {
	Next() ([]byte, error)
	Close() error
}

// Dialer opens push channels. The coordinator redials through it after
// every fault.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// WebsocketDialer dials the server's event endpoint over websocket.
type WebsocketDialer struct {
	url string
}

// NewWebsocketDialer derives the event endpoint from the server base URL.
func NewWebsocketDialer(baseURL string) (*WebsocketDialer, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing server URL: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = "/api/events"
	return &WebsocketDialer{url: u.String()}, nil
}

// Dial opens one websocket connection.
func (d *WebsocketDialer) Dial(ctx context.Context) (Conn, error) {
	var wd websocket.Dialer
	c, resp, err := wd.DialContext(ctx, d.url, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dialing %s (status %d): %w", d.url, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dialing %s: %w", d.url, err)
	}
	return &wsConn{conn: c}, nil
}

type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) Next() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}
