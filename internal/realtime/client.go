// Package realtime subscribes to the backend's change feed over a
// Phoenix-protocol websocket and republishes row inserts on the event
// bus. The link is best-effort: if the socket drops, handlers stop
// firing and the stores keep working from fetches; there is no
// client-side retry.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/roastlabs/roastapp-client/internal/database"
	"github.com/roastlabs/roastapp-client/internal/events"
	"github.com/roastlabs/roastapp-client/internal/logging"
)

const (
	defaultHeartbeat = 30 * time.Second
	writeTimeout     = 10 * time.Second
	eventSource      = "realtime"
)

// phoenixMessage is the protocol envelope.
type phoenixMessage struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     string          `json:"ref"`
}

// changePayload is the postgres_changes payload inside an envelope.
type changePayload struct {
	Type   string          `json:"type"`
	Schema string          `json:"schema"`
	Table  string          `json:"table"`
	Record json.RawMessage `json:"record"`
}

// Config holds the connection parameters.
type Config struct {
	// ProjectURL is the backend base URL; the websocket endpoint is
	// derived from it.
	ProjectURL string
	AnonKey    string
	// HeartbeatInterval defaults to 30s, the server's idle cutoff.
	HeartbeatInterval time.Duration
}

// Client is a websocket subscriber for row-change events.
type Client struct {
	cfg    Config
	bus    *events.Bus
	logger logging.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	nextRef int
	done    chan struct{}
	closed  bool
}

// NewClient creates a disconnected subscriber.
func NewClient(cfg Config, bus *events.Bus, logger logging.Logger) *Client {
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = defaultHeartbeat
	}
	return &Client{cfg: cfg, bus: bus, logger: logger}
}

// endpoint derives the websocket URL from the project URL.
func (c *Client) endpoint() (string, error) {
	u, err := url.Parse(c.cfg.ProjectURL)
	if err != nil {
		return "", fmt.Errorf("parse project url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/realtime/v1/websocket"
	u.RawQuery = "apikey=" + url.QueryEscape(c.cfg.AnonKey) + "&vsn=1.0.0"
	return u.String(), nil
}

// Connect dials the socket, joins the given public tables, and starts
// the read and heartbeat loops.
func (c *Client) Connect(ctx context.Context, tables ...string) error {
	endpoint, err := c.endpoint()
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return fmt.Errorf("dial realtime: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.done = make(chan struct{})
	c.closed = false
	c.mu.Unlock()

	for _, table := range tables {
		if err := c.join(table); err != nil {
			conn.Close()
			return err
		}
	}

	go c.readLoop(conn)
	go c.heartbeatLoop()
	c.logger.Info("realtime connected", "tables", strings.Join(tables, ","))
	return nil
}

// Close shuts the socket down cleanly. Safe to call when never
// connected.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || c.closed {
		return
	}
	c.closed = true
	close(c.done)
	deadline := time.Now().Add(writeTimeout)
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	_ = c.conn.Close()
}

func (c *Client) join(table string) error {
	topic := "realtime:public:" + table
	return c.send(phoenixMessage{
		Topic:   topic,
		Event:   "phx_join",
		Payload: json.RawMessage(`{}`),
		Ref:     c.ref(),
	})
}

func (c *Client) send(msg phoenixMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || c.closed {
		return fmt.Errorf("realtime client is closed")
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(msg)
}

func (c *Client) ref() string {
	c.nextRef++
	return strconv.Itoa(c.nextRef)
}

func (c *Client) heartbeatLoop() {
	ticker := time.NewTicker(c.cfg.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			err := c.send(phoenixMessage{
				Topic:   "phoenix",
				Event:   "heartbeat",
				Payload: json.RawMessage(`{}`),
				Ref:     c.ref(),
			})
			if err != nil {
				c.logger.Warn("realtime heartbeat failed", "err", err)
				return
			}
		}
	}
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		var msg phoenixMessage
		if err := conn.ReadJSON(&msg); err != nil {
			c.mu.Lock()
			closed := c.closed
			c.mu.Unlock()
			if !closed {
				c.logger.Warn("realtime connection lost", "err", err)
			}
			return
		}
		c.dispatch(msg)
	}
}

// dispatch republishes recognized row inserts on the bus. Replies,
// heartbeat acks, and non-insert changes are dropped.
func (c *Client) dispatch(msg phoenixMessage) {
	if msg.Event != "INSERT" && msg.Event != "UPDATE" && msg.Event != "DELETE" {
		return
	}

	var change changePayload
	if err := json.Unmarshal(msg.Payload, &change); err != nil {
		c.logger.Debug("undecodable change payload", "topic", msg.Topic, "err", err)
		return
	}

	switch change.Table {
	case "messages":
		if msg.Event != "INSERT" {
			return
		}
		var message database.Message
		if err := json.Unmarshal(change.Record, &message); err != nil {
			c.logger.Debug("undecodable message record", "err", err)
			return
		}
		c.publish(events.TopicMessageInsert, &message)
	case "friends":
		// Stores refetch on friend changes; the row itself is not needed.
		c.publish(events.TopicFriendChange, change.Table)
	}
}

func (c *Client) publish(topic string, data any) {
	if c.bus == nil {
		return
	}
	if err := c.bus.Publish(context.Background(), topic, eventSource, data); err != nil {
		c.logger.Debug("realtime publish failed", "topic", topic, "err", err)
	}
}
