package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"ExoVista/internal/domain/models"
)

// Reply is one frame received from /api/stream: a report or an error.
type Reply struct {
	Report *models.DispositionReport
	Err    string
}

type replyFrame struct {
	models.DispositionReport
	Error string `json:"error"`
}

// Request is the frame sent for one observation.
type Request struct {
	models.Observation
	Mode string  `json:"mode,omitempty"`
	Seed *uint64 `json:"seed,omitempty"`
}

const writeWait = 10 * time.Second

// Client talks to the disposition websocket endpoint.
type Client struct {
	url          string
	pingInterval time.Duration
	writeTimeout time.Duration

	mu   sync.Mutex
	conn *websocket.Conn
}

func New(url string, pingInterval time.Duration) *Client {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &Client{url: url, pingInterval: pingInterval, writeTimeout: writeWait}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("stream connect: %w", err)
	}
	c.conn = conn
	return nil
}

// Send writes one observation frame. A peer that stops reading fails the
// write after the write timeout instead of blocking forever.
func (c *Client) Send(req Request) error {
	if c.conn == nil {
		return errors.New("stream not connected")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return fmt.Errorf("stream send: %w", err)
	}
	if err := c.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("stream send: %w", err)
	}
	return nil
}

// Read streams replies until ctx ends or the connection fails.
func (c *Client) Read(ctx context.Context) (<-chan Reply, <-chan error) {
	replies := make(chan Reply, 64)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.mu.Lock()
				_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
				c.mu.Unlock()
			}
		}
	}()

	// read loop
	go func() {
		defer close(replies)
		defer close(errs)
		for {
			if ctx.Err() != nil {
				return
			}
			if c.conn == nil {
				errs <- errors.New("stream conn nil")
				return
			}
			_, b, err := c.conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					errs <- fmt.Errorf("stream read: %w", err)
				}
				return
			}
			var f replyFrame
			if err := json.Unmarshal(b, &f); err != nil {
				errs <- fmt.Errorf("stream decode: %w", err)
				return
			}
			r := Reply{Err: f.Error}
			if f.Error == "" {
				report := f.DispositionReport
				r.Report = &report
			}
			select {
			case replies <- r:
			case <-ctx.Done():
				return
			}
		}
	}()

	return replies, errs
}

// Exchange sends every request while draining replies, calling fn once per
// reply in arrival order. It returns after len(reqs) replies or on the first
// failure. The server answers frames one by one, so sending everything before
// reading would stall once both socket buffers fill.
func (c *Client) Exchange(ctx context.Context, reqs []Request, fn func(Reply) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	replies, errs := c.Read(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for _, req := range reqs {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := c.Send(req); err != nil {
				return err
			}
		}
		return nil
	})
	g.Go(func() error {
		for received := 0; received < len(reqs); {
			select {
			case r, ok := <-replies:
				if !ok {
					return fmt.Errorf("stream closed after %d of %d replies", received, len(reqs))
				}
				received++
				if err := fn(r); err != nil {
					return err
				}
			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				return err
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	return g.Wait()
}

// Close sends a close frame and closes the connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	c.mu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	c.mu.Unlock()
	return c.conn.Close()
}
