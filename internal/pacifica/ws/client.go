package ws

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

// Client maintains a subscription to the Pacifica price stream and caches the
// latest mid per symbol. The cache is advisory: cycles trade off REST
// snapshots, and the stream only flags staleness between them.
type Client struct {
	url            string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	log            *zap.Logger

	mu    sync.Mutex
	conn  *websocket.Conn
	cache map[string]Quote
}

// Quote is the last streamed mid for one symbol.
type Quote struct {
	Mid      float64
	Received time.Time
}

func New(url string, reconnectDelay, pingInterval time.Duration, log *zap.Logger) *Client {
	return &Client{
		url:            url,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		log:            log,
		cache:          make(map[string]Quote),
	}
}

// Quote returns the cached mid for symbol, if any update has arrived.
func (c *Client) Quote(symbol string) (Quote, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, ok := c.cache[symbol]
	return q, ok
}

// Fresh reports whether a quote for symbol arrived within maxAge.
func (c *Client) Fresh(symbol string, maxAge time.Duration) bool {
	q, ok := c.Quote(symbol)
	return ok && time.Since(q.Received) <= maxAge
}

// Run dials, subscribes, and consumes price updates until ctx is canceled,
// reconnecting after reconnectDelay on stream errors.
func (c *Client) Run(ctx context.Context) error {
	for {
		if err := c.connect(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Warn("pacifica ws dial failed", zap.Error(err))
		} else {
			pingCtx, cancel := context.WithCancel(ctx)
			pingDone := make(chan struct{})
			go func() {
				defer close(pingDone)
				c.pingLoop(pingCtx)
			}()
			err := c.readLoop(ctx)
			cancel()
			<-pingDone
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Warn("pacifica ws stream ended", zap.Error(err))
		}
		c.resetConn()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.reconnectDelay):
		}
	}
}

var subscribePrices = map[string]any{
	"method": "subscribe",
	"params": map[string]any{"source": "prices"},
}

func (c *Client) connect(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, c.url, nil)
	if err != nil {
		return err
	}
	if err := writeJSON(ctx, conn, subscribePrices); err != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "subscribe failed")
		return err
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	return nil
}

func (c *Client) readLoop(ctx context.Context) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return errors.New("ws not connected")
	}
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		c.handleMessage(data)
	}
}

type priceMessage struct {
	Channel string `json:"channel"`
	Data    []struct {
		Symbol string `json:"symbol"`
		Mid    string `json:"mid"`
	} `json:"data"`
}

func (c *Client) handleMessage(data []byte) {
	var msg priceMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	if msg.Channel != "prices" {
		return
	}
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, entry := range msg.Data {
		mid, err := strconv.ParseFloat(entry.Mid, 64)
		if err != nil || mid <= 0 {
			continue
		}
		c.cache[entry.Symbol] = Quote{Mid: mid, Received: now}
	}
}

func (c *Client) pingLoop(ctx context.Context) {
	c.mu.Lock()
	conn := c.conn
	interval := c.pingInterval
	c.mu.Unlock()
	if conn == nil || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := writeJSON(ctx, conn, map[string]any{"method": "ping"}); err != nil {
				return
			}
		}
	}
}

func (c *Client) resetConn() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		_ = c.conn.Close(websocket.StatusNormalClosure, "reset")
		c.conn = nil
	}
}

func writeJSON(ctx context.Context, conn *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}
