// Package eventbus publishes pool lifecycle events to Redis pub/sub, for
// dashboards or other processes that want to observe lease/release/reuse
// activity without polling the introspection HTTP API. It is optional:
// callers that can't reach Redis fall back to running without it, the
// same way the rest of this stack treats Redis as a non-essential
// dependency.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Client publishes pool events to a single Redis channel. Publishes are
// handed to a bounded queue drained by a background goroutine — pool
// observers are called while pool.Pool holds its mutex, so publish must
// never block on network I/O.
type Client struct {
	rdb     *redis.Client
	channel string
	log     zerolog.Logger

	events chan Event
	done   chan struct{}
}

// New parses url (a redis:// URL) and returns a Client publishing to
// channel. It does not verify connectivity — call Ping to do that. Call
// Close to stop the background publisher goroutine.
func New(url, channel string, log zerolog.Logger) (*Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("eventbus: invalid redis url: %w", err)
	}
	c := &Client{
		rdb:     redis.NewClient(opt),
		channel: channel,
		log:     log.With().Str("component", "eventbus").Logger(),
		events:  make(chan Event, 1024),
		done:    make(chan struct{}),
	}
	go c.run()
	return c, nil
}

// Ping verifies the Redis connection is reachable within 2 seconds.
func (c *Client) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return c.rdb.Ping(ctx).Err()
}

// Event is what gets published to the channel for each lease lifecycle
// transition.
type Event struct {
	Kind  string `json:"kind"` // "lease", "release", "reuse"
	Route string `json:"route"`
	At    int64  `json:"at_unix_ms"`
}

// publish enqueues an event without blocking; if the queue is full the
// event is dropped and logged rather than risk stalling a caller that may
// be holding the pool's lock.
func (c *Client) publish(kind, route string, at time.Time) {
	ev := Event{Kind: kind, Route: route, At: at.UnixMilli()}
	select {
	case c.events <- ev:
	default:
		c.log.Warn().Str("kind", kind).Msg("eventbus queue full, dropping event")
	}
}

func (c *Client) run() {
	for {
		select {
		case <-c.done:
			return
		case ev := <-c.events:
			c.publishNow(ev)
		}
	}
}

func (c *Client) publishNow(ev Event) {
	body, err := json.Marshal(ev)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.rdb.Publish(ctx, c.channel, body).Err(); err != nil {
		c.log.Warn().Err(err).Str("kind", ev.Kind).Msg("eventbus publish failed")
	}
}

// Close stops the background publisher and releases the underlying Redis
// connection.
func (c *Client) Close() error {
	close(c.done)
	return c.rdb.Close()
}
