// Package realtime keeps the catalog in sync with menu and inventory changes pushed by the backend.
package realtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"foodcourt/internal/common/logger"
	"foodcourt/internal/domain"
)

type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Reconnecting
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Reconnecting:
		return "reconnecting"
	default:
		return "disconnected"
	}
}

// Transport opens one live push connection.
type Transport interface {
	Dial(ctx context.Context) (Stream, error)
}

// Stream yields frames until the connection drops or ctx is done.
type Stream interface {
	Next(ctx context.Context) (Frame, error)
	Close() error
}

// Applier receives decoded events. *catalog.Catalog satisfies it.
type Applier interface {
	Apply(ev domain.Event)
}

type Options struct {
	MaxAttempts int
	Delay       time.Duration
}

// Client runs the connection state machine. It never resyncs the catalog on its own:
// events missed while disconnected are only recovered by a full catalog fetch.
type Client struct {
	transport Transport
	applier   Applier
	opts      Options
	lg        *logger.Logger

	mu      sync.Mutex
	state   State
	onState []func(State)
}

func NewClient(t Transport, a Applier, opts Options, lg *logger.Logger) *Client {
	if lg == nil {
		lg = logger.Nop()
	}
	if opts.MaxAttempts < 0 {
		opts.MaxAttempts = 0
	}
	return &Client{transport: t, applier: a, opts: opts, lg: lg}
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// OnStateChange registers fn for every transition. Register before Run.
func (c *Client) OnStateChange(fn func(State)) {
	c.mu.Lock()
	c.onState = append(c.onState, fn)
	c.mu.Unlock()
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	if c.state == s {
		c.mu.Unlock()
		return
	}
	c.state = s
	subs := append([]func(State){}, c.onState...)
	c.mu.Unlock()
	for _, fn := range subs {
		fn(s)
	}
}

// Run connects and applies events until ctx is done or reconnection gives up.
// The first dial is followed by at most MaxAttempts retries; after a dropped
// connection at most MaxAttempts redials are made. Connection failures are
// logged and retried; they are never returned.
func (c *Client) Run(ctx context.Context) error {
	defer c.setState(Disconnected)

	c.setState(Connecting)
	attempts := 0
	everConnected := false
	for {
		if attempts > 0 {
			c.setState(Reconnecting)
			if !c.sleep(ctx) {
				return nil
			}
		}
		stream, err := c.transport.Dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.lg.Error("connect_error", err, map[string]any{"attempt": attempts})
			if attempts >= c.opts.MaxAttempts {
				c.lg.Warn("reconnect_failed", map[string]any{"attempts": attempts})
				return nil
			}
			attempts++
			continue
		}

		attempts = 0
		c.setState(Connected)
		if everConnected {
			c.lg.Info("reconnect", nil)
		} else {
			c.lg.Info("connect", nil)
		}
		everConnected = true

		err = c.consume(ctx, stream)
		_ = stream.Close()
		if ctx.Err() != nil {
			c.lg.Info("disconnect", map[string]any{"reason": "shutdown"})
			return nil
		}
		c.lg.Warn("disconnect", map[string]any{"reason": errString(err)})
		if c.opts.MaxAttempts == 0 {
			c.lg.Warn("reconnect_failed", map[string]any{"attempts": 0})
			return nil
		}
		// the redial after a drop is the first reconnection attempt
		attempts = 1
	}
}

func (c *Client) consume(ctx context.Context, s Stream) error {
	for {
		f, err := s.Next(ctx)
		if err != nil {
			return err
		}
		ev, err := Decode(f)
		if err != nil {
			if errors.Is(err, ErrUnknownEvent) {
				c.lg.Debug("event_ignored", map[string]any{"event": f.Name})
			} else {
				c.lg.Warn("event_malformed", map[string]any{"event": f.Name, "error": err.Error()})
			}
			continue
		}
		c.applier.Apply(ev)
	}
}

func (c *Client) sleep(ctx context.Context) bool {
	t := time.NewTimer(c.opts.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func errString(err error) string {
	if err == nil {
		return "stream ended"
	}
	return err.Error()
}
