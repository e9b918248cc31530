package channels

import (
	"context"
	"sync/atomic"

	"github.com/zhaopengme/botbridge/pkg/bus"
)

// Channel is one transport the bridge listens and replies on.
type Channel interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Send(ctx context.Context, msg bus.ReplyMessage) error
}

// BaseChannel carries the running flag, sender allowlist and bus
// publishing shared by channel implementations.
type BaseChannel struct {
	name      string
	bus       bus.Broker
	allowFrom map[string]bool
	running   atomic.Bool
}

func NewBaseChannel(name string, broker bus.Broker, allowFrom []string) *BaseChannel {
	allowed := make(map[string]bool, len(allowFrom))
	for _, id := range allowFrom {
		allowed[id] = true
	}
	return &BaseChannel{
		name:      name,
		bus:       broker,
		allowFrom: allowed,
	}
}

func (c *BaseChannel) Name() string { return c.name }

// IsAllowed reports whether a sender passes the allowlist. An empty
// allowlist admits everyone.
func (c *BaseChannel) IsAllowed(senderID string) bool {
	if len(c.allowFrom) == 0 {
		return true
	}
	return c.allowFrom[senderID]
}

func (c *BaseChannel) IsRunning() bool { return c.running.Load() }

func (c *BaseChannel) setRunning(v bool) { c.running.Store(v) }

// PublishEvent announces an accepted inbound event on the bus.
func (c *BaseChannel) PublishEvent(msg bus.EventMessage) {
	if c.bus == nil {
		return
	}
	msg.Channel = c.name
	c.bus.PublishEvent(msg)
}
