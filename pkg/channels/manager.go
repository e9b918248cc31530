package channels

import (
	"context"
	"fmt"
	"sync"

	"github.com/zhaopengme/botbridge/pkg/bus"
	"github.com/zhaopengme/botbridge/pkg/logger"
)

// Manager owns the channel set: startup, shutdown and delivery of
// delayed replies from the bus.
type Manager struct {
	mu       sync.RWMutex
	channels map[string]Channel
	broker   bus.Broker
}

func NewManager(broker bus.Broker) *Manager {
	return &Manager{
		channels: make(map[string]Channel),
		broker:   broker,
	}
}

func (m *Manager) Register(ch Channel) {
	m.mu.Lock()
	m.channels[ch.Name()] = ch
	m.mu.Unlock()
}

func (m *Manager) GetChannel(name string) (Channel, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ch, ok := m.channels[name]
	return ch, ok
}

func (m *Manager) GetEnabledChannels() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.channels))
	for name := range m.channels {
		names = append(names, name)
	}
	return names
}

func (m *Manager) StartAll(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for name, ch := range m.channels {
		if err := ch.Start(ctx); err != nil {
			return fmt.Errorf("failed to start channel %s: %w", name, err)
		}
	}
	return nil
}

func (m *Manager) StopAll(ctx context.Context) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for name, ch := range m.channels {
		if err := ch.Stop(ctx); err != nil {
			logger.ErrorCF("channels", "Failed to stop channel", map[string]interface{}{
				"channel": name,
				"error":   err.Error(),
			})
		}
	}
}

// Run drains both bus queues until ctx is cancelled: events go to the
// handler registered for their channel, replies are delivered through
// their channel's Send.
func (m *Manager) Run(ctx context.Context) {
	go m.runEvents(ctx)

	for {
		msg, ok := m.broker.ConsumeReply(ctx)
		if !ok {
			return
		}

		ch, exists := m.GetChannel(msg.Channel)
		if !exists {
			logger.WarnCF("channels", "Reply for unknown channel", map[string]interface{}{
				"channel": msg.Channel,
			})
			continue
		}

		if err := ch.Send(ctx, msg); err != nil {
			logger.ErrorCF("channels", "Failed to deliver reply", map[string]interface{}{
				"channel": msg.Channel,
				"error":   err.Error(),
			})
		}
	}
}

func (m *Manager) runEvents(ctx context.Context) {
	for {
		msg, ok := m.broker.ConsumeEvent(ctx)
		if !ok {
			return
		}

		handler, exists := m.broker.GetHandler(msg.Channel)
		if !exists {
			logger.DebugCF("channels", "No handler for event", map[string]interface{}{
				"channel": msg.Channel,
				"kind":    msg.Kind,
			})
			continue
		}

		if err := handler(msg); err != nil {
			logger.ErrorCF("channels", "Event handler failed", map[string]interface{}{
				"channel": msg.Channel,
				"error":   err.Error(),
			})
		}
	}
}
