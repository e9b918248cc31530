package bus

import (
	"context"
	"sync"

	"github.com/zhaopengme/botbridge/pkg/logger"
)

type MessageBus struct {
	events   chan EventMessage
	replies  chan ReplyMessage
	handlers map[string]EventHandler
	closed   bool
	mu       sync.RWMutex
}

func NewMessageBus() *MessageBus {
	return &MessageBus{
		events:   make(chan EventMessage, 100),
		replies:  make(chan ReplyMessage, 100),
		handlers: make(map[string]EventHandler),
	}
}

// PublishEvent never blocks: a full queue drops the message with a
// warning so a stalled consumer cannot wedge the webhook handler.
func (mb *MessageBus) PublishEvent(msg EventMessage) {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	if mb.closed {
		return
	}
	select {
	case mb.events <- msg:
	default:
		logger.WarnCF("bus", "Event queue full, dropping message", map[string]interface{}{
			"channel": msg.Channel,
			"kind":    msg.Kind,
		})
	}
}

func (mb *MessageBus) ConsumeEvent(ctx context.Context) (EventMessage, bool) {
	select {
	case msg, ok := <-mb.events:
		if !ok {
			return EventMessage{}, false
		}
		return msg, true
	case <-ctx.Done():
		return EventMessage{}, false
	}
}

func (mb *MessageBus) PublishReply(msg ReplyMessage) {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	if mb.closed {
		return
	}
	select {
	case mb.replies <- msg:
	default:
		logger.WarnCF("bus", "Reply queue full, dropping message", map[string]interface{}{
			"channel": msg.Channel,
		})
	}
}

func (mb *MessageBus) ConsumeReply(ctx context.Context) (ReplyMessage, bool) {
	select {
	case msg, ok := <-mb.replies:
		if !ok {
			return ReplyMessage{}, false
		}
		return msg, true
	case <-ctx.Done():
		return ReplyMessage{}, false
	}
}

func (mb *MessageBus) RegisterHandler(channel string, handler EventHandler) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.handlers[channel] = handler
}

func (mb *MessageBus) GetHandler(channel string) (EventHandler, bool) {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	handler, ok := mb.handlers[channel]
	return handler, ok
}

func (mb *MessageBus) Close() {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if mb.closed {
		return
	}
	mb.closed = true
	close(mb.events)
	close(mb.replies)
}
