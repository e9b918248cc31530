package botservice

import (
	"strings"
	"sync"
)

// DriftGuard corrects conversation-id drift: when the transport restarts
// a conversation under a new id, the first plain text of the new
// conversation is matched against the startup quick replies and, on a
// match, replayed as the quick reply it answers.
type DriftGuard struct {
	mu      sync.RWMutex
	replies []QuickReply
}

func NewDriftGuard() *DriftGuard {
	return &DriftGuard{}
}

// SetStartupReplies registers the quick replies the welcome action
// offers. Called by the dispatcher owner at startup or on rebuild.
func (g *DriftGuard) SetStartupReplies(replies []QuickReply) {
	g.mu.Lock()
	g.replies = append([]QuickReply(nil), replies...)
	g.mu.Unlock()
}

// Correct returns the event to dispatch. last is the previously stored
// inbound activity for the same sender and channel, nil when unknown.
func (g *DriftGuard) Correct(event NormalizedEvent, last *Activity) NormalizedEvent {
	text, ok := event.(TextEvent)
	if !ok {
		return event
	}
	if last == nil || last.Conversation.ID == "" || last.Conversation.ID == event.ConversationID() {
		return event
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, qr := range g.replies {
		if strings.EqualFold(strings.TrimSpace(qr.Title), strings.TrimSpace(text.Text)) {
			return QuickReplyEvent{
				eventBase: text.eventBase,
				Text:      text.Text,
				Payload:   qr.Payload,
			}
		}
	}
	return event
}
