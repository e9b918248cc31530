package botservice

import (
	"encoding/json"
	"time"
)

// Event kinds.
const (
	EventText           = "text"
	EventQuickReply     = "quick_reply"
	EventPostback       = "postback"
	EventWelcome        = "welcome"
	EventRawPassthrough = "raw_passthrough"
)

// NormalizedEvent is one user action extracted from an inbound
// activity. Implementations reference the originating activity for the
// duration of a single dispatch; they never own it.
type NormalizedEvent interface {
	Kind() string
	ConversationID() string
	Source() *Activity
}

type eventBase struct {
	activity  *Activity
	timestamp time.Time
}

func (e eventBase) ConversationID() string { return e.activity.Conversation.ID }
func (e eventBase) Source() *Activity      { return e.activity }
func (e eventBase) Timestamp() time.Time   { return e.timestamp }

// EventAttachment is a media or location item merged into a TextEvent.
type EventAttachment struct {
	Type        string
	URL         string
	Coordinates *GeoCoordinates
}

// TextEvent is a plain user utterance, possibly with attachments.
type TextEvent struct {
	eventBase
	Text        string
	Attachments []EventAttachment
}

func (TextEvent) Kind() string { return EventText }

// QuickReplyEvent is a tapped quick reply: display text plus the
// machine payload behind it.
type QuickReplyEvent struct {
	eventBase
	Text    string
	Payload string
}

func (QuickReplyEvent) Kind() string { return EventQuickReply }

// PostbackEvent is a structured action replayed through an "event"
// activity.
type PostbackEvent struct {
	eventBase
	Action string
	Data   json.RawMessage
}

func (PostbackEvent) Kind() string { return EventPostback }

// WelcomeEvent fires when the bot joins a conversation.
type WelcomeEvent struct {
	eventBase
	Action string
}

func (WelcomeEvent) Kind() string { return EventWelcome }

// RawPassthroughEvent carries channel data already in the target's
// native format; no transformation is needed or attempted.
type RawPassthroughEvent struct {
	eventBase
	ChannelData json.RawMessage
}

func (RawPassthroughEvent) Kind() string { return EventRawPassthrough }
