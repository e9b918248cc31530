// BotBridge - Bot Framework channel connector
// License: MIT

package botservice

import (
	"encoding/json"
	"time"
)

// Activity types on the Bot Framework wire.
const (
	ActivityMessage            = "message"
	ActivityConversationUpdate = "conversationUpdate"
	ActivityEvent              = "event"
	ActivityTyping             = "typing"
)

// ChannelEmulator identifies the Bot Framework emulator. Activities from
// this channel validate against the emulator trust domain and replies to
// it carry no bearer token.
const ChannelEmulator = "emulator"

// ChannelFacebook marks activities relayed from Messenger; payloads for
// it pass through as native channel data without transformation.
const ChannelFacebook = "facebook"

type ChannelAccount struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	Role string `json:"role,omitempty"`
}

type ConversationAccount struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name,omitempty"`
	IsGroup bool   `json:"isGroup,omitempty"`
}

type GeoCoordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Entity carries typed metadata attached to an activity. Only "Place"
// entities are interpreted here.
type Entity struct {
	Type string          `json:"type"`
	Geo  *GeoCoordinates `json:"geo,omitempty"`
}

type Attachment struct {
	ContentType string          `json:"contentType,omitempty"`
	ContentURL  string          `json:"contentUrl,omitempty"`
	Content     json.RawMessage `json:"content,omitempty"`
	Name        string          `json:"name,omitempty"`
}

// ActivityValue is the polymorphic "value" field: quick replies carry a
// payload, postBack events carry an action plus optional data.
type ActivityValue struct {
	Payload string          `json:"payload,omitempty"`
	Action  string          `json:"action,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Activity is the inbound wire envelope. Immutable once received.
type Activity struct {
	ID           string              `json:"id,omitempty"`
	Type         string              `json:"type"`
	Name         string              `json:"name,omitempty"`
	Timestamp    time.Time           `json:"timestamp,omitzero"`
	ChannelID    string              `json:"channelId"`
	ServiceURL   string              `json:"serviceUrl,omitempty"`
	From         ChannelAccount      `json:"from"`
	Recipient    ChannelAccount      `json:"recipient"`
	Conversation ConversationAccount `json:"conversation"`
	ReplyToID    string              `json:"replyToId,omitempty"`
	Locale       string              `json:"locale,omitempty"`
	Text         string              `json:"text,omitempty"`
	Value        *ActivityValue      `json:"value,omitempty"`
	Attachments  []Attachment        `json:"attachments,omitempty"`
	Entities     []Entity            `json:"entities,omitempty"`
	MembersAdded []ChannelAccount    `json:"membersAdded,omitempty"`
	ChannelData  json.RawMessage     `json:"channelData,omitempty"`
}

// WireActivity is the outbound reply envelope. Create once, send once.
type WireActivity struct {
	Type             string               `json:"type"`
	From             *ChannelAccount      `json:"from,omitempty"`
	Recipient        *ChannelAccount      `json:"recipient,omitempty"`
	Conversation     *ConversationAccount `json:"conversation,omitempty"`
	ReplyToID        string               `json:"replyToId,omitempty"`
	Name             string               `json:"name,omitempty"`
	Text             string               `json:"text,omitempty"`
	AttachmentLayout string               `json:"attachmentLayout,omitempty"`
	Attachments      []WireAttachment     `json:"attachments,omitempty"`
	SuggestedActions *SuggestedActions    `json:"suggestedActions,omitempty"`
	ChannelData      json.RawMessage      `json:"channelData,omitempty"`
	Value            json.RawMessage      `json:"value,omitempty"`
}

type WireAttachment struct {
	ContentType string      `json:"contentType"`
	ContentURL  string      `json:"contentUrl,omitempty"`
	Content     interface{} `json:"content,omitempty"`
}

type SuggestedActions struct {
	To      []string     `json:"to"`
	Actions []CardAction `json:"actions"`
}

// CardAction is a button on a hero card or a suggested action.
type CardAction struct {
	Type  string      `json:"type"`
	Title string      `json:"title,omitempty"`
	Value interface{} `json:"value"`
}

// Card action types.
const (
	ActionOpenURL  = "openUrl"
	ActionPostBack = "postBack"
	ActionIMBack   = "imBack"
)

// Attachment content types.
const (
	ContentTypeHeroCard     = "application/vnd.microsoft.card.hero"
	ContentTypeAdaptiveCard = "application/vnd.microsoft.card.adaptive"
)

type HeroCard struct {
	Title    string       `json:"title,omitempty"`
	Subtitle string       `json:"subtitle,omitempty"`
	Text     string       `json:"text,omitempty"`
	Images   []CardImage  `json:"images,omitempty"`
	Buttons  []CardAction `json:"buttons,omitempty"`
}

type CardImage struct {
	URL string      `json:"url"`
	Tap *CardAction `json:"tap,omitempty"`
}
