package botservice

import "encoding/json"

// Payload is the abstract description of one outbound response. The
// dispatcher produces payloads; the transformer turns each variant into
// a wire activity through an exhaustive match.
type Payload interface {
	payloadVariant()
}

// QuickReply is one selectable answer offered alongside a text reply.
type QuickReply struct {
	Title   string `json:"title"`
	Payload string `json:"payload,omitempty"`
}

// TextPayload is a plain text reply with optional quick replies.
type TextPayload struct {
	Text         string
	QuickReplies []QuickReply
}

// Button kinds.
const (
	ButtonWebURL   = "web_url"
	ButtonPostback = "postback"
)

// Button is an action attached to a card or template element. Unknown
// kinds are omitted from their container.
type Button struct {
	Kind    string `json:"type"`
	Title   string `json:"title,omitempty"`
	URL     string `json:"url,omitempty"`
	Payload string `json:"payload,omitempty"`
}

// Template kinds.
const (
	TemplateGeneric = "generic"
	TemplateList    = "list"
	TemplateButton  = "button"
)

// Card arrangements for structured (adaptive) elements.
const (
	LayoutVertical   = "vertical"
	LayoutHorizontal = "horizontal"
)

// TemplateElement is one card of a generic or list template.
type TemplateElement struct {
	Title            string   `json:"title,omitempty"`
	Subtitle         string   `json:"subtitle,omitempty"`
	ImageURL         string   `json:"image_url,omitempty"`
	ImageAspectRatio string   `json:"image_aspect_ratio,omitempty"`
	DefaultAction    *Button  `json:"default_action,omitempty"`
	Buttons          []Button `json:"buttons,omitempty"`
}

// TemplatePayload renders as cards: generic/list produce one card per
// element, button produces a single card carrying free text.
type TemplatePayload struct {
	Kind     string
	Text     string
	Buttons  []Button
	Elements []TemplateElement

	// Layout arranges image and text inside structured cards; empty
	// means vertical.
	Layout string
}

// Media kinds.
const (
	MediaImage = "image"
	MediaVideo = "video"
	MediaFile  = "file"
)

// MediaPayload sends a single media attachment by URL.
type MediaPayload struct {
	Kind string
	URL  string
}

// TypingPayload shows a typing indicator.
type TypingPayload struct{}

// HandoverPayload transfers conversation ownership to another
// application. Control-plane signal, not a user-visible message.
type HandoverPayload struct {
	TargetAppID string
	Metadata    string
}

// RawPayload replays an already-serialized structured action as opaque
// channel data.
type RawPayload struct {
	Data json.RawMessage
}

func (TextPayload) payloadVariant()     {}
func (TemplatePayload) payloadVariant() {}
func (MediaPayload) payloadVariant()    {}
func (TypingPayload) payloadVariant()   {}
func (HandoverPayload) payloadVariant() {}
func (RawPayload) payloadVariant()      {}
