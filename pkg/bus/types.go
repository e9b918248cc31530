package bus

// EventMessage is the bus view of one accepted inbound conversational
// event, published by a channel after normalization.
type EventMessage struct {
	Channel        string            `json:"channel"`
	SenderID       string            `json:"sender_id"`
	ConversationID string            `json:"conversation_id"`
	Kind           string            `json:"kind"`
	Text           string            `json:"text,omitempty"`
	Payload        string            `json:"payload,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// ReplyMessage asks a channel to deliver a plain text reply outside the
// webhook request cycle (delayed send).
type ReplyMessage struct {
	Channel  string            `json:"channel"`
	SenderID string            `json:"sender_id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type EventHandler func(EventMessage) error
