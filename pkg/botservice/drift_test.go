package botservice

import "testing"

func driftEvent(convID, text string) TextEvent {
	activity := &Activity{
		Type:         ActivityMessage,
		ChannelID:    "webchat",
		From:         ChannelAccount{ID: "user-1"},
		Conversation: ConversationAccount{ID: convID},
		Text:         text,
	}
	return TextEvent{eventBase: eventBase{activity: activity}, Text: text}
}

func TestDriftCorrectRewritesMatchingText(t *testing.T) {
	g := NewDriftGuard()
	g.SetStartupReplies([]QuickReply{
		{Title: "Help", Payload: "/help"},
		{Title: "Channels", Payload: "/channels"},
	})

	last := &Activity{Conversation: ConversationAccount{ID: "conv-old"}}
	event := g.Correct(driftEvent("conv-new", "  help "), last)

	qr, ok := event.(QuickReplyEvent)
	if !ok {
		t.Fatalf("Correct() = %T, want QuickReplyEvent", event)
	}
	if qr.Payload != "/help" {
		t.Errorf("Payload = %q, want /help", qr.Payload)
	}
	if qr.ConversationID() != "conv-new" {
		t.Errorf("ConversationID = %q, the new conversation id must win", qr.ConversationID())
	}
}

func TestDriftCorrectPassthrough(t *testing.T) {
	g := NewDriftGuard()
	g.SetStartupReplies([]QuickReply{{Title: "Help", Payload: "/help"}})

	tests := []struct {
		name  string
		event NormalizedEvent
		last  *Activity
	}{
		{
			name:  "no stored activity",
			event: driftEvent("conv-new", "Help"),
			last:  nil,
		},
		{
			name:  "same conversation",
			event: driftEvent("conv-1", "Help"),
			last:  &Activity{Conversation: ConversationAccount{ID: "conv-1"}},
		},
		{
			name:  "text matches nothing",
			event: driftEvent("conv-new", "unrelated"),
			last:  &Activity{Conversation: ConversationAccount{ID: "conv-old"}},
		},
		{
			name:  "not a text event",
			event: QuickReplyEvent{eventBase: driftEvent("conv-new", "Help").eventBase, Text: "Help", Payload: "x"},
			last:  &Activity{Conversation: ConversationAccount{ID: "conv-old"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.Correct(tt.event, tt.last)
			if got.Kind() != tt.event.Kind() {
				t.Errorf("Correct() changed kind %q -> %q", tt.event.Kind(), got.Kind())
			}
		})
	}
}

func TestDriftCorrectWithoutReplies(t *testing.T) {
	g := NewDriftGuard()
	last := &Activity{Conversation: ConversationAccount{ID: "conv-old"}}

	event := g.Correct(driftEvent("conv-new", "Help"), last)
	if _, ok := event.(TextEvent); !ok {
		t.Errorf("Correct() = %T, want unchanged TextEvent", event)
	}
}
