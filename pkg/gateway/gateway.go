package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/zhaopengme/botbridge/pkg/botservice"
	"github.com/zhaopengme/botbridge/pkg/bus"
	"github.com/zhaopengme/botbridge/pkg/channels"
)

// CommandGateway is the built-in conversational engine: it answers
// slash commands and echoes everything else. It exists so the bridge
// runs end to end out of the box; production deployments swap in their
// own Dispatcher.
type CommandGateway struct {
	bus            bus.Broker
	channelManager *channels.Manager
	startupReplies []botservice.QuickReply
}

func NewCommandGateway(b bus.Broker, cm *channels.Manager) *CommandGateway {
	return &CommandGateway{
		bus:            b,
		channelManager: cm,
		startupReplies: []botservice.QuickReply{
			{Title: "Help", Payload: "/help"},
			{Title: "Channels", Payload: "/channels"},
		},
	}
}

// StartupReplies returns the quick replies offered by the welcome
// message. Register these with the drift guard.
func (g *CommandGateway) StartupReplies() []botservice.QuickReply {
	return append([]botservice.QuickReply(nil), g.startupReplies...)
}

// HandleBusEvent consumes accepted inbound events from the bus. A
// welcome is followed up with a delayed hint through the reply queue,
// exercising the out-of-cycle send path.
func (g *CommandGateway) HandleBusEvent(msg bus.EventMessage) error {
	if g.bus == nil || msg.Kind != botservice.EventWelcome {
		return nil
	}

	g.bus.PublishReply(bus.ReplyMessage{
		Channel:  msg.Channel,
		SenderID: msg.SenderID,
		Text:     "Tip: type /help anytime to see what I can do.",
		Metadata: map[string]string{"channel_id": msg.Metadata["channel_id"]},
	})
	return nil
}

func (g *CommandGateway) Dispatch(ctx context.Context, event botservice.NormalizedEvent, channelKey string, sender *botservice.Sender) ([]botservice.Reply, error) {
	switch e := event.(type) {
	case botservice.WelcomeEvent:
		return g.welcome(channelKey), nil

	case botservice.QuickReplyEvent:
		return g.respond(g.handleCommand(e.Payload, channelKey), channelKey), nil

	case botservice.PostbackEvent:
		return g.respond(g.handleCommand(e.Action, channelKey), channelKey), nil

	case botservice.TextEvent:
		if strings.HasPrefix(strings.TrimSpace(e.Text), "/") {
			if response, handled := g.handleTextCommand(e.Text, channelKey); handled {
				return g.respond(response, channelKey), nil
			}
		}
		return []botservice.Reply{{
			Payload:    botservice.TextPayload{Text: e.Text},
			ChannelKey: channelKey,
		}}, nil

	case botservice.RawPassthroughEvent:
		// Passthrough traffic carries no normalized content to answer.
		return nil, nil
	}

	return nil, nil
}

func (g *CommandGateway) welcome(channelKey string) []botservice.Reply {
	return []botservice.Reply{{
		Payload: botservice.TextPayload{
			Text:         "Hello! I am BotBridge 🌉",
			QuickReplies: g.StartupReplies(),
		},
		ChannelKey: channelKey,
	}}
}

func (g *CommandGateway) respond(text, channelKey string) []botservice.Reply {
	if text == "" {
		return nil
	}
	return []botservice.Reply{{
		Payload:    botservice.TextPayload{Text: text},
		ChannelKey: channelKey,
	}}
}

func (g *CommandGateway) handleTextCommand(text, channelKey string) (string, bool) {
	content := strings.TrimSpace(text)
	parts := strings.Fields(content)
	if len(parts) == 0 {
		return "", false
	}

	response := g.handleCommand(parts[0], channelKey)
	return response, response != ""
}

func (g *CommandGateway) handleCommand(cmd, channelKey string) string {
	switch cmd {
	case "/start":
		return "Hello! I am BotBridge 🌉"

	case "/help":
		return `/start - Start the bot
/help - Show this help message
/channels - List enabled channels`

	case "/channels":
		if g.channelManager == nil {
			return "Channel manager not initialized"
		}
		enabled := g.channelManager.GetEnabledChannels()
		if len(enabled) == 0 {
			return "No channels enabled"
		}
		return fmt.Sprintf("Enabled channels: %s", strings.Join(enabled, ", "))
	}

	return ""
}
