// BotBridge - Bot Framework channel connector
// Hosts the HTTPS webhook endpoint and bridges activities to the
// conversational dispatcher.

package channels

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/zhaopengme/botbridge/pkg/botservice"
	"github.com/zhaopengme/botbridge/pkg/bus"
	"github.com/zhaopengme/botbridge/pkg/config"
	"github.com/zhaopengme/botbridge/pkg/logger"
)

const maxActivityBody = 1 << 20 // 1 MiB

// BotServiceChannel implements the Channel interface for the Bot
// Framework connector. Inbound activities arrive as webhook POSTs and
// are authenticated before anything is dispatched.
type BotServiceChannel struct {
	*BaseChannel
	config  config.BotServiceConfig
	service *botservice.BotService
	server  *http.Server
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewBotServiceChannel(cfg config.BotServiceConfig, broker bus.Broker, service *botservice.BotService) (*BotServiceChannel, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base := NewBaseChannel("botservice", broker, cfg.AllowFrom)

	return &BotServiceChannel{
		BaseChannel: base,
		config:      cfg,
		service:     service,
	}, nil
}

func (c *BotServiceChannel) Start(ctx context.Context) error {
	logger.InfoC("botservice", "Starting Bot Framework channel...")

	c.ctx, c.cancel = context.WithCancel(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc(c.config.WebhookPath, c.handleWebhook)
	mux.HandleFunc("/health/botservice", c.handleHealth)

	addr := fmt.Sprintf("%s:%d", c.config.WebhookHost, c.config.WebhookPort)
	c.server = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	c.setRunning(true)
	logger.InfoCF("botservice", "Bot Framework channel started", map[string]interface{}{
		"address": addr,
		"path":    c.config.WebhookPath,
	})

	go func() {
		if err := c.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.ErrorCF("botservice", "HTTP server error", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	return nil
}

func (c *BotServiceChannel) Stop(ctx context.Context) error {
	logger.InfoC("botservice", "Stopping Bot Framework channel...")

	if c.cancel != nil {
		c.cancel()
	}

	if c.server != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		c.server.Shutdown(shutdownCtx)
	}

	c.setRunning(false)
	logger.InfoC("botservice", "Bot Framework channel stopped")
	return nil
}

// Send delivers a delayed plain-text reply, addressed by the last
// stored inbound activity of the sender.
func (c *BotServiceChannel) Send(ctx context.Context, msg bus.ReplyMessage) error {
	if !c.IsRunning() {
		return fmt.Errorf("botservice channel not running")
	}

	channelKey := msg.Metadata["channel_id"]
	if channelKey == "" {
		return fmt.Errorf("reply is missing channel_id metadata")
	}

	return c.service.SendMessage(ctx, msg.SenderID, channelKey, botservice.TextPayload{Text: msg.Text})
}

func (c *BotServiceChannel) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxActivityBody))
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}

	var activity botservice.Activity
	if err := json.Unmarshal(body, &activity); err != nil {
		logger.WarnCF("botservice", "Undecodable activity", map[string]interface{}{
			"error": err.Error(),
		})
		http.Error(w, "Invalid activity", http.StatusBadRequest)
		return
	}

	if c.skipAuthentication(&activity) {
		logger.WarnC("botservice", "Skipping webhook authentication for emulator activity")
	} else if err := c.service.VerifyRequest(r.Context(), &activity, r.Header.Get("Authorization")); err != nil {
		c.writeAuthError(w, err)
		return
	}

	if activity.From.ID != "" && !c.IsAllowed(activity.From.ID) {
		logger.DebugCF("botservice", "Activity rejected by allowlist", map[string]interface{}{
			"sender_id": activity.From.ID,
		})
		w.WriteHeader(http.StatusOK)
		return
	}

	event, err := c.service.ProcessEvent(r.Context(), &activity)
	if err != nil {
		logger.ErrorCF("botservice", "Failed to process activity", map[string]interface{}{
			"error":   err.Error(),
			"type":    activity.Type,
			"channel": activity.ChannelID,
		})
		http.Error(w, "Failed to process activity", http.StatusInternalServerError)
		return
	}

	if event != nil {
		c.PublishEvent(eventMessage(event, &activity))
	}

	w.WriteHeader(http.StatusOK)
}

// skipAuthentication allows unauthenticated emulator traffic when the
// operator explicitly opted in. Test and staging only; production
// channels always verify.
func (c *BotServiceChannel) skipAuthentication(activity *botservice.Activity) bool {
	return c.config.AllowInsecureEmulator && activity.ChannelID == botservice.ChannelEmulator
}

func (c *BotServiceChannel) writeAuthError(w http.ResponseWriter, err error) {
	var unauthorized *botservice.UnauthorizedError
	if errors.As(err, &unauthorized) {
		logger.WarnCF("botservice", "Webhook authentication failed", map[string]interface{}{
			"reason": unauthorized.Reason,
		})
		http.Error(w, unauthorized.Error(), http.StatusUnauthorized)
		return
	}

	// Discovery or JWKS could not be reached; not the caller's fault.
	logger.ErrorCF("botservice", "Auth provider unavailable", map[string]interface{}{
		"error": err.Error(),
	})
	http.Error(w, "Authentication temporarily unavailable", http.StatusBadGateway)
}

func (c *BotServiceChannel) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"running": c.IsRunning(),
	})
}

// eventMessage projects a normalized event onto the bus for observers
// and the delayed-send path.
func eventMessage(event botservice.NormalizedEvent, activity *botservice.Activity) bus.EventMessage {
	msg := bus.EventMessage{
		SenderID:       activity.From.ID,
		ConversationID: activity.Conversation.ID,
		Kind:           event.Kind(),
		Metadata: map[string]string{
			"channel_id":  activity.ChannelID,
			"service_url": activity.ServiceURL,
		},
	}

	switch e := event.(type) {
	case botservice.TextEvent:
		msg.Text = e.Text
	case botservice.QuickReplyEvent:
		msg.Text = e.Text
		msg.Payload = e.Payload
	case botservice.PostbackEvent:
		msg.Payload = e.Action
	case botservice.WelcomeEvent:
		msg.Payload = e.Action
	}

	return msg
}
