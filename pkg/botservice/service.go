// BotBridge - Bot Framework channel connector
// License: MIT

package botservice

import (
	"context"
	"fmt"
	"net/http"

	"github.com/zhaopengme/botbridge/pkg/config"
	"github.com/zhaopengme/botbridge/pkg/logger"
)

// Reply is one outbound payload the dispatcher wants delivered.
type Reply struct {
	Payload    Payload
	ChannelKey string
}

// Dispatcher is the conversational engine consuming normalized events.
// Opaque to the connector; called once per accepted inbound event.
type Dispatcher interface {
	Dispatch(ctx context.Context, event NormalizedEvent, channelKey string, sender *Sender) ([]Reply, error)
}

// BotService orchestrates webhook authentication, event normalization,
// dispatch and reply transformation for the Bot Framework channel.
type BotService struct {
	cfg         config.BotServiceConfig
	dispatcher  Dispatcher
	state       StateStorage
	tokens      *TokenCache
	keys        *KeyStore
	validator   *RequestValidator
	normalizer  *Normalizer
	transformer *Transformer
	drift       *DriftGuard
	client      *http.Client
}

type Option func(*BotService)

// WithHTTPClient routes discovery, JWKS and reply delivery through
// client. Tests point this at httptest servers.
func WithHTTPClient(client *http.Client) Option {
	return func(b *BotService) { b.client = client }
}

// WithStateStorage replaces the in-memory last-activity store.
func WithStateStorage(state StateStorage) Option {
	return func(b *BotService) { b.state = state }
}

func New(cfg config.BotServiceConfig, dispatcher Dispatcher, opts ...Option) (*BotService, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b := &BotService{
		cfg:         cfg,
		dispatcher:  dispatcher,
		state:       NewMemoryStateStorage(),
		normalizer:  NewNormalizer(cfg.WelcomeAction, cfg.KeepHTML),
		transformer: NewTransformer(cfg.NoSuggestedActions),
		drift:       NewDriftGuard(),
	}
	for _, opt := range opts {
		opt(b)
	}

	keys, err := NewKeyStore(b.client, cfg.OpenIDURL, cfg.EmulatorOpenIDURL, cfg.OverridePublicKey)
	if err != nil {
		return nil, err
	}
	b.keys = keys
	b.validator = NewRequestValidator(keys, cfg.AppID)

	b.tokens = NewTokenCache(cfg)
	if b.client != nil {
		b.tokens.SetHTTPClient(b.client)
	}

	return b, nil
}

// DriftGuard exposes the drift correction hook so the dispatcher owner
// can register startup quick replies.
func (b *BotService) DriftGuard() *DriftGuard { return b.drift }

// KeyStore exposes cache invalidation for operational recovery.
func (b *BotService) KeyStore() *KeyStore { return b.keys }

// TokenCache exposes cache invalidation for operational recovery.
func (b *BotService) TokenCache() *TokenCache { return b.tokens }

// VerifyRequest authenticates one inbound webhook call. Callers must
// run this before ProcessEvent; skipping is the caller's decision and
// only defensible for the emulator domain.
func (b *BotService) VerifyRequest(ctx context.Context, activity *Activity, authorization string) error {
	return b.validator.Verify(ctx, activity, authorization)
}

// ProcessEvent normalizes an authenticated activity, dispatches it and
// delivers the resulting replies in order. Activities the normalizer
// cannot classify are dropped with no reply and no error; the returned
// event is nil then.
func (b *BotService) ProcessEvent(ctx context.Context, activity *Activity) (NormalizedEvent, error) {
	event := b.normalizer.Normalize(activity)
	if event == nil {
		logger.DebugCF("botservice", "Activity ignored", map[string]interface{}{
			"type":    activity.Type,
			"channel": activity.ChannelID,
		})
		return nil, nil
	}

	last, err := b.state.LastActivity(ctx, activity.From.ID, activity.ChannelID)
	if err != nil {
		logger.WarnCF("botservice", "Failed to load last activity", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		event = b.drift.Correct(event, last)
	}

	sender, err := b.createSender(ctx, activity)
	if err != nil {
		return nil, err
	}

	replies, err := b.dispatcher.Dispatch(ctx, event, activity.ChannelID, sender)
	if err != nil {
		return nil, fmt.Errorf("dispatch failed: %w", err)
	}

	for _, reply := range replies {
		if err := sender.Send(ctx, reply.Payload); err != nil {
			return nil, err
		}
	}

	if err := b.state.StoreLastActivity(ctx, activity.From.ID, activity.ChannelID, activity); err != nil {
		logger.WarnCF("botservice", "Failed to store last activity", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return event, nil
}

// SendMessage delivers a payload outside the webhook request cycle,
// replying to the last stored inbound activity of the sender/channel
// pair.
func (b *BotService) SendMessage(ctx context.Context, senderID, channelKey string, payload Payload) error {
	last, err := b.state.LastActivity(ctx, senderID, channelKey)
	if err != nil {
		return err
	}
	if last == nil {
		return fmt.Errorf("no stored activity for sender %s on channel %s", senderID, channelKey)
	}

	sender, err := b.createSender(ctx, last)
	if err != nil {
		return err
	}
	return sender.Send(ctx, payload)
}

// createSender resolves the outbound token (never for the emulator
// domain) and binds a sender to the inbound activity.
func (b *BotService) createSender(ctx context.Context, activity *Activity) (*Sender, error) {
	token := ""
	if activity.ChannelID != ChannelEmulator {
		t, err := b.tokens.Token(ctx)
		if err != nil {
			return nil, err
		}
		token = t
	}
	return NewSender(activity, token, b.transformer, b.client), nil
}
