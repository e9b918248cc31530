package botservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/zhaopengme/botbridge/pkg/logger"
)

// Sender delivers transformed replies for one inbound activity. Replies
// are issued in the order Send is called; the adapter never reorders
// responses.
type Sender struct {
	token       string
	userID      string
	incoming    *Activity
	transformer *Transformer
	client      *http.Client
}

// NewSender builds a sender replying to incoming. token may be empty
// (emulator domain); no Authorization header is attached then.
func NewSender(incoming *Activity, token string, transformer *Transformer, client *http.Client) *Sender {
	if client == nil {
		client = http.DefaultClient
	}
	return &Sender{
		token:       token,
		userID:      incoming.From.ID,
		incoming:    incoming,
		transformer: transformer,
		client:      client,
	}
}

// UserID returns the id of the user this sender replies to.
func (s *Sender) UserID() string { return s.userID }

// Send transforms payload and posts it to the conversation. A payload
// that produces no output is silently skipped. Network and HTTP
// failures propagate to the caller; no retry happens here.
func (s *Sender) Send(ctx context.Context, payload Payload) error {
	body := s.transformer.Transform(payload, s.incoming)
	if body == nil {
		return nil
	}
	return s.post(ctx, body)
}

func (s *Sender) post(ctx context.Context, body *WireActivity) error {
	// Reply as the original recipient, to the original sender.
	from := s.incoming.Recipient
	recipient := s.incoming.From
	conversation := s.incoming.Conversation
	body.From = &from
	body.Recipient = &recipient
	body.Conversation = &conversation

	endpoint := strings.TrimRight(s.incoming.ServiceURL, "/") +
		"/v3/conversations/" + url.PathEscape(conversation.ID) + "/activities"
	if s.incoming.ID != "" {
		// Thread the reply onto the activity that triggered it.
		body.ReplyToID = s.incoming.ID
		endpoint += "/" + url.PathEscape(s.incoming.ID)
	}

	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode reply activity: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	deliveryID := uuid.NewString()
	logger.DebugCF("botservice", "Posting reply activity", map[string]interface{}{
		"delivery_id":  deliveryID,
		"conversation": conversation.ID,
		"type":         body.Type,
	})

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver activity: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		logger.ErrorCF("botservice", "Reply delivery rejected", map[string]interface{}{
			"delivery_id": deliveryID,
			"status":      resp.StatusCode,
		})
		return fmt.Errorf("activity delivery failed: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	return nil
}
