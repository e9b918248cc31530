package botservice

import (
	"regexp"
	"strings"

	"github.com/zhaopengme/botbridge/pkg/logger"
)

// MIME top-level tokens mapped to attachment kinds; everything else is
// a generic file.
var knownAttachmentTypes = map[string]bool{
	"image": true,
	"audio": true,
	"video": true,
}

var (
	htmlTagPattern    = regexp.MustCompile(`<[^>]*>`)
	contentTypeToken  = regexp.MustCompile(`^([a-z0-9-*+]+)/[a-z0-9-*+.]+$`)
	teamsChannelToken = "msteams"
)

// Normalizer converts inbound wire activities into normalized
// conversational events, or decides to drop them.
type Normalizer struct {
	welcomeAction string
	keepHTML      bool
}

func NewNormalizer(welcomeAction string, keepHTML bool) *Normalizer {
	return &Normalizer{welcomeAction: welcomeAction, keepHTML: keepHTML}
}

// Normalize applies the classification rules in priority order and
// returns nil when the activity deserves no dispatch (typing
// indicators, read receipts, unknown types).
func (n *Normalizer) Normalize(activity *Activity) NormalizedEvent {
	base := eventBase{activity: activity, timestamp: activity.Timestamp}

	if activity.ChannelID == ChannelFacebook && len(activity.ChannelData) > 0 {
		return RawPassthroughEvent{eventBase: base, ChannelData: activity.ChannelData}
	}

	switch activity.Type {
	case ActivityMessage:
		if activity.Value != nil && activity.Value.Payload != "" {
			return QuickReplyEvent{eventBase: base, Text: activity.Text, Payload: activity.Value.Payload}
		}
		if activity.Text == "" && len(activity.Attachments) == 0 && len(activity.Entities) == 0 {
			return nil
		}
		text := activity.Text
		if !n.keepHTML {
			text = stripHTML(text)
		}
		return TextEvent{
			eventBase:   base,
			Text:        text,
			Attachments: parseAttachments(activity),
		}

	case ActivityConversationUpdate:
		if n.welcomeAction == "" || len(activity.MembersAdded) == 0 {
			return nil
		}
		if !welcomesBot(activity) {
			return nil
		}
		return WelcomeEvent{eventBase: base, Action: n.welcomeAction}

	case ActivityEvent:
		if activity.Name == "postBack" && activity.Value != nil && activity.Value.Action != "" {
			return PostbackEvent{eventBase: base, Action: activity.Value.Action, Data: activity.Value.Data}
		}
	}

	return nil
}

// welcomesBot reports whether the membership change added the bot
// itself. Teams-style channels report the bot as the sender instead of
// the recipient.
func welcomesBot(activity *Activity) bool {
	botID := activity.Recipient.ID
	if strings.HasPrefix(activity.ChannelID, teamsChannelToken) {
		botID = activity.From.ID
	}
	for _, member := range activity.MembersAdded {
		if member.ID == botID {
			return true
		}
	}
	return false
}

// parseAttachments extracts media attachments and Place entities. A
// malformed attachment is dropped with a warning and does not block the
// rest.
func parseAttachments(activity *Activity) []EventAttachment {
	var out []EventAttachment

	for _, at := range activity.Attachments {
		kind := "file"
		if m := contentTypeToken.FindStringSubmatch(strings.ToLower(at.ContentType)); m != nil && knownAttachmentTypes[m[1]] {
			kind = m[1]
		}
		if at.ContentURL == "" {
			logger.WarnCF("botservice", "Missing content url at attachment", map[string]interface{}{
				"content_type": at.ContentType,
			})
			continue
		}
		out = append(out, EventAttachment{Type: kind, URL: at.ContentURL})
	}

	for _, ent := range activity.Entities {
		if ent.Type != "Place" || ent.Geo == nil {
			continue
		}
		geo := *ent.Geo
		out = append(out, EventAttachment{Type: "location", Coordinates: &geo})
	}

	return out
}

// stripHTML removes markup tags from inbound text. Stripping is
// idempotent: stripping twice equals stripping once.
func stripHTML(text string) string {
	if !strings.Contains(text, "<") {
		return text
	}
	return strings.TrimSpace(htmlTagPattern.ReplaceAllString(text, ""))
}
