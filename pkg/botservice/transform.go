package botservice

import (
	"encoding/json"
	"regexp"
	"strings"
)

var urlSuffixPattern = regexp.MustCompile(`\.([a-zA-Z0-9]+)$`)

// Transformer converts abstract reply payloads into channel-specific
// wire activity bodies, selecting card and layout strategy per channel.
type Transformer struct {
	noSuggestedActions map[string]bool
}

// NewTransformer builds a transformer. noSuggestedActions lists channel
// ids whose transport cannot render suggested actions; quick replies
// become postback cards there.
func NewTransformer(noSuggestedActions []string) *Transformer {
	set := make(map[string]bool, len(noSuggestedActions))
	for _, ch := range noSuggestedActions {
		set[ch] = true
	}
	return &Transformer{noSuggestedActions: set}
}

// Transform produces the reply body for payload, or nil when nothing
// should be sent. The envelope (from/recipient/conversation/replyToId)
// is assembled by the sender.
func (t *Transformer) Transform(payload Payload, inbound *Activity) *WireActivity {
	if raw, ok := payload.(RawPayload); ok {
		return &WireActivity{Type: ActivityMessage, ChannelData: raw.Data}
	}

	// Messenger already speaks the target's native format; message-shaped
	// payloads pass through untransformed.
	if inbound.ChannelID == ChannelFacebook {
		if data := facebookChannelData(payload, inbound.From.ID); data != nil {
			return &WireActivity{Type: ActivityMessage, ChannelData: data}
		}
	}

	switch p := payload.(type) {
	case TypingPayload:
		return &WireActivity{Type: ActivityTyping}

	case HandoverPayload:
		value, _ := json.Marshal(map[string]string{
			"targetAppId": p.TargetAppID,
			"metadata":    p.Metadata,
		})
		return &WireActivity{Type: ActivityEvent, Name: "passThread", Value: value}

	case TemplatePayload:
		return t.transformTemplate(p, inbound)

	case TextPayload:
		return t.transformText(p, inbound)

	case MediaPayload:
		return transformMedia(p)
	}

	return nil
}

func (t *Transformer) transformTemplate(p TemplatePayload, inbound *Activity) *WireActivity {
	ret := &WireActivity{Type: ActivityMessage}

	switch p.Kind {
	case TemplateGeneric, TemplateList:
		if len(p.Elements) == 0 {
			return nil
		}
		if len(p.Elements) > 1 {
			if p.Kind == TemplateList {
				ret.AttachmentLayout = "list"
			} else {
				ret.AttachmentLayout = "carousel"
			}
		}
		for _, el := range p.Elements {
			if wantsAdaptiveCard(el, inbound.ChannelID) {
				ret.Attachments = append(ret.Attachments, makeAdaptiveCard(el, p.Layout))
			} else {
				ret.Attachments = append(ret.Attachments, makeHeroCard(
					el.Title, el.Subtitle, "", el.ImageURL, el.DefaultAction, el.Buttons,
				))
			}
		}
		return ret

	case TemplateButton:
		ret.Attachments = []WireAttachment{
			makeHeroCard("", "", p.Text, "", nil, p.Buttons),
		}
		return ret
	}

	return nil
}

func (t *Transformer) transformText(p TextPayload, inbound *Activity) *WireActivity {
	if p.Text == "" {
		return nil
	}

	ret := &WireActivity{Type: ActivityMessage, Text: p.Text}

	if len(p.QuickReplies) == 0 {
		return ret
	}

	if t.noSuggestedActions[inbound.ChannelID] {
		// Transport cannot render suggested actions; offer the replies
		// as a card with one postback per reply instead.
		buttons := make([]Button, 0, len(p.QuickReplies))
		for _, qr := range p.QuickReplies {
			buttons = append(buttons, Button{Kind: ButtonPostback, Title: qr.Title, Payload: qr.Payload})
		}
		ret.Text = ""
		ret.Attachments = []WireAttachment{
			makeHeroCard("", "", p.Text, "", nil, buttons),
		}
		return ret
	}

	actions := make([]CardAction, 0, len(p.QuickReplies))
	for _, qr := range p.QuickReplies {
		actions = append(actions, CardAction{Type: ActionIMBack, Title: qr.Title, Value: qr.Title})
	}
	ret.SuggestedActions = &SuggestedActions{
		To:      []string{inbound.From.ID},
		Actions: actions,
	}
	return ret
}

func transformMedia(p MediaPayload) *WireActivity {
	if p.URL == "" {
		return nil
	}

	var contentType string
	if p.Kind == MediaFile {
		contentType = "application/octet-stream"
	} else {
		suffix := ""
		if m := urlSuffixPattern.FindStringSubmatch(p.URL); m != nil {
			suffix = strings.ToLower(m[1])
		}
		if suffix == "" {
			if p.Kind == MediaImage {
				suffix = "png"
			} else {
				suffix = "mpeg"
			}
		}
		contentType = p.Kind + "/" + suffix
	}

	return &WireActivity{
		Type: ActivityMessage,
		Attachments: []WireAttachment{
			{ContentType: contentType, ContentURL: p.URL},
		},
	}
}

// makeButton converts one abstract button; unknown kinds are omitted
// from their container rather than failing the whole card.
func makeButton(btn Button) (CardAction, bool) {
	var ret CardAction
	switch btn.Kind {
	case ButtonWebURL:
		ret = CardAction{Type: ActionOpenURL, Value: btn.URL}
	case ButtonPostback:
		ret = CardAction{Type: ActionPostBack, Value: map[string]string{"payload": btn.Payload}}
	default:
		return CardAction{}, false
	}
	ret.Title = btn.Title
	return ret, true
}

func makeButtons(buttons []Button) []CardAction {
	var out []CardAction
	for _, btn := range buttons {
		if action, ok := makeButton(btn); ok {
			out = append(out, action)
		}
	}
	return out
}

func makeHeroCard(title, subtitle, text, imageURL string, defaultAction *Button, buttons []Button) WireAttachment {
	card := HeroCard{Title: title, Subtitle: subtitle, Text: text}

	if imageURL != "" {
		image := CardImage{URL: imageURL}
		if defaultAction != nil {
			if tap, ok := makeButton(*defaultAction); ok {
				image.Tap = &tap
			}
		}
		card.Images = []CardImage{image}
	}

	if len(buttons) > 0 {
		card.Buttons = makeButtons(buttons)
	}

	return WireAttachment{ContentType: ContentTypeHeroCard, Content: card}
}

// wantsAdaptiveCard decides between the simple hero card and the richer
// adaptive layout: square images cannot be expressed on a hero card,
// and teams-style channels render hero cards poorly.
func wantsAdaptiveCard(el TemplateElement, channelID string) bool {
	if el.ImageAspectRatio == "square" {
		return true
	}
	return strings.HasPrefix(channelID, teamsChannelToken)
}
