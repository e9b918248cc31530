package botservice

import "encoding/json"

// Minimal adaptive card model; only the shapes the transformer emits.

type adaptiveCard struct {
	Type    string        `json:"type"`
	Version string        `json:"version"`
	Body    []interface{} `json:"body"`
	Actions []interface{} `json:"actions,omitempty"`
}

type adaptiveImage struct {
	Type string `json:"type"`
	URL  string `json:"url"`
	Size string `json:"size,omitempty"`
}

type adaptiveTextBlock struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	Weight   string `json:"weight,omitempty"`
	IsSubtle bool   `json:"isSubtle,omitempty"`
	Wrap     bool   `json:"wrap,omitempty"`
}

type adaptiveColumnSet struct {
	Type    string           `json:"type"`
	Columns []adaptiveColumn `json:"columns"`
}

type adaptiveColumn struct {
	Type  string        `json:"type"`
	Width string        `json:"width"`
	Items []interface{} `json:"items"`
}

type adaptiveOpenURLAction struct {
	Type  string `json:"type"`
	Title string `json:"title,omitempty"`
	URL   string `json:"url"`
}

type adaptiveSubmitAction struct {
	Type  string      `json:"type"`
	Title string      `json:"title,omitempty"`
	Data  interface{} `json:"data"`
}

// makeAdaptiveCard renders a template element as an adaptive card with
// an explicit vertical or horizontal arrangement of image, title,
// subtitle and action set.
func makeAdaptiveCard(el TemplateElement, layout string) WireAttachment {
	var textBlocks []interface{}
	if el.Title != "" {
		textBlocks = append(textBlocks, adaptiveTextBlock{
			Type: "TextBlock", Text: el.Title, Weight: "bolder", Wrap: true,
		})
	}
	if el.Subtitle != "" {
		textBlocks = append(textBlocks, adaptiveTextBlock{
			Type: "TextBlock", Text: el.Subtitle, IsSubtle: true, Wrap: true,
		})
	}

	var body []interface{}
	if layout == LayoutHorizontal && el.ImageURL != "" {
		body = []interface{}{adaptiveColumnSet{
			Type: "ColumnSet",
			Columns: []adaptiveColumn{
				{Type: "Column", Width: "auto", Items: []interface{}{
					adaptiveImage{Type: "Image", URL: el.ImageURL, Size: "medium"},
				}},
				{Type: "Column", Width: "stretch", Items: textBlocks},
			},
		}}
	} else {
		if el.ImageURL != "" {
			body = append(body, adaptiveImage{Type: "Image", URL: el.ImageURL})
		}
		body = append(body, textBlocks...)
	}

	return WireAttachment{
		ContentType: ContentTypeAdaptiveCard,
		Content: adaptiveCard{
			Type:    "AdaptiveCard",
			Version: "1.2",
			Body:    body,
			Actions: makeAdaptiveActions(el.Buttons),
		},
	}
}

// makeAdaptiveActions converts buttons; postbacks carry the serialized
// payload plus a messageBack duplicate for clients that require a
// display/submit pair.
func makeAdaptiveActions(buttons []Button) []interface{} {
	var out []interface{}
	for _, btn := range buttons {
		switch btn.Kind {
		case ButtonWebURL:
			out = append(out, adaptiveOpenURLAction{
				Type: "Action.OpenUrl", Title: btn.Title, URL: btn.URL,
			})
		case ButtonPostback:
			out = append(out, adaptiveSubmitAction{
				Type:  "Action.Submit",
				Title: btn.Title,
				Data: map[string]interface{}{
					"payload": btn.Payload,
					"msteams": map[string]string{
						"type":        "messageBack",
						"displayText": btn.Title,
						"text":        btn.Payload,
					},
				},
			})
		}
	}
	return out
}

// facebookChannelData renders a message-shaped payload in Messenger's
// native format for verbatim passthrough. Non-message payloads return
// nil and fall through to the regular transformation.
func facebookChannelData(payload Payload, userID string) json.RawMessage {
	var message map[string]interface{}

	switch p := payload.(type) {
	case TextPayload:
		if p.Text == "" {
			return nil
		}
		message = map[string]interface{}{"text": p.Text}
		if len(p.QuickReplies) > 0 {
			replies := make([]map[string]string, 0, len(p.QuickReplies))
			for _, qr := range p.QuickReplies {
				replies = append(replies, map[string]string{
					"content_type": "text",
					"title":        qr.Title,
					"payload":      qr.Payload,
				})
			}
			message["quick_replies"] = replies
		}

	case TemplatePayload:
		tpl := map[string]interface{}{"template_type": p.Kind}
		switch p.Kind {
		case TemplateGeneric, TemplateList:
			tpl["elements"] = p.Elements
		case TemplateButton:
			tpl["text"] = p.Text
			tpl["buttons"] = p.Buttons
		default:
			return nil
		}
		message = map[string]interface{}{
			"attachment": map[string]interface{}{"type": "template", "payload": tpl},
		}

	case MediaPayload:
		message = map[string]interface{}{
			"attachment": map[string]interface{}{
				"type":    p.Kind,
				"payload": map[string]string{"url": p.URL},
			},
		}

	default:
		return nil
	}

	data, err := json.Marshal(map[string]interface{}{
		"messaging_type": "RESPONSE",
		"recipient":      map[string]string{"id": userID},
		"message":        message,
	})
	if err != nil {
		return nil
	}
	return data
}
