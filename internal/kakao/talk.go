package kakao

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/url"
	"strings"

	"github.com/teemow/focusmate/internal/domain"
	"github.com/teemow/focusmate/internal/instrumentation"
)

const (
	memoSendPath = "/v2/api/talk/memo/default/send"

	// messageScope is the consent item required to send "to me" messages.
	messageScope = "talk_message"

	// FallbackLinkURL is used when no location URL was given; both templates
	// require a link.
	FallbackLinkURL = "https://map.kakao.com"

	// MaxTextLength is the hard limit of a text template, in characters.
	MaxTextLength = 200

	feedTitle       = "Today's focus commitment"
	textHeading     = "[Focus commitment]"
	mapButtonTitle  = "View map"
	textButtonTitle = "Open map"
)

// Encouragements are picked from when the caller supplies none.
var Encouragements = []string{
	"You've got this. One focused block at a time.",
	"Small steps every day add up to big results.",
	"Start now and the momentum will follow.",
	"Progress over perfection. Just begin.",
	"Your future self will thank you for this session.",
	"Stay with it. Deep work pays off.",
	"Every focused minute counts today.",
}

type templateLink struct {
	WebURL       string `json:"web_url"`
	MobileWebURL string `json:"mobile_web_url"`
}

type templateButton struct {
	Title string       `json:"title"`
	Link  templateLink `json:"link"`
}

type feedContent struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Link        templateLink `json:"link"`
}

type feedTemplate struct {
	ObjectType string           `json:"object_type"`
	Content    feedContent      `json:"content"`
	Buttons    []templateButton `json:"buttons,omitempty"`
}

type textTemplate struct {
	ObjectType  string       `json:"object_type"`
	Text        string       `json:"text"`
	Link        templateLink `json:"link"`
	ButtonTitle string       `json:"button_title,omitempty"`
}

func randomIndex(n int) int {
	return rand.IntN(n)
}

// SendCommitment sends a commitment message to the user's own KakaoTalk chat.
func (c *Client) SendCommitment(ctx context.Context, args domain.MessageArgs) (*domain.MessageConfirmation, error) {
	const op = "talk.memo"

	token, err := c.userToken(ctx, op)
	if err != nil {
		return nil, err
	}

	encouragement := strings.TrimSpace(args.Encouragement)
	if encouragement == "" {
		encouragement = Encouragements[c.picker(len(Encouragements))]
	}

	template, err := buildTemplate(args, encouragement)
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("template_object", string(template))
	req, err := c.newUserRequest(ctx, memoSendPath, form, token)
	if err != nil {
		return nil, err
	}

	if _, err := c.do(ctx, call{
		service:   instrumentation.ServiceTalk,
		operation: instrumentation.OperationSend,
		req:       req,
		policy:    talkStatusPolicy,
	}); err != nil {
		return nil, err
	}

	templateType := args.TemplateType
	if templateType == "" {
		templateType = domain.TemplateFeed
	}
	return &domain.MessageConfirmation{
		Success:       true,
		Goal:          args.Goal,
		LocationName:  args.LocationName,
		LocationURL:   args.LocationURL,
		Encouragement: encouragement,
		TemplateType:  templateType,
	}, nil
}

// buildTemplate returns the JSON template_object for args.
func buildTemplate(args domain.MessageArgs, encouragement string) ([]byte, error) {
	linkURL := args.LocationURL
	if linkURL == "" {
		linkURL = FallbackLinkURL
	}
	link := templateLink{WebURL: linkURL, MobileWebURL: linkURL}

	var v any
	if args.TemplateType == domain.TemplateText {
		t := textTemplate{
			ObjectType: domain.TemplateText,
			Text:       CommitmentText(args.Goal, encouragement),
			Link:       link,
		}
		if args.LocationURL != "" {
			t.ButtonTitle = textButtonTitle
		}
		v = t
	} else {
		t := feedTemplate{
			ObjectType: domain.TemplateFeed,
			Content: feedContent{
				Title:       feedTitle,
				Description: feedDescription(args.Goal, args.LocationName, encouragement),
				Link:        link,
			},
		}
		if args.LocationURL != "" {
			t.Buttons = []templateButton{{Title: mapButtonTitle, Link: link}}
		}
		v = t
	}

	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode message template: %w", err)
	}
	return out, nil
}

func feedDescription(goal, location, encouragement string) string {
	var sb strings.Builder
	sb.WriteString("Goal: ")
	sb.WriteString(goal)
	if location != "" {
		sb.WriteString("\nPlace: ")
		sb.WriteString(location)
	}
	sb.WriteString("\n\n")
	sb.WriteString(encouragement)
	return sb.String()
}

// CommitmentText composes the text template body, cut to MaxTextLength
// characters without regard for word boundaries.
func CommitmentText(goal, encouragement string) string {
	text := textHeading + "\n\n" + goal + "\n\n" + encouragement
	runes := []rune(text)
	if len(runes) > MaxTextLength {
		return string(runes[:MaxTextLength])
	}
	return text
}

func talkStatusPolicy(op string, status int, _ []byte) error {
	switch status {
	case 401:
		return domain.NewUnauthorizedError(op)
	case 403:
		return domain.NewForbiddenError(op, status, messageScope)
	default:
		return domain.NewProviderError(op, status, "", nil)
	}
}
