package tools

import (
	"context"

	"github.com/teemow/focusmate/internal/domain"
	"github.com/teemow/focusmate/internal/format"
	"github.com/teemow/focusmate/internal/instrumentation"
	"github.com/teemow/focusmate/internal/kakao"
)

// Tool names.
const (
	SearchPlacesTool          = "search_places"
	CreateCalendarEventTool   = "create_calendar_event"
	SendCommitmentMessageTool = "send_commitment_message"
)

// PlaceSearcher finds places around a location.
type PlaceSearcher interface {
	SearchPlaces(ctx context.Context, args domain.SearchArgs) (*domain.PlaceList, error)
}

// EventCreator creates calendar events.
type EventCreator interface {
	CreateEvent(ctx context.Context, args domain.CalendarArgs) (*domain.CalendarConfirmation, error)
}

// CommitmentSender sends "send to me" messages.
type CommitmentSender interface {
	SendCommitment(ctx context.Context, args domain.MessageArgs) (*domain.MessageConfirmation, error)
}

// Provider is everything the tools need from the Kakao client.
type Provider interface {
	PlaceSearcher
	EventCreator
	CommitmentSender
}

func searchTool(p PlaceSearcher) *Tool {
	return newTool(SearchPlacesTool, "Place search",
		`Find places to focus near a location: study cafes, cafes to work from, gyms or libraries.

The purpose picks the default keyword and category; "keyword" overrides the keyword. Results are sorted by distance and include address, phone and a Kakao Map link.

Use response_format "json" for machine readable output.`,
		instrumentation.ServiceLocal, instrumentation.OperationSearch,
		nil,
		func(ctx context.Context, args domain.SearchArgs) (any, format.Format, error) {
			list, err := p.SearchPlaces(ctx, args)
			if err != nil {
				return nil, "", err
			}
			return list, format.ParseFormat(args.ResponseFormat), nil
		},
	)
}

func calendarTool(p EventCreator) *Tool {
	return newTool(CreateCalendarEventTool, "Calendar event",
		`Schedule a focus session in the user's Kakao calendar.

start_time is ISO-8601; times without an offset are Korea Standard Time. The reminder is rounded to the nearest 5 minutes and 0 disables it.

Requires a Kakao access token with the talk_calendar consent.`,
		instrumentation.ServiceCalendar, instrumentation.OperationCreate,
		checkStartTime,
		func(ctx context.Context, args domain.CalendarArgs) (any, format.Format, error) {
			conf, err := p.CreateEvent(ctx, args)
			if err != nil {
				return nil, "", err
			}
			return conf, format.FormatMarkdown, nil
		},
	)
}

// checkStartTime rejects date-times the pattern accepts but the calendar
// cannot place, such as February 30.
func checkStartTime(args domain.CalendarArgs) error {
	_, err := kakao.ParseStartTime(args.StartTime)
	return err
}

func messageTool(p CommitmentSender) *Tool {
	return newTool(SendCommitmentMessageTool, "Commitment message",
		`Send a focus commitment to the user's own KakaoTalk chat ("send to me").

The message states the goal, the optional place and an encouragement line; a random one is picked when none is given. Text messages are cut to 200 characters.

Requires a Kakao access token with the talk_message consent.`,
		instrumentation.ServiceTalk, instrumentation.OperationSend,
		nil,
		func(ctx context.Context, args domain.MessageArgs) (any, format.Format, error) {
			conf, err := p.SendCommitment(ctx, args)
			if err != nil {
				return nil, "", err
			}
			return conf, format.FormatMarkdown, nil
		},
	)
}
