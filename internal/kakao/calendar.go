package kakao

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/teemow/focusmate/internal/domain"
	"github.com/teemow/focusmate/internal/instrumentation"
)

const (
	createEventPath = "/v2/api/calendar/create/event"

	// CalendarTimeZone is sent with every event regardless of the input offset.
	CalendarTimeZone = "Asia/Seoul"

	// calendarScope is the consent item required to write calendar events.
	calendarScope = "talk_calendar"

	eventDescription = "Focus session scheduled with focusmate."

	wireTimeLayout = "2006-01-02T15:04:05Z"
)

// Seoul is Korea Standard Time. Korea has no daylight saving time, so a fixed
// zone avoids depending on the host's tzdata.
var Seoul = time.FixedZone("KST", 9*60*60)

// startLayouts are tried in order; zone-less layouts are read in Seoul.
var startLayouts = []struct {
	layout string
	zoned  bool
}{
	{time.RFC3339Nano, true},
	{"2006-01-02T15:04Z07:00", true},
	{"2006-01-02T15:04:05.999999999", false},
	{"2006-01-02T15:04", false},
}

type eventTime struct {
	StartAt  string `json:"start_at"`
	EndAt    string `json:"end_at"`
	TimeZone string `json:"time_zone"`
	AllDay   bool   `json:"all_day"`
	Lunar    bool   `json:"lunar"`
}

type eventLocation struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

type eventPayload struct {
	Title       string         `json:"title"`
	Time        eventTime      `json:"time"`
	Color       string         `json:"color"`
	Description string         `json:"description,omitempty"`
	Location    *eventLocation `json:"location,omitempty"`
	Reminders   []int          `json:"reminders,omitempty"`
}

type createEventResponse struct {
	EventID string `json:"event_id"`
}

// ParseStartTime parses an ISO-8601 date-time. Inputs without an offset are
// interpreted as Korea Standard Time.
func ParseStartTime(s string) (time.Time, error) {
	for _, l := range startLayouts {
		var (
			t   time.Time
			err error
		)
		if l.zoned {
			t, err = time.Parse(l.layout, s)
		} else {
			t, err = time.ParseInLocation(l.layout, s, Seoul)
		}
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("start_time: %q is not a valid ISO-8601 date-time", s)
}

// SnapReminder rounds minutes to the nearest multiple of 5, the only values
// the calendar API accepts.
func SnapReminder(minutes int) int {
	return int(math.Round(float64(minutes)/5)) * 5
}

// CreateEvent creates a calendar event on the user's primary calendar.
func (c *Client) CreateEvent(ctx context.Context, args domain.CalendarArgs) (*domain.CalendarConfirmation, error) {
	const op = "calendar.create"

	start, err := ParseStartTime(args.StartTime)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	token, err := c.userToken(ctx, op)
	if err != nil {
		return nil, err
	}
	start = start.Truncate(time.Second)
	end := start.Add(time.Duration(args.DurationMinutes) * time.Minute)

	payload := eventPayload{
		Title: args.Title,
		Time: eventTime{
			StartAt:  start.UTC().Format(wireTimeLayout),
			EndAt:    end.UTC().Format(wireTimeLayout),
			TimeZone: CalendarTimeZone,
		},
		Color:       args.Color,
		Description: eventDescription,
	}

	reminder := SnapReminder(args.ReminderMinutes)
	if reminder > 0 {
		payload.Reminders = []int{reminder}
	}

	if name := strings.TrimSpace(args.LocationName); name != "" {
		payload.Location = &eventLocation{Name: name}
		if addr := strings.TrimSpace(args.LocationAddress); addr != "" {
			payload.Location.Address = addr
		}
	}

	event, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode event: %w", err)
	}

	form := url.Values{}
	form.Set("event", string(event))
	req, err := c.newUserRequest(ctx, createEventPath, form, token)
	if err != nil {
		return nil, err
	}

	body, err := c.do(ctx, call{
		service:   instrumentation.ServiceCalendar,
		operation: instrumentation.OperationCreate,
		req:       req,
		policy:    calendarStatusPolicy,
	})
	if err != nil {
		return nil, err
	}

	var resp createEventResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, domain.NewProviderError(op, 200, "unexpected response body", err)
	}

	confirmation := &domain.CalendarConfirmation{
		EventID:         resp.EventID,
		Title:           args.Title,
		Start:           start.In(Seoul),
		End:             end.In(Seoul),
		ReminderMinutes: reminder,
		Color:           args.Color,
	}
	if payload.Location != nil {
		confirmation.LocationName = payload.Location.Name
		confirmation.LocationAddress = payload.Location.Address
	}
	return confirmation, nil
}

func calendarStatusPolicy(op string, status int, body []byte) error {
	switch status {
	case 401:
		return domain.NewUnauthorizedError(op)
	case 403:
		return domain.NewForbiddenError(op, status, calendarScope)
	case 400:
		return domain.NewProviderError(op, status, providerMessage(body), nil)
	default:
		return domain.NewProviderError(op, status, "", nil)
	}
}
