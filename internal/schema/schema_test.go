package schema

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/focusmate/internal/domain"
)

var (
	searchSchema   = MustReflect("search_places", domain.SearchArgs{})
	calendarSchema = MustReflect("create_calendar_event", domain.CalendarArgs{})
	messageSchema  = MustReflect("send_commitment_message", domain.MessageArgs{})
)

func requireValidationError(t *testing.T, err error) *domain.Error {
	t.Helper()
	require.Error(t, err)
	de, ok := err.(*domain.Error)
	require.True(t, ok, "expected *domain.Error, got %T", err)
	require.Equal(t, domain.KindValidation, de.Kind)
	return de
}

func TestSearchSchema_Defaults(t *testing.T) {
	var args domain.SearchArgs
	err := searchSchema.Decode(map[string]any{
		"purpose":  "study",
		"location": "Hongdae Station",
	}, &args)
	require.NoError(t, err)

	assert.Equal(t, domain.SearchArgs{
		Purpose:        "study",
		Location:       "Hongdae Station",
		Radius:         500,
		Limit:          5,
		ResponseFormat: "markdown",
	}, args)
}

func TestSearchSchema_KeepsInRangeValues(t *testing.T) {
	var args domain.SearchArgs
	err := searchSchema.Decode(map[string]any{
		"purpose":         "work",
		"location":        "Gangnam",
		"keyword":         "coworking",
		"radius":          20000,
		"limit":           float64(15),
		"response_format": "json",
	}, &args)
	require.NoError(t, err)

	assert.Equal(t, "coworking", args.Keyword)
	assert.Equal(t, 20000, args.Radius)
	assert.Equal(t, 15, args.Limit)
	assert.Equal(t, "json", args.ResponseFormat)
}

func TestSearchSchema_TrimsStrings(t *testing.T) {
	var args domain.SearchArgs
	err := searchSchema.Decode(map[string]any{
		"purpose":  "reading",
		"location": "  Jongno  ",
		"keyword":  "   ",
	}, &args)
	require.NoError(t, err)

	assert.Equal(t, "Jongno", args.Location)
	assert.Empty(t, args.Keyword)
}

func TestSearchSchema_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		args     map[string]any
		contains []string
	}{
		{
			name:     "missing required fields",
			args:     map[string]any{},
			contains: []string{"purpose", "location"},
		},
		{
			name:     "whitespace only location",
			args:     map[string]any{"purpose": "study", "location": "   "},
			contains: []string{"location:"},
		},
		{
			name:     "unknown purpose",
			args:     map[string]any{"purpose": "sleep", "location": "Seoul"},
			contains: []string{"purpose:"},
		},
		{
			name:     "radius too large",
			args:     map[string]any{"purpose": "study", "location": "Seoul", "radius": 30000},
			contains: []string{"radius:"},
		},
		{
			name:     "limit not an integer",
			args:     map[string]any{"purpose": "study", "location": "Seoul", "limit": 2.5},
			contains: []string{"limit:"},
		},
		{
			name:     "unknown field",
			args:     map[string]any{"purpose": "study", "location": "Seoul", "page": 2},
			contains: []string{"page"},
		},
		{
			name: "every violation is reported",
			args: map[string]any{
				"purpose":  "study",
				"location": "Seoul",
				"radius":   50,
				"limit":    99,
			},
			contains: []string{"radius:", "limit:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var args domain.SearchArgs
			de := requireValidationError(t, searchSchema.Decode(tt.args, &args))
			for _, want := range tt.contains {
				assert.Contains(t, de.Detail, want)
			}
			assert.Equal(t, domain.SearchArgs{}, args, "nothing may be applied on failure")
		})
	}
}

func TestSearchSchema_MessageIsDeterministic(t *testing.T) {
	raw := map[string]any{"purpose": "nap", "location": "", "radius": 1, "limit": 0}

	var a, b domain.SearchArgs
	first := requireValidationError(t, searchSchema.Decode(raw, &a))
	second := requireValidationError(t, searchSchema.Decode(raw, &b))
	assert.Equal(t, first.Detail, second.Detail)
}

func TestCalendarSchema(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]any
		wantErr string
		check   func(t *testing.T, args domain.CalendarArgs)
	}{
		{
			name: "defaults",
			args: map[string]any{"title": "Deep work", "start_time": "2025-01-10T14:00:00+09:00", "duration_minutes": 90},
			check: func(t *testing.T, args domain.CalendarArgs) {
				assert.Equal(t, 15, args.ReminderMinutes)
				assert.Equal(t, "BLUE", args.Color)
			},
		},
		{
			name: "explicit zero reminder is kept",
			args: map[string]any{"title": "Run", "start_time": "2025-01-10T07:00", "duration_minutes": 30, "reminder_minutes": 0},
			check: func(t *testing.T, args domain.CalendarArgs) {
				assert.Equal(t, 0, args.ReminderMinutes)
				assert.Equal(t, "2025-01-10T07:00", args.StartTime)
			},
		},
		{
			name: "fractional seconds and Z",
			args: map[string]any{"title": "Read", "start_time": "2025-01-10T05:00:00.250Z", "duration_minutes": 15},
			check: func(t *testing.T, args domain.CalendarArgs) {
				assert.Equal(t, 15, args.DurationMinutes)
			},
		},
		{
			name:    "duration above maximum",
			args:    map[string]any{"title": "Marathon", "start_time": "2025-01-10T14:00:00Z", "duration_minutes": 500},
			wantErr: "duration_minutes:",
		},
		{
			name:    "start time is not ISO-8601",
			args:    map[string]any{"title": "Study", "start_time": "tomorrow 2pm", "duration_minutes": 60},
			wantErr: "start_time:",
		},
		{
			name:    "title too long",
			args:    map[string]any{"title": strings.Repeat("x", 51), "start_time": "2025-01-10T14:00:00Z", "duration_minutes": 60},
			wantErr: "title:",
		},
		{
			name:    "unknown color",
			args:    map[string]any{"title": "Study", "start_time": "2025-01-10T14:00:00Z", "duration_minutes": 60, "color": "blue"},
			wantErr: "color:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var args domain.CalendarArgs
			err := calendarSchema.Decode(tt.args, &args)
			if tt.wantErr != "" {
				de := requireValidationError(t, err)
				assert.Contains(t, de.Detail, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, args)
		})
	}
}

func TestMessageSchema(t *testing.T) {
	var args domain.MessageArgs
	err := messageSchema.Decode(map[string]any{
		"goal":         "Finish chapter 3",
		"location_url": "https://place.map.kakao.com/12345",
	}, &args)
	require.NoError(t, err)
	assert.Equal(t, "feed", args.TemplateType)
	assert.Equal(t, "https://place.map.kakao.com/12345", args.LocationURL)

	var bad domain.MessageArgs
	de := requireValidationError(t, messageSchema.Decode(map[string]any{
		"goal":          "Finish chapter 3",
		"location_url":  "not a url",
		"template_type": "carousel",
	}, &bad))
	assert.Contains(t, de.Detail, "location_url:")
	assert.Contains(t, de.Detail, "template_type:")
}

func TestSchema_DecodeFailureIsFieldMessage(t *testing.T) {
	// 500.0 satisfies "integer" in JSON Schema but cannot be parsed as an int
	var args domain.SearchArgs
	err := searchSchema.Decode(map[string]any{
		"purpose":  "study",
		"location": "Seoul",
		"radius":   json.Number("500.0"),
	}, &args)

	de := requireValidationError(t, err)
	assert.Equal(t, "radius: must be an integer", de.Detail)
	assert.NotContains(t, de.UserMessage(), "strconv")
	assert.NotContains(t, de.UserMessage(), "json.Number")
}

func TestSchema_NilArguments(t *testing.T) {
	var args domain.MessageArgs
	de := requireValidationError(t, messageSchema.Decode(nil, &args))
	assert.Contains(t, de.Detail, "goal")
}

func TestSchema_Raw(t *testing.T) {
	var doc struct {
		Type                 string                    `json:"type"`
		AdditionalProperties bool                      `json:"additionalProperties"`
		Required             []string                  `json:"required"`
		Properties           map[string]map[string]any `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(searchSchema.Raw(), &doc))

	assert.Equal(t, "object", doc.Type)
	assert.False(t, doc.AdditionalProperties)
	assert.ElementsMatch(t, []string{"purpose", "location"}, doc.Required)
	assert.EqualValues(t, 500, doc.Properties["radius"]["default"])
	assert.EqualValues(t, 20000, doc.Properties["radius"]["maximum"])
	assert.Equal(t, "integer", doc.Properties["limit"]["type"])
	assert.Equal(t, "search_places", searchSchema.Name())
}
