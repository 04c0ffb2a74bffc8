package domain

// Purposes accepted by the place search tool.
const (
	PurposeStudy    = "study"
	PurposeExercise = "exercise"
	PurposeReading  = "reading"
	PurposeWork     = "work"
)

// Response formats accepted by the place search tool.
const (
	ResponseFormatMarkdown = "markdown"
	ResponseFormatJSON     = "json"
)

// Message template types accepted by the commitment message tool.
const (
	TemplateFeed = "feed"
	TemplateText = "text"
)

// SearchArgs are the validated arguments of the place search tool.
// The struct tags are the tool's input schema.
type SearchArgs struct {
	Purpose        string `json:"purpose" jsonschema:"required,enum=study,enum=exercise,enum=reading,enum=work" jsonschema_description:"Activity the place is for. Picks the default search keyword and category."`
	Location       string `json:"location" jsonschema:"required,minLength=1,maxLength=100" jsonschema_description:"Area to search around, e.g. a station, neighbourhood or street address."`
	Keyword        string `json:"keyword,omitempty" jsonschema:"maxLength=100" jsonschema_description:"Overrides the purpose's default search keyword."`
	Radius         int    `json:"radius,omitempty" jsonschema:"minimum=100,maximum=20000,default=500" jsonschema_description:"Search radius in meters."`
	Limit          int    `json:"limit,omitempty" jsonschema:"minimum=1,maximum=15,default=5" jsonschema_description:"Maximum number of places to return."`
	ResponseFormat string `json:"response_format,omitempty" jsonschema:"enum=markdown,enum=json,default=markdown" jsonschema_description:"Output encoding: human readable markdown or structured JSON."`
}

// CalendarArgs are the validated arguments of the calendar event tool.
type CalendarArgs struct {
	Title           string `json:"title" jsonschema:"required,minLength=1,maxLength=50" jsonschema_description:"Event title."`
	StartTime       string `json:"start_time" jsonschema:"required,pattern=^\\d{4}-\\d{2}-\\d{2}T\\d{2}:\\d{2}(:\\d{2}(\\.\\d+)?)?(Z|[+-]\\d{2}:\\d{2})?$" jsonschema_description:"ISO-8601 start time, e.g. 2025-01-10T14:00:00+09:00. Times without an offset are read as Korea Standard Time."`
	DurationMinutes int    `json:"duration_minutes" jsonschema:"required,minimum=15,maximum=480" jsonschema_description:"Event length in minutes."`
	LocationName    string `json:"location_name,omitempty" jsonschema:"maxLength=100" jsonschema_description:"Name of the place the session happens at."`
	LocationAddress string `json:"location_address,omitempty" jsonschema:"maxLength=200" jsonschema_description:"Address of the place. Only used together with location_name."`
	ReminderMinutes int    `json:"reminder_minutes,omitempty" jsonschema:"minimum=0,maximum=1440,default=15" jsonschema_description:"Minutes before the start to remind. Rounded to the nearest 5; 0 disables the reminder."`
	Color           string `json:"color,omitempty" jsonschema:"enum=BLUE,enum=RED,enum=YELLOW,enum=GREEN,enum=PINK,enum=ORANGE,enum=PURPLE,enum=GRAY,default=BLUE" jsonschema_description:"Calendar color of the event."`
}

// MessageArgs are the validated arguments of the commitment message tool.
type MessageArgs struct {
	Goal          string `json:"goal" jsonschema:"required,minLength=1,maxLength=200" jsonschema_description:"What you commit to doing."`
	LocationName  string `json:"location_name,omitempty" jsonschema:"maxLength=100" jsonschema_description:"Where you will do it."`
	LocationURL   string `json:"location_url,omitempty" jsonschema:"format=uri" jsonschema_description:"Map link for the place, e.g. a Kakao Map URL from search_places."`
	Encouragement string `json:"encouragement,omitempty" jsonschema:"maxLength=100" jsonschema_description:"Custom encouragement line. A random one is used when omitted."`
	TemplateType  string `json:"template_type,omitempty" jsonschema:"enum=feed,enum=text,default=feed" jsonschema_description:"Message layout: rich feed card or plain text."`
}
