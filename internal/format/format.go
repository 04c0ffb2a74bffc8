package format

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/teemow/focusmate/internal/domain"
)

// Format selects the output encoding of a tool result.
type Format string

const (
	// FormatMarkdown is human readable text, the default.
	FormatMarkdown Format = domain.ResponseFormatMarkdown

	// FormatJSON is an indented JSON document of the result record.
	FormatJSON Format = domain.ResponseFormatJSON
)

// MaxMarkdownLength is the ceiling, in characters, for markdown search output.
const MaxMarkdownLength = 25000

// TruncationNotice is appended to markdown output cut at MaxMarkdownLength.
const TruncationNotice = "\n\n---\n*Output truncated. Use a smaller radius or limit, or request json output for the full list.*"

// ParseFormat maps a response_format value to a Format. Anything other than
// "json" is markdown.
func ParseFormat(s string) Format {
	if Format(s) == FormatJSON {
		return FormatJSON
	}
	return FormatMarkdown
}

// Render encodes result, which must be one of the domain result records.
// Output is deterministic for a given input.
func Render(result any, f Format) (string, error) {
	if f == FormatJSON {
		return renderJSON(result)
	}

	switch r := result.(type) {
	case *domain.PlaceList:
		return Truncate(placesMarkdown(r)), nil
	case *domain.CalendarConfirmation:
		return calendarMarkdown(r), nil
	case *domain.MessageConfirmation:
		return messageMarkdown(r), nil
	default:
		return "", fmt.Errorf("no markdown renderer for %T", result)
	}
}

// RenderFailure renders a failed call: a heading naming the tool and the
// user facing error text, nothing else.
func RenderFailure(label string, err error) string {
	return "# " + label + " failed\n\n" + domain.UserMessage(err)
}

// Truncate cuts s so that, with TruncationNotice appended, it is exactly
// MaxMarkdownLength characters long. Shorter input is returned unchanged.
func Truncate(s string) string {
	if utf8.RuneCountInString(s) <= MaxMarkdownLength {
		return s
	}
	keep := MaxMarkdownLength - utf8.RuneCountInString(TruncationNotice)
	return string([]rune(s)[:keep]) + TruncationNotice
}

func renderJSON(result any) (string, error) {
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}
	return string(out), nil
}

func placesMarkdown(list *domain.PlaceList) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Places for %s near %s\n\n", list.Purpose, list.Location)
	fmt.Fprintf(&sb, "Query: `%s`\n", list.Query)

	if len(list.Places) == 0 {
		sb.WriteString("\nNo places found. Try a larger radius or a different keyword.\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "Showing %d of %d results, nearest first.\n", len(list.Places), list.TotalCount)

	for i, p := range list.Places {
		fmt.Fprintf(&sb, "\n## %d. %s\n\n", i+1, p.Name)
		if p.Category != "" {
			fmt.Fprintf(&sb, "- **Category:** %s\n", p.Category)
		}
		fmt.Fprintf(&sb, "- **Address:** %s\n", p.Address)
		fmt.Fprintf(&sb, "- **Distance:** %s\n", distance(p.DistanceMeters))
		fmt.Fprintf(&sb, "- **Phone:** %s\n", p.Phone)
		if p.URL != "" {
			fmt.Fprintf(&sb, "- **Map:** [Open in Kakao Map](%s)\n", p.URL)
		}
	}
	return sb.String()
}

func distance(meters int) string {
	if meters < 1000 {
		return fmt.Sprintf("%d m", meters)
	}
	return fmt.Sprintf("%.1f km", float64(meters)/1000)
}

const timeLayout = "2006-01-02 15:04 MST"

func calendarMarkdown(c *domain.CalendarConfirmation) string {
	var sb strings.Builder

	sb.WriteString("# Calendar event created\n\n")
	fmt.Fprintf(&sb, "- **Title:** %s\n", c.Title)
	fmt.Fprintf(&sb, "- **Start:** %s\n", c.Start.Format(timeLayout))
	fmt.Fprintf(&sb, "- **End:** %s\n", c.End.Format(timeLayout))
	if c.LocationName != "" {
		if c.LocationAddress != "" {
			fmt.Fprintf(&sb, "- **Location:** %s (%s)\n", c.LocationName, c.LocationAddress)
		} else {
			fmt.Fprintf(&sb, "- **Location:** %s\n", c.LocationName)
		}
	}
	if c.ReminderMinutes > 0 {
		fmt.Fprintf(&sb, "- **Reminder:** %d minutes before\n", c.ReminderMinutes)
	} else {
		sb.WriteString("- **Reminder:** none\n")
	}
	fmt.Fprintf(&sb, "- **Color:** %s\n", c.Color)
	if c.EventID != "" {
		fmt.Fprintf(&sb, "- **Event ID:** `%s`\n", c.EventID)
	}
	return sb.String()
}

func messageMarkdown(m *domain.MessageConfirmation) string {
	var sb strings.Builder

	sb.WriteString("# Commitment message sent\n\n")
	fmt.Fprintf(&sb, "- **Goal:** %s\n", m.Goal)
	if m.LocationName != "" {
		fmt.Fprintf(&sb, "- **Place:** %s\n", m.LocationName)
	}
	if m.LocationURL != "" {
		fmt.Fprintf(&sb, "- **Map:** %s\n", m.LocationURL)
	}
	fmt.Fprintf(&sb, "- **Encouragement:** %s\n", m.Encouragement)
	fmt.Fprintf(&sb, "- **Template:** %s\n", m.TemplateType)
	sb.WriteString("\nThe message is waiting in your KakaoTalk \"chat with me\".\n")
	return sb.String()
}
