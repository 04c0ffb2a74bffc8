package domain

import "time"

// PhoneUnavailable replaces an empty phone number in search results.
const PhoneUnavailable = "unavailable"

// Place is a single place search hit.
type Place struct {
	Name           string  `json:"name"`
	Address        string  `json:"address"`
	DistanceMeters int     `json:"distance_meters"`
	Phone          string  `json:"phone"`
	Category       string  `json:"category"`
	URL            string  `json:"url"`
	X              float64 `json:"x"`
	Y              float64 `json:"y"`
}

// PlaceList is the result of a place search, ordered by distance.
type PlaceList struct {
	Purpose    string  `json:"purpose"`
	Location   string  `json:"location"`
	Query      string  `json:"query"`
	TotalCount int     `json:"total_count"`
	Places     []Place `json:"places"`
}

// CalendarConfirmation describes a created calendar event.
type CalendarConfirmation struct {
	EventID         string    `json:"event_id"`
	Title           string    `json:"title"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	LocationName    string    `json:"location_name,omitempty"`
	LocationAddress string    `json:"location_address,omitempty"`
	// ReminderMinutes is the value sent to the provider after rounding; 0
	// means no reminder was set.
	ReminderMinutes int    `json:"reminder_minutes"`
	Color           string `json:"color"`
}

// MessageConfirmation describes a sent "send to me" message.
type MessageConfirmation struct {
	Success       bool   `json:"success"`
	Goal          string `json:"goal"`
	LocationName  string `json:"location_name,omitempty"`
	LocationURL   string `json:"location_url,omitempty"`
	Encouragement string `json:"encouragement"`
	TemplateType  string `json:"template_type"`
}
