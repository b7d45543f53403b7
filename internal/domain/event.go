package domain

import "time"

// Location — место проведения (точка на карте, опционально адрес).
type Location struct {
	ID          string   `json:"location_id,omitempty"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Address     string   `json:"address,omitempty"`
}

// Event — событие с датой и описанием.
type Event struct {
	ID          string    `json:"event_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Date        time.Time `json:"event_date"`
}

// EventWithAttendees — карточка события для ленты: детали + участники.
type EventWithAttendees struct {
	Details   Event    `json:"details"`
	Attendees []Friend `json:"attendees"`
}

// EventDetails — полная карточка события для страницы деталей.
type EventDetails struct {
	Event
	Locations []Location `json:"locations"`
	Attendees []Friend   `json:"attendees"`
}

// NewEvent — входные данные транзакционной вставки события:
// само событие, его локации и участники одним коммитом.
type NewEvent struct {
	ID          string
	Name        string
	Description string
	Date        time.Time
	Locations   []Location
	AttendeeIDs []string
}
