package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/xela07ax/instavibe/internal/domain"
)

// GetEventsWithAttendees возвращает ленту событий вместе со списками участников.
// Два запроса вместо N+1: события, затем участники одним IN.
func (r *SocialRepo) GetEventsWithAttendees(ctx context.Context, limit int) ([]domain.EventWithAttendees, error) {
	eventQuery := `
		SELECT event_id, name, COALESCE(description, ''), event_date
		FROM Event
		ORDER BY event_date DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, eventQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to fetch events: %w", err)
	}
	defer rows.Close()

	var order []string
	byID := make(map[string]*domain.EventWithAttendees)
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.Name, &e.Description, &e.Date); err != nil {
			return nil, err
		}
		byID[e.ID] = &domain.EventWithAttendees{Details: e, Attendees: []domain.Friend{}}
		order = append(order, e.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(order) == 0 {
		return []domain.EventWithAttendees{}, nil
	}

	attendeeQuery := `
		SELECT a.event_id, p.person_id, p.name
		FROM Attendance AS a
		JOIN Person AS p ON a.person_id = p.person_id
		WHERE a.event_id = ANY($1)
		ORDER BY a.event_id, p.name`

	arows, err := r.db.QueryContext(ctx, attendeeQuery, order)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to fetch attendees: %w", err)
	}
	defer arows.Close()

	for arows.Next() {
		var eventID string
		var f domain.Friend
		if err := arows.Scan(&eventID, &f.ID, &f.Name); err != nil {
			return nil, err
		}
		if ev, ok := byID[eventID]; ok {
			ev.Attendees = append(ev.Attendees, f)
		}
	}
	if err := arows.Err(); err != nil {
		return nil, err
	}

	out := make([]domain.EventWithAttendees, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out, nil
}

// GetEventDetails собирает полную карточку события: описание, локации, участники.
func (r *SocialRepo) GetEventDetails(ctx context.Context, eventID string) (*domain.EventDetails, error) {
	eventQuery := `
		SELECT event_id, name, COALESCE(description, ''), event_date
		FROM Event
		WHERE event_id = $1`

	details := &domain.EventDetails{Locations: []domain.Location{}, Attendees: []domain.Friend{}}
	err := r.db.QueryRowContext(ctx, eventQuery, eventID).Scan(
		&details.ID, &details.Name, &details.Description, &details.Date,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Событие не найдено
		}
		return nil, fmt.Errorf("postgres: failed to fetch event %s: %w", eventID, err)
	}

	locQuery := `
		SELECT l.location_id, l.name, COALESCE(l.description, ''), l.latitude, l.longitude, COALESCE(l.address, '')
		FROM Location AS l
		JOIN EventLocation AS el ON l.location_id = el.location_id
		WHERE el.event_id = $1
		ORDER BY l.name`

	lrows, err := r.db.QueryContext(ctx, locQuery, eventID)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to fetch locations for event %s: %w", eventID, err)
	}
	defer lrows.Close()

	for lrows.Next() {
		var l domain.Location
		var lat, lng sql.NullFloat64
		if err := lrows.Scan(&l.ID, &l.Name, &l.Description, &lat, &lng, &l.Address); err != nil {
			return nil, err
		}
		if lat.Valid {
			l.Latitude = &lat.Float64
		}
		if lng.Valid {
			l.Longitude = &lng.Float64
		}
		details.Locations = append(details.Locations, l)
	}
	if err := lrows.Err(); err != nil {
		return nil, err
	}

	attQuery := `
		SELECT p.person_id, p.name
		FROM Person AS p
		JOIN Attendance AS a ON p.person_id = a.person_id
		WHERE a.event_id = $1
		ORDER BY p.name`

	arows, err := r.db.QueryContext(ctx, attQuery, eventID)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to fetch attendees for event %s: %w", eventID, err)
	}
	defer arows.Close()

	for arows.Next() {
		var f domain.Friend
		if err := arows.Scan(&f.ID, &f.Name); err != nil {
			return nil, err
		}
		details.Attendees = append(details.Attendees, f)
	}
	return details, arows.Err()
}

// AddFullEvent вставляет событие, его локации, связки EventLocation и
// участников одной транзакцией. Любая ошибка — полный откат.
func (r *SocialRepo) AddFullEvent(ctx context.Context, ev *domain.NewEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: failed to begin tx: %w", err)
	}
	defer tx.Rollback() // no-op после успешного Commit

	eventSQL := `
		INSERT INTO Event (event_id, name, description, event_date, create_time)
		VALUES ($1, $2, $3, $4, NOW() AT TIME ZONE 'UTC')`
	if _, err := tx.ExecContext(ctx, eventSQL, ev.ID, ev.Name, ev.Description, ev.Date); err != nil {
		return fmt.Errorf("postgres: failed to insert event %s: %w", ev.ID, err)
	}

	locSQL := `
		INSERT INTO Location (location_id, name, description, latitude, longitude, address, create_time)
		VALUES ($1, $2, $3, $4, $5, $6, NOW() AT TIME ZONE 'UTC')`
	linkSQL := `
		INSERT INTO EventLocation (event_id, location_id, create_time)
		VALUES ($1, $2, NOW() AT TIME ZONE 'UTC')`

	for _, loc := range ev.Locations {
		locationID := uuid.New().String()
		if _, err := tx.ExecContext(ctx, locSQL,
			locationID, loc.Name, loc.Description, loc.Latitude, loc.Longitude, loc.Address,
		); err != nil {
			return fmt.Errorf("postgres: failed to insert location for event %s: %w", ev.ID, err)
		}
		if _, err := tx.ExecContext(ctx, linkSQL, ev.ID, locationID); err != nil {
			return fmt.Errorf("postgres: failed to link location to event %s: %w", ev.ID, err)
		}
	}

	attSQL := `
		INSERT INTO Attendance (event_id, person_id, attendance_time)
		VALUES ($1, $2, NOW() AT TIME ZONE 'UTC')`
	for _, personID := range ev.AttendeeIDs {
		if _, err := tx.ExecContext(ctx, attSQL, ev.ID, personID); err != nil {
			return fmt.Errorf("postgres: failed to insert attendance for event %s: %w", ev.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: failed to commit event %s: %w", ev.ID, err)
	}
	return nil
}
