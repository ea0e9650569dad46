package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rentdesk/rentdesk/internal/models"
)

// Event repository errors.
var (
	ErrEventNotFound = errors.New("event not found")
	ErrInvalidEvent  = errors.New("invalid event")
)

const (
	eventColumns      = `id, timestamp, type, entity_type, entity_id, payload_json, metadata_json`
	defaultEventLimit = 100
)

// EventRepository stores the template and tenant event log.
type EventRepository struct {
	db *DB
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

// EventQuery filters the event log. Nil fields are not filtered on.
type EventQuery struct {
	Type       *models.EventType
	EntityType *models.EntityType
	EntityID   *string
	Since      *time.Time // inclusive
	Until      *time.Time // exclusive
	Cursor     string     // ID of the last event of the previous page
	Limit      int
}

// EventPage is one page of events in (timestamp, id) order.
type EventPage struct {
	Events     []*models.Event
	NextCursor string
}

// Create validates and appends an event. ID and Timestamp are filled in
// when empty.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if event == nil {
		return ErrInvalidEvent
	}
	if err := event.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	event.Timestamp = event.Timestamp.UTC()

	metadata, err := encodeMetadata(event.Metadata)
	if err != nil {
		return err
	}

	var payload *string
	if len(event.Payload) > 0 {
		payload = nullString(string(event.Payload))
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO events (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.ID,
		formatTime(event.Timestamp),
		string(event.Type),
		string(event.EntityType),
		event.EntityID,
		payload,
		metadata,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// Get returns one event.
func (r *EventRepository) Get(ctx context.Context, id string) (*models.Event, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	return r.scanEvent(row)
}

// Query returns a page of events matching q. Pass the returned NextCursor
// back in q.Cursor to continue; it is empty on the last page.
func (r *EventRepository) Query(ctx context.Context, q EventQuery) (*EventPage, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultEventLimit
	}

	where, args := q.conditions()
	query := `SELECT ` + eventColumns + ` FROM events`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY timestamp, id LIMIT ?`
	// One extra row tells us whether another page exists.
	args = append(args, limit+1)

	events, err := r.queryEvents(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	page := &EventPage{Events: events}
	if len(events) > limit {
		page.Events = events[:limit]
		page.NextCursor = events[limit-1].ID
	}
	return page, nil
}

// ListByEntity returns up to limit events for one template or tenant,
// oldest first.
func (r *EventRepository) ListByEntity(ctx context.Context, entityType models.EntityType, entityID string, limit int) ([]*models.Event, error) {
	page, err := r.Query(ctx, EventQuery{
		EntityType: &entityType,
		EntityID:   &entityID,
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}
	return page.Events, nil
}

func (q EventQuery) conditions() ([]string, []any) {
	var where []string
	var args []any

	if q.Type != nil {
		where = append(where, `type = ?`)
		args = append(args, string(*q.Type))
	}
	if q.EntityType != nil {
		where = append(where, `entity_type = ?`)
		args = append(args, string(*q.EntityType))
	}
	if q.EntityID != nil {
		where = append(where, `entity_id = ?`)
		args = append(args, *q.EntityID)
	}
	if q.Since != nil {
		where = append(where, `timestamp >= ?`)
		args = append(args, formatTime(*q.Since))
	}
	if q.Until != nil {
		where = append(where, `timestamp < ?`)
		args = append(args, formatTime(*q.Until))
	}
	if q.Cursor != "" {
		where = append(where, `(timestamp, id) > (SELECT timestamp, id FROM events WHERE id = ?)`)
		args = append(args, q.Cursor)
	}
	return where, args
}

func (r *EventRepository) queryEvents(ctx context.Context, query string, args ...any) ([]*models.Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := make([]*models.Event, 0)
	for rows.Next() {
		event, err := r.scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}
	return events, nil
}

func (r *EventRepository) scanEvent(row rowScanner) (*models.Event, error) {
	var (
		event                        models.Event
		timestamp, eventType, entity string
		payload, metadata            sql.NullString
	)
	err := row.Scan(&event.ID, &timestamp, &eventType, &entity, &event.EntityID, &payload, &metadata)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to scan event: %w", err)
	}

	event.Type = models.EventType(eventType)
	event.EntityType = models.EntityType(entity)
	event.Timestamp = parseTime(timestamp)
	if payload.Valid {
		event.Payload = json.RawMessage(payload.String)
	}
	if metadata.Valid {
		if err := json.Unmarshal([]byte(metadata.String), &event.Metadata); err != nil {
			r.db.logger.Warn().Err(err).Str("event_id", event.ID).Msg("ignoring unreadable event metadata")
		}
	}
	return &event, nil
}

func encodeMetadata(metadata map[string]string) (*string, error) {
	if len(metadata) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode event metadata: %w", err)
	}
	s := string(data)
	return &s, nil
}
