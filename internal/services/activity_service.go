package services

import (
	"database/sql"
	"fmt"
	"time"

	"presentation-coach/internal/models"

	"github.com/charmbracelet/log"
)

// ActivityService records presentation lifecycle events in SQLite. Writes are
// best-effort: a failure is logged and never surfaced to the request that
// triggered it.
type ActivityService struct {
	database *sql.DB
	logger   *log.Logger
}

// NewActivityService creates a new activity service.
func NewActivityService(database *sql.DB, logger *log.Logger) *ActivityService {
	return &ActivityService{
		database: database,
		logger:   logger.With("component", "activity"),
	}
}

// Record appends one event for a presentation.
func (as *ActivityService) Record(presentationID int, eventType, detail string) {
	query := `INSERT INTO activity_events (presentation_id, event_type, detail, created_at)
		VALUES (?, ?, ?, ?)`

	if _, err := as.database.Exec(query, presentationID, eventType, detail, time.Now().UTC()); err != nil {
		as.logger.Error("failed to record activity event", "presentation", presentationID, "type", eventType, "err", err)
	}
}

// Recent returns up to limit events for a presentation, newest first.
func (as *ActivityService) Recent(presentationID, limit int) ([]models.ActivityEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, presentation_id, event_type, detail, created_at
		FROM activity_events
		WHERE presentation_id = ?
		ORDER BY id DESC
		LIMIT ?`

	rows, err := as.database.Query(query, presentationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity events: %w", err)
	}
	defer rows.Close()

	events := []models.ActivityEvent{}
	for rows.Next() {
		var ev models.ActivityEvent
		if err := rows.Scan(&ev.ID, &ev.PresentationID, &ev.EventType, &ev.Detail, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activity events: %w", err)
	}

	return events, nil
}
