package audit

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/vidgate/vidgate/internal/database"
)

var ErrEntryNotFound = errors.New("extraction record does not exist")

type (
	Store struct{}

	// Stats is the aggregate view served by the stats endpoint.
	Stats struct {
		TotalRequests int             `db:"total_requests"`
		Successful    int             `db:"successful"`
		Failed        int             `db:"failed"`
		Pending       int             `db:"pending"`
		Platforms     []PlatformCount `db:"-"`
	}

	PlatformCount struct {
		Platform string `db:"platform"`
		Count    int    `db:"count"`
	}
)

func NewStore() *Store {
	return &Store{}
}

// Save inserts the terminal row for one request. The row is written
// exactly once; there is no pending-then-update flow.
func (store *Store) Save(db database.Queryable, entry *Entry) error {
	_, err := db.Exec(`
		INSERT INTO extractions(
			id, url, format_type, quality, status,
			download_url, title, duration, thumbnail, format, filesize, error_msg,
			client_ip, user_agent, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, current_timestamp, current_timestamp)
	`, entry.ID, entry.URL, entry.FormatType, entry.Quality, entry.Status,
		entry.DownloadURL, entry.Title, entry.Duration, entry.Thumbnail, entry.Format, entry.Filesize, entry.ErrorMsg,
		entry.ClientIP, entry.UserAgent)
	if err != nil {
		return fmt.Errorf("failed to insert extraction record: %w", err)
	}

	return nil
}

// RecordEvent appends one row to the extraction event trail. The details
// value is JSON-encoded in to the jsonb column.
func (store *Store) RecordEvent(db database.Queryable, extractionID uuid.UUID, action string, details any) error {
	encoded, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to encode event details: %w", err)
	}

	if _, err := db.Exec(`
		INSERT INTO extraction_events(extraction_id, action, details)
		VALUES ($1, $2, $3)
	`, extractionID, action, encoded); err != nil {
		return fmt.Errorf("failed to insert extraction event: %w", err)
	}

	return nil
}

// Get returns the audit entry with the given identifier, or
// ErrEntryNotFound if no request with that identifier was ever persisted.
func (store *Store) Get(db database.Queryable, id uuid.UUID) (*Entry, error) {
	query, args, err := selectEntryBuilder().Where("id=?", id).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to construct select extraction query: %w", err)
	}

	var entry Entry
	if err := db.Get(&entry, db.Rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEntryNotFound
		}

		return nil, err
	}

	return &entry, nil
}

// Recent returns the most recently created entries, newest first. The
// limit is clamped to [1, 100], defaulting to 10 for a non-positive value.
func (store *Store) Recent(db database.Queryable, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = 10
	} else if limit > 100 {
		limit = 100
	}

	query, args, err := selectEntryBuilder().
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to construct recent extractions query: %w", err)
	}

	var results []*Entry
	if err := db.Select(&results, db.Rebind(query), args...); err != nil {
		return nil, err
	}

	return results, nil
}

// Stats aggregates outcome counts and a per-platform breakdown, where the
// platform is derived by pattern-matching the stored URL against known
// hostnames.
func (store *Store) Stats(db database.Queryable) (*Stats, error) {
	var stats Stats
	if err := db.Get(&stats, `
		SELECT
			COUNT(*) AS total_requests,
			COUNT(*) FILTER (WHERE status = 'success') AS successful,
			COUNT(*) FILTER (WHERE status = 'error') AS failed,
			COUNT(*) FILTER (WHERE status = 'pending') AS pending
		FROM extractions
	`); err != nil {
		return nil, fmt.Errorf("failed to aggregate extraction stats: %w", err)
	}

	if err := db.Select(&stats.Platforms, `
		SELECT
			CASE
				WHEN url LIKE '%youtube.com%' OR url LIKE '%youtu.be%' THEN 'YouTube'
				WHEN url LIKE '%tiktok.com%' THEN 'TikTok'
				WHEN url LIKE '%twitter.com%' OR url LIKE '%x.com%' THEN 'Twitter'
				WHEN url LIKE '%instagram.com%' THEN 'Instagram'
				WHEN url LIKE '%facebook.com%' THEN 'Facebook'
				ELSE 'Other'
			END AS platform,
			COUNT(*) AS count
		FROM extractions
		GROUP BY platform
		ORDER BY count DESC
	`); err != nil {
		return nil, fmt.Errorf("failed to aggregate platform stats: %w", err)
	}

	return &stats, nil
}

func selectEntryBuilder() squirrel.SelectBuilder {
	return squirrel.Select(
		"id", "url", "format_type", "quality", "status",
		"download_url", "title", "duration", "thumbnail", "format", "filesize", "error_msg",
		"client_ip", "user_agent", "created_at", "updated_at",
	).From("extractions")
}
