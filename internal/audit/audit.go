// Package audit provides the durable per-request record keeping: one row
// per extraction request describing its parameters and terminal outcome,
// plus a finer-grained append-only event trail. The records exist for
// observability and stats, not for replay or correctness.
package audit

import (
	"time"

	"github.com/google/uuid"
	"github.com/vidgate/vidgate/internal/extract"
)

// Status is the observable state of a request. Rows are written once with
// a terminal status; the pending value only appears in aggregate queries
// (and is always zero under the terminal-only write model).
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Entry is one row of the extractions table. Identifier uniqueness is
// guaranteed by the primary key and equals the identifier returned to the
// HTTP caller.
type Entry struct {
	ID         uuid.UUID `db:"id" json:"id"`
	URL        string    `db:"url" json:"url"`
	FormatType string    `db:"format_type" json:"format_type"`
	Quality    string    `db:"quality" json:"quality"`
	Status     Status    `db:"status" json:"status"`

	DownloadURL *string `db:"download_url" json:"download_url,omitempty"`
	Title       *string `db:"title" json:"title,omitempty"`
	Duration    *int    `db:"duration" json:"duration,omitempty"`
	Thumbnail   *string `db:"thumbnail" json:"thumbnail,omitempty"`
	Format      *string `db:"format" json:"format,omitempty"`
	Filesize    *int64  `db:"filesize" json:"filesize,omitempty"`
	ErrorMsg    *string `db:"error_msg" json:"error,omitempty"`

	ClientIP  string    `db:"client_ip" json:"client_ip"`
	UserAgent string    `db:"user_agent" json:"user_agent"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// NewSuccessEntry builds the terminal audit entry for a request which
// yielded a normalized result.
func NewSuccessEntry(id uuid.UUID, request extract.Request, result *extract.Result, clientIP string, userAgent string) *Entry {
	entry := newEntry(id, request, StatusSuccess, clientIP, userAgent)
	entry.DownloadURL = &result.URL
	entry.Title = &result.Title
	entry.Duration = &result.Duration
	if result.Thumbnail != "" {
		entry.Thumbnail = &result.Thumbnail
	}
	if result.Ext != "" {
		entry.Format = &result.Ext
	}
	if result.Filesize != 0 {
		entry.Filesize = &result.Filesize
	}

	return entry
}

// NewErrorEntry builds the terminal audit entry for a request which failed
// extraction (or yielded no usable format).
func NewErrorEntry(id uuid.UUID, request extract.Request, errorMsg string, clientIP string, userAgent string) *Entry {
	entry := newEntry(id, request, StatusError, clientIP, userAgent)
	entry.ErrorMsg = &errorMsg

	return entry
}

func newEntry(id uuid.UUID, request extract.Request, status Status, clientIP string, userAgent string) *Entry {
	return &Entry{
		ID:         id,
		URL:        request.URL,
		FormatType: string(request.Kind),
		Quality:    string(request.Quality),
		Status:     status,
		ClientIP:   clientIP,
		UserAgent:  userAgent,
	}
}
