package extractions

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/vidgate/vidgate/internal/audit"
	"github.com/vidgate/vidgate/internal/event"
	"github.com/vidgate/vidgate/internal/extract"
	"github.com/vidgate/vidgate/pkg/logger"
)

type (
	// ExtractionService runs the full extraction pipeline for one request.
	ExtractionService interface {
		Extract(ctx context.Context, request extract.Request) (*extract.Result, error)
	}

	Store interface {
		GetEntry(id uuid.UUID) (*audit.Entry, error)
		RecentEntries(limit int) ([]*audit.Entry, error)
		EntryStats() (*audit.Stats, error)
	}

	// Controller is the struct which is responsible for defining the
	// routes for this controller. Additionally, it holds references to the
	// extraction service, the audit store, and the event bus on which
	// completed extractions are announced for out-of-band persistence.
	Controller struct {
		validate *validator.Validate
		service  ExtractionService
		store    Store
		eventBus event.EventDispatcher
		debug    bool
	}

	ExtractionRequestDto struct {
		URL        string `json:"url" validate:"required,url"`
		FormatType string `json:"format_type" validate:"omitempty,oneof=video audio"`
		Quality    string `json:"quality" validate:"omitempty,oneof=360 480 720 1080 best"`
	}

	ExtractionResponseDto struct {
		Status      string    `json:"status"`
		RequestID   uuid.UUID `json:"request_id"`
		Title       string    `json:"title,omitempty"`
		Duration    int       `json:"duration,omitempty"`
		Thumbnail   string    `json:"thumbnail,omitempty"`
		DownloadURL string    `json:"download_url,omitempty"`
		Format      string    `json:"format,omitempty"`
		Filesize    int64     `json:"filesize,omitempty"`
		Error       string    `json:"error,omitempty"`
		RawError    string    `json:"raw_error,omitempty"`
	}

	RecentEntryDto struct {
		ID         uuid.UUID    `json:"id"`
		URL        string       `json:"url"`
		FormatType string       `json:"format_type"`
		Quality    string       `json:"quality"`
		Status     audit.Status `json:"status"`
		Title      *string      `json:"title"`
		CreatedAt  string       `json:"created_at"`
		UpdatedAt  string       `json:"updated_at"`
	}

	PlatformDto struct {
		Platform string `json:"platform"`
		Count    int    `json:"count"`
	}

	StatsDto struct {
		TotalRequests int           `json:"total_requests"`
		Successful    int           `json:"successful"`
		Failed        int           `json:"failed"`
		Pending       int           `json:"pending"`
		SuccessRate   string        `json:"success_rate"`
		Platforms     []PlatformDto `json:"platforms"`
	}
)

var controllerLogger = logger.Get("ExtractionsController")

func New(validate *validator.Validate, service ExtractionService, store Store, eventBus event.EventDispatcher, debug bool) *Controller {
	return &Controller{
		validate: validate,
		service:  service,
		store:    store,
		eventBus: eventBus,
		debug:    debug,
	}
}

// SetRoutes accepts the Echo group for the extraction endpoints
// and sets the routes on them.
func (controller *Controller) SetRoutes(eg *echo.Group) {
	eg.POST("/extract", controller.extract)
	eg.GET("/status/:id", controller.status)
	eg.GET("/requests", controller.recent)
	eg.GET("/stats", controller.stats)
}

// SetCompatRoutes registers the flat route layout of the first API
// revision, which some deployed callers still use.
func (controller *Controller) SetCompatRoutes(ec *echo.Echo) {
	ec.POST("/download", controller.extract)
	ec.GET("/status/:id", controller.status)
	ec.GET("/requests", controller.recent)
	ec.GET("/stats", controller.stats)
}

// extract validates the request body, runs the extraction pipeline, and
// returns the normalized result (or a structured error outcome). Either
// way an audit entry describing the terminal outcome is dispatched over
// the event bus; the response is never blocked on, or affected by, its
// persistence.
func (controller *Controller) extract(ec echo.Context) error {
	var body ExtractionRequestDto
	if err := ec.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed JSON body")
	}

	if body.FormatType == "" {
		body.FormatType = string(extract.MediaKindVideo)
	}
	if body.Quality == "" {
		body.Quality = string(extract.Quality720)
	}

	if err := controller.validate.Struct(body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	requestID := uuid.New()
	request := extract.Request{
		URL:     body.URL,
		Kind:    extract.MediaKind(body.FormatType),
		Quality: extract.QualityTier(body.Quality),
	}
	clientIP := ec.RealIP()
	userAgent := ec.Request().UserAgent()

	// Deliberately not derived from the request context: a caller
	// disconnect must not abort an in-flight extraction, whose outcome is
	// still owed to the audit log. The service applies its own deadline.
	result, err := controller.service.Extract(context.Background(), request)
	if err != nil {
		message, raw := describeFailure(err)
		controllerLogger.Warnf("Extraction request %s for %s failed: %s\n", requestID, request.URL, err.Error())

		controller.eventBus.Dispatch(
			event.ExtractionCompleteEvent,
			audit.NewErrorEntry(requestID, request, message, clientIP, userAgent),
		)

		dto := ExtractionResponseDto{
			Status:    "error",
			RequestID: requestID,
			Error:     message,
		}
		if controller.debug {
			dto.RawError = raw
		}

		return ec.JSON(http.StatusOK, dto)
	}

	controller.eventBus.Dispatch(
		event.ExtractionCompleteEvent,
		audit.NewSuccessEntry(requestID, request, result, clientIP, userAgent),
	)

	return ec.JSON(http.StatusOK, ExtractionResponseDto{
		Status:      "success",
		RequestID:   requestID,
		Title:       result.Title,
		Duration:    result.Duration,
		Thumbnail:   result.Thumbnail,
		DownloadURL: result.URL,
		Format:      result.Ext,
		Filesize:    result.Filesize,
	})
}

// status uses the 'id' path param from the context and retrieves the
// persisted audit entry for that request, if any.
func (controller *Controller) status(ec echo.Context) error {
	id, err := uuid.Parse(ec.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Request ID is not a valid UUID")
	}

	entry, err := controller.store.GetEntry(id)
	if err != nil {
		if errors.Is(err, audit.ErrEntryNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Request not found")
		}

		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return ec.JSON(http.StatusOK, entry)
}

// recent returns the most recently created audit entries, newest first.
// The 'limit' query param defaults to 10 and is clamped to 100.
func (controller *Controller) recent(ec echo.Context) error {
	limit, err := strconv.Atoi(ec.QueryParam("limit"))
	if err != nil {
		limit = 0
	}

	entries, err := controller.store.RecentEntries(limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	dtos := make([]RecentEntryDto, len(entries))
	for k, v := range entries {
		dtos[k] = RecentEntryDto{
			ID:         v.ID,
			URL:        v.URL,
			FormatType: v.FormatType,
			Quality:    v.Quality,
			Status:     v.Status,
			Title:      v.Title,
			CreatedAt:  v.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			UpdatedAt:  v.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
	}

	return ec.JSON(http.StatusOK, dtos)
}

// stats returns aggregate outcome counts plus the per-platform breakdown.
func (controller *Controller) stats(ec echo.Context) error {
	stats, err := controller.store.EntryStats()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	dto := StatsDto{
		TotalRequests: stats.TotalRequests,
		Successful:    stats.Successful,
		Failed:        stats.Failed,
		Pending:       stats.Pending,
		SuccessRate:   "0%",
		Platforms:     make([]PlatformDto, len(stats.Platforms)),
	}
	if stats.TotalRequests > 0 {
		dto.SuccessRate = fmt.Sprintf("%.1f%%", float64(stats.Successful)/float64(stats.TotalRequests)*100)
	}
	for k, v := range stats.Platforms {
		dto.Platforms[k] = PlatformDto{Platform: v.Platform, Count: v.Count}
	}

	return ec.JSON(http.StatusOK, dto)
}

// describeFailure maps an extraction pipeline error to the generic
// user-facing message, plus the raw diagnostic which is only surfaced
// when the debug flag is set.
func describeFailure(err error) (message string, raw string) {
	var upstream *extract.UpstreamError
	switch {
	case errors.Is(err, extract.ErrNoSuitableFormat):
		return "No suitable format found for this media.", err.Error()
	case errors.As(err, &upstream):
		return upstream.UserMessage(), upstream.Diagnostic
	case errors.Is(err, context.DeadlineExceeded):
		return "Extraction timed out. Please try again.", err.Error()
	default:
		return "Failed to access the requested media. The source may be restricting access.", err.Error()
	}
}
