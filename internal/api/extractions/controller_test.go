package extractions_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vidgate/vidgate/internal/api/extractions"
	"github.com/vidgate/vidgate/internal/audit"
	"github.com/vidgate/vidgate/internal/event"
	"github.com/vidgate/vidgate/internal/extract"
)

type stubService struct {
	result *extract.Result
	err    error

	mu       sync.Mutex
	requests []extract.Request
}

func (stub *stubService) Extract(_ context.Context, request extract.Request) (*extract.Result, error) {
	stub.mu.Lock()
	stub.requests = append(stub.requests, request)
	stub.mu.Unlock()

	return stub.result, stub.err
}

type stubStore struct {
	entries map[uuid.UUID]*audit.Entry
	recent  []*audit.Entry
	stats   *audit.Stats
}

func (stub *stubStore) GetEntry(id uuid.UUID) (*audit.Entry, error) {
	if entry, ok := stub.entries[id]; ok {
		return entry, nil
	}

	return nil, audit.ErrEntryNotFound
}

func (stub *stubStore) RecentEntries(_ int) ([]*audit.Entry, error) { return stub.recent, nil }
func (stub *stubStore) EntryStats() (*audit.Stats, error)           { return stub.stats, nil }

// busRecorder captures dispatched events so tests can assert on the audit
// entries the controller emits without a running writer.
type busRecorder struct {
	mu     sync.Mutex
	events []event.HandlerEvent
}

func (recorder *busRecorder) Dispatch(ev event.Event, payload event.Payload) {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	recorder.events = append(recorder.events, event.HandlerEvent{Event: ev, Payload: payload})
}

func (recorder *busRecorder) dispatched() []event.HandlerEvent {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	return append([]event.HandlerEvent(nil), recorder.events...)
}

func newTestServer(service *stubService, store *stubStore, recorder *busRecorder, debug bool) *echo.Echo {
	ec := echo.New()
	controller := extractions.New(validator.New(), service, store, recorder, debug)
	controller.SetRoutes(ec.Group("/api/v1"))
	controller.SetCompatRoutes(ec)

	return ec
}

func performJSON(ec *echo.Echo, method string, target string, body string) *httptest.ResponseRecorder {
	var request *http.Request
	if body == "" {
		request = httptest.NewRequest(method, target, nil)
	} else {
		request = httptest.NewRequest(method, target, strings.NewReader(body))
		request.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}

	recorder := httptest.NewRecorder()
	ec.ServeHTTP(recorder, request)
	return recorder
}

func Test_Extract_SuccessfulRequest(t *testing.T) {
	t.Parallel()

	service := &stubService{result: &extract.Result{
		Title:    "T",
		Duration: 120,
		URL:      "https://x/a.mp4",
		Ext:      "mp4",
	}}
	recorder := &busRecorder{}
	server := newTestServer(service, &stubStore{}, recorder, false)

	response := performJSON(server, http.MethodPost, "/api/v1/extract", `{"url": "https://example.com/watch?v=abc"}`)
	require.Equal(t, http.StatusOK, response.Code)

	var body extractions.ExtractionResponseDto
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &body))
	assert.Equal(t, "success", body.Status)
	assert.NotEqual(t, uuid.Nil, body.RequestID)
	assert.Equal(t, "T", body.Title)
	assert.Equal(t, 120, body.Duration)
	assert.Equal(t, "https://x/a.mp4", body.DownloadURL)
	assert.Empty(t, body.Error)

	// Omitted fields default to video/720 before the pipeline runs.
	require.Len(t, service.requests, 1)
	assert.Equal(t, extract.MediaKindVideo, service.requests[0].Kind)
	assert.Equal(t, extract.Quality720, service.requests[0].Quality)

	events := recorder.dispatched()
	require.Len(t, events, 1)
	assert.Equal(t, event.ExtractionCompleteEvent, events[0].Event)
	entry, ok := events[0].Payload.(*audit.Entry)
	require.True(t, ok)
	assert.Equal(t, audit.StatusSuccess, entry.Status)
	assert.Equal(t, body.RequestID, entry.ID)
}

func Test_Extract_CompatRouteSharesHandler(t *testing.T) {
	t.Parallel()

	service := &stubService{result: &extract.Result{Title: "T", URL: "https://x/a.mp4"}}
	server := newTestServer(service, &stubStore{}, &busRecorder{}, false)

	response := performJSON(server, http.MethodPost, "/download", `{"url": "https://example.com/v", "format_type": "audio"}`)
	require.Equal(t, http.StatusOK, response.Code)
	require.Len(t, service.requests, 1)
	assert.Equal(t, extract.MediaKindAudio, service.requests[0].Kind)
}

func Test_Extract_RejectsInvalidBodies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		summary string
		body    string
	}{
		{"missing url", `{"format_type": "video"}`},
		{"url is not a url", `{"url": "not-a-url"}`},
		{"unknown format_type", `{"url": "https://example.com/v", "format_type": "gif"}`},
		{"unknown quality", `{"url": "https://example.com/v", "quality": "4320"}`},
		{"malformed json", `{"url": `},
	}

	for _, tt := range tests {
		t.Run(tt.summary, func(t *testing.T) {
			service := &stubService{}
			recorder := &busRecorder{}
			server := newTestServer(service, &stubStore{}, recorder, false)

			response := performJSON(server, http.MethodPost, "/api/v1/extract", tt.body)
			assert.Equal(t, http.StatusBadRequest, response.Code)
			assert.Empty(t, service.requests, "rejected requests must not reach the pipeline")
			assert.Empty(t, recorder.dispatched(), "rejected requests must not be audited")
		})
	}
}

func Test_Extract_ErrorOutcomeIsAuditedAndGeneric(t *testing.T) {
	t.Parallel()

	service := &stubService{err: &extract.UpstreamError{
		Diagnostic: "ERROR: [youtube] abc: Sign in to confirm you're not a bot",
	}}
	recorder := &busRecorder{}
	server := newTestServer(service, &stubStore{}, recorder, false)

	response := performJSON(server, http.MethodPost, "/api/v1/extract", `{"url": "https://example.com/v"}`)
	require.Equal(t, http.StatusOK, response.Code, "error outcomes are delivered in-band, not as HTTP errors")

	var body extractions.ExtractionResponseDto
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &body))
	assert.Equal(t, "error", body.Status)
	assert.Equal(t, "The source blocked this request (bot protection). Please try again later.", body.Error)
	assert.Empty(t, body.RawError, "raw diagnostics are withheld unless debug is set")

	events := recorder.dispatched()
	require.Len(t, events, 1)
	entry := events[0].Payload.(*audit.Entry)
	assert.Equal(t, audit.StatusError, entry.Status)
	require.NotNil(t, entry.ErrorMsg)
	assert.Equal(t, body.Error, *entry.ErrorMsg)
}

func Test_Extract_DebugExposesRawDiagnostic(t *testing.T) {
	t.Parallel()

	service := &stubService{err: extract.ErrNoSuitableFormat}
	server := newTestServer(service, &stubStore{}, &busRecorder{}, true)

	response := performJSON(server, http.MethodPost, "/api/v1/extract", `{"url": "https://example.com/v"}`)
	require.Equal(t, http.StatusOK, response.Code)

	var body extractions.ExtractionResponseDto
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &body))
	assert.Equal(t, "No suitable format found for this media.", body.Error)
	assert.Equal(t, extract.ErrNoSuitableFormat.Error(), body.RawError)
}

func Test_Status_LooksUpAuditEntry(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	title := "T"
	store := &stubStore{entries: map[uuid.UUID]*audit.Entry{
		id: {ID: id, URL: "https://example.com/v", Status: audit.StatusSuccess, Title: &title, CreatedAt: time.Now()},
	}}
	server := newTestServer(&stubService{}, store, &busRecorder{}, false)

	response := performJSON(server, http.MethodGet, "/api/v1/status/"+id.String(), "")
	require.Equal(t, http.StatusOK, response.Code)

	var entry audit.Entry
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &entry))
	assert.Equal(t, id, entry.ID)
	assert.Equal(t, audit.StatusSuccess, entry.Status)
}

func Test_Status_ErrorsAreMappedToHTTPCodes(t *testing.T) {
	t.Parallel()

	server := newTestServer(&stubService{}, &stubStore{}, &busRecorder{}, false)

	response := performJSON(server, http.MethodGet, "/api/v1/status/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, response.Code)

	response = performJSON(server, http.MethodGet, "/api/v1/status/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, response.Code)
}

func Test_Recent_ReturnsNewestFirstDtos(t *testing.T) {
	t.Parallel()

	title := "T"
	store := &stubStore{recent: []*audit.Entry{
		{ID: uuid.New(), URL: "https://example.com/b", Status: audit.StatusError, CreatedAt: time.Now()},
		{ID: uuid.New(), URL: "https://example.com/a", Status: audit.StatusSuccess, Title: &title, CreatedAt: time.Now().Add(-time.Minute)},
	}}
	server := newTestServer(&stubService{}, store, &busRecorder{}, false)

	response := performJSON(server, http.MethodGet, "/api/v1/requests?limit=2", "")
	require.Equal(t, http.StatusOK, response.Code)

	var dtos []extractions.RecentEntryDto
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &dtos))
	require.Len(t, dtos, 2)
	assert.Equal(t, "https://example.com/b", dtos[0].URL)
	assert.Nil(t, dtos[0].Title)
	assert.Equal(t, &title, dtos[1].Title)
}

func Test_Stats_FormatsSuccessRate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		summary      string
		stats        *audit.Stats
		expectedRate string
	}{
		{
			"mixed outcomes",
			&audit.Stats{TotalRequests: 8, Successful: 6, Failed: 2, Platforms: []audit.PlatformCount{{Platform: "YouTube", Count: 8}}},
			"75.0%",
		},
		{
			"no requests yet avoids division by zero",
			&audit.Stats{},
			"0%",
		},
	}

	for _, tt := range tests {
		t.Run(tt.summary, func(t *testing.T) {
			server := newTestServer(&stubService{}, &stubStore{stats: tt.stats}, &busRecorder{}, false)

			response := performJSON(server, http.MethodGet, "/api/v1/stats", "")
			require.Equal(t, http.StatusOK, response.Code)

			var dto extractions.StatsDto
			require.NoError(t, json.Unmarshal(response.Body.Bytes(), &dto))
			assert.Equal(t, tt.expectedRate, dto.SuccessRate)
			assert.Equal(t, tt.stats.TotalRequests, dto.TotalRequests)
			assert.Len(t, dto.Platforms, len(tt.stats.Platforms))
		})
	}
}
