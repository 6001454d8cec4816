package audit_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vidgate/vidgate/internal/audit"
	"github.com/vidgate/vidgate/internal/database"
	"github.com/vidgate/vidgate/internal/event"
	"github.com/vidgate/vidgate/internal/extract"
)

// The writer must survive (and swallow) every persistence failure mode;
// here the database manager is never connected, so each write attempt is
// skipped with a warning. The events still flow and Run still shuts down
// cleanly, which is the contract the response path relies on.
func Test_Writer_SwallowsPersistenceFailures(t *testing.T) {
	t.Parallel()

	eventBus := event.New()
	writer := audit.NewWriter(database.New(), &audit.Store{})

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)

	var runErr error
	go func() {
		defer wg.Done()
		runErr = writer.Run(ctx, eventBus)
	}()

	// Give Run a moment to register its handler channel before dispatching.
	time.Sleep(50 * time.Millisecond)

	request := extract.Request{URL: "https://example.com/v", Kind: extract.MediaKindVideo, Quality: extract.Quality720}
	for i := 0; i < 5; i++ {
		eventBus.Dispatch(event.ExtractionCompleteEvent, audit.NewErrorEntry(
			uuid.New(), request, "upstream failure", "203.0.113.7", "test-agent",
		))
	}

	// A payload of the wrong type is discarded without derailing the loop.
	eventBus.Dispatch(event.ExtractionCompleteEvent, "not an entry")

	cancel()
	wg.Wait()
	assert.NoError(t, runErr)
}

func Test_NewSuccessEntry_CapturesResultFields(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	request := extract.Request{URL: "https://example.com/v", Kind: extract.MediaKindVideo, Quality: extract.Quality1080}
	result := &extract.Result{
		Title:     "T",
		Duration:  120,
		Thumbnail: "https://x/t.jpg",
		URL:       "https://x/a.mp4",
		Ext:       "mp4",
		Filesize:  4096,
	}

	entry := audit.NewSuccessEntry(id, request, result, "203.0.113.7", "test-agent")
	assert.Equal(t, id, entry.ID)
	assert.Equal(t, audit.StatusSuccess, entry.Status)
	assert.Equal(t, "video", entry.FormatType)
	assert.Equal(t, "1080", entry.Quality)

	require.NotNil(t, entry.DownloadURL)
	assert.Equal(t, "https://x/a.mp4", *entry.DownloadURL)
	require.NotNil(t, entry.Duration)
	assert.Equal(t, 120, *entry.Duration)
	require.NotNil(t, entry.Filesize)
	assert.EqualValues(t, 4096, *entry.Filesize)
	assert.Nil(t, entry.ErrorMsg)
}

func Test_NewErrorEntry_CapturesFailure(t *testing.T) {
	t.Parallel()

	request := extract.Request{URL: "https://example.com/v", Kind: extract.MediaKindAudio, Quality: extract.QualityBest}
	entry := audit.NewErrorEntry(uuid.New(), request, "no suitable format found", "203.0.113.7", "test-agent")

	assert.Equal(t, audit.StatusError, entry.Status)
	assert.Equal(t, "audio", entry.FormatType)
	require.NotNil(t, entry.ErrorMsg)
	assert.Equal(t, "no suitable format found", *entry.ErrorMsg)
	assert.Nil(t, entry.DownloadURL)
}
