package audit

import (
	"context"

	"github.com/vidgate/vidgate/internal/database"
	"github.com/vidgate/vidgate/internal/event"
	"github.com/vidgate/vidgate/pkg/logger"
)

var log = logger.Get("AuditWriter")

// Writer consumes extraction-complete events off the event bus and
// persists them, fully decoupled from the response path. Persistence is
// best-effort and intentionally lossy: each entry gets at most one write
// attempt, failures are logged and swallowed, and under database
// unavailability the audit history silently gains a gap while requests
// keep succeeding from the caller's perspective.
type Writer struct {
	db    database.Manager
	store *Store
}

func NewWriter(db database.Manager, store *Store) *Writer {
	return &Writer{db: db, store: store}
}

// Run subscribes to the event bus and blocks, persisting entries as they
// arrive, until the provided context is cancelled. Entries still queued at
// cancellation are drained before Run returns, so a graceful shutdown does
// not drop pending writes.
func (writer *Writer) Run(ctx context.Context, eventBus event.EventHandler) error {
	queue := make(event.HandlerChannel, 128)
	eventBus.RegisterHandlerChannel(queue, event.ExtractionCompleteEvent)

	for {
		select {
		case message := <-queue:
			writer.handle(message)
		case <-ctx.Done():
			log.Emit(logger.STOP, "Shutting down (context cancelled). Draining queued audit writes.\n")
			for {
				select {
				case message := <-queue:
					writer.handle(message)
				default:
					return nil
				}
			}
		}
	}
}

func (writer *Writer) handle(message event.HandlerEvent) {
	entry, ok := message.Payload.(*Entry)
	if !ok {
		log.Errorf("Discarding %s event with unexpected payload %#v\n", message.Event, message.Payload)
		return
	}

	writer.persist(entry)
}

// persist makes the single write attempt for the entry's row and its event
// trail. Errors are recorded to process diagnostics only; they must never
// reach the HTTP caller, whose response has already been delivered.
func (writer *Writer) persist(entry *Entry) {
	db := writer.db.GetSqlxDb()
	if db == nil {
		log.Warnf("Audit write for request %s skipped: database is not connected\n", entry.ID)
		return
	}

	if err := writer.store.Save(db, entry); err != nil {
		log.Warnf("Audit write for request %s failed: %s\n", entry.ID, err.Error())
		return
	}

	if err := writer.store.RecordEvent(db, entry.ID, string(entry.Status), entry); err != nil {
		log.Warnf("Audit event write for request %s failed: %s\n", entry.ID, err.Error())
	}

	log.Debugf("Audit record for request %s persisted\n", entry.ID)
}
