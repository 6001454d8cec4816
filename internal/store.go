package internal

import (
	"github.com/google/uuid"
	"github.com/vidgate/vidgate/internal/audit"
	"github.com/vidgate/vidgate/internal/database"
)

type (
	// dataOrchestrator links the 'dumb' data stores below it with the
	// database instance, exposing query methods that do not require the
	// caller to hold a database handle themselves.
	dataOrchestrator struct {
		db         database.Manager
		AuditStore *audit.Store
	}
)

func newDataOrchestrator(db database.Manager) *dataOrchestrator {
	return &dataOrchestrator{
		db:         db,
		AuditStore: audit.NewStore(),
	}
}

func (orchestrator *dataOrchestrator) GetEntry(id uuid.UUID) (*audit.Entry, error) {
	return orchestrator.AuditStore.Get(orchestrator.db.GetSqlxDb(), id)
}

func (orchestrator *dataOrchestrator) RecentEntries(limit int) ([]*audit.Entry, error) {
	return orchestrator.AuditStore.Recent(orchestrator.db.GetSqlxDb(), limit)
}

func (orchestrator *dataOrchestrator) EntryStats() (*audit.Stats, error) {
	return orchestrator.AuditStore.Stats(orchestrator.db.GetSqlxDb())
}
