package internal

import (
	"context"
	"sync"

	"github.com/vidgate/vidgate/internal/api"
	"github.com/vidgate/vidgate/internal/audit"
	"github.com/vidgate/vidgate/internal/database"
	"github.com/vidgate/vidgate/internal/event"
	"github.com/vidgate/vidgate/internal/extract"
	"github.com/vidgate/vidgate/pkg/logger"
	"github.com/vidgate/vidgate/pkg/worker"
)

var log = logger.Get("Core")

type (
	RunnableService interface {
		Run(context.Context) error
	}
)

// vidgateImpl represents the top-level object for the server, and is
// responsible for initialising the database connection, the worker pool,
// the stores, and the services which compose VidGate.
type vidgateImpl struct {
	eventBus     event.EventCoordinator
	config       VidgateConfig
	db           database.Manager
	orchestrator *dataOrchestrator
	workerPool   *worker.WorkerPool

	restGateway *api.RestGateway
	auditWriter *audit.Writer
}

func New(config VidgateConfig) *vidgateImpl {
	if config.Debug {
		logger.SetMinLoggingLevel(logger.DEBUG)
	}
	log.Emit(logger.DEBUG, "Bootstrapping VidGate services using config: %#v\n", config)

	eventBus := event.New()
	db := database.New()
	orchestrator := newDataOrchestrator(db)

	// The worker pool is constructed here and handed to the extraction
	// service; it is owned by this struct so its lifecycle tracks Run.
	workerPool := worker.NewWorkerPool(config.Extraction.Workers)
	extractor := extract.NewYtDlpExtractor(config.Extraction.BinaryPath)
	extractService := extract.NewService(config.Extraction, extractor, workerPool)

	return &vidgateImpl{
		eventBus:     eventBus,
		config:       config,
		db:           db,
		orchestrator: orchestrator,
		workerPool:   workerPool,
		restGateway: api.NewRestGateway(
			&config.Rest,
			config.ServiceName,
			config.Version,
			config.Debug,
			extractService,
			eventBus,
			orchestrator,
		),
		auditWriter: audit.NewWriter(db, orchestrator.AuditStore),
	}
}

// Run will start all of VidGate by bringing up all required services and
// connections:
// - Database connection (including migrations)
// - Extraction worker pool
// - Audit writer
// - REST gateway
//
// This function will not return until VidGate is stopped. To stop VidGate,
// the provided context must be cancelled. Errors from which VidGate cannot
// recover will also cause it to stop.
func (vidgate *vidgateImpl) Run(parent context.Context) error {
	if err := vidgate.db.Connect(vidgate.config.Database); err != nil {
		return err
	}

	if err := vidgate.workerPool.Start(); err != nil {
		return err
	}
	defer vidgate.workerPool.Close()

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	wg := &sync.WaitGroup{}
	crashHandler := func(label string, err error) {
		log.Emit(logger.FATAL, "Service crash (%s)! %s\n", label, err.Error())
		cancel()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := vidgate.auditWriter.Run(ctx, vidgate.eventBus); err != nil {
			crashHandler("audit-writer", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := vidgate.restGateway.Run(ctx); err != nil {
			crashHandler("rest-gateway", err)
		}
	}()

	log.Emit(logger.SUCCESS, "VidGate is running on %s:%s\n", vidgate.config.Rest.HostAddr, vidgate.config.Rest.HostPort)
	wg.Wait()

	return nil
}
