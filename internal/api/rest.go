package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/vidgate/vidgate/internal/api/extractions"
	"github.com/vidgate/vidgate/internal/event"
	"github.com/vidgate/vidgate/pkg/logger"
)

var log = logger.Get("API")

type (
	RestConfig struct {
		HostAddr string `yaml:"host" env:"HOST_ADDR" env-default:"0.0.0.0"`
		// PORT is the conventional override used by hosting platforms.
		HostPort string `yaml:"port" env:"PORT" env-default:"8000"`
	}

	controller interface {
		SetRoutes(*echo.Group)
		SetCompatRoutes(*echo.Echo)
	}

	// dataStore represents a union of all the controller store requirements.
	dataStore interface {
		extractions.Store
	}

	// The RestGateway is a thin-wrapper around the Echo HTTP router. Its sole
	// responsibility is to create the routes VidGate exposes and to host the
	// liveness endpoints.
	RestGateway struct {
		config                *RestConfig
		serviceName           string
		serviceVersion        string
		ec                    *echo.Echo
		extractionsController controller
	}

	pingDto struct {
		Status  string `json:"status"`
		Service string `json:"service"`
		Time    string `json:"time"`
		Version string `json:"version"`
	}
)

// NewRestGateway constructs the Echo router and populates it with all the
// routes defined by the various controllers. Each controller requires
// access to its service and data store, which are provided as arguments.
func NewRestGateway(
	config *RestConfig,
	serviceName string,
	serviceVersion string,
	debug bool,
	extractionService extractions.ExtractionService,
	eventBus event.EventDispatcher,
	store dataStore,
) *RestGateway {
	ec := echo.New()
	ec.OnAddRouteHandler = func(host string, route echo.Route, handler echo.HandlerFunc, middleware []echo.MiddlewareFunc) {
		log.Emit(logger.DEBUG, "Registered new route %s %s\n", route.Method, route.Path)
	}
	ec.HidePort = true
	ec.HideBanner = true

	validate := validator.New()
	gateway := &RestGateway{
		config:                config,
		serviceName:           serviceName,
		serviceVersion:        serviceVersion,
		ec:                    ec,
		extractionsController: extractions.New(validate, extractionService, store, eventBus, debug),
	}

	ec.Use(middleware.Logger())
	ec.Use(middleware.Recover())
	ec.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.HEAD, echo.POST, echo.DELETE, echo.OPTIONS},
		AllowHeaders: []string{"*"},
	}))

	ec.GET("/", gateway.root)
	ec.GET("/ping", gateway.ping)
	ec.HEAD("/ping", gateway.pingHead)
	ec.POST("/ping", gateway.ping)
	ec.GET("/health", gateway.health)

	v1 := ec.Group("/api/v1")
	gateway.extractionsController.SetRoutes(v1)
	gateway.extractionsController.SetCompatRoutes(ec)

	return gateway
}

// Run starts the Echo router and blocks until the provided context is
// cancelled, or the router fails.
func (gateway *RestGateway) Run(parentCtx context.Context) error {
	ctx, ctxCancel := context.WithCancelCause(parentCtx)
	wg := &sync.WaitGroup{}

	addr := gateway.config.HostAddr + ":" + gateway.config.HostPort

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := gateway.ec.Start(addr); err != nil {
			ctxCancel(err)
		}
	}()

	go func(ec *echo.Echo) {
		<-ctx.Done()
		ec.Close()
	}(gateway.ec)

	wg.Wait()

	// Return cancellation cause if any, otherwise nil as parent context
	// cancellation is not an error case we should report.
	if cause := context.Cause(ctx); cause != ctx.Err() {
		return cause
	}

	return nil
}

func (gateway *RestGateway) root(ec echo.Context) error {
	return ec.JSON(http.StatusOK, map[string]any{
		"message": gateway.serviceName,
		"version": gateway.serviceVersion,
		"endpoints": map[string]string{
			"extract":  "/api/v1/extract",
			"status":   "/status/{request_id}",
			"requests": "/requests",
			"stats":    "/stats",
			"ping":     "/ping",
			"health":   "/health",
		},
	})
}

func (gateway *RestGateway) ping(ec echo.Context) error {
	return ec.JSON(http.StatusOK, pingDto{
		Status:  "online",
		Service: gateway.serviceName,
		Time:    time.Now().UTC().Format(time.RFC3339),
		Version: gateway.serviceVersion,
	})
}

// pingHead serves the HEAD probe variant, which returns an empty body
// with a success status only.
func (gateway *RestGateway) pingHead(ec echo.Context) error {
	return ec.NoContent(http.StatusOK)
}

func (gateway *RestGateway) health(ec echo.Context) error {
	return ec.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": gateway.serviceVersion,
	})
}
