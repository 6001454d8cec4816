package extract

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/vidgate/vidgate/pkg/logger"
	"github.com/vidgate/vidgate/pkg/worker"
)

var log = logger.Get("ExtractServ")

type (
	// Config holds the extraction-related subset of the service
	// configuration.
	Config struct {
		Workers        int      `yaml:"workers" env:"EXTRACTION_WORKERS" env-default:"4"`
		TimeoutSeconds int      `yaml:"timeout_seconds" env:"EXTRACTION_TIMEOUT_SECONDS" env-default:"90"`
		BinaryPath     string   `yaml:"ytdlp_path" env:"YTDLP_PATH" env-default:"yt-dlp"`
		ProxyList      []string `yaml:"proxies" env:"EXTRACTION_PROXIES"`
	}

	// extractService bridges the request-handling goroutines with the
	// blocking extraction call. Each call is submitted to the injected
	// worker pool and awaited on a per-call channel, so one slow extraction
	// cannot stall concurrent requests; calls beyond the pool capacity
	// queue on the pool's job channel.
	//
	// Completions across distinct requests arrive in whatever order the
	// workers finish. A request's own result is only ever delivered to its
	// awaiting caller.
	extractService struct {
		config    Config
		extractor Extractor
		pool      *worker.WorkerPool
	}

	outcome struct {
		info *RawInfo
		err  error
	}
)

// NewService creates the extraction service. The worker pool is an owned
// resource constructed by the caller; this service only submits jobs to it
// and never manages its lifecycle.
func NewService(config Config, extractor Extractor, pool *worker.WorkerPool) *extractService {
	return &extractService{
		config:    config,
		extractor: extractor,
		pool:      pool,
	}
}

// Extract runs the full extraction pipeline for one request: option
// building, the pooled blocking call, and normalization. The call carries
// an explicit deadline; once it expires the caller receives an error while
// the in-flight upstream call runs to completion on its worker (there is
// no way to abort it sooner than its context allows) and its result is
// dropped.
func (service *extractService) Extract(ctx context.Context, request Request) (*Result, error) {
	options := BuildOptions(request.Kind, request.Quality)
	if proxy := service.chooseProxy(); proxy != "" {
		log.Debugf("Using proxy %s for extraction of %s\n", proxy, request.URL)
		options.Proxy = proxy
	}

	callCtx, cancel := context.WithTimeout(ctx, time.Duration(service.config.TimeoutSeconds)*time.Second)
	defer cancel()

	// Buffered so a late worker completion never blocks after the
	// awaiting caller has given up.
	resultChan := make(chan outcome, 1)
	err := service.pool.Submit(func() {
		info, err := service.extractor.ExtractInfo(callCtx, request.URL, options)
		resultChan <- outcome{info, err}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to offload extraction call: %w", err)
	}

	select {
	case out := <-resultChan:
		if out.err != nil {
			return nil, out.err
		}

		return Normalize(out.info)
	case <-callCtx.Done():
		return nil, fmt.Errorf("extraction of %s abandoned: %w", request.URL, callCtx.Err())
	}
}

// chooseProxy picks a random entry from the configured static proxy list,
// or returns an empty string when the list is empty. Best-effort only; the
// list ships empty as a placeholder.
func (service *extractService) chooseProxy() string {
	if len(service.config.ProxyList) == 0 {
		return ""
	}

	return service.config.ProxyList[rand.Intn(len(service.config.ProxyList))]
}
