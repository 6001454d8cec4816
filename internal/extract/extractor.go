package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/vidgate/vidgate/pkg/logger"
)

var extractorLog = logger.Get("Extractor")

type (
	// Extractor runs a single blocking metadata extraction. The call may
	// block for several seconds on network I/O; callers are expected to run
	// it off their own goroutine (see service.go) and to bound it with the
	// provided context.
	Extractor interface {
		ExtractInfo(ctx context.Context, url string, options Options) (*RawInfo, error)
	}

	// ytDlpExtractor shells out to the yt-dlp binary in metadata-only mode.
	// No media bytes are fetched to local storage.
	ytDlpExtractor struct {
		binaryPath string
	}
)

// UpstreamError wraps a failure reported by the extraction tool. The
// Diagnostic text comes straight from the tool's stderr and must not be
// assumed stable across upstream versions; UserMessage maps it to a
// generic, presentable message.
type UpstreamError struct {
	Diagnostic string
	cause      error
}

func (err *UpstreamError) Error() string {
	if err.Diagnostic != "" {
		return fmt.Sprintf("extraction failed: %s", err.Diagnostic)
	}

	return fmt.Sprintf("extraction failed: %s", err.cause.Error())
}

func (err *UpstreamError) Unwrap() error { return err.cause }

// UserMessage returns a stable, user-presentable description of the
// failure. Known upstream failure modes get a specific message; everything
// else collapses to a generic one.
func (err *UpstreamError) UserMessage() string {
	switch {
	case strings.Contains(err.Diagnostic, "Sign in to confirm you're not a bot"):
		return "The source blocked this request (bot protection). Please try again later."
	case strings.Contains(err.Diagnostic, "Incomplete data received"):
		return "The source returned incomplete data. Please try again."
	default:
		return "Failed to access the requested media. The source may be restricting access."
	}
}

// NewYtDlpExtractor constructs an extractor which invokes the yt-dlp
// binary found at binaryPath (resolved against $PATH when it is a bare
// name). An empty path defaults to 'yt-dlp'.
func NewYtDlpExtractor(binaryPath string) *ytDlpExtractor {
	if binaryPath == "" {
		binaryPath = "yt-dlp"
	}

	return &ytDlpExtractor{binaryPath: binaryPath}
}

// ExtractInfo invokes yt-dlp with a single-JSON dump of the metadata for
// the given URL, applying the provided options. The returned RawInfo is
// the tool's output parsed as-is; selection of a representative variant is
// left to Normalize.
func (extractor *ytDlpExtractor) ExtractInfo(ctx context.Context, url string, options Options) (*RawInfo, error) {
	args := append(options.Args(), "--dump-single-json", "--skip-download", url)
	cmd := exec.CommandContext(ctx, extractor.binaryPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	extractorLog.Debugf("Running %s %s\n", extractor.binaryPath, strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		diagnostic := strings.TrimSpace(stderr.String())
		extractorLog.Errorf("Extraction for %s failed: %s\n", url, diagnostic)
		return nil, &UpstreamError{Diagnostic: diagnostic, cause: err}
	}

	var info RawInfo
	if err := json.Unmarshal(stdout.Bytes(), &info); err != nil {
		return nil, &UpstreamError{
			Diagnostic: fmt.Sprintf("malformed metadata output: %s", err.Error()),
			cause:      err,
		}
	}

	return &info, nil
}
