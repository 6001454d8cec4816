package extract_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vidgate/vidgate/internal/extract"
)

func Test_UpstreamError_UserMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		summary    string
		diagnostic string
		expected   string
	}{
		{
			"bot protection is called out",
			"ERROR: [youtube] abc: Sign in to confirm you're not a bot. Use --cookies ...",
			"The source blocked this request (bot protection). Please try again later.",
		},
		{
			"truncated upstream responses are called out",
			"ERROR: Incomplete data received. Retrying...",
			"The source returned incomplete data. Please try again.",
		},
		{
			"anything else collapses to a generic message",
			"ERROR: [generic] unable to download webpage (403)",
			"Failed to access the requested media. The source may be restricting access.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.summary, func(t *testing.T) {
			err := &extract.UpstreamError{Diagnostic: tt.diagnostic}
			assert.Equal(t, tt.expected, err.UserMessage())
			assert.Contains(t, err.Error(), tt.diagnostic, "raw diagnostic stays on the error for logs")
		})
	}
}
