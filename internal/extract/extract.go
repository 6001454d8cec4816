// Package extract contains the metadata extraction pipeline: it maps a
// media kind and quality tier to yt-dlp options, runs the (blocking)
// extraction on a bounded worker pool, and normalizes the heterogeneous
// output into a single representative media variant.
package extract

// MediaKind selects between video and audio-only extraction.
type MediaKind string

const (
	MediaKindVideo MediaKind = "video"
	MediaKindAudio MediaKind = "audio"
)

func (kind MediaKind) IsValid() bool {
	return kind == MediaKindVideo || kind == MediaKindAudio
}

// QualityTier is a coarse vertical-resolution bound for video extraction,
// or 'best' for no cap. Audio extraction ignores the tier entirely.
type QualityTier string

const (
	Quality360  QualityTier = "360"
	Quality480  QualityTier = "480"
	Quality720  QualityTier = "720"
	Quality1080 QualityTier = "1080"
	QualityBest QualityTier = "best"
)

func (tier QualityTier) IsValid() bool {
	switch tier {
	case Quality360, Quality480, Quality720, Quality1080, QualityBest:
		return true
	}

	return false
}

// Request describes one extraction. It is immutable once constructed and
// carries no identity of its own; callers correlate it to an audit row via
// a generated UUID.
type Request struct {
	URL     string
	Kind    MediaKind
	Quality QualityTier
}

// Result is the canonical subset of the upstream extraction output, with a
// single representative direct media URL selected by the normalizer.
// Duration (seconds), Thumbnail and Filesize may be zero-valued when the
// upstream result did not include them.
type Result struct {
	Title     string
	Duration  int
	Thumbnail string
	URL       string
	Ext       string
	Filesize  int64
}
