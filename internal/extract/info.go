package extract

type (
	// RawFormat is one candidate encoded variant from the upstream
	// extraction output.
	RawFormat struct {
		URL        string  `json:"url"`
		FormatID   string  `json:"format_id"`
		Ext        string  `json:"ext"`
		FormatNote string  `json:"format_note"`
		Resolution string  `json:"resolution"`
		Height     int     `json:"height"`
		Width      int     `json:"width"`
		Filesize   int64   `json:"filesize"`
		Tbr        float64 `json:"tbr"`
	}

	// RawInfo is the nested structure emitted by yt-dlp's single-JSON dump,
	// reduced to the fields the normalizer inspects. Any of them may be
	// absent upstream; the zero value stands in when they are.
	RawInfo struct {
		Title            string      `json:"title"`
		Duration         float64     `json:"duration"`
		Thumbnail        string      `json:"thumbnail"`
		URL              string      `json:"url"`
		Ext              string      `json:"ext"`
		Filesize         int64       `json:"filesize"`
		FilesizeApprox   int64       `json:"filesize_approx"`
		Uploader         string      `json:"uploader"`
		Formats          []RawFormat `json:"formats"`
		RequestedFormats []RawFormat `json:"requested_formats"`
	}
)
