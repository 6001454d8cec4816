package extract

import "errors"

// ErrNoSuitableFormat indicates extraction succeeded but no direct media
// URL could be derived from the result. This is an error outcome for the
// request, not a fault.
var ErrNoSuitableFormat = errors.New("no suitable format found")

// Normalize reduces the upstream result to a single representative
// variant.
//
// The top-level direct URL is used verbatim when present. Otherwise a
// candidate list is scanned: 'requested_formats' when the upstream chose
// muxed alternatives, else the full 'formats' list. In both cases the LAST
// entry carrying a URL wins - upstream orders format lists worst-first, so
// the last entry is assumed to be the richest variant. This is a heuristic
// applied uniformly to both lists, not a guarantee.
func Normalize(info *RawInfo) (*Result, error) {
	result := &Result{
		Title:     info.Title,
		Duration:  int(info.Duration),
		Thumbnail: info.Thumbnail,
		URL:       info.URL,
		Ext:       info.Ext,
		Filesize:  info.Filesize,
	}

	if result.Title == "" {
		result.Title = "Unknown"
	}
	if result.Filesize == 0 {
		result.Filesize = info.FilesizeApprox
	}

	if result.URL == "" {
		candidates := info.RequestedFormats
		if len(candidates) == 0 {
			candidates = info.Formats
		}

		for i := len(candidates) - 1; i >= 0; i-- {
			if candidates[i].URL == "" {
				continue
			}

			result.URL = candidates[i].URL
			if result.Ext == "" {
				result.Ext = candidates[i].Ext
			}
			if result.Filesize == 0 {
				result.Filesize = candidates[i].Filesize
			}

			break
		}
	}

	if result.URL == "" {
		return nil, ErrNoSuitableFormat
	}

	return result, nil
}
