package thumbnail

import "nowplaying/internal/track"

// Outcome says how a Result was produced.
type Outcome int

const (
	// OutcomeCached means the poster already existed.
	OutcomeCached Outcome = iota
	// OutcomeRendered means the poster was drawn by this call.
	OutcomeRendered
	// OutcomeFallback means the cover could not be downloaded and URL
	// holds the default thumbnail.
	OutcomeFallback
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCached:
		return "cached"
	case OutcomeRendered:
		return "rendered"
	case OutcomeFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Result is either a local poster path or a remote fallback URL.
type Result struct {
	Outcome Outcome
	// Path is set for OutcomeCached and OutcomeRendered.
	Path string
	// URL is set for OutcomeFallback.
	URL string
	// Metadata is what the pipeline used. Zero for OutcomeCached.
	Metadata track.Metadata
}

// Location returns the path or the URL, whichever is set.
func (r Result) Location() string {
	if r.Outcome == OutcomeFallback {
		return r.URL
	}
	return r.Path
}

// IsFallback reports whether the poster could not be produced.
func (r Result) IsFallback() bool {
	return r.Outcome == OutcomeFallback
}
