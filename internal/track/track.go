package track

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	"github.com/samber/lo"
)

const (
	// PlaceholderTitle is shown when the lookup fails.
	PlaceholderTitle = "Unsupported Title"
	// PlaceholderViews is shown when the lookup fails or carries no view count.
	PlaceholderViews = "Unknown Views"
	// LiveText replaces the duration label for live tracks.
	LiveText = "Live"
)

// Source tells whether metadata came from a lookup or is the fixed placeholder.
type Source int

const (
	// SourceLookup marks metadata returned by the search service.
	SourceLookup Source = iota
	// SourcePlaceholder marks the fallback used when the lookup failed.
	SourcePlaceholder
)

func (s Source) String() string {
	if s == SourcePlaceholder {
		return "placeholder"
	}
	return "lookup"
}

// Metadata is everything the compositor needs about a track.
// An empty Duration means the service returned none.
type Metadata struct {
	Title    string
	CoverURL string
	Duration string
	Views    string
	Source   Source
}

// Placeholder returns the metadata used when the lookup fails.
func Placeholder(defaultCoverURL string) Metadata {
	return Metadata{
		Title:    PlaceholderTitle,
		CoverURL: defaultCoverURL,
		Views:    PlaceholderViews,
		Source:   SourcePlaceholder,
	}
}

// IsPlaceholder reports whether m is the lookup-failure fallback.
func (m Metadata) IsPlaceholder() bool {
	return m.Source == SourcePlaceholder
}

// IsLive reports whether m has no fixed duration.
func (m Metadata) IsLive() bool {
	return IsLive(m.Duration)
}

// DurationText is the label drawn at the right end of the progress bar.
func (m Metadata) DurationText() string {
	return DurationText(m.Duration)
}

var liveDurations = []string{"", "live", "live now"}

// IsLive reports whether a duration string denotes a live stream: empty, or
// "live" / "live now" in any case.
func IsLive(duration string) bool {
	return lo.Contains(liveDurations, strings.ToLower(duration))
}

// DurationText returns "Live" for live durations and the duration otherwise.
func DurationText(duration string) string {
	return lo.Ternary(IsLive(duration), LiveText, duration)
}

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}_]+`)

// NormalizeTitle collapses every run of non-word characters into a single
// space and title-cases the result. A letter following any non-letter
// starts a new word, so "hello2world" becomes "Hello2World".
func NormalizeTitle(title string) string {
	collapsed := nonWord.ReplaceAllString(title, " ")

	var b strings.Builder
	b.Grow(len(collapsed))
	prevCased := false
	for _, r := range collapsed {
		cased := unicode.IsUpper(r) || unicode.IsLower(r) || unicode.IsTitle(r)
		switch {
		case cased && prevCased:
			b.WriteRune(unicode.ToLower(r))
		case cased:
			b.WriteRune(unicode.ToTitle(r))
		default:
			b.WriteRune(r)
		}
		prevCased = cased
	}
	return b.String()
}

// ErrInvalidIdentifier is returned for identifiers that cannot safely name
// a cache file.
var ErrInvalidIdentifier = errors.New("invalid track identifier")

// ValidateIdentifier rejects identifiers that are empty, contain a path
// separator or NUL, or are the relative directory names "." and "..".
func ValidateIdentifier(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, "/\\\x00") {
		return ErrInvalidIdentifier
	}
	return nil
}
