package search

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"nowplaying/internal/track"
)

var errInvalidJSON = errors.New("invalid search response json")

// parseResponse extracts the first result from a search response body.
func parseResponse(body []byte, defaultCoverURL string) (track.Metadata, error) {
	if !gjson.ValidBytes(body) {
		return track.Metadata{}, errInvalidJSON
	}

	results := gjson.GetBytes(body, "result")
	if !results.Exists() {
		return track.Metadata{}, ErrNoResults
	}
	if !results.IsArray() {
		return track.Metadata{}, fmt.Errorf("unexpected type for result: %s", results.Type)
	}
	first := results.Get("0")
	if !first.Exists() {
		return track.Metadata{}, ErrNoResults
	}
	if !first.IsObject() {
		return track.Metadata{}, fmt.Errorf("unexpected type for result.0: %s", first.Type)
	}

	meta := track.Metadata{
		Title:    track.PlaceholderTitle,
		CoverURL: defaultCoverURL,
		Views:    track.PlaceholderViews,
		Source:   track.SourceLookup,
	}

	switch title := first.Get("title"); title.Type { //nolint:exhaustive
	case gjson.Null:
	case gjson.String:
		// A blank title is drawn blank. The placeholder text is only for
		// a missing title or a failed lookup.
		meta.Title = track.NormalizeTitle(title.Str)
	default:
		return track.Metadata{}, fmt.Errorf("unexpected type for title: %s", title.Type)
	}

	cover, err := coverURL(first.Get("thumbnails"))
	if err != nil {
		return track.Metadata{}, err
	}
	if cover != "" {
		meta.CoverURL = cover
	}

	switch duration := first.Get("duration"); duration.Type { //nolint:exhaustive
	case gjson.Null:
	case gjson.String:
		meta.Duration = duration.Str
	default:
		return track.Metadata{}, fmt.Errorf("unexpected type for duration: %s", duration.Type)
	}

	views := first.Get("viewCount")
	switch {
	case !views.Exists() || views.Type == gjson.Null:
	case views.IsObject():
		switch short := views.Get("short"); short.Type { //nolint:exhaustive
		case gjson.Null:
		case gjson.String:
			if short.Str != "" {
				meta.Views = short.Str
			}
		default:
			return track.Metadata{}, fmt.Errorf("unexpected type for viewCount.short: %s", short.Type)
		}
	default:
		return track.Metadata{}, fmt.Errorf("unexpected type for viewCount: %s", views.Type)
	}

	return meta, nil
}

// coverURL returns the first thumbnail URL, or "" when the result has none.
func coverURL(thumbnails gjson.Result) (string, error) {
	if !thumbnails.Exists() || thumbnails.Type == gjson.Null {
		return "", nil
	}
	if !thumbnails.IsArray() {
		return "", fmt.Errorf("unexpected type for thumbnails: %s", thumbnails.Type)
	}
	first := thumbnails.Get("0")
	if !first.Exists() {
		return "", nil
	}
	if !first.IsObject() {
		return "", fmt.Errorf("unexpected type for thumbnails.0: %s", first.Type)
	}
	switch u := first.Get("url"); u.Type { //nolint:exhaustive
	case gjson.Null:
		return "", nil
	case gjson.String:
		return u.Str, nil
	default:
		return "", fmt.Errorf("unexpected type for thumbnails.0.url: %s", u.Type)
	}
}
