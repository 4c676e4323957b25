/*
Package thumbnail renders "now playing" posters on demand.

[Renderer.Render] turns a track identifier into a poster file:

	identifier -> cache check -> metadata lookup -> cover download
	           -> composition -> cache write -> path

Failures degrade in two tiers, expressed in the [Result] rather than by
swallowing errors:

  - A failed lookup is replaced by placeholder metadata and the render
    continues.
  - A failed cover download aborts the render; the result is
    [OutcomeFallback] carrying the configured default thumbnail URL and no
    cache file is written.

Anything that goes wrong after the cover is on disk (decode, composition,
encoding, the cache write) is returned as an error.

# Cache

Posters live at <cacheDir>/<identifier>_FHD.png and are never invalidated.
They are written to a temporary file and renamed into place, so a poster
under its final name is always complete. The downloaded cover is kept at
<cacheDir>/thumb<identifier>.png only while the poster is composed.

# Concurrency

Concurrent calls for the same identifier share one pipeline run
(singleflight); every caller receives the same Result. Compositions across
identifiers are bounded by a semaphore because each holds several
full-resolution images in memory.
*/
package thumbnail
