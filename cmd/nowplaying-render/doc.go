// Command nowplaying-render renders now-playing posters from the command
// line with the same pipeline as the server.
//
// Usage:
//
//	nowplaying-render [--cache-dir DIR] [--no-ledger] [--parallel N] ID...
//
// One line is printed per identifier, in argument order. On a terminal
// each line is labeled with the identifier and outcome:
//
//	dQw4w9WgXcQ: rendered /srv/cache/dQw4w9WgXcQ_FHD.png
//
// Otherwise only the location is printed, a cache path for cached and
// rendered posters or the default thumbnail URL for fallbacks, so the
// output can be piped. Failures go to stderr and the exit status is 1 if
// any identifier failed.
//
// Configuration is read from the environment and an optional .env file,
// exactly as for the server.
package main
