// Package media composes the "now playing" poster.
//
// Composition is pure: given a downloaded cover file and track metadata it
// returns an image and never touches the network or the cache. The steps,
// in drawing order, are:
//   - Background: the cover stretched to the canvas, Gaussian-blurred and darkened
//   - Frosted panel: a translucent white rounded rectangle over the centre
//   - Thumbnail: the unblurred cover in a rounded frame at the top of the panel
//   - Text: truncated title and "<source> | <views>" line, centred
//   - Progress bar: static red/gray bar with scrubber and time labels
//   - Icons: an optional decorative strip from an asset file
//
// Fonts are loaded once with [LoadFonts]; faces are created per composition
// because opentype faces are not safe for concurrent use.
package media
