// Package track defines the metadata a poster is rendered from and the
// small classification rules applied to it: live detection, title
// normalization, and identifier validation.
package track
