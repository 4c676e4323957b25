/*
Package filesystem provides the cache-directory operations the renderer
depends on: stat with retry for NFS stale file handles, and atomic writes
so a reader never observes a partially written poster.

# Retry Behavior

Only ESTALE (stale file handle) errors trigger retries; all other errors
fail immediately. Defaults: 3 retries, 50ms initial backoff doubling up to
500ms.

	info, err := filesystem.StatWithRetry(cachePath, filesystem.DefaultRetryConfig())

# Atomic Writes

[WriteAtomic] writes to a temporary file in the destination directory and
renames it into place only after the write callback and fsync succeed.

	err := filesystem.WriteAtomic(cachePath, func(w io.Writer) error {
	    return png.Encode(w, img)
	})
*/
package filesystem
