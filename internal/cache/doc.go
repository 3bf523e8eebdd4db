// Package cache provides a file-based cache of extracted diagnostics.
//
// Entries are keyed by a SHA-256 hash of the raw log bytes together with a
// fingerprint of the extraction options, so any change to markers, patterns
// or normalization invalidates them. Each entry is a msgpack document holding
// the detected encoding, the diagnostics and a creation timestamp. Expired
// and corrupt entries are treated as misses and removed on read.
//
// The default cache directory is $XDG_CACHE_HOME/warndiff (or the
// OS-appropriate equivalent).
package cache
