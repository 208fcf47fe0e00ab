// Package cache keeps synthesized PCM on disk so repeated announcements
// skip synthesis. Entries are keyed by voice model and text, compressed
// with zstd, and evicted least recently used first.
package cache
