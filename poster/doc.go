// Package poster loads movie poster images referenced by tmdb listing items.
//
// A Loader wraps a ResponseCache as a read-through cache: it looks up the
// poster URL, decodes the cached bytes on a hit, and on a miss fetches the
// poster, decodes it, stores the original bytes and returns the image.
// Entries that fail to decode are treated as misses.
//
// Cache backends:
//
//   - MemoryCache: bounded in-process LRU
//   - RedisCache: shared cache backed by Redis hashes
//   - SQLiteCache: on-disk cache in a single SQLite table
//   - NullCache: caching disabled
//
// Concurrent LoadImage calls for the same uncached poster may each fetch it;
// the last write wins.
package poster
