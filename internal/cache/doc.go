// Package cache stores fetched pages so repeated runs can skip the browser.
//
// Two stores are provided: FileStore keeps one JSON file per URL under a directory,
// RedisStore keeps entries in Redis. Both expire entries after a TTL and report a
// missing or expired entry as ErrMiss.
package cache
