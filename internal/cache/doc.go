// Package cache implements the in-memory LRU cache behind the HTTP API.
//
// Store holds the data: a map from key to a node that sits both in a
// doubly-linked recency list and in a min-heap ordered by expiration. Cache wraps
// a Store with one mutex and the eviction policy:
//   - a full cache evicts an expired entry before any live one
//   - otherwise the least recently used entry goes
//   - reads always re-check expiry, so a swept or unswept expired key reads the same
package cache
