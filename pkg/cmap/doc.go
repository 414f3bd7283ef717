// Package cmap provides a concurrent-safe sharded map.
//
// This package implements a sharded concurrent map used as the backing
// store for the token registry:
//
//   - Sharding: configurable power-of-two shard count for parallelism
//   - Fine-grained locking: per-shard RWMutex for minimal contention
//   - Iteration: shard-by-shard traversal while holding read locks
//   - Sweeping: RemoveIf for bulk conditional removal (expiry sweeps)
//
// All operations are safe for concurrent use. Read operations (Get, Has,
// Count) take per-shard read locks; write operations (Set, Pop, RemoveIf)
// take per-shard write locks.
package cmap
