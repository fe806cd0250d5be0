package usecase

import (
	"hash/fnv"
	"sync"
)

const lockShardCount = 32

// draftLocks provides per-draft mutual exclusion via sharded mutexes.
// Every load-mutate-save on a draft runs under its shard.
type draftLocks struct {
	shards [lockShardCount]sync.Mutex
}

func (l *draftLocks) shard(draftID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(draftID))
	return &l.shards[h.Sum32()%lockShardCount]
}

func (l *draftLocks) Lock(draftID string) {
	l.shard(draftID).Lock()
}

func (l *draftLocks) Unlock(draftID string) {
	l.shard(draftID).Unlock()
}
