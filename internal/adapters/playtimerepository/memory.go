package playtimerepository

import (
	"context"
	"sort"
	"sync"

	"github.com/pathways-mc/pathways/internal/domain"
)

// InMemory keeps playtime counters in process memory. Used in development
// when no database is available; counters are lost on restart.
type InMemory struct {
	mutex   sync.Mutex
	minutes map[domain.TimeBucket]map[string]int
}

func NewInMemory() *InMemory {
	return &InMemory{
		minutes: make(map[domain.TimeBucket]map[string]int),
	}
}

func (r *InMemory) bucketCounters(bucket domain.TimeBucket) map[string]int {
	counters, ok := r.minutes[bucket]
	if !ok {
		counters = make(map[string]int)
		r.minutes[bucket] = counters
	}
	return counters
}

func (r *InMemory) PlayTime(ctx context.Context, playerUUID string, bucket domain.TimeBucket) (int, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.bucketCounters(bucket)[playerUUID], nil
}

func (r *InMemory) AddPlayTime(ctx context.Context, playerUUID string, bucket domain.TimeBucket, minutes int) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.bucketCounters(bucket)[playerUUID] += minutes
	return nil
}

func (r *InMemory) SetPlayTime(ctx context.Context, playerUUID string, bucket domain.TimeBucket, minutes int) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.bucketCounters(bucket)[playerUUID] = minutes
	return nil
}

func (r *InMemory) ResetBucket(ctx context.Context, bucket domain.TimeBucket) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	delete(r.minutes, bucket)
	return nil
}

func (r *InMemory) TopPlayTimes(ctx context.Context, bucket domain.TimeBucket, limit int) ([]domain.PlayTimeEntry, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	entries := make([]domain.PlayTimeEntry, 0, len(r.minutes[bucket]))
	for playerUUID, minutes := range r.minutes[bucket] {
		entries = append(entries, domain.PlayTimeEntry{PlayerUUID: playerUUID, Minutes: minutes})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Minutes != entries[j].Minutes {
			return entries[i].Minutes > entries[j].Minutes
		}
		return entries[i].PlayerUUID < entries[j].PlayerUUID
	})

	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
