// Package storage holds the repository back ends and the typed stores built
// on top of them.
package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lychee-technology/inquiry"
)

// MemoryRepository keeps snapshots in process memory. It is the default
// back end and the one tests use.
type MemoryRepository struct {
	mu      sync.RWMutex
	data    map[string]map[string]inquiry.Record
	nowFunc func() time.Time
}

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		data:    make(map[string]map[string]inquiry.Record),
		nowFunc: time.Now,
	}
}

func (r *MemoryRepository) withClock(now func() time.Time) {
	if now == nil {
		return
	}
	r.nowFunc = now
}

func (r *MemoryRepository) Create(ctx context.Context, collection, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.data[collection]
	if c == nil {
		c = make(map[string]inquiry.Record)
		r.data[collection] = c
	}
	if _, ok := c[key]; ok {
		return inquiry.NewAlreadyExistsError(collection, key)
	}
	c[key] = r.record(collection, key, value)
	return nil
}

func (r *MemoryRepository) Read(ctx context.Context, collection, key string) (*inquiry.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.data[collection][key]
	if !ok {
		return nil, inquiry.NewNotFoundError(collection, key)
	}
	rec.Value = append([]byte(nil), rec.Value...)
	return &rec, nil
}

func (r *MemoryRepository) Update(ctx context.Context, collection, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.data[collection][key]; !ok {
		return inquiry.NewNotFoundError(collection, key)
	}
	r.data[collection][key] = r.record(collection, key, value)
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, collection, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.data[collection][key]; !ok {
		return inquiry.NewNotFoundError(collection, key)
	}
	delete(r.data[collection], key)
	return nil
}

func (r *MemoryRepository) List(ctx context.Context, collection string) ([]inquiry.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]inquiry.Record, 0, len(r.data[collection]))
	for _, rec := range r.data[collection] {
		rec.Value = append([]byte(nil), rec.Value...)
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (r *MemoryRepository) record(collection, key string, value []byte) inquiry.Record {
	return inquiry.Record{
		Collection: collection,
		Key:        key,
		Value:      append([]byte(nil), value...),
		UpdatedAt:  time.UnixMilli(r.nowFunc().UnixMilli()).UTC(),
	}
}
