// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package memory implements the MemoryCache ObjectStore decorator
// (spec.md §4.3): an in-process LRU of segment bytes in front of an inner
// backend. Only the upcall thread is expected to touch it (spec.md §5);
// it holds its own mutex only so CheckInvariants-style reasoning about
// the underlying lrucache stays simple under test concurrency.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/logfuse/internal/lrucache"
	"github.com/google/logfuse/objectstore"
)

// Cache wraps a backend with an LRU of size capacity segments.
type Cache struct {
	inner objectstore.Store

	mu  sync.Mutex
	lru *lrucache.Cache
}

// New wraps inner with an LRU holding at most capacity segments.
func New(inner objectstore.Store, capacity int) *Cache {
	return &Cache{inner: inner, lru: lrucache.New(capacity)}
}

func segmentKey(id uint64) string {
	return fmt.Sprintf("%d", id)
}

// GetSegment returns the cached bytes on a hit; on a miss it delegates to
// inner and inserts the result.
func (c *Cache) GetSegment(ctx context.Context, id uint64) ([]byte, error) {
	key := segmentKey(id)

	c.mu.Lock()
	if v := c.lru.LookUp(key); v != nil {
		c.mu.Unlock()
		return v.([]byte), nil
	}
	c.mu.Unlock()

	data, err := c.inner.GetSegment(ctx, id)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.lru.Insert(key, data)
	c.mu.Unlock()
	return data, nil
}

// PutSegment is write-through: the backend is always written, and the
// bytes are also inserted into the LRU so a subsequent read hits memory.
func (c *Cache) PutSegment(ctx context.Context, id uint64, data []byte) error {
	if err := c.inner.PutSegment(ctx, id, data); err != nil {
		return err
	}
	c.mu.Lock()
	c.lru.Insert(segmentKey(id), data)
	c.mu.Unlock()
	return nil
}

// GetCheckpoint passes through unchanged; checkpoints are not cached.
func (c *Cache) GetCheckpoint(ctx context.Context) ([]byte, error) {
	return c.inner.GetCheckpoint(ctx)
}

// PutCheckpoint passes through unchanged.
func (c *Cache) PutCheckpoint(ctx context.Context, data []byte) error {
	return c.inner.PutCheckpoint(ctx, data)
}

// Flush delegates to the inner backend.
func (c *Cache) Flush(ctx context.Context) error {
	return c.inner.Flush(ctx)
}

// Create delegates to the inner backend.
func (c *Cache) Create(ctx context.Context) error {
	return c.inner.Create(ctx)
}

var _ objectstore.Store = (*Cache)(nil)
