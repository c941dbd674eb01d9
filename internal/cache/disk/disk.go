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

// Package disk implements the DiskCache ObjectStore decorator (spec.md
// §4.3): an LRU of recently read/written segment bytes kept as files
// under a scratch directory, sized by count of segment files rather than
// bytes. Grounded on the teacher's internal/cache/file package split
// (cache handler owning a directory, cache handle owning one file) and
// internal/lrucache for the eviction policy.
package disk

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/logfuse/internal/lrucache"
	"github.com/google/logfuse/objectstore"
	"github.com/google/uuid"
)

// fsCacheTag is the fixed directory name segment this cache creates under
// its parent scratch directory (spec.md §4.3: "<parent>/<fs-cache-tag>").
const fsCacheTag = "logfuse-disk-cache"

// Cache wraps a backend with an on-disk LRU of segment files.
type Cache struct {
	inner objectstore.Store
	dir   string

	mu  sync.Mutex
	lru *lrucache.Cache
}

// New creates the scratch directory <parent>/logfuse-disk-cache (tagged
// further with a random suffix so concurrent mounts of the same parent
// don't collide) and wraps inner with an LRU of at most capacity segment
// files.
func New(inner objectstore.Store, parent string, capacity int) (*Cache, error) {
	dir := filepath.Join(parent, fmt.Sprintf("%s-%s", fsCacheTag, uuid.NewString()))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("disk cache: creating scratch dir: %w", err)
	}

	return &Cache{inner: inner, dir: dir, lru: lrucache.New(capacity)}, nil
}

// Dir returns the scratch directory this cache is writing files under.
func (c *Cache) Dir() string { return c.dir }

func (c *Cache) filePath(id uint64) string {
	return filepath.Join(c.dir, objectstore.SegmentKey(id))
}

func (c *Cache) evict(evicted []lrucache.ValueType) {
	for _, v := range evicted {
		path := v.(string)
		os.Remove(path)
	}
}

// GetSegment returns the bytes cached on disk on a hit; on a miss it
// delegates to inner, writes the result to a scratch file, and inserts
// the file's path into the LRU.
func (c *Cache) GetSegment(ctx context.Context, id uint64) ([]byte, error) {
	key := objectstore.SegmentKey(id)

	c.mu.Lock()
	if v := c.lru.LookUp(key); v != nil {
		path := v.(string)
		c.mu.Unlock()
		data, err := os.ReadFile(path)
		if err == nil {
			return data, nil
		}
		// File vanished out from under us (e.g. manual cleanup); fall
		// through to the backend as if it had been a miss.
	} else {
		c.mu.Unlock()
	}

	data, err := c.inner.GetSegment(ctx, id)
	if err != nil {
		return nil, err
	}
	if werr := c.writeCacheFile(key, data); werr != nil {
		// The segment was still fetched successfully; caching is a
		// performance optimization, not a correctness requirement.
		return data, nil
	}
	return data, nil
}

// PutSegment is write-through: the backend is always written, and the
// bytes are also cached to disk.
func (c *Cache) PutSegment(ctx context.Context, id uint64, data []byte) error {
	if err := c.inner.PutSegment(ctx, id, data); err != nil {
		return err
	}
	return c.writeCacheFile(objectstore.SegmentKey(id), data)
}

func (c *Cache) writeCacheFile(key string, data []byte) error {
	path := filepath.Join(c.dir, key)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}

	c.mu.Lock()
	evicted := c.lru.Insert(key, path)
	c.mu.Unlock()
	c.evict(evicted)
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

// Close recursively removes the scratch directory (spec.md §4.3: "on
// teardown, recursively remove it").
func (c *Cache) Close() error {
	return os.RemoveAll(c.dir)
}

var _ objectstore.Store = (*Cache)(nil)
