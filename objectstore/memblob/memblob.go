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

// Package memblob implements objectstore.Store two ways: a pure in-memory
// store for unit tests, and a local-directory-backed store for the mount
// configuration surface's "local-directory bucket" mode (spec.md §6.3),
// where each key becomes one file under a root directory.
package memblob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/logfuse/objectstore"
)

// Memory is a process-local objectstore.Store backed by a map. It never
// persists; it exists for tests that want a real ObjectStore without I/O.
type Memory struct {
	mu         sync.Mutex
	checkpoint []byte
	hasCheckpt bool
	segments   map[uint64][]byte
}

// New returns an empty in-memory store.
func New() *Memory {
	return &Memory{segments: make(map[uint64][]byte)}
}

func (m *Memory) GetCheckpoint(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasCheckpt {
		return nil, objectstore.ErrNotFound
	}
	out := make([]byte, len(m.checkpoint))
	copy(out, m.checkpoint)
	return out, nil
}

func (m *Memory) PutCheckpoint(ctx context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkpoint = append([]byte(nil), data...)
	m.hasCheckpt = true
	return nil
}

func (m *Memory) GetSegment(ctx context.Context, id uint64) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.segments[id]
	if !ok {
		return nil, objectstore.ErrNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *Memory) PutSegment(ctx context.Context, id uint64, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.segments[id]; exists {
		return fmt.Errorf("memblob: segment %d already exists (segments are never rewritten)", id)
	}
	m.segments[id] = append([]byte(nil), data...)
	return nil
}

func (m *Memory) Flush(ctx context.Context) error { return nil }

func (m *Memory) Create(ctx context.Context) error { return nil }

// LocalDirectory is an objectstore.Store backed by plain files under root,
// used for the "local-directory bucket" mount mode (spec.md §6.3). Each
// key maps to one file; PutSegment/PutCheckpoint write via a temp file and
// rename, matching the store's overwrite-is-atomic assumption (spec.md
// §5).
type LocalDirectory struct {
	root string
}

// NewLocalDirectory returns a store rooted at dir. The directory is
// created by Create.
func NewLocalDirectory(dir string) *LocalDirectory {
	return &LocalDirectory{root: dir}
}

func (d *LocalDirectory) path(key string) string {
	return filepath.Join(d.root, key)
}

func (d *LocalDirectory) get(key string) ([]byte, error) {
	data, err := os.ReadFile(d.path(key))
	if os.IsNotExist(err) {
		return nil, objectstore.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (d *LocalDirectory) put(key string, data []byte) error {
	tmp, err := os.CreateTemp(d.root, ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), d.path(key))
}

func (d *LocalDirectory) GetCheckpoint(ctx context.Context) ([]byte, error) {
	return d.get(objectstore.CheckpointKey)
}

func (d *LocalDirectory) PutCheckpoint(ctx context.Context, data []byte) error {
	return d.put(objectstore.CheckpointKey, data)
}

func (d *LocalDirectory) GetSegment(ctx context.Context, id uint64) ([]byte, error) {
	return d.get(objectstore.SegmentKey(id))
}

func (d *LocalDirectory) PutSegment(ctx context.Context, id uint64, data []byte) error {
	key := objectstore.SegmentKey(id)
	if _, err := os.Stat(d.path(key)); err == nil {
		return fmt.Errorf("memblob: segment %d already exists (segments are never rewritten)", id)
	}
	return d.put(key, data)
}

func (d *LocalDirectory) Flush(ctx context.Context) error { return nil }

func (d *LocalDirectory) Create(ctx context.Context) error {
	return os.MkdirAll(d.root, 0o755)
}
