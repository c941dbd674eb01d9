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

// Package imap holds the in-memory inode map: inode_number -> BlockAddress
// of that inode's most recent on-log image (spec.md §3.5). Breaking this
// out as a flat index, rather than having inodes hold pointers to each
// other, is what lets the log-structured design avoid a cyclic
// inode/log/imap object graph (spec.md §9).
package imap

import (
	"sync"

	"github.com/google/logfuse/internal/inode"
)

// Map is a concurrency-safe inode_number -> BlockAddress table.
type Map struct {
	mu      sync.RWMutex
	entries map[uint64]inode.BlockAddress
}

// New returns an empty Map.
func New() *Map {
	return &Map{entries: make(map[uint64]inode.BlockAddress)}
}

// Set records addr as inum's most recent image location.
func (m *Map) Set(inum uint64, addr inode.BlockAddress) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[inum] = addr
}

// Lookup returns the address for inum and whether it is present.
func (m *Map) Lookup(inum uint64) (inode.BlockAddress, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	addr, ok := m.entries[inum]
	return addr, ok
}

// Delete removes inum from the map, e.g. once hard_links has reached zero
// and no lookups remain outstanding (spec.md §3.7).
func (m *Map) Delete(inum uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, inum)
}

// Len returns the number of tracked inodes.
func (m *Map) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Snapshot returns a copy of the map's entries, suitable for serializing
// into a checkpoint.
func (m *Map) Snapshot() map[uint64]inode.BlockAddress {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[uint64]inode.BlockAddress, len(m.entries))
	for k, v := range m.entries {
		out[k] = v
	}
	return out
}

// Restore replaces the map's contents with entries, e.g. after loading a
// checkpoint or rolling forward.
func (m *Map) Restore(entries map[uint64]inode.BlockAddress) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[uint64]inode.BlockAddress, len(entries))
	for k, v := range entries {
		m.entries[k] = v
	}
}

// Range calls f for each entry. f must not call back into the Map.
func (m *Map) Range(f func(inum uint64, addr inode.BlockAddress)) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for k, v := range m.entries {
		f(k, v)
	}
}
