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

// Package objectstore defines the opaque blob-namespace contract the rest
// of this filesystem is built on (spec.md §6.1) and provides two concrete
// backends: memblob (an in-process/local-directory store, for tests and
// the "local-directory bucket" mount mode) and gcsblob (a real Google
// Cloud Storage bucket). Caches and the async writer wrap a Store by
// composition, never by attribute forwarding (spec.md §9).
package objectstore

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by GetSegment/GetCheckpoint when the
// requested key has no object.
var ErrNotFound = errors.New("objectstore: no such object")

// Store is the key-value blob namespace backing the log-structured
// filesystem. Key naming is bit-exact (spec.md §6.1): "checkpoint" for
// the checkpoint, "seg_<decimal>" for segments.
type Store interface {
	// GetCheckpoint returns the bytes at the well-known checkpoint key, or
	// ErrNotFound if none has been written yet.
	GetCheckpoint(ctx context.Context) ([]byte, error)

	// PutCheckpoint overwrites the well-known checkpoint key.
	PutCheckpoint(ctx context.Context, data []byte) error

	// GetSegment returns the bytes of a previously-sealed segment, or
	// ErrNotFound if id has never been written.
	GetSegment(ctx context.Context, id uint64) ([]byte, error)

	// PutSegment writes a segment's bytes once. Overwriting an existing id
	// is not expected and indicates a bug in the caller (segments are
	// never rewritten).
	PutSegment(ctx context.Context, id uint64, data []byte) error

	// Flush blocks until all previously-accepted writes are durable. It
	// may be a no-op for synchronous stores.
	Flush(ctx context.Context) error

	// Create provisions the backing namespace (e.g. creates the bucket).
	// Called once, at mkfs time.
	Create(ctx context.Context) error
}

// SegmentKey returns the bit-exact key name for segment id.
func SegmentKey(id uint64) string {
	return fmt.Sprintf("seg_%d", id)
}

// CheckpointKey is the bit-exact well-known checkpoint key name.
const CheckpointKey = "checkpoint"
