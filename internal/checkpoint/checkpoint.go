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

// Package checkpoint implements the Checkpoint record (spec.md §3.6): a
// serialized snapshot of the imap and filesystem counters, written
// atomically to the ObjectStore's well-known checkpoint key, and the
// roll-forward scan that reconstructs the imap on mount.
package checkpoint

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"time"

	"github.com/google/logfuse/internal/imap"
	"github.com/google/logfuse/internal/inode"
	"github.com/google/logfuse/internal/segment"
	"github.com/google/logfuse/objectstore"
	"github.com/google/uuid"
)

// Checkpoint is the self-describing record persisted to the ObjectStore's
// well-known checkpoint key (spec.md §3.6). encoding/gob gives it the
// self-describing wire property spec.md §6.2 asks for without a hand
// rolled schema.
type Checkpoint struct {
	ID uuid.UUID

	BlockSize        uint32
	BlocksPerSegment uint32
	SizeHint         uint64

	// SegmentCounter is the id of the last sealed segment included in
	// this checkpoint; any segment with a larger id that exists in the
	// store is "beyond" the checkpoint and must be rolled forward.
	SegmentCounter uint64
	InodeCounter   uint64

	BucketName  string
	RootInodeID uint64

	InodeMap map[uint64]inode.BlockAddress

	CheckpointTime time.Time
}

// New constructs a fresh checkpoint with counters at zero, as written by
// mkfs (spec.md §4.5).
func New(bucketName string, blockSize, blocksPerSegment uint32, rootInodeID uint64) *Checkpoint {
	return &Checkpoint{
		ID:               uuid.New(),
		BlockSize:        blockSize,
		BlocksPerSegment: blocksPerSegment,
		BucketName:       bucketName,
		RootInodeID:      rootInodeID,
		InodeMap:         make(map[uint64]inode.BlockAddress),
		CheckpointTime:   time.Now(),
	}
}

// Encode serializes the checkpoint for PutCheckpoint.
func (c *Checkpoint) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(c); err != nil {
		return nil, fmt.Errorf("checkpoint: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode deserializes bytes previously produced by Encode.
func Decode(data []byte) (*Checkpoint, error) {
	var c Checkpoint
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&c); err != nil {
		return nil, fmt.Errorf("checkpoint: decode: %w", err)
	}
	if c.InodeMap == nil {
		c.InodeMap = make(map[uint64]inode.BlockAddress)
	}
	return &c, nil
}

// Load fetches and decodes the checkpoint from store, or returns
// objectstore.ErrNotFound if none exists yet (a fresh, never-mkfs'd
// bucket).
func Load(ctx context.Context, store objectstore.Store) (*Checkpoint, error) {
	data, err := store.GetCheckpoint(ctx)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Save flushes store (so every segment the checkpoint references is
// durable first, per spec.md §4.3/§5's crash-consistency rule) then
// overwrites the well-known checkpoint key.
func (c *Checkpoint) Save(ctx context.Context, store objectstore.Store) error {
	if err := store.Flush(ctx); err != nil {
		return fmt.Errorf("checkpoint: flush before save: %w", err)
	}
	data, err := c.Encode()
	if err != nil {
		return err
	}
	return store.PutCheckpoint(ctx, data)
}

// ToMap loads the checkpoint's serialized inode map into m, replacing its
// contents.
func (c *Checkpoint) ToMap(m *imap.Map) {
	m.Restore(c.InodeMap)
}

// FromMap snapshots m's current contents into the checkpoint, e.g. just
// before Save.
func (c *Checkpoint) FromMap(m *imap.Map) {
	c.InodeMap = m.Snapshot()
}

// RollForward scans segments newer than the checkpoint's recorded
// SegmentCounter, re-applying each one's summary block to m, and advances
// c.SegmentCounter to the last segment actually found (spec.md §4.5).
//
// The checkpoint's own SegmentCounter semantics are ambiguous in sources
// this filesystem was derived from: some treat it as the id of the last
// sealed segment, others as the next id to allocate. RollForward tolerates
// both readings by probing both c.SegmentCounter and c.SegmentCounter+1 as
// the first candidate, and continuing from whichever one the store
// actually has (spec.md §9, Open Question 3).
func RollForward(ctx context.Context, store objectstore.Store, c *Checkpoint, m *imap.Map) error {
	next := firstRollForwardCandidate(ctx, store, c.SegmentCounter)

	last := c.SegmentCounter
	for {
		data, err := store.GetSegment(ctx, next)
		if errors.Is(err, objectstore.ErrNotFound) {
			break
		}
		if err != nil {
			return fmt.Errorf("checkpoint: roll_forward: get_segment(%d): %w", next, err)
		}

		ro, err := segment.Decode(next, data, int(c.BlockSize))
		if err != nil {
			return fmt.Errorf("checkpoint: roll_forward: decode segment %d: %w", next, err)
		}
		for _, ib := range ro.InodeBlockNumbers() {
			m.Set(ib.InodeNumber, inode.BlockAddress{SegmentID: next, Offset: uint16(ib.BlockIndex)})
		}

		last = next
		next++
	}

	c.SegmentCounter = last
	return nil
}

// firstRollForwardCandidate picks which of segmentCounter or
// segmentCounter+1 to probe first: roll-forward starts at segmentCounter
// when that segment is present in the store (replaying an already-sealed
// segment is harmless, and under the "next id" reading it has not been
// replayed yet), and at segmentCounter+1 when it is absent.
func firstRollForwardCandidate(ctx context.Context, store objectstore.Store, segmentCounter uint64) uint64 {
	if segmentCounter == 0 {
		return 1
	}
	if _, err := store.GetSegment(ctx, segmentCounter); err == nil {
		return segmentCounter
	}
	return segmentCounter + 1
}
