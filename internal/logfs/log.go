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

// Package logfs implements the Log (spec.md §4.2): the single writable
// frontier of the append-only segment sequence. One RW segment is
// assembled at a time; once full, its sealed bytes are handed to the
// backing ObjectStore (typically the caching-decorator stack) and a fresh
// segment is opened at the next id.
package logfs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/logfuse/internal/fserrors"
	"github.com/google/logfuse/internal/inode"
	"github.com/google/logfuse/internal/segment"
	"github.com/google/logfuse/objectstore"
)

// Log owns the current RW segment and the counters that track where the
// next block goes. Only the upcall thread is expected to call its
// mutating methods (spec.md §5); the mutex below guards read_block
// against concurrent writers rather than modeling any real parallelism in
// the foreground path.
type Log struct {
	mu sync.Mutex

	backend          objectstore.Store
	blockSize        int
	blocksPerSegment int

	currentSegmentID uint64
	rw               *segment.RW
}

// Open returns a Log whose writable frontier starts at startSegmentID,
// used both at mkfs time (startSegmentID = 1) and after roll-forward
// (startSegmentID = checkpoint.SegmentCounter + 1).
func Open(backend objectstore.Store, blockSize, blocksPerSegment int, startSegmentID uint64) *Log {
	return &Log{
		backend:          backend,
		blockSize:        blockSize,
		blocksPerSegment: blocksPerSegment,
		currentSegmentID: startSegmentID,
		rw:               segment.NewRW(startSegmentID, blockSize, blocksPerSegment),
	}
}

// CurrentSegmentID returns the id of the RW segment currently being
// assembled.
func (l *Log) CurrentSegmentID() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.currentSegmentID
}

// BlockSize returns the filesystem's fixed block size.
func (l *Log) BlockSize() int { return l.blockSize }

// WriteDataBlock appends data (zero-padded to BlockSize) to the current
// RW segment, rolling over to a fresh segment if this write fills it.
func (l *Log) WriteDataBlock(ctx context.Context, data []byte) (inode.BlockAddress, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx, err := l.rw.WriteData(data)
	if err != nil {
		return inode.BlockAddress{}, fserrors.NewInvariant("write_data_block", err)
	}
	addr := inode.BlockAddress{SegmentID: l.currentSegmentID, Offset: uint16(idx)}

	if l.rw.IsFull() {
		if err := l.rollOverLocked(ctx); err != nil {
			return inode.BlockAddress{}, err
		}
	}
	return addr, nil
}

// WriteInode is WriteDataBlock plus recording (inum, block_index) in the
// segment's summary, so roll-forward can later reconstruct the imap
// entry from this write alone.
func (l *Log) WriteInode(ctx context.Context, data []byte, inodeNumber uint64) (inode.BlockAddress, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx, err := l.rw.WriteInode(data, inodeNumber)
	if err != nil {
		return inode.BlockAddress{}, fserrors.NewInvariant("write_inode", err)
	}
	addr := inode.BlockAddress{SegmentID: l.currentSegmentID, Offset: uint16(idx)}

	if l.rw.IsFull() {
		if err := l.rollOverLocked(ctx); err != nil {
			return inode.BlockAddress{}, err
		}
	}
	return addr, nil
}

// rollOverLocked seals the current RW segment, hands its bytes to the
// backend, and opens a fresh segment at the next id. Caller must hold mu.
//
// If the backend put fails, current_segment_id and the full RW segment
// are left unchanged: appends fail until a later roll-over (for example
// from Flush) puts the segment, and since the segment has not reached the
// store, no checkpoint can come to reference it (spec.md §7).
func (l *Log) rollOverLocked(ctx context.Context) error {
	sealed, err := l.rw.Seal()
	if err != nil {
		return fserrors.NewInvariant("seal", err)
	}
	if err := l.backend.PutSegment(ctx, l.currentSegmentID, sealed); err != nil {
		return fserrors.NewBackendUnavailable("put_segment", err)
	}
	l.currentSegmentID++
	l.rw = segment.NewRW(l.currentSegmentID, l.blockSize, l.blocksPerSegment)
	return nil
}

// ReadBlock resolves addr to bytes: the still-assembling RW segment if
// addr targets the current segment, otherwise a full round trip through
// the backend.
func (l *Log) ReadBlock(ctx context.Context, addr inode.BlockAddress) ([]byte, error) {
	l.mu.Lock()
	if addr.SegmentID == l.currentSegmentID {
		b, err := l.rw.ReadBlock(int(addr.Offset))
		l.mu.Unlock()
		if err != nil {
			return nil, fserrors.NewInvariant("read_block", err)
		}
		out := make([]byte, len(b))
		copy(out, b)
		return out, nil
	}
	l.mu.Unlock()

	wire, err := l.backend.GetSegment(ctx, addr.SegmentID)
	if err != nil {
		if errors.Is(err, objectstore.ErrNotFound) {
			return nil, fserrors.NewNotFound("read_block", err)
		}
		return nil, fserrors.NewBackendUnavailable("read_block", err)
	}
	ro, err := segment.Decode(addr.SegmentID, wire, l.blockSize)
	if err != nil {
		return nil, fserrors.NewInvariant("read_block", err)
	}
	return ro.ReadBlock(int(addr.Offset))
}

// Flush seals the current RW segment if it holds any blocks (so a
// partially-filled segment is still durable before e.g. a checkpoint),
// advances past it, then blocks until the backend confirms every upload
// so far is durable.
func (l *Log) Flush(ctx context.Context) error {
	l.mu.Lock()
	if l.rw.HasBlocks() {
		if err := l.rollOverLocked(ctx); err != nil {
			l.mu.Unlock()
			return err
		}
	}
	l.mu.Unlock()

	if err := l.backend.Flush(ctx); err != nil {
		return fserrors.NewBackendUnavailable("flush", err)
	}
	return nil
}

// String is for debugging/log messages only.
func (l *Log) String() string {
	return fmt.Sprintf("logfs.Log{current_segment_id=%d, block_size=%d}", l.CurrentSegmentID(), l.blockSize)
}
