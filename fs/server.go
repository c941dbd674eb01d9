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

package fs

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/logfuse/internal/checkpoint"
	"github.com/google/logfuse/internal/imap"
	"github.com/google/logfuse/internal/inode"
	"github.com/google/logfuse/internal/logfs"
	"github.com/google/logfuse/objectstore"
	"github.com/jacobsa/fuse"
	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/fuse/fuseutil"
)

// rootInodeNumber mirrors fuseops.RootInodeID so the root directory's
// on-log inode number and its FUSE-visible inode id always agree.
const rootInodeNumber = uint64(fuseops.RootInodeID)

// Mkfs initializes a fresh filesystem in an empty bucket: creates the
// backing namespace, allocates the root inode, and writes the initial
// checkpoint (spec.md §4.5, "Mount-time formatting").
func Mkfs(ctx context.Context, cfg *ServerConfig, bucketName string) error {
	if err := cfg.Backend.Create(ctx); err != nil {
		return fmt.Errorf("fs: mkfs: create backend: %w", err)
	}

	cp := checkpoint.New(bucketName, cfg.BlockSize, cfg.BlocksPerSegment, rootInodeNumber)
	log := logfs.Open(cfg.Backend, int(cfg.BlockSize), int(cfg.BlocksPerSegment), 1)

	now := cfg.Clock.Now().Unix()
	root := &inode.INode{
		InodeNumber: rootInodeNumber,
		ParentInode: rootInodeNumber,
		BlockSize:   cfg.BlockSize,
		Mode:        inode.ModeDir | 0o777,
		UID:         cfg.Uid,
		GID:         cfg.Gid,
		HardLinks:   2,
		ATime:       now,
		MTime:       now,
		CTime:       now,
	}

	imp := imap.New()
	rootDirBytes := inode.EncodeChildTable([]string{".", ".."}, []uint64{rootInodeNumber, rootInodeNumber})
	if err := writeInitialDirData(ctx, log, root, rootDirBytes); err != nil {
		return err
	}

	image, err := inode.Pad(root.Encode(), int(cfg.BlockSize))
	if err != nil {
		return fmt.Errorf("fs: mkfs: pad root inode: %w", err)
	}
	addr, err := log.WriteInode(ctx, image, root.InodeNumber)
	if err != nil {
		return fmt.Errorf("fs: mkfs: write root inode: %w", err)
	}
	imp.Set(root.InodeNumber, addr)

	if err := log.Flush(ctx); err != nil {
		return fmt.Errorf("fs: mkfs: flush log: %w", err)
	}

	cp.InodeCounter = root.InodeNumber
	cp.FromMap(imp)
	cp.SegmentCounter = log.CurrentSegmentID() - 1
	cp.CheckpointTime = cfg.Clock.Now()
	if err := cp.Save(ctx, cfg.Backend); err != nil {
		return fmt.Errorf("fs: mkfs: save checkpoint: %w", err)
	}
	return nil
}

func writeInitialDirData(ctx context.Context, log *logfs.Log, root *inode.INode, data []byte) error {
	const dataBlockIndex = 0
	buf := make([]byte, len(data))
	copy(buf, data)
	if err := writeRootDataBlock(ctx, log, root, dataBlockIndex, buf); err != nil {
		return err
	}
	root.Size = uint64(len(data))
	return nil
}

// writeRootDataBlock is mkfs's minimal stand-in for blockio.WriteBlock:
// at format time the root directory's data is always exactly one block,
// so there is no need to pull in the general indirect-addressing path.
func writeRootDataBlock(ctx context.Context, log *logfs.Log, root *inode.INode, idx int, data []byte) error {
	padded, err := inode.Pad(data, log.BlockSize())
	if err != nil {
		return fmt.Errorf("fs: mkfs: pad root dir block: %w", err)
	}
	addr, err := log.WriteDataBlock(ctx, padded)
	if err != nil {
		return fmt.Errorf("fs: mkfs: write root dir block: %w", err)
	}
	root.Direct[idx] = addr
	return nil
}

// Mount loads the checkpoint, rolls forward past it, and returns a
// fuse.Server ready to be handed to fuse.Mount (spec.md §3.6, "Mount").
func Mount(ctx context.Context, cfg *ServerConfig) (fuse.Server, error) {
	cp, err := checkpoint.Load(ctx, cfg.Backend)
	if err != nil {
		if errors.Is(err, objectstore.ErrNotFound) {
			return nil, fmt.Errorf("fs: mount: no checkpoint found; run mkfs first: %w", err)
		}
		return nil, fmt.Errorf("fs: mount: load checkpoint: %w", err)
	}

	imp := imap.New()
	cp.ToMap(imp)
	if err := checkpoint.RollForward(ctx, cfg.Backend, cp, imp); err != nil {
		return nil, fmt.Errorf("fs: mount: roll forward: %w", err)
	}

	log := logfs.Open(cfg.Backend, int(cp.BlockSize), int(cp.BlocksPerSegment), cp.SegmentCounter+1)

	fsys := newFileSystem(cfg, log, imp, cp)
	fsys.nextInodeNumber = cp.InodeCounter
	return fuseutil.NewFileSystemServer(fsys), nil
}
