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

// Package blockio is the indirect-block read/write component (spec.md
// §4.4): it translates a logical byte range of an inode's data into log
// block addresses, descending through the direct/single/double/triple
// tiers (spec.md §3.4), allocating and rewriting address-block nodes as
// needed. Because this is a log-structured filesystem, every write -
// whether to a leaf data block or to an intermediate address-block node -
// is a fresh append; nothing is ever overwritten in place.
package blockio

import (
	"context"
	"fmt"

	"github.com/google/logfuse/internal/fserrors"
	"github.com/google/logfuse/internal/inode"
	"github.com/google/logfuse/internal/logfs"
)

// ReadBlock returns the blockSize-byte contents of logical block index i
// of n's data, or a block of zeros if that index has never been written
// (a sparse hole).
func ReadBlock(ctx context.Context, log *logfs.Log, n *inode.INode, i uint64) ([]byte, error) {
	blockSize := log.BlockSize()
	addr, err := resolveRead(ctx, log, n, i)
	if err != nil {
		return nil, err
	}
	if addr.IsZero() {
		return make([]byte, blockSize), nil
	}
	return log.ReadBlock(ctx, addr)
}

// WriteBlock writes blockSize bytes of data at logical block index i of
// n, allocating any address-block nodes on the path from n's header down
// to the leaf that do not yet exist, and returns the BlockAddress the
// data landed at.
func WriteBlock(ctx context.Context, log *logfs.Log, n *inode.INode, i uint64, data []byte) (inode.BlockAddress, error) {
	blockSize := log.BlockSize()
	tier, offsets, err := inode.Locate(i, blockSize)
	if err != nil {
		return inode.BlockAddress{}, fserrors.NewInvariant("write_block", err)
	}

	if tier == inode.TierDirect {
		addr, err := log.WriteDataBlock(ctx, data)
		if err != nil {
			return inode.BlockAddress{}, err
		}
		n.Direct[offsets[0]] = addr
		return addr, nil
	}

	root := &n.Indirect[int(tier)-1]
	addr, err := writeThroughTier(ctx, log, root, offsets, data)
	if err != nil {
		return inode.BlockAddress{}, err
	}
	return addr, nil
}

// resolveRead walks the same tiers as WriteBlock but never allocates: a
// missing node anywhere on the path means i is a hole.
func resolveRead(ctx context.Context, log *logfs.Log, n *inode.INode, i uint64) (inode.BlockAddress, error) {
	blockSize := log.BlockSize()
	tier, offsets, err := inode.Locate(i, blockSize)
	if err != nil {
		return inode.BlockAddress{}, fserrors.NewInvariant("read_block", err)
	}

	if tier == inode.TierDirect {
		return n.Direct[offsets[0]], nil
	}

	addr := n.Indirect[int(tier)-1]
	for _, off := range offsets {
		if addr.IsZero() {
			return inode.BlockAddress{}, nil
		}
		raw, err := log.ReadBlock(ctx, addr)
		if err != nil {
			return inode.BlockAddress{}, err
		}
		block := inode.DecodeAddressBlock(raw, blockSize)
		if off < 0 || off >= len(block.Addresses) {
			return inode.BlockAddress{}, fserrors.NewInvariant("read_block", fmt.Errorf("offset %d out of range", off))
		}
		addr = block.Addresses[off]
	}
	return addr, nil
}

// writeThroughTier descends from root through len(offsets)-1 intermediate
// address-block nodes, writes data at the leaf, and rewrites every node on
// the path (since this is an append-only log, an existing node can never
// be mutated in place - a changed child address means the parent's image
// itself changes and must be re-appended). root is updated to point at the
// newly written top-of-path node.
func writeThroughTier(ctx context.Context, log *logfs.Log, root *inode.BlockAddress, offsets []int, data []byte) (inode.BlockAddress, error) {
	blockSize := log.BlockSize()

	if len(offsets) == 1 {
		leafAddr, err := log.WriteDataBlock(ctx, data)
		if err != nil {
			return inode.BlockAddress{}, err
		}
		if err := rewriteNode(ctx, log, root, offsets[0], leafAddr); err != nil {
			return inode.BlockAddress{}, err
		}
		return leafAddr, nil
	}

	block, err := loadOrNewAddressBlock(ctx, log, *root, blockSize)
	if err != nil {
		return inode.BlockAddress{}, err
	}
	childRoot := block.Addresses[offsets[0]]

	leafAddr, err := writeThroughTier(ctx, log, &childRoot, offsets[1:], data)
	if err != nil {
		return inode.BlockAddress{}, err
	}

	if err := rewriteNode(ctx, log, root, offsets[0], childRoot); err != nil {
		return inode.BlockAddress{}, err
	}
	return leafAddr, nil
}

// rewriteNode loads the address block at *root (or starts a fresh one if
// root is unallocated), sets slot to child, appends the updated block as a
// new log block, and points *root at that new block.
func rewriteNode(ctx context.Context, log *logfs.Log, root *inode.BlockAddress, slot int, child inode.BlockAddress) error {
	blockSize := log.BlockSize()
	block, err := loadOrNewAddressBlock(ctx, log, *root, blockSize)
	if err != nil {
		return err
	}
	block.Addresses[slot] = child

	addr, err := log.WriteDataBlock(ctx, block.Encode(blockSize))
	if err != nil {
		return err
	}
	*root = addr
	return nil
}

func loadOrNewAddressBlock(ctx context.Context, log *logfs.Log, addr inode.BlockAddress, blockSize int) (inode.AddressBlock, error) {
	if addr.IsZero() {
		return inode.NewAddressBlock(blockSize), nil
	}
	raw, err := log.ReadBlock(ctx, addr)
	if err != nil {
		return inode.AddressBlock{}, err
	}
	return inode.DecodeAddressBlock(raw, blockSize), nil
}
