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

package blockio

import (
	"context"

	"github.com/google/logfuse/internal/inode"
	"github.com/google/logfuse/internal/logfs"
)

// ReadAt returns up to len(dst) bytes of n's data starting at offset,
// returning fewer bytes than requested only when offset+len(dst) exceeds
// n.Size (an EOF-style short read, matching POSIX pread semantics).
func ReadAt(ctx context.Context, log *logfs.Log, n *inode.INode, offset int64, dst []byte) (int, error) {
	blockSize := int64(log.BlockSize())
	if offset >= int64(n.Size) {
		return 0, nil
	}
	want := len(dst)
	if int64(want) > int64(n.Size)-offset {
		want = int(int64(n.Size) - offset)
	}

	read := 0
	for read < want {
		absolute := offset + int64(read)
		blockIndex := uint64(absolute / blockSize)
		withinBlock := int(absolute % blockSize)

		block, err := ReadBlock(ctx, log, n, blockIndex)
		if err != nil {
			return read, err
		}

		copied := copy(dst[read:want], block[withinBlock:])
		read += copied
	}
	return read, nil
}

// WriteAt writes data into n's data starting at offset, allocating new
// blocks (and address-block nodes) for any range not yet covered,
// read-modify-write for any partially-overlapped existing block, and
// growing n.Size if the write extends past the current end of file.
func WriteAt(ctx context.Context, log *logfs.Log, n *inode.INode, offset int64, data []byte) (int, error) {
	blockSize := int64(log.BlockSize())

	written := 0
	for written < len(data) {
		absolute := offset + int64(written)
		blockIndex := uint64(absolute / blockSize)
		withinBlock := int(absolute % blockSize)

		chunk := int(blockSize) - withinBlock
		if remaining := len(data) - written; chunk > remaining {
			chunk = remaining
		}

		var block []byte
		if withinBlock != 0 || chunk != int(blockSize) {
			existing, err := ReadBlock(ctx, log, n, blockIndex)
			if err != nil {
				return written, err
			}
			block = existing
		} else {
			block = make([]byte, blockSize)
		}
		copy(block[withinBlock:], data[written:written+chunk])

		if _, err := WriteBlock(ctx, log, n, blockIndex, block); err != nil {
			return written, err
		}
		written += chunk
	}

	if end := uint64(offset) + uint64(written); end > n.Size {
		n.Size = end
	}
	return written, nil
}
