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
	"fmt"

	"github.com/google/logfuse/internal/blockio"
	"github.com/google/logfuse/internal/fserrors"
	"github.com/google/logfuse/internal/inode"
)

// readChildren decodes n's data as a directory child table (spec.md
// §3.3/§6.2): length-prefixed name -> inode_number pairs.
//
// LOCKS_REQUIRED(fs.mu)
func (fs *FileSystem) readChildren(ctx context.Context, n *inode.INode) ([]string, []uint64, error) {
	if n.Size == 0 {
		return nil, nil, nil
	}
	buf := make([]byte, n.Size)
	if _, err := blockio.ReadAt(ctx, fs.log, n, 0, buf); err != nil {
		return nil, nil, err
	}
	names, inums, err := inode.DecodeChildTable(buf)
	if err != nil {
		return nil, nil, fserrors.NewInvariant("read_children", err)
	}
	return names, inums, nil
}

// writeChildren re-encodes the full child table and writes it as n's new
// data, growing or shrinking n.Size to match (directories are always
// rewritten whole; spec.md has no notion of a partial directory write).
//
// LOCKS_REQUIRED(fs.mu)
func (fs *FileSystem) writeChildren(ctx context.Context, n *inode.INode, names []string, inums []uint64) error {
	encoded := inode.EncodeChildTable(names, inums)
	if _, err := blockio.WriteAt(ctx, fs.log, n, 0, encoded); err != nil {
		return err
	}
	n.Size = uint64(len(encoded))
	return nil
}

// lookupChild returns the inode number of name within parent, or
// fserrors.NotFound if there is no such child.
//
// LOCKS_REQUIRED(fs.mu)
func (fs *FileSystem) lookupChild(ctx context.Context, parent *inode.INode, name string) (uint64, error) {
	names, inums, err := fs.readChildren(ctx, parent)
	if err != nil {
		return 0, err
	}
	for i, n := range names {
		if n == name {
			return inums[i], nil
		}
	}
	return 0, fserrors.NewNotFound("lookup_child", fmt.Errorf("no such child %q", name))
}

// addChild appends (name, inum) to parent's child table. Callers must
// have already verified name is not already present.
//
// LOCKS_REQUIRED(fs.mu)
func (fs *FileSystem) addChild(ctx context.Context, parent *inode.INode, name string, inum uint64) error {
	names, inums, err := fs.readChildren(ctx, parent)
	if err != nil {
		return err
	}
	names = append(names, name)
	inums = append(inums, inum)
	return fs.writeChildren(ctx, parent, names, inums)
}

// removeChild removes name from parent's child table.
//
// LOCKS_REQUIRED(fs.mu)
func (fs *FileSystem) removeChild(ctx context.Context, parent *inode.INode, name string) error {
	names, inums, err := fs.readChildren(ctx, parent)
	if err != nil {
		return err
	}
	newNames := names[:0]
	newInums := inums[:0]
	found := false
	for i, n := range names {
		if n == name {
			found = true
			continue
		}
		newNames = append(newNames, n)
		newInums = append(newInums, inums[i])
	}
	if !found {
		return fserrors.NewNotFound("remove_child", fmt.Errorf("no such child %q", name))
	}
	return fs.writeChildren(ctx, parent, newNames, newInums)
}

// newChildEntry describes the kind of inode to mint for mkdir/mknod/
// symlink.
type newChildEntry struct {
	mode      uint32
	rdev      uint32
	symlinkTo string
}

// createChild mints a fresh inode under parent named name, writes it to
// the log, adds it to parent's child table, persists parent, and returns
// the new inode.
//
// LOCKS_REQUIRED(fs.mu)
func (fs *FileSystem) createChild(ctx context.Context, parent *inode.INode, name string, spec newChildEntry) (*inode.INode, error) {
	if _, err := fs.lookupChild(ctx, parent, name); err == nil {
		return nil, fserrors.NewInvariant("create_child", fmt.Errorf("child %q already exists", name))
	}

	now := fs.clk.Now().Unix()
	child := &inode.INode{
		InodeNumber: fs.mintInodeNumber(),
		ParentInode: parent.InodeNumber,
		BlockSize:   parent.BlockSize,
		Mode:        spec.mode,
		UID:         fs.uid,
		GID:         fs.gid,
		RDev:        spec.rdev,
		ATime:       now,
		MTime:       now,
		CTime:       now,
	}
	if child.IsDir() {
		child.HardLinks = 2
	} else {
		child.HardLinks = 1
	}

	if spec.symlinkTo != "" {
		if _, err := blockio.WriteAt(ctx, fs.log, child, 0, []byte(spec.symlinkTo)); err != nil {
			return nil, err
		}
	}
	if child.IsDir() {
		if err := fs.writeChildren(ctx, child, []string{".", ".."}, []uint64{child.InodeNumber, parent.InodeNumber}); err != nil {
			return nil, err
		}
	}

	if err := fs.persistInode(ctx, child); err != nil {
		return nil, err
	}
	if err := fs.addChild(ctx, parent, name, child.InodeNumber); err != nil {
		return nil, err
	}
	if child.IsDir() {
		parent.HardLinks++
	}
	parent.MTime = now
	if err := fs.persistInode(ctx, parent); err != nil {
		return nil, err
	}

	return child, nil
}

// dirHandle is the state backing an open directory handle: a snapshot of
// the child list taken at OpenDir time, served out in ReadDir calls by
// fuseops.DirOffset.
type dirHandle struct {
	entries []dirent
}

type dirent struct {
	name  string
	inum  uint64
	isDir bool
}

func buildDirHandle(names []string, inums []uint64, isDir []bool) *dirHandle {
	dh := &dirHandle{entries: make([]dirent, len(names))}
	for i := range names {
		dh.entries[i] = dirent{name: names[i], inum: inums[i], isDir: isDir[i]}
	}
	return dh
}
