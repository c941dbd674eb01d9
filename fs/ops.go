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
	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/fuse/fuseutil"
)

// StatFS reports the filesystem size hint recorded in the checkpoint
// (spec.md §3.6); block accounting is approximate, since the backing
// store is an unbounded remote object bucket rather than a fixed device.
func (fs *FileSystem) StatFS(ctx context.Context, op *fuseops.StatFSOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	op.BlockSize = fs.cp.BlockSize
	op.IoSize = fs.cp.BlockSize
	op.Blocks = fs.cp.SizeHint / uint64(fs.cp.BlockSize)
	op.BlocksFree = op.Blocks
	op.BlocksAvailable = op.Blocks
	op.Inodes = fs.cp.InodeCounter + 1
	op.InodesFree = op.Inodes
	return nil
}

// LookUpInode resolves (parent, name) to a child inode, incrementing its
// lookup count by one (spec.md §4.5).
func (fs *FileSystem) LookUpInode(ctx context.Context, op *fuseops.LookUpInodeOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	parent, err := fs.loadInode(ctx, op.Parent)
	if err != nil {
		return translate(err)
	}
	childInum, err := fs.lookupChild(ctx, parent, op.Name)
	if err != nil {
		return translate(err)
	}
	child, err := fs.loadInode(ctx, fuseops.InodeID(childInum))
	if err != nil {
		return translate(err)
	}

	fs.lookupCounts[fuseops.InodeID(childInum)]++
	op.Entry.Child = fuseops.InodeID(childInum)
	op.Entry.Attributes = fs.attributesLocked(child)
	return nil
}

// GetInodeAttributes returns op.Inode's current attributes.
func (fs *FileSystem) GetInodeAttributes(ctx context.Context, op *fuseops.GetInodeAttributesOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	n, err := fs.loadInode(ctx, op.Inode)
	if err != nil {
		return translate(err)
	}
	op.Attributes = fs.attributesLocked(n)
	return nil
}

// SetInodeAttributes implements the subset of setattr this filesystem
// supports: truncation/extension of a regular file's size. Other
// attribute changes (mode, uid/gid, explicit atime/mtime) are accepted
// without effect, matching the teacher's narrow setattr support.
func (fs *FileSystem) SetInodeAttributes(ctx context.Context, op *fuseops.SetInodeAttributesOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	n, err := fs.loadInode(ctx, op.Inode)
	if err != nil {
		return translate(err)
	}

	if op.Size != nil {
		if err := fs.truncateLocked(ctx, n, *op.Size); err != nil {
			return translate(err)
		}
		if err := fs.persistInode(ctx, n); err != nil {
			return translate(err)
		}
	}

	op.Attributes = fs.attributesLocked(n)
	return nil
}

// truncateLocked grows or shrinks n.Size. Growing leaves the new range as
// a sparse hole (reads return zeros, per blockio.ReadBlock's hole
// behavior); shrinking simply drops the tail without reclaiming blocks,
// since segments are never rewritten in place.
//
// LOCKS_REQUIRED(fs.mu)
func (fs *FileSystem) truncateLocked(ctx context.Context, n *inode.INode, size uint64) error {
	n.Size = size
	return nil
}

// ForgetInode decrements op.Inode's lookup count by op.N, evicting it
// from the working set once the count reaches zero.
func (fs *FileSystem) ForgetInode(ctx context.Context, op *fuseops.ForgetInodeOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	count := fs.lookupCounts[op.Inode]
	if op.N >= count {
		delete(fs.lookupCounts, op.Inode)
		delete(fs.inodes, op.Inode)
	} else {
		fs.lookupCounts[op.Inode] = count - op.N
	}
	return nil
}

// MkDir creates a directory.
func (fs *FileSystem) MkDir(ctx context.Context, op *fuseops.MkDirOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	parent, err := fs.loadInode(ctx, op.Parent)
	if err != nil {
		return translate(err)
	}
	child, err := fs.createChild(ctx, parent, op.Name, newChildEntry{mode: inode.ModeDir | uint32(op.Mode.Perm())})
	if err != nil {
		return translate(err)
	}
	if err := fs.checkpointIfNecessary(ctx); err != nil {
		return translate(err)
	}

	fs.lookupCounts[fuseops.InodeID(child.InodeNumber)]++
	op.Entry.Child = fuseops.InodeID(child.InodeNumber)
	op.Entry.Attributes = fs.attributesLocked(child)
	return nil
}

// MkNode creates an empty regular file. Whatever the requested node type,
// the new inode is always a regular file; device numbers are not stored.
// CreateFile mints regular files the same way through its own upcall.
func (fs *FileSystem) MkNode(ctx context.Context, op *fuseops.MkNodeOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	parent, err := fs.loadInode(ctx, op.Parent)
	if err != nil {
		return translate(err)
	}
	child, err := fs.createChild(ctx, parent, op.Name, newChildEntry{mode: inode.ModeRegular | uint32(op.Mode.Perm())})
	if err != nil {
		return translate(err)
	}
	if err := fs.checkpointIfNecessary(ctx); err != nil {
		return translate(err)
	}

	fs.lookupCounts[fuseops.InodeID(child.InodeNumber)]++
	op.Entry.Child = fuseops.InodeID(child.InodeNumber)
	op.Entry.Attributes = fs.attributesLocked(child)
	return nil
}

// CreateFile creates and opens a regular file in one step.
func (fs *FileSystem) CreateFile(ctx context.Context, op *fuseops.CreateFileOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	parent, err := fs.loadInode(ctx, op.Parent)
	if err != nil {
		return translate(err)
	}
	child, err := fs.createChild(ctx, parent, op.Name, newChildEntry{mode: inode.ModeRegular | uint32(op.Mode.Perm())})
	if err != nil {
		return translate(err)
	}

	fs.lookupCounts[fuseops.InodeID(child.InodeNumber)]++
	op.Entry.Child = fuseops.InodeID(child.InodeNumber)
	op.Entry.Attributes = fs.attributesLocked(child)

	op.Handle = fs.nextHandleID
	fs.nextHandleID++
	fs.fileHandles[op.Handle] = fuseops.InodeID(child.InodeNumber)
	return nil
}

// CreateSymlink creates a symbolic link whose target is stored as the
// inode's data (spec.md §3.3).
func (fs *FileSystem) CreateSymlink(ctx context.Context, op *fuseops.CreateSymlinkOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	parent, err := fs.loadInode(ctx, op.Parent)
	if err != nil {
		return translate(err)
	}
	child, err := fs.createChild(ctx, parent, op.Name, newChildEntry{mode: inode.ModeSymlink | 0o777, symlinkTo: op.Target})
	if err != nil {
		return translate(err)
	}

	fs.lookupCounts[fuseops.InodeID(child.InodeNumber)]++
	op.Entry.Child = fuseops.InodeID(child.InodeNumber)
	op.Entry.Attributes = fs.attributesLocked(child)
	return nil
}

// CreateLink adds a new name for an existing inode, incrementing its
// hard-link count (spec.md §9, Open Question 2).
func (fs *FileSystem) CreateLink(ctx context.Context, op *fuseops.CreateLinkOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	parent, err := fs.loadInode(ctx, op.Parent)
	if err != nil {
		return translate(err)
	}
	target, err := fs.loadInode(ctx, op.Target)
	if err != nil {
		return translate(err)
	}
	if _, err := fs.lookupChild(ctx, parent, op.Name); err == nil {
		return translate(fserrors.NewInvariant("create_link", fmt.Errorf("child %q already exists", op.Name)))
	}

	target.HardLinks++
	if err := fs.persistInode(ctx, target); err != nil {
		return translate(err)
	}
	if err := fs.addChild(ctx, parent, op.Name, target.InodeNumber); err != nil {
		return translate(err)
	}
	if err := fs.persistInode(ctx, parent); err != nil {
		return translate(err)
	}

	fs.lookupCounts[fuseops.InodeID(target.InodeNumber)]++
	op.Entry.Child = fuseops.InodeID(target.InodeNumber)
	op.Entry.Attributes = fs.attributesLocked(target)
	return nil
}

// Rename moves (oldParent, oldName) to (newParent, newName).
func (fs *FileSystem) Rename(ctx context.Context, op *fuseops.RenameOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	oldParent, err := fs.loadInode(ctx, op.OldParent)
	if err != nil {
		return translate(err)
	}
	newParent, err := fs.loadInode(ctx, op.NewParent)
	if err != nil {
		return translate(err)
	}

	inum, err := fs.lookupChild(ctx, oldParent, op.OldName)
	if err != nil {
		return translate(err)
	}

	if _, err := fs.lookupChild(ctx, newParent, op.NewName); err == nil {
		// Overwriting an existing destination; its inode is left in
		// place for ForgetInode to eventually evict.
		if err := fs.removeChild(ctx, newParent, op.NewName); err != nil {
			return translate(err)
		}
	}

	if err := fs.removeChild(ctx, oldParent, op.OldName); err != nil {
		return translate(err)
	}
	if err := fs.addChild(ctx, newParent, op.NewName, inum); err != nil {
		return translate(err)
	}
	if err := fs.persistInode(ctx, oldParent); err != nil {
		return translate(err)
	}
	if newParent != oldParent {
		if err := fs.persistInode(ctx, newParent); err != nil {
			return translate(err)
		}
	}
	return nil
}

// RmDir removes an empty directory.
func (fs *FileSystem) RmDir(ctx context.Context, op *fuseops.RmDirOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	parent, err := fs.loadInode(ctx, op.Parent)
	if err != nil {
		return translate(err)
	}
	childInum, err := fs.lookupChild(ctx, parent, op.Name)
	if err != nil {
		return translate(err)
	}
	child, err := fs.loadInode(ctx, fuseops.InodeID(childInum))
	if err != nil {
		return translate(err)
	}
	if !child.IsDir() {
		return translate(fserrors.NewInvariant("rmdir", fmt.Errorf("%q is not a directory", op.Name)))
	}
	names, _, err := fs.readChildren(ctx, child)
	if err != nil {
		return translate(err)
	}
	if len(names) > 2 {
		return translate(fserrors.NewInvariant("rmdir", fmt.Errorf("directory %q is not empty", op.Name)))
	}

	if err := fs.removeChild(ctx, parent, op.Name); err != nil {
		return translate(err)
	}
	parent.HardLinks--
	parent.MTime = fs.clk.Now().Unix()
	if err := fs.persistInode(ctx, parent); err != nil {
		return translate(err)
	}

	child.HardLinks = 0
	if err := fs.persistInode(ctx, child); err != nil {
		return translate(err)
	}
	return nil
}

// Unlink removes a non-directory child, decrementing its hard-link count.
func (fs *FileSystem) Unlink(ctx context.Context, op *fuseops.UnlinkOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	parent, err := fs.loadInode(ctx, op.Parent)
	if err != nil {
		return translate(err)
	}
	childInum, err := fs.lookupChild(ctx, parent, op.Name)
	if err != nil {
		return translate(err)
	}
	child, err := fs.loadInode(ctx, fuseops.InodeID(childInum))
	if err != nil {
		return translate(err)
	}

	if err := fs.removeChild(ctx, parent, op.Name); err != nil {
		return translate(err)
	}
	if err := fs.persistInode(ctx, parent); err != nil {
		return translate(err)
	}

	if child.HardLinks > 0 {
		child.HardLinks--
	}
	if err := fs.persistInode(ctx, child); err != nil {
		return translate(err)
	}
	return nil
}

// OpenDir allocates a directory handle snapshotting the child list as of
// this call.
func (fs *FileSystem) OpenDir(ctx context.Context, op *fuseops.OpenDirOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	n, err := fs.loadInode(ctx, op.Inode)
	if err != nil {
		return translate(err)
	}
	names, inums, err := fs.readChildren(ctx, n)
	if err != nil {
		return translate(err)
	}

	isDir := make([]bool, len(names))
	for i, inum := range inums {
		child, err := fs.loadInode(ctx, fuseops.InodeID(inum))
		if err != nil {
			return translate(err)
		}
		isDir[i] = child.IsDir()
	}

	op.Handle = fs.nextHandleID
	fs.nextHandleID++
	fs.dirHandles[op.Handle] = buildDirHandle(names, inums, isDir)
	return nil
}

// ReadDir serves entries from the handle's snapshot starting at op.Offset.
func (fs *FileSystem) ReadDir(ctx context.Context, op *fuseops.ReadDirOp) error {
	fs.mu.Lock()
	dh, ok := fs.dirHandles[op.Handle]
	fs.mu.Unlock()
	if !ok {
		return translate(fserrors.NewInvariant("readdir", fmt.Errorf("no such directory handle %d", op.Handle)))
	}

	n := 0
	for i := int(op.Offset); i < len(dh.entries); i++ {
		e := dh.entries[i]
		dirType := fuseutil.DT_File
		if e.isDir {
			dirType = fuseutil.DT_Directory
		}
		written := fuseutil.WriteDirent(op.Dst[n:], fuseutil.Dirent{
			Offset: fuseops.DirOffset(i + 1),
			Inode:  fuseops.InodeID(e.inum),
			Name:   e.name,
			Type:   dirType,
		})
		if written == 0 {
			break
		}
		n += written
	}
	op.BytesRead = n
	return nil
}

// ReleaseDirHandle discards a directory handle.
func (fs *FileSystem) ReleaseDirHandle(ctx context.Context, op *fuseops.ReleaseDirHandleOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	delete(fs.dirHandles, op.Handle)
	return nil
}

// OpenFile allocates a file handle; this filesystem keeps no per-handle
// state beyond the inode it refers to.
func (fs *FileSystem) OpenFile(ctx context.Context, op *fuseops.OpenFileOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, err := fs.loadInode(ctx, op.Inode); err != nil {
		return translate(err)
	}

	op.Handle = fs.nextHandleID
	fs.nextHandleID++
	fs.fileHandles[op.Handle] = op.Inode
	return nil
}

// ReadFile reads op.Dst's worth of bytes from op.Offset.
func (fs *FileSystem) ReadFile(ctx context.Context, op *fuseops.ReadFileOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	n, err := fs.loadInode(ctx, op.Inode)
	if err != nil {
		return translate(err)
	}
	read, err := blockio.ReadAt(ctx, fs.log, n, op.Offset, op.Dst)
	if err != nil {
		return translate(err)
	}
	op.BytesRead = read
	return nil
}

// WriteFile writes op.Data at op.Offset, persisting the updated inode.
func (fs *FileSystem) WriteFile(ctx context.Context, op *fuseops.WriteFileOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	n, err := fs.loadInode(ctx, op.Inode)
	if err != nil {
		return translate(err)
	}
	if _, err := blockio.WriteAt(ctx, fs.log, n, op.Offset, op.Data); err != nil {
		return translate(err)
	}
	n.MTime = fs.clk.Now().Unix()
	if err := fs.persistInode(ctx, n); err != nil {
		return translate(err)
	}
	return translate(fs.checkpointIfNecessary(ctx))
}

// ReleaseFileHandle discards a file handle.
func (fs *FileSystem) ReleaseFileHandle(ctx context.Context, op *fuseops.ReleaseFileHandleOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	delete(fs.fileHandles, op.Handle)
	return nil
}

// ReadSymlink returns a symlink inode's target.
func (fs *FileSystem) ReadSymlink(ctx context.Context, op *fuseops.ReadSymlinkOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	n, err := fs.loadInode(ctx, op.Inode)
	if err != nil {
		return translate(err)
	}
	buf := make([]byte, n.Size)
	if _, err := blockio.ReadAt(ctx, fs.log, n, 0, buf); err != nil {
		return translate(err)
	}
	op.Target = string(buf)
	return nil
}

// SyncFile and FlushFile both durably persist the log up to this point
// (fsync, spec.md §4.5); this filesystem has no separate dirty-buffer
// concept to flush independently of a log append, since every write is
// already appended at WriteFile time.
func (fs *FileSystem) SyncFile(ctx context.Context, op *fuseops.SyncFileOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return translate(fs.log.Flush(ctx))
}

func (fs *FileSystem) FlushFile(ctx context.Context, op *fuseops.FlushFileOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return translate(fs.log.Flush(ctx))
}

// RemoveXattr, GetXattr, ListXattr, SetXattr, and Fallocate are not part
// of this filesystem's upcall surface.
func (fs *FileSystem) RemoveXattr(ctx context.Context, op *fuseops.RemoveXattrOp) error {
	return translate(fserrors.NewUnsupported("remove_xattr"))
}

func (fs *FileSystem) GetXattr(ctx context.Context, op *fuseops.GetXattrOp) error {
	return translate(fserrors.NewUnsupported("get_xattr"))
}

func (fs *FileSystem) ListXattr(ctx context.Context, op *fuseops.ListXattrOp) error {
	return translate(fserrors.NewUnsupported("list_xattr"))
}

func (fs *FileSystem) SetXattr(ctx context.Context, op *fuseops.SetXattrOp) error {
	return translate(fserrors.NewUnsupported("set_xattr"))
}

func (fs *FileSystem) Fallocate(ctx context.Context, op *fuseops.FallocateOp) error {
	return translate(fserrors.NewUnsupported("fallocate"))
}

// Destroy runs a final checkpoint so the mount's last state is durable.
func (fs *FileSystem) Destroy() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	_ = fs.checkpointLocked(context.Background(), fs.clk.Now())
}

// translate converts nil or our own error taxonomy to the errno form the
// FUSE kernel bridge expects (spec.md §7); nil passes straight through.
func translate(err error) error {
	if err == nil {
		return nil
	}
	return fserrors.ToErrno(err)
}
