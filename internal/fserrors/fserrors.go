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

// Package fserrors defines the error taxonomy the filesystem's internal
// layers raise (spec.md §7) and the translation of that taxonomy to the
// errno values the FUSE upcall boundary returns to the kernel.
package fserrors

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Kind classifies an error into one of the four categories this module
// distinguishes at the upcall boundary.
type Kind int

const (
	// KindNotFound means the named object (inode, child, block) does not
	// exist. Translates to ENOENT.
	KindNotFound Kind = iota
	// KindBackendUnavailable means the ObjectStore could not be reached
	// or returned a transient failure. Translates to EIO.
	KindBackendUnavailable
	// KindUnsupported means the operation is valid but this filesystem
	// does not implement it. Translates to ENOSYS.
	KindUnsupported
	// KindInvariant means an internal consistency check failed (a
	// corrupt checkpoint, an out-of-range indirect tier, and the like).
	// Translates to EIO; callers should treat this as a bug, not a
	// recoverable condition.
	KindInvariant
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindBackendUnavailable:
		return "backend_unavailable"
	case KindUnsupported:
		return "unsupported"
	case KindInvariant:
		return "invariant"
	default:
		return "unknown"
	}
}

// Error is the concrete error type produced by this package's
// constructors. It carries a Kind so callers can both errors.Is against
// the sentinel kind values below and translate to errno with ToErrno.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is one of the package's sentinel Kind
// markers, so callers can write errors.Is(err, fserrors.NotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Err == nil && t.Op == "" && e.Kind == t.Kind
}

// Sentinel markers for use with errors.Is. They carry no op or wrapped
// error, only a Kind, matching the zero-value comparison Error.Is makes.
var (
	NotFound           = &Error{Kind: KindNotFound}
	BackendUnavailable = &Error{Kind: KindBackendUnavailable}
	Unsupported        = &Error{Kind: KindUnsupported}
	Invariant          = &Error{Kind: KindInvariant}
)

// NewNotFound wraps err (which may be nil) as a KindNotFound error
// raised by operation op.
func NewNotFound(op string, err error) error {
	return &Error{Kind: KindNotFound, Op: op, Err: err}
}

// NewBackendUnavailable wraps err as a KindBackendUnavailable error
// raised by operation op.
func NewBackendUnavailable(op string, err error) error {
	return &Error{Kind: KindBackendUnavailable, Op: op, Err: err}
}

// NewUnsupported reports that op is not implemented.
func NewUnsupported(op string) error {
	return &Error{Kind: KindUnsupported, Op: op}
}

// NewInvariant wraps err as an internal consistency failure raised by
// operation op.
func NewInvariant(op string, err error) error {
	return &Error{Kind: KindInvariant, Op: op, Err: err}
}

// KindOf extracts the Kind of err, walking its Unwrap chain. The second
// return is false if no *Error is found anywhere in the chain.
func KindOf(err error) (Kind, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return 0, false
}

// ToErrno translates err to the errno value the FUSE upcall boundary
// should return to the kernel. Errors not produced by this package
// translate to EIO, since an unclassified failure is assumed to be a
// backend or invariant problem rather than a well-understood ENOENT.
func ToErrno(err error) unix.Errno {
	if err == nil {
		return 0
	}
	kind, ok := KindOf(err)
	if !ok {
		return unix.EIO
	}
	switch kind {
	case KindNotFound:
		return unix.ENOENT
	case KindUnsupported:
		return unix.ENOSYS
	case KindBackendUnavailable, KindInvariant:
		return unix.EIO
	default:
		return unix.EIO
	}
}
