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

package fserrors_test

import (
	"errors"
	"testing"

	"github.com/google/logfuse/internal/fserrors"
	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"
)

func TestIsMatchesSentinelKind(t *testing.T) {
	err := fserrors.NewNotFound("lookup", errors.New("no such inode"))
	assert.True(t, errors.Is(err, fserrors.NotFound))
	assert.False(t, errors.Is(err, fserrors.Unsupported))
}

func TestKindOf(t *testing.T) {
	err := fserrors.NewBackendUnavailable("get_segment", errors.New("timeout"))
	kind, ok := fserrors.KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, fserrors.KindBackendUnavailable, kind)

	_, ok = fserrors.KindOf(errors.New("plain error"))
	assert.False(t, ok)
}

func TestToErrno(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want unix.Errno
	}{
		{"not found", fserrors.NewNotFound("lookup", nil), unix.ENOENT},
		{"unsupported", fserrors.NewUnsupported("ioctl"), unix.ENOSYS},
		{"backend unavailable", fserrors.NewBackendUnavailable("get_segment", nil), unix.EIO},
		{"invariant", fserrors.NewInvariant("decode_inode", nil), unix.EIO},
		{"unclassified", errors.New("boom"), unix.EIO},
		{"nil", nil, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, fserrors.ToErrno(c.err))
		})
	}
}

func TestUnwrapPreservesUnderlyingError(t *testing.T) {
	underlying := errors.New("connection reset")
	err := fserrors.NewBackendUnavailable("put_segment", underlying)
	assert.ErrorIs(t, err, underlying)
}
