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

package inode_test

import (
	"testing"

	"github.com/google/logfuse/internal/inode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChildTableRoundTrip(t *testing.T) {
	names := []string{".", "..", "a", "bb"}
	inums := []uint64{1, 0, 2, 3}

	encoded := inode.EncodeChildTable(names, inums)
	gotNames, gotInums, err := inode.DecodeChildTable(encoded)
	require.NoError(t, err)
	assert.Equal(t, names, gotNames)
	assert.Equal(t, inums, gotInums)
}

func TestChildTableTolerantOfTrailingPadding(t *testing.T) {
	encoded := inode.EncodeChildTable([]string{"x"}, []uint64{5})
	padded, err := inode.Pad(encoded, 256)
	require.NoError(t, err)

	names, inums, err := inode.DecodeChildTable(padded)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, names)
	assert.Equal(t, []uint64{5}, inums)
}

func TestChildTableEmpty(t *testing.T) {
	encoded := inode.EncodeChildTable(nil, nil)
	names, inums, err := inode.DecodeChildTable(encoded)
	require.NoError(t, err)
	assert.Empty(t, names)
	assert.Empty(t, inums)
}
