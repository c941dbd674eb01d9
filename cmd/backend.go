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

package cmd

import (
	"context"
	"fmt"

	"os"

	"cloud.google.com/go/storage"
	"github.com/google/logfuse/cfg"
	"github.com/google/logfuse/internal/asyncwriter"
	"github.com/google/logfuse/internal/cache/disk"
	"github.com/google/logfuse/internal/cache/memory"
	"github.com/google/logfuse/internal/logger"
	"github.com/google/logfuse/objectstore"
	"github.com/google/logfuse/objectstore/gcsblob"
	"github.com/google/logfuse/objectstore/memblob"
)

// buildBackend layers the configured cache/writer stack (spec.md §4.3)
// over either a real GCS bucket or a local directory standing in for one,
// per c.Bucket's mutually exclusive fields.
func buildBackend(ctx context.Context, c *cfg.Config) (objectstore.Store, error) {
	var store objectstore.Store
	if c.Bucket.LocalDirectory != "" {
		logger.Infof("using local-directory bucket at %q", c.Bucket.LocalDirectory)
		store = memblob.NewLocalDirectory(c.Bucket.LocalDirectory)
	} else {
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("creating GCS client: %w", err)
		}
		store = gcsblob.New(client, "", c.Bucket.Name)
	}

	store = memory.New(store, int(c.Cache.MemoryCacheSegments))

	diskCacheDir := c.Cache.DiskCacheDir
	if diskCacheDir == "" {
		diskCacheDir = os.TempDir()
	}
	diskCached, err := disk.New(store, diskCacheDir, int(c.Cache.DiskCacheSegments))
	if err != nil {
		return nil, fmt.Errorf("creating disk cache: %w", err)
	}
	store = diskCached

	asyncStore, err := asyncwriter.New(store, int(c.Cache.UploadWorkers), int(c.Cache.WriteQueueSegments))
	if err != nil {
		return nil, fmt.Errorf("creating async writer: %w", err)
	}
	return asyncStore, nil
}
