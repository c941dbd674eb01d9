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

// Package gcsblob implements objectstore.Store on top of a real Google
// Cloud Storage bucket, the production backend this filesystem is named
// for (spec.md §1). It is a thin adapter: object naming and error
// translation only, no caching or retry policy of its own (caching lives
// in internal/cache; no layer of this module retries a failed request).
package gcsblob

import (
	"context"
	"errors"
	"io"

	"cloud.google.com/go/storage"
	"github.com/google/logfuse/objectstore"
)

// Store adapts a *storage.BucketHandle to objectstore.Store.
type Store struct {
	client     *storage.Client
	projectID  string
	bucketName string
	bucket     *storage.BucketHandle
}

// New returns a Store for bucketName using client. projectID is only
// needed by Create, to provision the bucket at mkfs time; it may be empty
// if the bucket already exists.
func New(client *storage.Client, projectID, bucketName string) *Store {
	return &Store{client: client, projectID: projectID, bucketName: bucketName, bucket: client.Bucket(bucketName)}
}

func (s *Store) get(ctx context.Context, key string) ([]byte, error) {
	r, err := s.bucket.Object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, objectstore.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (s *Store) put(ctx context.Context, key string, data []byte, failIfExists bool) error {
	obj := s.bucket.Object(key)
	if failIfExists {
		obj = obj.If(storage.Conditions{DoesNotExist: true})
	}
	w := obj.NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func (s *Store) GetCheckpoint(ctx context.Context) ([]byte, error) {
	return s.get(ctx, objectstore.CheckpointKey)
}

// PutCheckpoint overwrites the checkpoint key; GCS object overwrite is a
// single atomic put (spec.md §5).
func (s *Store) PutCheckpoint(ctx context.Context, data []byte) error {
	return s.put(ctx, objectstore.CheckpointKey, data, false)
}

func (s *Store) GetSegment(ctx context.Context, id uint64) ([]byte, error) {
	return s.get(ctx, objectstore.SegmentKey(id))
}

// PutSegment writes a segment's bytes exactly once; a conditional create
// guards against the caller's own bug of rewriting a sealed segment.
func (s *Store) PutSegment(ctx context.Context, id uint64, data []byte) error {
	return s.put(ctx, objectstore.SegmentKey(id), data, true)
}

// Flush is a no-op: GCS object writes are already durable when NewWriter's
// Close returns successfully.
func (s *Store) Flush(ctx context.Context) error { return nil }

// Create provisions the bucket if it does not already exist.
func (s *Store) Create(ctx context.Context) error {
	_, err := s.bucket.Attrs(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrBucketNotExist) {
		return err
	}
	return s.bucket.Create(ctx, s.projectID, nil)
}
