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

	"github.com/google/logfuse/fs"
	"github.com/google/logfuse/internal/logger"
	"github.com/spf13/cobra"
)

var mkfsCmd = &cobra.Command{
	Use:   "mkfs",
	Short: "Format a fresh bucket/local-directory as an empty logfuse filesystem",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		if bindErr != nil {
			return bindErr
		}
		if mountConfig.Bucket.Name == "" && mountConfig.Bucket.LocalDirectory == "" {
			return fmt.Errorf("mkfs: one of bucket.name or bucket.local-directory must be set")
		}
		configureLogging(&mountConfig)

		ctx := context.Background()
		backend, err := buildBackend(ctx, &mountConfig)
		if err != nil {
			return err
		}

		serverCfg := serverConfigFrom(fs.ServerConfig{Backend: backend}, &mountConfig)
		bucketName := mountConfig.Bucket.Name
		if bucketName == "" {
			bucketName = mountConfig.Bucket.LocalDirectory
		}
		if err := fs.Mkfs(ctx, &serverCfg, bucketName); err != nil {
			return fmt.Errorf("fs.Mkfs: %w", err)
		}

		logger.Infof("formatted %q as an empty logfuse filesystem", bucketName)
		return nil
	},
}
