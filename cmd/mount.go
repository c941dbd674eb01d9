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
	"time"

	"github.com/google/logfuse/cfg"
	"github.com/google/logfuse/clock"
	"github.com/google/logfuse/fs"
	"github.com/google/logfuse/internal/logger"
	"github.com/jacobsa/fuse"
	"github.com/spf13/cobra"
)

var mountCmd = &cobra.Command{
	Use:   "mount <mount-point>",
	Short: "Mount the filesystem at the given mount point",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		if bindErr != nil {
			return bindErr
		}
		mountConfig.MountPoint = args[0]
		if err := mountConfig.Validate(); err != nil {
			return err
		}
		configureLogging(&mountConfig)

		ctx := context.Background()
		return runMount(ctx, &mountConfig)
	},
}

func configureLogging(c *cfg.Config) {
	logger.SetFormat(c.Log.Format)
	logger.SetLevel(c.Log.Severity)
	if c.Log.File != "" {
		f, err := os.OpenFile(c.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			logger.Errorf("opening log file %q: %v", c.Log.File, err)
			return
		}
		logger.SetOutput(f)
	}
}

// serverConfigFrom adapts a cfg.Config into the fs.ServerConfig the
// integrator expects, reusing base for the fields the caller has already
// set (namely Backend).
func serverConfigFrom(base fs.ServerConfig, c *cfg.Config) fs.ServerConfig {
	base.Clock = clock.RealClock{}
	base.BlockSize = c.Layout.BlockSize
	base.BlocksPerSegment = c.Layout.BlocksPerSegment
	base.Uid = c.Perms.Uid
	base.Gid = c.Perms.Gid
	base.DirPerms = os.FileMode(c.Perms.DirMode)
	base.FilePerms = os.FileMode(c.Perms.FileMode)
	base.CheckpointFrequency = time.Duration(c.Checkpoint.FrequencySeconds) * time.Second
	return base
}

// runMount builds the backend, mounts the filesystem, and blocks until it
// is unmounted (spec.md §3.6, "Mount").
func runMount(ctx context.Context, c *cfg.Config) error {
	backend, err := buildBackend(ctx, c)
	if err != nil {
		return err
	}

	serverCfg := serverConfigFrom(fs.ServerConfig{Backend: backend}, c)
	server, err := fs.Mount(ctx, &serverCfg)
	if err != nil {
		return fmt.Errorf("fs.Mount: %w", err)
	}

	logger.Infof("mounting at %q", c.MountPoint)
	mfs, err := fuse.Mount(c.MountPoint, server, &fuse.MountConfig{
		FSName:     "logfuse",
		Subtype:    "logfuse",
		VolumeName: "logfuse",
	})
	if err != nil {
		return fmt.Errorf("fuse.Mount: %w", err)
	}

	if err := mfs.Join(ctx); err != nil {
		return fmt.Errorf("waiting for unmount: %w", err)
	}
	return nil
}
