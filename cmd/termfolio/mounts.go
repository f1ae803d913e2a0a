package main

import (
	"context"

	"github.com/termfolio/termfolio/internal/manifest"
	"github.com/termfolio/termfolio/internal/mount"
	"github.com/termfolio/termfolio/internal/session"
)

// tableLoader reads the mounts file anew on every call, so a remount
// also picks up added or removed mounts.
func tableLoader() session.Loader {
	return func(ctx context.Context) (*mount.Table, error) {
		mounts, err := mount.LoadFile(cfg.MountsFile)
		if err != nil {
			return nil, err
		}
		return mount.Build(ctx, mounts, mount.BuildOptions{
			Home:        cfg.HomeAlias,
			S3Defaults:  s3Defaults(),
			Concurrency: 4,
		})
	}
}

func s3Defaults() manifest.S3Config {
	return manifest.S3Config{
		Endpoint:  cfg.S3Endpoint,
		Bucket:    cfg.S3Bucket,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Region:    cfg.S3Region,
	}
}

func sessionOptions() session.Options {
	return session.Options{
		Hostname:   cfg.Hostname,
		MaxHistory: cfg.MaxHistory,
		MaxOutput:  cfg.MaxOutput,
	}
}
