// Copyright (c) 2025 Netskope, Inc. All rights reserved.

// Package persist abstracts over the export write strategies: structured
// directory storage (local directories or S3 prefixes) and the single-file
// download fallback.
package persist

import (
	"context"
	"fmt"
)

// ErrStructuredUnsupported is returned by structured operations on backends
// that only support single-file downloads.
var ErrStructuredUnsupported = fmt.Errorf("backend does not support structured storage")

// Handle identifies a destination directory (or key prefix) owned by a
// backend. Handles are read-shared across a whole export run.
type Handle interface {
	Path() string
}

// Result records the outcome of one file write. Per-file failures are
// captured here instead of aborting the run.
type Result struct {
	Success  bool
	Message  string
	FileName string
}

// Backend is the persistence contract consumed by the export orchestrator.
type Backend interface {
	// SupportsStructuredStorage reports whether the backend can create
	// nested directories and individually named files.
	SupportsStructuredStorage() bool

	// PickDirectory obtains the root destination for a run. A nil handle
	// with a nil error means the user declined; the export aborts cleanly.
	PickDirectory(ctx context.Context) (Handle, error)

	// CreateSubdirectory creates (or reuses) a named subdirectory under
	// parent. Re-creation of an existing subdirectory is idempotent.
	CreateSubdirectory(ctx context.Context, parent Handle, name string) (Handle, error)

	// WriteFile writes content under dir.
	WriteFile(ctx context.Context, dir Handle, name string, content []byte) Result

	// DownloadSingleFile persists one file outside any directory hierarchy,
	// used when no directory was obtained.
	DownloadSingleFile(ctx context.Context, name string, content []byte) Result
}
