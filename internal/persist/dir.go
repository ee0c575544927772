// Copyright (c) 2025 Netskope, Inc. All rights reserved.

package persist

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/netSkope/table-export-tool/internal/naming"
	"go.uber.org/zap"
)

// DirPicker selects the root export directory. Returning an empty path with
// a nil error models the user cancelling the picker.
type DirPicker func(ctx context.Context) (string, error)

// Dir is the directory-backed strategy: per-record subdirectories and
// individually named files on the local filesystem.
type Dir struct {
	picker      DirPicker
	downloadDir string
	logger      *zap.Logger
}

type dirHandle string

func (h dirHandle) Path() string { return string(h) }

// NewDir creates a backend whose picker always chooses root. Single-file
// downloads land in downloadDir.
func NewDir(root, downloadDir string, logger *zap.Logger) *Dir {
	return NewDirWithPicker(func(context.Context) (string, error) {
		return root, nil
	}, downloadDir, logger)
}

// NewDirWithPicker creates a backend with a custom directory picker.
func NewDirWithPicker(picker DirPicker, downloadDir string, logger *zap.Logger) *Dir {
	return &Dir{picker: picker, downloadDir: downloadDir, logger: logger}
}

func (d *Dir) SupportsStructuredStorage() bool { return true }

func (d *Dir) PickDirectory(ctx context.Context) (Handle, error) {
	root, err := d.picker(ctx)
	if err != nil {
		return nil, fmt.Errorf("pick directory: %w", err)
	}
	if root == "" {
		return nil, nil
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create root directory: %w", err)
	}
	return dirHandle(root), nil
}

func (d *Dir) CreateSubdirectory(_ context.Context, parent Handle, name string) (Handle, error) {
	if parent == nil {
		return nil, fmt.Errorf("parent directory handle is nil")
	}
	clean := naming.Sanitize(name)
	if clean == "" {
		return nil, fmt.Errorf("subdirectory name sanitizes to empty")
	}

	path := filepath.Join(parent.Path(), clean)
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("create subdirectory %s: %w", clean, err)
	}
	return dirHandle(path), nil
}

func (d *Dir) WriteFile(_ context.Context, dir Handle, name string, content []byte) Result {
	if dir == nil {
		return Result{Success: false, Message: "no destination directory", FileName: name}
	}
	return writeLocalFile(dir.Path(), name, content, d.logger)
}

func (d *Dir) DownloadSingleFile(_ context.Context, name string, content []byte) Result {
	if err := os.MkdirAll(d.downloadDir, 0755); err != nil {
		return Result{Success: false, Message: fmt.Sprintf("create download directory: %v", err), FileName: name}
	}
	return writeLocalFile(d.downloadDir, name, content, d.logger)
}

func writeLocalFile(dir, name string, content []byte, logger *zap.Logger) Result {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		logger.Warn("File write failed",
			zap.String("path", path),
			zap.Error(err))
		return Result{Success: false, Message: fmt.Sprintf("write %s: %v", name, err), FileName: name}
	}

	logger.Debug("File written",
		zap.String("path", path),
		zap.Int("size", len(content)))
	return Result{Success: true, Message: fmt.Sprintf("file %s saved", name), FileName: name}
}
