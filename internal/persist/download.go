// Copyright (c) 2025 Netskope, Inc. All rights reserved.

package persist

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Download is the fallback strategy used when structured storage is
// unavailable: every artifact becomes an individual file in a flat downloads
// directory, mirroring single-file browser downloads. No folder hierarchy is
// possible, so composed names are the only grouping.
type Download struct {
	dir    string
	logger *zap.Logger
}

// NewDownload creates a fallback backend writing into dir.
func NewDownload(dir string, logger *zap.Logger) *Download {
	return &Download{dir: dir, logger: logger}
}

func (d *Download) SupportsStructuredStorage() bool { return false }

func (d *Download) PickDirectory(context.Context) (Handle, error) {
	return nil, nil
}

func (d *Download) CreateSubdirectory(context.Context, Handle, string) (Handle, error) {
	return nil, ErrStructuredUnsupported
}

func (d *Download) WriteFile(_ context.Context, _ Handle, name string, _ []byte) Result {
	return Result{Success: false, Message: ErrStructuredUnsupported.Error(), FileName: name}
}

func (d *Download) DownloadSingleFile(_ context.Context, name string, content []byte) Result {
	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return Result{Success: false, Message: fmt.Sprintf("create download directory: %v", err), FileName: name}
	}

	path := filepath.Join(d.dir, name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		d.logger.Warn("Download write failed",
			zap.String("path", path),
			zap.Error(err))
		return Result{Success: false, Message: fmt.Sprintf("download %s: %v", name, err), FileName: name}
	}

	d.logger.Debug("Download written",
		zap.String("path", path),
		zap.Int("size", len(content)))
	return Result{Success: true, Message: fmt.Sprintf("file %s downloaded", name), FileName: name}
}
