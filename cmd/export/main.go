// Copyright (c) 2025 Netskope, Inc. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/netSkope/table-export-tool/internal/accessor"
	"github.com/netSkope/table-export-tool/internal/attachment"
	"github.com/netSkope/table-export-tool/internal/config"
	"github.com/netSkope/table-export-tool/internal/document"
	"github.com/netSkope/table-export-tool/internal/export"
	tablelog "github.com/netSkope/table-export-tool/internal/log"
	"github.com/netSkope/table-export-tool/internal/persist"
	"github.com/netSkope/table-export-tool/internal/table"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := tablelog.NewLogger("/tmp", "table-export", cfg.Debug, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	logger.Info("Starting table export tool",
		zap.String("data_source", cfg.DataSource),
		zap.String("storage", cfg.Storage),
		zap.String("format", cfg.Format))

	ctx := context.Background()

	acc, err := buildAccessor(cfg, logger)
	if err != nil {
		logger.Error("Failed to create data accessor", zap.Error(err))
		os.Exit(1)
	}

	backend, err := buildBackend(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to create storage backend", zap.Error(err))
		os.Exit(1)
	}

	opts := []export.Option{
		export.WithRequestDelay(time.Duration(cfg.RequestDelayMs) * time.Millisecond),
	}
	if cfg.FetchAttachments {
		opts = append(opts, export.WithFetcher(attachment.NewHTTPFetcher(30*time.Second, logger)))
	}
	if !cfg.Quiet {
		opts = append(opts, export.WithStatusFunc(printStatus))
	}

	orch := export.New(acc, backend, logger, opts...)

	if err := orch.Init(ctx); err != nil {
		logger.Error("Failed to initialize export session", zap.Error(err))
		os.Exit(1)
	}

	selection := export.Config{
		TextFields:       cfg.TextFields,
		AttachmentFields: cfg.AttachmentFields,
		Format:           document.Format(cfg.Format),
		NamingField:      cfg.NamingField,
	}
	if len(selection.TextFields) == 0 && len(selection.AttachmentFields) == 0 {
		// Nothing selected: export every eligible field.
		for _, f := range orch.Fields() {
			switch {
			case f.Type.IsTextExportable():
				selection.TextFields = append(selection.TextFields, f.ID)
			case f.Type == table.FieldAttachment:
				selection.AttachmentFields = append(selection.AttachmentFields, f.ID)
			}
		}
	}
	if err := orch.SetConfig(selection); err != nil {
		logger.Error("Invalid export selection", zap.Error(err))
		os.Exit(1)
	}

	est := orch.Estimate()
	logger.Info("Export estimate",
		zap.Int("documents", est.Documents),
		zap.Int("attachments", est.Attachments),
		zap.String("attachment_bytes", attachment.FormatSize(est.AttachmentBytes)))

	if cfg.Combined {
		res, err := orch.ExportCombined(ctx)
		if err != nil {
			if errors.Is(err, export.ErrNoFieldsSelected) {
				logger.Warn("Combined export did not run", zap.Error(err))
				fmt.Printf("Export skipped: %v\n", err)
				return
			}
			logger.Error("Combined export failed", zap.Error(err))
			os.Exit(1)
		}
		fmt.Printf("\n=== Export Summary ===\n")
		fmt.Printf("Combined document: %s\n", res.FileName)
		fmt.Printf("Destination: %s\n", cfg.OutputDir)
		if !cfg.Quiet {
			fmt.Printf("======================\n")
		}
		logger.Info("Export tool finished")
		return
	}

	summary, err := orch.Export(ctx)
	if err != nil {
		// Declined picker and empty selections are warnings, not failures.
		if errors.Is(err, export.ErrNoFieldsSelected) || errors.Is(err, export.ErrDirectoryCancelled) {
			logger.Warn("Export did not run", zap.Error(err))
			fmt.Printf("Export skipped: %v\n", err)
			return
		}
		logger.Error("Export failed", zap.Error(err))
		os.Exit(1)
	}

	// Print summary
	fmt.Printf("\n=== Export Summary ===\n")
	fmt.Printf("Documents written: %d\n", summary.Documents)
	fmt.Printf("Attachments written: %d\n", summary.Attachments)
	fmt.Printf("Record folders: %d\n", summary.Folders)
	fmt.Printf("Failed writes: %d\n", summary.FailedWrites)
	switch cfg.Storage {
	case "s3":
		fmt.Printf("Destination: s3://%s/%s\n", cfg.S3Bucket, cfg.S3Prefix)
	default:
		fmt.Printf("Destination: %s\n", cfg.OutputDir)
	}
	if !cfg.Quiet {
		fmt.Printf("======================\n")
	}

	logger.Info("Export tool finished")
}

// buildAccessor selects the data source implementation.
func buildAccessor(cfg *config.Config, logger *zap.Logger) (accessor.Accessor, error) {
	switch cfg.DataSource {
	case "mock":
		return accessor.NewMockDataset(), nil
	case "mysql":
		host := cfg.MySQLHost
		if cfg.MySQLPort > 0 && cfg.MySQLPort != 3306 {
			host = fmt.Sprintf("%s:%d", cfg.MySQLHost, cfg.MySQLPort)
		}
		return accessor.NewSQL(accessor.SQLConfig{
			Host:         host,
			User:         cfg.MySQLUser,
			Password:     cfg.MySQLPassword,
			Database:     cfg.MySQLDatabase,
			FieldsTable:  cfg.FieldsTable,
			RecordsTable: cfg.RecordsTable,
			SecretName:   cfg.DBSecretName,
			AWSRegion:    cfg.AWSRegion,
			URLTemplate:  cfg.AttachmentURLTemplate,
			TimeoutSec:   cfg.SQLTimeout,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown data source %q", cfg.DataSource)
	}
}

// buildBackend selects the persistence backend.
func buildBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (persist.Backend, error) {
	switch cfg.Storage {
	case "dir":
		return persist.NewDir(cfg.OutputDir, cfg.OutputDir, logger), nil
	case "download":
		return persist.NewDownload(cfg.OutputDir, logger), nil
	case "s3":
		return persist.NewS3(ctx, cfg.S3Bucket, cfg.S3Prefix, cfg.AWSRegion, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}
}

func printStatus(st export.Status) {
	if st.HasProgress {
		fmt.Printf("[%s] %s (%.0f%%)\n", st.Type, st.Message, st.Progress)
		return
	}
	fmt.Printf("[%s] %s\n", st.Type, st.Message)
}
