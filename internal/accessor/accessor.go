// Copyright (c) 2025 Netskope, Inc. All rights reserved.

// Package accessor defines the host data contract and its interchangeable
// implementations. The export pipeline works against the Accessor interface
// only; the concrete implementation is injected at startup.
package accessor

import (
	"context"
	"fmt"

	"github.com/netSkope/table-export-tool/internal/table"
)

var (
	// ErrSDKUnavailable means the host connection never became ready.
	// Fatal for the whole session.
	ErrSDKUnavailable = fmt.Errorf("host SDK unavailable")

	// ErrDataUnavailable means field or record data could not be fetched.
	// Fatal for the session; no partial table is usable without both.
	ErrDataUnavailable = fmt.Errorf("table data unavailable")
)

// Accessor is the host data contract: connect once, then read an immutable
// snapshot of fields and records, and resolve attachment tokens to URLs on
// demand.
type Accessor interface {
	Connect(ctx context.Context) error
	ListFields(ctx context.Context) ([]table.FieldMeta, error)
	ListRecords(ctx context.Context) ([]table.Record, error)
	ResolveAttachmentURL(ctx context.Context, token string) (string, error)
}
