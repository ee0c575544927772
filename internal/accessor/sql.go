// Copyright (c) 2025 Netskope, Inc. All rights reserved.

package accessor

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/netSkope/table-export-tool/internal/store"
	"github.com/netSkope/table-export-tool/internal/table"
	"github.com/netSkope/table-export-tool/internal/util"
	"go.uber.org/zap"
)

// SQLConfig holds the connection and schema settings for the SQL-backed
// accessor. Field metadata lives in FieldsTable (id, name, type, property,
// position) and cell values in RecordsTable (record_id, field_id, value,
// position) with values JSON-encoded in the host's raw shapes.
type SQLConfig struct {
	Host     string // host or host:port
	User     string
	Password string
	Database string

	FieldsTable  string
	RecordsTable string

	// Secrets Manager fallback for the password, consulted only when
	// Password and the env override are both unset.
	SecretName string
	AWSRegion  string

	// URLTemplate composes download URLs from attachment tokens. It must
	// contain a single %s verb.
	URLTemplate string

	TimeoutSec int
}

// SQL reads the table snapshot from a MySQL/MariaDB database.
type SQL struct {
	cfg    SQLConfig
	client *store.SQLClient
	logger *zap.Logger
}

// NewSQL creates an unconnected SQL accessor.
func NewSQL(cfg SQLConfig, logger *zap.Logger) (*SQL, error) {
	if cfg.FieldsTable == "" {
		cfg.FieldsTable = "table_fields"
	}
	if cfg.RecordsTable == "" {
		cfg.RecordsTable = "table_records"
	}
	if cfg.URLTemplate == "" {
		cfg.URLTemplate = "https://example.com/mock-file/%s"
	}
	if !strings.Contains(cfg.URLTemplate, "%s") {
		return nil, fmt.Errorf("url template must contain %%s: %q", cfg.URLTemplate)
	}
	return &SQL{cfg: cfg, logger: logger}, nil
}

// NewSQLFromDB wraps an existing connection (used by integration tests).
func NewSQLFromDB(db *sql.DB, cfg SQLConfig, logger *zap.Logger) (*SQL, error) {
	acc, err := NewSQL(cfg, logger)
	if err != nil {
		return nil, err
	}
	acc.client = store.NewSQLClientFromDB(db, cfg.TimeoutSec)
	return acc, nil
}

func (a *SQL) Connect(ctx context.Context) error {
	if a.client != nil {
		return nil
	}

	pwd, err := util.ResolveDBPassword(a.cfg.Password, a.cfg.SecretName, a.cfg.AWSRegion)
	if err != nil {
		return fmt.Errorf("resolve database password: %w", err)
	}

	client, err := store.NewSQLClient(a.cfg.Host, a.cfg.User, pwd, a.cfg.TimeoutSec, a.cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w (%v)", ErrSDKUnavailable, err)
	}

	a.client = client
	a.logger.Info("Connected to table database",
		zap.String("host", a.cfg.Host),
		zap.String("database", a.cfg.Database))
	return nil
}

func (a *SQL) Close() error {
	if a.client != nil {
		return a.client.Close()
	}
	return nil
}

func (a *SQL) ListFields(ctx context.Context) ([]table.FieldMeta, error) {
	if a.client == nil {
		return nil, fmt.Errorf("list fields: %w", ErrDataUnavailable)
	}

	query := fmt.Sprintf(
		"SELECT id, name, type, property FROM %s ORDER BY position, id",
		a.cfg.FieldsTable)

	rows, err := a.client.GetDB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query fields: %w (%v)", ErrDataUnavailable, err)
	}
	defer rows.Close()

	var fields []table.FieldMeta
	for rows.Next() {
		var (
			meta     table.FieldMeta
			typ      string
			property sql.NullString
		)
		if err := rows.Scan(&meta.ID, &meta.Name, &typ, &property); err != nil {
			return nil, fmt.Errorf("scan field row: %w", err)
		}
		meta.Type = table.FieldType(typ)
		if property.Valid && property.String != "" {
			if err := json.Unmarshal([]byte(property.String), &meta.Property); err != nil {
				a.logger.Warn("Ignoring malformed field property",
					zap.String("field_id", meta.ID),
					zap.Error(err))
			}
		}
		fields = append(fields, meta)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("field row iteration: %w", err)
	}

	return fields, nil
}

func (a *SQL) ListRecords(ctx context.Context) ([]table.Record, error) {
	if a.client == nil {
		return nil, fmt.Errorf("list records: %w", ErrDataUnavailable)
	}

	types, err := a.fieldTypes(ctx)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		"SELECT record_id, field_id, value FROM %s ORDER BY position, record_id",
		a.cfg.RecordsTable)

	rows, err := a.client.GetDB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query records: %w (%v)", ErrDataUnavailable, err)
	}
	defer rows.Close()

	// Cell rows group into records preserving first-seen order; that order
	// is the snapshot order the export pipeline iterates in.
	var (
		records []table.Record
		index   = map[string]int{}
	)
	for rows.Next() {
		var (
			recordID, fieldID string
			value             sql.NullString
		)
		if err := rows.Scan(&recordID, &fieldID, &value); err != nil {
			return nil, fmt.Errorf("scan record row: %w", err)
		}

		i, ok := index[recordID]
		if !ok {
			i = len(records)
			index[recordID] = i
			records = append(records, table.Record{
				RecordID: recordID,
				Fields:   map[string]table.Value{},
			})
		}

		if !value.Valid {
			continue
		}
		v, err := table.DecodeJSONValue([]byte(value.String), types[fieldID])
		if err != nil {
			a.logger.Warn("Skipping malformed cell value",
				zap.String("record_id", recordID),
				zap.String("field_id", fieldID),
				zap.Error(err))
			continue
		}
		if v != nil {
			records[i].Fields[fieldID] = v
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("record row iteration: %w", err)
	}

	return records, nil
}

// ResolveAttachmentURL composes the download URL from the configured
// template. Replace the template with a signed-URL endpoint for real hosts.
func (a *SQL) ResolveAttachmentURL(_ context.Context, token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("attachment token is empty")
	}
	return fmt.Sprintf(a.cfg.URLTemplate, token), nil
}

func (a *SQL) fieldTypes(ctx context.Context) (map[string]table.FieldType, error) {
	query := fmt.Sprintf("SELECT id, type FROM %s", a.cfg.FieldsTable)
	rows, err := a.client.GetDB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query field types: %w (%v)", ErrDataUnavailable, err)
	}
	defer rows.Close()

	types := map[string]table.FieldType{}
	for rows.Next() {
		var id, typ string
		if err := rows.Scan(&id, &typ); err != nil {
			return nil, fmt.Errorf("scan field type row: %w", err)
		}
		types[id] = table.FieldType(typ)
	}
	return types, rows.Err()
}
