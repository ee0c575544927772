// Copyright (c) 2025 Netskope, Inc. All rights reserved.

// Package export drives the end-to-end export session: load the table
// snapshot, validate the selection, then write per-record documents and
// attachments through the configured persistence backend.
package export

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/netSkope/table-export-tool/internal/accessor"
	"github.com/netSkope/table-export-tool/internal/attachment"
	"github.com/netSkope/table-export-tool/internal/document"
	"github.com/netSkope/table-export-tool/internal/naming"
	"github.com/netSkope/table-export-tool/internal/persist"
	"github.com/netSkope/table-export-tool/internal/table"
	"go.uber.org/zap"
)

var (
	// ErrNoFieldsSelected means the export was started with nothing to
	// write. Reported as a warning, not a failure.
	ErrNoFieldsSelected = fmt.Errorf("no fields selected for export")

	// ErrDirectoryCancelled means the user declined the directory picker.
	// The session returns to ready and can be restarted.
	ErrDirectoryCancelled = fmt.Errorf("directory selection cancelled")

	// ErrExportInProgress guards against concurrent export runs on the
	// same session.
	ErrExportInProgress = fmt.Errorf("an export is already in progress")

	// ErrNotReady means Export or SetConfig was called before Init
	// completed.
	ErrNotReady = fmt.Errorf("session is not initialized")
)

// Config is the user's export selection.
type Config struct {
	// TextFields and AttachmentFields hold field IDs from the loaded
	// snapshot.
	TextFields       []string
	AttachmentFields []string

	Format document.Format

	// NamingField is the field ID whose value names each record's folder
	// and file prefix. Defaults to the first text-like field at Init.
	NamingField string
}

// Summary reports what an export run produced.
type Summary struct {
	Documents    int
	Attachments  int
	Folders      int
	FailedWrites int
}

// Estimate is a pre-export size projection. Document sizes are not known
// until synthesis, so only counts and raw attachment bytes are reported.
type Estimate struct {
	Documents       int
	Attachments     int
	AttachmentBytes int64
}

// StatusFunc observes status snapshots as the session progresses.
type StatusFunc func(Status)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithFetcher enables real attachment downloads. Without it, attachments
// are written as descriptive placeholder files.
func WithFetcher(f attachment.Fetcher) Option {
	return func(o *Orchestrator) { o.fetcher = f }
}

// WithStatusFunc registers a status observer.
func WithStatusFunc(fn StatusFunc) Option {
	return func(o *Orchestrator) { o.onStatus = fn }
}

// WithRequestDelay overrides the pacing delay between attachment
// downloads.
func WithRequestDelay(d time.Duration) Option {
	return func(o *Orchestrator) { o.requestDelay = d }
}

// Orchestrator owns one export session over one table snapshot.
type Orchestrator struct {
	accessor accessor.Accessor
	backend  persist.Backend
	fetcher  attachment.Fetcher
	logger   *zap.Logger

	requestDelay time.Duration

	mu          sync.Mutex
	state       State
	isExporting bool
	status      Status
	fields      []table.FieldMeta
	records     []table.Record
	config      Config
	onStatus    StatusFunc
}

// New creates an idle session. Call Init before anything else.
func New(acc accessor.Accessor, backend persist.Backend, logger *zap.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		accessor:     acc,
		backend:      backend,
		logger:       logger,
		requestDelay: attachment.DefaultBatchDelay,
		state:        StateIdle,
		config:       Config{Format: document.FormatDocx},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Init connects to the host and loads the field and record snapshot.
// Fields and records are fetched concurrently; either failure aborts.
func (o *Orchestrator) Init(ctx context.Context) error {
	o.setState(StateInitializing)
	o.publish(Status{Message: "Connecting to table...", Type: StatusInfo})

	if err := o.accessor.Connect(ctx); err != nil {
		o.fail("Failed to connect to table", err)
		return err
	}

	var (
		wg         sync.WaitGroup
		fields     []table.FieldMeta
		records    []table.Record
		fieldsErr  error
		recordsErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		fields, fieldsErr = o.accessor.ListFields(ctx)
	}()
	go func() {
		defer wg.Done()
		records, recordsErr = o.accessor.ListRecords(ctx)
	}()
	wg.Wait()

	if fieldsErr != nil {
		o.fail("Failed to load fields", fieldsErr)
		return fieldsErr
	}
	if recordsErr != nil {
		o.fail("Failed to load records", recordsErr)
		return recordsErr
	}

	o.mu.Lock()
	o.fields = fields
	o.records = records
	if o.config.NamingField == "" {
		for _, f := range fields {
			if f.Type.IsNamingType() {
				o.config.NamingField = f.ID
				break
			}
		}
	}
	o.state = StateReady
	o.mu.Unlock()

	o.logger.Info("Table snapshot loaded",
		zap.Int("fields", len(fields)),
		zap.Int("records", len(records)))
	o.publish(Status{
		Message: fmt.Sprintf("Loaded %d fields and %d records", len(fields), len(records)),
		Type:    StatusInfo,
	})
	return nil
}

// Fields returns the loaded field metadata.
func (o *Orchestrator) Fields() []table.FieldMeta {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]table.FieldMeta, len(o.fields))
	copy(out, o.fields)
	return out
}

// State returns the session state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Status returns the latest published status.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// SetConfig validates and applies the export selection. Unknown field IDs,
// type mismatches, and unsupported formats are rejected.
func (o *Orchestrator) SetConfig(cfg Config) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state == StateIdle || o.state == StateInitializing {
		return ErrNotReady
	}
	if o.isExporting {
		return ErrExportInProgress
	}

	if _, err := document.ParseFormat(string(cfg.Format)); err != nil {
		return err
	}

	byID := map[string]table.FieldMeta{}
	for _, f := range o.fields {
		byID[f.ID] = f
	}

	for _, id := range cfg.TextFields {
		f, ok := byID[id]
		if !ok {
			return fmt.Errorf("unknown text field %q", id)
		}
		if !f.Type.IsTextExportable() {
			return fmt.Errorf("field %q (%s) is not text-exportable", f.Name, f.Type)
		}
	}
	for _, id := range cfg.AttachmentFields {
		f, ok := byID[id]
		if !ok {
			return fmt.Errorf("unknown attachment field %q", id)
		}
		if f.Type != table.FieldAttachment {
			return fmt.Errorf("field %q (%s) is not an attachment field", f.Name, f.Type)
		}
	}

	if cfg.NamingField != "" {
		f, ok := byID[cfg.NamingField]
		if !ok {
			return fmt.Errorf("unknown naming field %q", cfg.NamingField)
		}
		if !f.Type.IsNamingType() {
			return fmt.Errorf("field %q (%s) cannot name folders", f.Name, f.Type)
		}
	} else {
		cfg.NamingField = o.config.NamingField
	}

	o.config = cfg
	return nil
}

// Estimate projects the export volume for the current selection.
func (o *Orchestrator) Estimate() Estimate {
	o.mu.Lock()
	defer o.mu.Unlock()

	var est Estimate
	for _, rec := range o.records {
		for _, id := range o.config.TextFields {
			if _, ok := rec.Fields[id]; ok {
				est.Documents++
			}
		}
		for _, id := range o.config.AttachmentFields {
			for _, att := range attachment.Parse(rec.Fields[id]) {
				est.Attachments++
				est.AttachmentBytes += att.Size
			}
		}
	}
	return est
}

// Preview returns the document and attachment file names the current
// selection would produce, without writing anything.
func (o *Orchestrator) Preview() []string {
	o.mu.Lock()
	defer o.mu.Unlock()

	byID := map[string]table.FieldMeta{}
	for _, f := range o.fields {
		byID[f.ID] = f
	}

	var names []string
	for i, rec := range o.records {
		dirName := naming.DirectoryNameFor(rec, o.namingMetaLocked(), i)
		for _, id := range o.config.TextFields {
			if _, ok := rec.Fields[id]; !ok {
				continue
			}
			names = append(names, naming.DocumentNameFor(dirName, byID[id].Name, o.config.Format))
		}
		for _, id := range o.config.AttachmentFields {
			for _, att := range attachment.Parse(rec.Fields[id]) {
				names = append(names, naming.AttachmentNameFor(dirName, byID[id].Name, att.Name))
			}
		}
	}
	return names
}

// CombinedContent renders every record's selected text fields into a single
// document body with per-record section headers.
func (o *Orchestrator) CombinedContent() string {
	o.mu.Lock()
	defer o.mu.Unlock()

	byID := map[string]table.FieldMeta{}
	for _, f := range o.fields {
		byID[f.ID] = f
	}

	var b strings.Builder
	for i, rec := range o.records {
		dirName := naming.DirectoryNameFor(rec, o.namingMetaLocked(), i)
		fmt.Fprintf(&b, "=== Record %d: %s ===\n", i+1, dirName)
		for _, id := range o.config.TextFields {
			field := byID[id]
			fmt.Fprintf(&b, "%s: %s\n", field.Name, table.FormatValue(rec.Fields[id], field.Type))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// ExportCombined writes the whole selection as one document through the
// single-file path. It does not touch the session state machine.
func (o *Orchestrator) ExportCombined(ctx context.Context) (persist.Result, error) {
	o.mu.Lock()
	cfg := o.config
	o.mu.Unlock()

	if len(cfg.TextFields) == 0 {
		return persist.Result{}, ErrNoFieldsSelected
	}

	name := fmt.Sprintf("table_export.%s", document.Extension(cfg.Format))
	doc, err := document.Synthesize("Table Export", o.CombinedContent(), cfg.Format)
	if err != nil {
		return persist.Result{}, err
	}

	res := o.backend.DownloadSingleFile(ctx, name, doc.Bytes)
	if !res.Success {
		return res, fmt.Errorf("write combined document: %s", res.Message)
	}
	return res, nil
}

// Export runs the full pipeline. It returns a Summary on success and a
// sentinel error when the run ends early (nothing selected, directory
// picker declined, or another run active).
func (o *Orchestrator) Export(ctx context.Context) (*Summary, error) {
	o.mu.Lock()
	if o.state == StateIdle || o.state == StateInitializing {
		o.mu.Unlock()
		return nil, ErrNotReady
	}
	if o.isExporting {
		o.mu.Unlock()
		return nil, ErrExportInProgress
	}
	cfg := o.config
	records := o.records
	namingMeta := o.namingMetaLocked()
	byID := map[string]table.FieldMeta{}
	for _, f := range o.fields {
		byID[f.ID] = f
	}
	if len(cfg.TextFields) == 0 && len(cfg.AttachmentFields) == 0 {
		o.mu.Unlock()
		o.publish(Status{Message: "Select at least one field to export", Type: StatusWarning})
		return nil, ErrNoFieldsSelected
	}
	o.isExporting = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.isExporting = false
		o.mu.Unlock()
	}()

	runID := uuid.NewString()
	logger := o.logger.With(zap.String("run_id", runID))
	logger.Info("Export started",
		zap.Int("records", len(records)),
		zap.Int("text_fields", len(cfg.TextFields)),
		zap.Int("attachment_fields", len(cfg.AttachmentFields)),
		zap.String("format", string(cfg.Format)))

	// The directory picker only appears when attachments need a folder
	// tree. Document-only exports always go through the single-file path.
	var root persist.Handle
	if o.backend.SupportsStructuredStorage() && len(cfg.AttachmentFields) > 0 {
		o.setState(StateSelectingDirectory)
		o.publish(Status{IsExporting: true, Message: "Choose an export directory", Type: StatusInfo})

		h, err := o.backend.PickDirectory(ctx)
		if err != nil {
			o.fail("Directory selection failed", err)
			return nil, err
		}
		if h == nil {
			o.setState(StateCancelled)
			o.publish(Status{Message: "Export cancelled", Type: StatusWarning})
			logger.Info("Export cancelled at directory selection")
			// No files were written; the session can start another run.
			o.setState(StateReady)
			return nil, ErrDirectoryCancelled
		}
		root = h
		logger.Info("Export directory selected", zap.String("path", h.Path()))
	}

	summary := &Summary{}

	o.setState(StateExportingDocuments)
	processed := 0
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			o.fail("Export aborted", err)
			return nil, err
		}

		dirName := naming.DirectoryNameFor(rec, namingMeta, processed)
		processed++

		var dir persist.Handle
		if root != nil {
			h, err := o.backend.CreateSubdirectory(ctx, root, dirName)
			if err != nil {
				logger.Warn("Failed to create record directory",
					zap.String("record_id", rec.RecordID),
					zap.String("dir", dirName),
					zap.Error(err))
				summary.FailedWrites++
				continue
			}
			dir = h
			summary.Folders++
		}

		for _, id := range cfg.TextFields {
			v, ok := rec.Fields[id]
			if !ok {
				continue
			}
			field := byID[id]
			content := field.Name + ": " + table.FormatValue(v, field.Type)
			fileName := naming.DocumentNameFor(dirName, field.Name, cfg.Format)

			doc, err := document.Synthesize(fileName, content, cfg.Format)
			if err != nil {
				logger.Warn("Document synthesis failed",
					zap.String("record_id", rec.RecordID),
					zap.String("file", fileName),
					zap.Error(err))
				summary.FailedWrites++
				continue
			}

			var res persist.Result
			if dir != nil {
				res = o.backend.WriteFile(ctx, dir, fileName, doc.Bytes)
			} else {
				res = o.backend.DownloadSingleFile(ctx, fileName, doc.Bytes)
			}
			if !res.Success {
				logger.Warn("Document write failed",
					zap.String("record_id", rec.RecordID),
					zap.String("file", fileName),
					zap.String("reason", res.Message))
				summary.FailedWrites++
				continue
			}
			summary.Documents++
		}

		progress := float64(i+1) / float64(len(records)) * 50
		o.publish(Status{
			IsExporting: true,
			Message:     fmt.Sprintf("Exporting documents (%d/%d)", i+1, len(records)),
			Type:        StatusInfo,
			Progress:    progress,
			HasProgress: true,
		})
	}

	if len(cfg.AttachmentFields) > 0 {
		o.publish(Status{
			IsExporting: true,
			Message:     "Documents complete",
			Type:        StatusInfo,
			Progress:    50,
			HasProgress: true,
		})
	}

	if len(cfg.AttachmentFields) > 0 && root != nil {
		o.setState(StateExportingAttachments)
		o.exportAttachments(ctx, logger, cfg, records, namingMeta, byID, root, summary)
	}

	o.setState(StateDone)
	msg := "Export complete"
	if summary.Attachments > 0 {
		msg = fmt.Sprintf("Export complete: %d attachments in %d folders",
			summary.Attachments, summary.Folders)
	}
	o.publish(Status{Message: msg, Type: StatusSuccess, Progress: 100, HasProgress: true})
	logger.Info("Export finished",
		zap.Int("documents", summary.Documents),
		zap.Int("attachments", summary.Attachments),
		zap.Int("folders", summary.Folders),
		zap.Int("failed_writes", summary.FailedWrites))
	return summary, nil
}

func (o *Orchestrator) exportAttachments(ctx context.Context, logger *zap.Logger,
	cfg Config, records []table.Record, namingMeta table.FieldMeta,
	byID map[string]table.FieldMeta, root persist.Handle, summary *Summary) {

	processed := 0
	for i, rec := range records {
		if ctx.Err() != nil {
			return
		}

		dirName := naming.DirectoryNameFor(rec, namingMeta, processed)
		processed++

		dir, err := o.backend.CreateSubdirectory(ctx, root, dirName)
		if err != nil {
			logger.Warn("Failed to open record directory",
				zap.String("record_id", rec.RecordID),
				zap.String("dir", dirName),
				zap.Error(err))
			summary.FailedWrites++
			continue
		}

		var written []string
		for _, id := range cfg.AttachmentFields {
			field := byID[id]
			for _, att := range attachment.Parse(rec.Fields[id]) {
				base := naming.AttachmentNameFor(dirName, field.Name, att.Name)
				ext := ""
				if j := strings.LastIndex(base, "."); j > -1 {
					base, ext = base[:j], base[j+1:]
				}
				fileName := naming.UniqueNameAmong(base, ext, written)
				written = append(written, fileName)

				payload, fetched := o.fetchAttachment(ctx, logger, rec.RecordID, dirName, field.Name, att)
				if payload == nil {
					summary.FailedWrites++
					continue
				}

				res := o.backend.WriteFile(ctx, dir, fileName, payload)
				if !res.Success {
					logger.Warn("Attachment write failed",
						zap.String("record_id", rec.RecordID),
						zap.String("file", fileName),
						zap.String("reason", res.Message))
					summary.FailedWrites++
					continue
				}
				summary.Attachments++
				logger.Debug("Attachment written",
					zap.String("file", fileName),
					zap.Bool("fetched", fetched),
					zap.String("size", attachment.FormatSize(att.Size)))

				if o.fetcher != nil && o.requestDelay > 0 {
					time.Sleep(o.requestDelay)
				}
			}
		}

		progress := 50 + float64(i+1)/float64(len(records))*50
		o.publish(Status{
			IsExporting: true,
			Message:     fmt.Sprintf("Exporting attachments (%d/%d)", i+1, len(records)),
			Type:        StatusInfo,
			Progress:    progress,
			HasProgress: true,
		})
	}
}

// fetchAttachment returns the payload to persist for one attachment and
// whether it was actually downloaded. URL resolution failures skip the
// attachment; download failures degrade to a placeholder.
func (o *Orchestrator) fetchAttachment(ctx context.Context, logger *zap.Logger,
	recordID, recordName, fieldName string, att table.Attachment) ([]byte, bool) {

	url, err := o.accessor.ResolveAttachmentURL(ctx, att.Token)
	if err != nil {
		logger.Warn("Attachment URL resolution failed",
			zap.String("record_id", recordID),
			zap.String("token", att.Token),
			zap.Error(err))
		return nil, false
	}

	if o.fetcher != nil {
		data, err := o.fetcher.Fetch(ctx, url)
		if err == nil {
			return data, true
		}
		logger.Warn("Attachment download failed, writing placeholder",
			zap.String("record_id", recordID),
			zap.String("name", att.Name),
			zap.Error(err))
	}

	return attachment.Placeholder(att, recordName, fieldName, time.Now()), false
}

func (o *Orchestrator) namingMetaLocked() table.FieldMeta {
	for _, f := range o.fields {
		if f.ID == o.config.NamingField {
			return f
		}
	}
	return table.FieldMeta{}
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

func (o *Orchestrator) publish(st Status) {
	o.mu.Lock()
	o.status = st
	fn := o.onStatus
	o.mu.Unlock()
	if fn != nil {
		fn(st)
	}
}

func (o *Orchestrator) fail(msg string, err error) {
	o.logger.Error(msg, zap.Error(err))
	o.setState(StateError)
	o.publish(Status{Message: msg + ": " + err.Error(), Type: StatusError})
}
