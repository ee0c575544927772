// Copyright (c) 2025 Netskope, Inc. All rights reserved.

package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/netSkope/table-export-tool/internal/accessor"
	"github.com/netSkope/table-export-tool/internal/document"
	"github.com/netSkope/table-export-tool/internal/persist"
	"github.com/netSkope/table-export-tool/internal/table"
	"go.uber.org/zap/zaptest"
)

type statusRecorder struct {
	statuses []Status
}

func (r *statusRecorder) record(st Status) {
	r.statuses = append(r.statuses, st)
}

func (r *statusRecorder) last() Status {
	if len(r.statuses) == 0 {
		return Status{}
	}
	return r.statuses[len(r.statuses)-1]
}

func newTestSession(t *testing.T, backend persist.Backend, opts ...Option) (*Orchestrator, *statusRecorder) {
	t.Helper()
	rec := &statusRecorder{}
	opts = append(opts,
		WithStatusFunc(rec.record),
		WithRequestDelay(0),
	)
	o := New(accessor.NewMockDataset(), backend, zaptest.NewLogger(t), opts...)
	if err := o.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	return o, rec
}

func TestInitLoadsSnapshot(t *testing.T) {
	o, _ := newTestSession(t, persist.NewDownload(t.TempDir(), zaptest.NewLogger(t)))

	if o.State() != StateReady {
		t.Errorf("state after Init = %s, want ready", o.State())
	}
	fields := o.Fields()
	if len(fields) != 8 {
		t.Errorf("expected 8 fields, got %d", len(fields))
	}
	// The first text-like field becomes the default naming field.
	if o.config.NamingField != "field1" {
		t.Errorf("default naming field = %q, want field1", o.config.NamingField)
	}
}

func TestExportBeforeInit(t *testing.T) {
	o := New(accessor.NewMockDataset(), persist.NewDownload(t.TempDir(), zaptest.NewLogger(t)), zaptest.NewLogger(t))
	if _, err := o.Export(context.Background()); !errors.Is(err, ErrNotReady) {
		t.Errorf("Export() error = %v, want ErrNotReady", err)
	}
	if err := o.SetConfig(Config{Format: document.FormatTxt}); !errors.Is(err, ErrNotReady) {
		t.Errorf("SetConfig() error = %v, want ErrNotReady", err)
	}
}

func TestSetConfigValidation(t *testing.T) {
	o, _ := newTestSession(t, persist.NewDownload(t.TempDir(), zaptest.NewLogger(t)))

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid selection",
			cfg: Config{
				TextFields:       []string{"field1", "field2"},
				AttachmentFields: []string{"field5"},
				Format:           document.FormatTxt,
				NamingField:      "field1",
			},
		},
		{
			name:    "unknown text field",
			cfg:     Config{TextFields: []string{"nope"}, Format: document.FormatTxt},
			wantErr: true,
		},
		{
			name:    "attachment field as text field",
			cfg:     Config{TextFields: []string{"field5"}, Format: document.FormatTxt},
			wantErr: true,
		},
		{
			name:    "text field as attachment field",
			cfg:     Config{AttachmentFields: []string{"field1"}, Format: document.FormatTxt},
			wantErr: true,
		},
		{
			name:    "invalid format",
			cfg:     Config{TextFields: []string{"field1"}, Format: document.Format("odt")},
			wantErr: true,
		},
		{
			name: "date field cannot name folders",
			cfg: Config{
				TextFields:  []string{"field1"},
				Format:      document.FormatTxt,
				NamingField: "field4",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := o.SetConfig(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("SetConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestExportNothingSelected(t *testing.T) {
	o, rec := newTestSession(t, persist.NewDownload(t.TempDir(), zaptest.NewLogger(t)))

	if err := o.SetConfig(Config{Format: document.FormatTxt}); err != nil {
		t.Fatalf("SetConfig() error = %v", err)
	}
	_, err := o.Export(context.Background())
	if !errors.Is(err, ErrNoFieldsSelected) {
		t.Fatalf("Export() error = %v, want ErrNoFieldsSelected", err)
	}
	if rec.last().Type != StatusWarning {
		t.Errorf("empty selection should publish a warning, got %+v", rec.last())
	}
}

func TestExportDocumentsOnly(t *testing.T) {
	// Documents-only exports skip directory selection entirely and write
	// through the single-file path, even on a structured backend.
	download := filepath.Join(t.TempDir(), "downloads")
	backend := persist.NewDirWithPicker(func(context.Context) (string, error) {
		t.Fatal("picker must not be called for a documents-only export")
		return "", nil
	}, download, zaptest.NewLogger(t))

	o, rec := newTestSession(t, backend)
	if err := o.SetConfig(Config{
		TextFields: []string{"field1", "field2"},
		Format:     document.FormatTxt,
	}); err != nil {
		t.Fatalf("SetConfig() error = %v", err)
	}

	summary, err := o.Export(context.Background())
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if summary.Documents != 6 || summary.Folders != 0 || summary.Attachments != 0 {
		t.Errorf("summary = %+v, want 6 documents and no folders", summary)
	}

	data, err := os.ReadFile(filepath.Join(download, "Alice_Zhang_Name.txt"))
	if err != nil {
		t.Fatalf("expected flat document file: %v", err)
	}
	if string(data) != "Name: Alice Zhang" {
		t.Errorf("document content = %q", data)
	}

	last := rec.last()
	if last.Type != StatusSuccess || last.Progress != 100 {
		t.Errorf("final status = %+v, want success at 100", last)
	}
	if o.State() != StateDone {
		t.Errorf("state = %s, want done", o.State())
	}
}

func TestExportWithAttachments(t *testing.T) {
	root := filepath.Join(t.TempDir(), "export")
	backend := persist.NewDir(root, root, zaptest.NewLogger(t))

	o, rec := newTestSession(t, backend)
	if err := o.SetConfig(Config{
		TextFields:       []string{"field1"},
		AttachmentFields: []string{"field5", "field6"},
		Format:           document.FormatTxt,
	}); err != nil {
		t.Fatalf("SetConfig() error = %v", err)
	}

	summary, err := o.Export(context.Background())
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if summary.Documents != 3 || summary.Folders != 3 {
		t.Errorf("summary = %+v, want 3 documents in 3 folders", summary)
	}
	// 11 attachments across the three sample records.
	if summary.Attachments != 11 {
		t.Errorf("attachments = %d, want 11", summary.Attachments)
	}
	if summary.FailedWrites != 0 {
		t.Errorf("failed writes = %d, want 0", summary.FailedWrites)
	}

	// Documents live inside per-record folders.
	if _, err := os.Stat(filepath.Join(root, "Alice_Zhang", "Alice_Zhang_Name.txt")); err != nil {
		t.Errorf("missing per-record document: %v", err)
	}
	// Without a fetcher, attachments are placeholder payloads.
	data, err := os.ReadFile(filepath.Join(root, "Alice_Zhang", "Alice_Zhang_Resume_alice-resume.pdf"))
	if err != nil {
		t.Fatalf("missing attachment file: %v", err)
	}
	if !strings.Contains(string(data), "placeholder content") {
		t.Errorf("attachment payload should be a placeholder, got %q", data)
	}

	// Progress runs 0-50 for documents, 50-100 for attachments, ending at 100.
	var prev float64
	sawDocPhase, sawAttPhase := false, false
	for _, st := range rec.statuses {
		if !st.HasProgress {
			continue
		}
		if st.Progress < prev {
			t.Errorf("progress went backwards: %v -> %v", prev, st.Progress)
		}
		prev = st.Progress
		if st.Progress > 0 && st.Progress <= 50 {
			sawDocPhase = true
		}
		if st.Progress > 50 && st.Progress < 100 {
			sawAttPhase = true
		}
	}
	if !sawDocPhase || !sawAttPhase {
		t.Errorf("expected progress in both phases (doc=%v att=%v)", sawDocPhase, sawAttPhase)
	}
	if last := rec.last(); last.Progress != 100 || last.Type != StatusSuccess {
		t.Errorf("final status = %+v", last)
	}
	if !strings.Contains(rec.last().Message, "11 attachments in 3 folders") {
		t.Errorf("final message = %q", rec.last().Message)
	}
}

func TestExportDirectoryCancelled(t *testing.T) {
	backend := persist.NewDirWithPicker(func(context.Context) (string, error) {
		return "", nil
	}, t.TempDir(), zaptest.NewLogger(t))

	o, rec := newTestSession(t, backend)
	if err := o.SetConfig(Config{
		TextFields:       []string{"field1"},
		AttachmentFields: []string{"field5"},
		Format:           document.FormatTxt,
	}); err != nil {
		t.Fatalf("SetConfig() error = %v", err)
	}

	_, err := o.Export(context.Background())
	if !errors.Is(err, ErrDirectoryCancelled) {
		t.Fatalf("Export() error = %v, want ErrDirectoryCancelled", err)
	}
	if o.State() != StateReady {
		t.Errorf("state after cancel = %s, want ready", o.State())
	}
	if rec.last().Type != StatusWarning {
		t.Errorf("cancel should publish a warning, got %+v", rec.last())
	}

	// The session is restartable after a cancelled pick.
	if o.Status().IsExporting {
		t.Error("session still marked exporting after cancel")
	}
}

func TestExportDownloadBackendSkipsAttachments(t *testing.T) {
	// Flat download storage cannot hold a folder tree, so attachment fields
	// are silently skipped and only documents are produced.
	dir := filepath.Join(t.TempDir(), "downloads")
	o, _ := newTestSession(t, persist.NewDownload(dir, zaptest.NewLogger(t)))

	if err := o.SetConfig(Config{
		TextFields:       []string{"field1"},
		AttachmentFields: []string{"field5"},
		Format:           document.FormatTxt,
	}); err != nil {
		t.Fatalf("SetConfig() error = %v", err)
	}

	summary, err := o.Export(context.Background())
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if summary.Documents != 3 || summary.Attachments != 0 || summary.Folders != 0 {
		t.Errorf("summary = %+v, want 3 flat documents only", summary)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read download dir: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("expected 3 flat files, got %d", len(entries))
	}
}

func TestExportContinuesPastBadAttachment(t *testing.T) {
	fields := []table.FieldMeta{
		{ID: "f1", Name: "Name", Type: table.FieldText},
		{ID: "f2", Name: "Files", Type: table.FieldAttachment},
	}
	records := []table.Record{
		{
			RecordID: "rec1",
			Fields: map[string]table.Value{
				"f1": table.Text("One"),
				"f2": table.Attachments{
					{Token: "", Name: "broken.bin", Type: "bin", Size: 10},
					{Token: "ok", Name: "fine.txt", Type: "txt", Size: 20},
				},
			},
		},
	}

	root := filepath.Join(t.TempDir(), "export")
	rec := &statusRecorder{}
	o := New(accessor.NewMock(fields, records),
		persist.NewDir(root, root, zaptest.NewLogger(t)),
		zaptest.NewLogger(t),
		WithStatusFunc(rec.record), WithRequestDelay(0))
	if err := o.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if err := o.SetConfig(Config{
		AttachmentFields: []string{"f2"},
		Format:           document.FormatTxt,
	}); err != nil {
		t.Fatalf("SetConfig() error = %v", err)
	}

	summary, err := o.Export(context.Background())
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	// The empty token fails URL resolution; the second attachment still
	// gets written.
	if summary.Attachments != 1 || summary.FailedWrites != 1 {
		t.Errorf("summary = %+v, want 1 written and 1 failed", summary)
	}
	if _, err := os.Stat(filepath.Join(root, "One", "One_Files_fine.txt")); err != nil {
		t.Errorf("surviving attachment missing: %v", err)
	}
}

func TestExportInProgressGuard(t *testing.T) {
	o, _ := newTestSession(t, persist.NewDownload(t.TempDir(), zaptest.NewLogger(t)))
	if err := o.SetConfig(Config{TextFields: []string{"field1"}, Format: document.FormatTxt}); err != nil {
		t.Fatalf("SetConfig() error = %v", err)
	}

	o.mu.Lock()
	o.isExporting = true
	o.mu.Unlock()

	if _, err := o.Export(context.Background()); !errors.Is(err, ErrExportInProgress) {
		t.Errorf("Export() error = %v, want ErrExportInProgress", err)
	}

	o.mu.Lock()
	o.isExporting = false
	o.mu.Unlock()
}

func TestEstimateAndPreview(t *testing.T) {
	o, _ := newTestSession(t, persist.NewDownload(t.TempDir(), zaptest.NewLogger(t)))
	if err := o.SetConfig(Config{
		TextFields:       []string{"field1", "field7"},
		AttachmentFields: []string{"field5"},
		Format:           document.FormatDocx,
	}); err != nil {
		t.Fatalf("SetConfig() error = %v", err)
	}

	est := o.Estimate()
	if est.Documents != 6 {
		t.Errorf("estimated documents = %d, want 6", est.Documents)
	}
	if est.Attachments != 6 {
		t.Errorf("estimated attachments = %d, want 6", est.Attachments)
	}
	if est.AttachmentBytes <= 0 {
		t.Errorf("estimated bytes = %d, want > 0", est.AttachmentBytes)
	}

	// 6 documents plus 6 attachment names, interleaved per record.
	names := o.Preview()
	if len(names) != 12 {
		t.Fatalf("preview names = %d, want 12", len(names))
	}
	if names[0] != "Alice_Zhang_Name.doc" {
		t.Errorf("first preview name = %q", names[0])
	}
	if names[2] != "Alice_Zhang_Resume_alice-resume.pdf" {
		t.Errorf("first attachment preview name = %q", names[2])
	}
}

func TestCombinedExport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "downloads")
	o, _ := newTestSession(t, persist.NewDownload(dir, zaptest.NewLogger(t)))
	if err := o.SetConfig(Config{
		TextFields: []string{"field1", "field2"},
		Format:     document.FormatTxt,
	}); err != nil {
		t.Fatalf("SetConfig() error = %v", err)
	}

	content := o.CombinedContent()
	if !strings.Contains(content, "=== Record 1: Alice_Zhang ===") {
		t.Errorf("missing first section header:\n%s", content)
	}
	if !strings.Contains(content, "=== Record 3: Carol_Wang ===") {
		t.Errorf("missing last section header:\n%s", content)
	}
	if !strings.Contains(content, "Age: 28") {
		t.Errorf("missing field line:\n%s", content)
	}

	res, err := o.ExportCombined(context.Background())
	if err != nil {
		t.Fatalf("ExportCombined() error = %v", err)
	}
	if !res.Success {
		t.Fatalf("combined write failed: %s", res.Message)
	}
	data, err := os.ReadFile(filepath.Join(dir, "table_export.txt"))
	if err != nil {
		t.Fatalf("combined document missing: %v", err)
	}
	if string(data) != content {
		t.Error("combined document content mismatch")
	}

	// Combined export needs at least one text field.
	if err := o.SetConfig(Config{AttachmentFields: []string{"field5"}, Format: document.FormatTxt}); err != nil {
		t.Fatalf("SetConfig() error = %v", err)
	}
	if _, err := o.ExportCombined(context.Background()); !errors.Is(err, ErrNoFieldsSelected) {
		t.Errorf("ExportCombined() error = %v, want ErrNoFieldsSelected", err)
	}
}

func TestExportRespectsContext(t *testing.T) {
	o, _ := newTestSession(t, persist.NewDownload(t.TempDir(), zaptest.NewLogger(t)))
	if err := o.SetConfig(Config{TextFields: []string{"field1"}, Format: document.FormatTxt}); err != nil {
		t.Fatalf("SetConfig() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := o.Export(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Export() error = %v, want context.Canceled", err)
	}
	if o.State() != StateError {
		t.Errorf("state = %s, want error", o.State())
	}

	// A fresh context allows a retry on the same session.
	o.setState(StateReady)
	if _, err := o.Export(context.Background()); err != nil {
		t.Errorf("retry Export() error = %v", err)
	}
}
