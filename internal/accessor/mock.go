// Copyright (c) 2025 Netskope, Inc. All rights reserved.

package accessor

import (
	"context"
	"fmt"

	"github.com/netSkope/table-export-tool/internal/table"
)

const mockURLPrefix = "https://example.com/mock-file/"

// Mock serves a static in-memory table snapshot. It implements the full
// Accessor contract so the pipeline runs unchanged against it.
type Mock struct {
	fields    []table.FieldMeta
	records   []table.Record
	connected bool
}

// NewMock creates an accessor over a custom snapshot.
func NewMock(fields []table.FieldMeta, records []table.Record) *Mock {
	return &Mock{fields: fields, records: records}
}

// NewMockDataset creates an accessor over the built-in sample table:
// a small staff roster with two attachment columns.
func NewMockDataset() *Mock {
	fields := []table.FieldMeta{
		{ID: "field1", Name: "Name", Type: table.FieldText},
		{ID: "field2", Name: "Age", Type: table.FieldNumber},
		{ID: "field3", Name: "Department", Type: table.FieldSingleSelect},
		{ID: "field4", Name: "Hire Date", Type: table.FieldDate},
		{ID: "field5", Name: "Resume", Type: table.FieldAttachment},
		{ID: "field6", Name: "Photo", Type: table.FieldAttachment},
		{ID: "field7", Name: "Email", Type: table.FieldEmail},
		{ID: "field8", Name: "Active", Type: table.FieldCheckbox},
	}

	records := []table.Record{
		{
			RecordID: "rec1",
			Fields: map[string]table.Value{
				"field1": table.Text("Alice Zhang"),
				"field2": table.Number(28),
				"field3": table.Option{Text: "Engineering"},
				"field4": table.DecodeValue(float64(1640995200000), table.FieldDate),
				"field5": table.Attachments{
					{Token: "file1", Name: "alice-resume.pdf", Type: "pdf", Size: 1024000},
					{Token: "audio1", Name: "alice-intro.mp3", Type: "mp3", Size: 3500000},
				},
				"field6": table.Attachments{
					{Token: "file2", Name: "alice-photo.jpg", Type: "jpg", Size: 512000},
					{Token: "video1", Name: "alice-intro.mp4", Type: "mp4", Size: 15000000},
				},
				"field7": table.Text("alice@company.com"),
				"field8": table.Checkbox(true),
			},
		},
		{
			RecordID: "rec2",
			Fields: map[string]table.Value{
				"field1": table.Text("Bob Li"),
				"field2": table.Number(32),
				"field3": table.Option{Text: "Product"},
				"field4": table.DecodeValue(float64(1609459200000), table.FieldDate),
				"field5": table.Attachments{
					{Token: "file3", Name: "bob-resume.docx", Type: "docx", Size: 2048000},
					{Token: "audio2", Name: "bob-voice.wav", Type: "wav", Size: 5200000},
				},
				"field6": table.Attachments{
					{Token: "file4", Name: "bob-photo.png", Type: "png", Size: 768000},
					{Token: "file7", Name: "bob-avatar.gif", Type: "gif", Size: 1200000},
				},
				"field7": table.Text("bob@company.com"),
				"field8": table.Checkbox(true),
			},
		},
		{
			RecordID: "rec3",
			Fields: map[string]table.Value{
				"field1": table.Text("Carol Wang"),
				"field2": table.Number(25),
				"field3": table.Option{Text: "Design"},
				"field4": table.DecodeValue(float64(1672531200000), table.FieldDate),
				"field5": table.Attachments{
					{Token: "file5", Name: "carol-resume.pdf", Type: "pdf", Size: 1536000},
					{Token: "video2", Name: "carol-portfolio.avi", Type: "avi", Size: 25000000},
				},
				"field6": table.Attachments{
					{Token: "file8", Name: "carol-portfolio.zip", Type: "zip", Size: 8500000},
				},
				"field7": table.Text("carol@company.com"),
				"field8": table.Checkbox(false),
			},
		},
	}

	return NewMock(fields, records)
}

func (m *Mock) Connect(context.Context) error {
	m.connected = true
	return nil
}

func (m *Mock) ListFields(context.Context) ([]table.FieldMeta, error) {
	if !m.connected {
		return nil, fmt.Errorf("list fields: %w", ErrDataUnavailable)
	}
	out := make([]table.FieldMeta, len(m.fields))
	copy(out, m.fields)
	return out, nil
}

func (m *Mock) ListRecords(context.Context) ([]table.Record, error) {
	if !m.connected {
		return nil, fmt.Errorf("list records: %w", ErrDataUnavailable)
	}
	out := make([]table.Record, len(m.records))
	copy(out, m.records)
	return out, nil
}

// ResolveAttachmentURL returns a stub URL. The URLs are not fetchable, so
// exports against the mock write placeholder payloads.
func (m *Mock) ResolveAttachmentURL(_ context.Context, token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("attachment token is empty")
	}
	return mockURLPrefix + token, nil
}
