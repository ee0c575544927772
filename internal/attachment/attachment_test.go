// Copyright (c) 2025 Netskope, Inc. All rights reserved.

package attachment

import (
	"strings"
	"testing"
	"time"

	"github.com/netSkope/table-export-tool/internal/table"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		typeHint string
		want     Category
	}{
		{name: "image by extension", fileName: "photo.jpg", want: CategoryImage},
		{name: "uppercase extension", fileName: "photo.JPG", want: CategoryImage},
		{name: "video", fileName: "clip.mp4", want: CategoryVideo},
		{name: "audio", fileName: "voice.wav", want: CategoryAudio},
		{name: "document", fileName: "cv.docx", want: CategoryDocument},
		{name: "archive", fileName: "bundle.zip", want: CategoryArchive},
		{name: "unknown extension", fileName: "data.xyz", want: CategoryOther},
		{name: "no extension", fileName: "README", want: CategoryOther},
		{name: "type hint wins over filename", fileName: "file.bin", typeHint: "png", want: CategoryImage},
		{name: "uppercase type hint", fileName: "file.bin", typeHint: "PDF", want: CategoryDocument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.fileName, tt.typeHint)
			if got != tt.want {
				t.Errorf("Classify(%q, %q) = %q, want %q", tt.fileName, tt.typeHint, got, tt.want)
			}
		})
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		name  string
		bytes int64
		want  string
	}{
		{name: "zero", bytes: 0, want: "0 Bytes"},
		{name: "negative clamps to zero", bytes: -5, want: "0 Bytes"},
		{name: "bytes", bytes: 512, want: "512 Bytes"},
		{name: "exactly one kilobyte", bytes: 1024, want: "1 KB"},
		{name: "one and a half kilobytes", bytes: 1536, want: "1.5 KB"},
		{name: "rounds to two decimals", bytes: 1024*1024 + 350000, want: "1.33 MB"},
		{name: "megabytes", bytes: 15000000, want: "14.31 MB"},
		{name: "gigabytes", bytes: 3 * 1024 * 1024 * 1024, want: "3 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatSize(tt.bytes)
			if got != tt.want {
				t.Errorf("FormatSize(%d) = %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	atts := table.Attachments{
		{Token: "t1", Name: "a.pdf", Type: "pdf", Size: 100},
		{Token: "t2", Name: "b.jpg", Type: "jpg", Size: 200},
	}

	got := Parse(atts)
	if len(got) != 2 || got[0].Token != "t1" || got[1].Token != "t2" {
		t.Errorf("Parse() = %#v, want two attachments", got)
	}

	if got := Parse(table.Text("not attachments")); got != nil {
		t.Errorf("Parse(non-attachment) = %#v, want nil", got)
	}
	if got := Parse(nil); got != nil {
		t.Errorf("Parse(nil) = %#v, want nil", got)
	}
}

func TestPlaceholder(t *testing.T) {
	att := table.Attachment{Token: "t1", Name: "resume.pdf", Type: "pdf", Size: 1024000}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	payload := string(Placeholder(att, "Alice_Zhang", "Resume", now))

	for _, want := range []string{
		"resume.pdf",
		"document (pdf)",
		"1000 KB",
		"Alice_Zhang",
		"Resume",
		"2025-06-01 12:00:00",
		"placeholder content",
	} {
		if !strings.Contains(payload, want) {
			t.Errorf("placeholder payload missing %q:\n%s", want, payload)
		}
	}
}
