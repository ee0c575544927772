// Copyright (c) 2025 Netskope, Inc. All rights reserved.

// Package attachment parses file-valued cells and resolves their contents.
package attachment

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/netSkope/table-export-tool/internal/table"
)

// Category is the coarse file taxonomy used for status messages and the
// placeholder payload.
type Category string

const (
	CategoryImage    Category = "image"
	CategoryVideo    Category = "video"
	CategoryAudio    Category = "audio"
	CategoryDocument Category = "document"
	CategoryArchive  Category = "archive"
	CategoryOther    Category = "other"
)

var categoryByExtension = map[string]Category{}

func init() {
	register := func(cat Category, exts ...string) {
		for _, ext := range exts {
			categoryByExtension[ext] = cat
		}
	}
	register(CategoryImage, "jpg", "jpeg", "png", "gif", "bmp", "webp", "svg", "ico", "tiff")
	register(CategoryVideo, "mp4", "avi", "mov", "wmv", "flv", "mkv", "webm", "3gp", "rmvb")
	register(CategoryAudio, "mp3", "wav", "flac", "aac", "ogg", "wma", "m4a")
	register(CategoryDocument, "pdf", "doc", "docx", "xls", "xlsx", "ppt", "pptx", "txt", "rtf")
	register(CategoryArchive, "zip", "rar", "7z", "tar", "gz")
}

// Parse extracts the attachment sequence from a raw cell value. Absent cells
// and non-attachment shapes yield an empty sequence.
func Parse(v table.Value) []table.Attachment {
	atts, ok := v.(table.Attachments)
	if !ok {
		return nil
	}
	out := make([]table.Attachment, len(atts))
	copy(out, atts)
	return out
}

// Classify buckets a file into the category taxonomy by extension,
// case-insensitively. The type hint wins when present; otherwise the
// filename's trailing extension is used. Unknown extensions are "other".
func Classify(fileName, fileTypeHint string) Category {
	ext := strings.ToLower(fileTypeHint)
	if ext == "" {
		if i := strings.LastIndex(fileName, "."); i > -1 {
			ext = strings.ToLower(fileName[i+1:])
		}
	}
	if cat, ok := categoryByExtension[ext]; ok {
		return cat
	}
	return CategoryOther
}

var sizeUnits = [...]string{"Bytes", "KB", "MB", "GB"}

// FormatSize renders a byte count in binary (1024) units with up to two
// decimal places, picking the largest unit with a scaled value >= 1.
// Zero renders as "0 Bytes" exactly.
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}

	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i < 0 {
		i = 0
	}
	if i >= len(sizeUnits) {
		i = len(sizeUnits) - 1
	}

	scaled := float64(bytes) / math.Pow(1024, float64(i))
	rounded := math.Round(scaled*100) / 100
	return strconv.FormatFloat(rounded, 'f', -1, 64) + " " + sizeUnits[i]
}

// Placeholder builds the descriptive stand-in payload written when no byte
// fetcher is configured. Real exports transfer the attachment bytes instead;
// this degraded mode keeps the per-record layout intact against mock hosts.
func Placeholder(att table.Attachment, recordName, fieldName string, now time.Time) []byte {
	category := Classify(att.Name, att.Type)
	return []byte(fmt.Sprintf(`Attachment info
File name: %s
File type: %s (%s)
File size: %s
Record: %s
Field: %s
Written at: %s

[placeholder content - configure an attachment fetcher to transfer the real %s bytes]
`,
		att.Name,
		category, att.Type,
		FormatSize(att.Size),
		recordName,
		fieldName,
		now.Format("2006-01-02 15:04:05"),
		category))
}
