// Copyright (c) 2025 Netskope, Inc. All rights reserved.

// Package naming derives sanitized, collision-avoiding names for per-record
// directories, per-field documents, and attachment files.
package naming

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/netSkope/table-export-tool/internal/document"
	"github.com/netSkope/table-export-tool/internal/table"
)

const maxNameLength = 255

var (
	ErrEmptyName    = fmt.Errorf("file name is empty")
	ErrNameTooLong  = fmt.Errorf("file name exceeds %d characters", maxNameLength)
	ErrInvalidChars = fmt.Errorf(`file name contains disallowed characters: < > : " / \ | ? *`)
	ErrReservedName = fmt.Errorf("file name is a reserved device name")
)

var (
	disallowedChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	whitespaceRuns  = regexp.MustCompile(`\s+`)
	underscoreRuns  = regexp.MustCompile(`_{2,}`)
)

var reservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// Sanitize makes a name safe for cross-platform directory and file use:
// each of < > : " / \ | ? * becomes _, whitespace runs collapse to a single
// _, repeated _ collapse to one, leading/trailing _ are stripped, and the
// result is truncated to 255 characters. Sanitize is idempotent.
func Sanitize(name string) string {
	s := disallowedChars.ReplaceAllString(name, "_")
	s = whitespaceRuns.ReplaceAllString(s, "_")
	s = underscoreRuns.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if runes := []rune(s); len(runes) > maxNameLength {
		s = strings.TrimRight(string(runes[:maxNameLength]), "_")
	}
	return s
}

// DirectoryNameFor derives the per-record directory name from the naming
// field value. Records whose naming value is empty get a synthesized
// fallback embedding the 1-based fallbackIndex, so fallback numbering stays
// contiguous across processed records; a negative index falls back to the
// last 6 characters of the record ID instead.
func DirectoryNameFor(rec table.Record, namingField table.FieldMeta, fallbackIndex int) string {
	name := table.FormatValue(rec.Fields[namingField.ID], namingField.Type)
	if name == "" {
		if fallbackIndex >= 0 {
			name = fmt.Sprintf("record_%d", fallbackIndex+1)
		} else {
			id := rec.RecordID
			if len(id) > 6 {
				id = id[len(id)-6:]
			}
			name = "record_" + id
		}
	}
	return Sanitize(name)
}

// DocumentNameFor composes the per-field document file name:
// "{directoryName}_{fieldName}.{extension}" with the extension derived from
// the export format.
func DocumentNameFor(directoryName, fieldName string, format document.Format) string {
	return fmt.Sprintf("%s_%s.%s", directoryName, Sanitize(fieldName), document.Extension(format))
}

// AttachmentNameFor composes the attachment file name:
// "{directoryName}_{fieldName}_{originalNameSansExtension}{originalExtension}".
func AttachmentNameFor(directoryName, fieldName, originalFileName string) string {
	base := originalFileName
	ext := ""
	if i := strings.LastIndex(originalFileName, "."); i > -1 {
		base = originalFileName[:i]
		ext = originalFileName[i:]
	}
	return fmt.Sprintf("%s_%s_%s%s", directoryName, Sanitize(fieldName), Sanitize(base), ext)
}

// ValidateFileName rejects names that cannot be written portably and returns
// the typed reason.
func ValidateFileName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if len([]rune(name)) > maxNameLength {
		return ErrNameTooLong
	}
	if disallowedChars.MatchString(name) {
		return ErrInvalidChars
	}
	stem := strings.ToUpper(strings.SplitN(name, ".", 2)[0])
	if reservedNames[stem] {
		return fmt.Errorf("%w: %q", ErrReservedName, stem)
	}
	return nil
}

// UniqueNameAmong returns "base.extension", appending (1), (2), ... before
// the extension until the candidate is absent from existingNames. An empty
// extension yields bare "base" candidates.
func UniqueNameAmong(base, extension string, existingNames []string) string {
	existing := make(map[string]bool, len(existingNames))
	for _, n := range existingNames {
		existing[n] = true
	}

	join := func(counter int) string {
		name := base
		if counter > 0 {
			name = fmt.Sprintf("%s(%d)", base, counter)
		}
		if extension != "" {
			name += "." + extension
		}
		return name
	}

	candidate := join(0)
	for counter := 1; existing[candidate]; counter++ {
		candidate = join(counter)
	}
	return candidate
}
