// Copyright (c) 2025 Netskope, Inc. All rights reserved.

package table

import "time"

// FieldType identifies the column type of a table field.
type FieldType string

const (
	FieldText         FieldType = "text"
	FieldNumber       FieldType = "number"
	FieldSingleSelect FieldType = "single_select"
	FieldMultiSelect  FieldType = "multi_select"
	FieldDate         FieldType = "date"
	FieldAttachment   FieldType = "attachment"
	FieldURL          FieldType = "url"
	FieldPhone        FieldType = "phone"
	FieldEmail        FieldType = "email"
	FieldCheckbox     FieldType = "checkbox"
	FieldPerson       FieldType = "person"

	// Read-only system types. They can appear in a table snapshot but are
	// never offered as naming fields.
	FieldLookup      FieldType = "lookup"
	FieldFormula     FieldType = "formula"
	FieldCreatedTime FieldType = "created_time"
	FieldUpdatedTime FieldType = "updated_time"
	FieldCreatedBy   FieldType = "created_by"
	FieldUpdatedBy   FieldType = "updated_by"
)

// IsNamingType reports whether a field of this type may seed directory and
// file names. Naming fields are restricted to stable, short, printable values.
func (t FieldType) IsNamingType() bool {
	switch t {
	case FieldText, FieldNumber, FieldSingleSelect:
		return true
	}
	return false
}

// IsTextExportable reports whether a field of this type can be exported as a
// text document.
func (t FieldType) IsTextExportable() bool {
	switch t {
	case FieldText, FieldNumber, FieldSingleSelect, FieldMultiSelect, FieldDate,
		FieldURL, FieldPhone, FieldEmail, FieldCheckbox, FieldPerson:
		return true
	}
	return false
}

// FieldMeta describes one column of the source table. Immutable once fetched;
// ID is unique within a table snapshot.
type FieldMeta struct {
	ID       string
	Name     string
	Type     FieldType
	Property map[string]any
}

// Record is one row of table data, keyed by field ID. Records are a snapshot;
// there is no incremental sync.
type Record struct {
	RecordID string
	Fields   map[string]Value
}

// Value is the tagged union of raw cell values. Host data is decoded into a
// concrete Value at the accessor boundary so downstream code can switch
// exhaustively instead of guessing at dynamic shapes. A nil Value means the
// cell is empty.
type Value interface {
	value()
}

// Text carries the scalar string types (text, url, phone, email).
type Text string

// Number carries numeric cells.
type Number float64

// Option is one choice of a select field.
type Option struct {
	Text string
}

// Options carries multi-select cells.
type Options []Option

// Date carries date/time cells.
type Date time.Time

// Checkbox carries boolean cells.
type Checkbox bool

// Person is one collaborator reference. EnName is the alternate display name
// used when Name is empty.
type Person struct {
	Name   string
	EnName string
}

// Persons carries person cells (single collaborators decode as a one-element
// slice).
type Persons []Person

// Attachment is one file-valued cell entry. Token is the opaque identifier
// used to resolve a download URL; URL is populated lazily during export.
type Attachment struct {
	Token string
	Name  string
	Type  string
	Size  int64
	URL   string
}

// Attachments carries attachment cells.
type Attachments []Attachment

func (Text) value()        {}
func (Number) value()      {}
func (Option) value()      {}
func (Options) value()     {}
func (Date) value()        {}
func (Checkbox) value()    {}
func (Persons) value()     {}
func (Attachments) value() {}
