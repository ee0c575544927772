// Copyright (c) 2025 Netskope, Inc. All rights reserved.

package table

import (
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02 15:04:05"

// FormatValue renders a raw cell value as a human-readable string according
// to the field type. It is total: nil values, empty cells, and values whose
// shape does not match the field type all yield "" instead of failing.
func FormatValue(v Value, fieldType FieldType) string {
	if v == nil {
		return ""
	}

	switch fieldType {
	case FieldText, FieldURL, FieldPhone, FieldEmail:
		return stringify(v)

	case FieldNumber:
		if n, ok := v.(Number); ok {
			return formatNumber(float64(n))
		}
		return stringify(v)

	case FieldSingleSelect:
		if o, ok := v.(Option); ok {
			return o.Text
		}
		return ""

	case FieldMultiSelect:
		if opts, ok := v.(Options); ok {
			labels := make([]string, len(opts))
			for i, o := range opts {
				labels[i] = o.Text
			}
			return strings.Join(labels, ", ")
		}
		return ""

	case FieldDate, FieldCreatedTime, FieldUpdatedTime:
		if d, ok := v.(Date); ok {
			t := time.Time(d)
			if t.IsZero() {
				return ""
			}
			return t.Format(dateLayout)
		}
		return ""

	case FieldCheckbox:
		if b, ok := v.(Checkbox); ok {
			if b {
				return "Yes"
			}
			return "No"
		}
		return ""

	case FieldPerson, FieldCreatedBy, FieldUpdatedBy:
		if ps, ok := v.(Persons); ok {
			names := make([]string, len(ps))
			for i, p := range ps {
				names[i] = p.displayName()
			}
			return strings.Join(names, ", ")
		}
		return ""

	case FieldAttachment:
		// Used only for previews; the attachment export path parses the
		// cell into Attachments instead.
		if atts, ok := v.(Attachments); ok {
			names := make([]string, len(atts))
			for i, a := range atts {
				names[i] = a.Name
			}
			return strings.Join(names, ", ")
		}
		return ""

	default:
		return stringify(v)
	}
}

func (p Person) displayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.EnName
}

// stringify is the best-effort rendering used for scalar and unknown types.
func stringify(v Value) string {
	switch x := v.(type) {
	case Text:
		return string(x)
	case Number:
		return formatNumber(float64(x))
	case Option:
		return x.Text
	case Checkbox:
		if x {
			return "Yes"
		}
		return "No"
	case Date:
		t := time.Time(x)
		if t.IsZero() {
			return ""
		}
		return t.Format(dateLayout)
	default:
		return ""
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
