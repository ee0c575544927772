// Copyright (c) 2025 Netskope, Inc. All rights reserved.

package table

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// DecodeValue converts an untyped host value (the result of a generic JSON
// unmarshal) into the tagged Value union for the given field type. Unknown
// shapes and nil input decode to nil, which formats to "". This is the only
// place raw host data is inspected; everything downstream works on Values.
func DecodeValue(raw any, fieldType FieldType) Value {
	if raw == nil {
		return nil
	}

	switch fieldType {
	case FieldText, FieldURL, FieldPhone, FieldEmail:
		return Text(asString(raw))

	case FieldNumber:
		switch n := raw.(type) {
		case float64:
			return Number(n)
		case string:
			if f, err := strconv.ParseFloat(n, 64); err == nil {
				return Number(f)
			}
		}
		return nil

	case FieldSingleSelect:
		if m, ok := raw.(map[string]any); ok {
			return Option{Text: asString(m["text"])}
		}
		return nil

	case FieldMultiSelect:
		items, ok := raw.([]any)
		if !ok {
			return nil
		}
		opts := make(Options, 0, len(items))
		for _, item := range items {
			if m, ok := item.(map[string]any); ok {
				opts = append(opts, Option{Text: asString(m["text"])})
			}
		}
		return opts

	case FieldDate, FieldCreatedTime, FieldUpdatedTime:
		// Hosts report timestamps as epoch milliseconds.
		if millis, ok := raw.(float64); ok {
			return Date(time.UnixMilli(int64(millis)).UTC())
		}
		return nil

	case FieldCheckbox:
		if b, ok := raw.(bool); ok {
			return Checkbox(b)
		}
		return nil

	case FieldPerson, FieldCreatedBy, FieldUpdatedBy:
		switch p := raw.(type) {
		case map[string]any:
			return Persons{decodePerson(p)}
		case []any:
			persons := make(Persons, 0, len(p))
			for _, item := range p {
				if m, ok := item.(map[string]any); ok {
					persons = append(persons, decodePerson(m))
				}
			}
			return persons
		}
		return nil

	case FieldAttachment:
		items, ok := raw.([]any)
		if !ok {
			return nil
		}
		atts := make(Attachments, 0, len(items))
		for _, item := range items {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			atts = append(atts, Attachment{
				Token: asString(m["token"]),
				Name:  asString(m["name"]),
				Type:  asString(m["type"]),
				Size:  asInt64(m["size"]),
				URL:   asString(m["url"]),
			})
		}
		return atts

	default:
		return Text(asString(raw))
	}
}

// DecodeJSONValue decodes a JSON-encoded host value, as stored by the SQL
// accessor's records table.
func DecodeJSONValue(data []byte, fieldType FieldType) (Value, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode field value: %w", err)
	}
	return DecodeValue(raw, fieldType), nil
}

func decodePerson(m map[string]any) Person {
	return Person{
		Name:   asString(m["name"]),
		EnName: asString(m["en_name"]),
	}
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	default:
		return fmt.Sprintf("%v", s)
	}
}

func asInt64(v any) int64 {
	if f, ok := v.(float64); ok {
		return int64(f)
	}
	return 0
}
