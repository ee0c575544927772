// Copyright (c) 2025 Netskope, Inc. All rights reserved.

package table

import (
	"reflect"
	"testing"
	"time"
)

func TestDecodeValue(t *testing.T) {
	tests := []struct {
		name      string
		raw       any
		fieldType FieldType
		want      Value
	}{
		{
			name:      "text",
			raw:       "hello",
			fieldType: FieldText,
			want:      Text("hello"),
		},
		{
			name:      "number from float",
			raw:       float64(42.5),
			fieldType: FieldNumber,
			want:      Number(42.5),
		},
		{
			name:      "number from numeric string",
			raw:       "17",
			fieldType: FieldNumber,
			want:      Number(17),
		},
		{
			name:      "number from garbage string",
			raw:       "not-a-number",
			fieldType: FieldNumber,
			want:      nil,
		},
		{
			name:      "single select",
			raw:       map[string]any{"text": "Design", "id": "opt1"},
			fieldType: FieldSingleSelect,
			want:      Option{Text: "Design"},
		},
		{
			name:      "multi select",
			raw:       []any{map[string]any{"text": "a"}, map[string]any{"text": "b"}},
			fieldType: FieldMultiSelect,
			want:      Options{{Text: "a"}, {Text: "b"}},
		},
		{
			name:      "date from epoch millis",
			raw:       float64(1640995200000),
			fieldType: FieldDate,
			want:      Date(time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)),
		},
		{
			name:      "checkbox",
			raw:       true,
			fieldType: FieldCheckbox,
			want:      Checkbox(true),
		},
		{
			name:      "single person decodes to one-element slice",
			raw:       map[string]any{"name": "张三", "en_name": "San Zhang"},
			fieldType: FieldPerson,
			want:      Persons{{Name: "张三", EnName: "San Zhang"}},
		},
		{
			name: "attachments",
			raw: []any{map[string]any{
				"token": "tok1", "name": "a.pdf", "type": "pdf", "size": float64(1024),
			}},
			fieldType: FieldAttachment,
			want:      Attachments{{Token: "tok1", Name: "a.pdf", Type: "pdf", Size: 1024}},
		},
		{
			name:      "attachment from non-array",
			raw:       "oops",
			fieldType: FieldAttachment,
			want:      nil,
		},
		{
			name:      "nil",
			raw:       nil,
			fieldType: FieldText,
			want:      nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeValue(tt.raw, tt.fieldType)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DecodeValue() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestDecodeJSONValue(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		fieldType FieldType
		want      Value
		wantErr   bool
	}{
		{
			name:      "json text",
			data:      `"hello"`,
			fieldType: FieldText,
			want:      Text("hello"),
		},
		{
			name:      "json attachment array",
			data:      `[{"token":"t1","name":"f.jpg","type":"jpg","size":100}]`,
			fieldType: FieldAttachment,
			want:      Attachments{{Token: "t1", Name: "f.jpg", Type: "jpg", Size: 100}},
		},
		{
			name:      "empty data",
			data:      "",
			fieldType: FieldText,
			want:      nil,
		},
		{
			name:      "malformed json",
			data:      `{"unterminated`,
			fieldType: FieldText,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeJSONValue([]byte(tt.data), tt.fieldType)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeJSONValue() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DecodeJSONValue() = %#v, want %#v", got, tt.want)
			}
		})
	}
}
