package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// FieldShape identifies how a field arrived from the analysis backend.
type FieldShape int

const (
	// ShapeAbsent covers missing keys, null, and malformed values.
	ShapeAbsent FieldShape = iota
	// ShapeLegacy is a bare scalar with no confidence metadata.
	ShapeLegacy
	// ShapeStructured is a {value, confidence, is_interpreted} record.
	ShapeStructured
)

// String returns the shape name.
func (s FieldShape) String() string {
	switch s {
	case ShapeLegacy:
		return "legacy"
	case ShapeStructured:
		return "structured"
	default:
		return "absent"
	}
}

// Field is one extracted datum from an RFP document. Only structured fields
// carry Confidence and IsInterpreted.
type Field struct {
	Shape         FieldShape
	Value         string
	Confidence    float64
	IsInterpreted bool
}

// LegacyField builds a field in the bare-string shape.
func LegacyField(value string) Field {
	return Field{Shape: ShapeLegacy, Value: value}
}

// StructuredField builds a field in the record shape.
func StructuredField(value string, confidence float64, interpreted bool) Field {
	return Field{
		Shape:         ShapeStructured,
		Value:         value,
		Confidence:    confidence,
		IsInterpreted: interpreted,
	}
}

// IsStructured reports whether the field carries confidence metadata.
func (f Field) IsStructured() bool {
	return f.Shape == ShapeStructured
}

// IsEmpty reports whether the field has no displayable value.
func (f Field) IsEmpty() bool {
	return f.Shape == ShapeAbsent || f.Value == ""
}

type fieldRecord struct {
	Value         json.RawMessage `json:"value"`
	Confidence    json.RawMessage `json:"confidence"`
	IsInterpreted json.RawMessage `json:"is_interpreted"`
}

// UnmarshalJSON decodes either field shape. It never returns an error:
// anything it cannot interpret becomes an absent field.
func (f *Field) UnmarshalJSON(data []byte) error {
	*f = decodeField(data)
	return nil
}

// MarshalJSON writes the field back in the shape it was read in.
func (f Field) MarshalJSON() ([]byte, error) {
	switch f.Shape {
	case ShapeLegacy:
		return json.Marshal(f.Value)
	case ShapeStructured:
		return json.Marshal(struct {
			Value         string  `json:"value"`
			Confidence    float64 `json:"confidence"`
			IsInterpreted bool    `json:"is_interpreted"`
		}{f.Value, f.Confidence, f.IsInterpreted})
	default:
		return []byte("null"), nil
	}
}

func decodeField(data []byte) Field {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Field{}
	}

	switch data[0] {
	case '{':
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return Field{}
		}
		value, ok := raw["value"]
		if !ok {
			return Field{}
		}
		return Field{
			Shape:         ShapeStructured,
			Value:         recordValue(value),
			Confidence:    number(raw["confidence"]),
			IsInterpreted: boolean(raw["is_interpreted"]),
		}
	case '[':
		return Field{}
	default:
		text, ok := scalarText(data)
		if !ok {
			return Field{}
		}
		return LegacyField(text)
	}
}

// scalarText renders a JSON scalar as display text. Null is not a scalar here.
func scalarText(data []byte) (string, bool) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case bool:
		if t {
			return "Yes", true
		}
		return "No", true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		return "", false
	}
}

func recordValue(data json.RawMessage) string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ""
	}
	if data[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return ""
		}
		parts := make([]string, 0, len(items))
		for _, item := range items {
			if text, ok := scalarText(item); ok && text != "" {
				parts = append(parts, text)
			}
		}
		return strings.Join(parts, ", ")
	}
	text, _ := scalarText(data)
	return text
}

func number(data json.RawMessage) float64 {
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return 0
	}
	return n
}

func boolean(data json.RawMessage) bool {
	var b bool
	if err := json.Unmarshal(data, &b); err != nil {
		return false
	}
	return b
}
