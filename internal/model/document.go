package model

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
)

// SectionDef names a known document section and its display title.
type SectionDef struct {
	Key   string
	Title string
}

// KnownSections lists the sections the analysis backend emits, in display order.
var KnownSections = []SectionDef{
	{Key: "strategic_summary", Title: "Strategic Summary"},
	{Key: "introduction/background", Title: "Introduction/Background"},
	{Key: "bid_summary", Title: "Bid Summary"},
	{Key: "key_dates", Title: "Key Dates"},
	{Key: "work_portfolio", Title: "Work Portfolio"},
	{Key: "requirements", Title: "Requirements"},
	{Key: "website_details", Title: "Website Details"},
	{Key: "commercials", Title: "Commercials"},
	{Key: "flags", Title: "Flags"},
	{Key: "submission_details", Title: "Submission Details"},
	{Key: "checklist", Title: "Checklist"},
}

// NamedField is a field paired with its key inside a section.
type NamedField struct {
	Name  string
	Field Field
}

// Section is an ordered mapping from field name to field.
type Section struct {
	Key    string
	Fields []NamedField
}

// Get returns the named field, or an absent field.
func (s Section) Get(name string) Field {
	for _, nf := range s.Fields {
		if nf.Name == name {
			return nf.Field
		}
	}
	return Field{}
}

// Document is the analysis result for one RFP. Sections keep the order the
// backend wrote them in.
type Document struct {
	Sections []Section
}

// Section returns the section for key and whether it was present.
func (d *Document) Section(key string) (Section, bool) {
	if d == nil {
		return Section{}, false
	}
	for _, s := range d.Sections {
		if s.Key == key {
			return s, true
		}
	}
	return Section{}, false
}

// Lookup returns a field by section and name, or an absent field.
func (d *Document) Lookup(section, name string) Field {
	s, ok := d.Section(section)
	if !ok {
		return Field{}
	}
	return s.Get(name)
}

// IsEmpty reports whether the document has no fields at all.
func (d *Document) IsEmpty() bool {
	if d == nil {
		return true
	}
	for _, s := range d.Sections {
		if len(s.Fields) > 0 {
			return false
		}
	}
	return true
}

// ParseDocument decodes an analysis result, preserving key order.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := doc.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return &doc, nil
}

// UnmarshalJSON decodes a top-level object of sections. Non-object section
// values decode as empty sections; null decodes as an empty document.
func (d *Document) UnmarshalJSON(data []byte) error {
	d.Sections = nil
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '{'); err != nil {
		return eris.Wrap(err, "model: document must be an object")
	}
	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return err
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return eris.Wrapf(err, "model: decode section %s", key)
		}
		fields, err := decodeSection(raw)
		if err != nil {
			return eris.Wrapf(err, "model: decode section %s", key)
		}
		d.Sections = append(d.Sections, Section{Key: key, Fields: fields})
	}
	return nil
}

// MarshalJSON writes sections back as an object in their stored order.
func (d Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range d.Sections {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeKey(&buf, s.Key); err != nil {
			return nil, err
		}
		buf.WriteByte('{')
		for j, nf := range s.Fields {
			if j > 0 {
				buf.WriteByte(',')
			}
			if err := writeKey(&buf, nf.Name); err != nil {
				return nil, err
			}
			b, err := json.Marshal(nf.Field)
			if err != nil {
				return nil, eris.Wrapf(err, "model: marshal field %s", nf.Name)
			}
			buf.Write(b)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func decodeSection(raw json.RawMessage) ([]NamedField, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	var fields []NamedField
	for dec.More() {
		name, err := readKey(dec)
		if err != nil {
			return nil, err
		}
		var f Field
		if err := dec.Decode(&f); err != nil {
			return nil, eris.Wrapf(err, "model: decode field %s", name)
		}
		fields = append(fields, NamedField{Name: name, Field: f})
	}
	return fields, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return eris.New("model: unexpected end of input")
		}
		return eris.Wrap(err, "model: read token")
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return eris.Errorf("model: expected %q, got %v", want, tok)
	}
	return nil
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", eris.Wrap(err, "model: read key")
	}
	key, ok := tok.(string)
	if !ok {
		return "", eris.Errorf("model: expected object key, got %v", tok)
	}
	return key, nil
}

func writeKey(buf *bytes.Buffer, key string) error {
	b, err := json.Marshal(key)
	if err != nil {
		return eris.Wrapf(err, "model: marshal key %s", key)
	}
	buf.Write(b)
	buf.WriteByte(':')
	return nil
}
