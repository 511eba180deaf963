// Package prescription turns free-text model replies into a fixed prescription
// document. It owns the document types, the instruction sent to the model,
// the normalizer that guarantees every field is present, and the Service that
// ties a text generator to the normalizer for a single request.
package prescription

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// RetryMessage is the Description of the default document
const RetryMessage = "Please try again with proper prescription content."

var jsonNull = []byte("null")

// Field is a nullable prescription value. The zero value is the null marker
// and always serializes as JSON null.
type Field struct {
	Value string
	Valid bool
}

// Text returns a present field holding s
func Text(s string) Field {
	return Field{Value: s, Valid: true}
}

// IsNull reports whether f is the null marker
func (f Field) IsNull() bool {
	return !f.Valid
}

func (f Field) String() string {
	if !f.Valid {
		return "null"
	}
	return f.Value
}

// MarshalJSON writes null for the null marker and a JSON string otherwise
func (f Field) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return jsonNull, nil
	}
	return json.Marshal(f.Value)
}

// UnmarshalJSON accepts strings and null. Numbers and booleans keep their
// literal text; objects and arrays are rejected.
func (f *Field) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("%w: empty value", ErrInvalidShape)
	}

	switch c := data[0]; {
	case bytes.Equal(data, jsonNull):
		*f = Field{}
	case c == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = Text(s)
	case c == 't' || c == 'f' || c == '-' || (c >= '0' && c <= '9'):
		*f = Text(string(data))
	default:
		return fmt.Errorf("%w: expected string or null, got %s", ErrInvalidShape, jsonKind(c))
	}
	return nil
}

// JSONSchema describes Field as a nullable string
func (Field) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			{Type: "string"},
			{Type: "null"},
		},
	}
}

func jsonKind(c byte) string {
	switch c {
	case '{':
		return "object"
	case '[':
		return "array"
	default:
		return fmt.Sprintf("%q", c)
	}
}

// decodeFields decodes a JSON object into targets keyed by exact field name.
// Keys that are not an exact match, case variants included, are ignored and
// the first occurrence of a repeated key wins. A null object leaves every
// target untouched.
func decodeFields(data []byte, targets map[string]any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("%w: expected object, got %s", ErrInvalidShape, jsonKind(bytes.TrimSpace(data)[0]))
	}

	seen := make(map[string]bool, len(targets))
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("%w: unexpected token %v", ErrInvalidJSON, tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}

		target, known := targets[key]
		if !known || seen[key] {
			continue
		}
		seen[key] = true
		if err := json.Unmarshal(raw, target); err != nil {
			return err
		}
	}

	_, err = dec.Token()
	return err
}

// DiagnosisInformation names the condition and the medicine chosen for it
type DiagnosisInformation struct {
	Diagnosis Field `json:"Diagnosis"`
	Medicine  Field `json:"Medicine"`
}

func (d *DiagnosisInformation) UnmarshalJSON(data []byte) error {
	return decodeFields(data, map[string]any{
		"Diagnosis": &d.Diagnosis,
		"Medicine":  &d.Medicine,
	})
}

// MedicationDetails holds the dosing instructions of one prescription
type MedicationDetails struct {
	Dose              Field `json:"Dose"`
	DoseUnit          Field `json:"DoseUnit"`
	DoseRoute         Field `json:"DoseRoute"`
	Frequency         Field `json:"Frequency"`
	FrequencyDuration Field `json:"FrequencyDuration"`
	FrequencyUnit     Field `json:"FrequencyUnit"`
	Quantity          Field `json:"Quantity"`
	QuantityUnit      Field `json:"QuantityUnit"`
	Refill            Field `json:"Refill"`
	Pharmacy          Field `json:"Pharmacy"`
}

func (m *MedicationDetails) UnmarshalJSON(data []byte) error {
	return decodeFields(data, map[string]any{
		"Dose":              &m.Dose,
		"DoseUnit":          &m.DoseUnit,
		"DoseRoute":         &m.DoseRoute,
		"Frequency":         &m.Frequency,
		"FrequencyDuration": &m.FrequencyDuration,
		"FrequencyUnit":     &m.FrequencyUnit,
		"Quantity":          &m.Quantity,
		"QuantityUnit":      &m.QuantityUnit,
		"Refill":            &m.Refill,
		"Pharmacy":          &m.Pharmacy,
	})
}

// Entry is a single prescription. Description is free text and may carry a
// drug-conflict warning from the model.
type Entry struct {
	DiagnosisInformation DiagnosisInformation `json:"DiagnosisInformation"`
	MedicationDetails    MedicationDetails    `json:"MedicationDetails"`
	Description          Field                `json:"Description"`
}

// UnmarshalJSON rejects null entries; a null sub-object leaves its fields null.
func (e *Entry) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		return fmt.Errorf("%w: null prescription entry", ErrInvalidShape)
	}
	return decodeFields(data, map[string]any{
		"DiagnosisInformation": &e.DiagnosisInformation,
		"MedicationDetails":    &e.MedicationDetails,
		"Description":          &e.Description,
	})
}

// Document is the normalized prescription document
type Document struct {
	Prescriptions []Entry `json:"Prescriptions"`
}

// entryList rejects an explicit null list; an absent key is handled by Normalize
type entryList []Entry

func (l *entryList) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		return fmt.Errorf("%w: null Prescriptions list", ErrInvalidShape)
	}
	return json.Unmarshal(data, (*[]Entry)(l))
}

func (d *Document) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		return fmt.Errorf("%w: null document", ErrInvalidShape)
	}
	return decodeFields(data, map[string]any{
		"Prescriptions": (*entryList)(&d.Prescriptions),
	})
}

// MarshalJSON never writes a null Prescriptions list
func (d Document) MarshalJSON() ([]byte, error) {
	type plain Document
	if d.Prescriptions == nil {
		d.Prescriptions = []Entry{}
	}
	return json.Marshal(plain(d))
}

// Envelope is the body of a successful /chat response
type Envelope struct {
	Response Document `json:"response"`
}

// DefaultDocument returns the fallback served whenever the model reply
// cannot be normalized. Every call returns a fresh value.
func DefaultDocument() Document {
	return Document{
		Prescriptions: []Entry{
			{Description: Text(RetryMessage)},
		},
	}
}
