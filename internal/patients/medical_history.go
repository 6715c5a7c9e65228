package patients

import (
	"encoding/json"
	"fmt"
)

// FieldType discriminates the admin-configurable medical history fields.
type FieldType string

const (
	FieldCheckbox FieldType = "checkbox"
	FieldText     FieldType = "text"
	FieldNumber   FieldType = "number"
)

// FieldDef describes one configurable medical history field.
type FieldDef struct {
	ID    string    `json:"id"`
	Label string    `json:"label"`
	Type  FieldType `json:"field_type"`
}

// DefaultFieldDefs is the built-in medical history form. The admin UI can
// extend this list; entries submitted against unknown field IDs are rejected.
var DefaultFieldDefs = []FieldDef{
	{ID: "allergies", Label: "Known allergies", Type: FieldText},
	{ID: "medications", Label: "Current medications", Type: FieldText},
	{ID: "diabetes", Label: "Diabetic", Type: FieldCheckbox},
	{ID: "hypertension", Label: "Hypertension", Type: FieldCheckbox},
	{ID: "heart_disease", Label: "Heart disease", Type: FieldCheckbox},
	{ID: "bleeding_disorder", Label: "Bleeding disorder", Type: FieldCheckbox},
	{ID: "pregnant", Label: "Pregnant", Type: FieldCheckbox},
	{ID: "smoker", Label: "Smoker", Type: FieldCheckbox},
	{ID: "last_dental_visit_years", Label: "Years since last dental visit", Type: FieldNumber},
	{ID: "other_conditions", Label: "Other conditions", Type: FieldText},
}

// HistoryEntry is one answered medical history field. Exactly the value slot
// matching Type must be populated.
type HistoryEntry struct {
	FieldID string    `json:"field_id"`
	Type    FieldType `json:"field_type"`
	Checked *bool     `json:"checked,omitempty"`
	Text    *string   `json:"text,omitempty"`
	Number  *float64  `json:"number,omitempty"`
}

// MedicalHistory is the full set of answered fields for a patient.
type MedicalHistory []HistoryEntry

// Validate checks every entry against the given field definitions. It rejects
// unknown field IDs, type mismatches against the definition, and entries
// whose populated value slot does not match the declared type.
func (h MedicalHistory) Validate(defs []FieldDef) error {
	byID := make(map[string]FieldDef, len(defs))
	for _, d := range defs {
		byID[d.ID] = d
	}
	for _, e := range h {
		def, ok := byID[e.FieldID]
		if !ok {
			return fmt.Errorf("patients: unknown medical history field %q", e.FieldID)
		}
		if e.Type != def.Type {
			return fmt.Errorf("patients: field %q is %s, got %s", e.FieldID, def.Type, e.Type)
		}
		if err := e.validateValue(); err != nil {
			return err
		}
	}
	return nil
}

func (e HistoryEntry) validateValue() error {
	switch e.Type {
	case FieldCheckbox:
		if e.Checked == nil || e.Text != nil || e.Number != nil {
			return fmt.Errorf("patients: checkbox field %q requires exactly a boolean value", e.FieldID)
		}
	case FieldText:
		if e.Text == nil || e.Checked != nil || e.Number != nil {
			return fmt.Errorf("patients: text field %q requires exactly a string value", e.FieldID)
		}
	case FieldNumber:
		if e.Number == nil || e.Checked != nil || e.Text != nil {
			return fmt.Errorf("patients: number field %q requires exactly a numeric value", e.FieldID)
		}
	default:
		return fmt.Errorf("patients: unsupported field type %q", e.Type)
	}
	return nil
}

// Value returns the entry's populated value for display purposes.
func (e HistoryEntry) Value() any {
	switch e.Type {
	case FieldCheckbox:
		if e.Checked != nil {
			return *e.Checked
		}
	case FieldText:
		if e.Text != nil {
			return *e.Text
		}
	case FieldNumber:
		if e.Number != nil {
			return *e.Number
		}
	}
	return nil
}

// Scan/value helpers: history rows are stored as a JSONB column.

func (h MedicalHistory) MarshalForDB() ([]byte, error) {
	if h == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(h)
}

func UnmarshalHistoryFromDB(raw []byte) (MedicalHistory, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var h MedicalHistory
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, fmt.Errorf("patients: decode medical history: %w", err)
	}
	return h, nil
}
