package patients

import "testing"

func boolPtr(v bool) *bool      { return &v }
func strPtr(v string) *string   { return &v }
func numPtr(v float64) *float64 { return &v }

func TestMedicalHistoryValidate(t *testing.T) {
	ok := MedicalHistory{
		{FieldID: "diabetes", Type: FieldCheckbox, Checked: boolPtr(true)},
		{FieldID: "allergies", Type: FieldText, Text: strPtr("penicillin")},
		{FieldID: "last_dental_visit_years", Type: FieldNumber, Number: numPtr(2)},
	}
	if err := ok.Validate(DefaultFieldDefs); err != nil {
		t.Fatalf("valid history rejected: %v", err)
	}
}

func TestMedicalHistoryRejectsUnknownField(t *testing.T) {
	h := MedicalHistory{{FieldID: "blood_type", Type: FieldText, Text: strPtr("O+")}}
	if err := h.Validate(DefaultFieldDefs); err == nil {
		t.Error("unknown field id accepted")
	}
}

func TestMedicalHistoryRejectsTypeMismatch(t *testing.T) {
	// diabetes is declared checkbox; a text answer is a boundary error.
	h := MedicalHistory{{FieldID: "diabetes", Type: FieldText, Text: strPtr("yes")}}
	if err := h.Validate(DefaultFieldDefs); err == nil {
		t.Error("type mismatch accepted")
	}
}

func TestMedicalHistoryRejectsWrongValueSlot(t *testing.T) {
	cases := []HistoryEntry{
		{FieldID: "diabetes", Type: FieldCheckbox, Text: strPtr("yes")},
		{FieldID: "allergies", Type: FieldText, Checked: boolPtr(true)},
		{FieldID: "last_dental_visit_years", Type: FieldNumber, Text: strPtr("2")},
		{FieldID: "diabetes", Type: FieldCheckbox, Checked: boolPtr(true), Number: numPtr(1)},
	}
	for i, e := range cases {
		h := MedicalHistory{e}
		if err := h.Validate(DefaultFieldDefs); err == nil {
			t.Errorf("case %d: wrong value slot accepted", i)
		}
	}
}

func TestHistoryEntryValue(t *testing.T) {
	e := HistoryEntry{FieldID: "diabetes", Type: FieldCheckbox, Checked: boolPtr(true)}
	if v, ok := e.Value().(bool); !ok || !v {
		t.Errorf("Value() = %#v, want true", e.Value())
	}
}

func TestHistoryDBRoundTrip(t *testing.T) {
	h := MedicalHistory{
		{FieldID: "smoker", Type: FieldCheckbox, Checked: boolPtr(false)},
		{FieldID: "medications", Type: FieldText, Text: strPtr("amoxicillin")},
	}
	raw, err := h.MarshalForDB()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	back, err := UnmarshalHistoryFromDB(raw)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(back) != 2 || back[1].FieldID != "medications" || *back[1].Text != "amoxicillin" {
		t.Errorf("round trip = %#v", back)
	}

	var empty MedicalHistory
	raw, err = empty.MarshalForDB()
	if err != nil || string(raw) != "[]" {
		t.Errorf("nil history marshals to %q (%v), want []", raw, err)
	}
}
