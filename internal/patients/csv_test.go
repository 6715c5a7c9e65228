package patients

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"
)

func TestExportCSVQuotesSpecialCharacters(t *testing.T) {
	notes := `He said "hi", then left`
	list := []*Patient{{
		PatientID:   "P-0001",
		FirstName:   "Juan",
		LastName:    "Dela Cruz",
		DateOfBirth: "1990-05-01",
		Notes:       notes,
		CreatedAt:   time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
	}}

	data, err := ExportCSV(list)
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"He said ""hi"", then left"`) {
		t.Errorf("quoted field missing from export:\n%s", out)
	}

	// Round trip: a compliant parser recovers the original string.
	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want header + 1", len(records))
	}
	notesIdx := -1
	for i, col := range records[0] {
		if col == "notes" {
			notesIdx = i
		}
	}
	if notesIdx < 0 {
		t.Fatal("notes column missing")
	}
	if got := records[1][notesIdx]; got != notes {
		t.Errorf("round-tripped notes = %q, want %q", got, notes)
	}
}

func TestExportCSVNewlineInField(t *testing.T) {
	list := []*Patient{{PatientID: "P-0002", Notes: "line one\nline two"}}
	data, err := ExportCSV(list)
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	if got := records[1][7]; got != "line one\nline two" {
		t.Errorf("notes = %q", got)
	}
}

func TestExportFilename(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	if got := ExportFilename(now, ""); got != "patients-2024-03-15.csv" {
		t.Errorf("filename = %q", got)
	}
	if got := ExportFilename(now, "Dela Cruz"); got != "patients-2024-03-15-dela-cruz.csv" {
		t.Errorf("filename with filter = %q", got)
	}
	if got := ExportFilename(now, "  ///  "); got != "patients-2024-03-15.csv" {
		t.Errorf("filename with junk filter = %q", got)
	}
}
