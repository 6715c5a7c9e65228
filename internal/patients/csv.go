package patients

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"
)

var csvHeader = []string{
	"patient_id", "first_name", "last_name", "email", "phone",
	"date_of_birth", "gender", "notes", "created_at",
}

// ExportCSV renders the given patients as an RFC 4180 CSV document. Fields
// containing commas, quotes or newlines are quoted with internal quotes
// doubled, so the export round-trips through any compliant parser.
func ExportCSV(list []*Patient) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("patients: write csv header: %w", err)
	}
	for _, p := range list {
		record := []string{
			p.PatientID,
			p.FirstName,
			p.LastName,
			p.Email,
			p.Phone,
			p.DateOfBirth,
			p.Gender,
			p.Notes,
			p.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("patients: write csv record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("patients: flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportFilename derives the download filename from the export date and the
// active search filter.
func ExportFilename(now time.Time, search string) string {
	name := "patients-" + now.UTC().Format("2006-01-02")
	if s := sanitizeFilterTag(search); s != "" {
		name += "-" + s
	}
	return name + ".csv"
}

func sanitizeFilterTag(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
