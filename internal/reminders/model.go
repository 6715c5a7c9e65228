package reminders

import (
	"errors"
	"regexp"
	"time"
)

var (
	// ErrConfigNotFound is returned when no config row exists for a type.
	ErrConfigNotFound = errors.New("reminders: config not found")
	// ErrInvalidType is returned for unknown reminder types.
	ErrInvalidType = errors.New("reminders: reminder_type must be 24_hour, day_of or custom")
	// ErrInvalidHours is returned for negative lead times.
	ErrInvalidHours = errors.New("reminders: hours_before must be non-negative")
	// ErrNoRecipient is returned when a test-send has no address.
	ErrNoRecipient = errors.New("reminders: recipient email is required")
)

// ReminderType identifies one of the fixed reminder schedules.
type ReminderType string

const (
	Type24Hour ReminderType = "24_hour"
	TypeDayOf  ReminderType = "day_of"
	TypeCustom ReminderType = "custom"
)

// Types lists every schedule in display order.
var Types = []ReminderType{Type24Hour, TypeDayOf, TypeCustom}

// Valid reports whether t is a recognized schedule.
func (t ReminderType) Valid() bool {
	switch t {
	case Type24Hour, TypeDayOf, TypeCustom:
		return true
	}
	return false
}

// Config is one reminder schedule's settings. Subject and body are plain
// strings with {{placeholder}} tokens substituted by the sender at
// delivery time.
type Config struct {
	Type        ReminderType `json:"reminder_type"`
	HoursBefore int          `json:"hours_before"`
	IsEnabled   bool         `json:"is_enabled"`
	Subject     string       `json:"subject"`
	Body        string       `json:"body"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Validate checks a config row.
func (c *Config) Validate() error {
	if !c.Type.Valid() {
		return ErrInvalidType
	}
	if c.HoursBefore < 0 {
		return ErrInvalidHours
	}
	return nil
}

var placeholderRe = regexp.MustCompile(`\{\{\s*([a-z_]+)\s*\}\}`)

// Render substitutes known placeholders in a template. Unknown tokens are
// left intact for the downstream sender to resolve.
func Render(template string, values map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(template, func(tok string) string {
		name := placeholderRe.FindStringSubmatch(tok)[1]
		if v, ok := values[name]; ok {
			return v
		}
		return tok
	})
}

// SampleValues are the substitutions used by the test-send endpoint.
func SampleValues(clinicName string) map[string]string {
	return map[string]string{
		"patient_name":     "Maria Santos",
		"appointment_date": "2024-02-15",
		"appointment_time": "09:00",
		"clinic_name":      clinicName,
	}
}

// DefaultConfigs seeds one row per schedule with sensible templates.
func DefaultConfigs() []*Config {
	subject := "Appointment reminder from {{clinic_name}}"
	body := "Hi {{patient_name}}, this is a reminder of your appointment on " +
		"{{appointment_date}} at {{appointment_time}}. See you soon!\n\n{{clinic_name}}"
	return []*Config{
		{Type: Type24Hour, HoursBefore: 24, IsEnabled: true, Subject: subject, Body: body},
		{Type: TypeDayOf, HoursBefore: 2, IsEnabled: true, Subject: subject, Body: body},
		{Type: TypeCustom, HoursBefore: 48, IsEnabled: false, Subject: subject, Body: body},
	}
}
