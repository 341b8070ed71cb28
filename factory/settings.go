/*
Package factory converts settings and benefit-code documents into engine types.

PURPOSE:
  Work settings and the benefit-code catalog are configuration, edited by
  people and stored as documents. The factory parses them (JSON from the
  API, JSON or YAML from files), fills defaults and validates ranges, so
  the engine only ever sees well-formed values.

SETTINGS SCHEMA (JSON; YAML uses the same keys):
  {
    "standard_day_hours": 8,
    "night_window_start_hour": 22,
    "night_window_end_hour": 6,
    "treat_holiday_as_overtime": true,
    "deduct_auto_break": true,
    "auto_break_threshold_hours": 6,
    "auto_break_minutes": 30,
    "break_order": "diurnal_first",
    "timezone": "Europe/Rome",
    "shifts": [
      {"id": "morning", "name": "Morning", "start": "06:00", "end": "14:00"}
    ]
  }

VALIDATION:
  standard_day_hours          > 0
  night_window_*_hour         0..23 (equal start and end disables the night)
  auto_break_threshold_hours  > 0
  auto_break_minutes          >= 0
  break_order                 diurnal_first | nocturnal_first
  shifts                      unique non-empty IDs, HH:MM times

USAGE:
  f := factory.NewSettingsFactory()
  settings, err := f.ParseSettings([]byte(factory.DefaultSettingsJSON), factory.FormatJSON)

SEE ALSO:
  - catalog.go: Benefit-code documents
  - worktime/types.go: WorkSettings
*/
package factory

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/worktime"
	"gopkg.in/yaml.v3"
)

// Format is the encoding of a document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension. Anything that is
// not .yaml or .yml is read as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

func decode(data []byte, format Format, v any) error {
	if format == FormatYAML {
		return yaml.Unmarshal(data, v)
	}
	return json.Unmarshal(data, v)
}

// =============================================================================
// SETTINGS SCHEMA
// =============================================================================

// SettingsJSON is the document form of worktime.WorkSettings. Pointer fields
// distinguish "absent" (use the default) from an explicit zero.
type SettingsJSON struct {
	StandardDayHours        *float64         `json:"standard_day_hours,omitempty" yaml:"standard_day_hours,omitempty"`
	NightWindowStartHour    *int             `json:"night_window_start_hour,omitempty" yaml:"night_window_start_hour,omitempty"`
	NightWindowEndHour      *int             `json:"night_window_end_hour,omitempty" yaml:"night_window_end_hour,omitempty"`
	TreatHolidayAsOvertime  *bool            `json:"treat_holiday_as_overtime,omitempty" yaml:"treat_holiday_as_overtime,omitempty"`
	DeductAutoBreak         *bool            `json:"deduct_auto_break,omitempty" yaml:"deduct_auto_break,omitempty"`
	AutoBreakThresholdHours *float64         `json:"auto_break_threshold_hours,omitempty" yaml:"auto_break_threshold_hours,omitempty"`
	AutoBreakMinutes        *int             `json:"auto_break_minutes,omitempty" yaml:"auto_break_minutes,omitempty"`
	BreakOrder              string           `json:"break_order,omitempty" yaml:"break_order,omitempty"`
	Timezone                string           `json:"timezone,omitempty" yaml:"timezone,omitempty"`
	Shifts                  []worktime.Shift `json:"shifts,omitempty" yaml:"shifts,omitempty"`
}

// Defaults applied to absent fields.
const (
	DefaultStandardDayHours        = 8.0
	DefaultNightWindowStartHour    = 22
	DefaultNightWindowEndHour      = 6
	DefaultAutoBreakThresholdHours = 6.0
	DefaultAutoBreakMinutes        = 30
)

// DefaultSettingsJSON is a complete settings document with the defaults
// spelled out.
const DefaultSettingsJSON = `{
  "standard_day_hours": 8,
  "night_window_start_hour": 22,
  "night_window_end_hour": 6,
  "treat_holiday_as_overtime": true,
  "deduct_auto_break": true,
  "auto_break_threshold_hours": 6,
  "auto_break_minutes": 30,
  "break_order": "diurnal_first",
  "timezone": "UTC"
}`

// =============================================================================
// SETTINGS FACTORY
// =============================================================================

// SettingsFactory converts settings documents to worktime.WorkSettings.
type SettingsFactory struct{}

func NewSettingsFactory() *SettingsFactory {
	return &SettingsFactory{}
}

// ParseSettings decodes and validates a settings document.
func (f *SettingsFactory) ParseSettings(data []byte, format Format) (worktime.WorkSettings, error) {
	var doc SettingsJSON
	if err := decode(data, format, &doc); err != nil {
		return worktime.WorkSettings{}, fmt.Errorf("%w: %v", generic.ErrInvalidSettings, err)
	}
	return f.FromJSON(doc)
}

// FromJSON fills defaults and validates.
func (f *SettingsFactory) FromJSON(doc SettingsJSON) (worktime.WorkSettings, error) {
	s := worktime.WorkSettings{
		StandardDayHours:        floatOr(doc.StandardDayHours, DefaultStandardDayHours),
		NightWindowStartHour:    intOr(doc.NightWindowStartHour, DefaultNightWindowStartHour),
		NightWindowEndHour:      intOr(doc.NightWindowEndHour, DefaultNightWindowEndHour),
		TreatHolidayAsOvertime:  boolOr(doc.TreatHolidayAsOvertime, true),
		DeductAutoBreak:         boolOr(doc.DeductAutoBreak, true),
		AutoBreakThresholdHours: floatOr(doc.AutoBreakThresholdHours, DefaultAutoBreakThresholdHours),
		AutoBreakMinutes:        intOr(doc.AutoBreakMinutes, DefaultAutoBreakMinutes),
		BreakOrder:              worktime.BreakOrder(doc.BreakOrder),
		Shifts:                  append([]worktime.Shift(nil), doc.Shifts...),
	}
	if s.BreakOrder == "" {
		s.BreakOrder = worktime.BreakDiurnalFirst
	}

	if doc.Timezone != "" {
		loc, err := time.LoadLocation(doc.Timezone)
		if err != nil {
			return worktime.WorkSettings{}, &generic.SettingsError{Field: "timezone", Reason: err.Error()}
		}
		s.Location = loc
	}

	if err := ValidateSettings(s); err != nil {
		return worktime.WorkSettings{}, err
	}
	return s, nil
}

// ValidateSettings checks the ranges the classifier relies on.
func ValidateSettings(s worktime.WorkSettings) error {
	switch {
	case !(s.StandardDayHours > 0 && s.StandardDayHours <= worktime.MaxStandardHours):
		return &generic.SettingsError{Field: "standard_day_hours", Reason: "must be > 0 and <= 24"}
	case s.NightWindowStartHour < 0 || s.NightWindowStartHour > 23:
		return &generic.SettingsError{Field: "night_window_start_hour", Reason: "must be 0-23"}
	case s.NightWindowEndHour < 0 || s.NightWindowEndHour > 23:
		return &generic.SettingsError{Field: "night_window_end_hour", Reason: "must be 0-23"}
	case !(s.AutoBreakThresholdHours > 0 && s.AutoBreakThresholdHours <= worktime.MaxStandardHours):
		return &generic.SettingsError{Field: "auto_break_threshold_hours", Reason: "must be > 0 and <= 24"}
	case s.AutoBreakMinutes < 0 || s.AutoBreakMinutes > worktime.MaxAutoBreakMinutes:
		return &generic.SettingsError{Field: "auto_break_minutes", Reason: "must be 0-1440"}
	case s.BreakOrder != worktime.BreakDiurnalFirst && s.BreakOrder != worktime.BreakNocturnalFirst:
		return &generic.SettingsError{Field: "break_order", Reason: fmt.Sprintf("unknown value %q", s.BreakOrder)}
	}

	seen := make(map[string]bool, len(s.Shifts))
	for i, sh := range s.Shifts {
		field := fmt.Sprintf("shifts[%d]", i)
		switch {
		case strings.TrimSpace(sh.ID) == "":
			return &generic.SettingsError{Field: field + ".id", Reason: "is required"}
		case seen[sh.ID]:
			return &generic.SettingsError{Field: field + ".id", Reason: fmt.Sprintf("duplicate %q", sh.ID)}
		case !validClock(sh.Start):
			return &generic.SettingsError{Field: field + ".start", Reason: "must be HH:MM"}
		case !validClock(sh.End):
			return &generic.SettingsError{Field: field + ".end", Reason: "must be HH:MM"}
		case !(sh.StandardHours >= 0 && sh.StandardHours <= worktime.MaxStandardHours):
			return &generic.SettingsError{Field: field + ".standard_hours", Reason: "must be 0-24"}
		}
		seen[sh.ID] = true
	}
	return nil
}

// ToJSON renders settings back to their document form.
func (f *SettingsFactory) ToJSON(s worktime.WorkSettings) SettingsJSON {
	doc := SettingsJSON{
		StandardDayHours:        &s.StandardDayHours,
		NightWindowStartHour:    &s.NightWindowStartHour,
		NightWindowEndHour:      &s.NightWindowEndHour,
		TreatHolidayAsOvertime:  &s.TreatHolidayAsOvertime,
		DeductAutoBreak:         &s.DeductAutoBreak,
		AutoBreakThresholdHours: &s.AutoBreakThresholdHours,
		AutoBreakMinutes:        &s.AutoBreakMinutes,
		BreakOrder:              string(s.BreakOrder),
		Shifts:                  s.Shifts,
	}
	if s.Location != nil {
		doc.Timezone = s.Location.String()
	}
	return doc
}

// =============================================================================
// HELPERS
// =============================================================================

func validClock(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
}

func floatOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
