// Package export renders computed day summaries as CSV, JSON or YAML.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Tiliavir/work-time-tracker/internal/model"
	"github.com/Tiliavir/work-time-tracker/internal/storage"
	"github.com/Tiliavir/work-time-tracker/internal/timecalc"
	"github.com/Tiliavir/work-time-tracker/internal/worktime"
)

// Supported formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Buckets holds a summary in integer milliseconds.
type Buckets struct {
	TotalWorkMs                int64 `json:"totalWorkMs" yaml:"total_work_ms"`
	StandardWorkMs             int64 `json:"standardWorkMs" yaml:"standard_work_ms"`
	ExcessHoursMs              int64 `json:"excessHoursMs" yaml:"excess_hours_ms"`
	OvertimeDiurnalMs          int64 `json:"overtimeDiurnalMs" yaml:"overtime_diurnal_ms"`
	OvertimeNocturnalMs        int64 `json:"overtimeNocturnalMs" yaml:"overtime_nocturnal_ms"`
	OvertimeHolidayMs          int64 `json:"overtimeHolidayMs" yaml:"overtime_holiday_ms"`
	OvertimeNocturnalHolidayMs int64 `json:"overtimeNocturnalHolidayMs" yaml:"overtime_nocturnal_holiday_ms"`
	NullHoursMs                int64 `json:"nullHoursMs" yaml:"null_hours_ms"`
	BreakDeductedMs            int64 `json:"breakDeductedMs" yaml:"break_deducted_ms"`
}

func bucketsOf(s worktime.DaySummary) Buckets {
	return Buckets{
		TotalWorkMs:                s.TotalWork.Milliseconds(),
		StandardWorkMs:             s.Standard.Milliseconds(),
		ExcessHoursMs:              s.Excess.Milliseconds(),
		OvertimeDiurnalMs:          s.OvertimeDiurnal.Milliseconds(),
		OvertimeNocturnalMs:        s.OvertimeNocturnal.Milliseconds(),
		OvertimeHolidayMs:          s.OvertimeHoliday.Milliseconds(),
		OvertimeNocturnalHolidayMs: s.OvertimeNocturnalHoliday.Milliseconds(),
		NullHoursMs:                s.NullHours.Milliseconds(),
		BreakDeductedMs:            s.BreakDeducted.Milliseconds(),
	}
}

// Interval is one completed in/out pair of a DayRecord.
type Interval struct {
	Start   string `json:"start" yaml:"start"`
	End     string `json:"end" yaml:"end"`
	Buckets `yaml:",inline"`
}

// DayRecord is the exported form of one day.
type DayRecord struct {
	Date        string     `json:"date" yaml:"date"`
	Plan        string     `json:"plan" yaml:"plan"`
	OnCall      bool       `json:"onCall" yaml:"on_call"`
	Open        bool       `json:"open" yaml:"open"`
	MealVoucher bool       `json:"mealVoucher" yaml:"meal_voucher"`
	Buckets     `yaml:",inline"`
	Intervals   []Interval `json:"intervals" yaml:"intervals"`
}

// Records converts day reports into export records.
func Records(reports []storage.DayReport, settings model.WorkSettings) []DayRecord {
	recs := make([]DayRecord, 0, len(reports))
	for _, r := range reports {
		rec := DayRecord{
			Date:        r.Day.Format(timecalc.DateLayout),
			Plan:        r.File.Info.Describe(),
			OnCall:      r.File.Info.OnCall(),
			Open:        r.Result.Open != nil,
			MealVoucher: worktime.MealVoucherEligible(r.Result.Summary, settings.MealVoucherThresholdHours),
			Buckets:     bucketsOf(r.Result.Summary),
			Intervals:   []Interval{},
		}
		for _, iv := range r.Result.Intervals {
			rec.Intervals = append(rec.Intervals, Interval{
				Start:   iv.Start.Format(time.RFC3339),
				End:     iv.End.Format(time.RFC3339),
				Buckets: bucketsOf(iv.DaySummary),
			})
		}
		recs = append(recs, rec)
	}
	return recs
}

// Write renders recs to w in the given format.
func Write(w io.Writer, format string, recs []DayRecord) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, recs)
	case FormatJSON:
		return WriteJSON(w, recs)
	case FormatYAML:
		return WriteYAML(w, recs)
	default:
		return fmt.Errorf("unknown export format %q (want csv, json or yaml)", format)
	}
}

var csvHeader = []string{
	"date", "plan", "on_call", "total", "standard", "excess",
	"ot_diurnal", "ot_nocturnal", "ot_holiday", "ot_nocturnal_holiday",
	"null", "break", "meal_voucher",
}

// WriteCSV writes one row per day with durations as HH:MM.
func WriteCSV(w io.Writer, recs []DayRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	hhmm := func(ms int64) string {
		return timecalc.FormatDurationHHMM(time.Duration(ms) * time.Millisecond)
	}
	for _, r := range recs {
		row := []string{
			r.Date,
			r.Plan,
			strconv.FormatBool(r.OnCall),
			hhmm(r.TotalWorkMs),
			hhmm(r.StandardWorkMs),
			hhmm(r.ExcessHoursMs),
			hhmm(r.OvertimeDiurnalMs),
			hhmm(r.OvertimeNocturnalMs),
			hhmm(r.OvertimeHolidayMs),
			hhmm(r.OvertimeNocturnalHolidayMs),
			hhmm(r.NullHoursMs),
			hhmm(r.BreakDeductedMs),
			strconv.FormatBool(r.MealVoucher),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes recs as an indented JSON array.
func WriteJSON(w io.Writer, recs []DayRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(recs); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// WriteYAML writes recs as a YAML sequence.
func WriteYAML(w io.Writer, recs []DayRecord) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(recs); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}
