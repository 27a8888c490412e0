package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Tiliavir/work-time-tracker/internal/model"
	"github.com/Tiliavir/work-time-tracker/internal/storage"
	"github.com/Tiliavir/work-time-tracker/internal/worktime"
)

func sampleRecords(t *testing.T) []DayRecord {
	t.Helper()
	day := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	settings := model.WorkSettings{StandardDayHours: 6, NightStartHour: 22, NightEndHour: 6, MealVoucherThresholdHours: 6}
	entries := []model.TimeEntry{
		{ID: "i", Timestamp: day.Add(8 * time.Hour), Kind: model.KindIn},
		{ID: "o", Timestamp: day.Add(16 * time.Hour), Kind: model.KindOut},
	}
	info := model.OnShift("M").WithOnCall(true)
	res := worktime.Calculate(day, entries, settings, info, model.Unplanned(), nil)

	hours := 4.0
	leaveDay := day.AddDate(0, 0, 1)
	leave := model.OnLeave(model.Leave{Type: model.LeavePermit, Hours: &hours})

	return Records([]storage.DayReport{
		{Day: day, File: model.DayFile{Info: info, Entries: entries}, Result: res},
		{Day: leaveDay, File: model.DayFile{Info: leave}, Result: worktime.Calculate(leaveDay, nil, settings, leave, model.Unplanned(), nil)},
	}, settings)
}

func TestRecords(t *testing.T) {
	recs := sampleRecords(t)
	if len(recs) != 2 {
		t.Fatalf("records = %d, want 2", len(recs))
	}
	r := recs[0]
	if r.Date != "2024-06-10" || r.Plan != "shift M" || !r.OnCall {
		t.Errorf("record header = %+v", r)
	}
	if r.TotalWorkMs != 8*3600*1000 || r.StandardWorkMs != 6*3600*1000 || r.ExcessHoursMs != 2*3600*1000 {
		t.Errorf("buckets = %+v", r.Buckets)
	}
	if !r.MealVoucher {
		t.Error("8h day should earn a meal voucher")
	}
	if len(r.Intervals) != 1 {
		t.Fatalf("intervals = %d, want 1", len(r.Intervals))
	}
	if recs[1].Plan != "leave permit 4h" || recs[1].MealVoucher {
		t.Errorf("leave record = %+v", recs[1])
	}
	if recs[1].Intervals == nil {
		t.Error("intervals must be an empty slice, not nil")
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatCSV, sampleRecords(t)); err != nil {
		t.Fatal(err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	if strings.Join(rows[0], ",") != strings.Join(csvHeader, ",") {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][3] != "08:00" || rows[1][4] != "06:00" || rows[1][5] != "02:00" {
		t.Errorf("first row = %v", rows[1])
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatJSON, sampleRecords(t)); err != nil {
		t.Fatal(err)
	}
	var got []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("days = %d, want 2", len(got))
	}
	if got[0]["standardWorkMs"] != float64(6*3600*1000) {
		t.Errorf("standardWorkMs = %v", got[0]["standardWorkMs"])
	}
	if _, nested := got[0]["Buckets"]; nested {
		t.Error("buckets must be flattened into the day object")
	}
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatYAML, sampleRecords(t)); err != nil {
		t.Fatal(err)
	}
	var got []DayRecord
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}
	if len(got) != 2 || got[0].ExcessHoursMs != 2*3600*1000 || got[0].Plan != "shift M" {
		t.Errorf("decoded = %+v", got)
	}
	if !strings.Contains(buf.String(), "excess_hours_ms: 7200000") {
		t.Errorf("yaml output missing inline bucket:\n%s", buf.String())
	}
}

func TestWriteUnknownFormat(t *testing.T) {
	if err := Write(&bytes.Buffer{}, "xml", nil); err == nil {
		t.Fatal("expected an error for an unknown format")
	}
}
