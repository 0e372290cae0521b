package civil

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

func TestDate_JSON(t *testing.T) {
	var payload struct {
		D Date `json:"data_plantao"`
	}
	if err := json.Unmarshal([]byte(`{"data_plantao":"2024-05-01"}`), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.D != (Date{2024, time.May, 1}) {
		t.Fatalf("unexpected date %+v", payload.D)
	}
	out, _ := json.Marshal(payload)
	if string(out) != `{"data_plantao":"2024-05-01"}` {
		t.Errorf("unexpected json %s", out)
	}

	if err := json.Unmarshal([]byte(`{"data_plantao":"01/05/2024"}`), &payload); err == nil {
		t.Error("expected error for dd/mm/yyyy input")
	}
}

func TestDate_Format(t *testing.T) {
	d := Date{2024, time.March, 9}
	if d.Format() != "09/03/2024" {
		t.Errorf("unexpected format %q", d.Format())
	}
	if d.AddDays(30).String() != "2024-04-08" {
		t.Errorf("unexpected AddDays result %s", d.AddDays(30))
	}
}

func TestDate_PgRoundTrip(t *testing.T) {
	d := Date{2023, time.December, 31}
	v, err := d.DateValue()
	if err != nil || !v.Valid {
		t.Fatalf("DateValue: %v %+v", err, v)
	}
	var back Date
	if err := back.ScanDate(v); err != nil {
		t.Fatal(err)
	}
	if back != d {
		t.Errorf("expected %v, got %v", d, back)
	}
	if err := back.ScanDate(pgtype.Date{}); err != nil || !back.IsZero() {
		t.Errorf("expected zero date for NULL, got %v", back)
	}
}
