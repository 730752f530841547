package imagery

import (
	"encoding/json"
	"time"
)

// DateLayout is the calendar-date format used on the wire and in query windows.
const DateLayout = "2006-01-02"

// Visualization is the tile-serving descriptor minted by the imagery service.
type Visualization struct {
	MapID     string `json:"mapid"`
	Token     string `json:"token"`
	URLFormat string `json:"url_format"`
}

// MapConfig describes the rendered map layer returned to the caller.
type MapConfig struct {
	ROI           json.RawMessage `json:"roi"`
	StartDate     string          `json:"start_date"`
	EndDate       string          `json:"end_date"`
	Feature       Feature         `json:"feature"`
	Visualization Visualization   `json:"visualization"`
}

// MonthlyValue is one point of the monthly series. A nil Value means no imagery was
// available that month.
type MonthlyValue struct {
	Date  string   `json:"date"`
	Value *float64 `json:"value"`
}

// Window is a calendar-month range passed to the imagery service as date strings. The
// imagery service treats End as exclusive, so scenes on the last day are not matched.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) StartDate() string { return w.Start.Format(DateLayout) }
func (w Window) EndDate() string   { return w.End.Format(DateLayout) }

// Generation is the result of one generate request.
type Generation struct {
	MapConfig     MapConfig      `json:"map_config"`
	MonthlyValues []MonthlyValue `json:"monthly_values"`
}
