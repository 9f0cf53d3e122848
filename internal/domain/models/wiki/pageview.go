package wiki

import (
	"time"
)

// DateLayout is the calendar-day format used in requests and responses
const DateLayout = "2006-01-02"

// Date is a calendar day serialised as YYYY-MM-DD
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar day in UTC
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

// String formats the date as YYYY-MM-DD
func (d Date) String() string { return d.Format(DateLayout) }

// AddDays returns the date n days later
func (d Date) AddDays(n int) Date { return Date{d.AddDate(0, 0, n)} }

// MarshalText implements encoding.TextMarshaler
func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DateRange is an inclusive range of calendar days
type DateRange struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// Days returns the number of days in the range, 0 if End precedes Start
func (r DateRange) Days() int {
	if r.End.Before(r.Start.Time) {
		return 0
	}
	return int(r.End.Sub(r.Start.Time).Hours()/24) + 1
}

// Split cuts the range into consecutive chunks of at most size days
func (r DateRange) Split(size int) []DateRange {
	if size <= 0 {
		return []DateRange{r}
	}
	var out []DateRange
	for start := r.Start; !start.After(r.End.Time); start = start.AddDays(size) {
		end := start.AddDays(size - 1)
		if end.After(r.End.Time) {
			end = r.End
		}
		out = append(out, DateRange{Start: start, End: end})
	}
	return out
}

// PageviewSample is one day of view counts. A zero count with Observed=false
// means the upstream had no data for that day, which is not the same as zero views.
type PageviewSample struct {
	Date        Date  `json:"date"`
	Views       int64 `json:"views"`
	Observed    bool  `json:"observed"`
	Unavailable bool  `json:"unavailable,omitempty"` // upstream failed for this day
	Estimated   bool  `json:"estimated,omitempty"`   // filled by interpolation
}

// PageviewSeries holds one sample per day, oldest first.
type PageviewSeries struct {
	Range       DateRange        `json:"range"`
	Samples     []PageviewSample `json:"samples"`
	Unavailable []DateRange      `json:"unavailable,omitempty"`
	Complete    bool             `json:"complete"`
}
