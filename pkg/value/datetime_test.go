package value

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantStr   string
		wantTZ    bool
		expectErr bool
	}{
		{name: "plain date", input: "2024-03-15", wantStr: "2024-03-15", wantTZ: false},
		{name: "utc date", input: "2024-03-15Z", wantStr: "2024-03-15Z", wantTZ: true},
		{name: "offset date", input: "2024-03-15+05:30", wantStr: "2024-03-15+05:30", wantTZ: true},
		{name: "month out of range", input: "2024-13-01", expectErr: true},
		{name: "not a date", input: "15/03/2024", expectErr: true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := ParseDate(test.input)
			if test.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.wantStr, got.StringValue())
			assert.Equal(t, test.wantTZ, got.HasTZ)
		})
	}
}

func TestParseDayTimeDuration(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      time.Duration
		expectErr bool
	}{
		{name: "days only", input: "P2D", want: 48 * time.Hour},
		{name: "full form", input: "P1DT2H30M10S", want: 26*time.Hour + 30*time.Minute + 10*time.Second},
		{name: "fractional seconds", input: "PT0.5S", want: 500 * time.Millisecond},
		{name: "negative", input: "-PT5S", want: -5 * time.Second},
		{name: "minutes only", input: "PT90M", want: 90 * time.Minute},
		{name: "seconds only", input: "PT5S", want: 5 * time.Second},
		{name: "hours and seconds", input: "PT2H10S", want: 2*time.Hour + 10*time.Second},
		{name: "minutes before hours", input: "PT30M2H", expectErr: true},
		{name: "bare P", input: "P", expectErr: true},
		{name: "bare T part", input: "P1DT", expectErr: true},
		{name: "wrong designator order", input: "PT2D", expectErr: true},
		{name: "year month form", input: "P1Y", expectErr: true},
		{name: "trailing junk", input: "PT5Sx", expectErr: true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := ParseDayTimeDuration(test.input)
			if test.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.want, got.D)
		})
	}
}

func TestParseYearMonthDuration(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      int32
		expectErr bool
	}{
		{name: "years and months", input: "P1Y6M", want: 18},
		{name: "months only", input: "P20M", want: 20},
		{name: "years only", input: "-P2Y", want: -24},
		{name: "bare P", input: "P", expectErr: true},
		{name: "day form", input: "P3D", expectErr: true},
		{name: "fractional years", input: "P1.5Y", expectErr: true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := ParseYearMonthDuration(test.input)
			if test.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.want, got.Months)
		})
	}
}

func TestDurationStringValue(t *testing.T) {
	tests := []struct {
		name string
		dur  Atomic
		want string
	}{
		{"zero day time", DayTimeDuration{}, "PT0S"},
		{"seconds", DayTimeDuration{D: 90 * time.Second}, "PT1M30S"},
		{"days and hours", DayTimeDuration{D: 26 * time.Hour}, "P1DT2H"},
		{"whole days", DayTimeDuration{D: 48 * time.Hour}, "P2D"},
		{"negative", DayTimeDuration{D: -5 * time.Second}, "-PT5S"},
		{"fractional seconds", DayTimeDuration{D: 1500 * time.Millisecond}, "PT1.5S"},
		{"zero year month", YearMonthDuration{}, "P0M"},
		{"eighteen months", YearMonthDuration{Months: 18}, "P1Y6M"},
		{"whole years", YearMonthDuration{Months: 24}, "P2Y"},
		{"negative months", YearMonthDuration{Months: -20}, "-P1Y8M"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, test.dur.StringValue())
		})
	}
}

func TestDatePlusDuration(t *testing.T) {
	d, err := ParseDate("2024-01-31")
	require.NoError(t, err)

	shifted := d.PlusDayTime(DayTimeDuration{D: 24 * time.Hour})
	assert.Equal(t, "2024-02-01", shifted.StringValue())

	// time-of-day fragments are truncated back to a date
	shifted = d.PlusDayTime(DayTimeDuration{D: 36 * time.Hour})
	assert.Equal(t, "2024-02-01", shifted.StringValue())

	shifted = d.PlusYearMonth(YearMonthDuration{Months: 1})
	// Go's AddDate normalizes Jan 31 + 1 month to Mar 2 in a leap year
	assert.Equal(t, "2024-03-02", shifted.StringValue())
}

func TestDateMinusDate(t *testing.T) {
	a, _ := ParseDate("2024-03-15")
	b, _ := ParseDate("2024-03-10")
	diff := a.MinusDate(b, time.UTC)
	assert.Equal(t, 5*24*time.Hour, diff.D)

	// operands without a timezone are reinterpreted in the implicit one;
	// same wall-clock dates stay five days apart regardless of zone
	tz := time.FixedZone("plus5", 5*3600)
	diff = a.MinusDate(b, tz)
	assert.Equal(t, 5*24*time.Hour, diff.D)

	// a zoned operand against an unzoned one shifts by the offset
	z, _ := ParseDate("2024-03-15Z")
	diff = z.MinusDate(b, tz)
	assert.Equal(t, 5*24*time.Hour+5*time.Hour, diff.D)
}

func TestDurationScaling(t *testing.T) {
	d := DayTimeDuration{D: time.Hour}
	scaled, err := d.Times(2.5)
	require.NoError(t, err)
	assert.Equal(t, 150*time.Minute, scaled.D)

	_, err = d.Times(math.NaN())
	require.Error(t, err)

	_, err = d.Times(math.Inf(1))
	require.Error(t, err)

	ym := YearMonthDuration{Months: 10}
	scaledYM, err := ym.Times(1.25)
	require.NoError(t, err)
	assert.Equal(t, int32(13), scaledYM.Months)
}

func TestDurationRatio(t *testing.T) {
	a := DayTimeDuration{D: 90 * time.Minute}
	b := DayTimeDuration{D: time.Hour}
	r, err := a.Ratio(b)
	require.NoError(t, err)
	assert.Equal(t, Double(1.5), r)

	_, err = a.Ratio(DayTimeDuration{})
	require.Error(t, err)

	_, err = YearMonthDuration{Months: 6}.Ratio(YearMonthDuration{})
	require.Error(t, err)
}

func TestDateCompare(t *testing.T) {
	early, _ := ParseDate("2024-01-01")
	late, _ := ParseDate("2024-06-01")
	assert.Equal(t, -1, early.Compare(late))
	assert.Equal(t, 1, late.Compare(early))
	assert.Equal(t, 0, early.Compare(early))
}
