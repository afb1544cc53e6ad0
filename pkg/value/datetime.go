package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/sandrolain/goxp/pkg/types"
)

// Date is an xs:date value: a calendar date with an optional explicit
// timezone. Dates without a timezone take the implicit timezone of the
// evaluation context when compared or subtracted.
type Date struct {
	T     time.Time
	HasTZ bool
}

// NewDate builds a date in the given location.
func NewDate(year int, month time.Month, day int, loc *time.Location, hasTZ bool) Date {
	if loc == nil {
		loc = time.UTC
	}
	return Date{T: time.Date(year, month, day, 0, 0, 0, 0, loc), HasTZ: hasTZ}
}

func (d Date) ItemType() types.ItemType       { return types.DateType }
func (d Date) PrimitiveKind() types.Primitive { return types.PrimDate }

func (d Date) StringValue() string {
	s := d.T.Format("2006-01-02")
	if d.HasTZ {
		if _, off := d.T.Zone(); off == 0 {
			return s + "Z"
		}
		return s + d.T.Format("-07:00")
	}
	return s
}

// Compare orders two dates by instant.
func (d Date) Compare(other Date) int {
	a, b := d.T, other.T
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

// PlusYearMonth shifts the date by a number of months.
func (d Date) PlusYearMonth(dur YearMonthDuration) Date {
	return Date{T: d.T.AddDate(0, int(dur.Months), 0), HasTZ: d.HasTZ}
}

// PlusDayTime shifts the date by a day/time duration. The result is
// truncated back to a date.
func (d Date) PlusDayTime(dur DayTimeDuration) Date {
	t := d.T.Add(dur.D)
	return Date{T: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()), HasTZ: d.HasTZ}
}

// MinusDate returns the difference between two dates as a day/time
// duration. implicitTZ supplies the timezone for operands that lack one.
func (d Date) MinusDate(other Date, implicitTZ *time.Location) DayTimeDuration {
	return DayTimeDuration{D: d.normalize(implicitTZ).Sub(other.normalize(implicitTZ))}
}

// InZone pins a date lacking a timezone to the given location, so its
// instant is well defined for comparison. Zoned dates pass through.
func (d Date) InZone(loc *time.Location) Date {
	if d.HasTZ || loc == nil {
		return d
	}
	return Date{T: d.normalize(loc), HasTZ: true}
}

func (d Date) normalize(implicitTZ *time.Location) time.Time {
	if d.HasTZ || implicitTZ == nil {
		return d.T
	}
	// reinterpret the wall-clock date in the implicit timezone
	return time.Date(d.T.Year(), d.T.Month(), d.T.Day(), 0, 0, 0, 0, implicitTZ)
}

// ParseDate parses an xs:date lexical form: YYYY-MM-DD with an optional
// Z or ±hh:mm timezone suffix.
func ParseDate(s string) (Date, error) {
	for _, layout := range []string{"2006-01-02Z07:00", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			hasTZ := len(s) > len("2006-01-02")
			return Date{T: t, HasTZ: hasTZ}, nil
		}
	}
	return Date{}, types.NewError(types.ErrInvalidCast, "invalid date "+strconv.Quote(s), -1)
}

// DayTimeDuration is an xs:dayTimeDuration value.
type DayTimeDuration struct{ D time.Duration }

func (d DayTimeDuration) ItemType() types.ItemType       { return types.DayTimeDurationType }
func (d DayTimeDuration) PrimitiveKind() types.Primitive { return types.PrimDayTimeDuration }

func (d DayTimeDuration) StringValue() string {
	dur := d.D
	var sb strings.Builder
	if dur < 0 {
		sb.WriteByte('-')
		dur = -dur
	}
	sb.WriteByte('P')
	days := dur / (24 * time.Hour)
	dur -= days * 24 * time.Hour
	if days > 0 {
		fmt.Fprintf(&sb, "%dD", days)
	}
	if dur > 0 || days == 0 {
		sb.WriteByte('T')
		h := dur / time.Hour
		dur -= h * time.Hour
		m := dur / time.Minute
		dur -= m * time.Minute
		secs := float64(dur) / float64(time.Second)
		if h > 0 {
			fmt.Fprintf(&sb, "%dH", h)
		}
		if m > 0 {
			fmt.Fprintf(&sb, "%dM", m)
		}
		if secs > 0 || (h == 0 && m == 0) {
			fmt.Fprintf(&sb, "%sS", strconv.FormatFloat(secs, 'f', -1, 64))
		}
	}
	return sb.String()
}

// Plus adds two day/time durations; minus is addition of the negation.
func (d DayTimeDuration) Plus(other DayTimeDuration) DayTimeDuration {
	return DayTimeDuration{D: d.D + other.D}
}

// Negate flips the sign of the duration.
func (d DayTimeDuration) Negate() DayTimeDuration { return DayTimeDuration{D: -d.D} }

// Times scales the duration by a double factor.
func (d DayTimeDuration) Times(factor float64) (DayTimeDuration, error) {
	if math.IsNaN(factor) {
		return DayTimeDuration{}, types.NewError(types.ErrInvalidArgument, "cannot multiply a duration by NaN", -1)
	}
	r := float64(d.D) * factor
	if math.IsInf(r, 0) || r > math.MaxInt64 || r < math.MinInt64 {
		return DayTimeDuration{}, types.NewError(types.ErrDurationOverflow, "duration overflow", -1)
	}
	return DayTimeDuration{D: time.Duration(math.Round(r))}, nil
}

// Ratio divides one day/time duration by another, yielding a double.
func (d DayTimeDuration) Ratio(other DayTimeDuration) (Double, error) {
	if other.D == 0 {
		return 0, divZeroErr()
	}
	return Double(float64(d.D) / float64(other.D)), nil
}

// YearMonthDuration is an xs:yearMonthDuration value.
type YearMonthDuration struct{ Months int32 }

func (d YearMonthDuration) ItemType() types.ItemType       { return types.YearMonthDurationType }
func (d YearMonthDuration) PrimitiveKind() types.Primitive { return types.PrimYearMonthDuration }

func (d YearMonthDuration) StringValue() string {
	m := d.Months
	var sb strings.Builder
	if m < 0 {
		sb.WriteByte('-')
		m = -m
	}
	sb.WriteByte('P')
	if m/12 > 0 {
		fmt.Fprintf(&sb, "%dY", m/12)
	}
	if m%12 > 0 || m == 0 {
		fmt.Fprintf(&sb, "%dM", m%12)
	}
	return sb.String()
}

// Plus adds two year/month durations.
func (d YearMonthDuration) Plus(other YearMonthDuration) YearMonthDuration {
	return YearMonthDuration{Months: d.Months + other.Months}
}

// Negate flips the sign of the duration.
func (d YearMonthDuration) Negate() YearMonthDuration {
	return YearMonthDuration{Months: -d.Months}
}

// Times scales the duration by a double factor, rounding to the nearest
// month.
func (d YearMonthDuration) Times(factor float64) (YearMonthDuration, error) {
	if math.IsNaN(factor) {
		return YearMonthDuration{}, types.NewError(types.ErrInvalidArgument, "cannot multiply a duration by NaN", -1)
	}
	r := math.Round(float64(d.Months) * factor)
	if r > math.MaxInt32 || r < math.MinInt32 {
		return YearMonthDuration{}, types.NewError(types.ErrDurationOverflow, "duration overflow", -1)
	}
	return YearMonthDuration{Months: int32(r)}, nil
}

// Ratio divides one year/month duration by another, yielding a double.
func (d YearMonthDuration) Ratio(other YearMonthDuration) (Double, error) {
	if other.Months == 0 {
		return 0, divZeroErr()
	}
	return Double(float64(d.Months) / float64(other.Months)), nil
}

// ParseDayTimeDuration parses lexical forms like P2DT3H30M10.5S or -PT5S.
func ParseDayTimeDuration(s string) (DayTimeDuration, error) {
	p := durationScanner{input: s, src: s}
	p.sign()
	if !p.accept('P') {
		return DayTimeDuration{}, p.failDayTime()
	}
	var total time.Duration
	seenAny := false
	if n, ok := p.number(); ok {
		if !p.accept('D') {
			return DayTimeDuration{}, p.failDayTime()
		}
		total += time.Duration(n * 24 * float64(time.Hour))
		seenAny = true
	}
	if p.accept('T') {
		seen := false
		order := 0 // components must appear in H, M, S order
		for {
			n, ok := p.number()
			if !ok {
				break
			}
			switch {
			case order < 1 && p.accept('H'):
				total += time.Duration(n * float64(time.Hour))
				order = 1
			case order < 2 && p.accept('M'):
				total += time.Duration(n * float64(time.Minute))
				order = 2
			case order < 3 && p.accept('S'):
				total += time.Duration(n * float64(time.Second))
				order = 3
			default:
				return DayTimeDuration{}, p.failDayTime()
			}
			seen = true
		}
		if !seen {
			return DayTimeDuration{}, p.failDayTime()
		}
		seenAny = true
	}
	if !seenAny || !p.done() {
		return DayTimeDuration{}, p.failDayTime()
	}
	if p.negative {
		total = -total
	}
	return DayTimeDuration{D: total}, nil
}

// ParseYearMonthDuration parses lexical forms like P1Y6M, P20M or -P2Y.
func ParseYearMonthDuration(s string) (YearMonthDuration, error) {
	p := durationScanner{input: s, src: s}
	p.sign()
	if !p.accept('P') {
		return YearMonthDuration{}, p.failYearMonth()
	}
	var months int64
	seen := false
	if n, ok := p.integer(); ok {
		switch {
		case p.accept('Y'):
			months = n * 12
			if n, ok := p.integer(); ok {
				if !p.accept('M') {
					return YearMonthDuration{}, p.failYearMonth()
				}
				months += n
			}
		case p.accept('M'):
			months = n
		default:
			return YearMonthDuration{}, p.failYearMonth()
		}
		seen = true
	}
	if !seen || !p.done() {
		return YearMonthDuration{}, p.failYearMonth()
	}
	if p.negative {
		months = -months
	}
	if months > math.MaxInt32 || months < math.MinInt32 {
		return YearMonthDuration{}, types.NewError(types.ErrDurationOverflow, "duration overflow", -1)
	}
	return YearMonthDuration{Months: int32(months)}, nil
}

// durationScanner is a tiny cursor over an ISO-8601 duration lexical form.
type durationScanner struct {
	input    string
	src      string
	negative bool
}

func (p *durationScanner) sign() {
	if strings.HasPrefix(p.input, "-") {
		p.negative = true
		p.input = p.input[1:]
	}
}

func (p *durationScanner) accept(c byte) bool {
	if len(p.input) > 0 && p.input[0] == c {
		p.input = p.input[1:]
		return true
	}
	return false
}

func (p *durationScanner) number() (float64, bool) {
	i := 0
	for i < len(p.input) && (p.input[i] >= '0' && p.input[i] <= '9' || p.input[i] == '.') {
		i++
	}
	if i == 0 {
		return 0, false
	}
	n, err := strconv.ParseFloat(p.input[:i], 64)
	if err != nil {
		return 0, false
	}
	p.input = p.input[i:]
	return n, true
}

func (p *durationScanner) integer() (int64, bool) {
	i := 0
	for i < len(p.input) && p.input[i] >= '0' && p.input[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, false
	}
	n, err := strconv.ParseInt(p.input[:i], 10, 64)
	if err != nil {
		return 0, false
	}
	p.input = p.input[i:]
	return n, true
}

func (p *durationScanner) done() bool { return len(p.input) == 0 }

func (p *durationScanner) failDayTime() error {
	return types.NewError(types.ErrInvalidCast, "invalid dayTimeDuration "+strconv.Quote(p.src), -1)
}

func (p *durationScanner) failYearMonth() error {
	return types.NewError(types.ErrInvalidCast, "invalid yearMonthDuration "+strconv.Quote(p.src), -1)
}
