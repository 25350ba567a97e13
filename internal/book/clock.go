package book

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidClock is returned by ParseClock for malformed clock values.
var ErrInvalidClock = errors.New("invalid clock value")

// ClockValue is a SMIL clock value. It is either a duration, formatted as
// hh:mm:ss or hh:mm:ss.fff, or a literal string emitted verbatim.
// The zero value is unset.
type ClockValue struct {
	d       time.Duration
	literal string
	set     bool
}

// Clock returns a clock value for d.
func Clock(d time.Duration) ClockValue {
	return ClockValue{d: d, set: true}
}

// ClockLiteral returns a clock value that renders as s, unformatted. An
// empty s gives the unset value.
func ClockLiteral(s string) ClockValue {
	if s == "" {
		return ClockValue{}
	}
	return ClockValue{literal: s, set: true}
}

// IsZero reports whether the value is unset.
func (c ClockValue) IsZero() bool { return !c.set }

// IsLiteral reports whether the value was given as a literal string.
func (c ClockValue) IsLiteral() bool { return c.set && c.literal != "" }

// String renders the value. Literals are returned unchanged.
func (c ClockValue) String() string {
	if c.literal != "" {
		return c.literal
	}
	return FormatClock(c.d)
}

// Duration returns the value as a duration. Literals are parsed with
// ParseClock; ok is false for unset or unparsable values.
func (c ClockValue) Duration() (time.Duration, bool) {
	if !c.set {
		return 0, false
	}
	if c.literal == "" {
		return c.d, true
	}
	d, err := ParseClock(c.literal)
	if err != nil {
		return 0, false
	}
	return d, true
}

// FormatClock renders d as hh:mm:ss, or hh:mm:ss.fff when d has a
// sub-second part. Sub-millisecond precision is rounded away.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Millisecond)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	ms := d / time.Millisecond
	if ms == 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

// ParseClock parses a SMIL 3.0 clock value: full ("01:02:03.5"), partial
// ("02:03.5") or a timecount ("5s", "1.5min", "250ms", "2h", "12.3").
func ParseClock(s string) (time.Duration, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidClock)
	}

	if strings.Contains(v, ":") {
		parts := strings.Split(v, ":")
		if len(parts) > 3 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
		}
		var total time.Duration
		for i, p := range parts {
			last := i == len(parts)-1
			if last {
				if !isDecimal(p) {
					return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
				}
				sec, err := strconv.ParseFloat(p, 64)
				if err != nil || sec >= 60 || len(strings.Split(p, ".")[0]) != 2 {
					return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
				}
				total += time.Duration(sec * float64(time.Second))
				continue
			}
			if !isDigits(p) {
				return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
			}
			n, err := strconv.Atoi(p)
			if err != nil {
				return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
			}
			// minutes are always the part just before seconds
			if i == len(parts)-2 {
				if n >= 60 || len(p) != 2 {
					return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
				}
				total += time.Duration(n) * time.Minute
			} else {
				total += time.Duration(n) * time.Hour
			}
		}
		return total.Round(time.Millisecond), nil
	}

	unit := time.Second
	num := v
	for _, suffix := range []struct {
		text string
		unit time.Duration
	}{
		{"ms", time.Millisecond},
		{"min", time.Minute},
		{"h", time.Hour},
		{"s", time.Second},
	} {
		if strings.HasSuffix(v, suffix.text) {
			num = strings.TrimSuffix(v, suffix.text)
			unit = suffix.unit
			break
		}
	}
	if !isDecimal(num) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return time.Duration(f * float64(unit)).Round(time.Millisecond), nil
}

// isDecimal reports whether s is digits with an optional fraction, the only
// number form SMIL clock values allow.
func isDecimal(s string) bool {
	whole, frac, found := strings.Cut(s, ".")
	return isDigits(whole) && (!found || isDigits(frac))
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
