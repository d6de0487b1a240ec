package calendar

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// nestedKeys are the fields the store uses when it wraps a cell value in an
// object, in lookup order.
var nestedKeys = []string{"value", "displayValue", "text", "label"}

// maxEpochMillis bounds numeric inputs to the range a JavaScript Date accepts.
const maxEpochMillis = 8.64e15

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	yearLed       = regexp.MustCompile(`^(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})(?:\D|$)`)
	slashDate     = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4}|\d{2})(?:\D|$)`)
	embeddedISO   = regexp.MustCompile(`(?:^|\D)(\d{4})-(\d{1,2})-(\d{1,2})(?:\D|$)`)
	embeddedSlash = regexp.MustCompile(`(?:^|\D)(\d{1,2})/(\d{1,2})/(\d{4}|\d{2})(?:\D|$)`)
	clockTime     = regexp.MustCompile(`(\d{1,2}):(\d{2})(?::\d{2})?`)
)

// Parse resolves a raw store value into a Date. It never panics; ok is false
// when nothing usable is found.
//
// Slash-separated dates are read MONTH FIRST (03/15/24 is March 15th). The
// store serializes dates that way regardless of the app locale, so this is a
// store-specific rule rather than a general one and must stay month-first.
func Parse(raw any) (Date, bool) {
	switch v := raw.(type) {
	case nil:
		return Date{}, false
	case Date:
		return v, !v.IsZero()
	case time.Time:
		if v.IsZero() {
			return Date{}, false
		}
		return FromTime(v), true
	case map[string]any:
		if inner, ok := unwrap(v); ok {
			return Parse(inner)
		}
		return Date{}, false
	case map[string]string:
		for _, key := range nestedKeys {
			if inner, ok := v[key]; ok {
				return Parse(inner)
			}
		}
		return Date{}, false
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return parseString(v.String())
		}
		return fromEpochMillis(f)
	case float64:
		return fromEpochMillis(v)
	case float32:
		return fromEpochMillis(float64(v))
	case int:
		return fromEpochMillis(float64(v))
	case int64:
		return fromEpochMillis(float64(v))
	case string:
		return parseString(v)
	case []byte:
		return parseString(string(v))
	default:
		return Date{}, false
	}
}

func unwrap(m map[string]any) (any, bool) {
	for _, key := range nestedKeys {
		if inner, ok := m[key]; ok {
			return inner, true
		}
	}
	return nil, false
}

func fromEpochMillis(ms float64) (Date, bool) {
	if math.IsNaN(ms) || math.IsInf(ms, 0) || math.Abs(ms) > maxEpochMillis {
		return Date{}, false
	}
	return FromTime(time.UnixMilli(int64(ms)).UTC()), true
}

// normalizeText replaces NBSP, tabs and line breaks with spaces, collapses
// runs and trims.
func normalizeText(s string) string {
	s = strings.NewReplacer("\u00a0", " ", "\t", " ", "\r", " ", "\n", " ").Replace(s)
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

func parseString(raw string) (Date, bool) {
	s := normalizeText(raw)
	if s == "" {
		return Date{}, false
	}

	if m := yearLed.FindStringSubmatch(s); m != nil {
		if d, ok := build(m[1], m[2], m[3]); ok {
			return d, true
		}
	}

	if m := slashDate.FindStringSubmatch(s); m != nil {
		if d, ok := build(m[3], m[1], m[2]); ok {
			return d, true
		}
	}

	return parseEmbedded(s)
}

// parseEmbedded finds the earliest ISO or slash date inside free text.
func parseEmbedded(s string) (Date, bool) {
	iso := embeddedISO.FindStringSubmatchIndex(s)
	slash := embeddedSlash.FindStringSubmatchIndex(s)

	useISO := iso != nil && (slash == nil || iso[2] <= slash[2])
	switch {
	case useISO:
		return build(s[iso[2]:iso[3]], s[iso[4]:iso[5]], s[iso[6]:iso[7]])
	case slash != nil:
		return build(s[slash[6]:slash[7]], s[slash[2]:slash[3]], s[slash[4]:slash[5]])
	default:
		return Date{}, false
	}
}

// build validates month and day ranges, expands two-digit years and returns
// the UTC midnight Date.
func build(yearStr, monthStr, dayStr string) (Date, bool) {
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return Date{}, false
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil {
		return Date{}, false
	}
	day, err := strconv.Atoi(dayStr)
	if err != nil {
		return Date{}, false
	}
	if len(yearStr) == 2 {
		year += 2000
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return Date{}, false
	}
	return NewDate(year, time.Month(month), day), true
}

// ToHHMM extracts the first H:MM or HH:MM (optionally :SS) token and returns
// it zero-padded as HH:MM. When no clock time is present the trimmed input is
// returned unchanged.
func ToHHMM(raw any) string {
	var s string
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		s = v
	case time.Time:
		return v.Format("15:04")
	case map[string]any:
		inner, ok := unwrap(v)
		if !ok {
			return ""
		}
		return ToHHMM(inner)
	case map[string]string:
		for _, key := range nestedKeys {
			if inner, ok := v[key]; ok {
				return ToHHMM(inner)
			}
		}
		return ""
	default:
		s = fmt.Sprint(v)
	}

	m := clockTime.FindStringSubmatch(s)
	if m == nil {
		return strings.TrimSpace(s)
	}
	hour := m[1]
	if len(hour) == 1 {
		hour = "0" + hour
	}
	return hour + ":" + m[2]
}

// SplitTimes expands a comma-separated or list-valued time cell into
// normalized HH:MM tokens. Blank entries are dropped.
func SplitTimes(raw any) []string {
	switch v := raw.(type) {
	case nil:
		return nil
	case map[string]any:
		inner, ok := unwrap(v)
		if !ok {
			return nil
		}
		return SplitTimes(inner)
	case []any:
		var out []string
		for _, item := range v {
			out = append(out, SplitTimes(item)...)
		}
		return out
	case []string:
		var out []string
		for _, item := range v {
			out = append(out, SplitTimes(item)...)
		}
		return out
	case string:
		var out []string
		for _, part := range strings.Split(v, ",") {
			if hhmm := ToHHMM(part); hhmm != "" {
				out = append(out, hhmm)
			}
		}
		return out
	default:
		if hhmm := ToHHMM(v); hhmm != "" {
			return []string{hhmm}
		}
		return nil
	}
}
