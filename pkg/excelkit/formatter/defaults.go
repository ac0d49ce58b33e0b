package formatter

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	Currency           = "currency"
	ISODate            = "isoDate"
	Boolean            = "boolean"
	String             = "string"
	Integer            = "integer"
	Percentage         = "percentage"
	VietnamesePhone    = "vietnamesePhone"
	VietnameseCurrency = "vietnameseCurrency"
)

// ISOLayout is how the string formatter renders times.
const ISOLayout = "2006-01-02T15:04:05.000Z"

var (
	notCurrencyChars = regexp.MustCompile(`[^0-9.\-]`)
	leadingNumber    = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
	notDigits        = regexp.MustCompile(`\D`)

	dateLayouts = []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}

	truthy = map[string]bool{"true": true, "yes": true, "1": true, "có": true}
	falsy  = map[string]bool{"false": true, "no": true, "0": true, "không": true}

	vnPrinter = message.NewPrinter(language.Vietnamese)
)

// Defaults returns the built-in formatters keyed by name.
func Defaults() map[string]Func {
	return map[string]Func{
		Currency:           FormatCurrency,
		ISODate:            FormatISODate,
		Boolean:            FormatBoolean,
		String:             FormatString,
		Integer:            FormatInteger,
		Percentage:         FormatPercentage,
		VietnamesePhone:    FormatVietnamesePhone,
		VietnameseCurrency: FormatVietnameseCurrency,
	}
}

// FormatCurrency turns "1,234.56 $" into 1234.56. Empty and unparsable input
// yields nil.
func FormatCurrency(value interface{}) interface{} {
	if isBlank(value) {
		return nil
	}
	if f, ok := toFloat(value); ok {
		if math.IsNaN(f) {
			return nil
		}
		return f
	}
	f, ok := parseLeadingFloat(notCurrencyChars.ReplaceAllString(fmt.Sprint(value), ""))
	if !ok {
		return nil
	}
	return f
}

// FormatISODate parses strings in the common ISO shapes and treats numbers as
// Unix milliseconds. Invalid input yields nil.
func FormatISODate(value interface{}) interface{} {
	if isBlank(value) {
		return nil
	}
	switch v := value.(type) {
	case time.Time:
		if v.IsZero() {
			return nil
		}
		return v
	case *time.Time:
		if v == nil || v.IsZero() {
			return nil
		}
		return *v
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t
			}
		}
		return nil
	}
	if f, ok := toFloat(value); ok {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return time.UnixMilli(int64(f)).UTC()
	}
	return nil
}

// FormatBoolean understands English and Vietnamese yes/no words.
func FormatBoolean(value interface{}) interface{} {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case bool:
		return v
	case *bool:
		if v == nil {
			return nil
		}
		return *v
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		if truthy[s] {
			return true
		}
		if falsy[s] {
			return false
		}
		return v != ""
	}
	if f, ok := toFloat(value); ok {
		return f != 0 && !math.IsNaN(f)
	}
	return true
}

// FormatString renders any value as text. Times use ISOLayout in UTC.
func FormatString(value interface{}) interface{} {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case time.Time:
		return v.UTC().Format(ISOLayout)
	case *time.Time:
		if v == nil {
			return ""
		}
		return v.UTC().Format(ISOLayout)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	}
	return fmt.Sprint(value)
}

// FormatInteger rounds half up and returns an int64.
func FormatInteger(value interface{}) interface{} {
	f, ok := numeric(value)
	if !ok {
		return nil
	}
	return int64(math.Floor(f + 0.5))
}

// FormatPercentage scales fractions (<= 1) to percent points. Values above 1
// are taken as already scaled.
func FormatPercentage(value interface{}) interface{} {
	f, ok := numeric(value)
	if !ok {
		return nil
	}
	if f > 1 {
		return f
	}
	return f * 100
}

// FormatVietnamesePhone groups a 10 digit local number as "0xxx xxx xxx" and
// an 84-prefixed number as "+84 xxx xxx xxx". Anything else is returned as is.
func FormatVietnamesePhone(value interface{}) interface{} {
	if isBlank(value) {
		return value
	}
	digits := notDigits.ReplaceAllString(fmt.Sprint(value), "")
	switch {
	case len(digits) == 10 && digits[0] == '0':
		return fmt.Sprintf("%s %s %s", digits[:4], digits[4:7], digits[7:])
	case len(digits) == 11 && strings.HasPrefix(digits, "84"):
		return fmt.Sprintf("+84 %s %s %s", digits[2:5], digits[5:8], digits[8:])
	}
	return value
}

// FormatVietnameseCurrency renders an amount in dong, e.g. "1.234.567 ₫".
func FormatVietnameseCurrency(value interface{}) interface{} {
	amount := FormatCurrency(value)
	f, ok := amount.(float64)
	if !ok {
		return value
	}
	return vnPrinter.Sprintf("%d ₫", int64(math.Floor(f+0.5)))
}

func isBlank(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case *string:
		return v == nil || strings.TrimSpace(*v) == ""
	}
	return false
}

// numeric accepts numbers and numeric strings. NaN and blanks are rejected.
func numeric(value interface{}) (float64, bool) {
	if isBlank(value) {
		return 0, false
	}
	f, ok := toFloat(value)
	if !ok {
		s, isString := value.(string)
		if !isString {
			s = fmt.Sprint(value)
		}
		f, ok = parseLeadingFloat(strings.TrimSpace(s))
	}
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	}
	return 0, false
}

// parseLeadingFloat reads the longest numeric prefix of s, so "12.5kg" is 12.5.
func parseLeadingFloat(s string) (float64, bool) {
	m := leadingNumber.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
