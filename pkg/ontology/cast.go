package ontology

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Cast coerces a raw document value into the typed representation for the
// kind. Absence markers (nil and the empty string) always map to nil with no
// error. Values that cannot be coerced yield a *CastError. Cast is pure: it
// never mutates its argument and has no side effects.
func (k Kind) Cast(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	if s, ok := raw.(string); ok && s == "" {
		return nil, nil
	}
	switch k {
	case KindInteger:
		return castInteger(k, raw)
	case KindDecimal, KindCurrency:
		return castFloat(k, raw)
	case KindText, KindPhone, KindEmail, KindURL:
		return stringify(raw), nil
	case KindUnary:
		return castUnary(k, raw)
	case KindBinary:
		return castBinary(k, raw)
	case KindDate:
		return castDate(k, raw)
	default:
		return nil, &CastError{Kind: k, Value: raw, Reason: "kind does not hold a castable value"}
	}
}

func stringify(raw any) string {
	if s, ok := raw.(string); ok {
		return s
	}
	if f, ok := raw.(float64); ok && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return fmt.Sprint(raw)
}

func castInteger(k Kind, raw any) (any, error) {
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, &CastError{Kind: k, Value: raw, Reason: "not an integer"}
		}
		return n, nil
	}
	return nil, &CastError{Kind: k, Value: raw, Reason: "not an integer"}
}

func castFloat(k Kind, raw any) (any, error) {
	switch v := raw.(type) {
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case float64:
		return v, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, &CastError{Kind: k, Value: raw, Reason: "not a number"}
		}
		return f, nil
	}
	return nil, &CastError{Kind: k, Value: raw, Reason: "not a number"}
}

func castUnary(k Kind, raw any) (any, error) {
	if b, ok := raw.(bool); ok && b {
		return true, nil
	}
	if s, ok := raw.(string); ok && strings.EqualFold(s, "x") {
		return true, nil
	}
	return nil, &CastError{Kind: k, Value: raw, Reason: `expected the marker "x"`}
}

func castBinary(k Kind, raw any) (any, error) {
	if b, ok := raw.(bool); ok {
		return b, nil
	}
	if s, ok := raw.(string); ok {
		switch strings.ToLower(s) {
		case "1", "true":
			return true, nil
		case "0", "false":
			return false, nil
		}
	}
	return nil, &CastError{Kind: k, Value: raw, Reason: "not a recognized boolean"}
}

const dateAbsent = "000000"

func castDate(k Kind, raw any) (any, error) {
	s, ok := raw.(string)
	if !ok {
		if f, isNum := raw.(float64); isNum && f == float64(int64(f)) {
			s = strconv.FormatInt(int64(f), 10)
		} else {
			return nil, &CastError{Kind: k, Value: raw, Reason: "not a date"}
		}
	}
	if s == dateAbsent {
		return nil, nil
	}
	if len(s) == 6 && isDigits(s) {
		return s[:4] + "-" + s[4:] + "-01", nil
	}
	if len(s) >= 10 {
		retained := s[:10]
		if _, err := time.Parse("2006-01-02", retained); err != nil {
			return nil, &CastError{Kind: k, Value: raw, Reason: "not a YYYY-MM-DD date"}
		}
		return retained, nil
	}
	return nil, &CastError{Kind: k, Value: raw, Reason: "not a date"}
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
