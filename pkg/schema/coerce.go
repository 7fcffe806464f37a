package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire and state format for date fields.
const DateLayout = "2006-01-02"

// Coerce converts raw into the canonical state type for field: string for
// strings and dates, int64 for integers, float64 for numbers and bool for
// booleans. Empty strings become nil for numeric fields. Values that cannot
// be converted return an error and are left to validation to report.
func Coerce(field Field, raw any) (any, error) {
	switch field.Type {
	case TypeString:
		switch v := raw.(type) {
		case nil:
			return "", nil
		case string:
			return v, nil
		case fmt.Stringer:
			return v.String(), nil
		}
		return fmt.Sprint(raw), nil
	case TypeDate:
		switch v := raw.(type) {
		case nil:
			return "", nil
		case time.Time:
			return v.Format(DateLayout), nil
		case string:
			return strings.TrimSpace(v), nil
		}
		return nil, fmt.Errorf("schema: %s: cannot use %T as date", field.Name, raw)
	case TypeInteger:
		return coerceInteger(field, raw)
	case TypeNumber:
		return coerceNumber(field, raw)
	case TypeBoolean:
		switch v := raw.(type) {
		case nil:
			return false, nil
		case bool:
			return v, nil
		case string:
			trimmed := strings.TrimSpace(v)
			if trimmed == "" {
				return false, nil
			}
			parsed, err := strconv.ParseBool(trimmed)
			if err != nil {
				return nil, fmt.Errorf("schema: %s: %w", field.Name, err)
			}
			return parsed, nil
		}
		return nil, fmt.Errorf("schema: %s: cannot use %T as boolean", field.Name, raw)
	}
	return raw, nil
}

func coerceInteger(field Field, raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return int64(v), nil
	case float64:
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("schema: %s: %v is not a whole number", field.Name, v)
		}
		return int64(v), nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil, nil
		}
		parsed, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("schema: %s: %w", field.Name, err)
		}
		return parsed, nil
	}
	return nil, fmt.Errorf("schema: %s: cannot use %T as integer", field.Name, raw)
}

func coerceNumber(field Field, raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil, nil
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil, fmt.Errorf("schema: %s: %w", field.Name, err)
		}
		return parsed, nil
	}
	return nil, fmt.Errorf("schema: %s: cannot use %T as number", field.Name, raw)
}

// IsEmpty reports whether value counts as missing for field. Booleans are
// never empty; required booleans are checked for true instead.
func IsEmpty(field Field, value any) bool {
	if value == nil {
		return true
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v) == ""
	case bool:
		return false
	}
	return false
}
