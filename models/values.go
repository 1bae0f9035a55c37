package models

import (
	"fmt"
	"strconv"
	"strings"
)

// NumericValue coerces a stored scalar to a number. Absent or non-numeric
// values count as 0 so repeated increments always have a base.
func NumericValue(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// IsScalar reports whether v can be stored as a FieldValue value.
func IsScalar(v any) bool {
	switch v.(type) {
	case nil, string, bool, float64:
		return true
	default:
		return false
	}
}

// FindValue returns the index of the value recorded for (fieldID, fieldTypeID), or -1.
func FindValue(values []FieldValue, fieldID, fieldTypeID string) int {
	for i, v := range values {
		if v.FieldID == fieldID && v.FieldTypeID == fieldTypeID {
			return i
		}
	}
	return -1
}

// CheckUniqueValues enforces at most one value per (fieldId, fieldTypeId).
func CheckUniqueValues(values []FieldValue) error {
	seen := make(map[[2]string]struct{}, len(values))
	for _, v := range values {
		if v.FieldID == "" || v.FieldTypeID == "" {
			return fmt.Errorf("%w: value is missing fieldId or fieldTypeId", ErrValidation)
		}
		if !IsScalar(v.Value) {
			return fmt.Errorf("%w: value for %s/%s must be a string, number, boolean or null", ErrValidation, v.FieldID, v.FieldTypeID)
		}
		key := [2]string{v.FieldID, v.FieldTypeID}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: duplicate value for field %s type %s", ErrValidation, v.FieldID, v.FieldTypeID)
		}
		seen[key] = struct{}{}
	}
	return nil
}
