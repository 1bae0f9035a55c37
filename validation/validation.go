// Package validation reconciles actions and recorded values with the
// structure version currently in force. Everything here is pure.
package validation

import (
	"daybook/models"
	"daybook/structure"
)

// FilterActions keeps the actions whose field exists in s and whose every
// option targets a field type of that field. Dropped actions are returned
// separately so callers can report them; nothing is deleted.
func FilterActions(actions []models.Action, s *models.StructureVersion) (valid, dropped []models.Action) {
	valid = make([]models.Action, 0, len(actions))
	for _, a := range actions {
		if ActionIsValid(a, s) {
			valid = append(valid, a)
		} else {
			dropped = append(dropped, a)
		}
	}
	return valid, dropped
}

// ActionIsValid reports whether a's references all resolve in s.
func ActionIsValid(a models.Action, s *models.StructureVersion) bool {
	field, _, ok := structure.FindField(s, a.FieldID)
	if !ok {
		return false
	}
	for _, opt := range a.Options {
		if _, ok := field.Type(opt.FieldTypeID); !ok {
			return false
		}
	}
	return true
}

// FilterEntryValues keeps the values whose field type exists in s.
func FilterEntryValues(values []models.FieldValue, s *models.StructureVersion) []models.FieldValue {
	known := structure.FieldTypeIDs(s)
	out := make([]models.FieldValue, 0, len(values))
	for _, v := range values {
		if _, ok := known[v.FieldTypeID]; ok {
			out = append(out, v)
		}
	}
	return out
}
