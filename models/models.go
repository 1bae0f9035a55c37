// models.go
// Defines the core data structures shared by the stores, the action engine and the HTTP handlers.

package models

import (
	"strings"
	"time"
)

// StructureVersion is one timestamped version of a user's journal structure.
// Entries keep the StructureID they were created against, so a version is never
// rewritten once a destructive edit has forked it.
type StructureVersion struct {
	StructureID   string    `json:"structureId"`
	UserID        string    `json:"userId"`
	IsActive      bool      `json:"isActive"`
	EffectiveFrom string    `json:"effectiveFrom"` // YYYY-MM-DD
	Groups        []Group   `json:"groups"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Group is an ordered collection of fields.
type Group struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Fields    []Field `json:"fields"`
	Order     int     `json:"order"`
	Collapsed bool    `json:"collapsed,omitempty"` // collapsed by default in the UI
}

// Field is a tracked item inside a group.
type Field struct {
	ID      string      `json:"id"`
	GroupID string      `json:"groupId"`
	Name    string      `json:"name"`
	Types   []FieldType `json:"types"`
	Order   int         `json:"order"`
}

// CheckTypeSuffix is appended to a field id to form its synthesized CHECK type id.
const CheckTypeSuffix = "-CHECK"

// CheckType returns the field's completion marker. Every field supports CHECK:
// an authored CHECK type wins, otherwise one is synthesized.
func (f Field) CheckType() FieldType {
	for _, ft := range f.Types {
		if ft.Kind == KindCheck {
			return ft
		}
	}
	return FieldType{
		ID:      f.ID + CheckTypeSuffix,
		FieldID: f.ID,
		Kind:    KindCheck,
		Options: CheckOptions{},
		Order:   len(f.Types),
	}
}

// Type looks up a field type by id, including the synthesized CHECK type.
func (f Field) Type(fieldTypeID string) (FieldType, bool) {
	for _, ft := range f.Types {
		if ft.ID == fieldTypeID {
			return ft, true
		}
	}
	if check := f.CheckType(); check.ID == fieldTypeID {
		return check, true
	}
	return FieldType{}, false
}

// TypeOfKind returns the first field type of the given kind.
func (f Field) TypeOfKind(kind FieldKind) (FieldType, bool) {
	if kind == KindCheck {
		return f.CheckType(), true
	}
	for _, ft := range f.Types {
		if ft.Kind == kind {
			return ft, true
		}
	}
	return FieldType{}, false
}

// IsCheckValue reports whether a stored value is this field's completion marker.
// Older entries carry CHECK ids that only share the "CHECK" substring.
func (f Field) IsCheckValue(v FieldValue) bool {
	if v.FieldID != f.ID {
		return false
	}
	return v.FieldTypeID == f.CheckType().ID || strings.Contains(v.FieldTypeID, string(KindCheck))
}

// JournalEntry holds one day of recorded values for a user.
type JournalEntry struct {
	ID          string       `json:"id"`
	UserID      string       `json:"userId"`
	Date        string       `json:"date"` // YYYY-MM-DD
	StructureID string       `json:"structureId"`
	Values      []FieldValue `json:"values"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// FieldValue is a single recorded scalar.
// Value is a string, bool, float64 or nil.
type FieldValue struct {
	GroupID     string    `json:"groupId"`
	FieldID     string    `json:"fieldId"`
	FieldTypeID string    `json:"fieldTypeId"`
	Value       any       `json:"value"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Action is a user-defined shortcut that mutates today's entry.
type Action struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	Description       string         `json:"description,omitempty"`
	FieldID           string         `json:"fieldId"`
	Options           []ActionOption `json:"options,omitempty"`
	CreatedAt         time.Time      `json:"createdAt"`
	Order             int            `json:"order"`
	IsDailyAction     bool           `json:"isDailyAction"`
	LastTriggeredDate string         `json:"lastTriggeredDate,omitempty"`
}

// ActionOption targets one field type of the action's field.
type ActionOption struct {
	FieldTypeID string   `json:"fieldTypeId"`
	Increment   *float64 `json:"increment,omitempty"`
	IsCustom    bool     `json:"isCustom,omitempty"`
}
