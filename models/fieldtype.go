package models

import (
	"encoding/json"
	"fmt"
)

// FieldKind is the input widget a field type renders as.
type FieldKind string

const (
	KindNumber           FieldKind = "NUMBER"
	KindNumberNavigation FieldKind = "NUMBER_NAVIGATION"
	KindTimeSelect       FieldKind = "TIME_SELECT"
	KindSeverity         FieldKind = "SEVERITY"
	KindRange            FieldKind = "RANGE"
	KindCustomScale      FieldKind = "CUSTOM_SCALE"
	KindCheck            FieldKind = "CHECK"
)

// DefaultTimeSelectStep is the rounding step, in minutes, used when a
// TIME_SELECT type does not configure one.
const DefaultTimeSelectStep = 30

// FieldType is one typed input of a field.
type FieldType struct {
	ID          string
	FieldID     string
	Kind        FieldKind
	Description string
	Options     FieldOptions
	Order       int
}

// FieldOptions is the per-kind configuration of a field type. The set of
// implementations is closed: one struct per FieldKind.
type FieldOptions interface {
	Kind() FieldKind
}

type NumberOptions struct {
	Min  *float64 `json:"min,omitempty"`
	Max  *float64 `json:"max,omitempty"`
	Step *float64 `json:"step,omitempty"`
	Unit string   `json:"unit,omitempty"`
}

type NumberNavigationOptions struct {
	Min  *float64 `json:"min,omitempty"`
	Max  *float64 `json:"max,omitempty"`
	Step *float64 `json:"step,omitempty"`
}

type TimeSelectOptions struct {
	Step int `json:"step,omitempty"` // minutes
}

// StepMinutes returns the configured step or DefaultTimeSelectStep.
func (o TimeSelectOptions) StepMinutes() int {
	if o.Step <= 0 {
		return DefaultTimeSelectStep
	}
	return o.Step
}

type SeverityOptions struct {
	Levels int `json:"levels,omitempty"`
}

type RangeOptions struct {
	Min  float64  `json:"min"`
	Max  float64  `json:"max"`
	Step *float64 `json:"step,omitempty"`
}

type CustomScaleOptions struct {
	Min      int    `json:"min"`
	Max      int    `json:"max"`
	MinLabel string `json:"minLabel,omitempty"`
	MaxLabel string `json:"maxLabel,omitempty"`
}

type CheckOptions struct{}

func (NumberOptions) Kind() FieldKind           { return KindNumber }
func (NumberNavigationOptions) Kind() FieldKind { return KindNumberNavigation }
func (TimeSelectOptions) Kind() FieldKind       { return KindTimeSelect }
func (SeverityOptions) Kind() FieldKind         { return KindSeverity }
func (RangeOptions) Kind() FieldKind            { return KindRange }
func (CustomScaleOptions) Kind() FieldKind      { return KindCustomScale }
func (CheckOptions) Kind() FieldKind            { return KindCheck }

// TimeSelect returns the TIME_SELECT configuration, if this is a TIME_SELECT type.
func (ft FieldType) TimeSelect() (TimeSelectOptions, bool) {
	if ft.Kind != KindTimeSelect {
		return TimeSelectOptions{}, false
	}
	opts, _ := ft.Options.(TimeSelectOptions)
	return opts, true
}

// fieldTypeJSON is the wire shape used by the SPA, where the options are a
// free-form "dataOptions" object.
type fieldTypeJSON struct {
	ID          string          `json:"id"`
	FieldID     string          `json:"fieldId"`
	Kind        FieldKind       `json:"type"`
	Description string          `json:"description,omitempty"`
	DataOptions json.RawMessage `json:"dataOptions,omitempty"`
	Order       int             `json:"order"`
}

func (ft FieldType) MarshalJSON() ([]byte, error) {
	wire := fieldTypeJSON{
		ID:          ft.ID,
		FieldID:     ft.FieldID,
		Kind:        ft.Kind,
		Description: ft.Description,
		Order:       ft.Order,
	}
	if ft.Options != nil {
		raw, err := json.Marshal(ft.Options)
		if err != nil {
			return nil, fmt.Errorf("failed to encode options for field type %s: %w", ft.ID, err)
		}
		wire.DataOptions = raw
	}
	return json.Marshal(wire)
}

func (ft *FieldType) UnmarshalJSON(data []byte) error {
	var wire fieldTypeJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	opts, err := decodeOptions(wire.Kind, wire.DataOptions)
	if err != nil {
		return fmt.Errorf("field type %s: %w", wire.ID, err)
	}
	*ft = FieldType{
		ID:          wire.ID,
		FieldID:     wire.FieldID,
		Kind:        wire.Kind,
		Description: wire.Description,
		Options:     opts,
		Order:       wire.Order,
	}
	return nil
}

// DefaultOptions returns the zero configuration for a kind, or false for an
// unknown kind.
func DefaultOptions(kind FieldKind) (FieldOptions, bool) {
	opts, err := decodeOptions(kind, nil)
	if err != nil {
		return nil, false
	}
	return opts, true
}

func decodeOptions(kind FieldKind, raw json.RawMessage) (FieldOptions, error) {
	switch kind {
	case KindNumber:
		return decodeInto[NumberOptions](raw)
	case KindNumberNavigation:
		return decodeInto[NumberNavigationOptions](raw)
	case KindTimeSelect:
		return decodeInto[TimeSelectOptions](raw)
	case KindSeverity:
		return decodeInto[SeverityOptions](raw)
	case KindRange:
		return decodeInto[RangeOptions](raw)
	case KindCustomScale:
		return decodeInto[CustomScaleOptions](raw)
	case KindCheck:
		return CheckOptions{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown field type kind %q", ErrValidation, kind)
	}
}

func decodeInto[T FieldOptions](raw json.RawMessage) (FieldOptions, error) {
	var opts T
	if len(raw) == 0 || string(raw) == "null" {
		return opts, nil
	}
	if err := json.Unmarshal(raw, &opts); err != nil {
		return nil, fmt.Errorf("%w: invalid dataOptions for %s: %v", ErrValidation, opts.Kind(), err)
	}
	return opts, nil
}
