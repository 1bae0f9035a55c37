package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldType_DecodesDataOptions(t *testing.T) {
	raw := `{"id":"walk-time","fieldId":"walk","type":"TIME_SELECT","dataOptions":{"step":15},"order":1}`

	var ft FieldType
	require.NoError(t, json.Unmarshal([]byte(raw), &ft))
	assert.Equal(t, KindTimeSelect, ft.Kind)

	opts, ok := ft.TimeSelect()
	require.True(t, ok)
	assert.Equal(t, 15, opts.StepMinutes())

	out, err := json.Marshal(ft)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}

func TestFieldType_MissingOptionsUseDefaults(t *testing.T) {
	var ft FieldType
	require.NoError(t, json.Unmarshal([]byte(`{"id":"t","fieldId":"f","type":"TIME_SELECT"}`), &ft))

	opts, ok := ft.TimeSelect()
	require.True(t, ok)
	assert.Equal(t, DefaultTimeSelectStep, opts.StepMinutes())
}

func TestFieldType_RejectsUnknownKind(t *testing.T) {
	var ft FieldType
	err := json.Unmarshal([]byte(`{"id":"t","fieldId":"f","type":"SLIDER"}`), &ft)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestFieldType_RejectsMalformedOptions(t *testing.T) {
	var ft FieldType
	err := json.Unmarshal([]byte(`{"id":"t","fieldId":"f","type":"SEVERITY","dataOptions":{"levels":"many"}}`), &ft)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestField_CheckType(t *testing.T) {
	t.Run("synthesized", func(t *testing.T) {
		f := Field{ID: "water", Types: []FieldType{{ID: "water-ml", Kind: KindNumber, Options: NumberOptions{}}}}

		check := f.CheckType()
		assert.Equal(t, "water-CHECK", check.ID)
		assert.Equal(t, KindCheck, check.Kind)

		_, ok := f.Type("water-CHECK")
		assert.True(t, ok)
	})

	t.Run("authored", func(t *testing.T) {
		f := Field{ID: "water", Types: []FieldType{{ID: "done", Kind: KindCheck, Options: CheckOptions{}}}}
		assert.Equal(t, "done", f.CheckType().ID)

		_, ok := f.Type("water-CHECK")
		assert.False(t, ok)
	})
}

func TestField_IsCheckValue(t *testing.T) {
	f := Field{ID: "water"}

	assert.True(t, f.IsCheckValue(FieldValue{FieldID: "water", FieldTypeID: "water-CHECK"}))
	assert.True(t, f.IsCheckValue(FieldValue{FieldID: "water", FieldTypeID: "legacy-CHECK-1"}))
	assert.False(t, f.IsCheckValue(FieldValue{FieldID: "water", FieldTypeID: "water-ml"}))
	assert.False(t, f.IsCheckValue(FieldValue{FieldID: "walk", FieldTypeID: "water-CHECK"}))
}

func TestNumericValue(t *testing.T) {
	assert.Equal(t, 5.0, NumericValue(5.0))
	assert.Equal(t, 3.0, NumericValue(3))
	assert.Equal(t, 2.5, NumericValue(" 2.5 "))
	assert.Equal(t, 0.0, NumericValue("lots"))
	assert.Equal(t, 0.0, NumericValue(true))
	assert.Equal(t, 0.0, NumericValue(nil))
}

func TestCheckUniqueValues(t *testing.T) {
	ok := []FieldValue{
		{FieldID: "water", FieldTypeID: "water-ml", Value: 250.0},
		{FieldID: "water", FieldTypeID: "water-CHECK", Value: true},
	}
	require.NoError(t, CheckUniqueValues(ok))

	tests := map[string][]FieldValue{
		"duplicate":   append(ok, FieldValue{FieldID: "water", FieldTypeID: "water-ml", Value: 1.0}),
		"missing ids": {{FieldID: "water", Value: 1.0}},
		"non scalar":  {{FieldID: "water", FieldTypeID: "water-ml", Value: []any{1.0}}},
	}
	for name, values := range tests {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, CheckUniqueValues(values), ErrValidation)
		})
	}
}

func TestDates(t *testing.T) {
	next, err := AddDays("2024-02-28", 2)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", next)

	_, err = ParseDate("2024-2-8")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = AddDays("yesterday", -1)
	assert.ErrorIs(t, err, ErrValidation)
}
