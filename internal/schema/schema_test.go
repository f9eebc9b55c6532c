package schema

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CiscoSecurity/tr-05-ctim-bundle-builder/internal/ir"
)

func periodSchema() *Schema {
	return &Schema{
		Name: "Period",
		Fields: []Field{
			{Name: "start_time", Type: DateTime{}, Required: true},
			{Name: "end_time", Type: DateTime{}},
		},
		Checks: []Check{func(r *ir.Record) error {
			if r.Has("end_time") && r.String("start_time") > r.String("end_time") {
				return Invalid("Not a valid period of time: start must come before end.")
			}
			return nil
		}},
	}
}

func TestLoadKeepsDeclarationOrder(t *testing.T) {
	s := &Schema{
		Name: "Thing",
		Fields: []Field{
			{Name: "a", Type: String{}},
			{Name: "b", Type: Integer{}},
			{Name: "c", Type: Boolean{}},
		},
	}

	rec, err := s.Load(map[string]any{"c": "yes", "a": "x", "b": 2.0})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, rec.Keys())
	assert.Equal(t, map[string]any{"a": "x", "b": 2, "c": true}, rec.Map())
}

func TestLoadCollectsAllViolations(t *testing.T) {
	s := &Schema{
		Name: "Thing",
		Fields: []Field{
			{Name: "title", Type: String{MaxLength: 3}, Required: true},
			{Name: "tlp", Type: String{Choices: []string{"amber", "green"}}},
			{Name: "count", Type: Integer{}.AtLeast(0)},
			{Name: "priority", Type: Integer{}.AtLeast(0).AtMost(100)},
			{Name: "disposition", Type: Integer{}.OneOf(1, 2)},
			{Name: "internal", Type: Boolean{}},
			{Name: "tags", Type: List{Of: String{}}},
			{Name: "when", Type: DateTime{}},
			{Name: "period", Type: Nested{Schema: periodSchema()}},
			{Name: "note", Type: String{}},
			{Name: "missing", Type: String{}, Required: true},
		},
	}

	_, err := s.Load(map[string]any{
		"title":       "four",
		"tlp":         "blue",
		"count":       -1,
		"priority":    101,
		"disposition": 3,
		"internal":    69,
		"tags":        []any{"ok", "", 7},
		"when":        "4:20",
		"period":      map[string]any{"middle_time": "x", "end_time": "2019-01-01T00:00:00Z"},
		"note":        nil,
		"extra":       true,
	})

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, Messages{
		"title":       []string{"Must be at most 3 characters long."},
		"tlp":         []string{"Must be one of: 'amber', 'green'."},
		"count":       []string{"Must be greater than or equal to 0."},
		"priority":    []string{"Must be less than or equal to 100."},
		"disposition": []string{"Must be one of: 1, 2."},
		"internal":    []string{MsgBoolean},
		"tags": Messages{
			"1": []string{MsgBlank},
			"2": []string{MsgString},
		},
		"when": []string{MsgDateTime},
		"period": Messages{
			"start_time":  []string{MsgRequired},
			"middle_time": []string{MsgUnknownField},
		},
		"note":    []string{MsgNull},
		"missing": []string{MsgRequired},
		"extra":   []string{MsgUnknownField},
	}, verr.Messages)
}

func TestChecksRunOnlyWhenFieldsValid(t *testing.T) {
	s := periodSchema()

	_, err := s.Load(map[string]any{
		"start_time": "2019-01-02T00:00:00Z",
		"end_time":   "2019-01-01T00:00:00Z",
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, Messages{
		SchemaKey: []string{"Not a valid period of time: start must come before end."},
	}, verr.Messages)

	_, err = s.Load(map[string]any{
		"start_time": "2019-01-02T00:00:00Z",
		"end_time":   "never",
	})
	require.ErrorAs(t, err, &verr)
	assert.NotContains(t, verr.Messages, SchemaKey)
}

func TestPostLoad(t *testing.T) {
	s := &Schema{
		Name:   "Upper",
		Fields: []Field{{Name: "v", Type: String{}}},
		PostLoad: func(r *ir.Record) {
			r.Set("v", r.String("v")+"!")
		},
	}

	rec, err := s.Load(map[string]any{"v": "x"})
	require.NoError(t, err)
	assert.Equal(t, "x!", rec.String("v"))
}

func TestStringLengthCountsCodePoints(t *testing.T) {
	typ := String{MaxLength: 5}

	v, err := typ.Deserialize("\U0001F4A9\U0001F4A9\U0001F4A9\U0001F4A9\U0001F4A9")
	require.NoError(t, err)
	assert.NotEmpty(t, v)

	_, err = typ.Deserialize("\U0001F4A9\U0001F4A9\U0001F4A9\U0001F4A9\U0001F4A9\U0001F4A9")
	assert.EqualError(t, err, "Must be at most 5 characters long.")
}

func TestIntegerConversions(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  int
		ok    bool
	}{
		{"int", 5, 5, true},
		{"int64", int64(5), 5, true},
		{"uint64", uint64(5), 5, true},
		{"integral float", 5.0, 5, true},
		{"fractional float", 5.5, 0, false},
		{"float at int64 limit", math.Exp2(63), 0, false},
		{"negative float at int64 limit", -math.Exp2(63), 0, false},
		{"large integral float", math.Exp2(62), int(math.Exp2(62)), true},
		{"numeric string", "42", 42, true},
		{"word", "five", 0, false},
		{"bool", true, 0, false},
		{"nil", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToInt(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIntegerRejectsFractions(t *testing.T) {
	_, err := Integer{}.Deserialize(1.5)
	var inv *InvalidError
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, []string{MsgInteger}, inv.Messages)

	v, err := Integer{}.Deserialize(2.0)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestDateTimeNormalizes(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{"zulu millis", "2019-03-01T22:26:29.229Z", "2019-03-01T22:26:29.229Z"},
		{"offset", "2019-03-01T23:26:29+01:00", "2019-03-01T22:26:29.000Z"},
		{"compact offset", "2019-03-01T23:26:29+0100", "2019-03-01T22:26:29.000Z"},
		{"naive", "2019-03-01T22:26:29.123456", "2019-03-01T22:26:29.123Z"},
		{"space separator", "2019-03-01 22:26:29", "2019-03-01T22:26:29.000Z"},
		{"no seconds", "2019-03-01T22:26", "2019-03-01T22:26:00.000Z"},
		{"time value", time.Date(2525, 1, 1, 0, 0, 0, 0, time.UTC), "2525-01-01T00:00:00.000Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DateTime{}.Deserialize(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := DateTime{}.Deserialize(4.20)
	assert.EqualError(t, err, MsgDateTime)
}

func TestListAcceptsTypedSlices(t *testing.T) {
	v, err := List{Of: Integer{}}.Deserialize([]int{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2}, v)

	_, err = List{Of: String{}}.Deserialize("abc")
	assert.EqualError(t, err, MsgList)

	_, err = List{Of: String{}}.Deserialize([]any{nil})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, Messages{"0": []string{MsgNull}}, verr.Messages)
}

func TestMapping(t *testing.T) {
	v, err := Mapping{Keys: String{}, Values: Raw{}}.Deserialize(map[string]any{"k": []any{1}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"k": []any{1}}, v)

	_, err = Mapping{}.Deserialize([]any{})
	assert.EqualError(t, err, MsgMapping)
}

func TestNestedRejectsNonMap(t *testing.T) {
	_, err := Nested{Schema: periodSchema()}.Deserialize("x")
	assert.EqualError(t, err, MsgInputType)
}

func TestValidationErrorIssues(t *testing.T) {
	err := &ValidationError{Messages: Messages{
		"b": []string{"bad"},
		"a": Messages{
			"10": []string{"ten"},
			"2":  []string{"two"},
		},
	}}

	assert.Equal(t, []Issue{
		{Path: "a.2", Message: "two"},
		{Path: "a.10", Message: "ten"},
		{Path: "b", Message: "bad"},
	}, err.Issues())
	assert.Equal(t, "validation failed: a.2: two; a.10: ten; b: bad", err.Error())
}

func TestVerify(t *testing.T) {
	assert.NoError(t, periodSchema().Verify())

	var nilSchema *Schema
	assert.Error(t, nilSchema.Verify())

	err := (&Schema{Name: "Dup", Fields: []Field{
		{Name: "a", Type: String{}},
		{Name: "a", Type: String{}},
	}}).Verify()
	var serr *SchemaError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "Dup", serr.Name)

	assert.Error(t, (&Schema{Name: "Untyped", Fields: []Field{{Name: "a"}}}).Verify())
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "string, at most 10 characters", String{MaxLength: 10}.Describe())
	assert.Equal(t, "string, one of 'a', 'b'", String{Choices: []string{"a", "b"}}.Describe())
	assert.Equal(t, "integer, >= 0, <= 100", Integer{}.AtLeast(0).AtMost(100).Describe())
	assert.Equal(t, "list of boolean", List{Of: Boolean{}}.Describe())
}
