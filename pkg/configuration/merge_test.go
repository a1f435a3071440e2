package configuration

import (
	"testing"

	"github.com/dukex/fluxrt/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func descriptor(t *testing.T) *schema.Descriptor {
	t.Helper()

	base := schema.NewBuilder("Base").
		Number("numberProp", "a number").
		MustBuild()

	data := schema.NewBuilder("Data").
		Number("x", "x coordinate").
		Integer("count", "an integer").
		MustBuild()

	d, err := schema.NewBuilder("Derived").
		Extends(base).
		Enum("enumProp", "an enum", "a", "b", "c").
		Object("data", "nested data", data).
		Boolean("enabled", "a flag").
		Build()
	require.NoError(t, err)

	return d
}

// scripted extends descriptor with a code attribute absent from defaults.
func scripted(t *testing.T) *schema.Descriptor {
	t.Helper()

	return schema.NewBuilder("Scripted").
		Extends(descriptor(t)).
		Code("fct", "an expression").
		MustBuild()
}

func defaults() map[string]any {
	return map[string]any{
		"numberProp": 1.0,
		"enumProp":   "a",
		"data":       map[string]any{"x": 0.0, "count": 2},
		"enabled":    true,
	}
}

func TestMerge_EmptyOverridesReturnsOriginal(t *testing.T) {
	data := defaults()

	status := Merge(data, nil, descriptor(t))
	require.True(t, status.IsConsistent())
	assert.Empty(t, status.Intrus)

	status.Result["marker"] = true
	assert.Equal(t, true, data["marker"])
}

func TestMerge_Overrides(t *testing.T) {
	data := defaults()

	status := Merge(data, map[string]any{
		"enumProp": "b",
		"data":     map[string]any{"x": 5},
	}, descriptor(t))

	require.True(t, status.IsConsistent())
	assert.Equal(t, "b", status.Result["enumProp"])
	assert.Equal(t, map[string]any{"x": 5, "count": 2}, status.Result["data"])
	assert.Equal(t, "a", data["enumProp"])
	assert.Equal(t, 0.0, data["data"].(map[string]any)["x"])
	assert.Empty(t, status.Intrus)
}

func TestMerge_NumberOverriddenByString(t *testing.T) {
	status := Merge(defaults(), map[string]any{"numberProp": "ten"}, descriptor(t))

	require.False(t, status.IsConsistent())
	require.Len(t, status.TypeErrors, 1)
	assert.Equal(t, "numberProp", status.TypeErrors[0].AttributeName)
	assert.Equal(t, "Got 'string' while 'Number' expected.", status.TypeErrors[0].Error)
	assert.Empty(t, status.Missings)
}

func TestMerge_EnumViolation(t *testing.T) {
	status := Merge(defaults(), map[string]any{"enumProp": "f"}, descriptor(t))

	require.False(t, status.IsConsistent())
	require.Len(t, status.TypeErrors, 1)
	assert.Equal(t, TypeError{
		AttributeName: "enumProp",
		ActualValue:   "f",
		ExpectedType:  "String",
		Error:         "Got 'f' while expected values from enum are: a,b,c.",
	}, status.TypeErrors[0])
}

func TestMerge_EnumWithNonString(t *testing.T) {
	status := Merge(defaults(), map[string]any{"enumProp": 3}, descriptor(t))

	require.Len(t, status.TypeErrors, 1)
	assert.Equal(t, "Got 'number' while 'String' expected as part of enum.", status.TypeErrors[0].Error)
}

func TestMerge_Integer(t *testing.T) {
	status := Merge(defaults(), map[string]any{"data": map[string]any{"count": 5.2}}, descriptor(t))

	require.Len(t, status.TypeErrors, 1)
	assert.Equal(t, "data.count", status.TypeErrors[0].AttributeName)
	assert.Equal(t, "Integer", status.TypeErrors[0].ExpectedType)
	assert.Equal(t, "Got '5.2' while 'integer' expected.", status.TypeErrors[0].Error)

	status = Merge(defaults(), map[string]any{"data": map[string]any{"count": 4.0}}, descriptor(t))
	assert.True(t, status.IsConsistent())
}

func TestMerge_NestedObjectReplacedByScalar(t *testing.T) {
	status := Merge(defaults(), map[string]any{"data": 5}, descriptor(t))

	require.False(t, status.IsConsistent())
	assert.Equal(t, []string{"/data/count", "/data/x"}, status.Missings)

	require.NotEmpty(t, status.TypeErrors)
	assert.Equal(t, "data", status.TypeErrors[0].AttributeName)
	assert.Equal(t, "Got 'number' while 'Data' expected.", status.TypeErrors[0].Error)
}

func TestMerge_ErrorOrder(t *testing.T) {
	status := Merge(defaults(), map[string]any{
		"numberProp": "x",
		"enumProp":   "z",
		"data":       map[string]any{"x": "y"},
	}, descriptor(t))

	names := make([]string, 0, len(status.TypeErrors))
	for _, typeError := range status.TypeErrors {
		names = append(names, typeError.AttributeName)
	}

	assert.Equal(t, []string{"enumProp", "data.x", "numberProp"}, names)
}

func TestMerge_Intrus(t *testing.T) {
	status := Merge(defaults(), map[string]any{
		"unknown": 1,
		"data":    map[string]any{"z": 2},
	}, descriptor(t))

	require.True(t, status.IsConsistent())
	assert.Equal(t, []string{"/unknown", "/data/z"}, status.Intrus)
	assert.Equal(t, 1, status.Result["unknown"])
}

func TestMerge_CodeIntrusAreTolerated(t *testing.T) {
	status := Merge(defaults(), map[string]any{"fct": "data * 2"}, scripted(t))

	require.True(t, status.IsConsistent())
	assert.Empty(t, status.Intrus)
	assert.Equal(t, "data * 2", status.Result["fct"])

	status = Merge(defaults(), map[string]any{"fct": "data * 2", "other": 1}, scripted(t))
	require.True(t, status.IsConsistent())
	assert.Equal(t, []string{"/fct", "/other"}, status.Intrus)
}

func TestMerge_UndefinedDeclaredLeaf(t *testing.T) {
	data := defaults()
	delete(data, "numberProp")

	status := Merge(data, map[string]any{"enumProp": "c"}, descriptor(t))

	require.Len(t, status.TypeErrors, 1)
	assert.Equal(t, "numberProp", status.TypeErrors[0].AttributeName)
	assert.Equal(t, "Got 'undefined' while 'Number' expected.", status.TypeErrors[0].Error)

	data = defaults()
	delete(data, "enumProp")

	status = Merge(data, map[string]any{"enabled": false}, descriptor(t))

	require.Len(t, status.TypeErrors, 1)
	assert.Equal(t, "enumProp", status.TypeErrors[0].AttributeName)
	assert.Equal(t, "Got 'undefined' while 'String' expected as part of enum.", status.TypeErrors[0].Error)
}

func TestMerge_UndefinedCodeLeaf(t *testing.T) {
	status := Merge(defaults(), map[string]any{"enumProp": "b"}, scripted(t))

	require.False(t, status.IsConsistent())
	require.Len(t, status.TypeErrors, 1)
	assert.Equal(t, "fct", status.TypeErrors[0].AttributeName)
	assert.Equal(t, "Got undefined while a string or number was expected.", status.TypeErrors[0].Error)
}

func TestMerge_NilOverrideIsMissing(t *testing.T) {
	status := Merge(defaults(), map[string]any{"enabled": nil}, descriptor(t))

	require.False(t, status.IsConsistent())
	assert.Equal(t, []string{"/enabled"}, status.Missings)
}

func TestMerge_ArraysReplace(t *testing.T) {
	data := map[string]any{"items": []any{1, 2, 3}}

	status := Merge(data, map[string]any{"items": []any{9}}, nil)

	require.True(t, status.IsConsistent())
	assert.Equal(t, []any{9}, status.Result["items"])
	assert.Empty(t, status.Missings)
}

func TestDecode(t *testing.T) {
	var out struct {
		EnumProp string  `json:"enumProp"`
		Number   float64 `json:"numberProp"`
		Data     struct {
			X     float64 `json:"x"`
			Count int     `json:"count"`
		} `json:"data"`
	}

	require.NoError(t, Decode(defaults(), &out))
	assert.Equal(t, "a", out.EnumProp)
	assert.Equal(t, 1.0, out.Number)
	assert.Equal(t, 2, out.Data.Count)
}
