package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTypesResult(t *testing.T) {
	scope := Scope{
		Data:          map[string]any{"name": "John", "age": 30, "isNew": true},
		Configuration: map[string]any{"prefix": "Mr"},
		Context:       map[string]any{"trace": "t1"},
	}

	tests := []struct {
		name     string
		template string
		expected any
	}{
		{"string", "{{ .data.name }}", "John"},
		{"number", "{{ .data.age }}", 30.0},
		{"boolean", "{{ .data.isNew }}", true},
		{"configuration", "{{ .configuration.prefix }} {{ .data.name }}", "Mr John"},
		{"context", "{{ .context.trace }}", "t1"},
		{"object", `{"user": "{{ .data.name }}", "age": {{ .data.age }}}`, map[string]any{"user": "John", "age": 30.0}},
		{"array", `[{{ .data.age }}, 1]`, []any{30.0, 1.0}},
		{"json func", `{{ json .data.name }}`, `"John"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Render(tt.template, scope)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestRenderErrors(t *testing.T) {
	_, err := Render("{ invalid..expression }", Scope{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse json")

	_, err = Render("{{ nonexistent.field }}", Scope{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `function "nonexistent" not defined`)
}

func TestTextKeepsRawOutput(t *testing.T) {
	result, err := Text("value: {{ .data }}", Scope{Data: 15})
	require.NoError(t, err)
	assert.Equal(t, "value: 15", result)
}

func TestRenderEnvironmentVariables(t *testing.T) {
	t.Setenv("FLUXRT_TEST_VAR", "test_value")

	result, err := Render("{{ .env.FLUXRT_TEST_VAR }}", Scope{})
	require.NoError(t, err)
	assert.Equal(t, "test_value", result)
}
