// Package template renders text templates against the input of a module.
package template

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/template"
	"time"
)

// Scope is the data a template is rendered against.
type Scope struct {
	Data          any
	Configuration map[string]any
	Context       map[string]any
}

func (s Scope) values() map[string]any {
	return map[string]any{
		"data":          s.Data,
		"configuration": s.Configuration,
		"context":       s.Context,
		"env":           envVars(),
	}
}

var funcs = template.FuncMap{
	"now": func() string {
		return time.Now().UTC().Format(time.RFC3339)
	},
	"rand": func(max int) int {
		if max <= 0 {
			return 0
		}

		num := make([]byte, 1)
		if _, err := rand.Read(num); err != nil {
			return 0
		}

		return int(num[0]) % max
	},
	"json": func(value any) (string, error) {
		raw, err := json.Marshal(value)

		return string(raw), err
	},
}

// Text renders templateStr against scope as plain text.
func Text(templateStr string, scope Scope) (string, error) {
	return execute(templateStr, scope.values())
}

// Render renders templateStr against scope and types the result: JSON objects and
// arrays are decoded, numbers and booleans are parsed, anything else stays a string.
func Render(templateStr string, scope Scope) (any, error) {
	result, err := execute(templateStr, scope.values())
	if err != nil {
		return nil, err
	}

	return typed(strings.TrimSpace(result), templateStr)
}

func execute(templateStr string, data map[string]any) (string, error) {
	tmpl, err := template.New("render").Funcs(funcs).Option("missingkey=zero").Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template '%s': %w", templateStr, err)
	}

	var buf strings.Builder

	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template '%s': %w", templateStr, err)
	}

	return buf.String(), nil
}

func typed(result, templateStr string) (any, error) {
	if (strings.HasPrefix(result, "{") && strings.HasSuffix(result, "}")) ||
		(strings.HasPrefix(result, "[") && strings.HasSuffix(result, "]")) {
		var jsonResult any

		if err := json.Unmarshal([]byte(result), &jsonResult); err != nil {
			return nil, fmt.Errorf("failed to parse json '%s': %w", templateStr, err)
		}

		return jsonResult, nil
	}

	if num, err := strconv.ParseFloat(result, 64); err == nil {
		return num, nil
	}

	if b, err := strconv.ParseBool(result); err == nil {
		return b, nil
	}

	return result, nil
}

func envVars() map[string]any {
	envMap := make(map[string]any)

	for _, env := range os.Environ() {
		if key, value, ok := strings.Cut(env, "="); ok {
			envMap[key] = value
		}
	}

	return envMap
}
