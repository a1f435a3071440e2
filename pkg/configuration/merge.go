// Package configuration merges the persistent data of a module with the dynamic
// overrides carried by a message, and reports how the result departs from the schema.
package configuration

import (
	"maps"
	"slices"
	"strings"

	"github.com/dukex/fluxrt/pkg/schema"
	"github.com/mohae/deepcopy"
)

// TypeError describes an attribute of the merged configuration not matching its schema.
type TypeError struct {
	AttributeName string `json:"attributeName"`
	ActualValue   any    `json:"actualValue"`
	ExpectedType  string `json:"expectedType"`
	Error         string `json:"error"`
}

// Status is the outcome of Merge.
//
// Intrus lists the paths present in the overrides but absent from the original data;
// Missings lists the paths of the original data lost by the merge. Both are written
// with slashes ("/data/x") while type errors name attributes with dots ("data.x").
type Status struct {
	Original   map[string]any `json:"original"`
	Overrides  map[string]any `json:"overrides"`
	Result     map[string]any `json:"result"`
	Intrus     []string       `json:"intrus"`
	Missings   []string       `json:"missings,omitempty"`
	TypeErrors []TypeError    `json:"typeErrors,omitempty"`
}

// IsConsistent reports whether the merge produced neither type errors nor missings.
func (s *Status) IsConsistent() bool {
	return len(s.Missings) == 0 && len(s.TypeErrors) == 0
}

// Merge overrides data with overrides and validates the result against provider.
//
// Empty overrides return data itself as the result. Otherwise data is deep-cloned
// and overrides are merged into the clone: nested maps merge recursively, any other
// value replaces. Intrus declared as code attributes are dropped from a consistent
// status; other intrus are kept for diagnosis.
func Merge(data, overrides map[string]any, provider schema.Provider) *Status {
	if len(overrides) == 0 {
		return &Status{Original: data, Overrides: map[string]any{}, Result: data, Intrus: []string{}}
	}

	merged, _ := deepcopy.Copy(data).(map[string]any)
	if merged == nil {
		merged = map[string]any{}
	}

	mergeInto(merged, overrides)

	var entries []schema.Entry
	if provider != nil {
		entries = provider.Flatten(merged)
	}

	status := &Status{
		Original:   data,
		Overrides:  overrides,
		Result:     merged,
		Intrus:     append([]string{}, findIntrus("", overrides, data)...),
		Missings:   findIntrus("", data, merged),
		TypeErrors: typeErrors(entries),
	}

	if !status.IsConsistent() {
		return status
	}

	nonCode := slices.DeleteFunc(slices.Clone(status.Intrus), func(path string) bool {
		return isCode(entries, path)
	})

	if len(nonCode) == 0 {
		status.Intrus = []string{}
	}

	return status
}

func mergeInto(dst, src map[string]any) {
	for key, value := range src {
		nested, isMap := value.(map[string]any)
		current, currentIsMap := dst[key].(map[string]any)

		if isMap && currentIsMap {
			mergeInto(current, nested)

			continue
		}

		dst[key] = deepcopy.Copy(value)
	}
}

// findIntrus lists the paths of object whose value is undefined in reference,
// descending into the non-scalar values defined on both sides.
func findIntrus(prefix string, object, reference any) []string {
	children := members(object)
	references := members(reference)
	keys := slices.Sorted(maps.Keys(children))

	var (
		intrus []string
		nested []string
	)

	for _, key := range keys {
		path := prefix + "/" + key

		ref, defined := references[key]
		if !defined || ref == nil {
			intrus = append(intrus, path)

			continue
		}

		if value := children[key]; value != nil && !isScalar(value) {
			nested = append(nested, findIntrus(path, value, ref)...)
		}
	}

	return append(intrus, nested...)
}

// members exposes the entries of a map. Arrays are leaves: an override replaces them whole.
func members(value any) map[string]any {
	m, _ := value.(map[string]any)

	return m
}

func isScalar(value any) bool {
	switch value.(type) {
	case string, bool:
		return true
	default:
		return isNumber(value)
	}
}

// isCode reports whether the nearest declared attribute enclosing path is a code attribute.
func isCode(entries []schema.Entry, path string) bool {
	segments := strings.Split(strings.TrimPrefix(path, "/"), "/")

	for i := len(segments); i > 0; i-- {
		if entry, ok := schema.Lookup(entries, strings.Join(segments[:i], ".")); ok {
			return entry.Attribute.Metadata.Type == schema.MetaCode
		}
	}

	return false
}
