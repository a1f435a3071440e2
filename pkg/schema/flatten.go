package schema

import "strings"

// Entry associates a declared attribute path with its value in an instance.
type Entry struct {
	Path      string
	Attribute *Attribute
	Value     any
	Defined   bool
}

// Provider flattens an instance against its schema.
type Provider interface {
	Flatten(instance map[string]any) []Entry
}

// Flatten lists every declared path of instance, own attributes first in declaration
// order (nested descriptors depth-first), then the attributes of the extended
// descriptors. A path declared more than once keeps its first declaration.
func (d *Descriptor) Flatten(instance map[string]any) []Entry {
	var entries []Entry

	seen := map[string]bool{}
	d.flatten(instance, true, "", seen, &entries)

	return entries
}

func (d *Descriptor) flatten(value any, defined bool, prefix string, seen map[string]bool, entries *[]Entry) {
	for _, attribute := range d.Attributes {
		path := join(prefix, attribute.Name)

		var (
			child        any
			childDefined bool
		)

		if defined {
			child, childDefined = field(value, attribute.Name)
		}

		if !seen[path] {
			seen[path] = true
			*entries = append(*entries, Entry{Path: path, Attribute: attribute, Value: child, Defined: childDefined})
		}

		if attribute.Schema != nil {
			attribute.Schema.flatten(child, childDefined, path, seen, entries)
		}
	}

	for _, base := range d.Extends {
		base.flatten(value, defined, prefix, seen, entries)
	}
}

// field reads key from a string-keyed map. A nil value counts as undefined.
func field(value any, key string) (any, bool) {
	m, ok := value.(map[string]any)
	if !ok {
		return nil, false
	}

	v, found := m[key]

	return v, found && v != nil
}

func join(prefix, name string) string {
	if prefix == "" {
		return name
	}

	return prefix + "." + name
}

// Lookup returns the entry declared at path, written either with dots or slashes.
func Lookup(entries []Entry, path string) (Entry, bool) {
	path = strings.ReplaceAll(strings.TrimPrefix(path, "/"), "/", ".")

	for _, entry := range entries {
		if entry.Path == path {
			return entry, true
		}
	}

	return Entry{}, false
}
