package cache

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Key identifies a cached value. Implementations compare without mutating either side.
type Key interface {
	Name() string
	Same(other Key) bool
}

// ReferenceKey matches another ReferenceKey with the same name holding the same
// objects, compared by identity and in order.
type ReferenceKey struct {
	name    string
	objects []any
}

// NewReferenceKey creates a key matching on the identity of objects.
func NewReferenceKey(name string, objects ...any) *ReferenceKey {
	return &ReferenceKey{name: name, objects: objects}
}

func (k *ReferenceKey) Name() string { return k.name }

func (k *ReferenceKey) Same(other Key) bool {
	rhs, ok := other.(*ReferenceKey)
	if !ok || k.name != rhs.name || len(k.objects) != len(rhs.objects) {
		return false
	}

	for i, object := range k.objects {
		if !sameReference(object, rhs.objects[i]) {
			return false
		}
	}

	return true
}

// sameReference compares reference kinds by address; other values fall back to ==.
func sameReference(lhs, rhs any) bool {
	if lhs == nil || rhs == nil {
		return lhs == nil && rhs == nil
	}

	lv, rv := reflect.ValueOf(lhs), reflect.ValueOf(rhs)
	if lv.Type() != rv.Type() {
		return false
	}

	switch lv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return lv.Pointer() == rv.Pointer()
	case reflect.Slice:
		return lv.Pointer() == rv.Pointer() && lv.Len() == rv.Len()
	default:
		if !lv.Comparable() {
			return false
		}

		return lv.Equal(rv)
	}
}

// ValueKey matches another ValueKey with the same name whose value serializes identically.
type ValueKey struct {
	name       string
	serialized string
}

// NewValueKey creates a key matching on the JSON serialization of value. Values that
// cannot be encoded fall back to their Go syntax representation.
func NewValueKey(name string, value any) *ValueKey {
	serialized, err := json.Marshal(value)
	if err != nil {
		return &ValueKey{name: name, serialized: fmt.Sprintf("%#v", value)}
	}

	return &ValueKey{name: name, serialized: string(serialized)}
}

func (k *ValueKey) Name() string { return k.name }

func (k *ValueKey) Same(other Key) bool {
	rhs, ok := other.(*ValueKey)

	return ok && k.name == rhs.name && k.serialized == rhs.serialized
}
