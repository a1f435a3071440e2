package contract

import (
	"fmt"
	"reflect"
)

// IsNumber reports whether value holds a Go numeric kind.
func IsNumber(value any) bool {
	switch value.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}

// ToFloat converts any numeric kind to float64.
func ToFloat(value any) (float64, bool) {
	if !IsNumber(value) {
		return 0, false
	}

	rv := reflect.ValueOf(value)

	switch {
	case rv.CanInt():
		return float64(rv.Int()), true
	case rv.CanUint():
		return float64(rv.Uint()), true
	default:
		return rv.Float(), true
	}
}

// AsSlice returns the elements of any slice or array value.
func AsSlice(value any) ([]any, bool) {
	if elems, ok := value.([]any); ok {
		return elems, true
	}

	rv := reflect.ValueOf(value)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, false
	}

	elems := make([]any, rv.Len())
	for i := range elems {
		elems[i] = rv.Index(i).Interface()
	}

	return elems, true
}

// Number accepts any numeric value and normalizes it to float64.
func Number() Expectation {
	return OfMapped("a number", IsNumber, func(value any) any {
		f, _ := ToFloat(value)

		return f
	})
}

// String accepts string values.
func String() Expectation {
	return Of("a string", func(value any) bool {
		_, ok := value.(string)

		return ok
	})
}

// Boolean accepts bool values.
func Boolean() Expectation {
	return Of("a boolean", func(value any) bool {
		_, ok := value.(bool)

		return ok
	})
}

// Object accepts string-keyed maps.
func Object() Expectation {
	return Of("an object", func(value any) bool {
		rv := reflect.ValueOf(value)

		return rv.IsValid() && rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String
	})
}

func isArray(value any) bool {
	_, ok := AsSlice(value)

	return ok
}

// matches resolves when against every element and keeps the fulfilled values in order.
func matches(when Expectation, value any) []any {
	elems, _ := AsSlice(value)
	values := make([]any, 0, len(elems))

	for _, elem := range elems {
		status := when.Resolve(elem)
		if status.Succeeded() {
			values = append(values, status.Value)
		}
	}

	return values
}

func second(value any) any {
	values, _ := value.([]any)
	if len(values) < 2 {
		return nil
	}

	return values[1]
}

// Count accepts arrays holding exactly count elements satisfying when; other
// elements are tolerated. The value lists the matching elements' values in order.
func Count(count int, when Expectation) Expectation {
	description := fmt.Sprintf("expect %d of %q", count, when.Description())

	return Refine(description, AllOf(description,
		Of("an array", isArray),
		OfMapped(
			fmt.Sprintf("%d elements %q", count, when.Description()),
			func(value any) bool { return isArray(value) && len(matches(when, value)) == count },
			func(value any) any { return matches(when, value) },
		),
	), second)
}

// Single accepts an element satisfying when, or an array holding exactly one such element.
func Single(when Expectation) Expectation {
	arrayDescription := fmt.Sprintf("an array with exactly one element %q", when.Description())

	return AnyOf(fmt.Sprintf("expect single of %q", when.Description()),
		Refine(fmt.Sprintf("an element %q", when.Description()), when, nil),
		Refine(arrayDescription, AllOf(arrayDescription,
			Of("an array", isArray),
			OfMapped(
				fmt.Sprintf("the array includes a single element %q", when.Description()),
				func(value any) bool { return isArray(value) && len(matches(when, value)) == 1 },
				func(value any) any { return matches(when, value)[0] },
			),
		), second),
	)
}

// Some accepts an element satisfying when, wrapped in a one-element list, or an array
// holding at least one such element; the value lists every matching element's value.
func Some(when Expectation) Expectation {
	arrayDescription := fmt.Sprintf("an array with element(s) %q", when.Description())

	return AnyOf(fmt.Sprintf("some of %q", when.Description()),
		Refine(fmt.Sprintf("an element %q", when.Description()), when, func(value any) any {
			return []any{value}
		}),
		Refine(arrayDescription, AllOf(arrayDescription,
			Of("an array", isArray),
			OfMapped(
				fmt.Sprintf("the array includes some element(s) %q", when.Description()),
				func(value any) bool { return isArray(value) && len(matches(when, value)) > 0 },
				func(value any) any { return matches(when, value) },
			),
		), second),
	)
}

// Either accepts a value satisfying when directly, or under one of the given attributes.
func Either(description string, when Expectation, attributes ...string) Expectation {
	expectations := []Expectation{when}
	for _, name := range attributes {
		expectations = append(expectations, Attribute(name, when))
	}

	return AnyOf(description, expectations...)
}
