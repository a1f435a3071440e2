// Package contract provides the combinators used to validate and normalize the data
// reaching a module's input slot.
//
// An Expectation is immutable and pure: resolving the same input twice always
// yields an equivalent Status. Combinators never mutate their input.
package contract

import (
	"fmt"
	"reflect"
)

// Outcome qualifies how an expectation ended for a given input.
type Outcome string

const (
	OutcomeFulfilled  Outcome = "fulfilled"
	OutcomeRejected   Outcome = "rejected"
	OutcomeUnresolved Outcome = "unresolved" // Not evaluated because a sibling short-circuited.
)

// Predicate decides whether an input satisfies an expectation.
type Predicate func(input any) bool

// Mapper normalizes the value of a fulfilled expectation.
type Mapper func(value any) any

// Expectation validates and normalizes an arbitrary input.
type Expectation interface {
	Description() string
	Resolve(input any) *Status
}

// Status is the outcome of resolving an expectation against one input.
type Status struct {
	Expectation Expectation `json:"-"`
	Description string      `json:"description"`
	Outcome     Outcome     `json:"outcome"`
	FromValue   any         `json:"-"`
	Value       any         `json:"value,omitempty"`
	Children    []*Status   `json:"children,omitempty"`
}

// Succeeded reports whether the expectation was fulfilled.
func (s *Status) Succeeded() bool {
	return s.Outcome == OutcomeFulfilled
}

// Rejections returns the descriptions of the rejected leaves of the status tree.
func (s *Status) Rejections() []string {
	if s.Outcome != OutcomeRejected {
		return nil
	}

	var leaves []string

	for _, child := range s.Children {
		leaves = append(leaves, child.Rejections()...)
	}

	if len(leaves) == 0 {
		return []string{s.Description}
	}

	return leaves
}

func fulfilled(e Expectation, value, from any, children []*Status) *Status {
	return &Status{
		Expectation: e,
		Description: e.Description(),
		Outcome:     OutcomeFulfilled,
		FromValue:   from,
		Value:       value,
		Children:    children,
	}
}

func rejected(e Expectation, from any, children []*Status) *Status {
	return &Status{
		Expectation: e,
		Description: e.Description(),
		Outcome:     OutcomeRejected,
		FromValue:   from,
		Children:    children,
	}
}

func unresolved(e Expectation, from any) *Status {
	return &Status{
		Expectation: e,
		Description: e.Description(),
		Outcome:     OutcomeUnresolved,
		FromValue:   from,
	}
}

func identity(value any) any {
	return value
}

type of struct {
	description string
	when        Predicate
	mapTo       Mapper
}

// Of succeeds when the predicate holds; the value is the input itself.
func Of(description string, when Predicate) Expectation {
	return OfMapped(description, when, nil)
}

// OfMapped succeeds when the predicate holds; the value is mapTo(input).
func OfMapped(description string, when Predicate, mapTo Mapper) Expectation {
	if mapTo == nil {
		mapTo = identity
	}

	return &of{description: description, when: when, mapTo: mapTo}
}

func (e *of) Description() string { return e.description }

func (e *of) Resolve(input any) *Status {
	if !e.when(input) {
		return rejected(e, input, nil)
	}

	return fulfilled(e, e.mapTo(input), input, nil)
}

type refine struct {
	description string
	inner       Expectation
	mapTo       Mapper
}

// Refine delegates to inner and normalizes its value with mapTo.
func Refine(description string, inner Expectation, mapTo Mapper) Expectation {
	if mapTo == nil {
		mapTo = identity
	}

	return &refine{description: description, inner: inner, mapTo: mapTo}
}

func (e *refine) Description() string { return e.description }

func (e *refine) Resolve(input any) *Status {
	status := e.inner.Resolve(input)
	if !status.Succeeded() {
		return rejected(e, input, []*Status{status})
	}

	return fulfilled(e, e.mapTo(status.Value), input, []*Status{status})
}

type anyOf struct {
	description  string
	expectations []Expectation
}

// AnyOf resolves its children in order and stops at the first success, whose value
// becomes the value of the combinator. Children after it are left unresolved.
func AnyOf(description string, expectations ...Expectation) Expectation {
	return &anyOf{description: description, expectations: expectations}
}

func (e *anyOf) Description() string { return e.description }

func (e *anyOf) Resolve(input any) *Status {
	children := make([]*Status, 0, len(e.expectations))

	var winner *Status

	for _, expectation := range e.expectations {
		if winner != nil {
			children = append(children, unresolved(expectation, input))

			continue
		}

		status := expectation.Resolve(input)
		children = append(children, status)

		if status.Succeeded() {
			winner = status
		}
	}

	if winner == nil {
		return rejected(e, input, children)
	}

	return fulfilled(e, winner.Value, input, children)
}

type allOf struct {
	description  string
	expectations []Expectation
}

// AllOf resolves its children in order and stops at the first failure. Its value is
// the ordered list of the children's values.
func AllOf(description string, expectations ...Expectation) Expectation {
	return &allOf{description: description, expectations: expectations}
}

func (e *allOf) Description() string { return e.description }

func (e *allOf) Resolve(input any) *Status {
	children := make([]*Status, 0, len(e.expectations))
	values := make([]any, 0, len(e.expectations))
	failed := false

	for _, expectation := range e.expectations {
		if failed {
			children = append(children, unresolved(expectation, input))

			continue
		}

		status := expectation.Resolve(input)
		children = append(children, status)

		if !status.Succeeded() {
			failed = true

			continue
		}

		values = append(values, status.Value)
	}

	if failed {
		return rejected(e, input, children)
	}

	return fulfilled(e, values, input, children)
}

type optionalsOf struct {
	description  string
	expectations []Expectation
}

// OptionalsOf resolves every child and always succeeds. Its value lists each
// child's value, nil for the rejected ones.
func OptionalsOf(description string, expectations ...Expectation) Expectation {
	return &optionalsOf{description: description, expectations: expectations}
}

func (e *optionalsOf) Description() string { return e.description }

func (e *optionalsOf) Resolve(input any) *Status {
	children := make([]*Status, 0, len(e.expectations))
	values := make([]any, 0, len(e.expectations))

	for _, expectation := range e.expectations {
		status := expectation.Resolve(input)
		children = append(children, status)
		values = append(values, status.Value)
	}

	return fulfilled(e, values, input, children)
}

type attribute struct {
	name  string
	inner Expectation
}

// Attribute resolves inner against input[name]. A missing attribute is a rejection; an
// attribute set to nil is resolved by inner like any other value.
func Attribute(name string, inner Expectation) Expectation {
	return &attribute{name: name, inner: inner}
}

func (e *attribute) Description() string {
	return fmt.Sprintf("expect attribute %s", e.name)
}

func (e *attribute) Resolve(input any) *Status {
	value, ok := lookup(input, e.name)
	if !ok {
		return rejected(e, input, nil)
	}

	status := e.inner.Resolve(value)
	if !status.Succeeded() {
		return rejected(e, input, []*Status{status})
	}

	return fulfilled(e, status.Value, input, []*Status{status})
}

// Field names an expectation within a contract.
type Field struct {
	Name        string
	Expectation Expectation
}

// F is a shorthand to declare a contract field.
func F(name string, expectation Expectation) Field {
	return Field{Name: name, Expectation: expectation}
}

type contractExpectation struct {
	description string
	requireds   []Field
	optionals   []Field
}

// Contract resolves every field against the whole input. Required fields are resolved
// with AllOf semantics and decide the success of the contract; optional fields are
// always resolved. The value maps each field name to the value of its expectation.
func Contract(description string, requireds []Field, optionals []Field) Expectation {
	return &contractExpectation{description: description, requireds: requireds, optionals: optionals}
}

func (e *contractExpectation) Description() string { return e.description }

func (e *contractExpectation) Resolve(input any) *Status {
	requiredStatus := AllOf("requireds", expectationsOf(e.requireds)...).Resolve(input)
	optionalStatus := OptionalsOf("optionals", expectationsOf(e.optionals)...).Resolve(input)
	children := []*Status{requiredStatus, optionalStatus}

	if !requiredStatus.Succeeded() {
		return rejected(e, input, children)
	}

	values := make(map[string]any, len(e.requireds)+len(e.optionals))

	requiredValues, _ := requiredStatus.Value.([]any)
	for i, field := range e.requireds {
		values[field.Name] = requiredValues[i]
	}

	optionalValues, _ := optionalStatus.Value.([]any)
	for i, field := range e.optionals {
		values[field.Name] = optionalValues[i]
	}

	return fulfilled(e, values, input, children)
}

func expectationsOf(fields []Field) []Expectation {
	expectations := make([]Expectation, 0, len(fields))
	for _, field := range fields {
		expectations = append(expectations, field.Expectation)
	}

	return expectations
}

type free struct{}

// Free accepts any input unchanged.
func Free() Expectation {
	return free{}
}

func (free) Description() string { return "No expectation" }

func (e free) Resolve(input any) *Status {
	return fulfilled(e, input, input, nil)
}

// lookup reads a string-keyed attribute from a map, returning false when absent.
func lookup(input any, name string) (any, bool) {
	if m, ok := input.(map[string]any); ok {
		value, found := m[name]

		return value, found
	}

	rv := reflect.ValueOf(input)
	if !rv.IsValid() || rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}

	value := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
	if !value.IsValid() {
		return nil, false
	}

	return value.Interface(), true
}
