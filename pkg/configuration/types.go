package configuration

import (
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/dukex/fluxrt/pkg/schema"
)

func typeErrors(entries []schema.Entry) []TypeError {
	var errors []TypeError

	for _, entry := range entries {
		if typeError, failed := check(entry); failed {
			errors = append(errors, typeError)
		}
	}

	return errors
}

// check validates one flattened attribute. Undefined values are accepted for booleans
// and nested objects only; a declared string or number leaf, code included, must be set.
func check(entry schema.Entry) (TypeError, bool) {
	attribute, value := entry.Attribute, entry.Value
	meta := attribute.Metadata

	fail := func(expected, message string) (TypeError, bool) {
		return TypeError{AttributeName: entry.Path, ActualValue: value, ExpectedType: expected, Error: message}, true
	}

	isString := attribute.Schema == nil && attribute.Type == schema.TypeString
	isNum := attribute.Schema == nil && attribute.Type == schema.TypeNumber

	str, valueIsString := value.(string)

	switch {
	case isString && len(meta.Enum) > 0 && !valueIsString:
		return fail(attribute.Type, fmt.Sprintf("Got '%s' while 'String' expected as part of enum.", typeOf(value)))
	case isString && len(meta.Enum) > 0 && !slices.Contains(meta.Enum, str):
		return fail(attribute.Type, fmt.Sprintf("Got '%s' while expected values from enum are: %s.", str, strings.Join(meta.Enum, ",")))
	case isString && entry.Defined && !valueIsString:
		return fail(attribute.Type, fmt.Sprintf("Got '%s' while 'String' expected.", typeOf(value)))
	case isNum && meta.Type == schema.MetaInteger && !isInteger(value):
		return fail("Integer", fmt.Sprintf("Got '%s' while 'integer' expected.", display(value)))
	case isNum && !isNumber(value):
		return fail(attribute.Type, fmt.Sprintf("Got '%s' while 'Number' expected.", typeOf(value)))
	case attribute.Type == schema.TypeBoolean && entry.Defined && !isBool(value):
		return fail(attribute.Type, fmt.Sprintf("Got '%s' while 'Boolean' expected.", typeOf(value)))
	case attribute.Type == schema.TypeList && entry.Defined && !isList(value):
		return fail(attribute.Type, fmt.Sprintf("Got '%s' while 'List' expected.", typeOf(value)))
	case attribute.Schema != nil && entry.Defined && !isObject(value):
		return fail(attribute.Type, fmt.Sprintf("Got '%s' while '%s' expected.", typeOf(value), attribute.Type))
	case !entry.Defined && isString:
		return fail(attribute.Type, "Got undefined while a string or number was expected.")
	}

	return TypeError{}, false
}

func isNumber(value any) bool {
	switch value.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}

func isInteger(value any) bool {
	switch v := value.(type) {
	case float64:
		return v == math.Trunc(v) && !math.IsInf(v, 0)
	case float32:
		return float64(v) == math.Trunc(float64(v)) && !math.IsInf(float64(v), 0)
	default:
		return isNumber(value)
	}
}

func isBool(value any) bool {
	_, ok := value.(bool)

	return ok
}

func isObject(value any) bool {
	rv := reflect.ValueOf(value)

	return rv.IsValid() && rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String
}

func isList(value any) bool {
	kind := reflect.ValueOf(value).Kind()

	return kind == reflect.Slice || kind == reflect.Array
}

// typeOf names the kind of value the way configuration authors see it.
func typeOf(value any) string {
	switch {
	case value == nil:
		return "undefined"
	case isNumber(value):
		return "number"
	case isBool(value):
		return "boolean"
	}

	switch reflect.ValueOf(value).Kind() {
	case reflect.String:
		return "string"
	case reflect.Func:
		return "function"
	default:
		return "object"
	}
}

func display(value any) string {
	switch v := value.(type) {
	case nil:
		return "undefined"
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	default:
		return fmt.Sprint(v)
	}
}
