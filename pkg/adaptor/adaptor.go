// Package adaptor compiles the mapping functions of connection adaptors.
//
// An adaptor source is an expression evaluated in a sandbox exposing the incoming
// message as the variables data, configuration and context. It must produce a map
// whose keys are among those three names; each key present replaces the matching
// part of the message. Nothing else is reachable from the expression.
package adaptor

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"

	"github.com/dukex/fluxrt/pkg/models"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

var (
	// ErrInvalidResult indicates a mapping produced something else than a message-shaped map.
	ErrInvalidResult = errors.New("adaptor result is not a message")

	// ErrEmptySource indicates an adaptor with neither source nor named mapping.
	ErrEmptySource = errors.New("adaptor has no source")
)

var messageKeys = []string{"data", "configuration", "context"}

// CompileError wraps a source that could not be compiled.
type CompileError struct {
	AdaptorID string
	Source    string
	Err       error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("failed to compile adaptor %s: %v", e.AdaptorID, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// Diagnostic exposes the faulty source in trace logs.
func (e *CompileError) Diagnostic() any {
	return map[string]any{"adaptorId": e.AdaptorID, "source": e.Source, "error": e.Err.Error()}
}

func environment(message models.Message) map[string]any {
	configuration := message.Configuration
	if configuration == nil {
		configuration = map[string]any{}
	}

	userContext := message.Context
	if userContext == nil {
		userContext = map[string]any{}
	}

	return map[string]any{
		"data":          message.Data,
		"configuration": configuration,
		"context":       userContext,
	}
}

// Compile turns source into a mapping function.
func Compile(adaptorID, source string) (models.MappingFunc, error) {
	if source == "" {
		return nil, &CompileError{AdaptorID: adaptorID, Source: source, Err: ErrEmptySource}
	}

	program, err := expr.Compile(source,
		expr.Env(environment(models.Message{})),
		expr.AsKind(reflect.Map),
	)
	if err != nil {
		return nil, &CompileError{AdaptorID: adaptorID, Source: source, Err: err}
	}

	return func(message models.Message) (models.Message, error) {
		return run(adaptorID, program, message)
	}, nil
}

func run(adaptorID string, program *vm.Program, message models.Message) (models.Message, error) {
	output, err := expr.Run(program, environment(message))
	if err != nil {
		return message, fmt.Errorf("adaptor %s: %w", adaptorID, err)
	}

	result, ok := output.(map[string]any)
	if !ok {
		return message, fmt.Errorf("adaptor %s: %w: got %T", adaptorID, ErrInvalidResult, output)
	}

	for _, key := range slices.Sorted(maps.Keys(result)) {
		if !slices.Contains(messageKeys, key) {
			return message, fmt.Errorf("adaptor %s: %w: unexpected key %q", adaptorID, ErrInvalidResult, key)
		}
	}

	mapped := message

	if data, ok := result["data"]; ok {
		mapped.Data = data
	}

	if value, ok := result["configuration"]; ok {
		configuration, isMap := value.(map[string]any)
		if !isMap && value != nil {
			return message, fmt.Errorf("adaptor %s: %w: configuration is %T", adaptorID, ErrInvalidResult, value)
		}

		mapped.Configuration = configuration
	}

	if value, ok := result["context"]; ok {
		userContext, isMap := value.(map[string]any)
		if !isMap && value != nil {
			return message, fmt.Errorf("adaptor %s: %w: context is %T", adaptorID, ErrInvalidResult, value)
		}

		mapped.Context = userContext
	}

	return mapped, nil
}

// Lookup resolves a pre-registered named mapping.
type Lookup interface {
	Adaptor(id string) (models.MappingFunc, bool)
}

// Resolve sets the mapping of a persisted adaptor: a named mapping registered under
// its id wins, otherwise its source is compiled.
func Resolve(adaptor *models.Adaptor, named Lookup) error {
	if named != nil {
		if mapping, ok := named.Adaptor(adaptor.ID); ok {
			adaptor.Mapping = mapping

			return nil
		}
	}

	mapping, err := Compile(adaptor.ID, adaptor.Code())
	if err != nil {
		return err
	}

	adaptor.Mapping = mapping

	return nil
}
