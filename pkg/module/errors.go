package module

import (
	"errors"
	"fmt"

	"github.com/dukex/fluxrt/pkg/configuration"
	"github.com/dukex/fluxrt/pkg/contract"
)

var (
	// ErrContractUnfulfilled indicates the data reaching an input did not satisfy its contract.
	ErrContractUnfulfilled = errors.New("contract unfulfilled")

	// ErrConfigurationInconsistent indicates the configuration overrides of a message
	// could not be merged with the persistent data of the module.
	ErrConfigurationInconsistent = errors.New("configuration inconsistent")

	// ErrSlotNotFound indicates no slot of a module has the requested id.
	ErrSlotNotFound = errors.New("slot not found")

	// ErrDuplicateSlot indicates a slot id is already used by the module.
	ErrDuplicateSlot = errors.New("duplicate slot")

	// ErrModuleNotFound indicates no module of a workflow has the requested id.
	ErrModuleNotFound = errors.New("module not found")
)

// ModuleError wraps an error raised while a module processed a message.
type ModuleError struct {
	ModuleID string
	Message  string
	Err      error
}

func (e *ModuleError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("module %s: %s", e.ModuleID, e.Message)
	}

	return fmt.Sprintf("module %s: %s: %v", e.ModuleID, e.Message, e.Err)
}

func (e *ModuleError) Unwrap() error {
	return e.Err
}

func (e *ModuleError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// ContractUnfulfilledError carries the resolution tree of a rejected contract.
type ContractUnfulfilledError struct {
	ModuleID string
	SlotID   string
	Status   *contract.Status
}

func (e *ContractUnfulfilledError) Error() string {
	return fmt.Sprintf("module %s: the contract of the input %q has not been fulfilled", e.ModuleID, e.SlotID)
}

func (e *ContractUnfulfilledError) Is(target error) bool {
	return target == ErrContractUnfulfilled
}

func (e *ContractUnfulfilledError) Diagnostic() any {
	return e.Status
}

// ConfigurationError carries the status of an inconsistent configuration merge.
type ConfigurationError struct {
	ModuleID string
	Status   *configuration.Status
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("module %s: failed to merge default configuration with dynamic attributes", e.ModuleID)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfigurationInconsistent
}

func (e *ConfigurationError) Diagnostic() any {
	return e.Status
}

// IsContractUnfulfilled checks if an error indicates a rejected contract.
func IsContractUnfulfilled(err error) bool {
	return errors.Is(err, ErrContractUnfulfilled)
}

// IsConfigurationInconsistent checks if an error indicates an inconsistent configuration.
func IsConfigurationInconsistent(err error) bool {
	return errors.Is(err, ErrConfigurationInconsistent)
}
