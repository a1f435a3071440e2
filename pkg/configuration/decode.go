package configuration

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Decode copies a merged configuration into the struct pointed to by out, matching
// fields by their json tag.
func Decode(configuration map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create configuration decoder: %w", err)
	}

	if err := decoder.Decode(configuration); err != nil {
		return fmt.Errorf("failed to decode configuration: %w", err)
	}

	return nil
}
