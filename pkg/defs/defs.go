// Package defs contains enum-like definitions used to configure the
// payment middleware and its logging.
package defs

import (
	"fmt"
	"strings"
)

func parseEnumCaseInsensitive[E ~string](value string, allowed ...E) (E, error) {
	for _, candidate := range allowed {
		if strings.EqualFold(value, string(candidate)) {
			return candidate, nil
		}
	}

	var zero E
	return zero, fmt.Errorf("unsupported value %q, allowed values: %v", value, allowed)
}
