package util

import (
	"fmt"
	"unicode/utf8"
)

// MaxNodeNameLength bounds operator-chosen node names to the width of
// the registry's name column.
const MaxNodeNameLength = 255

// ValidateNodeName checks that an operator-chosen node name fits the
// registry. The empty string is valid and denotes standalone mode.
//
// Parameters:
//   - name: The configured node name
//
// Returns:
//   - error: An error if the name cannot be stored, nil otherwise
func ValidateNodeName(name string) error {
	if !utf8.ValidString(name) {
		return fmt.Errorf("node name is not valid UTF-8")
	}
	if len(name) > MaxNodeNameLength {
		return fmt.Errorf("node name exceeds %d bytes", MaxNodeNameLength)
	}
	return nil
}
