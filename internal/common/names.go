package common

import "strings"

// UnknownStr is rendered for enum values outside their declared range.
const UnknownStr = "unknown"

// QualifiedName joins a model name and a dotted field path.
// Returns the model name alone when path is empty.
func QualifiedName(model string, path ...string) string {
	parts := make([]string, 0, len(path)+1)
	if model != "" {
		parts = append(parts, model)
	}

	for _, p := range path {
		if p != "" {
			parts = append(parts, p)
		}
	}

	return strings.Join(parts, ".")
}
