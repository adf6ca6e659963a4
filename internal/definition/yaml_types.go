package definition

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"shapemap/mapping"
)

// StringOrArray is a type that can be unmarshaled from either a string or an array of strings.
type StringOrArray []string

// UnmarshalYAML accepts either a single string or an array of strings.
func (s *StringOrArray) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var str string

		err := node.Decode(&str)
		if err != nil {
			return err
		}

		if str != "" {
			*s = StringOrArray{str}
		} else {
			*s = StringOrArray{}
		}

		return nil

	case yaml.SequenceNode:
		var arr []string

		err := node.Decode(&arr)
		if err != nil {
			return err
		}

		*s = arr

		return nil

	default:
		return fmt.Errorf("expected string or array, got %v", node.Kind)
	}
}

// MarshalYAML outputs a single string if length is 1, otherwise an array.
func (s StringOrArray) MarshalYAML() (any, error) {
	if len(s) == 1 {
		return s[0], nil
	}

	return []string(s), nil
}

// First returns the first element or empty string if empty.
func (s StringOrArray) First() string {
	if len(s) == 0 {
		return ""
	}

	return s[0]
}

// Rest returns every element after the first.
func (s StringOrArray) Rest() []string {
	if len(s) < 2 {
		return nil
	}

	return s[1:]
}

// IsEmpty returns true if the array is empty.
func (s StringOrArray) IsEmpty() bool {
	return len(s) == 0
}

// Contains returns true if the array contains the given string.
func (s StringOrArray) Contains(str string) bool {
	return slices.Contains(s, str)
}

// Arity is a collection range written as "lo..hi". An upper bound of "*" or
// nothing is unbounded. The YAML value true means "0..*" and a bare integer
// n means "n..n".
type Arity string

// UnmarshalYAML accepts a boolean, an integer or a range string.
func (a *Arity) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("expected collection range, got %v", node.Kind)
	}

	switch node.Tag {
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return err
		}

		*a = ""
		if b {
			*a = "0..*"
		}

		return nil

	case "!!int":
		var n int
		if err := node.Decode(&n); err != nil {
			return err
		}

		*a = Arity(fmt.Sprintf("%d..%d", n, n))

		return nil

	default:
		*a = Arity(node.Value)

		return nil
	}
}

// IsSet reports whether a collection was declared.
func (a Arity) IsSet() bool {
	return a != ""
}

// Range parses the arity.
func (a Arity) Range() (mapping.Range, error) {
	s := strings.TrimSpace(string(a))
	if s == "*" {
		return mapping.Range{Min: 0, Max: mapping.Unbounded}, nil
	}

	lo, hi, ok := strings.Cut(s, "..")
	if !ok {
		return mapping.Range{}, fmt.Errorf("invalid collection range %q (expected lo..hi)", s)
	}

	lower, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil || lower < 0 {
		return mapping.Range{}, fmt.Errorf("invalid lower bound in collection range %q", s)
	}

	hi = strings.TrimSpace(hi)
	if hi == "" || hi == "*" {
		return mapping.Range{Min: lower, Max: mapping.Unbounded}, nil
	}

	upper, err := strconv.Atoi(hi)
	if err != nil || upper < lower {
		return mapping.Range{}, fmt.Errorf("invalid upper bound in collection range %q", s)
	}

	return mapping.Range{Min: lower, Max: upper}, nil
}
