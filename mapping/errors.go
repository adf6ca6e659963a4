package mapping

import (
	"errors"
	"fmt"
	"strings"
)

// Configuration errors, reported by Model.Err and Registry.Register.
var (
	ErrMapAllConflict                    = errors.New("map all cannot be combined with other mappings")
	ErrRootMappingConflict               = errors.New("mapping already has a root mapping")
	ErrDuplicateMapping                  = errors.New("duplicate mapping name")
	ErrInitializeEmptyRequiresCollection = errors.New("initialize empty requires a collection attribute")
	ErrUnknownModel                      = errors.New("unknown model")
)

// InvalidCollectionRangeError reports a malformed collection arity.
type InvalidCollectionRangeError struct {
	Attribute string
	Range     Range
}

func (e *InvalidCollectionRangeError) Error() string {
	return fmt.Sprintf("invalid collection range for %s: %s", e.Attribute, e.Range)
}

// SortingConfigurationConflictError reports a collection sort combined with
// an ordered XML mapping.
type SortingConfigurationConflictError struct {
	Model string
}

func (e *SortingConfigurationConflictError) Error() string {
	return fmt.Sprintf("%s: sort cannot be combined with an ordered XML mapping", e.Model)
}

// UnknownAttributeError reports a rule targeting an attribute the model does
// not declare.
type UnknownAttributeError struct {
	Attribute string
	Model     string
}

func (e *UnknownAttributeError) Error() string {
	return fmt.Sprintf("Attribute '%s' not found in %s", e.Attribute, e.Model)
}

// IncorrectSequenceError reports an element found out of sequence order.
type IncorrectSequenceError struct {
	Element  string
	Expected string
}

func (e *IncorrectSequenceError) Error() string {
	return fmt.Sprintf("element '%s' is out of order, expected '%s' first", e.Element, e.Expected)
}

// InvalidSequenceError reports a sequence naming an element without a rule.
type InvalidSequenceError struct {
	Element string
	Model   string
}

func (e *InvalidSequenceError) Error() string {
	return fmt.Sprintf("sequence element '%s' has no mapping in %s", e.Element, e.Model)
}

// CollectionTrueMissingError reports several values for a non-collection
// attribute, or an instances mapping onto one.
type CollectionTrueMissingError struct {
	Attribute string
	Model     string
}

func (e *CollectionTrueMissingError) Error() string {
	return fmt.Sprintf("%s.%s receives multiple values but is not declared as a collection", e.Model, e.Attribute)
}

// PolymorphicTypeError reports a discriminator value that resolves to no
// permitted model.
type PolymorphicTypeError struct {
	Attribute string
	Value     string
}

func (e *PolymorphicTypeError) Error() string {
	return fmt.Sprintf("%s: no polymorphic model registered for %q", e.Attribute, e.Value)
}

// ValidationError aggregates validation failures of an instance tree.
type ValidationError struct {
	Errors []error
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() []error { return e.Errors }

// CollectionCountOutOfRangeError reports a collection whose size falls
// outside its declared range.
type CollectionCountOutOfRangeError struct {
	Attribute string
	Count     int
	Range     Range
}

func (e *CollectionCountOutOfRangeError) Error() string {
	if e.Range.Max == Unbounded {
		return fmt.Sprintf("%s count is %d, must be at least %d", e.Attribute, e.Count, e.Range.Min)
	}
	return fmt.Sprintf("%s count is %d, must be between %d and %d", e.Attribute, e.Count, e.Range.Min, e.Range.Max)
}

// ChoiceLowerBoundError reports too few attributes of a choice group.
type ChoiceLowerBoundError struct {
	Attributes []string
	Min        int
}

func (e *ChoiceLowerBoundError) Error() string {
	return fmt.Sprintf("at least %d of [%s] must be present", e.Min, strings.Join(e.Attributes, ", "))
}

// ChoiceUpperBoundError reports too many attributes of a choice group.
type ChoiceUpperBoundError struct {
	Attributes []string
	Max        int
}

func (e *ChoiceUpperBoundError) Error() string {
	return fmt.Sprintf("at most %d of [%s] may be present", e.Max, strings.Join(e.Attributes, ", "))
}

// RequiredAttributeMissingError reports a required attribute without value.
type RequiredAttributeMissingError struct {
	Attribute string
	Model     string
}

func (e *RequiredAttributeMissingError) Error() string {
	return fmt.Sprintf("%s.%s is required", e.Model, e.Attribute)
}

// PolymorphicError reports a value whose model is not permitted by the
// attribute's polymorphic set.
type PolymorphicError struct {
	Attribute string
	Model     string
	Allowed   []string
}

func (e *PolymorphicError) Error() string {
	if len(e.Allowed) == 0 {
		return fmt.Sprintf("%s: %s is not a subtype of the declared type", e.Attribute, e.Model)
	}
	return fmt.Sprintf("%s: %s is not one of [%s]", e.Attribute, e.Model, strings.Join(e.Allowed, ", "))
}
