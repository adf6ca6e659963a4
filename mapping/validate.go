package mapping

import (
	"slices"
)

// Validate checks collection ranges, required attributes, polymorphic
// membership and choice groups of the instance tree. It returns a
// *ValidationError listing every failure, or nil.
func (i *Instance) Validate() error {
	errs := i.validate(make(map[*Instance]bool))
	if len(errs) == 0 {
		return nil
	}
	return &ValidationError{Errors: errs}
}

func (i *Instance) validate(seen map[*Instance]bool) []error {
	if seen[i] {
		return nil
	}
	seen[i] = true

	var errs []error
	for _, a := range i.model.attrs {
		if a.derived != nil {
			continue
		}
		v := i.Get(a.name)
		state := Classify(v)
		if a.required && (state == StateOmitted || state == StateNil) {
			errs = append(errs, &RequiredAttributeMissingError{Attribute: a.name, Model: i.model.name})
		}
		items, isList := v.([]any)
		if a.IsCollection() && isList {
			if r := a.Collection(); !r.Contains(len(items)) {
				errs = append(errs, &CollectionCountOutOfRangeError{Attribute: a.name, Count: len(items), Range: r})
			}
		}
		if !isList {
			items = []any{v}
		}
		for _, item := range items {
			nested, ok := item.(*Instance)
			if !ok || nested == nil {
				continue
			}
			if err := checkPolymorphic(a, nested.model); err != nil {
				errs = append(errs, err)
			}
			errs = append(errs, nested.validate(seen)...)
		}
	}
	for _, c := range i.model.choices {
		n := 0
		for _, name := range c.Attributes {
			if Classify(i.Get(name)) == StatePresent {
				n++
			}
		}
		if n < c.Min {
			errs = append(errs, &ChoiceLowerBoundError{Attributes: c.Attributes, Min: c.Min})
		}
		if c.Max != Unbounded && n > c.Max {
			errs = append(errs, &ChoiceUpperBoundError{Attributes: c.Attributes, Max: c.Max})
		}
	}
	return errs
}

// checkPolymorphic reports whether m may be held by attr. Explicit model
// lists match by name along the parent chain; otherwise m must derive from
// the declared model.
func checkPolymorphic(attr *Attribute, m *Model) error {
	declared, _ := attr.Model()
	if len(attr.polymorphic) > 0 {
		for c := m; c != nil; c = c.parent {
			if slices.Contains(attr.polymorphic, c.name) {
				return nil
			}
		}
		return &PolymorphicError{Attribute: attr.name, Model: m.name, Allowed: attr.polymorphic}
	}
	if declared == nil || m.IsA(declared) {
		return nil
	}
	return &PolymorphicError{Attribute: attr.name, Model: m.name}
}
