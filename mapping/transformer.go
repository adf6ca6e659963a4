package mapping

import (
	"fmt"
)

// Transformer is a class-style value transformer. To runs on export, From
// on import.
type Transformer interface {
	To(value any, format Format) (any, error)
	From(value any, format Format) (any, error)
}

// Transform attaches value transformation to a rule or an attribute. Class
// holds a Transformer; Export and Import are plain functions.
type Transform struct {
	Class  Transformer
	Export func(any) any
	Import func(any) any
}

// IsZero reports whether the transform does nothing.
func (t Transform) IsZero() bool {
	return t.Class == nil && t.Export == nil && t.Import == nil
}

// TransformFuncs builds a function-only transform.
func TransformFuncs(export, imp func(any) any) Transform {
	return Transform{Export: export, Import: imp}
}

// funcFor picks the function for direction d.
func (t Transform) funcFor(d Direction) func(any) any {
	if d == Export {
		return t.Export
	}
	return t.Import
}

// ExportValue applies export transforms: class transformers attribute then
// rule, then function transforms attribute then rule.
func ExportValue(value any, rule *Rule, attr *Attribute, format Format) (any, error) {
	return applyTransforms(value, Export, transformsOf(attr, rule, false), format)
}

// ImportValue applies import transforms: class transformers rule then
// attribute, then function transforms rule then attribute.
func ImportValue(value any, rule *Rule, attr *Attribute, format Format) (any, error) {
	return applyTransforms(value, Import, transformsOf(attr, rule, true), format)
}

func transformsOf(attr *Attribute, rule *Rule, ruleFirst bool) []Transform {
	var ts []Transform
	if attr != nil && !attr.transform.IsZero() {
		ts = append(ts, attr.transform)
	}
	if rule != nil && !rule.transform.IsZero() {
		if ruleFirst {
			ts = append([]Transform{rule.transform}, ts...)
		} else {
			ts = append(ts, rule.transform)
		}
	}
	return ts
}

func applyTransforms(value any, d Direction, ts []Transform, format Format) (any, error) {
	var err error
	for _, t := range ts {
		if t.Class == nil {
			continue
		}
		if d == Export {
			value, err = t.Class.To(value, format)
		} else {
			value, err = t.Class.From(value, format)
		}
		if err != nil {
			return nil, fmt.Errorf("transform %T: %w", t.Class, err)
		}
	}
	for _, t := range ts {
		if fn := t.funcFor(d); fn != nil {
			value = fn(value)
		}
	}
	return value, nil
}
