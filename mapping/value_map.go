package mapping

import (
	"reflect"
)

// ValueState classifies a value for the nil/empty/omitted table.
type ValueState int

const (
	StatePresent ValueState = iota
	StateNil
	StateEmpty
	StateOmitted
)

func (s ValueState) String() string {
	switch s {
	case StateNil:
		return "nil"
	case StateEmpty:
		return "empty"
	case StateOmitted:
		return "omitted"
	default:
		return "present"
	}
}

// Policy is a render or treat option for nil and empty values.
type Policy int

const (
	PolicyUnset Policy = iota
	Omit
	AsNil
	AsBlank
	AsEmpty
)

// state translates a policy into the state it produces.
func (p Policy) state(fallback ValueState) ValueState {
	switch p {
	case Omit:
		return StateOmitted
	case AsNil:
		return StateNil
	case AsBlank, AsEmpty:
		return StateEmpty
	default:
		return fallback
	}
}

// Direction selects the side of a ValueMap.
type Direction int

const (
	Import Direction = iota
	Export
)

// ValueMap maps value states per direction. StatePresent always maps to
// itself.
type ValueMap struct {
	Import map[ValueState]ValueState
	Export map[ValueState]ValueState
}

// Policies is the set of render and treat options a ValueMap is built from.
type Policies struct {
	RenderNil    Policy
	RenderEmpty  Policy
	TreatNil     Policy
	TreatEmpty   Policy
	TreatOmitted Policy
}

// NewValueMap builds the table from policies. Unset policies fall back to:
// render nil omitted, render empty empty, treat nil nil, treat empty empty,
// treat omitted omitted.
func NewValueMap(p Policies) ValueMap {
	return ValueMap{
		Export: map[ValueState]ValueState{
			StateNil:     p.RenderNil.state(StateOmitted),
			StateEmpty:   p.RenderEmpty.state(StateEmpty),
			StateOmitted: StateOmitted,
		},
		Import: map[ValueState]ValueState{
			StateNil:     p.TreatNil.state(StateNil),
			StateEmpty:   p.TreatEmpty.state(StateEmpty),
			StateOmitted: p.TreatOmitted.state(StateOmitted),
		},
	}
}

// Resolve returns the state s becomes in direction d.
func (vm ValueMap) Resolve(d Direction, s ValueState) ValueState {
	if s == StatePresent {
		return s
	}
	table := vm.Import
	if d == Export {
		table = vm.Export
	}
	if out, ok := table[s]; ok {
		return out
	}
	return s
}

// merge overlays the entries of o on vm.
func (vm ValueMap) merge(o *ValueMap) ValueMap {
	if o == nil {
		return vm
	}
	out := ValueMap{
		Import: make(map[ValueState]ValueState, len(vm.Import)),
		Export: make(map[ValueState]ValueState, len(vm.Export)),
	}
	for k, v := range vm.Import {
		out.Import[k] = v
	}
	for k, v := range vm.Export {
		out.Export[k] = v
	}
	for k, v := range o.Import {
		out.Import[k] = v
	}
	for k, v := range o.Export {
		out.Export[k] = v
	}
	return out
}

// Classify reports the state of v. Uninitialized is omitted, nil is nil,
// empty strings, slices and maps are empty.
func Classify(v any) ValueState {
	if IsUninitialized(v) {
		return StateOmitted
	}
	if v == nil {
		return StateNil
	}
	switch t := v.(type) {
	case string:
		if t == "" {
			return StateEmpty
		}
		return StatePresent
	case *Instance:
		if t == nil {
			return StateNil
		}
		return StatePresent
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		if rv.IsNil() {
			return StateNil
		}
		if rv.Len() == 0 {
			return StateEmpty
		}
	case reflect.Pointer:
		if rv.IsNil() {
			return StateNil
		}
	}
	return StatePresent
}
