package definition

import (
	"maps"
	"slices"

	"shapemap/mapping"
	"shapemap/xmlns"
)

// index resolves names across a definition file.
type index struct {
	models     map[string]*ModelDef
	modelNames []string
	namespaces map[string]NamespaceDef
	nsNames    []string
}

func newIndex(f *File) *index {
	ix := &index{
		models:     make(map[string]*ModelDef, len(f.Models)),
		namespaces: make(map[string]NamespaceDef, len(f.Namespaces)),
	}

	for i := range f.Models {
		md := &f.Models[i]
		if _, dup := ix.models[md.Name]; md.Name == "" || dup {
			continue
		}

		ix.models[md.Name] = md
		ix.modelNames = append(ix.modelNames, md.Name)
	}

	for _, ns := range f.Namespaces {
		if _, dup := ix.namespaces[ns.Name]; ns.Name == "" || dup {
			continue
		}

		ix.namespaces[ns.Name] = ns
		ix.nsNames = append(ix.nsNames, ns.Name)
	}

	return ix
}

func (ix *index) isModel(name string) bool {
	_, ok := ix.models[name]
	return ok
}

func (ix *index) isType(name string) bool {
	return ix.isModel(name) || isValueType(name)
}

// typeNames lists every valid attribute type.
func (ix *index) typeNames() []string {
	return append(slices.Clone(BuiltinTypes), ix.modelNames...)
}

// attributes returns the effective attributes of a model: its own, then
// inherited and imported ones, then the instances attribute.
func (ix *index) attributes(name string) map[string]AttributeDef {
	out := make(map[string]AttributeDef)
	ix.collect(name, out, make(map[string]bool))

	return out
}

func (ix *index) collect(name string, out map[string]AttributeDef, seen map[string]bool) {
	md, ok := ix.models[name]
	if !ok || seen[name] {
		return
	}

	seen[name] = true

	for _, a := range md.Attributes {
		if _, dup := out[a.Name]; !dup && a.Name != "" {
			out[a.Name] = a
		}
	}

	if md.Instances != nil && md.Instances.Attribute != "" {
		if _, dup := out[md.Instances.Attribute]; !dup {
			out[md.Instances.Attribute] = AttributeDef{
				Name:       md.Instances.Attribute,
				Type:       md.Instances.Type,
				Collection: "0..*",
			}
		}
	}

	if md.Extends != "" {
		ix.collect(md.Extends, out, seen)
	}

	for _, imp := range md.Import {
		ix.collect(imp, out, seen)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}

var valueTypes = map[string]mapping.ValueType{
	TypeString:  mapping.String,
	TypeInteger: mapping.Integer,
	TypeFloat:   mapping.Float,
	TypeBoolean: mapping.Boolean,
	TypeTime:    mapping.Time,
	TypeAny:     mapping.Any,
}

func isValueType(name string) bool {
	_, ok := valueTypes[name]
	return ok
}

var policyNames = []string{"omit", "nil", "blank", "empty"}

func parsePolicy(s string) (mapping.Policy, bool) {
	switch s {
	case "":
		return mapping.PolicyUnset, true
	case "omit":
		return mapping.Omit, true
	case "nil":
		return mapping.AsNil, true
	case "blank":
		return mapping.AsBlank, true
	case "empty":
		return mapping.AsEmpty, true
	default:
		return mapping.PolicyUnset, false
	}
}

var formNames = []string{"qualified", "unqualified"}

func parseForm(s string) (xmlns.Form, bool) {
	switch s {
	case "":
		return xmlns.FormUnset, true
	case "qualified":
		return xmlns.FormQualified, true
	case "unqualified":
		return xmlns.FormUnqualified, true
	default:
		return xmlns.FormUnset, false
	}
}

var scopeModeNames = []string{"always", "auto"}

func parseScopeMode(s string) (xmlns.ScopeMode, bool) {
	switch s {
	case "", "always":
		return xmlns.ScopeAlways, true
	case "auto":
		return xmlns.ScopeAuto, true
	default:
		return xmlns.ScopeAlways, false
	}
}

var sortOrderNames = []string{"asc", "desc"}

func parseSortOrder(s string) (mapping.SortOrder, bool) {
	switch s {
	case "", "asc", "ascending":
		return mapping.Ascending, true
	case "desc", "descending":
		return mapping.Descending, true
	default:
		return mapping.Ascending, false
	}
}

func parseChild(c ChildDef) (mapping.ChildMapping, bool) {
	switch {
	case len(c.Path) > 0 && c.From == "":
		return mapping.MapPath(c.Attribute, c.Path...), true
	case c.From == "key":
		return mapping.MapKey(c.Attribute), true
	case c.From == "value":
		return mapping.MapValue(c.Attribute), true
	default:
		return mapping.ChildMapping{}, false
	}
}

func keyValueFormatNames() []string {
	out := make([]string, 0, len(mapping.KeyValueFormats))
	for _, f := range mapping.KeyValueFormats {
		out = append(out, string(f))
	}

	return out
}

func parseKeyValueFormat(s string) (mapping.Format, bool) {
	f, err := mapping.ParseFormat(s)
	if err != nil || !f.IsKeyValue() {
		return "", false
	}

	return f, true
}
