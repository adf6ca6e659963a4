package definition

import (
	"fmt"
	"slices"

	"shapemap/internal/common"
	"shapemap/internal/diagnostic"
	"shapemap/internal/match"
)

// maxSuggestions caps the "did you mean" list of a diagnostic.
const maxSuggestions = 3

// Validate checks a definition file for unresolved names, invalid options
// and conflicting mapping styles. It never stops at the first problem.
func Validate(f *File) *diagnostic.Diagnostics {
	res := &diagnostic.Diagnostics{}
	if f == nil {
		res.AddError("definition_is_nil", "definition file is nil", "", "")
		return res
	}

	if len(f.Models) == 0 {
		res.AddWarning("no_models", "definition file declares no models", "", "models")
	}

	validateNamespaces(res, f)

	seen := map[string]struct{}{}

	for i := range f.Models {
		md := &f.Models[i]
		if md.Name == "" {
			res.AddError("missing_model_name", "model has no name", "", fmt.Sprintf("models.%d", i))
			continue
		}

		if _, ok := seen[md.Name]; ok {
			res.AddError("duplicate_model", fmt.Sprintf("duplicate model %q", md.Name), md.Name, "")
			continue
		}

		seen[md.Name] = struct{}{}
	}

	ix := newIndex(f)

	for i := range f.Models {
		if f.Models[i].Name == "" {
			continue
		}

		v := &modelValidator{res: res, ix: ix, md: &f.Models[i]}
		v.attrs = ix.attributes(v.md.Name)
		v.validate()
	}

	if _, err := buildOrder(f); err != nil {
		res.AddError("cyclic_model", err.Error(), "", "models")
	}

	return res
}

func validateNamespaces(res *diagnostic.Diagnostics, f *File) {
	seen := map[string]struct{}{}

	for i, ns := range f.Namespaces {
		path := fmt.Sprintf("namespaces.%d", i)

		if ns.Name == "" {
			res.AddError("missing_namespace_name", "namespace has no name", "", path)
			continue
		}

		if ns.Name == NoNamespace {
			res.AddError("reserved_namespace_name", fmt.Sprintf("namespace name %q is reserved", ns.Name), "", path)
		}

		if _, ok := seen[ns.Name]; ok {
			res.AddError("duplicate_namespace", fmt.Sprintf("duplicate namespace %q", ns.Name), "", path)
		}

		seen[ns.Name] = struct{}{}

		if ns.URI == "" {
			res.AddError("missing_namespace_uri", fmt.Sprintf("namespace %q has no uri", ns.Name), "", path)
		}
	}
}

type modelValidator struct {
	res   *diagnostic.Diagnostics
	ix    *index
	md    *ModelDef
	attrs map[string]AttributeDef
}

func (v *modelValidator) errorf(code, path, format string, args ...any) {
	v.res.AddError(code, fmt.Sprintf(format, args...), v.md.Name, path)
}

func (v *modelValidator) validate() {
	v.validateParents()
	v.validateAttributes()
	v.validateCollection()

	for i, c := range v.md.Choices {
		path := common.QualifiedName("", "choices", fmt.Sprint(i))
		if c.Min < 0 || c.Max < c.Min {
			v.errorf("invalid_choice", path, "choice range %d..%d is invalid", c.Min, c.Max)
		}

		for _, a := range c.Attributes {
			v.checkAttribute(path, a, v.attrs)
		}
	}

	if v.md.KeyValue != nil {
		v.validateKeyValue("key_value", v.md.KeyValue)
	}

	for _, name := range sortedKeys(v.md.PerFormat) {
		kv := v.md.PerFormat[name]
		path := common.QualifiedName("", "per_format", name)
		if _, ok := parseKeyValueFormat(name); !ok {
			v.res.AddError("unknown_format", fmt.Sprintf("unknown key-value format %q", name), v.md.Name, path,
				match.Suggest(name, keyValueFormatNames(), maxSuggestions)...)
		}

		if kv != nil {
			v.validateKeyValue(path, kv)
		}
	}

	if v.md.XML != nil {
		v.validateXML(v.md.XML)
	}
}

func (v *modelValidator) validateParents() {
	if v.md.Extends != "" {
		v.checkModel("extends", v.md.Extends)
	}

	for _, imp := range v.md.Import {
		v.checkModel("import", imp)
	}
}

func (v *modelValidator) checkModel(path, name string) bool {
	if v.ix.isModel(name) {
		return true
	}

	v.res.AddError("unknown_model", fmt.Sprintf("model %q is not defined", name), v.md.Name, path,
		match.Suggest(name, v.ix.modelNames, maxSuggestions)...)

	return false
}

func (v *modelValidator) checkAttribute(path, name string, attrs map[string]AttributeDef) bool {
	if _, ok := attrs[name]; ok {
		return true
	}

	v.res.AddError("unknown_attribute", fmt.Sprintf("attribute %q is not defined", name), v.md.Name, path,
		match.Suggest(name, sortedKeys(attrs), maxSuggestions)...)

	return false
}

func (v *modelValidator) validateAttributes() {
	seen := map[string]struct{}{}

	for i, a := range v.md.Attributes {
		path := common.QualifiedName("", "attributes", a.Name)
		if a.Name == "" {
			v.errorf("missing_attribute_name", fmt.Sprintf("attributes.%d", i), "attribute has no name")
			continue
		}

		if _, ok := seen[a.Name]; ok {
			v.errorf("duplicate_attribute", path, "duplicate attribute %q", a.Name)
			continue
		}

		seen[a.Name] = struct{}{}

		v.validateAttribute(path, a)
	}
}

func (v *modelValidator) validateAttribute(path string, a AttributeDef) {
	switch {
	case a.Type == "":
		v.errorf("missing_type", path, "attribute %q has no type", a.Name)
	case !v.ix.isType(a.Type):
		v.res.AddError("unknown_type", fmt.Sprintf("type %q is not defined", a.Type), v.md.Name, path,
			match.Suggest(a.Type, v.ix.typeNames(), maxSuggestions)...)
	}

	if a.Collection.IsSet() {
		if _, err := a.Collection.Range(); err != nil {
			v.errorf("invalid_collection", path, "%v", err)
		}
	}

	if a.Default != nil {
		if _, err := castDefault(a); err != nil {
			v.errorf("invalid_default", path, "default for %q: %v", a.Name, err)
		}
	}

	if !a.Polymorphic.IsEmpty() {
		if !v.ix.isModel(a.Type) {
			v.errorf("polymorphic_value_type", path, "attribute %q is polymorphic but its type %q is not a model", a.Name, a.Type)
		}

		for _, p := range a.Polymorphic {
			if p != AnyPolymorphic {
				v.checkModel(path, p)
			}
		}
	}
}

func (v *modelValidator) validateCollection() {
	in := v.md.Instances
	if in != nil {
		if in.Attribute == "" {
			v.errorf("missing_instances_attribute", "instances", "instances needs an attribute")
		}

		if !v.ix.isType(in.Type) {
			v.res.AddError("unknown_type", fmt.Sprintf("type %q is not defined", in.Type), v.md.Name, "instances",
				match.Suggest(in.Type, v.ix.typeNames(), maxSuggestions)...)
		}
	}

	s := v.md.Sort
	if s == nil {
		return
	}

	if in == nil {
		v.errorf("sort_without_instances", "sort", "sort requires instances")
		return
	}

	if _, ok := parseSortOrder(s.Order); !ok {
		v.res.AddError("unknown_sort_order", fmt.Sprintf("unknown sort order %q", s.Order), v.md.Name, "sort",
			match.Suggest(s.Order, sortOrderNames, maxSuggestions)...)
	}

	if v.ix.isModel(in.Type) {
		v.checkAttribute("sort", s.By, v.ix.attributes(in.Type))
	}

	if v.md.XML != nil && (v.md.XML.Ordered || v.md.XML.Mixed) {
		v.errorf("sorting_conflict", "sort", "sort cannot be combined with an ordered xml mapping")
	}
}

func (v *modelValidator) validateKeyValue(path string, kv *KeyValueDef) {
	roots := 0
	for _, set := range []bool{kv.MapAll != "", kv.MapInstances != "", kv.RootMappings != nil} {
		if set {
			roots++
		}
	}

	if kv.MapAll != "" && (roots > 1 || len(kv.Rules) > 0) {
		v.errorf("map_all_conflict", path, "map_all cannot be combined with other rules")
	} else if roots > 1 || (roots == 1 && len(kv.Rules) > 0) {
		v.errorf("root_mapping_conflict", path, "a root mapping cannot be combined with other rules")
	}

	if kv.MapAll != "" {
		v.checkAttribute(common.QualifiedName(path, "map_all"), kv.MapAll, v.attrs)
	}

	if kv.MapInstances != "" {
		v.checkAttribute(common.QualifiedName(path, "map_instances"), kv.MapInstances, v.attrs)
	}

	if rm := kv.RootMappings; rm != nil {
		rpath := common.QualifiedName(path, "root_mappings")
		if v.checkAttribute(rpath, rm.To, v.attrs) {
			v.validateChildren(rpath, rm.To, rm.Children)
		}
	}

	seen := map[string]struct{}{}

	for i := range kv.Rules {
		r := &kv.Rules[i]
		rpath := common.QualifiedName(path, "rules", r.Name.First())

		for _, n := range r.Name {
			if _, ok := seen[n]; ok {
				v.errorf("duplicate_rule", rpath, "duplicate rule name %q", n)
			}

			seen[n] = struct{}{}
		}

		v.validateRule(rpath, r, true)

		if r.Namespace != "" || r.Form != "" || r.CDATA {
			v.res.AddWarning("ignored_option", "namespace, form and cdata only apply to xml rules", v.md.Name, rpath)
		}

		if len(r.ChildMappings) > 0 {
			v.validateChildren(rpath, r.To, r.ChildMappings)
		}
	}
}

func (v *modelValidator) validateChildren(path, to string, children []ChildDef) {
	attr, ok := v.attrs[to]
	if !ok {
		return
	}

	if !v.ix.isModel(attr.Type) {
		v.errorf("child_mappings_value_type", path, "attribute %q must hold a model to use child mappings", to)
		return
	}

	itemAttrs := v.ix.attributes(attr.Type)

	for _, c := range children {
		if _, ok := parseChild(c); !ok {
			v.errorf("invalid_child_mapping", path, "child mapping for %q needs from: key, from: value or a path", c.Attribute)
		}

		v.checkAttribute(path, c.Attribute, itemAttrs)
	}
}

// validateRule checks the format-independent part of a rule. Content and
// instances rules may be unnamed.
func (v *modelValidator) validateRule(path string, r *RuleDef, named bool) {
	if named && r.Name.IsEmpty() {
		v.errorf("missing_rule_name", path, "rule has no name")
	}

	attrs := v.attrs

	if r.Delegate != "" {
		if !v.checkAttribute(path, r.Delegate, v.attrs) {
			return
		}

		target := v.attrs[r.Delegate].Type
		if !v.ix.isModel(target) {
			v.errorf("delegate_not_model", path, "delegate %q must hold a model", r.Delegate)
			return
		}

		attrs = v.ix.attributes(target)
	}

	if r.To != "" && v.checkAttribute(path, r.To, attrs) {
		if a := attrs[r.To]; r.RenderDefault && a.Default == nil {
			v.res.AddWarning("render_default_without_default",
				fmt.Sprintf("attribute %q has no default to render", r.To), v.md.Name, path)
		}
	}

	for _, p := range []string{r.RenderNil, r.RenderEmpty, r.TreatNil, r.TreatEmpty, r.TreatOmitted} {
		if _, ok := parsePolicy(p); !ok {
			v.res.AddError("unknown_policy", fmt.Sprintf("unknown policy %q", p), v.md.Name, path,
				match.Suggest(p, policyNames, maxSuggestions)...)
		}
	}

	if pb := r.PolymorphicBy; pb != nil {
		if pb.Key == "" {
			v.errorf("missing_discriminator", path, "polymorphic_by needs a key")
		}

		for _, value := range sortedKeys(pb.Classes) {
			v.checkModel(path, pb.Classes[value])
		}
	}
}

func (v *modelValidator) validateXML(x *XMLDef) {
	if x.Namespace != "" {
		v.checkNamespace("xml", x.Namespace)
	}

	for _, f := range []string{x.ElementForm, x.AttributeForm} {
		v.checkForm("xml", f)
	}

	for i, s := range x.Scope {
		path := common.QualifiedName("xml", "scope", fmt.Sprint(i))
		v.checkNamespace(path, s.Namespace)

		if _, ok := parseScopeMode(s.Mode); !ok {
			v.res.AddError("unknown_scope_mode", fmt.Sprintf("unknown scope mode %q", s.Mode), v.md.Name, path,
				match.Suggest(s.Mode, scopeModeNames, maxSuggestions)...)
		}
	}

	if x.MapAll != "" {
		if len(x.Elements) > 0 || len(x.Attributes) > 0 || x.Content != nil || x.Instances != nil {
			v.errorf("map_all_conflict", "xml", "map_all cannot be combined with other rules")
		}

		v.checkAttribute("xml.map_all", x.MapAll, v.attrs)
	}

	var elements []string

	for _, group := range []struct {
		kind  string
		rules []RuleDef
	}{{"elements", x.Elements}, {"attributes", x.Attributes}} {
		seen := map[string]struct{}{}

		for i := range group.rules {
			r := &group.rules[i]
			path := common.QualifiedName("xml", group.kind, r.Name.First())

			for _, n := range r.Name {
				if _, ok := seen[n]; ok {
					v.errorf("duplicate_rule", path, "duplicate %s name %q", group.kind, n)
				}

				seen[n] = struct{}{}
			}

			if group.kind == "elements" {
				elements = append(elements, r.Name...)
			}

			v.validateXMLRule(path, r, true)
		}
	}

	if x.Content != nil {
		if x.Content.To == "" {
			v.errorf("missing_content_target", "xml.content", "content needs a target attribute")
		}

		v.validateXMLRule("xml.content", x.Content, false)
	}

	if in := x.Instances; in != nil {
		v.validateXMLRule("xml.instances", in, false)
		elements = append(elements, in.Name...)

		if in.To == "" {
			v.errorf("missing_instances_target", "xml.instances", "instances needs a target attribute")
		}

		if a, ok := v.attrs[in.To]; ok && !a.Collection.IsSet() {
			v.errorf("instances_not_collection", "xml.instances", "attribute %q must be a collection", in.To)
		}
	}

	for _, seq := range x.Sequences {
		for _, name := range seq {
			if !slices.Contains(elements, name) {
				v.res.AddError("unknown_sequence_element", fmt.Sprintf("sequence names unmapped element %q", name),
					v.md.Name, "xml.sequences", match.Suggest(name, elements, maxSuggestions)...)
			}
		}
	}
}

func (v *modelValidator) validateXMLRule(path string, r *RuleDef, named bool) {
	v.validateRule(path, r, named)

	if r.Namespace != "" && r.Namespace != NoNamespace {
		v.checkNamespace(path, r.Namespace)
	}

	v.checkForm(path, r.Form)

	if r.Path != "" || len(r.ChildMappings) > 0 {
		v.res.AddWarning("ignored_option", "path and child_mappings only apply to key-value rules", v.md.Name, path)
	}
}

func (v *modelValidator) checkNamespace(path, name string) {
	if _, ok := v.ix.namespaces[name]; ok {
		return
	}

	v.res.AddError("unknown_namespace", fmt.Sprintf("namespace %q is not declared", name), v.md.Name, path,
		match.Suggest(name, v.ix.nsNames, maxSuggestions)...)
}

func (v *modelValidator) checkForm(path, form string) {
	if _, ok := parseForm(form); ok {
		return
	}

	v.res.AddError("unknown_form", fmt.Sprintf("unknown form %q", form), v.md.Name, path,
		match.Suggest(form, formNames, maxSuggestions)...)
}
