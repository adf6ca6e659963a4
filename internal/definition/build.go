package definition

import (
	"errors"
	"fmt"

	"shapemap/mapping"
	"shapemap/xmlns"
)

// Build turns a definition file into models and registers them in reg.
// Models are returned in declaration order. Build assumes the file passed
// Validate; unresolved names surface as errors.
func Build(f *File, reg *mapping.Registry) ([]*mapping.Model, error) {
	if f == nil {
		return nil, errors.New("definition file is nil")
	}

	if reg == nil {
		reg = mapping.NewRegistry()
	}

	order, err := buildOrder(f)
	if err != nil {
		return nil, err
	}

	b := &builder{
		models:     make(map[string]*mapping.Model, len(f.Models)),
		namespaces: make(map[string]*xmlns.Namespace, len(f.Namespaces)),
	}

	for _, ns := range f.Namespaces {
		b.namespaces[ns.Name] = xmlns.New(ns.URI, ns.Prefix)
	}

	for _, i := range order {
		md := &f.Models[i]

		m, err := b.model(md)
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", md.Name, err)
		}

		b.models[md.Name] = m
	}

	models := make([]*mapping.Model, 0, len(f.Models))
	for i := range f.Models {
		models = append(models, b.models[f.Models[i].Name])
	}

	if err := reg.Register(models...); err != nil {
		return nil, fmt.Errorf("failed to register models: %w", err)
	}

	return models, nil
}

type builder struct {
	models     map[string]*mapping.Model
	namespaces map[string]*xmlns.Namespace
	// current is the model under construction; attributes may refer to it.
	current *mapping.Model
}

func (b *builder) model(md *ModelDef) (*mapping.Model, error) {
	var opts []mapping.ModelOption

	if md.Extends != "" {
		parent, err := b.lookup(md.Extends)
		if err != nil {
			return nil, err
		}

		opts = append(opts, mapping.Extends(parent))
	}

	m := mapping.NewModel(md.Name, opts...)
	b.current = m

	for _, name := range md.Import {
		imported, err := b.lookup(name)
		if err != nil {
			return nil, err
		}

		m.Import(imported)
	}

	for _, a := range md.Attributes {
		if err := b.attribute(m, a); err != nil {
			return nil, fmt.Errorf("attribute %s: %w", a.Name, err)
		}
	}

	if in := md.Instances; in != nil {
		t, err := b.typeOf(in.Type)
		if err != nil {
			return nil, err
		}

		m.Instances(in.Attribute, t)
	}

	if s := md.Sort; s != nil {
		order, _ := parseSortOrder(s.Order)
		m.Sort(s.By, order)
	}

	for _, c := range md.Choices {
		m.Choice(c.Min, c.Max, c.Attributes...)
	}

	if md.KeyValue != nil {
		if err := b.keyValue(m.KeyValue(), md.KeyValue); err != nil {
			return nil, err
		}
	}

	for _, name := range sortedKeys(md.PerFormat) {
		f, ok := parseKeyValueFormat(name)
		if !ok {
			return nil, fmt.Errorf("unknown key-value format %q", name)
		}

		if err := b.keyValue(m.KeyValueFor(f), md.PerFormat[name]); err != nil {
			return nil, err
		}
	}

	if md.XML != nil {
		if err := b.xml(m.XML(), md.XML); err != nil {
			return nil, err
		}
	}

	return m, m.Err()
}

func (b *builder) lookup(name string) (*mapping.Model, error) {
	if b.current != nil && b.current.Name() == name {
		return b.current, nil
	}

	m, ok := b.models[name]
	if !ok {
		return nil, fmt.Errorf("model %q is not defined", name)
	}

	return m, nil
}

func (b *builder) typeOf(name string) (mapping.Type, error) {
	if vt, ok := valueTypes[name]; ok {
		return vt, nil
	}

	return b.lookup(name)
}

func (b *builder) attribute(m *mapping.Model, a AttributeDef) error {
	t, err := b.typeOf(a.Type)
	if err != nil {
		return err
	}

	var opts []mapping.AttributeOption

	if a.Collection.IsSet() {
		r, err := a.Collection.Range()
		if err != nil {
			return err
		}

		opts = append(opts, mapping.Collection(r.Min, r.Max))
	}

	if a.Default != nil {
		v, err := castDefault(a)
		if err != nil {
			return err
		}

		opts = append(opts, mapping.Default(v))
	}

	if a.Required {
		opts = append(opts, mapping.Required())
	}

	if a.InitializeEmpty {
		opts = append(opts, mapping.InitializeEmpty())
	}

	if !a.Polymorphic.IsEmpty() {
		if a.Polymorphic.Contains(AnyPolymorphic) {
			opts = append(opts, mapping.PolymorphicAny())
		} else {
			opts = append(opts, mapping.Polymorphic(a.Polymorphic...))
		}
	}

	m.Attribute(a.Name, t, opts...)

	return nil
}

// castDefault casts a YAML default through the attribute's value type. List
// defaults of collections are cast item by item.
func castDefault(a AttributeDef) (any, error) {
	vt, ok := valueTypes[a.Type]
	if !ok {
		return nil, fmt.Errorf("defaults are only supported for value types, not %q", a.Type)
	}

	items, isList := a.Default.([]any)
	if !isList {
		if a.Collection.IsSet() {
			return nil, errors.New("collection default must be a list")
		}

		return vt.Cast(a.Default, mapping.FormatYAML)
	}

	if !a.Collection.IsSet() {
		return nil, errors.New("list default on a non-collection attribute")
	}

	out := make([]any, 0, len(items))

	for _, item := range items {
		v, err := vt.Cast(item, mapping.FormatYAML)
		if err != nil {
			return nil, err
		}

		out = append(out, v)
	}

	return out, nil
}

func ruleOptions(r *RuleDef) []mapping.Option {
	var opts []mapping.Option

	if rest := r.Name.Rest(); len(rest) > 0 {
		opts = append(opts, mapping.Aliases(rest...))
	}

	if r.Delegate != "" {
		opts = append(opts, mapping.Delegate(r.Delegate))
	}

	for _, p := range []struct {
		value string
		opt   func(mapping.Policy) mapping.Option
	}{
		{r.RenderNil, mapping.RenderNil},
		{r.RenderEmpty, mapping.RenderEmpty},
		{r.TreatNil, mapping.TreatNil},
		{r.TreatEmpty, mapping.TreatEmpty},
		{r.TreatOmitted, mapping.TreatOmitted},
	} {
		if policy, ok := parsePolicy(p.value); ok && policy != mapping.PolicyUnset {
			opts = append(opts, p.opt(policy))
		}
	}

	if r.RenderDefault {
		opts = append(opts, mapping.RenderDefault())
	}

	if pb := r.PolymorphicBy; pb != nil {
		opts = append(opts, mapping.PolymorphicBy(pb.Key, pb.Classes))
	}

	return opts
}

func (b *builder) keyValue(km *mapping.KeyValueMapping, kv *KeyValueDef) error {
	if kv.Root != "" {
		km.Root(kv.Root)
	}

	switch {
	case kv.MapAll != "":
		km.MapAll(kv.MapAll)
	case kv.MapInstances != "":
		km.MapInstances(kv.MapInstances)
	case kv.RootMappings != nil:
		children, err := childMappings(kv.RootMappings.Children)
		if err != nil {
			return err
		}

		km.Map("", kv.RootMappings.To, mapping.RootMappings(children...))
	}

	for i := range kv.Rules {
		r := &kv.Rules[i]

		var opts []mapping.KeyValueOption
		for _, o := range ruleOptions(r) {
			opts = append(opts, o)
		}

		if r.Path != "" {
			opts = append(opts, mapping.Path(r.Path))
		}

		if len(r.ChildMappings) > 0 {
			children, err := childMappings(r.ChildMappings)
			if err != nil {
				return err
			}

			opts = append(opts, mapping.ChildMappings(children...))
		}

		km.Map(r.Name.First(), r.To, opts...)
	}

	return km.Err()
}

func childMappings(defs []ChildDef) ([]mapping.ChildMapping, error) {
	out := make([]mapping.ChildMapping, 0, len(defs))

	for _, c := range defs {
		cm, ok := parseChild(c)
		if !ok {
			return nil, fmt.Errorf("invalid child mapping for %q", c.Attribute)
		}

		out = append(out, cm)
	}

	return out, nil
}

func (b *builder) xml(xm *mapping.XMLMapping, x *XMLDef) error {
	if x.Root != "" {
		xm.Root(x.Root)
	}

	if x.Namespace != "" {
		ns, err := b.namespace(x.Namespace)
		if err != nil {
			return err
		}

		xm.Namespace(ns.URI, ns.Prefix)
	}

	if x.Mixed {
		xm.MixedContent()
	} else if x.Ordered {
		xm.Ordered()
	}

	for _, seq := range x.Sequences {
		xm.Sequence(seq...)
	}

	if f, _ := parseForm(x.ElementForm); f != xmlns.FormUnset {
		xm.ElementFormDefault(f)
	}

	if f, _ := parseForm(x.AttributeForm); f != xmlns.FormUnset {
		xm.AttributeFormDefault(f)
	}

	for _, s := range x.Scope {
		ns, err := b.namespace(s.Namespace)
		if err != nil {
			return err
		}

		mode, _ := parseScopeMode(s.Mode)
		xm.NamespaceScope(ns, mode)
	}

	if x.MapAll != "" {
		xm.MapAll(x.MapAll)
	}

	for i := range x.Attributes {
		r := &x.Attributes[i]

		opts, err := b.xmlOptions(r)
		if err != nil {
			return err
		}

		xm.MapAttribute(r.Name.First(), r.To, opts...)
	}

	for i := range x.Elements {
		r := &x.Elements[i]

		opts, err := b.xmlOptions(r)
		if err != nil {
			return err
		}

		xm.MapElement(r.Name.First(), r.To, opts...)
	}

	if r := x.Content; r != nil {
		opts, err := b.xmlOptions(r)
		if err != nil {
			return err
		}

		xm.MapContent(r.To, opts...)
	}

	if r := x.Instances; r != nil {
		opts, err := b.xmlOptions(r)
		if err != nil {
			return err
		}

		xm.MapInstances(b.instancesElement(r), r.To, opts...)
	}

	return xm.Err()
}

// instancesElement names the repeated element: the rule name, else the root
// element of the item model.
func (b *builder) instancesElement(r *RuleDef) string {
	if name := r.Name.First(); name != "" {
		return name
	}

	if b.current != nil {
		if a, ok := b.current.Attr(r.To); ok {
			if item, ok := a.Model(); ok {
				return item.XMLMapping().RootName()
			}
		}
	}

	return r.To
}

func (b *builder) xmlOptions(r *RuleDef) ([]mapping.XMLOption, error) {
	var opts []mapping.XMLOption
	for _, o := range ruleOptions(r) {
		opts = append(opts, o)
	}

	switch r.Namespace {
	case "":
	case NoNamespace:
		opts = append(opts, mapping.Namespace(nil))
	default:
		ns, err := b.namespace(r.Namespace)
		if err != nil {
			return nil, err
		}

		opts = append(opts, mapping.Namespace(ns))
	}

	form, ok := parseForm(r.Form)
	if !ok {
		return nil, fmt.Errorf("unknown form %q", r.Form)
	}

	if form != xmlns.FormUnset {
		opts = append(opts, mapping.Form(form))
	}

	if r.CDATA {
		opts = append(opts, mapping.CDATA())
	}

	return opts, nil
}

func (b *builder) namespace(name string) (*xmlns.Namespace, error) {
	ns, ok := b.namespaces[name]
	if !ok {
		return nil, fmt.Errorf("namespace %q is not declared", name)
	}

	return ns, nil
}
