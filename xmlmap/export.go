package xmlmap

import (
	"fmt"

	"github.com/spf13/cast"

	"shapemap/mapping"
	"shapemap/xmlns"
	"shapemap/xmltree"
)

// ModelToData renders inst as an XML element tree with namespaces
// resolved. A model with configuration errors is rejected.
func (t *Transform) ModelToData(inst *mapping.Instance, opts Options) (*xmltree.Node, error) {
	xm := t.mappingFor(inst.Model(), opts)

	root, err := t.buildModel(xm.RootName(), xm.RootNamespace(), inst, xm, opts, nil)
	if err != nil {
		return nil, err
	}

	nsOpts := xmlns.Options{
		Prefix:       opts.Prefix,
		AlwaysPrefix: opts.Prefix.Enabled(),
		Scope:        xm.Scope(),
	}
	if st := inst.XMLState(); st != nil {
		nsOpts.Preserved = st.Namespaces
	}

	if err := NewResolver(t.engine, nsOpts, t.logger).Resolve(root); err != nil {
		return nil, err
	}

	return root.node, nil
}

// buildModel renders inst as an element called name in namespace ns.
func (t *Transform) buildModel(name string, ns *xmlns.Namespace, inst *mapping.Instance, xm *mapping.XMLMapping, opts Options, poly *polyAttr) (*element, error) {
	if err := inst.Model().Err(); err != nil {
		return nil, err
	}

	el := newElement(name, ns)
	el.refs = CollectTypeNamespaces(inst.Model(), xm)

	if st := inst.XMLState(); st != nil && st.SchemaLocation != "" {
		el.setAttr("schemaLocation", xmlns.XSI, st.SchemaLocation)
	}

	if poly != nil {
		el.setAttr(poly.key, nil, poly.value)
	}

	if raw := xm.Raw(); raw != nil {
		return el, t.buildRaw(el, inst, raw)
	}

	for _, r := range xm.Attributes() {
		if !opts.selects(r.To()) {
			continue
		}

		if err := t.buildAttribute(el, inst, xm, r, ns, opts); err != nil {
			return nil, err
		}
	}

	b := &builder{t: t, el: el, inst: inst, xm: xm, ns: ns, opts: opts}
	if err := b.collect(); err != nil {
		return nil, err
	}

	if xm.IsOrdered() {
		if st := inst.XMLState(); st != nil && len(st.Order) > 0 {
			b.emitOrdered(st.Order)
		}
	}

	b.emitRest()

	return el, nil
}

type polyAttr struct {
	key, value string
}

func (t *Transform) buildRaw(el *element, inst *mapping.Instance, r *mapping.XMLRule) error {
	v := r.Serialize(inst)
	if mapping.Classify(v) != mapping.StatePresent {
		return nil
	}

	nodes, err := xmltree.ParseFragment(cast.ToString(v), xmltree.ParseOptions{KeepWhitespace: true})
	if err != nil {
		return fmt.Errorf("%s: raw content: %w", r.To(), err)
	}

	for _, n := range nodes {
		el.node.AddChild(n)
	}

	return nil
}

func (t *Transform) buildAttribute(el *element, inst *mapping.Instance, xm *mapping.XMLMapping, r *mapping.XMLRule, parent *xmlns.Namespace, opts Options) error {
	if r.HasCustomTo() {
		return r.Methods().To(inst, attrDoc{el: el})
	}

	attr, err := ruleAttr(inst, r)
	if err != nil {
		return err
	}

	v := r.Serialize(inst)
	if !r.Render(v, inst, opts.ValueMap) {
		return nil
	}

	if mapping.Classify(v) != mapping.StatePresent {
		// Attributes cannot carry xsi:nil, so only an empty value is written.
		if r.ExportState(v, opts.ValueMap) == mapping.StateEmpty {
			el.setAttr(r.Name(), attributeNamespace(r, xm, attr, parent), "")
		}

		return nil
	}

	if v, err = mapping.ExportValue(v, &r.Rule, attr, mapping.FormatXML); err != nil {
		return fmt.Errorf("%s: %w", r.Name(), err)
	}

	text, err := scalarText(attr, v)
	if err != nil {
		return fmt.Errorf("%s: %w", r.Name(), err)
	}

	el.setAttr(r.Name(), attributeNamespace(r, xm, attr, parent), text)

	return nil
}

func ruleAttr(inst *mapping.Instance, r *mapping.XMLRule) (*mapping.Attribute, error) {
	owner := r.TargetModel(inst.Model())

	attr, ok := owner.Attr(r.To())
	if !ok {
		return nil, &mapping.UnknownAttributeError{Attribute: r.To(), Model: owner.Name()}
	}

	return attr, nil
}

// scalarText renders a scalar value, joining lists with spaces.
func scalarText(attr *mapping.Attribute, v any) (string, error) {
	if items, ok := v.([]any); ok {
		out := ""

		for i, item := range items {
			s, err := scalarText(attr, item)
			if err != nil {
				return "", err
			}

			if i > 0 {
				out += " "
			}

			out += s
		}

		return out, nil
	}

	out, err := mapping.SerializeValue(attr.Type(), v, mapping.FormatXML)
	if err != nil {
		return "", err
	}

	return cast.ToStringE(out)
}

// attrDoc lets custom export methods write attributes.
type attrDoc struct {
	el *element
}

func (d attrDoc) Set(name string, value any) {
	d.el.setAttr(name, nil, cast.ToString(value))
}

// elementDoc lets custom export methods write child elements.
type elementDoc struct {
	el *element
	ns *xmlns.Namespace
}

func (d elementDoc) Set(name string, value any) {
	c := newElement(name, d.ns)
	if value != nil {
		c.addText(cast.ToString(value), false)
	}

	d.el.addChild(c)
}

// pending holds the rendered children of one rule, consumed in order.
type pending struct {
	rule  *mapping.XMLRule
	items []*element
	texts []string
	next  int
}

// builder renders the element and content rules of one model element.
type builder struct {
	t    *Transform
	el   *element
	inst *mapping.Instance
	xm   *mapping.XMLMapping
	ns   *xmlns.Namespace
	opts Options

	queue   []*pending
	content *pending
}

// collect renders every element and content rule into pending queues.
func (b *builder) collect() error {
	for _, r := range b.xm.Rules() {
		if !b.opts.selects(r.To()) {
			continue
		}

		switch r.Kind() {
		case mapping.KindElement, mapping.KindInstances:
			p, err := b.renderElements(r)
			if err != nil {
				return err
			}

			b.queue = append(b.queue, p)
		case mapping.KindContent:
			p, err := b.renderContent(r)
			if err != nil {
				return err
			}

			b.content = p
		}
	}

	return nil
}

func (b *builder) renderElements(r *mapping.XMLRule) (*pending, error) {
	p := &pending{rule: r}

	if r.HasCustomTo() {
		tmp := &element{node: xmltree.NewElement("")}
		if err := r.Methods().To(b.inst, elementDoc{el: tmp, ns: b.ns}); err != nil {
			return nil, fmt.Errorf("%s: %w", r.Name(), err)
		}

		p.items = tmp.children

		return p, nil
	}

	attr, err := ruleAttr(b.inst, r)
	if err != nil {
		return nil, err
	}

	if r.Kind() == mapping.KindInstances && !attr.IsCollection() {
		return nil, &mapping.CollectionTrueMissingError{Attribute: attr.Name(), Model: b.inst.Model().Name()}
	}

	v := r.Serialize(b.inst)
	if !r.Render(v, b.inst, b.opts.ValueMap) {
		return p, nil
	}

	if mapping.Classify(v) != mapping.StatePresent {
		ns, typed := elementNamespace(r, b.xm, attr, nil, b.ns)
		c := newTypedElement(r.Name(), ns, typed, formOf(r, b.xm.ElementForm()))

		if r.ExportState(v, b.opts.ValueMap) == mapping.StateNil {
			c.setAttr("nil", xmlns.XSI, "true")
		}

		p.items = append(p.items, c)

		return p, nil
	}

	v, err = mapping.ExportValue(v, &r.Rule, attr, mapping.FormatXML)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.Name(), err)
	}

	items, ok := v.([]any)
	if !ok {
		items = []any{v}
	}

	for _, item := range items {
		c, err := b.renderItem(r, attr, item)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", r.Name(), err)
		}

		p.items = append(p.items, c)
	}

	return p, nil
}

func (b *builder) renderItem(r *mapping.XMLRule, attr *mapping.Attribute, item any) (*element, error) {
	ns, typed := elementNamespace(r, b.xm, attr, item, b.ns)

	if nested, ok := item.(*mapping.Instance); ok && nested != nil {
		var poly *polyAttr
		if pm := r.Polymorphic(); pm != nil {
			if value, ok := pm.ValueFor(nested.Model().Name()); ok {
				poly = &polyAttr{key: pm.Key, value: value}
			}
		}

		c, err := b.t.buildModel(r.Name(), ns, nested, nested.Model().XMLMapping(), b.opts.nested(), poly)
		if err != nil {
			return nil, err
		}

		c.form = formOf(r, b.xm.ElementForm())

		return c, nil
	}

	c := newTypedElement(r.Name(), ns, typed, formOf(r, b.xm.ElementForm()))
	if item == nil {
		c.setAttr("nil", xmlns.XSI, "true")

		return c, nil
	}

	text, err := scalarText(attr, item)
	if err != nil {
		return nil, err
	}

	if text != "" {
		c.addText(text, r.IsCDATA())
	}

	return c, nil
}

func (b *builder) renderContent(r *mapping.XMLRule) (*pending, error) {
	p := &pending{rule: r}

	attr, err := ruleAttr(b.inst, r)
	if err != nil {
		return nil, err
	}

	v := r.Serialize(b.inst)
	if mapping.Classify(v) != mapping.StatePresent {
		return p, nil
	}

	v, err = mapping.ExportValue(v, &r.Rule, attr, mapping.FormatXML)
	if err != nil {
		return nil, fmt.Errorf("content: %w", err)
	}

	items, ok := v.([]any)
	if !ok {
		items = []any{v}
	}

	for _, item := range items {
		s, err := scalarText(attr, item)
		if err != nil {
			return nil, fmt.Errorf("content: %w", err)
		}

		p.texts = append(p.texts, s)
	}

	return p, nil
}

// emitOrdered replays the captured child order, taking the next pending
// value of the matching rule for every captured element.
func (b *builder) emitOrdered(order []mapping.OrderItem) {
	for _, item := range order {
		switch item.Kind {
		case mapping.OrderText:
			if b.content != nil && b.content.next < len(b.content.texts) {
				b.el.addText(b.content.texts[b.content.next], b.content.rule.IsCDATA())
				b.content.next++
			}
		case mapping.OrderElement:
			r := findElementRule(b.xm, item.Name, item.Namespace)
			if r == nil {
				continue
			}

			for _, p := range b.queue {
				if p.rule == r && p.next < len(p.items) {
					b.el.addChild(p.items[p.next])
					p.next++

					break
				}
			}
		}
	}
}

// emitRest writes whatever the ordered pass left, content first.
func (b *builder) emitRest() {
	if b.content != nil {
		for ; b.content.next < len(b.content.texts); b.content.next++ {
			b.el.addText(b.content.texts[b.content.next], b.content.rule.IsCDATA())
		}
	}

	for _, p := range b.queue {
		for ; p.next < len(p.items); p.next++ {
			b.el.addChild(p.items[p.next])
		}
	}
}
