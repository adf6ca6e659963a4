package xmlmap

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cast"

	"shapemap/mapping"
	"shapemap/xmlns"
	"shapemap/xmltree"
)

// DataToModel reads an element tree into a new instance of m. The
// namespace forms and schema location seen in the input are kept on the
// instance so a later export reproduces them. A model with configuration
// errors is rejected.
func (t *Transform) DataToModel(node *xmltree.Node, m *mapping.Model, opts Options) (*mapping.Instance, error) {
	xm := t.mappingFor(m, opts)

	inst := m.New()
	if err := t.readModel(node, inst, xm, opts); err != nil {
		return nil, err
	}

	preserved := make(map[string]xmlns.Preserved)
	node.Walk(func(n *xmltree.Node) {
		for _, d := range n.Decls {
			if _, seen := preserved[d.URI]; seen || d.URI == "" {
				continue
			}

			p := xmlns.Preserved{Format: xmlns.FormatDefault}
			if d.Prefix != "" {
				p = xmlns.Preserved{Format: xmlns.FormatPrefix, Prefix: d.Prefix}
			}

			preserved[d.URI] = p
		}
	})

	if len(preserved) > 0 {
		inst.XML().Namespaces = preserved
	}

	return inst, nil
}

func (t *Transform) readModel(node *xmltree.Node, inst *mapping.Instance, xm *mapping.XMLMapping, opts Options) error {
	if err := inst.Model().Err(); err != nil {
		return err
	}

	if a, ok := node.Attr("schemaLocation", xmlns.XSINamespaceURI); ok {
		inst.XML().SchemaLocation = a.Value
	}

	if raw := xm.Raw(); raw != nil {
		inner, err := node.InnerXML()
		if err != nil {
			return fmt.Errorf("%s: %w", raw.To(), err)
		}

		return raw.Deserialize(inst, inner, mapping.FormatXML)
	}

	if err := checkSequences(node, xm, inst.Model()); err != nil {
		return err
	}

	if xm.IsOrdered() {
		inst.XML().Order = captureOrder(node, xm.IsMixed())
	}

	for _, r := range xm.Rules() {
		if !opts.selects(r.To()) {
			continue
		}

		var err error

		switch r.Kind() {
		case mapping.KindAttribute:
			err = t.readAttribute(node, inst, r, opts)
		case mapping.KindElement, mapping.KindInstances:
			err = t.readElements(node, inst, r, opts)
		case mapping.KindContent:
			err = t.readContent(node, inst, r, xm.IsMixed(), opts)
		}

		if err != nil {
			return err
		}
	}

	return nil
}

// checkSequences verifies that the elements named by each sequence appear
// in sequence order.
func checkSequences(node *xmltree.Node, xm *mapping.XMLMapping, m *mapping.Model) error {
	for _, seq := range xm.Sequences() {
		for _, name := range seq {
			if !xm.HasElement(name) {
				return &mapping.InvalidSequenceError{Element: name, Model: m.Name()}
			}
		}
	}

	for _, seq := range xm.Sequences() {
		highest := -1

		for _, child := range node.Elements() {
			idx := slices.Index(seq, child.Name)
			if idx < 0 {
				continue
			}

			if idx < highest {
				return &mapping.IncorrectSequenceError{Element: seq[highest], Expected: child.Name}
			}

			highest = idx
		}
	}

	return nil
}

func captureOrder(node *xmltree.Node, mixed bool) []mapping.OrderItem {
	var order []mapping.OrderItem

	for _, c := range node.Children {
		if c.Kind == xmltree.ElementNode {
			order = append(order, mapping.OrderItem{Kind: mapping.OrderElement, Name: c.Name, Namespace: c.Namespace})

			continue
		}

		if !mixed && strings.TrimSpace(c.Text) == "" {
			continue
		}

		order = append(order, mapping.OrderItem{Kind: mapping.OrderText, Text: c.Text})
	}

	return order
}

// targetAttr returns the attribute a rule writes, or nil for a rule with a
// custom From method and no backing attribute.
func targetAttr(inst *mapping.Instance, r *mapping.XMLRule) (*mapping.Attribute, error) {
	owner := r.TargetModel(inst.Model())

	attr, ok := owner.Attr(r.To())
	if !ok && !r.HasCustomFrom() {
		return nil, &mapping.UnknownAttributeError{Attribute: r.To(), Model: owner.Name()}
	}

	return attr, nil
}

// assignMissing applies the import value map to a value that is not
// present in the document or is nil or empty.
func assignMissing(inst *mapping.Instance, r *mapping.XMLRule, attr *mapping.Attribute, v any, opts Options) error {
	switch r.ImportState(v, opts.ValueMap) {
	case mapping.StateNil:
		return r.Deserialize(inst, nil, mapping.FormatXML)
	case mapping.StateEmpty:
		return r.Deserialize(inst, attr.Empty(), mapping.FormatXML)
	default:
		return nil
	}
}

func (t *Transform) readAttribute(node *xmltree.Node, inst *mapping.Instance, r *mapping.XMLRule, opts Options) error {
	attr, err := targetAttr(inst, r)
	if err != nil {
		return err
	}

	if attr != nil && attr.IsDerived() {
		return nil
	}

	var found *xmltree.Attr

	ns, explicit := r.Namespace()
	for i, a := range node.Attrs {
		if !r.HasName(a.Name) || (explicit && a.Namespace != xmlns.URIOf(ns)) {
			continue
		}

		found = &node.Attrs[i]

		break
	}

	if r.HasCustomFrom() {
		if found == nil {
			return nil
		}

		return r.Deserialize(inst, found.Value, mapping.FormatXML)
	}

	if found == nil {
		return assignMissing(inst, r, attr, mapping.Uninitialized, opts)
	}

	if found.Value == "" {
		return assignMissing(inst, r, attr, "", opts)
	}

	var v any

	if attr.IsCollection() {
		fields := strings.Fields(found.Value)
		items := make([]any, 0, len(fields))

		for _, f := range fields {
			c, err := mapping.CastValue(attr.Type(), f, mapping.FormatXML)
			if err != nil {
				return fmt.Errorf("%s: %w", r.Name(), err)
			}

			items = append(items, c)
		}

		v = items
	} else if v, err = mapping.CastValue(attr.Type(), found.Value, mapping.FormatXML); err != nil {
		return fmt.Errorf("%s: %w", r.Name(), err)
	}

	return r.Deserialize(inst, v, mapping.FormatXML)
}

func (t *Transform) readElements(node *xmltree.Node, inst *mapping.Instance, r *mapping.XMLRule, opts Options) error {
	attr, err := targetAttr(inst, r)
	if err != nil {
		return err
	}

	if attr != nil && attr.IsDerived() {
		return nil
	}

	owner := r.TargetModel(inst.Model())
	if r.Kind() == mapping.KindInstances && attr != nil && !attr.IsCollection() {
		return &mapping.CollectionTrueMissingError{Attribute: attr.Name(), Model: owner.Name()}
	}

	var matched []*xmltree.Node

	for _, c := range node.Elements() {
		if matchesElement(c, r) {
			matched = append(matched, c)
		}
	}

	if r.HasCustomFrom() {
		if len(matched) == 0 {
			return nil
		}

		return r.Deserialize(inst, matched[0], mapping.FormatXML)
	}

	if len(matched) == 0 {
		return assignMissing(inst, r, attr, mapping.Uninitialized, opts)
	}

	if len(matched) > 1 && !attr.IsCollection() {
		return &mapping.CollectionTrueMissingError{Attribute: attr.Name(), Model: owner.Name()}
	}

	values := make([]any, 0, len(matched))
	for _, c := range matched {
		v, err := t.readItem(c, attr, r, opts)
		if err != nil {
			return fmt.Errorf("%s: %w", r.Name(), err)
		}

		values = append(values, v)
	}

	if attr.IsCollection() {
		return r.Deserialize(inst, values, mapping.FormatXML)
	}

	if s := mapping.Classify(values[0]); s != mapping.StatePresent {
		return assignMissing(inst, r, attr, values[0], opts)
	}

	return r.Deserialize(inst, values[0], mapping.FormatXML)
}

// readItem converts one matched element. Elements carrying xsi:nil read
// as nil; empty leaf elements read as the empty string.
func (t *Transform) readItem(c *xmltree.Node, attr *mapping.Attribute, r *mapping.XMLRule, opts Options) (any, error) {
	if a, ok := c.Attr("nil", xmlns.XSINamespaceURI); ok && cast.ToBool(a.Value) {
		return nil, nil
	}

	if m, ok := attr.Model(); ok {
		if poly := r.Polymorphic(); poly != nil {
			resolved, err := t.polymorphicModel(c, attr, poly)
			if err != nil {
				return nil, err
			}

			m = resolved
		}

		nested := m.New()
		if err := t.readModel(c, nested, m.XMLMapping(), opts.nested()); err != nil {
			return nil, err
		}

		return nested, nil
	}

	text := c.TextContent()
	if cdata, ok := c.CDataContent(); ok {
		text = cdata
	}

	if text == "" {
		return "", nil
	}

	return mapping.CastValue(attr.Type(), text, mapping.FormatXML)
}

func (t *Transform) polymorphicModel(c *xmltree.Node, attr *mapping.Attribute, poly *mapping.PolymorphicMap) (*mapping.Model, error) {
	declared, _ := attr.Model()

	disc, ok := c.Attr(poly.Key, "")
	if !ok {
		return declared, nil
	}

	name, ok := poly.ModelFor(disc.Value)
	if !ok {
		return nil, &mapping.PolymorphicTypeError{Attribute: attr.Name(), Value: disc.Value}
	}

	if t.registry == nil {
		return nil, fmt.Errorf("%s: %w: no registry to resolve %s", attr.Name(), mapping.ErrUnknownModel, name)
	}

	return t.registry.ResolvePolymorphic(attr, name)
}

// readContent reads the text of the element. Collection content keeps
// every text piece, which is how mixed content round trips.
func (t *Transform) readContent(node *xmltree.Node, inst *mapping.Instance, r *mapping.XMLRule, mixed bool, opts Options) error {
	attr, err := targetAttr(inst, r)
	if err != nil {
		return err
	}

	if r.HasCustomFrom() {
		return r.Deserialize(inst, node.TextContent(), mapping.FormatXML)
	}

	if attr.IsCollection() {
		var pieces []any

		for _, c := range node.Children {
			if c.Kind == xmltree.ElementNode || (!mixed && strings.TrimSpace(c.Text) == "") {
				continue
			}

			v, err := mapping.CastValue(attr.Type(), c.Text, mapping.FormatXML)
			if err != nil {
				return fmt.Errorf("content: %w", err)
			}

			pieces = append(pieces, v)
		}

		if len(pieces) == 0 {
			return assignMissing(inst, r, attr, mapping.Uninitialized, opts)
		}

		return r.Deserialize(inst, pieces, mapping.FormatXML)
	}

	text := node.TextContent()
	if cdata, ok := node.CDataContent(); ok {
		text = cdata
	}

	if len(node.Elements()) > 0 {
		text = strings.TrimSpace(text)
	}

	if text == "" {
		return assignMissing(inst, r, attr, mapping.Uninitialized, opts)
	}

	v, err := mapping.CastValue(attr.Type(), text, mapping.FormatXML)
	if err != nil {
		return fmt.Errorf("content: %w", err)
	}

	return r.Deserialize(inst, v, mapping.FormatXML)
}
