// Package mapping holds the declarative model and mapping-rule layer.
//
// A Model declares ordered attributes and, per format, a mapping: an
// ordered list of rules binding serialized names to attributes. Models are
// built once, registered in a Registry and then only read.
//
//	kiln := mapping.NewModel("Kiln").
//		Attribute("name", mapping.String).
//		Attribute("sensors", mapping.String, mapping.Collection(1, 3))
//
//	kiln.KeyValue().
//		Map("name", "name").
//		Map("sensors", "sensors", mapping.RenderEmpty(mapping.AsEmpty))
//
//	kiln.XML().Root("kiln").
//		MapAttribute("name", "name").
//		MapElement("sensor", "sensors")
//
// # Nil, empty and omitted values
//
// Every rule resolves a ValueMap from its render and treat policies. The
// table is the only place where nil, empty and omitted values are decided:
// Render consults the export side, Treat the import side.
//
// # Custom methods and delegation
//
// Rule.Deserialize tries, in order, the rule's custom From function, the
// delegate attribute, the attribute and rule transforms, and finally plain
// assignment. Custom functions always win.
//
// # Copy on derive
//
// Extends and Import copy attributes and rules up front, so a derived model
// never shares mutable rule state with the model it came from.
package mapping
