// Package shapemap maps application models to and from serialized
// documents.
//
// Models and their per-format mappings are declared with the mapping
// package and registered once in a mapping.Registry. An Engine then moves
// instances across formats:
//
//	reg := mapping.NewRegistry()
//	if err := reg.Register(kiln); err != nil {
//		return err
//	}
//	eng := shapemap.New(reg, shapemap.WithPretty(2))
//	inst, err := eng.Unmarshal(data, kiln, mapping.FormatXML)
//	out, err := eng.Marshal(inst, mapping.FormatJSON)
//
// Key-value formats (JSON, YAML, TOML, CBOR and plain hashes) go through
// package keyvalue, XML through package xmlmap, whose namespace prefixes
// are chosen by the decision engine in package xmlns.
package shapemap
