package definition

// File represents the root of a YAML model definition file.
type File struct {
	// Version of the definition schema (for future compatibility).
	Version string `yaml:"version,omitempty"`

	// Namespaces declares XML namespaces referenced by name from XML mappings.
	Namespaces []NamespaceDef `yaml:"namespaces,omitempty"`

	// Models is the list of model definitions.
	Models []ModelDef `yaml:"models"`
}

// NamespaceDef names an XML namespace.
type NamespaceDef struct {
	Name   string `yaml:"name"`
	URI    string `yaml:"uri"`
	Prefix string `yaml:"prefix,omitempty"`
}

// ModelDef defines one model.
type ModelDef struct {
	// Name is the model name, unique within the file.
	Name string `yaml:"name"`

	// Extends names the parent model. Attributes and mappings are copied.
	Extends string `yaml:"extends,omitempty"`

	// Import names models whose attributes and mappings are merged in.
	Import StringOrArray `yaml:"import,omitempty"`

	Attributes []AttributeDef `yaml:"attributes,omitempty"`

	// Instances turns the model into a collection of items.
	Instances *InstancesDef `yaml:"instances,omitempty"`

	// Sort orders the items of a collection model.
	Sort *SortDef `yaml:"sort,omitempty"`

	Choices []ChoiceDef `yaml:"choices,omitempty"`

	// KeyValue is the mapping shared by all key-value formats.
	KeyValue *KeyValueDef `yaml:"key_value,omitempty"`

	// PerFormat holds key-value mappings used by one format only,
	// keyed by format name (json, yaml, toml, cbor, hash).
	PerFormat map[string]*KeyValueDef `yaml:"per_format,omitempty"`

	XML *XMLDef `yaml:"xml,omitempty"`
}

// AttributeDef declares an attribute.
type AttributeDef struct {
	Name string `yaml:"name"`

	// Type is a built-in value type (string, integer, float, boolean, time,
	// any) or the name of a model.
	Type string `yaml:"type"`

	// Collection declares the arity: true, "1..3", "2..*" or a fixed count.
	Collection Arity `yaml:"collection,omitempty"`

	// Default is cast through the attribute type when the model is built.
	Default any `yaml:"default,omitempty"`

	Required        bool `yaml:"required,omitempty"`
	InitializeEmpty bool `yaml:"initialize_empty,omitempty"`

	// Polymorphic lists accepted model names; "*" accepts any subtype.
	Polymorphic StringOrArray `yaml:"polymorphic,omitempty"`
}

// InstancesDef names the items attribute of a collection model.
type InstancesDef struct {
	Attribute string `yaml:"attribute"`
	Type      string `yaml:"type"`
}

// SortDef orders collection items by an attribute of the item model.
type SortDef struct {
	By    string `yaml:"by"`
	Order string `yaml:"order,omitempty"`
}

// ChoiceDef requires between Min and Max of Attributes to be present.
type ChoiceDef struct {
	Min        int      `yaml:"min"`
	Max        int      `yaml:"max"`
	Attributes []string `yaml:"attributes"`
}

// RuleDef is a mapping rule shared by key-value and XML mappings.
type RuleDef struct {
	// Name is the document name; further entries are read-only aliases.
	Name StringOrArray `yaml:"name"`

	// To is the target attribute. Defaults to the first name.
	To string `yaml:"to,omitempty"`

	// Delegate reads and writes To on the nested instance held by this attribute.
	Delegate string `yaml:"delegate,omitempty"`

	RenderNil     string `yaml:"render_nil,omitempty"`
	RenderEmpty   string `yaml:"render_empty,omitempty"`
	RenderDefault bool   `yaml:"render_default,omitempty"`
	TreatNil      string `yaml:"treat_nil,omitempty"`
	TreatEmpty    string `yaml:"treat_empty,omitempty"`
	TreatOmitted  string `yaml:"treat_omitted,omitempty"`

	PolymorphicBy *PolymorphicDef `yaml:"polymorphic_by,omitempty"`

	// Path is a JSONPath expression read instead of the name (key-value only).
	Path string `yaml:"path,omitempty"`

	// ChildMappings reads a keyed object into nested items (key-value only).
	ChildMappings []ChildDef `yaml:"child_mappings,omitempty"`

	// Namespace references a NamespaceDef by name (XML only). "none"
	// removes the inherited namespace.
	Namespace string `yaml:"namespace,omitempty"`

	// Form is qualified or unqualified (XML only).
	Form string `yaml:"form,omitempty"`

	// CDATA writes the value as a CDATA section (XML only).
	CDATA bool `yaml:"cdata,omitempty"`
}

// PolymorphicDef maps discriminator values to model names.
type PolymorphicDef struct {
	Key     string            `yaml:"key"`
	Classes map[string]string `yaml:"classes"`
}

// ChildDef binds an item attribute to the key, the value or a path inside
// the value of a keyed entry.
type ChildDef struct {
	Attribute string   `yaml:"attribute"`
	From      string   `yaml:"from,omitempty"`
	Path      []string `yaml:"path,omitempty"`
}

// KeyValueDef defines a key-value mapping.
type KeyValueDef struct {
	// Root wraps the document in a single key.
	Root string `yaml:"root,omitempty"`

	Rules []RuleDef `yaml:"rules,omitempty"`

	// MapAll stores the whole document in one attribute.
	MapAll string `yaml:"map_all,omitempty"`

	// MapInstances maps the document as a list of items into an attribute.
	MapInstances string `yaml:"map_instances,omitempty"`

	// RootMappings reads the whole document as a keyed object.
	RootMappings *RootMappingDef `yaml:"root_mappings,omitempty"`
}

// RootMappingDef reads the document as a keyed object into To.
type RootMappingDef struct {
	To       string     `yaml:"to"`
	Children []ChildDef `yaml:"children"`
}

// XMLDef defines an XML mapping.
type XMLDef struct {
	// Root is the element name. Defaults to the model name.
	Root string `yaml:"root,omitempty"`

	// Namespace references a NamespaceDef by name.
	Namespace string `yaml:"namespace,omitempty"`

	Ordered bool `yaml:"ordered,omitempty"`
	Mixed   bool `yaml:"mixed,omitempty"`

	// Sequences lists groups of element names that must appear in order.
	Sequences [][]string `yaml:"sequences,omitempty"`

	ElementForm   string `yaml:"element_form,omitempty"`
	AttributeForm string `yaml:"attribute_form,omitempty"`

	Scope []ScopeDef `yaml:"scope,omitempty"`

	Elements   []RuleDef `yaml:"elements,omitempty"`
	Attributes []RuleDef `yaml:"attributes,omitempty"`

	// Content binds the element text.
	Content *RuleDef `yaml:"content,omitempty"`

	// MapAll stores the raw inner XML in one attribute.
	MapAll string `yaml:"map_all,omitempty"`

	// Instances maps repeated child elements into the items attribute.
	Instances *RuleDef `yaml:"instances,omitempty"`
}

// ScopeDef declares a namespace on the root element.
type ScopeDef struct {
	Namespace string `yaml:"namespace"`
	// Mode is always (default) or auto.
	Mode string `yaml:"mode,omitempty"`
}

// Value types understood in AttributeDef.Type.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeFloat   = "float"
	TypeBoolean = "boolean"
	TypeTime    = "time"
	TypeAny     = "any"
)

// BuiltinTypes lists the value type names in declaration order.
var BuiltinTypes = []string{TypeString, TypeInteger, TypeFloat, TypeBoolean, TypeTime, TypeAny}

// NoNamespace clears the inherited namespace of an XML rule.
const NoNamespace = "none"

// AnyPolymorphic accepts any registered subtype.
const AnyPolymorphic = "*"
