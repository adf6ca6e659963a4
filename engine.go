package shapemap

import (
	"errors"
	"fmt"
	"log/slog"

	"shapemap/adapter"
	"shapemap/keyvalue"
	"shapemap/mapping"
	"shapemap/xmlmap"
	"shapemap/xmlns"
	"shapemap/xmltree"
)

// ErrNoMultiDocument is returned by UnmarshalAll for formats without a
// multi-document form.
var ErrNoMultiDocument = errors.New("format has no multi-document form")

// CallOption tunes a single Marshal or Unmarshal call.
type CallOption func(*callOptions)

type callOptions struct {
	only     []string
	except   []string
	prefix   xmlns.PrefixOption
	valueMap *mapping.ValueMap
}

// Only limits the call to rules targeting the given attributes.
func Only(attrs ...string) CallOption {
	return func(o *callOptions) { o.only = attrs }
}

// Except skips rules targeting the given attributes.
func Except(attrs ...string) CallOption {
	return func(o *callOptions) { o.except = attrs }
}

// Prefix sets the prefix option of the root XML namespace.
func Prefix(p xmlns.PrefixOption) CallOption {
	return func(o *callOptions) { o.prefix = p }
}

// ValueMap overrides the value maps of every rule for one call.
func ValueMap(vm mapping.ValueMap) CallOption {
	return func(o *callOptions) { o.valueMap = &vm }
}

func collect(opts []CallOption) callOptions {
	var o callOptions
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

func (o callOptions) keyValue() keyvalue.Options {
	return keyvalue.Options{Only: o.only, Except: o.except, ValueMap: o.valueMap}
}

func (o callOptions) xml() xmlmap.Options {
	return xmlmap.Options{Only: o.only, Except: o.except, Prefix: o.prefix, ValueMap: o.valueMap}
}

// Engine converts instances to documents and back.
type Engine struct {
	registry *mapping.Registry
	config   Config
	logger   *slog.Logger
	xml      *xmlmap.Transform
}

// New returns an engine over the models of reg.
func New(reg *mapping.Registry, opts ...Option) *Engine {
	cfg := DefaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if reg == nil {
		reg = mapping.NewRegistry()
	}
	nsEngine := xmlns.NewEngine().WithLogger(logger)
	return &Engine{
		registry: reg,
		config:   cfg,
		logger:   logger,
		xml:      xmlmap.New(reg, nsEngine, logger),
	}
}

// Registry returns the registry the engine resolves models from.
func (e *Engine) Registry() *mapping.Registry { return e.registry }

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.config }

func (e *Engine) buildOptions() adapter.BuildOptions {
	return adapter.BuildOptions{
		Pretty:      e.config.Pretty,
		Indent:      e.config.Indent,
		Declaration: e.config.XMLDeclaration,
	}
}

// Marshal renders inst in format f.
func (e *Engine) Marshal(inst *mapping.Instance, f mapping.Format, opts ...CallOption) ([]byte, error) {
	o := collect(opts)
	a, err := adapter.For(f)
	if err != nil {
		return nil, err
	}

	var tree any
	if f == mapping.FormatXML {
		tree, err = e.xml.ModelToData(inst, o.xml())
	} else {
		tree, err = keyvalue.New(e.registry, f).ModelToData(inst, o.keyValue())
	}
	if err != nil {
		return nil, fmt.Errorf("marshal %s as %s: %w", inst.Model().Name(), f, err)
	}

	out, err := a.Build(tree, e.buildOptions())
	if err != nil {
		return nil, fmt.Errorf("marshal %s as %s: %w", inst.Model().Name(), f, err)
	}
	e.logger.Debug("marshaled", "model", inst.Model().Name(), "format", string(f), "bytes", len(out))
	return out, nil
}

// Unmarshal reads a document of format f into a new instance of m.
func (e *Engine) Unmarshal(data []byte, m *mapping.Model, f mapping.Format, opts ...CallOption) (*mapping.Instance, error) {
	if err := m.Err(); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", m.Name(), err)
	}

	a, err := adapter.For(f)
	if err != nil {
		return nil, err
	}
	tree, err := a.Parse(data)
	if err != nil {
		return nil, err
	}
	return e.fromTree(tree, m, f, collect(opts))
}

// UnmarshalAll reads a multi-document input: JSON lines or a YAML stream.
// Malformed documents are logged and skipped.
func (e *Engine) UnmarshalAll(data []byte, m *mapping.Model, f mapping.Format, opts ...CallOption) ([]*mapping.Instance, error) {
	if err := m.Err(); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", m.Name(), err)
	}

	var docs adapter.Documents
	switch f {
	case mapping.FormatJSON:
		docs = adapter.JSONLines{Logger: e.logger}
	case mapping.FormatYAML:
		docs = adapter.YAMLStream{Logger: e.logger}
	default:
		return nil, fmt.Errorf("%w: %s", ErrNoMultiDocument, f)
	}

	trees, err := docs.ParseAll(data)
	if err != nil {
		return nil, err
	}
	o := collect(opts)
	out := make([]*mapping.Instance, 0, len(trees))
	for i, tree := range trees {
		inst, err := e.fromTree(tree, m, f, o)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i+1, err)
		}
		out = append(out, inst)
	}
	return out, nil
}

// ToHash renders inst as plain maps, slices and scalars.
func (e *Engine) ToHash(inst *mapping.Instance, opts ...CallOption) (any, error) {
	tree, err := keyvalue.New(e.registry, mapping.FormatHash).ModelToData(inst, collect(opts).keyValue())
	if err != nil {
		return nil, fmt.Errorf("hash %s: %w", inst.Model().Name(), err)
	}
	return keyvalue.Plain(tree), nil
}

// FromHash reads plain maps, slices and scalars into a new instance of m.
func (e *Engine) FromHash(data any, m *mapping.Model, opts ...CallOption) (*mapping.Instance, error) {
	if err := m.Err(); err != nil {
		return nil, fmt.Errorf("hash %s: %w", m.Name(), err)
	}

	return e.fromTree(data, m, mapping.FormatHash, collect(opts))
}

func (e *Engine) fromTree(tree any, m *mapping.Model, f mapping.Format, o callOptions) (*mapping.Instance, error) {
	var (
		inst *mapping.Instance
		err  error
	)
	if f == mapping.FormatXML {
		node, ok := tree.(*xmltree.Node)
		if !ok {
			return nil, fmt.Errorf("unmarshal %s: %w: %T", m.Name(), adapter.ErrUnexpectedValue, tree)
		}
		inst, err = e.xml.DataToModel(node, m, o.xml())
	} else {
		inst, err = keyvalue.New(e.registry, f).DataToModel(tree, m, o.keyValue())
	}
	if err != nil {
		return nil, fmt.Errorf("unmarshal %s from %s: %w", m.Name(), f, err)
	}

	if e.config.Validate {
		if err := inst.Validate(); err != nil {
			return nil, fmt.Errorf("unmarshal %s from %s: %w", m.Name(), f, err)
		}
	}
	e.logger.Debug("unmarshaled", "model", m.Name(), "format", string(f))
	return inst, nil
}
