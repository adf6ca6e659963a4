package shapemap

import (
	"log/slog"
)

// Config holds engine-wide settings.
type Config struct {
	// Pretty indents output for formats that support it.
	Pretty bool
	// Indent is the indentation width used when Pretty is set.
	Indent int
	// XMLDeclaration writes <?xml ...?> before XML documents.
	XMLDeclaration bool
	// Validate runs Instance.Validate after every successful read.
	Validate bool
	// Logger receives debug and warning events. Nil uses slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		Pretty:         false,
		Indent:         2,
		XMLDeclaration: false,
		Validate:       false,
	}
}

// Option adjusts the engine configuration.
type Option func(*Config)

// WithConfig replaces the whole configuration.
func WithConfig(c Config) Option {
	return func(dst *Config) { *dst = c }
}

// WithPretty enables indented output with the given width.
func WithPretty(indent int) Option {
	return func(c *Config) {
		c.Pretty = true
		c.Indent = indent
	}
}

// WithXMLDeclaration writes the XML declaration.
func WithXMLDeclaration() Option {
	return func(c *Config) { c.XMLDeclaration = true }
}

// WithValidation validates every instance read by the engine.
func WithValidation() Option {
	return func(c *Config) { c.Validate = true }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}
