package xmlns

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
)

// ErrNoDecision means no rule matched a context. With DefaultRules this is
// unreachable; seeing it means the chain was built without a catch-all.
var ErrNoDecision = errors.New("xmlns: no decision rule matched")

// ErrNoNamespace is returned when the engine is asked to decide for an
// element without a namespace.
var ErrNoNamespace = errors.New("xmlns: element has no namespace")

// Engine evaluates a priority-ordered rule chain.
type Engine struct {
	rules  []Rule
	logger *slog.Logger
}

// NewEngine returns an engine over DefaultRules.
func NewEngine() *Engine {
	return NewEngineWithRules(DefaultRules()...)
}

// NewEngineWithRules returns an engine over exactly the given rules, sorted by
// priority. Rules with equal priority keep their given order.
func NewEngineWithRules(rules ...Rule) *Engine {
	sorted := slices.Clone(rules)
	slices.SortStableFunc(sorted, func(a, b Rule) int {
		switch {
		case a.Priority < b.Priority:
			return -1
		case a.Priority > b.Priority:
			return 1
		default:
			return 0
		}
	})

	return &Engine{rules: sorted}
}

// WithLogger returns a copy of the engine that logs decisions at debug level.
func (e *Engine) WithLogger(logger *slog.Logger) *Engine {
	c := *e
	c.logger = logger

	return &c
}

// Rules returns the chain in evaluation order.
func (e *Engine) Rules() []Rule {
	return slices.Clone(e.rules)
}

// Decide returns the decision of the first applicable rule.
func (e *Engine) Decide(ctx DecisionContext) (Decision, error) {
	if ctx.Namespace == nil {
		return Decision{}, ErrNoNamespace
	}

	for _, r := range e.rules {
		if !r.Applies(ctx) {
			continue
		}

		d := r.Decide(ctx)
		if d.reason == "" {
			d = d.withReason(r.Name)
		}

		if err := d.Validate(); err != nil {
			return Decision{}, fmt.Errorf("rule %s: %w", r.Name, err)
		}

		if e.logger != nil {
			e.logger.Debug("namespace decision",
				"namespace", ctx.Namespace.URI,
				"rule", r.Name,
				"format", d.Format().String(),
				"prefix", d.Prefix())
		}

		return d, nil
	}

	return Decision{}, fmt.Errorf("%w for namespace %s", ErrNoDecision, ctx.Namespace.URI)
}
