package xmlns

// Rule is one entry of the decision chain.
type Rule struct {
	Name     string
	Priority float64
	Applies  func(ctx DecisionContext) bool
	Decide   func(ctx DecisionContext) Decision
}

// Rule names.
const (
	RuleInheritParentDefault = "inherit-parent-default"
	RuleHoistedOnParent      = "hoisted-on-parent"
	RuleReuseParentPrefix    = "reuse-parent-prefix"
	RuleExplicitPrefix       = "explicit-prefix-option"
	RuleElementForm          = "element-form"
	RuleFormatPreservation   = "format-preservation"
	RuleNamespaceScope       = "namespace-scope"
	RuleAttributeUsage       = "attribute-usage"
	RuleDefaultPreference    = "default-preference"
)

// DefaultRules returns the standard chain in priority order.
func DefaultRules() []Rule {
	return []Rule{
		InheritParentDefaultRule(),
		HoistedOnParentRule(),
		ReuseParentPrefixRule(),
		ExplicitPrefixRule(),
		ElementFormRule(),
		FormatPreservationRule(),
		NamespaceScopeRule(),
		AttributeUsageRule(),
		DefaultPreferenceRule(),
	}
}

// InheritParentDefaultRule keeps a child in its parent's default namespace
// unprefixed instead of switching to the parent's prefix.
func InheritParentDefaultRule() Rule {
	return Rule{
		Name:     RuleInheritParentDefault,
		Priority: 0,
		Applies: func(ctx DecisionContext) bool {
			return ctx.sameAsParent() && ctx.ParentFormat == FormatDefault
		},
		Decide: func(ctx DecisionContext) Decision {
			return DefaultDecision(ctx.Namespace, "inherits parent default namespace")
		},
	}
}

// HoistedOnParentRule reuses the declaration the parent made for the
// parent's own namespace.
func HoistedOnParentRule() Rule {
	return Rule{
		Name:     RuleHoistedOnParent,
		Priority: 0.5,
		Applies: func(ctx DecisionContext) bool {
			if !ctx.sameAsParent() {
				return false
			}

			_, ok := ctx.ParentHoisted[ctx.uri()]

			return ok
		},
		Decide: func(ctx DecisionContext) Decision {
			prefix := ctx.ParentHoisted[ctx.uri()]
			if prefix == "" {
				return DefaultDecision(ctx.Namespace, "parent declared namespace as default")
			}

			return PrefixDecision(prefix, ctx.Namespace, "parent declared namespace with prefix")
		},
	}
}

// ReuseParentPrefixRule handles always-prefix documents where the element's
// preferred prefix collides with the prefix the parent uses for another
// namespace: the parent's prefix token is rebound locally.
func ReuseParentPrefixRule() Rule {
	return Rule{
		Name:     RuleReuseParentPrefix,
		Priority: 0.6,
		Applies: func(ctx DecisionContext) bool {
			return ctx.Options.AlwaysPrefix &&
				!ctx.IsRoot &&
				ctx.ParentFormat == FormatPrefix &&
				ctx.ParentNamespace != nil &&
				!ctx.sameAsParent() &&
				ctx.ParentPrefix != "" &&
				ctx.Namespace.Prefix == ctx.ParentPrefix &&
				ctx.TypeNamespacesNeedPrefix
		},
		Decide: func(ctx DecisionContext) Decision {
			return PrefixDecision(ctx.ParentPrefix, ctx.Namespace, "rebinds parent prefix to own namespace")
		},
	}
}

// ExplicitPrefixRule applies the caller's prefix override to the root
// model's namespace.
func ExplicitPrefixRule() Rule {
	return Rule{
		Name:     RuleExplicitPrefix,
		Priority: 0.75,
		Applies: func(ctx DecisionContext) bool {
			if !ctx.Options.Prefix.IsSet() || !ctx.sameAsRoot() {
				return false
			}

			return !ctx.Options.Prefix.Enabled() || ctx.Options.Prefix.Name() != "" || ctx.canPrefix()
		},
		Decide: func(ctx DecisionContext) Decision {
			opt := ctx.Options.Prefix
			if !opt.Enabled() {
				return DefaultDecision(ctx.Namespace, "prefix disabled by option")
			}

			if opt.Name() != "" {
				return PrefixDecision(opt.Name(), ctx.Namespace, "prefix named by option")
			}

			return PrefixDecision(ctx.preferredPrefix(), ctx.Namespace, "prefix requested by option")
		},
	}
}

// ElementFormRule honors a qualified/unqualified override on the mapping.
func ElementFormRule() Rule {
	return Rule{
		Name:     RuleElementForm,
		Priority: 0.9,
		Applies: func(ctx DecisionContext) bool {
			switch ctx.Form {
			case FormQualified:
				return ctx.canPrefix()
			case FormUnqualified:
				return true
			default:
				return false
			}
		},
		Decide: func(ctx DecisionContext) Decision {
			if ctx.Form == FormQualified {
				return PrefixDecision(ctx.preferredPrefix(), ctx.Namespace, "element form qualified")
			}

			return DefaultDecision(ctx.Namespace, "element form unqualified")
		},
	}
}

// FormatPreservationRule reproduces the form a namespace had in parsed input.
func FormatPreservationRule() Rule {
	return Rule{
		Name:     RuleFormatPreservation,
		Priority: 1,
		Applies: func(ctx DecisionContext) bool {
			p, ok := ctx.Options.Preserved[ctx.uri()]
			if !ok {
				return false
			}

			return p.Format == FormatDefault || p.Prefix != "" || ctx.canPrefix()
		},
		Decide: func(ctx DecisionContext) Decision {
			p := ctx.Options.Preserved[ctx.uri()]
			if p.Format == FormatDefault {
				return DefaultDecision(ctx.Namespace, "preserves default form of input")
			}

			prefix := p.Prefix
			if prefix == "" {
				prefix = ctx.preferredPrefix()
			}

			return PrefixDecision(prefix, ctx.Namespace, "preserves prefixed form of input")
		},
	}
}

// NamespaceScopeRule prefixes namespaces hoisted to the root, except the
// root's own namespace which stays the default namespace.
func NamespaceScopeRule() Rule {
	return Rule{
		Name:     RuleNamespaceScope,
		Priority: 3,
		Applies: func(ctx DecisionContext) bool {
			entry, ok := ctx.Options.ScopeFor(ctx.uri())
			if !ok {
				return false
			}

			if entry.Mode == ScopeAuto && !ctx.UsedInDocument {
				return false
			}

			return ctx.sameAsRoot() || ctx.canPrefix()
		},
		Decide: func(ctx DecisionContext) Decision {
			if ctx.sameAsRoot() {
				return DefaultDecision(ctx.Namespace, "root namespace in scope stays default")
			}

			return PrefixDecision(ctx.preferredPrefix(), ctx.Namespace, "namespace hoisted to root scope")
		},
	}
}

// AttributeUsageRule prefixes namespaces that qualify attributes, since only
// one default namespace is in effect per element.
func AttributeUsageRule() Rule {
	return Rule{
		Name:     RuleAttributeUsage,
		Priority: 4,
		Applies: func(ctx DecisionContext) bool {
			return ctx.UsedInAttributes && ctx.canPrefix()
		},
		Decide: func(ctx DecisionContext) Decision {
			return PrefixDecision(ctx.preferredPrefix(), ctx.Namespace, "namespace used on attributes")
		},
	}
}

// DefaultPreferenceRule is the unconditional catch-all.
func DefaultPreferenceRule() Rule {
	return Rule{
		Name:     RuleDefaultPreference,
		Priority: 5,
		Applies:  func(DecisionContext) bool { return true },
		Decide: func(ctx DecisionContext) Decision {
			return DefaultDecision(ctx.Namespace, "default namespace preferred")
		},
	}
}
