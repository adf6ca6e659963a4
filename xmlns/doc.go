// Package xmlns decides, for every serialized XML element, whether its
// namespace is written with a prefix or through a default-namespace
// declaration.
//
// The decision is made by a fixed chain of small pure rules sorted by
// priority. Each rule looks only at a DecisionContext, the immutable
// snapshot of what is known about the element and its parent, and the
// first rule that applies produces the Decision.
//
// # Rule chain
//
// Lower priority numbers are evaluated first:
//
//	0     inherit-parent-default   parent wrote xmlns="uri" for the same namespace
//	0.5   hoisted-on-parent        parent already declared the namespace, reuse it
//	0.6   reuse-parent-prefix      always-prefix documents rebinding a colliding prefix
//	0.75  explicit-prefix-option   caller asked for (or against) a prefix
//	0.9   element-form             qualified/unqualified override on the mapping
//	1     format-preservation      keep the form observed when the input was parsed
//	3     namespace-scope          namespace hoisted to the document root
//	4     attribute-usage          namespace used on attributes must be prefixed
//	5     default-preference       catch-all, prefer the default namespace
//
// The last rule always applies, so the engine never fails to decide for a
// well-formed chain. An engine built without it reports ErrNoDecision.
package xmlns
